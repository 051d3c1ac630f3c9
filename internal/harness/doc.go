// Package harness runs end-to-end compatibility scenarios and compares
// outputs against golden files.
//
// # Scenario Format
//
// Scenarios are YAML files. Dump and policy paths are relative to the
// scenario file:
//
//	name: point_growth
//	description: "Growing a record reached from an exported function"
//	library: libpoint
//	arch: arm64
//	old:
//	  dumps: [old/point.sdump]
//	  version_script: libpoint.map.txt
//	new:
//	  dumps: [new/point.sdump]
//	policy: policy.yaml
//	expect:
//	  status: INCOMPATIBLE
//	assertions:
//	  - type: report_contains
//	    list: record_type_diffs
//	    keys: [Point]
//	  - type: report_count
//	    list: functions_added
//	    count: 1
//
// Each side is linked with the linker package, then the two linked modules
// are checked with the policy's checker options.
//
// # Assertion Types
//
//   - report_contains: every key appears in the named report list
//   - report_absent: no key appears in the named report list
//   - report_count: the named list has exactly count entries
//
// List names are the JSON field names of a diff report, e.g.
// functions_removed or removed_elf_functions.
//
// # Golden Files
//
// Result.Summary is stable across runs and is the text compared by
// AssertGolden.
package harness
