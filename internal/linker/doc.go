// Package linker merges the per-translation-unit dumps of one library into
// a single module.
//
// Dumps are decoded concurrently and folded into a LinkerState in input
// order. The first dump to define a linker_set_key wins; later definitions
// are discarded. A discarded definition that is structurally different
// from the kept one is an ODR violation across translation units and is
// surfaced as an ODRWarning, never as an error.
//
// Functions and variables are restricted to the exported surface: the
// symbols of a version script and the headers under the exported include
// directories. The ELF tables of the output come from the version script
// when one is given, and from the union of the inputs otherwise.
package linker
