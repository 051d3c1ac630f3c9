// Package repr converts IR modules and diff reports to and from their two
// wire encodings: protobuf text format and JSON.
//
// Both encodings are a fixed external contract shared with the dump
// extractor. Text format is parsed and printed with txtpbfmt, so no
// generated message code is needed. Enum values are translated through one
// bidirectional table per enum and encoding (see tables.go).
//
// Readers are tolerant of unknown fields, so dumps produced by newer
// extractors still load. Malformed values fail with a *FormatError that
// carries the file path and line.
package repr
