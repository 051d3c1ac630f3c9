// Package merger aggregates per-(library, arch) diff reports into one
// release verdict.
//
// The overall severity only ever moves to a worse value as inputs are
// folded in: COMPATIBLE, then EXTENSION, then INCOMPATIBLE. Policy flags
// change the exit code, never the merged report.
package merger
