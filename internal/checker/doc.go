// Package checker diffs two linked library dumps and classifies the result.
//
// A Checker runs one session of the engine over an (old, new) module pair:
//
//  1. Functions and global variables present on one side only are reported
//     as added or removed, unless a policy rule excuses them.
//  2. The ELF function and object tables are diffed by symbol name.
//  3. Functions and variables present on both sides are compared through
//     the engine; record and enum changes they reach are tagged Referenced.
//  4. With CheckAllAPIs, every named record and enum is compared afterwards
//     in the same session. Types already reached in step 3 hit the engine's
//     cache, so only changes outside the exported surface are added, tagged
//     Unreferenced.
//
// The report's CompatibilityStatus is derived from its contents by
// ir.DiffReport.ComputeStatus. Options.Gate decides which of those bits fail
// a build.
package checker
