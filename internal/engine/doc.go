// Package engine compares the type graphs of two ABI modules.
//
// A Differ walks a pair of linker_set_keys recursively, one key from the old
// module and one from the new, and classifies the pair with a DiffStatus:
//
//	NoDiff        nothing reachable from the pair changed
//	DirectDiff    the pair itself changed and no nested entry covers it
//	IndirectDiff  a nested record or enum changed and was already reported
//
// Records and enums are the only kinds that produce report entries of their
// own. After emitting an entry they answer IndirectDiff, so a function
// taking a pointer to a changed struct is not reported a second time.
// Wrapper kinds (pointer, qualified, array, reference) pass the status of
// their referenced type through unchanged.
//
// TYPE CACHE:
//
// Each (old key, new key) pair is compared at most once per Differ. The pair
// is recorded before recursing, so a self-referential record such as
//
//	struct N { N *next; };
//
// terminates: the second visit of (N, N) answers NoDiff. The cache also keeps
// a record reachable from many functions from being reported more than once.
//
// TYPE STACK:
//
// The names of the types currently being compared form the type stack. It is
// attached to every emitted diff (joined with " -> ") and to DiffErrors, and
// reads from the exported entity inward, e.g. "Foo -> Foo::next -> Bar".
//
// A Differ is not safe for concurrent use. Sessions never share a cache; run
// one Differ per (old, new) module pair.
package engine
