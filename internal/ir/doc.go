// Package ir provides the in-memory representation of a library ABI dump.
//
// This package contains type definitions only. All other internal packages
// import ir; ir imports nothing internal. This keeps IR the foundational
// layer with no circular dependencies.
//
// A Module owns every node it holds. Nodes reference each other by
// linker_set_key strings, never by pointer, because type graphs are cyclic
// (a record field may point back at the record). Lookups that miss fail
// closed with a KeyError instead of returning a nil node.
//
// Key design constraints:
//   - TypeIR and LinkableMessage are sealed: only this package implements them
//   - Nodes are immutable once added to a Module
//   - Keys are unique per category (types, functions, global vars, ELF tables)
package ir
