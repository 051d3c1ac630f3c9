// Package analysis inspects the type-reference graph of a module.
//
// Every type, function and global variable is a node; an edge points at
// each linker_set_key the node refers to. Edges to keys the module does not
// define are dangling references. Strongly connected components of the
// type graph (Tarjan's algorithm) are recursive type groups, such as a
// linked-list node and the pointer to it.
//
// Both findings are informational. The diff engine terminates on recursive
// types, and dangling references only fail a diff when unresolved types are
// not allowed.
package analysis
