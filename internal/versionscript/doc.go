// Package versionscript parses linker version scripts into the set of
// symbols a library exports for one architecture and API level.
//
// A version script is a sequence of version blocks:
//
//	LIBFOO_1 { # introduced=21
//	  global:
//	    foo;
//	    bar; # var introduced-arm64=24
//	    baz*;
//	    extern "C++" {
//	      "ns::Widget::*";
//	    };
//	  local:
//	    *;
//	};
//
// Tags follow the semicolon of a symbol line, optionally after a '#'. Tags
// on a block line apply to every symbol in the block unless the symbol sets
// its own. Only global-scope symbols are exported.
package versionscript
