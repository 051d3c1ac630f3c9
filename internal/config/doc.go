// Package config loads compatibility policies.
//
// A policy file may be written in CUE, YAML or TOML. Whatever the format,
// the document is unified with the embedded #Policy schema, so unknown
// fields and mistyped values are rejected the same way everywhere.
package config
