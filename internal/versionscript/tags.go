package versionscript

import (
	"path"
	"slices"
	"strings"
)

// knownArches are the tags that restrict a symbol to listed architectures.
var knownArches = []string{"arm", "arm64", "x86", "x86_64", "riscv64", "mips", "mips64"}

// Tags is the ordered tag list attached to a symbol or version block.
type Tags []string

// ParseTags splits the text after a symbol's semicolon. A leading '#' is
// accepted and ignored.
func ParseTags(s string) Tags {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "#")
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return nil
	}
	return Tags(fields)
}

// Has reports whether tag is present verbatim.
func (t Tags) Has(tag string) bool {
	return slices.Contains(t, tag)
}

// IsVar reports whether the symbol is a data object.
func (t Tags) IsVar() bool {
	return t.Has("var") || t.Has("variable")
}

// IsWeak reports whether the symbol has weak binding.
func (t Tags) IsWeak() bool {
	return t.Has("weak")
}

// Arches returns the architecture tags in order.
func (t Tags) Arches() []string {
	var arches []string
	for _, tag := range t {
		if slices.Contains(knownArches, tag) {
			arches = append(arches, tag)
		}
	}
	return arches
}

// SatisfiesArch reports whether a line applies to arch. A line without
// architecture tags applies everywhere; an empty arch matches every line.
func (t Tags) SatisfiesArch(arch string) bool {
	arches := t.Arches()
	if len(arches) == 0 || arch == "" {
		return true
	}
	return slices.Contains(arches, arch)
}

// Introduced returns the API level a symbol appears at on arch. An
// "introduced-<arch>=" tag takes precedence over a plain "introduced=".
// ok is false when no tag constrains arch.
func (t Tags) Introduced(arch string) (level APILevel, ok bool, err error) {
	var generic string
	var haveGeneric bool
	for _, tag := range t {
		key, value, found := strings.Cut(tag, "=")
		if !found {
			continue
		}
		switch {
		case arch != "" && key == "introduced-"+arch:
			level, err = parseIntroduced(value)
			return level, err == nil, err
		case key == "introduced" && !haveGeneric:
			generic, haveGeneric = value, true
		}
	}
	if !haveGeneric {
		return 0, false, nil
	}
	level, err = parseIntroduced(generic)
	return level, err == nil, err
}

func parseIntroduced(value string) (APILevel, error) {
	if value == "future" {
		return FutureAPILevel, nil
	}
	return ParseAPILevel(value)
}

// hasIntroduced reports whether any introduced tag is present.
func (t Tags) hasIntroduced() bool {
	for _, tag := range t {
		if strings.HasPrefix(tag, "introduced=") || strings.HasPrefix(tag, "introduced-") {
			return true
		}
	}
	return false
}

// inherit returns t extended with the block-level tags in block. Arch and
// introduced tags are taken from block only when t sets none of its own.
func (t Tags) inherit(block Tags) Tags {
	if len(block) == 0 {
		return t
	}
	out := slices.Clone(t)
	ownArches := len(t.Arches()) > 0
	ownIntroduced := t.hasIntroduced()
	for _, tag := range block {
		switch {
		case slices.Contains(knownArches, tag):
			if ownArches {
				continue
			}
		case strings.HasPrefix(tag, "introduced=") || strings.HasPrefix(tag, "introduced-"):
			if ownIntroduced {
				continue
			}
		}
		if !out.Has(tag) {
			out = append(out, tag)
		}
	}
	return out
}

// matchAny reports whether name matches any of the shell patterns.
func matchAny(patterns []string, name string) bool {
	for _, p := range patterns {
		if ok, err := path.Match(p, name); err == nil && ok {
			return true
		}
	}
	return false
}
