package versionscript

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// SymbolLine is one parsed "<name>; <tags>" entry.
type SymbolLine struct {
	Name string
	Tags Tags
}

// IsPattern reports whether the name contains shell wildcards.
func (l SymbolLine) IsPattern() bool {
	return strings.ContainsAny(l.Name, "*?[")
}

// ParseSymbolLine parses a single symbol entry such as
// "foo; introduced-arm=21" or "bar; # var".
func ParseSymbolLine(line string) (SymbolLine, error) {
	name, rest, found := strings.Cut(line, ";")
	if !found {
		return SymbolLine{}, fmt.Errorf("missing ';' after symbol")
	}
	name = strings.TrimSpace(name)
	name = strings.Trim(name, `"`)
	if name == "" {
		return SymbolLine{}, fmt.Errorf("empty symbol name")
	}
	return SymbolLine{Name: name, Tags: ParseTags(rest)}, nil
}

type scope int

const (
	scopeGlobal scope = iota
	scopeLocal
)

// Parser reads version scripts under a Filter.
type Parser struct {
	filter Filter
}

func NewParser(filter Filter) *Parser {
	return &Parser{filter: filter}
}

// ParseFile parses the version script at path.
func ParseFile(path string, filter Filter) (*SymbolSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open version script: %w", err)
	}
	defer f.Close()
	return NewParser(filter).Parse(f)
}

// Parse reads a whole version script and returns the exported symbols.
func (p *Parser) Parse(r io.Reader) (*SymbolSet, error) {
	set := newSymbolSet()
	sc := bufio.NewScanner(r)

	var (
		lineNo    int
		inVersion bool
		inCpp     bool
		skipBlock bool
		cur       scope
		blockTags Tags
		blockName string
	)
	fail := func(format string, args ...any) error {
		return &ParseError{Line: lineNo, Message: fmt.Sprintf(format, args...)}
	}

	for sc.Scan() {
		lineNo++
		raw := strings.TrimSpace(sc.Text())
		if raw == "" || strings.HasPrefix(raw, "#") {
			continue
		}
		code, comment, _ := strings.Cut(raw, "#")
		code = strings.TrimSpace(code)

		switch {
		case strings.HasSuffix(code, "{"):
			head := strings.TrimSpace(strings.TrimSuffix(code, "{"))
			if strings.HasPrefix(head, "extern") {
				if !inVersion || inCpp {
					return nil, fail("unexpected extern block")
				}
				inCpp = true
				continue
			}
			if inVersion {
				return nil, fail("nested version block %q", head)
			}
			inVersion, cur = true, scopeGlobal
			blockName, blockTags = head, ParseTags(comment)
			skipBlock = p.blockExcluded(blockName, blockTags)
			if skipBlock {
				slog.Debug("skipping version block", "version", blockName)
			}
			continue

		case strings.HasPrefix(code, "}"):
			switch {
			case inCpp:
				inCpp = false
			case inVersion:
				inVersion, blockTags, skipBlock = false, nil, false
			default:
				return nil, fail("unmatched '}'")
			}
			continue
		}

		if !inVersion {
			return nil, fail("symbol outside a version block")
		}
		if rest, ok := cutScope(code, "global:"); ok {
			cur, code = scopeGlobal, rest
		} else if rest, ok := cutScope(code, "local:"); ok {
			cur, code = scopeLocal, rest
		}
		if code == "" {
			continue
		}
		if cur == scopeLocal || skipBlock {
			continue
		}

		line, err := ParseSymbolLine(code + " " + comment)
		if err != nil {
			return nil, fail("%v", err)
		}
		tags := line.Tags.inherit(blockTags)
		exported, err := p.filter.Exported(tags)
		if err != nil {
			return nil, fail("symbol %q: %v", line.Name, err)
		}
		if !exported {
			continue
		}
		switch {
		case inCpp:
			set.cppPatterns = append(set.cppPatterns, line.Name)
		case line.IsPattern():
			set.addGlob(line.Name, tags)
		default:
			set.add(line.Name, tags)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read version script: %w", err)
	}
	if inVersion {
		return nil, &ParseError{Line: lineNo, Message: fmt.Sprintf("unterminated version block %q", blockName)}
	}
	return set, nil
}

func (p *Parser) blockExcluded(name string, tags Tags) bool {
	if p.filter.excludesVersion(name) {
		return true
	}
	for _, tag := range p.filter.ExcludedTags {
		if tags.Has(tag) {
			return true
		}
	}
	return false
}

// cutScope strips a "global:" or "local:" label from the start of code.
func cutScope(code, label string) (string, bool) {
	if !strings.HasPrefix(code, label) {
		return code, false
	}
	return strings.TrimSpace(strings.TrimPrefix(code, label)), true
}
