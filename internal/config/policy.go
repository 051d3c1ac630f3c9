package config

import (
	"bufio"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/roach88/headercheck/internal/checker"
	"github.com/roach88/headercheck/internal/merger"
)

//go:embed schema.cue
var schemaSource []byte

// Policy controls which changes fail a diff or merge.
type Policy struct {
	IgnoredSymbols                    []string `json:"ignored_symbols,omitempty"`
	AllowAddingRemovingWeakSymbols    bool     `json:"allow_adding_removing_weak_symbols,omitempty"`
	CheckAllAPIs                      bool     `json:"check_all_apis,omitempty"`
	AllowUnresolvedTypes              bool     `json:"allow_unresolved_types,omitempty"`
	AllowExtensions                   bool     `json:"allow_extensions,omitempty"`
	AllowUnreferencedChanges          bool     `json:"allow_unreferenced_changes,omitempty"`
	AllowUnreferencedElfSymbolChanges bool     `json:"allow_unreferenced_elf_symbol_changes,omitempty"`
	AdvisoryOnly                      bool     `json:"advisory_only,omitempty"`
}

// PolicyError reports an unreadable or invalid policy file.
type PolicyError struct {
	Path    string
	Pos     token.Pos
	Message string
}

func (e *PolicyError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: invalid policy: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Message)
	}
	return fmt.Sprintf("%s: invalid policy: %s", e.Path, e.Message)
}

// Load reads the policy at path. The format follows the extension:
// .cue, .yaml, .yml or .toml.
func Load(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read policy: %w", err)
	}
	return Parse(path, data)
}

// Parse decodes a policy document; path selects the format and is used in
// error messages.
func Parse(path string, data []byte) (*Policy, error) {
	ctx := cuecontext.New()
	schema := ctx.CompileBytes(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile policy schema: %w", err)
	}

	var doc cue.Value
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".cue":
		doc = ctx.CompileBytes(data, cue.Filename(path))
	case ".yaml", ".yml":
		var m map[string]any
		if err := yaml.Unmarshal(data, &m); err != nil {
			return nil, &PolicyError{Path: path, Message: err.Error()}
		}
		doc = ctx.Encode(orEmpty(m))
	case ".toml":
		var m map[string]any
		if _, err := toml.Decode(string(data), &m); err != nil {
			return nil, &PolicyError{Path: path, Message: err.Error()}
		}
		doc = ctx.Encode(orEmpty(m))
	default:
		return nil, &PolicyError{Path: path, Message: fmt.Sprintf("unsupported policy format %q (want .cue, .yaml or .toml)", ext)}
	}
	if err := doc.Err(); err != nil {
		return nil, cuePolicyError(path, err)
	}

	v := schema.LookupPath(cue.ParsePath("#Policy")).Unify(doc)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, cuePolicyError(path, err)
	}
	var p Policy
	if err := v.Decode(&p); err != nil {
		return nil, cuePolicyError(path, err)
	}
	return &p, nil
}

func orEmpty(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}

func cuePolicyError(path string, err error) error {
	pe := &PolicyError{Path: path, Message: cueerrors.Details(err, nil)}
	if errs := cueerrors.Errors(err); len(errs) > 0 {
		pe.Message = errs[0].Error()
		if pos := errs[0].Position(); pos.Filename() == path {
			pe.Pos = pos
		}
	}
	return pe
}

// Merge returns p with other layered on top: booleans are ORed and ignored
// symbols are unioned.
func (p Policy) Merge(other Policy) Policy {
	out := Policy{
		AllowAddingRemovingWeakSymbols:    p.AllowAddingRemovingWeakSymbols || other.AllowAddingRemovingWeakSymbols,
		CheckAllAPIs:                      p.CheckAllAPIs || other.CheckAllAPIs,
		AllowUnresolvedTypes:              p.AllowUnresolvedTypes || other.AllowUnresolvedTypes,
		AllowExtensions:                   p.AllowExtensions || other.AllowExtensions,
		AllowUnreferencedChanges:          p.AllowUnreferencedChanges || other.AllowUnreferencedChanges,
		AllowUnreferencedElfSymbolChanges: p.AllowUnreferencedElfSymbolChanges || other.AllowUnreferencedElfSymbolChanges,
		AdvisoryOnly:                      p.AdvisoryOnly || other.AdvisoryOnly,
	}
	ignored := slices.Concat(p.IgnoredSymbols, other.IgnoredSymbols)
	slices.Sort(ignored)
	out.IgnoredSymbols = slices.Compact(ignored)
	if len(out.IgnoredSymbols) == 0 {
		out.IgnoredSymbols = nil
	}
	return out
}

// CheckerOptions converts the policy for one (library, arch) diff.
func (p Policy) CheckerOptions(lib, arch string) checker.Options {
	return checker.Options{
		LibName:                           lib,
		Arch:                              arch,
		IgnoredSymbols:                    p.IgnoredSymbols,
		AllowAddingRemovingWeakSymbols:    p.AllowAddingRemovingWeakSymbols,
		CheckAllAPIs:                      p.CheckAllAPIs,
		AllowUnresolvedTypes:              p.AllowUnresolvedTypes,
		AllowExtensions:                   p.AllowExtensions,
		AllowUnreferencedChanges:          p.AllowUnreferencedChanges,
		AllowUnreferencedElfSymbolChanges: p.AllowUnreferencedElfSymbolChanges,
		AdvisoryOnly:                      p.AdvisoryOnly,
	}
}

// MergerOptions converts the policy for a merge.
func (p Policy) MergerOptions() merger.Options {
	return merger.Options{
		AdvisoryOnly:    p.AdvisoryOnly,
		AllowExtensions: p.AllowExtensions,
	}
}

// ReadIgnoredSymbols reads one symbol per line. Blank lines and lines
// starting with '#' are skipped.
func ReadIgnoredSymbols(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read ignored symbols: %w", err)
	}
	defer f.Close()

	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read ignored symbols: %w", err)
	}
	return out, nil
}
