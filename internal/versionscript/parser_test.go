package versionscript

import (
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/headercheck/internal/ir"
)

const libfooScript = `# libfoo exports
LIBFOO_1 { # introduced=21
  global:
    foo;
    foo_arm; # arm
    foo_new; introduced=28
    foo_arm64_late; # introduced-arm64=30
    counter; # var
    weak_hook; # weak
    platform_only; # platform-only
    future_api; # future
    cb_*;
    extern "C++" {
      "ns::Widget::*";
    };
  local:
    *;
};

LIBFOO_PRIVATE {
  global:
    private_thing;
} LIBFOO_1;

LIBFOO_LEGACY { # introduced=9 x86
  global:
    legacy;
};
`

func parse(t *testing.T, filter Filter) *SymbolSet {
	t.Helper()
	set, err := NewParser(filter).Parse(strings.NewReader(libfooScript))
	require.NoError(t, err)
	return set
}

func names(syms []*ir.ElfSymbol) []string {
	var out []string
	for _, s := range syms {
		out = append(out, s.Name)
	}
	return out
}

// TestSymbolLine_IntroducedArch covers the per-architecture introduced example.
func TestSymbolLine_IntroducedArch(t *testing.T) {
	line, err := ParseSymbolLine("foo; introduced-arm=21")
	require.NoError(t, err)
	assert.Equal(t, "foo", line.Name)

	tests := []struct {
		arch string
		api  APILevel
		want bool
	}{
		{"arm", 21, true},
		{"arm", 25, true},
		{"arm", 19, false},
		{"x86", 5, true},
	}
	for _, tt := range tests {
		t.Run(tt.arch+"/"+tt.api.String(), func(t *testing.T) {
			got, err := Filter{Arch: tt.arch, API: tt.api}.Exported(line.Tags)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse_Arm(t *testing.T) {
	set := parse(t, Filter{Arch: "arm", API: 28})

	assert.Equal(t, []string{"foo", "foo_arm", "foo_arm64_late", "foo_new", "platform_only", "private_thing", "weak_hook"}, names(set.Functions()))
	assert.Equal(t, []string{"counter"}, names(set.Vars()))
	assert.True(t, set.HasSymbol("cb_on_event"), "wildcard in global scope")
	assert.False(t, set.HasSymbol("internal_helper"), "local: * never exports")
	assert.False(t, set.HasSymbol("legacy"), "x86-only block")
	assert.True(t, set.HasDemangled("ns::Widget::draw()"))
	assert.False(t, set.HasDemangled("ns::Other::draw()"))
}

func TestParse_Bindings(t *testing.T) {
	set := parse(t, Filter{Arch: "arm", API: 28})
	for _, s := range set.Functions() {
		if s.Name == "weak_hook" {
			assert.Equal(t, ir.BindingWeak, s.Binding)
		} else {
			assert.Equal(t, ir.BindingGlobal, s.Binding, s.Name)
		}
	}
	assert.Equal(t, ir.ElfObjectKind, set.Vars()[0].Kind)
}

func TestParse_APILevels(t *testing.T) {
	old := parse(t, Filter{Arch: "arm64", API: 21})
	assert.True(t, old.HasSymbol("foo"))
	assert.False(t, old.HasSymbol("foo_new"))
	assert.False(t, old.HasSymbol("foo_arm64_late"))
	assert.False(t, old.HasSymbol("foo_arm"), "arm tag excludes arm64")

	before := parse(t, Filter{Arch: "arm64", API: 19})
	assert.Equal(t, []string{"private_thing"}, names(before.Functions()), "LIBFOO_1 is introduced at 21")

	future := parse(t, Filter{Arch: "arm64", API: FutureAPILevel})
	assert.True(t, future.HasSymbol("future_api"))
	assert.True(t, future.HasSymbol("foo_arm64_late"))

	current := parse(t, Filter{Arch: "arm64", API: 30})
	assert.False(t, current.HasSymbol("future_api"), "future only at the unreleased level")
}

func TestParse_Exclusions(t *testing.T) {
	set := parse(t, Filter{
		Arch:             "x86",
		API:              30,
		ExcludedVersions: []string{"*_PRIVATE"},
		ExcludedTags:     []string{"platform-only"},
	})
	assert.False(t, set.HasSymbol("private_thing"))
	assert.False(t, set.HasSymbol("platform_only"))
	assert.True(t, set.HasSymbol("legacy"))
	assert.True(t, set.HasSymbol("foo"))
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		line  int
	}{
		{"symbol outside block", "foo;\n", 1},
		{"unterminated", "V1 {\n  foo;\n", 2},
		{"unmatched brace", "V1 {\n};\n};\n", 3},
		{"missing semicolon", "V1 {\n  global:\n    foo\n};\n", 3},
		{"bad introduced", "V1 {\n  foo; introduced=banana\n};\n", 2},
		{"nested block", "V1 {\n  V2 {\n", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewParser(Filter{Arch: "arm", API: 30}).Parse(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.True(t, IsParseError(err))
			var pe *ParseError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, tt.line, pe.Line)
		})
	}
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "libfoo.map.txt")
	require.NoError(t, os.WriteFile(path, []byte(libfooScript), 0644))

	set, err := ParseFile(path, Filter{Arch: "arm", API: 28})
	require.NoError(t, err)
	assert.True(t, set.HasSymbol("foo"))
	assert.NotEmpty(t, set.Patterns())

	_, err = ParseFile(filepath.Join(t.TempDir(), "missing"), Filter{})
	assert.Error(t, err)
}

func TestParseAPILevel(t *testing.T) {
	level, err := ParseAPILevel("current")
	require.NoError(t, err)
	assert.Equal(t, FutureAPILevel, level)

	level, err = ParseAPILevel("29")
	require.NoError(t, err)
	assert.Equal(t, APILevel(29), level)

	level, err = ParseAPILevel("10000")
	require.NoError(t, err)
	assert.NotEqual(t, FutureAPILevel, level)
	assert.Equal(t, "10000", level.String())

	_, err = ParseAPILevel("-1")
	assert.Error(t, err)
	_, err = ParseAPILevel("Q")
	assert.Error(t, err)
	_, err = ParseAPILevel(strconv.Itoa(math.MaxInt))
	assert.Error(t, err, "the future level has no numeric spelling")
}

// TestFilter_FutureOnlyAtFuture tests that a future line is exported only
// for the future API level, however high the numeric level.
func TestFilter_FutureOnlyAtFuture(t *testing.T) {
	for _, tags := range []Tags{{"future"}, {"introduced=future"}} {
		ok, err := Filter{API: 10000}.Exported(tags)
		require.NoError(t, err)
		assert.False(t, ok, "tags %v", tags)

		ok, err = Filter{API: FutureAPILevel}.Exported(tags)
		require.NoError(t, err)
		assert.True(t, ok, "tags %v", tags)
	}
}

func TestTags_Inherit(t *testing.T) {
	own := Tags{"introduced=24", "var"}
	got := own.inherit(Tags{"introduced=21", "arm", "llndk"})
	assert.Equal(t, Tags{"introduced=24", "var", "arm", "llndk"}, got)

	level, ok, err := got.Introduced("arm")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, APILevel(24), level)
}
