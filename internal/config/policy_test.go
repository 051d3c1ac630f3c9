package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/headercheck/internal/checker"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// TestLoad_Formats tests that every format decodes to the same policy.
func TestLoad_Formats(t *testing.T) {
	want := &Policy{
		IgnoredSymbols:  []string{"_ZN3foo6legacyEv", "g_debug"},
		CheckAllAPIs:    true,
		AllowExtensions: true,
	}

	tests := []struct {
		name    string
		file    string
		content string
	}{
		{
			name: "cue",
			file: "policy.cue",
			content: `ignored_symbols: ["_ZN3foo6legacyEv", "g_debug"]
check_all_apis:   true
allow_extensions: true
`,
		},
		{
			name: "yaml",
			file: "policy.yaml",
			content: `ignored_symbols:
  - _ZN3foo6legacyEv
  - g_debug
check_all_apis: true
allow_extensions: true
`,
		},
		{
			name:    "yml",
			file:    "policy.yml",
			content: "ignored_symbols: [_ZN3foo6legacyEv, g_debug]\ncheck_all_apis: true\nallow_extensions: true\n",
		},
		{
			name: "toml",
			file: "policy.toml",
			content: `ignored_symbols = ["_ZN3foo6legacyEv", "g_debug"]
check_all_apis = true
allow_extensions = true
`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Load(writeFile(t, tt.file, tt.content))
			require.NoError(t, err)
			assert.Equal(t, want, p)
		})
	}
}

func TestLoad_Empty(t *testing.T) {
	for _, name := range []string{"empty.yaml", "empty.toml", "empty.cue"} {
		p, err := Load(writeFile(t, name, ""))
		require.NoError(t, err, name)
		assert.Equal(t, &Policy{}, p, name)
	}
}

// TestLoad_Invalid tests that the schema rejects documents in every
// format.
func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		wantMsg string
	}{
		{"cue unknown field", "p.cue", "allow_everything: true\n", "allow_everything"},
		{"yaml unknown field", "p.yaml", "allow_everything: true\n", "allow_everything"},
		{"toml wrong type", "p.toml", "check_all_apis = \"yes\"\n", "check_all_apis"},
		{"yaml wrong list type", "p.yaml", "ignored_symbols: [1, 2]\n", "ignored_symbols"},
		{"cue syntax", "p.cue", "check_all_apis: \n", ""},
		{"yaml syntax", "p.yaml", "check_all_apis: [\n", ""},
		{"toml syntax", "p.toml", "check_all_apis = \n", ""},
		{"format", "p.ini", "x=1\n", "unsupported policy format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tt.file, tt.content))
			require.Error(t, err)
			var pe *PolicyError
			require.ErrorAs(t, err, &pe)
			assert.Contains(t, err.Error(), "invalid policy")
			if tt.wantMsg != "" {
				assert.Contains(t, err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "none.yaml"))
	assert.ErrorContains(t, err, "read policy")
}

func TestPolicy_Merge(t *testing.T) {
	file := Policy{IgnoredSymbols: []string{"b", "a"}, CheckAllAPIs: true}
	flags := Policy{IgnoredSymbols: []string{"a", "c"}, AdvisoryOnly: true}

	got := file.Merge(flags)
	assert.Equal(t, []string{"a", "b", "c"}, got.IgnoredSymbols)
	assert.True(t, got.CheckAllAPIs)
	assert.True(t, got.AdvisoryOnly)
	assert.False(t, got.AllowExtensions)

	assert.Nil(t, Policy{}.Merge(Policy{}).IgnoredSymbols)
}

func TestPolicy_Options(t *testing.T) {
	p := Policy{
		IgnoredSymbols:                 []string{"x"},
		AllowAddingRemovingWeakSymbols: true,
		AllowExtensions:                true,
		AdvisoryOnly:                   true,
	}
	assert.Equal(t, checker.Options{
		LibName:                        "libfoo",
		Arch:                           "arm64",
		IgnoredSymbols:                 []string{"x"},
		AllowAddingRemovingWeakSymbols: true,
		AllowExtensions:                true,
		AdvisoryOnly:                   true,
	}, p.CheckerOptions("libfoo", "arm64"))

	m := p.MergerOptions()
	assert.True(t, m.AdvisoryOnly)
	assert.True(t, m.AllowExtensions)
}

func TestReadIgnoredSymbols(t *testing.T) {
	path := writeFile(t, "ignored.txt", "# deprecated\n_Z3foov\n\n  g_bar  \n")
	syms, err := ReadIgnoredSymbols(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"_Z3foov", "g_bar"}, syms)

	_, err = ReadIgnoredSymbols(filepath.Join(t.TempDir(), "none.txt"))
	assert.Error(t, err)
}
