package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/headercheck/internal/ir"
)

// Scenario defines one old-versus-new compatibility check.
type Scenario struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`

	Library string `yaml:"library"`
	Arch    string `yaml:"arch"`

	Old Side `yaml:"old"`
	New Side `yaml:"new"`

	// Policy is an optional policy file (.cue, .yaml or .toml).
	Policy string `yaml:"policy,omitempty"`

	Expect Expect `yaml:"expect"`

	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Side is the set of dumps linked into one library version.
type Side struct {
	Dumps         []string `yaml:"dumps"`
	VersionScript string   `yaml:"version_script,omitempty"`
}

// Expect is the expected verdict. Status uses the report's status spelling,
// e.g. "INCOMPATIBLE|UNREFERENCED_CHANGES".
type Expect struct {
	Status string `yaml:"status"`
}

// Assertion validates one list of the diff report.
type Assertion struct {
	Type  string   `yaml:"type"`
	List  string   `yaml:"list"`
	Keys  []string `yaml:"keys,omitempty"`
	Count int      `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertReportContains = "report_contains"
	AssertReportAbsent   = "report_absent"
	AssertReportCount    = "report_count"
)

// LoadScenario reads and parses a scenario YAML file. Relative paths are
// resolved against the scenario's directory. Unknown fields are rejected.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	base := filepath.Dir(path)
	scenario.Old.resolve(base)
	scenario.New.resolve(base)
	scenario.Policy = resolvePath(base, scenario.Policy)

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func (s *Side) resolve(base string) {
	for i, d := range s.Dumps {
		s.Dumps[i] = resolvePath(base, d)
	}
	s.VersionScript = resolvePath(base, s.VersionScript)
}

func resolvePath(base, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Library == "" {
		return fmt.Errorf("library is required")
	}
	if len(s.Old.Dumps) == 0 {
		return fmt.Errorf("old.dumps is required and must be non-empty")
	}
	if len(s.New.Dumps) == 0 {
		return fmt.Errorf("new.dumps is required and must be non-empty")
	}
	if s.Expect.Status == "" {
		return fmt.Errorf("expect.status is required")
	}
	if _, ok := ir.ParseCompatibilityStatus(s.Expect.Status); !ok {
		return fmt.Errorf("expect.status: unknown status %q", s.Expect.Status)
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, &a); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}
	if _, ok := findList(a.List); !ok {
		return fmt.Errorf("assertions[%d]: unknown report list %q", index, a.List)
	}

	switch a.Type {
	case AssertReportContains, AssertReportAbsent:
		if len(a.Keys) == 0 {
			return fmt.Errorf("assertions[%d]: keys are required for %s", index, a.Type)
		}
	case AssertReportCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for report_count", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
