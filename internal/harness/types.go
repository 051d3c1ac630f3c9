package harness

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/roach88/headercheck/internal/ir"
)

// Result is the outcome of a scenario run.
type Result struct {
	Name string `json:"name"`

	// Pass is true when the expected status and every assertion matched.
	Pass bool `json:"pass"`

	Report *ir.DiffReport `json:"-"`

	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult(name string) *Result {
	return &Result{Name: name, Pass: true, Errors: []string{}}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Summary renders the verdict and the non-empty report lists, one per line,
// in a fixed order.
func (r *Result) Summary() []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "scenario: %s\n", r.Name)
	fmt.Fprintf(&buf, "pass: %t\n", r.Pass)
	if r.Report != nil {
		fmt.Fprintf(&buf, "status: %s\n", r.Report.Status)
		fmt.Fprintf(&buf, "severity: %s\n", r.Report.Status.Severity())
		for _, l := range reportLists {
			if keys := l.keys(r.Report); len(keys) > 0 {
				fmt.Fprintf(&buf, "%s: %s\n", l.name, strings.Join(keys, ", "))
			}
		}
	}
	for _, e := range r.Errors {
		fmt.Fprintf(&buf, "error: %s\n", e)
	}
	return buf.Bytes()
}
