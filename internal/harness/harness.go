package harness

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/headercheck/internal/checker"
	"github.com/roach88/headercheck/internal/config"
	"github.com/roach88/headercheck/internal/ir"
	"github.com/roach88/headercheck/internal/linker"
	"github.com/roach88/headercheck/internal/versionscript"
)

// Run links both sides of the scenario, checks them and evaluates the
// expectations.
//
// Errors are returned only when the scenario cannot be executed (unreadable
// dumps, invalid policy, dangling references). A failed expectation is
// reported through Result.Pass and Result.Errors.
func Run(ctx context.Context, s *Scenario) (*Result, error) {
	oldMod, err := linkSide(ctx, s, s.Old)
	if err != nil {
		return nil, fmt.Errorf("link old: %w", err)
	}
	newMod, err := linkSide(ctx, s, s.New)
	if err != nil {
		return nil, fmt.Errorf("link new: %w", err)
	}

	policy := config.Policy{}
	if s.Policy != "" {
		p, err := config.Load(s.Policy)
		if err != nil {
			return nil, err
		}
		policy = *p
	}

	report, err := checker.New(oldMod, newMod, policy.CheckerOptions(s.Library, s.Arch)).Check()
	if err != nil {
		return nil, fmt.Errorf("check: %w", err)
	}

	result := NewResult(s.Name)
	result.Report = report

	want, _ := ir.ParseCompatibilityStatus(s.Expect.Status)
	if report.Status != want {
		result.AddError(fmt.Sprintf("status: expected %s, got %s", want, report.Status))
	}
	for i, a := range s.Assertions {
		if err := checkAssertion(report, a); err != nil {
			result.AddError(fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}

	slog.Debug("scenario complete",
		"scenario", s.Name,
		"status", report.Status.String(),
		"pass", result.Pass)
	return result, nil
}

func linkSide(ctx context.Context, s *Scenario, side Side) (*ir.Module, error) {
	res, err := linker.Link(ctx, side.Dumps, linker.Options{
		VersionScript: side.VersionScript,
		Filter:        versionscript.Filter{Arch: s.Arch, API: versionscript.FutureAPILevel},
	})
	if err != nil {
		return nil, err
	}
	return res.Module, nil
}
