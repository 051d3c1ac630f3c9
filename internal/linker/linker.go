package linker

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/headercheck/internal/ir"
	"github.com/roach88/headercheck/internal/repr"
	"github.com/roach88/headercheck/internal/versionscript"
)

// Options configures a link.
type Options struct {
	// VersionScript is the path of the library's version script. Empty
	// disables symbol filtering.
	VersionScript string
	Filter        versionscript.Filter

	// ExportedHeaderDirs restrict the output to declarations from these
	// include directories.
	ExportedHeaderDirs []string

	// NoFilter keeps every function and variable of the inputs.
	NoFilter bool

	InputFormat repr.TextFormat

	// Jobs bounds the number of dumps decoded at once. Zero means
	// GOMAXPROCS.
	Jobs int
}

// Result is the outcome of a successful link.
type Result struct {
	Module   *ir.Module
	Warnings []ODRWarning
}

// Link reads every dump in paths and merges them in input order. Any
// unreadable or malformed dump fails the whole link.
func Link(ctx context.Context, paths []string, opts Options) (*Result, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("no input dumps")
	}

	var symbols *versionscript.SymbolSet
	if opts.VersionScript != "" {
		set, err := versionscript.ParseFile(opts.VersionScript, opts.Filter)
		if err != nil {
			return nil, fmt.Errorf("version script %s: %w", opts.VersionScript, err)
		}
		symbols = set
	}

	modules, err := readDumps(ctx, paths, opts)
	if err != nil {
		return nil, err
	}

	filter := newExportFilter(symbols, opts.ExportedHeaderDirs, opts.NoFilter)
	state := NewLinkerState()
	for i, m := range modules {
		if err := state.AddModule(paths[i], m, filter); err != nil {
			return nil, fmt.Errorf("link %s: %w", paths[i], err)
		}
	}
	if symbols != nil {
		if err := state.AddElfSymbols(opts.VersionScript, symbols.Functions()); err != nil {
			return nil, err
		}
		if err := state.AddElfSymbols(opts.VersionScript, symbols.Vars()); err != nil {
			return nil, err
		}
	}

	counts := state.Module().Counts()
	slog.Info("link complete",
		"dumps", len(paths),
		"types", counts.Types,
		"functions", counts.Functions,
		"global_vars", counts.GlobalVars,
		"odr_warnings", len(state.Warnings()))

	return &Result{Module: state.Module(), Warnings: state.Warnings()}, nil
}

// readDumps decodes the dumps concurrently. Results keep input order.
func readDumps(ctx context.Context, paths []string, opts Options) ([]*ir.Module, error) {
	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	modules := make([]*ir.Module, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(paths)))

	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			format := opts.InputFormat
			if format == "" {
				format = repr.FormatForPath(path)
			}
			m, err := repr.ReadModule(path, format)
			if err != nil {
				return err
			}
			modules[i] = m
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return modules, nil
}
