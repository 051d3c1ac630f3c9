package checker

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/roach88/headercheck/internal/engine"
	"github.com/roach88/headercheck/internal/ir"
)

// Options controls one diff run.
type Options struct {
	LibName string
	Arch    string

	// IgnoredSymbols are linker_set_keys and ELF symbol names that are never
	// reported.
	IgnoredSymbols []string

	// AllowAddingRemovingWeakSymbols excuses weak symbols from add/remove
	// reporting.
	AllowAddingRemovingWeakSymbols bool

	// CheckAllAPIs also compares records and enums not reachable from an
	// exported function or variable.
	CheckAllAPIs bool

	// AllowUnresolvedTypes compares types missing from a dump by key.
	AllowUnresolvedTypes bool

	AllowExtensions                   bool
	AllowUnreferencedChanges          bool
	AllowUnreferencedElfSymbolChanges bool
	AdvisoryOnly                      bool
}

// Gate clears the bits of s that the options accept. The result is
// StatusCompatible when the run should not fail.
func (o Options) Gate(s ir.CompatibilityStatus) ir.CompatibilityStatus {
	if o.AdvisoryOnly {
		return ir.StatusCompatible
	}
	if o.AllowExtensions {
		s &^= ir.StatusExtension
	}
	if o.AllowUnreferencedChanges {
		s &^= ir.StatusUnreferencedChanges
	}
	if o.AllowUnreferencedElfSymbolChanges {
		s &^= ir.StatusElfIncompatible
	}
	return s
}

// Checker compares an old and a new module.
type Checker struct {
	old     *ir.Module
	new     *ir.Module
	opts    Options
	ignored map[string]struct{}
}

// New creates a Checker. The modules are not modified.
func New(oldMod, newMod *ir.Module, opts Options) *Checker {
	ignored := make(map[string]struct{}, len(opts.IgnoredSymbols))
	for _, s := range opts.IgnoredSymbols {
		ignored[s] = struct{}{}
	}
	return &Checker{old: oldMod, new: newMod, opts: opts, ignored: ignored}
}

// Check runs the comparison and returns the report with Status filled in.
// ABI changes never produce an error; errors mean the input is corrupt.
func (c *Checker) Check() (*ir.DiffReport, error) {
	report := &ir.DiffReport{LibName: c.opts.LibName, Arch: c.opts.Arch}
	differ := engine.New(c.old, c.new,
		engine.WithReport(report),
		engine.WithAllowUnresolved(c.opts.AllowUnresolvedTypes),
		engine.WithIgnoredTypes(c.opts.IgnoredSymbols...),
	)

	c.collectFunctions(report)
	c.collectGlobalVars(report)
	c.collectElfSymbols(report)

	for _, o := range c.old.Functions() {
		n, ok := c.new.LookupFunction(o.LinkerSetKey)
		if !ok || c.isIgnored(o.LinkerSetKey) {
			continue
		}
		if _, err := differ.CompareFunctions(o, n); err != nil {
			return nil, fmt.Errorf("compare function %s: %w", o.LinkerSetKey, err)
		}
	}
	for _, o := range c.old.GlobalVars() {
		n, ok := c.new.LookupGlobalVar(o.LinkerSetKey)
		if !ok || c.isIgnored(o.LinkerSetKey) {
			continue
		}
		if _, err := differ.CompareGlobalVars(o, n); err != nil {
			return nil, fmt.Errorf("compare global variable %s: %w", o.LinkerSetKey, err)
		}
	}

	if c.opts.CheckAllAPIs {
		if err := c.checkUserDefinedTypes(report, differ); err != nil {
			return nil, err
		}
	}

	report.Status = report.ComputeStatus()
	slog.Debug("diff complete",
		"lib", report.LibName,
		"arch", report.Arch,
		"status", report.Status.String(),
		"types_compared", differ.Compared())
	return report, nil
}

func (c *Checker) collectFunctions(report *ir.DiffReport) {
	for _, f := range c.old.Functions() {
		if _, ok := c.new.LookupFunction(f.LinkerSetKey); !ok && c.reportLone(f.LinkerSetKey, c.old, c.new) {
			report.FunctionsRemoved = append(report.FunctionsRemoved, withTypeNames(c.old, f))
		}
	}
	for _, f := range c.new.Functions() {
		if _, ok := c.old.LookupFunction(f.LinkerSetKey); !ok && c.reportLone(f.LinkerSetKey, c.new, c.old) {
			report.FunctionsAdded = append(report.FunctionsAdded, withTypeNames(c.new, f))
		}
	}
}

func (c *Checker) collectGlobalVars(report *ir.DiffReport) {
	for _, v := range c.old.GlobalVars() {
		if _, ok := c.new.LookupGlobalVar(v.LinkerSetKey); !ok && c.reportLone(v.LinkerSetKey, c.old, c.new) {
			report.GlobalVarsRemoved = append(report.GlobalVarsRemoved, varWithTypeNames(c.old, v))
		}
	}
	for _, v := range c.new.GlobalVars() {
		if _, ok := c.old.LookupGlobalVar(v.LinkerSetKey); !ok && c.reportLone(v.LinkerSetKey, c.new, c.old) {
			report.GlobalVarsAdded = append(report.GlobalVarsAdded, varWithTypeNames(c.new, v))
		}
	}
}

// reportLone decides whether an entity present only in own is reported.
// It is excused when ignored, when other still exports the symbol (it moved
// to code the extractor cannot see, e.g. assembly), when it was weak and
// weak changes are allowed, or when its key is source-located.
func (c *Checker) reportLone(key string, own, other *ir.Module) bool {
	if c.isIgnored(key) {
		return false
	}
	if hasElfSymbol(other, key) {
		return false
	}
	if c.opts.AllowAddingRemovingWeakSymbols && isWeak(own, key) {
		return false
	}
	return !isSourceLocated(key)
}

func (c *Checker) collectElfSymbols(report *ir.DiffReport) {
	keep := func(s *ir.ElfSymbol) bool {
		if c.isIgnored(s.Name) {
			return false
		}
		return !(c.opts.AllowAddingRemovingWeakSymbols && s.Binding == ir.BindingWeak)
	}
	for _, s := range c.old.ElfFunctions() {
		if _, ok := c.new.LookupElfFunction(s.Name); !ok && keep(s) {
			report.RemovedElfFunctions = append(report.RemovedElfFunctions, s)
		}
	}
	for _, s := range c.new.ElfFunctions() {
		if _, ok := c.old.LookupElfFunction(s.Name); !ok && keep(s) {
			report.AddedElfFunctions = append(report.AddedElfFunctions, s)
		}
	}
	for _, s := range c.old.ElfObjects() {
		if _, ok := c.new.LookupElfObject(s.Name); !ok && keep(s) {
			report.RemovedElfObjects = append(report.RemovedElfObjects, s)
		}
	}
	for _, s := range c.new.ElfObjects() {
		if _, ok := c.old.LookupElfObject(s.Name); !ok && keep(s) {
			report.AddedElfObjects = append(report.AddedElfObjects, s)
		}
	}
}

// checkUserDefinedTypes compares every named record and enum. Anonymous
// records have no stable identity across dumps and are skipped.
func (c *Checker) checkUserDefinedTypes(report *ir.DiffReport, differ *engine.Differ) error {
	oldRecords, newRecords := namedRecords(c.old), namedRecords(c.new)
	for _, key := range sortedKeys(oldRecords) {
		if _, ok := newRecords[key]; !ok && c.reportLoneType(key) {
			report.UnreferencedRecordTypesRemoved = append(report.UnreferencedRecordTypesRemoved, oldRecords[key])
		}
	}
	for _, key := range sortedKeys(newRecords) {
		if _, ok := oldRecords[key]; !ok && c.reportLoneType(key) {
			report.UnreferencedRecordTypesAdded = append(report.UnreferencedRecordTypesAdded, newRecords[key])
		}
	}
	for _, key := range sortedKeys(oldRecords) {
		if _, ok := newRecords[key]; !ok || c.isIgnored(key) {
			continue
		}
		if _, err := differ.CompareTypes(key, key, ir.Unreferenced); err != nil {
			return fmt.Errorf("compare record %s: %w", key, err)
		}
	}

	oldEnums, newEnums := enumsByKey(c.old), enumsByKey(c.new)
	for _, key := range sortedKeys(oldEnums) {
		if _, ok := newEnums[key]; !ok && c.reportLoneType(key) {
			report.UnreferencedEnumTypesRemoved = append(report.UnreferencedEnumTypesRemoved, oldEnums[key])
		}
	}
	for _, key := range sortedKeys(newEnums) {
		if _, ok := oldEnums[key]; !ok && c.reportLoneType(key) {
			report.UnreferencedEnumTypesAdded = append(report.UnreferencedEnumTypesAdded, newEnums[key])
		}
	}
	for _, key := range sortedKeys(oldEnums) {
		if _, ok := newEnums[key]; !ok || c.isIgnored(key) {
			continue
		}
		if _, err := differ.CompareTypes(key, key, ir.Unreferenced); err != nil {
			return fmt.Errorf("compare enum %s: %w", key, err)
		}
	}
	return nil
}

func (c *Checker) reportLoneType(key string) bool {
	return !c.isIgnored(key) && !isSourceLocated(key)
}

func (c *Checker) isIgnored(key string) bool {
	_, ok := c.ignored[key]
	return ok
}

// isSourceLocated reports keys such as "(anonymous struct at foo.h:12:3)"
// whose identity is tied to a header position.
func isSourceLocated(key string) bool {
	return strings.Contains(key, " at ")
}

func hasElfSymbol(m *ir.Module, name string) bool {
	if _, ok := m.LookupElfFunction(name); ok {
		return true
	}
	_, ok := m.LookupElfObject(name)
	return ok
}

func isWeak(m *ir.Module, name string) bool {
	if s, ok := m.LookupElfFunction(name); ok {
		return s.Binding == ir.BindingWeak
	}
	if s, ok := m.LookupElfObject(name); ok {
		return s.Binding == ir.BindingWeak
	}
	return false
}
