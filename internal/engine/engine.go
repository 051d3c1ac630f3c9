package engine

import (
	"log/slog"

	"github.com/roach88/headercheck/internal/ir"
)

// Differ is one diff session over an (old, new) module pair.
type Differ struct {
	old *ir.Module
	new *ir.Module

	// report receives record and enum diffs. Nil disables emission, which
	// the linker uses for structural equality checks.
	report *ir.DiffReport

	ignored         map[string]struct{}
	allowUnresolved bool

	cache *typeCache
	stack typeStack
}

// Option configures a Differ.
type Option func(*Differ)

// WithReport sets the report that record and enum diffs are appended to.
func WithReport(r *ir.DiffReport) Option {
	return func(d *Differ) {
		d.report = r
	}
}

// WithIgnoredTypes skips comparison of the given type keys.
func WithIgnoredTypes(keys ...string) Option {
	return func(d *Differ) {
		for _, k := range keys {
			d.ignored[k] = struct{}{}
		}
	}
}

// WithAllowUnresolved compares missing type keys by key instead of failing
// the session with a DANGLING_REFERENCE error. Types that are only forward
// declared in a public header have no definition in the dump.
func WithAllowUnresolved(allow bool) Option {
	return func(d *Differ) {
		d.allowUnresolved = allow
	}
}

// New creates a Differ over oldMod and newMod.
func New(oldMod, newMod *ir.Module, opts ...Option) *Differ {
	d := &Differ{
		old:     oldMod,
		new:     newMod,
		ignored: make(map[string]struct{}),
		cache:   newTypeCache(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Compared returns the number of distinct type pairs visited so far.
func (d *Differ) Compared() int {
	return d.cache.len()
}

// CompareTypes compares the type oldKey of the old module with newKey of
// the new module. kind tags any record or enum diff emitted on the way.
func (d *Differ) CompareTypes(oldKey, newKey string, kind ir.DiffKind) (DiffStatus, error) {
	if oldKey == "" && newKey == "" {
		return NoDiff, nil
	}
	if !d.cache.visit(oldKey, newKey) {
		return NoDiff, nil
	}

	oldType, oldOK := d.old.LookupType(oldKey)
	newType, newOK := d.new.LookupType(newKey)

	d.stack.push(typeName(oldType, oldKey))
	defer d.stack.pop()

	if !oldOK || !newOK {
		if !d.allowUnresolved {
			if !oldOK {
				return NoDiff, newDanglingError("old", oldKey, d.stack.String())
			}
			return NoDiff, newDanglingError("new", newKey, d.stack.String())
		}
		if oldKey == newKey {
			return NoDiff, nil
		}
		return DirectDiff, nil
	}

	if _, skip := d.ignored[newKey]; skip {
		return NoDiff, nil
	}

	if oldType.Kind() != newType.Kind() {
		slog.Debug("type kind changed",
			"old", oldKey, "old_kind", oldType.Kind(),
			"new", newKey, "new_kind", newType.Kind())
		return DirectDiff, nil
	}

	switch o := oldType.(type) {
	case *ir.BuiltinType:
		return compareBuiltins(o, newType.(*ir.BuiltinType)), nil
	case *ir.QualifiedType:
		n := newType.(*ir.QualifiedType)
		if o.IsConst != n.IsConst || o.IsVolatile != n.IsVolatile || o.IsRestricted != n.IsRestricted {
			return DirectDiff, nil
		}
		return d.compareWrapped(&o.TypeInfo, &n.TypeInfo, kind)
	case *ir.PointerType:
		return d.compareWrapped(&o.TypeInfo, &newType.(*ir.PointerType).TypeInfo, kind)
	case *ir.ArrayType:
		return d.compareWrapped(&o.TypeInfo, &newType.(*ir.ArrayType).TypeInfo, kind)
	case *ir.LvalueReferenceType:
		return d.compareWrapped(&o.TypeInfo, &newType.(*ir.LvalueReferenceType).TypeInfo, kind)
	case *ir.RvalueReferenceType:
		return d.compareWrapped(&o.TypeInfo, &newType.(*ir.RvalueReferenceType).TypeInfo, kind)
	case *ir.FunctionType:
		return d.compareFunctionTypes(o, newType.(*ir.FunctionType), kind)
	case *ir.RecordType:
		return d.compareRecords(o, newType.(*ir.RecordType), kind)
	case *ir.EnumType:
		return d.compareEnums(o, newType.(*ir.EnumType), kind)
	}
	return NoDiff, nil
}

// compareWrapped handles the kinds whose only content is a referenced type.
// A layout change of the wrapper itself is direct; otherwise the
// referenced type's status passes through.
func (d *Differ) compareWrapped(o, n *ir.TypeInfo, kind ir.DiffKind) (DiffStatus, error) {
	if !sameLayout(o, n) {
		return DirectDiff, nil
	}
	return d.CompareTypes(o.ReferencedType, n.ReferencedType, kind)
}

func compareBuiltins(o, n *ir.BuiltinType) DiffStatus {
	if o.Name != n.Name || !sameLayout(&o.TypeInfo, &n.TypeInfo) ||
		o.IsUnsigned != n.IsUnsigned || o.IsIntegral != n.IsIntegral {
		return DirectDiff
	}
	return NoDiff
}

func (d *Differ) compareFunctionTypes(o, n *ir.FunctionType, kind ir.DiffKind) (DiffStatus, error) {
	status, err := d.compareParameters(o.Parameters, n.Parameters, kind)
	if err != nil {
		return NoDiff, err
	}
	ret, err := d.CompareTypes(o.ReturnType, n.ReturnType, kind)
	if err != nil {
		return NoDiff, err
	}
	return status | ret, nil
}

func (d *Differ) compareParameters(o, n []ir.Parameter, kind ir.DiffKind) (DiffStatus, error) {
	if len(o) != len(n) {
		return DirectDiff, nil
	}
	status := NoDiff
	for i := range o {
		s, err := d.CompareTypes(o[i].ReferencedType, n[i].ReferencedType, kind)
		if err != nil {
			return NoDiff, err
		}
		status |= s
		if o[i].IsDefault != n[i].IsDefault {
			status |= DirectDiff
		}
	}
	return status, nil
}

// compareTemplateArgs compares template arguments positionally.
func (d *Differ) compareTemplateArgs(o, n []string, kind ir.DiffKind) (DiffStatus, error) {
	if len(o) != len(n) {
		return DirectDiff, nil
	}
	status := NoDiff
	for i := range o {
		s, err := d.CompareTypes(o[i], n[i], kind)
		if err != nil {
			return NoDiff, err
		}
		status |= s
	}
	return status, nil
}

// CompareFunctions compares two versions of one exported function. A
// FunctionDiff is appended to the report when a parameter or the return
// type changed directly, or access was narrowed. Changes that only reach
// the function through a record or enum are left to that type's entry.
func (d *Differ) CompareFunctions(o, n *ir.Function) (DiffStatus, error) {
	d.stack.push(o.Name)
	defer d.stack.pop()

	params, err := d.compareParameters(o.Parameters, n.Parameters, ir.Referenced)
	if err != nil {
		return NoDiff, err
	}
	ret, err := d.CompareTypes(o.ReturnType, n.ReturnType, ir.Referenced)
	if err != nil {
		return NoDiff, err
	}
	tmpl, err := d.compareTemplateArgs(o.TemplateArgs, n.TemplateArgs, ir.Referenced)
	if err != nil {
		return NoDiff, err
	}

	status := params | ret | tmpl
	if params.IsDirect() || ret.IsDirect() || accessNarrowed(o.Access, n.Access) {
		status |= DirectDiff
		if d.report != nil {
			d.report.FunctionDiffs = append(d.report.FunctionDiffs, &ir.FunctionDiff{
				Name: o.Name,
				Old:  o,
				New:  n,
			})
		}
	}
	return status, nil
}

// CompareGlobalVars compares two versions of one exported variable.
func (d *Differ) CompareGlobalVars(o, n *ir.GlobalVar) (DiffStatus, error) {
	d.stack.push(o.Name)
	defer d.stack.pop()

	status, err := d.CompareTypes(o.ReferencedType, n.ReferencedType, ir.Referenced)
	if err != nil {
		return NoDiff, err
	}
	if status.IsDirect() || accessNarrowed(o.Access, n.Access) {
		status |= DirectDiff
		if d.report != nil {
			d.report.GlobalVarDiffs = append(d.report.GlobalVarDiffs, &ir.GlobalVarDiff{
				Name: o.Name,
				Old:  o,
				New:  n,
			})
		}
	}
	return status, nil
}

// accessNarrowed reports whether a declaration lost visibility. Widening
// access never breaks existing callers.
func accessNarrowed(o, n ir.AccessSpecifier) bool {
	return n.IsMoreRestrictive(o)
}

func sameLayout(o, n *ir.TypeInfo) bool {
	return o.Size == n.Size && o.Alignment == n.Alignment
}

// typeName is the display name of a type, falling back to its key.
func typeName(t ir.TypeIR, key string) string {
	if t == nil || t.Info().Name == "" {
		return key
	}
	return t.Info().Name
}

// displayName resolves key in m for report output.
func displayName(m *ir.Module, key string) string {
	t, _ := m.LookupType(key)
	return typeName(t, key)
}
