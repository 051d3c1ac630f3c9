package analysis

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/headercheck/internal/ir"
)

// DanglingReference is an edge to a key the module does not define.
type DanglingReference struct {
	From string `json:"from"`
	Key  string `json:"key"`
}

// RecursiveGroup is a set of types that refer to each other.
type RecursiveGroup struct {
	Members []string `json:"members"`

	// Path is one cycle through the group, e.g. ["Node", "Node *", "Node"].
	Path    []string `json:"path"`
	Message string   `json:"message"`
}

// Result is the outcome of Analyze.
type Result struct {
	Counts             ir.Counts           `json:"counts"`
	DanglingReferences []DanglingReference `json:"dangling_references"`
	RecursiveGroups    []RecursiveGroup    `json:"recursive_groups"`
}

// Analyze builds the reference graph of m. Findings are sorted by key.
func Analyze(m *ir.Module) *Result {
	graph := buildTypeGraph(m)
	res := &Result{
		Counts:             m.Counts(),
		DanglingReferences: []DanglingReference{},
		RecursiveGroups:    []RecursiveGroup{},
	}

	check := func(from string, refs []string) {
		for _, key := range refs {
			if _, ok := m.LookupType(key); !ok {
				res.DanglingReferences = append(res.DanglingReferences, DanglingReference{From: from, Key: key})
			}
		}
	}
	for _, t := range m.Types() {
		key := t.Info().LinkerSetKey
		check(key, graph[key])
	}
	for _, f := range m.Functions() {
		check(f.LinkerSetKey, functionRefs(f))
	}
	for _, v := range m.GlobalVars() {
		check(v.LinkerSetKey, normalize([]string{v.ReferencedType}))
	}

	for _, scc := range tarjanSCC(graph) {
		if len(scc) > 1 || hasSelfLoop(scc[0], graph) {
			res.RecursiveGroups = append(res.RecursiveGroups, recursiveGroup(scc, graph))
		}
	}
	slices.SortFunc(res.RecursiveGroups, func(a, b RecursiveGroup) int {
		return strings.Compare(a.Members[0], b.Members[0])
	})
	return res
}

func recursiveGroup(scc []string, graph referenceGraph) RecursiveGroup {
	if len(scc) == 1 {
		return RecursiveGroup{
			Members: scc,
			Path:    []string{scc[0], scc[0]},
			Message: fmt.Sprintf("self-referential type: %s -> %s", scc[0], scc[0]),
		}
	}
	path := cyclePath(scc, graph)
	return RecursiveGroup{
		Members: scc,
		Path:    path,
		Message: fmt.Sprintf("recursive types: %s", strings.Join(path, " -> ")),
	}
}

// HasDanglingReferences reports whether the module refers to undefined
// keys.
func (r *Result) HasDanglingReferences() bool {
	return len(r.DanglingReferences) > 0
}
