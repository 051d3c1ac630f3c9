package analysis

import (
	"slices"

	"github.com/roach88/headercheck/internal/ir"
)

// referenceGraph maps a key to the keys it refers to, sorted and unique.
type referenceGraph map[string][]string

// typeRefs returns the keys a type refers to. Records and enums carry
// their own key as ReferencedType, which is not an edge.
func typeRefs(t ir.TypeIR) []string {
	var refs []string
	switch v := t.(type) {
	case *ir.RecordType:
		for _, f := range v.Fields {
			refs = append(refs, f.ReferencedType)
		}
		for _, b := range v.Bases {
			refs = append(refs, b.ReferencedType)
		}
		refs = append(refs, v.TemplateArgs...)
	case *ir.EnumType:
		refs = append(refs, v.UnderlyingType)
	case *ir.FunctionType:
		refs = append(refs, v.ReturnType)
		for _, p := range v.Parameters {
			refs = append(refs, p.ReferencedType)
		}
	case *ir.BuiltinType:
	default:
		refs = append(refs, t.Info().ReferencedType)
	}
	return normalize(refs)
}

func functionRefs(f *ir.Function) []string {
	refs := []string{f.ReturnType}
	for _, p := range f.Parameters {
		refs = append(refs, p.ReferencedType)
	}
	refs = append(refs, f.TemplateArgs...)
	return normalize(refs)
}

func normalize(refs []string) []string {
	refs = slices.DeleteFunc(refs, func(s string) bool { return s == "" })
	slices.Sort(refs)
	return slices.Compact(refs)
}

// buildTypeGraph returns the edges between types of m.
func buildTypeGraph(m *ir.Module) referenceGraph {
	graph := make(referenceGraph)
	for _, t := range m.Types() {
		graph[t.Info().LinkerSetKey] = typeRefs(t)
	}
	return graph
}

// hasSelfLoop checks if a node has an edge to itself.
func hasSelfLoop(node string, graph referenceGraph) bool {
	_, found := slices.BinarySearch(graph[node], node)
	return found
}

// tarjanSCC finds strongly connected components using Tarjan's algorithm.
// Nodes are visited in sorted order so the result is deterministic; edges
// to nodes outside the graph are ignored.
func tarjanSCC(graph referenceGraph) [][]string {
	var (
		index   = 0
		stack   []string
		indices = make(map[string]int)
		lowlink = make(map[string]int)
		onStack = make(map[string]bool)
		sccs    [][]string
	)

	var strongConnect func(string)
	strongConnect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range graph[v] {
			if _, defined := graph[w]; !defined {
				continue
			}
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		// v is the root of a component: pop it.
		if lowlink[v] == indices[v] {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			slices.Sort(scc)
			sccs = append(sccs, scc)
		}
	}

	nodes := make([]string, 0, len(graph))
	for node := range graph {
		nodes = append(nodes, node)
	}
	slices.Sort(nodes)
	for _, node := range nodes {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}
	return sccs
}

// cyclePath walks from the first member of scc back to itself, staying
// inside the component.
func cyclePath(scc []string, graph referenceGraph) []string {
	if len(scc) == 0 {
		return nil
	}
	members := make(map[string]bool, len(scc))
	for _, node := range scc {
		members[node] = true
	}

	start := scc[0]
	current := start
	path := []string{current}
	visited := make(map[string]bool)
	for {
		visited[current] = true
		var next string
		for _, neighbor := range graph[current] {
			if members[neighbor] && (!visited[neighbor] || neighbor == start) {
				next = neighbor
				break
			}
		}
		if next == "" {
			break
		}
		path = append(path, next)
		if next == start {
			break
		}
		current = next
	}
	return path
}
