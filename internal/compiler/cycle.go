package compiler

import (
	"fmt"
	"sort"
	"strings"
)

// CycleError reports a loop in the super/implements graph.
type CycleError struct {
	Path []string `json:"path"` // Cycle path: ["a.A", "a.B", "a.A"]
	Code string   `json:"code"`
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("[%s] inheritance cycle: %s", e.Code, strings.Join(e.Path, " → "))
}

// AnalyzeInheritance detects cycles among the super and implements edges of
// defs. Edges to components outside defs are ignored; they cannot close a
// loop within one compilation.
//
// The algorithm:
//  1. Build component → {super, implements...} graph
//  2. Use Tarjan's algorithm to find strongly connected components
//  3. Report each SCC with size > 1 or self-loops as a cycle
//
// Nodes and edges are visited in sorted order so the report is stable.
func AnalyzeInheritance(defs []*ComponentDef) []*CycleError {
	if len(defs) == 0 {
		return nil
	}

	graph := buildInheritanceGraph(defs)
	sccs := tarjanSCC(graph)

	var cycles []*CycleError
	for _, scc := range sccs {
		if len(scc) > 1 || (len(scc) == 1 && hasSelfLoop(scc[0], graph)) {
			cycles = append(cycles, &CycleError{
				Path: reconstructCyclePath(scc, graph),
				Code: ErrInheritanceCycle,
			})
		}
	}
	sort.Slice(cycles, func(i, j int) bool { return cycles[i].Path[0] < cycles[j].Path[0] })
	return cycles
}

// dependencyGraph maps component name → names it inherits from.
type dependencyGraph map[string][]string

func buildInheritanceGraph(defs []*ComponentDef) dependencyGraph {
	graph := make(dependencyGraph, len(defs))
	for _, def := range defs {
		graph[def.Name] = []string{}
	}
	for _, def := range defs {
		var edges []string
		if _, ok := graph[def.Super]; ok {
			edges = append(edges, def.Super)
		}
		for _, iface := range def.Implements {
			if _, ok := graph[iface]; ok {
				edges = append(edges, iface)
			}
		}
		sort.Strings(edges)
		graph[def.Name] = append(graph[def.Name], edges...)
	}
	return graph
}

// hasSelfLoop checks if a node has an edge to itself.
func hasSelfLoop(node string, graph dependencyGraph) bool {
	for _, neighbor := range graph[node] {
		if neighbor == node {
			return true
		}
	}
	return false
}

// tarjanSCC finds strongly connected components using Tarjan's algorithm.
//
// Single-node SCCs without self-loops are NOT cycles.
func tarjanSCC(graph dependencyGraph) [][]string {
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
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		// If v is a root node, pop the stack and create an SCC
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
			sccs = append(sccs, scc)
		}
	}

	nodes := make([]string, 0, len(graph))
	for node := range graph {
		nodes = append(nodes, node)
	}
	sort.Strings(nodes)
	for _, node := range nodes {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}

	return sccs
}

// reconstructCyclePath builds a closed path through an SCC, starting at its
// smallest member.
func reconstructCyclePath(scc []string, graph dependencyGraph) []string {
	if len(scc) == 0 {
		return []string{}
	}

	sccSet := make(map[string]bool, len(scc))
	start := scc[0]
	for _, node := range scc {
		sccSet[node] = true
		if node < start {
			start = node
		}
	}

	current := start
	path := []string{current}
	visited := make(map[string]bool)

	// Follow edges within SCC until we return to start
	for {
		visited[current] = true

		var next string
		for _, neighbor := range graph[current] {
			if sccSet[neighbor] && (!visited[neighbor] || neighbor == start) {
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
