// Package domain contains the core domain models of the build graph and the
// process engine.
package domain

import (
	"strings"
	"sync"

	"go.trai.ch/zerr"
)

// Graph owns the build targets, keyed by target name.
//
// Graph is safe for concurrent use. The checked state of a node survives
// across builds until Reset is called or the node is re-added.
type Graph struct {
	mu      sync.Mutex
	nodes   map[string]*Node
	order   []string
	sources map[string]struct{}
}

// NewGraph creates a new empty Graph.
func NewGraph() *Graph {
	return &Graph{
		nodes:   make(map[string]*Node),
		sources: make(map[string]struct{}),
	}
}

// Add inserts the target, replacing any node with the same name.
// A replaced node loses its checked state.
func (g *Graph) Add(dep Dep) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.nodes[dep.Target]; !exists {
		g.order = append(g.order, dep.Target)
	}
	g.nodes[dep.Target] = newNode(dep)
}

// AddPhony inserts a phony target depending on deps.
func (g *Graph) AddPhony(target string, deps ...string) {
	g.Add(NewPhony(target, deps...))
}

// Remove deletes a target from the graph.
func (g *Graph) Remove(target string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.nodes[target]; !exists {
		return
	}
	delete(g.nodes, target)
	for i, name := range g.order {
		if name == target {
			g.order = append(g.order[:i], g.order[i+1:]...)
			break
		}
	}
}

// Lookup returns a copy of the declaration of a target.
func (g *Graph) Lookup(target string) (Dep, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	n, ok := g.nodes[target]
	if !ok {
		return Dep{}, false
	}
	return n.Dep.clone(), true
}

// Has reports whether target is a node of the graph.
func (g *Graph) Has(target string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	_, ok := g.nodes[target]
	return ok
}

// Len returns the number of targets.
func (g *Graph) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.nodes)
}

// Targets returns all target names in insertion order.
func (g *Graph) Targets() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.order...)
}

// Roots returns, in insertion order, the targets no other target depends on.
func (g *Graph) Roots() []string {
	g.mu.Lock()
	defer g.mu.Unlock()

	depended := make(map[string]struct{}, len(g.nodes))
	for _, n := range g.nodes {
		for _, dep := range n.Deps {
			depended[dep] = struct{}{}
		}
	}

	var roots []string
	for _, name := range g.order {
		if _, ok := depended[name]; !ok {
			roots = append(roots, name)
		}
	}
	return roots
}

// IsChecked reports whether target has been built or found up to date.
func (g *Graph) IsChecked(target string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	n, ok := g.nodes[target]
	return ok && n.checked
}

// MarkChecked records that target has been built or found up to date.
func (g *Graph) MarkChecked(target string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if n, ok := g.nodes[target]; ok {
		n.checked = true
	}
}

// Reset clears the scheduling state of every node and forgets which source
// files have been reported.
func (g *Graph) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, n := range g.nodes {
		n.checked = false
	}
	g.sources = make(map[string]struct{})
}

// MarkSourceSeen records an external source path. It returns true the first
// time a path is seen for this graph.
func (g *Graph) MarkSourceSeen(path string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, seen := g.sources[path]; seen {
		return false
	}
	g.sources[path] = struct{}{}
	return true
}

type visitState uint8

const (
	unvisited visitState = iota
	inProgress
	visited
)

// DetectCycle walks the subgraph reachable from targets and returns
// ErrCycleDetected if it contains a cycle. With no targets the whole graph is
// checked. Names that are not nodes are leaves.
func (g *Graph) DetectCycle(targets ...string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if len(targets) == 0 {
		targets = g.order
	}

	state := make(map[string]visitState, len(g.nodes))
	var path []string

	var visit func(u string) error
	visit = func(u string) error {
		node, ok := g.nodes[u]
		if !ok {
			state[u] = visited
			return nil
		}

		state[u] = inProgress
		path = append(path, u)

		for _, dep := range node.Deps {
			switch state[dep] {
			case inProgress:
				return buildCycleError(path, dep)
			case unvisited:
				if err := visit(dep); err != nil {
					return err
				}
			case visited:
			}
		}

		state[u] = visited
		path = path[:len(path)-1]
		return nil
	}

	for _, t := range targets {
		if state[t] == unvisited {
			if err := visit(t); err != nil {
				return err
			}
		}
	}
	return nil
}

// buildCycleError constructs an error with cycle path metadata.
func buildCycleError(path []string, dep string) error {
	start := 0
	for i, node := range path {
		if node == dep {
			start = i
			break
		}
	}

	var b strings.Builder
	for _, node := range path[start:] {
		b.WriteString(node)
		b.WriteString(" -> ")
	}
	b.WriteString(dep)
	return zerr.With(zerr.Wrap(ErrCycleDetected, "invalid dependency graph"), "cycle", b.String())
}

// Reachable returns the graph nodes reachable from target, target included,
// with every node listed after its dependencies. The graph must be acyclic.
func (g *Graph) Reachable(target string) []string {
	g.mu.Lock()
	defer g.mu.Unlock()

	seen := make(map[string]bool)
	var out []string

	var visit func(u string)
	visit = func(u string) {
		node, ok := g.nodes[u]
		if !ok || seen[u] {
			return
		}
		seen[u] = true
		for _, dep := range node.Deps {
			visit(dep)
		}
		out = append(out, u)
	}
	visit(target)
	return out
}
