package manifest

import (
	"fmt"
	"sort"
)

// Graph is a dependency DAG over metadata node ids and artifact paths.
// An edge "a depends on b" means invalidating b must invalidate a. The
// graph rejects edges that would close a cycle, so traversal never needs
// a visited-set escape hatch beyond plain DFS.
type Graph struct {
	// dependsOn maps a node to the nodes it depends on.
	dependsOn map[string]map[string]bool
	// dependedBy is the reverse index.
	dependedBy map[string]map[string]bool
}

// NewGraph returns an empty dependency graph.
func NewGraph() *Graph {
	return &Graph{
		dependsOn:  make(map[string]map[string]bool),
		dependedBy: make(map[string]map[string]bool),
	}
}

// AddDependency records that node depends on dep. Self-edges and edges
// closing a cycle are rejected.
func (g *Graph) AddDependency(node, dep string) error {
	if node == dep {
		return fmt.Errorf("dependency cycle: %s depends on itself", node)
	}

	if g.reaches(dep, node) {
		return fmt.Errorf("dependency cycle: %s already depends on %s", dep, node)
	}

	if g.dependsOn[node] == nil {
		g.dependsOn[node] = make(map[string]bool)
	}

	if g.dependedBy[dep] == nil {
		g.dependedBy[dep] = make(map[string]bool)
	}

	g.dependsOn[node][dep] = true
	g.dependedBy[dep][node] = true

	return nil
}

// reaches reports whether dep transitively depends on target.
func (g *Graph) reaches(dep, target string) bool {
	if dep == target {
		return true
	}

	for next := range g.dependsOn[dep] {
		if g.reaches(next, target) {
			return true
		}
	}

	return false
}

// Dependents returns every node that transitively depends on id, in
// sorted order. The id itself is not included.
func (g *Graph) Dependents(id string) []string {
	seen := map[string]bool{}
	g.collectDependents(id, seen)

	out := make([]string, 0, len(seen))
	for n := range seen {
		out = append(out, n)
	}

	sort.Strings(out)

	return out
}

func (g *Graph) collectDependents(id string, seen map[string]bool) {
	for n := range g.dependedBy[id] {
		if seen[n] {
			continue
		}

		seen[n] = true
		g.collectDependents(n, seen)
	}
}

// RemoveNode drops a node and all its edges, for when an artifact is
// pruned from the manifest.
func (g *Graph) RemoveNode(node string) {
	for dep := range g.dependsOn[node] {
		delete(g.dependedBy[dep], node)
	}

	for n := range g.dependedBy[node] {
		delete(g.dependsOn[n], node)
	}

	delete(g.dependsOn, node)
	delete(g.dependedBy, node)
}
