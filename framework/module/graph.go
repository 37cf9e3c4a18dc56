package module

// graph is a directed dependency graph over module names. An edge A → B
// means A depends on B, so B must come first.
type graph struct {
	nodes []string            // declaration order
	edges map[string][]string // node → dependencies
	known map[string]bool
}

func newGraph() *graph {
	return &graph{
		edges: make(map[string][]string),
		known: make(map[string]bool),
	}
}

func (g *graph) add(name string, deps []string) {
	g.nodes = append(g.nodes, name)
	g.known[name] = true
	g.edges[name] = deps
}

// sort orders nodes so every node follows its dependencies. Each pass takes
// all nodes whose dependencies are already placed, in declaration order, so
// the result is the same on every run. Nodes that can never be placed are
// returned as the residual.
func (g *graph) sort() (ordered, residual []string) {
	placed := make(map[string]bool, len(g.nodes))
	remaining := g.nodes

	for len(remaining) > 0 {
		var ready, blocked []string
		for _, n := range remaining {
			if g.satisfied(n, placed) {
				ready = append(ready, n)
			} else {
				blocked = append(blocked, n)
			}
		}
		if len(ready) == 0 {
			return ordered, blocked
		}
		for _, n := range ready {
			placed[n] = true
		}
		ordered = append(ordered, ready...)
		remaining = blocked
	}
	return ordered, nil
}

func (g *graph) satisfied(n string, placed map[string]bool) bool {
	for _, d := range g.edges[n] {
		if !placed[d] {
			return false
		}
	}
	return true
}

// missing returns, per node, the dependencies that are not nodes at all.
func (g *graph) missing(nodes []string) map[string][]string {
	out := make(map[string][]string)
	for _, n := range nodes {
		for _, d := range g.edges[n] {
			if !g.known[d] {
				out[n] = append(out[n], d)
			}
		}
	}
	return out
}
