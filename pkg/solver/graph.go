package solver

import (
	"github.com/matzehuels/feedsolve/pkg/model"
)

// nodeState tracks an interface through the search.
type nodeState int

const (
	stateUnvisited nodeState = iota
	// stateTentative: an implementation is chosen and its dependencies
	// are still being explored.
	stateTentative
	// stateCommitted: the chosen implementation's dependencies are all
	// satisfied on the current branch.
	stateCommitted
	// stateFailed: every candidate was rejected on the current branch.
	stateFailed
)

var stateNames = [...]string{"unvisited", "tentative", "committed", "failed"}

func (s nodeState) String() string { return stateNames[s] }

// edge is a restriction on an interface together with its origin.
type edge struct {
	model.Restriction
	// from is the ID of the implementation that declared it.
	from string
}

// node is the per-interface search state. Nodes are values so the undo
// trail can snapshot them; slices are only ever appended to.
type node struct {
	state     nodeState
	candidate *Candidate
	commands  []string
	edges     []edge
}

func (n node) selected() bool {
	return n.state == stateTentative || n.state == stateCommitted
}

func (n node) hasCommand(name string) bool {
	for _, c := range n.commands {
		if c == name {
			return true
		}
	}
	return false
}

// allows reports whether every edge accepts impl and returns the first
// violated edge otherwise.
func (n node) allows(impl *model.Implementation) (edge, bool) {
	for _, e := range n.edges {
		if !e.Allows(impl) {
			return e, false
		}
	}
	return edge{}, true
}

// Omission records a recommended dependency left out of the result.
type Omission struct {
	InterfaceURI string
	// RequiredBy is the ID of the implementation that recommended it.
	RequiredBy string
	Reason     string
}

type undo struct {
	uri     string
	prev    node
	existed bool
}

// graph is the working structure of one solve. Changes go through set so
// that rollback can restore any earlier mark exactly.
type graph struct {
	nodes     map[string]node
	order     []string
	omissions []Omission
	trail     []undo
}

type mark struct {
	trail, order, omissions int
}

func newGraph() *graph {
	return &graph{nodes: make(map[string]node)}
}

func (g *graph) get(uri string) node { return g.nodes[uri] }

func (g *graph) set(uri string, n node) {
	prev, existed := g.nodes[uri]
	g.trail = append(g.trail, undo{uri: uri, prev: prev, existed: existed})
	g.nodes[uri] = n
}

func (g *graph) mark() mark {
	return mark{trail: len(g.trail), order: len(g.order), omissions: len(g.omissions)}
}

func (g *graph) rollback(m mark) {
	for i := len(g.trail) - 1; i >= m.trail; i-- {
		u := g.trail[i]
		if u.existed {
			g.nodes[u.uri] = u.prev
		} else {
			delete(g.nodes, u.uri)
		}
	}
	g.trail = g.trail[:m.trail]
	g.order = g.order[:m.order]
	g.omissions = g.omissions[:m.omissions]
}

// choose marks candidate as tentatively selected for uri.
func (g *graph) choose(uri string, c *Candidate) {
	n := g.get(uri)
	if n.state == stateUnvisited || n.state == stateFailed {
		g.order = append(g.order, uri)
	}
	n.state = stateTentative
	n.candidate = c
	n.commands = nil
	g.set(uri, n)
}

func (g *graph) commit(uri string) {
	n := g.get(uri)
	if n.state == stateTentative {
		n.state = stateCommitted
		g.set(uri, n)
	}
}

func (g *graph) fail(uri string) {
	n := g.get(uri)
	n.state = stateFailed
	n.candidate = nil
	g.set(uri, n)
}

func (g *graph) addCommand(uri, name string) {
	n := g.get(uri)
	n.commands = append(n.commands, name)
	g.set(uri, n)
}

// restrict adds e to uri. It reports false when uri is already selected
// and the selection violates e.
func (g *graph) restrict(uri string, e edge) bool {
	n := g.get(uri)
	n.edges = append(n.edges, e)
	g.set(uri, n)
	return !n.selected() || e.Allows(n.candidate.Impl)
}

func (g *graph) omit(o Omission) {
	g.omissions = append(g.omissions, o)
}

// selections lists the selected nodes in discovery order.
func (g *graph) selections() []string {
	var out []string
	for _, uri := range g.order {
		if g.nodes[uri].selected() {
			out = append(out, uri)
		}
	}
	return out
}
