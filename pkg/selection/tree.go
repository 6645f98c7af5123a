package selection

import (
	"github.com/matzehuels/feedsolve/pkg/store"
)

// TreeNode is one interface in the dependency tree of a Selections document.
type TreeNode struct {
	InterfaceURI string
	// Selection is nil when the interface was not selected, e.g. an
	// unsatisfied recommended dependency.
	Selection *Selection
	// Path is the local directory of the implementation, if known.
	Path     string
	Parent   *TreeNode
	Children []*TreeNode
}

// Depth returns the number of ancestors of n.
func (n *TreeNode) Depth() int {
	d := 0
	for p := n.Parent; p != nil; p = p.Parent {
		d++
	}
	return d
}

// GetTree walks from the root through regular dependencies and the runners
// and dependencies of selected commands. Each interface appears once, at its first occurrence in a
// depth-first walk; later references are pruned. The returned slice lists
// nodes in walk order and starts with the root.
func GetTree(sels *Selections, st store.Store) []*TreeNode {
	visited := make(map[string]bool)
	var nodes []*TreeNode

	var walk func(uri string, parent *TreeNode)
	walk = func(uri string, parent *TreeNode) {
		if visited[uri] {
			return
		}
		visited[uri] = true

		node := &TreeNode{InterfaceURI: uri, Parent: parent, Selection: sels.Get(uri)}
		if parent != nil {
			parent.Children = append(parent.Children, node)
		}
		nodes = append(nodes, node)

		sel := node.Selection
		if sel == nil {
			return
		}
		node.Path = pathOf(sel, st)

		for _, dep := range sel.Dependencies {
			walk(dep.InterfaceURI, node)
		}
		for _, cmd := range sel.Commands {
			if cmd.Runner != nil {
				walk(cmd.Runner.InterfaceURI, node)
			}
			for _, dep := range cmd.Dependencies {
				walk(dep.InterfaceURI, node)
			}
		}
	}

	walk(sels.InterfaceURI, nil)
	return nodes
}

func pathOf(sel *Selection, st store.Store) string {
	if sel.LocalPath != "" {
		return sel.LocalPath
	}
	if st == nil || sel.Digest.IsZero() {
		return ""
	}
	path, _ := st.GetPath(sel.Digest)
	return path
}
