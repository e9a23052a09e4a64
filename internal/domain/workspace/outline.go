package workspace

import (
	"errors"
	"fmt"
)

// Kind distinguishes outline rows.
type Kind string

const (
	KindTab    Kind = "tab"
	KindFolder Kind = "folder"
)

// Row is one node of the tree flattened in document order.
type Row struct {
	ID        NodeID   `json:"id"`
	Parent    NodeID   `json:"parent"`
	Kind      Kind     `json:"kind"`
	Depth     int      `json:"depth"`
	Title     string   `json:"title"`
	URL       string   `json:"url,omitempty"`
	State     string   `json:"state,omitempty"`
	Collapsed bool     `json:"collapsed,omitempty"`
	Active    bool     `json:"active,omitempty"`
	Children  []NodeID `json:"children,omitempty"`
}

// Outline flattens the tree in document order. Two trees with equal outlines
// are structurally equal.
func (t *Tree) Outline() []Row {
	rows := make([]Row, 0, t.Len())
	t.walk(t.root, 0, func(n Node, depth int) {
		switch node := n.(type) {
		case *TabNode:
			rows = append(rows, Row{
				ID:     node.ID,
				Parent: node.Parent,
				Kind:   KindTab,
				Depth:  depth,
				Title:  node.Title,
				URL:    node.Target.String(),
				State:  node.State.String(),
				Active: node.Active,
			})
		case *FolderNode:
			rows = append(rows, Row{
				ID:        node.ID,
				Parent:    node.Parent,
				Kind:      KindFolder,
				Depth:     depth,
				Title:     node.Title,
				Collapsed: node.Collapsed,
				Children:  append([]NodeID(nil), node.Children...),
			})
		}
	})
	return rows
}

// Validate checks the structural invariants of the tree and returns every
// violation found.
func (t *Tree) Validate() error {
	var errs []error

	for nodeID, n := range t.nodes {
		if n.NodeID() != nodeID {
			errs = append(errs, fmt.Errorf("node %s stored under %s", n.NodeID(), nodeID))
		}
		if nodeID == RootID {
			continue
		}
		parent, ok := t.nodes[n.ParentID()].(*FolderNode)
		if !ok {
			errs = append(errs, fmt.Errorf("node %s has no folder parent %s", nodeID, n.ParentID()))
			continue
		}
		if count := countOf(parent.Children, nodeID); count != 1 {
			errs = append(errs, fmt.Errorf("node %s appears %d times in %s", nodeID, count, parent.ID))
		}
		if !t.reachesRoot(nodeID) {
			errs = append(errs, fmt.Errorf("node %s is on a cycle", nodeID))
		}
	}

	for _, n := range t.nodes {
		f, ok := n.(*FolderNode)
		if !ok {
			continue
		}
		for _, c := range f.Children {
			child, ok := t.nodes[c]
			if !ok {
				errs = append(errs, fmt.Errorf("folder %s lists missing child %s", f.ID, c))
				continue
			}
			if child.ParentID() != f.ID {
				errs = append(errs, fmt.Errorf("folder %s lists %s whose parent is %s", f.ID, c, child.ParentID()))
			}
		}
	}

	activeCount := 0
	for _, n := range t.nodes {
		if tab, ok := n.(*TabNode); ok && tab.Active {
			activeCount++
			if tab.ID != t.active {
				errs = append(errs, fmt.Errorf("tab %s flagged active but %q is recorded", tab.ID, t.active))
			}
		}
	}
	if activeCount > 1 {
		errs = append(errs, fmt.Errorf("%d active tabs", activeCount))
	}
	if t.active != "" {
		if _, err := t.Tab(t.active); err != nil {
			errs = append(errs, fmt.Errorf("active tab: %w", err))
		}
	}

	return errors.Join(errs...)
}

func (t *Tree) reachesRoot(nodeID NodeID) bool {
	n := t.nodes[nodeID]
	for steps := 0; steps <= len(t.nodes); steps++ {
		p, ok := t.nodes[n.ParentID()]
		if !ok {
			return false
		}
		if p.NodeID() == RootID {
			return true
		}
		n = p
	}
	return false
}

func countOf(ids []NodeID, target NodeID) int {
	count := 0
	for _, x := range ids {
		if x == target {
			count++
		}
	}
	return count
}
