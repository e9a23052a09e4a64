// Package workspace holds the tab and folder hierarchy of a window.
//
// The tree is an arena: nodes live in a flat map keyed by id and refer to
// each other only by id. Folders keep the ordered ids of their children, and
// every node other than the root points back to its parent, so acyclicity is
// checked with a plain ancestor walk.
//
// A Tree is not safe for concurrent use. Each window mutates its tree from a
// single goroutine.
package workspace

import (
	"errors"
	"fmt"

	"github.com/Fawazpw/Project-Sol/internal/domain/navigation"
	"github.com/Fawazpw/Project-Sol/internal/shared/id"
)

// Tree is the workspace of one window.
type Tree struct {
	nodes  map[NodeID]Node
	root   *FolderNode
	active NodeID

	onCloseError func(NodeID, error)
}

// NewTree returns a tree holding only the root container.
func NewTree() *Tree {
	root := &FolderNode{ID: RootID}
	return &Tree{
		nodes: map[NodeID]Node{RootID: root},
		root:  root,
	}
}

// OnCloseError registers fn to receive errors from closing tab handles
// during removal or replacement.
func (t *Tree) OnCloseError(fn func(NodeID, error)) {
	t.onCloseError = fn
}

// Root returns the implicit top-level container.
func (t *Tree) Root() *FolderNode {
	return t.root
}

// Find returns the node with the given id.
func (t *Tree) Find(nodeID NodeID) (Node, bool) {
	n, ok := t.nodes[nodeID]
	return n, ok
}

// Tab returns the tab with the given id.
func (t *Tree) Tab(nodeID NodeID) (*TabNode, error) {
	n, ok := t.nodes[nodeID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, nodeID)
	}
	tab, ok := n.(*TabNode)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotTab, nodeID)
	}
	return tab, nil
}

// Folder returns the folder with the given id. The empty id names the root.
func (t *Tree) Folder(nodeID NodeID) (*FolderNode, error) {
	if nodeID == "" {
		return t.root, nil
	}
	n, ok := t.nodes[nodeID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, nodeID)
	}
	f, ok := n.(*FolderNode)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFolder, nodeID)
	}
	return f, nil
}

// Children returns a copy of a folder's child order.
func (t *Tree) Children(parent NodeID) ([]NodeID, error) {
	f, err := t.Folder(parent)
	if err != nil {
		return nil, err
	}
	return append([]NodeID(nil), f.Children...), nil
}

// CreateTab appends a new tab to parent (root when empty). The tab starts in
// Creating and is not activated.
func (t *Tree) CreateTab(parent NodeID, target navigation.Target) (NodeID, error) {
	f, err := t.Folder(parent)
	if err != nil {
		return "", err
	}
	tab := &TabNode{
		ID:     id.NewTabID(),
		Parent: f.ID,
		Target: target,
		State:  StateCreating,
	}
	t.nodes[tab.ID] = tab
	f.insert(tab.ID, -1)
	return tab.ID, nil
}

// CreateFolder appends a new, expanded folder to parent (root when empty).
func (t *Tree) CreateFolder(parent NodeID) (NodeID, error) {
	f, err := t.Folder(parent)
	if err != nil {
		return "", err
	}
	folder := &FolderNode{
		ID:     id.NewFolderID(),
		Parent: f.ID,
		Title:  DefaultFolderTitle,
	}
	t.nodes[folder.ID] = folder
	f.insert(folder.ID, -1)
	return folder.ID, nil
}

// RemoveNode deletes a node. A folder's children take its place in its
// parent, in order. A tab's handle is closed and its active flag cleared;
// choosing a replacement is left to the caller.
func (t *Tree) RemoveNode(nodeID NodeID) error {
	if nodeID == RootID {
		return fmt.Errorf("%w: cannot remove root", ErrInvalidMove)
	}
	n, ok := t.nodes[nodeID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, nodeID)
	}
	parent := t.nodes[n.ParentID()].(*FolderNode)
	pos := parent.detach(nodeID)

	switch node := n.(type) {
	case *FolderNode:
		spliced := make([]NodeID, 0, len(parent.Children)+len(node.Children))
		spliced = append(spliced, parent.Children[:pos]...)
		spliced = append(spliced, node.Children...)
		spliced = append(spliced, parent.Children[pos:]...)
		parent.Children = spliced
		for _, c := range node.Children {
			t.setParent(c, parent.ID)
		}
		node.Children = nil
	case *TabNode:
		if t.active == nodeID {
			t.active = ""
		}
		node.Active = false
		node.State = StateClosed
		t.report(node.ID, releaseHandle(node))
	}

	delete(t.nodes, nodeID)
	return nil
}

// MoveNode places nodeID inside newParent at index. The index is the final
// position in newParent's child order and is clamped; a negative index
// appends. Moving a node into itself, a descendant, or a tab fails with
// ErrInvalidMove and leaves the tree unchanged.
func (t *Tree) MoveNode(nodeID, newParent NodeID, index int) error {
	if nodeID == RootID {
		return fmt.Errorf("%w: cannot move root", ErrInvalidMove)
	}
	n, ok := t.nodes[nodeID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, nodeID)
	}
	if newParent == "" {
		newParent = RootID
	}
	dest, ok := t.nodes[newParent]
	if !ok {
		return fmt.Errorf("%w: container %s does not exist", ErrInvalidMove, newParent)
	}
	destFolder, ok := dest.(*FolderNode)
	if !ok {
		return fmt.Errorf("%w: %s is not a folder", ErrInvalidMove, newParent)
	}
	if newParent == nodeID || t.IsAncestor(nodeID, newParent) {
		return fmt.Errorf("%w: %s into its own subtree", ErrInvalidMove, nodeID)
	}

	src := t.nodes[n.ParentID()].(*FolderNode)
	src.detach(nodeID)
	destFolder.insert(nodeID, index)
	t.setParent(nodeID, destFolder.ID)
	return nil
}

// IsAncestor reports whether ancestor lies on the parent chain of nodeID.
func (t *Tree) IsAncestor(ancestor, nodeID NodeID) bool {
	n, ok := t.nodes[nodeID]
	for steps := 0; ok && steps <= len(t.nodes); steps++ {
		if n.NodeID() == RootID {
			return false
		}
		p := n.ParentID()
		if p == ancestor {
			return true
		}
		n, ok = t.nodes[p]
	}
	return false
}

// SetActive makes tabID the only active tab.
func (t *Tree) SetActive(tabID NodeID) error {
	tab, err := t.Tab(tabID)
	if err != nil {
		return err
	}
	if prev, ok := t.nodes[t.active].(*TabNode); ok {
		prev.Active = false
	}
	tab.Active = true
	t.active = tabID
	return nil
}

// Active returns the active tab id, if any.
func (t *Tree) Active() (NodeID, bool) {
	return t.active, t.active != ""
}

// AttachHandle binds a content surface to a tab, closing any handle it
// replaces.
func (t *Tree) AttachHandle(tabID NodeID, h Handle) error {
	tab, err := t.Tab(tabID)
	if err != nil {
		return err
	}
	if tab.Handle != nil && tab.Handle != h {
		t.report(tabID, releaseHandle(tab))
	}
	tab.Handle = h
	return nil
}

// Tabs returns every tab in document order, including tabs inside collapsed
// folders.
func (t *Tree) Tabs() []*TabNode {
	var out []*TabNode
	t.walk(t.root, 0, func(n Node, _ int) {
		if tab, ok := n.(*TabNode); ok {
			out = append(out, tab)
		}
	})
	return out
}

// TabCount returns the number of tabs.
func (t *Tree) TabCount() int {
	count := 0
	for _, n := range t.nodes {
		if _, ok := n.(*TabNode); ok {
			count++
		}
	}
	return count
}

// Len returns the number of nodes, excluding the root.
func (t *Tree) Len() int {
	return len(t.nodes) - 1
}

// Release closes every tab handle and returns the close errors joined. Used
// when a window is torn down.
func (t *Tree) Release() error {
	var errs []error
	for _, n := range t.nodes {
		if tab, ok := n.(*TabNode); ok {
			if err := releaseHandle(tab); err != nil {
				errs = append(errs, fmt.Errorf("tab %s: %w", tab.ID, err))
			}
		}
	}
	return errors.Join(errs...)
}

func (t *Tree) walk(f *FolderNode, depth int, fn func(Node, int)) {
	for _, c := range f.Children {
		n := t.nodes[c]
		fn(n, depth)
		if sub, ok := n.(*FolderNode); ok {
			t.walk(sub, depth+1, fn)
		}
	}
}

func (t *Tree) setParent(nodeID, parent NodeID) {
	switch n := t.nodes[nodeID].(type) {
	case *TabNode:
		n.Parent = parent
	case *FolderNode:
		n.Parent = parent
	}
}

func (t *Tree) report(tabID NodeID, err error) {
	if err != nil && t.onCloseError != nil {
		t.onCloseError(tabID, err)
	}
}

func releaseHandle(tab *TabNode) error {
	if tab.Handle == nil {
		return nil
	}
	h := tab.Handle
	tab.Handle = nil
	return h.Close()
}
