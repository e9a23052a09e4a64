package workspace

import (
	"github.com/Fawazpw/Project-Sol/internal/domain/navigation"
	"github.com/Fawazpw/Project-Sol/internal/shared/id"
)

// NodeID identifies a tab or folder.
type NodeID = id.NodeID

// RootID is the implicit top-level container.
const RootID NodeID = "root"

// DefaultFolderTitle is the title given to new folders.
const DefaultFolderTitle = "New Folder"

// Handle is the content surface bound to an open tab. The tree owns it and
// closes it exactly once.
type Handle interface {
	Close() error
}

// TabState tracks a tab through its lifecycle.
type TabState int

const (
	StateCreating TabState = iota
	StateLoading
	StateReady
	StateClosing
	StateClosed
)

func (s TabState) String() string {
	switch s {
	case StateCreating:
		return "creating"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Node is either a *TabNode or a *FolderNode.
type Node interface {
	NodeID() NodeID
	ParentID() NodeID
	node()
}

// TabNode is a leaf holding one navigable target.
type TabNode struct {
	ID     NodeID
	Parent NodeID
	Target navigation.Target
	Title  string
	Handle Handle
	State  TabState
	Active bool
	// Err holds the last bind failure while the tab is stuck in Creating.
	Err error
}

// FolderNode groups tabs and other folders.
type FolderNode struct {
	ID        NodeID
	Parent    NodeID
	Title     string
	Collapsed bool
	Children  []NodeID
}

func (t *TabNode) NodeID() NodeID   { return t.ID }
func (t *TabNode) ParentID() NodeID { return t.Parent }
func (*TabNode) node()              {}

func (f *FolderNode) NodeID() NodeID   { return f.ID }
func (f *FolderNode) ParentID() NodeID { return f.Parent }
func (*FolderNode) node()              {}

// IsRoot reports whether f is the implicit root container.
func (f *FolderNode) IsRoot() bool { return f.ID == RootID }

func (f *FolderNode) indexOf(child NodeID) int {
	for i, c := range f.Children {
		if c == child {
			return i
		}
	}
	return -1
}

func (f *FolderNode) insert(child NodeID, index int) {
	if index < 0 || index > len(f.Children) {
		index = len(f.Children)
	}
	f.Children = append(f.Children, "")
	copy(f.Children[index+1:], f.Children[index:])
	f.Children[index] = child
}

func (f *FolderNode) detach(child NodeID) int {
	i := f.indexOf(child)
	if i >= 0 {
		f.Children = append(f.Children[:i], f.Children[i+1:]...)
	}
	return i
}
