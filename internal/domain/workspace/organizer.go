package workspace

import (
	"strings"

	"go.uber.org/zap"
)

// Organizer applies folder and drag-reorder edits to a tree.
type Organizer struct {
	tree     *Tree
	logger   *zap.Logger
	rejected func(error)
}

// NewOrganizer creates an organizer for tree. onReject, if set, is called for
// every drag move that was refused.
func NewOrganizer(tree *Tree, logger *zap.Logger, onReject func(error)) *Organizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Organizer{tree: tree, logger: logger, rejected: onReject}
}

// AddFolder creates an expanded "New Folder" under parent (root when empty).
func (o *Organizer) AddFolder(parent NodeID) (NodeID, error) {
	folderID, err := o.tree.CreateFolder(parent)
	if err != nil {
		return "", err
	}
	o.logger.Debug("folder added", zap.String("node_id", folderID.String()), zap.String("parent", parent.String()))
	return folderID, nil
}

// RenameFolder sets a folder's title. A title that is empty after trimming
// is rejected and the previous title kept.
func (o *Organizer) RenameFolder(folderID NodeID, title string) error {
	f, err := o.folder(folderID)
	if err != nil {
		return err
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return ErrEmptyTitle
	}
	f.Title = title
	return nil
}

// DeleteFolder removes a folder, promoting its children into its place.
func (o *Organizer) DeleteFolder(folderID NodeID) error {
	if _, err := o.folder(folderID); err != nil {
		return err
	}
	return o.tree.RemoveNode(folderID)
}

// ToggleCollapsed flips a folder's collapsed flag and returns the new value.
func (o *Organizer) ToggleCollapsed(folderID NodeID) (bool, error) {
	f, err := o.folder(folderID)
	if err != nil {
		return false, err
	}
	f.Collapsed = !f.Collapsed
	return f.Collapsed, nil
}

// Reorder is the drop target of a drag gesture. Invalid moves are refused
// without changing the tree; the result tells the UI whether to revert.
func (o *Organizer) Reorder(dragged, container NodeID, index int) bool {
	if err := o.tree.MoveNode(dragged, container, index); err != nil {
		o.logger.Debug("reorder rejected",
			zap.String("node_id", dragged.String()),
			zap.String("container", container.String()),
			zap.Error(err))
		if o.rejected != nil {
			o.rejected(err)
		}
		return false
	}
	return true
}

func (o *Organizer) folder(folderID NodeID) (*FolderNode, error) {
	if folderID == RootID || folderID == "" {
		return nil, ErrNotFolder
	}
	return o.tree.Folder(folderID)
}
