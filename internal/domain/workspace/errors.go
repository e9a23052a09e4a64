package workspace

import "errors"

var (
	// ErrInvalidMove is returned when a move would create a cycle, move the
	// root, or place a node inside a tab or missing container.
	ErrInvalidMove = errors.New("invalid move")

	// ErrNodeNotFound is returned for operations against an unknown or stale id.
	ErrNodeNotFound = errors.New("node not found")
)

var (
	// ErrNotFolder is returned when a folder operation targets a tab.
	ErrNotFolder = errors.New("node is not a folder")

	// ErrNotTab is returned when a tab operation targets a folder.
	ErrNotTab = errors.New("node is not a tab")

	// ErrEmptyTitle is returned when a rename would leave a folder untitled.
	ErrEmptyTitle = errors.New("folder title cannot be empty")
)
