// Package session saves and restores the open tabs of a browser window.
//
// A snapshot is the ordered list of restorable tabs (external pages and
// internal sol:// pages) with their titles and the active flag. It is
// rewritten wholesale after every open, close, navigation or activation.
//
// Restoration Process:
//  1. Load the snapshot from the store
//  2. Reopen each tab in document order
//  3. Activate the tab saved as active, or the first one
//
// A missing, malformed or empty snapshot starts the window on its home page.
// Incognito windows never read or write snapshots.
//
// Example Usage:
//
//	coord := session.NewCoordinator(ctrl, stores.Snapshots, metrics, logger)
//	err := coord.Start(ctx)
package session
