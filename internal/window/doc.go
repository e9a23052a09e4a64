// Package window runs browser windows.
//
// Each Window owns a workspace tree, the tab controller and organizer that
// edit it, and the session coordinator that persists it. Everything that
// touches those runs on the window's loop goroutine:
//
//	err := w.Do(ctx, func(ctx context.Context) error {
//		_, err := w.Controller().Navigate(ctx, "go.dev")
//		return err
//	})
//
// Content surfaces report progress from their own goroutines. Their events
// are queued and applied on the loop in arrival order, after the work that
// caused them.
//
// The Manager creates windows with their own surface partition. Normal
// windows share the history, bookmark and snapshot stores; incognito windows
// get none and leave nothing behind when closed.
package window
