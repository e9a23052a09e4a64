// Command sol runs the Sol browser shell backend: it restores the last
// session into a window and serves the control API the browser chrome
// talks to.
//
// Usage:
//
//	sol [-addr 127.0.0.1:8765] [-data .sol] [-surface headless|rod] [-dev]
//
// Every flag has an environment equivalent (SOL_ADDR, SOL_DATA_DIR,
// SOL_SURFACE, LOG_DEV). Flags win.
package main
