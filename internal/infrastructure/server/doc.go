// Package server wires Sol together.
//
// Server Lifecycle:
//  1. Load configuration from the environment and flags
//  2. Initialize the logger and metrics registry
//  3. Open the sqlite database and preferences file in the data directory
//  4. Build the window manager over the configured surface driver
//  5. Setup HTTP routes and middleware
//  6. Start: launch the browser (rod driver) and open the first window
//  7. Run the control API
//  8. Close on signal or quit command: API, windows, browser, database
package server
