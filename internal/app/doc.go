// Package app is the composition root for splashwatch.
//
// # Overview
//
// This package wires together configuration, logging, the software registry,
// the deployment-tool drivers, the journal and the UI. The cmd/splashwatch
// commands call into it and nothing else.
//
// # Architecture
//
// Run follows a simple initialization pattern:
//
//  1. Load ~/.config/splashwatch/config.toml and apply flag overrides
//  2. Build the zap logger (log file when the TUI owns the terminal)
//  3. Open the SQLite history and JSON-lines event log, if configured
//  4. Create the shared state.Store and its single-writer Dispatcher
//  5. Create one insider.Driver per enabled tool (Jamf, Munki)
//  6. Start the dispatcher and drivers in the background
//  7. Start the TUI, or log changes headlessly, until the user leaves or the
//     context is cancelled
//
// # Components
//
//   - app.go: Run, Scan and History entry points
//   - pipeline.go: registry, dispatcher and driver lifecycle
//   - output.go: plain-text tables for scan and history
//
// # Data Flow
//
//	┌──────────────┐      ┌──────────────┐
//	│ jamf driver  │      │ munki driver │   tail -> classify
//	└──────┬───────┘      └──────┬───────┘
//	       │   Submit(event)     │
//	       └─────────┬───────────┘
//	                 ▼
//	        ┌─────────────────┐      ┌───────────────┐
//	        │   Dispatcher    │─────▶│ journal sinks │
//	        └────────┬────────┘      └───────────────┘
//	                 │ Upsert
//	                 ▼
//	        ┌─────────────────┐
//	        │   state.Store   │
//	        └────────┬────────┘
//	                 │ Changes / Snapshot
//	                 ▼
//	        ┌─────────────────┐
//	        │  ui (or logs)   │
//	        └─────────────────┘
//
// # Shutdown
//
// Cancelling the context stops the drivers first. The dispatcher is then
// stopped and applies whatever the drivers had already queued, so the
// journal sees every transition the registry saw.
//
// # Error Handling
//
// Only configuration and logging setup errors abort a run. Unreadable logs,
// broken patterns and journal failures are logged and shown as source
// health instead.
package app
