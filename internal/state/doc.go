// Package state holds the software registry shared by the log drivers and the UI.
//
// # Overview
//
// The registry maps a package identity (name + version) to its latest
// lifecycle status. Two independent log drivers feed it and the UI reads it.
// One Store is created at startup and passed to everything that needs it;
// tests build a fresh Store per case.
//
// # Architecture
//
//	Jamf tailer ──┐
//	              ├──→ Dispatcher.Submit() ──→ queue ──→ Run() ──→ Store.Upsert()
//	Munki tailer ─┘                                         │
//	                                                        ├──→ observers (journal)
//	                                                        └──→ Store.Changes() ──→ UI
//
// Each tailer classifies its own lines; only the registry write crosses
// goroutines. The Dispatcher owns a single writer goroutine so writes from
// both tailers are applied one at a time, in arrival order.
//
// # Merge Semantics
//
// Upsert keeps at most one record per identity:
//
//	absent      + installing → installing
//	absent      + success    → success
//	installing  + success    → success
//	installing  + failed     → failed
//	success     + installing → success   (terminal status is sticky)
//	failed      + success    → success   (terminal overwrites terminal)
//	success     + success    → unchanged (no Seq bump, no notification)
//
// Seq is a per-store logical clock bumped on every visible change.
//
// # Concurrency Model
//
// Store uses a sync.RWMutex and hands out copies, so readers never hold the
// lock while rendering. Changes() returns a one-slot channel: a burst of
// updates produces a single wake-up for the UI.
//
// # Testing Considerations
//
// The zero Store is ready to use. Reset exists for test setup only;
// production code never clears the registry.
package state
