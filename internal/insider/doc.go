// Package insider adapts the Jamf and Munki deployment logs to the registry.
//
// Each tool is a Provider (name, log path, rule specs). A Driver is the same
// for every tool: it compiles the provider's rules, opens a logtail.Tailer on
// the provider's path, classifies every new line, and submits events to the
// shared state.Dispatcher. Setup failures are isolated per driver, so a
// missing jamf.log does not stop Munki detection.
package insider
