// Package ui provides the terminal splash screen for splashwatch.
//
// # Architecture Overview
//
// The UI is a Bubble Tea program rendered with Lipgloss. It is read-only:
// everything it shows comes from a state.Store snapshot, and the only state
// it writes back is the preferences file.
//
// Two feeds keep the snapshot fresh:
//
//   - A wait on Store.Changes that re-arms itself after every change
//   - A ticker (DefaultUIInterval by default) that also refreshes the raw
//     log pane and notices context cancellation
//
// # Package Structure
//
//   - app.go: Model, messages, commands and the Run entry point
//   - view.go: header, progress bar, status banner, package rows, raw pane
//   - theme.go: color palettes and pre-built Lipgloss styles
//   - keys.go: key bindings used by both the handlers and the help view
//   - layout.go: width breakpoints and pane limits
//
// # Screen Layout
//
//	splashwatch  installing 1  installed 3  failed 0  updated 2s
//	jamf watching   munki unreadable
//	 ███████████████░░░░░ 3/4
//	 ⣾ Installing 1 of 4 packages
//	 ✓ Firefox          120.0.1   jamf    success
//	 ⣾ Slack            4.35      jamf    installing
//	 ...
//	╭ raw log jamf /var/log/jamf.log ╮   (toggled with l)
//	enter continue • c hide completed • l raw log • h help • q quit
//
// Once every known package has reached a terminal status the continue key
// is enabled and Run reports whether the user pressed it.
//
// # Preferences
//
// Theme, hide-completed and raw-pane visibility are saved to prefs.toml
// whenever they change.
package ui
