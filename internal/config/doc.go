// Package config loads the splashwatch TOML configuration.
//
// # Configuration Discovery
//
// The Load function follows this resolution order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/splashwatch/config.toml
//  3. If the file doesn't exist, use defaults
//  4. Environment overrides (SPLASHWATCH_JAMF_LOG, SPLASHWATCH_MUNKI_LOG) win last
//
// # Default Values
//
//   - Jamf log: /var/log/jamf.log
//   - Munki log: /Library/Managed Installs/Logs/ManagedSoftwareUpdate.log
//   - Poll interval: 1s (backstop for missed file notifications)
//   - Journal: ~/.local/share/splashwatch/journal.db
//   - Log file: ~/.local/share/splashwatch/splashwatch.log
//
// # TOML Format
//
//	jamf_log = "/var/log/jamf.log"
//	munki_log = "/Library/Managed Installs/Logs/ManagedSoftwareUpdate.log"
//	disable_munki = false
//	poll_interval = "1s"
//	journal_path = "~/.local/share/splashwatch/journal.db"  # "" disables
//	event_log = "/var/log/splashwatch.jsonl"                # optional
//	log_level = "info"
//	log_file = "~/.local/share/splashwatch/splashwatch.log" # "" logs to stderr
//
// Tilde expansion is performed on every path. The log path keys and their
// environment overrides let test harnesses point splashwatch at fixture logs.
//
// # Error Handling
//
// Missing config files are not an error. Unreadable files, invalid TOML and
// invalid durations are.
package config
