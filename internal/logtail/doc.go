// Package logtail reads deployment log files incrementally.
//
// # Overview
//
// A Tailer owns one read handle on a growing, append-only log file. Each
// read returns only the bytes written since the previous read, split into
// lines. The Tailer knows nothing about the content of the lines; callers
// classify them.
//
// # Incremental Reads
//
// Poll compares the file size with the consumed offset and reads exactly the
// difference:
//
//	offset ──────────────┐
//	[ consumed bytes ....][ new bytes ...... ]
//	                      └─ ReadAt(offset) ─┘ → split on '\n'
//
// Bytes are never re-read. Two edge cases are handled explicitly:
//
//   - The file shrank (truncated or replaced in place): reading restarts at 0.
//   - The new bytes are not valid UTF-8: the chunk is dropped, the offset still
//     advances, and Poll returns an error wrapping ErrUndecodable.
//
// Partial lines are not held back. When a write lands without its trailing
// newline, the fragment is returned as a line and the remainder shows up as a
// separate line on the next read. Deployment tools write whole lines, so this
// rarely matters, but a line split exactly at a read boundary may be missed
// by the classifier.
//
// # Notifications
//
// Run reacts to fsnotify Write/Create events on the file and also checks the
// file on a timer (one second by default) in case notifications are lost or
// unavailable. Every read happens on the Run goroutine, so the line handler
// is never called concurrently and growth events are processed in order.
//
// # Unreadable Files
//
// Open always returns a Tailer. When the file cannot be opened the Tailer is
// inert: Poll and Run return an error wrapping ErrUnreadable and no line is
// ever produced. The open is not retried.
//
// # Tail Reads
//
// Read returns the last N lines of a file using a ring buffer. The UI uses it
// for the raw log pane.
package logtail
