// Package cli renders a run in the terminal: a spinner with a progress bar
// while tests execute, a summary table once the run is sealed, and an
// optional JSON or YAML report file.
//
// # Naming Conventions
//
//   - Display* functions write formatted output to an [io.Writer].
//   - Format* functions return a formatted string without performing I/O.
//   - Write* functions write data to files on the filesystem.
package cli
