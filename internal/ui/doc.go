// Package ui holds the terminal color themes shared by the CLI presenters.
//
// Two palettes exist side by side: ANSI escape themes for plain formatted
// text, and lipgloss styles for test statuses in the summary table. Both
// honor -no-color and the NO_COLOR environment variable.
package ui
