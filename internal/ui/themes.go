package ui

import (
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// Theme defines a color scheme for text output.
// Each field contains an ANSI escape code for the corresponding color category.
type Theme struct {
	Name      string
	Primary   string
	Secondary string
	Success   string
	Warning   string
	Error     string
	Info      string
	Bold      string
	Reset     string
}

var (
	// DarkTheme is optimized for dark terminal backgrounds.
	DarkTheme = Theme{
		Name:      "dark",
		Primary:   "\033[38;5;39m",
		Secondary: "\033[38;5;245m",
		Success:   "\033[38;5;82m",
		Warning:   "\033[38;5;220m",
		Error:     "\033[38;5;196m",
		Info:      "\033[38;5;141m",
		Bold:      "\033[1m",
		Reset:     "\033[0m",
	}

	// LightTheme uses darker colors for light backgrounds.
	LightTheme = Theme{
		Name:      "light",
		Primary:   "\033[38;5;27m",
		Secondary: "\033[38;5;240m",
		Success:   "\033[38;5;28m",
		Warning:   "\033[38;5;130m",
		Error:     "\033[38;5;124m",
		Info:      "\033[38;5;54m",
		Bold:      "\033[1m",
		Reset:     "\033[0m",
	}

	// NoColorTheme disables all color output.
	NoColorTheme = Theme{Name: "none"}

	currentTheme = DarkTheme
	themeMutex   sync.RWMutex
)

// statusColors maps a test status to its lipgloss color.
var statusColors = map[string]lipgloss.Color{
	"passed":      lipgloss.Color("#9ece6a"),
	"failed":      lipgloss.Color("#FF4444"),
	"errored":     lipgloss.Color("#FF8C00"),
	"interrupted": lipgloss.Color("#FFB347"),
	"not_run":     lipgloss.Color("#666666"),
}

// GetCurrentTheme returns the currently active theme in a thread-safe manner.
func GetCurrentTheme() Theme {
	themeMutex.RLock()
	defer themeMutex.RUnlock()
	return currentTheme
}

// SetCurrentTheme sets the active theme. Tests use it to restore state.
func SetCurrentTheme(t Theme) {
	themeMutex.Lock()
	defer themeMutex.Unlock()
	currentTheme = t
}

// SetTheme changes the active theme by name ("dark", "light" or "none").
// Unknown names select the dark theme.
func SetTheme(name string) {
	themeMutex.Lock()
	defer themeMutex.Unlock()

	switch name {
	case "light":
		currentTheme = LightTheme
	case "none":
		currentTheme = NoColorTheme
	default:
		currentTheme = DarkTheme
	}
}

// InitTheme initializes the theme from the noColor flag and the NO_COLOR
// environment variable (https://no-color.org/). Any NO_COLOR value, even
// empty, disables colors.
//
// Parameters:
//   - noColor: If true, disables all color output regardless of environment.
func InitTheme(noColor bool) {
	themeMutex.Lock()
	defer themeMutex.Unlock()

	if noColor {
		currentTheme = NoColorTheme
		return
	}
	if _, exists := os.LookupEnv("NO_COLOR"); exists {
		currentTheme = NoColorTheme
		return
	}
	currentTheme = DarkTheme
}

// ColorsEnabled reports whether the active theme emits colors.
func ColorsEnabled() bool {
	return GetCurrentTheme().Name != NoColorTheme.Name
}

// StatusStyle returns the lipgloss style for a test status. Unknown statuses
// and the no-color theme get an unstyled style.
func StatusStyle(status string) lipgloss.Style {
	style := lipgloss.NewStyle()
	if !ColorsEnabled() {
		return style
	}
	if c, ok := statusColors[status]; ok {
		style = style.Foreground(c)
		if status == "failed" || status == "errored" {
			style = style.Bold(true)
		}
	}
	return style
}

// RenderStatus renders status in upper case with its style.
func RenderStatus(status string) string {
	label := strings.ToUpper(strings.ReplaceAll(status, "_", " "))
	if !ColorsEnabled() {
		return label
	}
	return StatusStyle(status).Render(label)
}

// Colorize wraps s in the escape code chosen by pick from the current theme.
func Colorize(pick func(Theme) string, s string) string {
	t := GetCurrentTheme()
	code := pick(t)
	if code == "" {
		return s
	}
	return code + s + t.Reset
}
