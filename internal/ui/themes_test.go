package ui

import (
	"strings"
	"testing"
)

func withTheme(t *testing.T, theme Theme) {
	t.Helper()
	prev := GetCurrentTheme()
	SetCurrentTheme(theme)
	t.Cleanup(func() { SetCurrentTheme(prev) })
}

func TestSetTheme(t *testing.T) {
	withTheme(t, DarkTheme)
	tests := []struct {
		name string
		want string
	}{
		{"dark", "dark"},
		{"light", "light"},
		{"none", "none"},
		{"unknown", "dark"},
	}
	for _, tt := range tests {
		SetTheme(tt.name)
		if got := GetCurrentTheme().Name; got != tt.want {
			t.Errorf("SetTheme(%q) -> %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestInitTheme(t *testing.T) {
	withTheme(t, DarkTheme)

	InitTheme(true)
	if ColorsEnabled() {
		t.Error("InitTheme(true) should disable colors")
	}

	t.Setenv("NO_COLOR", "")
	InitTheme(false)
	if ColorsEnabled() {
		t.Error("NO_COLOR should disable colors even when empty")
	}
}

func TestRenderStatus_NoColor(t *testing.T) {
	withTheme(t, NoColorTheme)
	tests := map[string]string{
		"passed":      "PASSED",
		"failed":      "FAILED",
		"not_run":     "NOT RUN",
		"interrupted": "INTERRUPTED",
	}
	for status, want := range tests {
		if got := RenderStatus(status); got != want {
			t.Errorf("RenderStatus(%q) = %q, want %q", status, got, want)
		}
	}
}

func TestStatusStyle(t *testing.T) {
	withTheme(t, DarkTheme)
	if !StatusStyle("failed").GetBold() {
		t.Error("failed status should be bold")
	}
	if StatusStyle("passed").GetBold() {
		t.Error("passed status should not be bold")
	}
	if !strings.Contains(RenderStatus("passed"), "PASSED") {
		t.Error("rendered status should contain its label")
	}

	SetCurrentTheme(NoColorTheme)
	if StatusStyle("failed").GetBold() {
		t.Error("no-color theme should return an unstyled style")
	}
}

func TestColorize(t *testing.T) {
	withTheme(t, DarkTheme)
	got := Colorize(func(th Theme) string { return th.Error }, "boom")
	if got != DarkTheme.Error+"boom"+DarkTheme.Reset {
		t.Errorf("Colorize() = %q", got)
	}

	SetCurrentTheme(NoColorTheme)
	if got := Colorize(func(th Theme) string { return th.Error }, "boom"); got != "boom" {
		t.Errorf("Colorize() without colors = %q, want plain", got)
	}
}
