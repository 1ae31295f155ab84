package ui

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Color palette
// - Default (white/black): Primary text
// - Accent (soft purple #A78BFA): Highlights, paths, kit names
// - Muted (gray): Secondary info, hints
// - No colored success/error/warning - use unicode symbols only

var (
	// Accent style for file paths, kit names, highlights
	Accent = lipgloss.NewStyle().Foreground(lipgloss.Color("#A78BFA"))

	// Muted style for secondary info and hints
	Muted = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C7086"))

	// Bold style for emphasis
	Bold = lipgloss.NewStyle().Bold(true)

	// AccentBold combines accent color with bold
	AccentBold = lipgloss.NewStyle().Foreground(lipgloss.Color("#A78BFA")).Bold(true)
)

// accentColor holds the user-configured accent, empty when unset or
// disabled.
var accentColor string

// ConfigureTheme applies a user accent color to the shared styles. Values
// like "none", "off", or "default" disable the accent entirely; invalid
// values do the same rather than erroring.
func ConfigureTheme(accent string) {
	color, ok := normalizeAccentColor(accent)
	if !ok {
		accentColor = ""
		Accent = lipgloss.NewStyle()
		AccentBold = lipgloss.NewStyle().Bold(true)
		return
	}

	accentColor = color
	Accent = lipgloss.NewStyle().Foreground(lipgloss.Color(color))
	AccentBold = lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Bold(true)
}

// AccentColor returns the configured accent color, if any.
func AccentColor() (string, bool) {
	if accentColor == "" {
		return "", false
	}
	return accentColor, true
}

// normalizeAccentColor validates a user-supplied accent value. Accepted
// forms are ANSI color codes 0-255 and hex colors, with #abc shorthand
// expanded to #aabbcc.
func normalizeAccentColor(value string) (string, bool) {
	trimmed := strings.ToLower(strings.TrimSpace(value))
	switch trimmed {
	case "", "none", "off", "default":
		return "", false
	}

	if n, err := strconv.Atoi(trimmed); err == nil {
		if n >= 0 && n <= 255 {
			return strconv.Itoa(n), true
		}
		return "", false
	}

	if strings.HasPrefix(trimmed, "#") {
		hex := trimmed[1:]
		if len(hex) == 3 {
			expanded := make([]byte, 0, 6)
			for i := 0; i < 3; i++ {
				expanded = append(expanded, hex[i], hex[i])
			}
			hex = string(expanded)
		}
		if len(hex) != 6 {
			return "", false
		}
		if _, err := strconv.ParseUint(hex, 16, 32); err != nil {
			return "", false
		}
		return "#" + hex, true
	}

	return "", false
}
