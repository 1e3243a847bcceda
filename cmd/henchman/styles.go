// SPDX-License-Identifier: MPL-2.0

package cmd

import "github.com/charmbracelet/lipgloss"

// CLI palette. Task listings in internal/harness use the same blue and
// gray.
var (
	colorTitle   = lipgloss.Color("#7C3AED")
	colorMuted   = lipgloss.Color("#6B7280")
	colorSuccess = lipgloss.Color("#10B981")
	colorError   = lipgloss.Color("#EF4444")
	colorKey     = lipgloss.Color("#3B82F6")

	// TitleStyle renders the program name in help text.
	TitleStyle = lipgloss.NewStyle().Bold(true).Foreground(colorTitle)
	// SubtitleStyle renders secondary text.
	SubtitleStyle = lipgloss.NewStyle().Foreground(colorMuted)
	// SuccessStyle marks completed writes.
	SuccessStyle = lipgloss.NewStyle().Foreground(colorSuccess)
	// ErrorStyle renders the "Error:" prefix.
	ErrorStyle = lipgloss.NewStyle().Bold(true).Foreground(colorError)
	// CmdStyle renders config keys.
	CmdStyle = lipgloss.NewStyle().Foreground(colorKey)
)
