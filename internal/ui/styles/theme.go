// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme holds the styled components for the gate and redeem screens.
type Theme struct {
	IsDark       bool
	HasTrueColor bool
	ColorProfile termenv.Profile

	// Gate card
	Backdrop lipgloss.Style
	Card     lipgloss.Style
	Title    lipgloss.Style
	Subtitle lipgloss.Style

	// Input
	Prompt      lipgloss.Style
	InputText   lipgloss.Style
	Placeholder lipgloss.Style
	Selected    lipgloss.Style
	Disabled    lipgloss.Style

	// Messages
	Error   lipgloss.Style
	Success lipgloss.Style
	Info    lipgloss.Style
	Hint    lipgloss.Style

	// Unlocked content
	Header  lipgloss.Style
	Content lipgloss.Style
	Status  lipgloss.Style
}

// NewTheme creates a theme for the detected terminal. With noColor set every
// style renders plain text.
func NewTheme(noColor bool) *Theme {
	profile := termenv.ColorProfile()
	if noColor {
		profile = termenv.Ascii
	}

	t := &Theme{
		IsDark:       termenv.HasDarkBackground(),
		HasTrueColor: profile == termenv.TrueColor,
		ColorProfile: profile,
	}
	if profile == termenv.Ascii {
		t.initPlain()
	} else {
		t.initStyles()
	}
	return t
}

func (t *Theme) initStyles() {
	t.Backdrop = lipgloss.NewStyle().Background(SurfaceDim)

	t.Card = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Purple).
		Padding(1, 3).
		Width(48)

	t.Title = lipgloss.NewStyle().Bold(true).Foreground(Purple)
	t.Subtitle = lipgloss.NewStyle().Foreground(TextSecondary).Italic(true)

	t.Prompt = lipgloss.NewStyle().Foreground(Cyan).Bold(true)
	t.InputText = lipgloss.NewStyle().Foreground(TextPrimary)
	t.Placeholder = lipgloss.NewStyle().Foreground(TextMuted)
	t.Selected = lipgloss.NewStyle().Background(SelectionBg).Foreground(TextPrimary)
	t.Disabled = lipgloss.NewStyle().Foreground(TextMuted).Faint(true)

	t.Error = lipgloss.NewStyle().Foreground(Rose).Bold(true)
	t.Success = lipgloss.NewStyle().Foreground(Emerald).Bold(true)
	t.Info = lipgloss.NewStyle().Foreground(TextSecondary)
	t.Hint = lipgloss.NewStyle().Foreground(TextMuted)

	t.Header = lipgloss.NewStyle().
		Bold(true).
		Foreground(Cyan).
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(Overlay).
		Padding(0, 1)
	t.Content = lipgloss.NewStyle().Padding(0, 1)
	t.Status = lipgloss.NewStyle().Foreground(TextMuted).Padding(0, 1)
}

func (t *Theme) initPlain() {
	plain := lipgloss.NewStyle()

	t.Backdrop = plain
	t.Card = plain.
		BorderStyle(lipgloss.NormalBorder()).
		Padding(1, 3).
		Width(48)
	t.Title = plain.Bold(true)
	t.Subtitle = plain
	t.Prompt = plain
	t.InputText = plain
	t.Placeholder = plain
	t.Selected = plain.Reverse(true)
	t.Disabled = plain
	t.Error = plain
	t.Success = plain
	t.Info = plain
	t.Hint = plain
	t.Header = plain.
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		Padding(0, 1)
	t.Content = plain.Padding(0, 1)
	t.Status = plain.Padding(0, 1)
}
