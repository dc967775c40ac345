package ui

import "github.com/charmbracelet/lipgloss"

type Theme struct {
	Header       lipgloss.Style
	Status       lipgloss.Style
	Clue         lipgloss.Style
	ClueDone     lipgloss.Style
	CellEmpty    lipgloss.Style
	CellFilled   lipgloss.Style
	CellMarked   lipgloss.Style
	Cursor       lipgloss.Style
	SolvedBadge  lipgloss.Style
	Overlay      lipgloss.Style
	OverlayTitle lipgloss.Style
	Muted        lipgloss.Style
}

func DefaultTheme() Theme {
	ink := lipgloss.Color("#0E1420")
	slate := lipgloss.Color("#1B2740")
	powder := lipgloss.Color("#EAF2FF")
	blue := lipgloss.Color("#5EEBFF")
	mint := lipgloss.Color("#67F0A8")
	brick := lipgloss.Color("#FF6F91")
	border := lipgloss.Color("#4B5F8A")
	dim := lipgloss.Color("#7C8DB5")

	return Theme{
		Header: lipgloss.NewStyle().
			Background(ink).
			Foreground(powder).
			Padding(0, 1),
		Status: lipgloss.NewStyle().
			Background(slate).
			Foreground(powder).
			Padding(0, 1),
		Clue:       lipgloss.NewStyle().Foreground(blue),
		ClueDone:   lipgloss.NewStyle().Foreground(dim),
		CellEmpty:  lipgloss.NewStyle().Foreground(dim),
		CellFilled: lipgloss.NewStyle().Foreground(powder),
		CellMarked: lipgloss.NewStyle().Foreground(brick),
		Cursor:     lipgloss.NewStyle().Reverse(true),
		SolvedBadge: lipgloss.NewStyle().
			Foreground(ink).
			Background(mint).
			Bold(true).
			Padding(0, 1),
		Overlay: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(border).
			Background(slate).
			Foreground(powder).
			Padding(1, 3),
		OverlayTitle: lipgloss.NewStyle().
			Foreground(mint).
			Bold(true),
		Muted: lipgloss.NewStyle().Foreground(dim),
	}
}
