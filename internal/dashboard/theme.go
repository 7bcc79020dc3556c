package dashboard

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/sells-group/discovery-cli/pkg/discovery"
)

// Theme is the dashboard color palette. Colors are ANSI 256-color codes.
type Theme struct {
	NormalText lipgloss.Color
	FaintText  lipgloss.Color

	SelectedBackground lipgloss.Color
	SelectedForeground lipgloss.Color

	HeaderForeground lipgloss.Color
	BorderColor      lipgloss.Color
	FocusBorder      lipgloss.Color
	HelpText         lipgloss.Color

	// Enrichment status badges.
	StatusPending    lipgloss.Color
	StatusProcessing lipgloss.Color
	StatusCompleted  lipgloss.Color
	StatusFailed     lipgloss.Color

	WebsiteLink lipgloss.Color
	CareersLink lipgloss.Color

	ErrorForeground  lipgloss.Color
	ErrorBackground  lipgloss.Color
	NoticeForeground lipgloss.Color

	Accent       lipgloss.Color // Revenue and stage highlights.
	PriorityHigh lipgloss.Color
}

// DefaultTheme is a dark palette.
var DefaultTheme = Theme{
	NormalText: lipgloss.Color("252"),
	FaintText:  lipgloss.Color("243"),

	SelectedBackground: lipgloss.Color("237"),
	SelectedForeground: lipgloss.Color("231"),

	HeaderForeground: lipgloss.Color("75"),
	BorderColor:      lipgloss.Color("240"),
	FocusBorder:      lipgloss.Color("75"),
	HelpText:         lipgloss.Color("241"),

	StatusPending:    lipgloss.Color("245"),
	StatusProcessing: lipgloss.Color("214"),
	StatusCompleted:  lipgloss.Color("78"),
	StatusFailed:     lipgloss.Color("203"),

	WebsiteLink: lipgloss.Color("75"),
	CareersLink: lipgloss.Color("78"),

	ErrorForeground:  lipgloss.Color("231"),
	ErrorBackground:  lipgloss.Color("124"),
	NoticeForeground: lipgloss.Color("150"),

	Accent:       lipgloss.Color("78"),
	PriorityHigh: lipgloss.Color("203"),
}

// StatusColor returns the badge color of an enrichment status.
func (t Theme) StatusColor(s discovery.EnrichmentStatus) lipgloss.Color {
	switch s {
	case discovery.StatusProcessing:
		return t.StatusProcessing
	case discovery.StatusCompleted:
		return t.StatusCompleted
	case discovery.StatusFailed:
		return t.StatusFailed
	default:
		return t.StatusPending
	}
}
