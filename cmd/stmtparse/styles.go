package main

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#4ECDC4"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#95E1D3"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFE66D"))

	goodStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4ECDC4")).
			Bold(true)

	badStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B")).
			Bold(true)
)
