package ui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#58a6ff"))
	statusStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8b949e"))
	itemStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#c9d1d9"))
	hiddenStyle  = lipgloss.NewStyle().Strikethrough(true).Foreground(lipgloss.Color("#484f58"))
	channelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#7ee787"))
	badgeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffa657"))
	cursorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#f85149"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#484f58"))
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#8b949e"))
	spinnerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#d2a8ff"))
)
