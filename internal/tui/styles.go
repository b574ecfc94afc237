package tui

import "github.com/charmbracelet/lipgloss"

var (
	styleTitle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	styleHeader    = lipgloss.NewStyle().Bold(true)
	styleCorrect   = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true) // green
	styleIncorrect = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)  // red
	styleSelected  = lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Bold(true)
	styleSubtle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	styleWarning   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	styleError     = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Padding(0, 1)
	stylePanel     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)
