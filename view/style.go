package view

import (
	"github.com/charmbracelet/lipgloss"
)

var paneStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(lipgloss.Color("62"))

var titleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("205"))

var statusStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("226")).
	Bold(true)

var faultStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("196")).
	Bold(true)
