package tui

import "github.com/charmbracelet/lipgloss"

// messageTypeStyles colors each message type consistently across the
// activity log. The set is open — unknown types fall back to the default.
var messageTypeStyles = map[string]lipgloss.Style{
	"user":   lipgloss.NewStyle().Foreground(lipgloss.Color("201")).Bold(true),
	"agent":  lipgloss.NewStyle().Foreground(lipgloss.Color("51")).Bold(true),
	"system": lipgloss.NewStyle().Foreground(lipgloss.Color("226")).Bold(true),
	"tool":   lipgloss.NewStyle().Foreground(lipgloss.Color("87")),
	"error":  lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
}

var (
	defaultMessageStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("42"))

	sepStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("237"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("244"))

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	footerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
)

func messageStyle(messageType string) lipgloss.Style {
	if s, ok := messageTypeStyles[messageType]; ok {
		return s
	}
	return defaultMessageStyle
}
