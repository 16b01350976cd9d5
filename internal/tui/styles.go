package tui

import "github.com/charmbracelet/lipgloss"

var (
	Teal     = lipgloss.Color("#0d7377")
	OffWhite = lipgloss.Color("#f8f7f4")
	Amber    = lipgloss.Color("#d4a017")

	TitleStyle = lipgloss.NewStyle().
			Background(Teal).
			Foreground(OffWhite).
			Bold(true).
			Padding(0, 1)

	ChatStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Teal).
			Padding(0, 1)

	InputStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Teal).
			Padding(0, 1)

	UserStyle = lipgloss.NewStyle().
			Foreground(OffWhite).
			Bold(true)

	AssistantStyle = lipgloss.NewStyle().
			Foreground(Teal)

	LabelStyle = lipgloss.NewStyle().
			Foreground(Amber).
			Italic(true)
)
