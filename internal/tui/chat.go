// Package tui is the local chat console: a viewport of the conversation
// over a single-line input, answered by the orchestrator in-process.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/quorumhub/quorum-gateway/internal/orchestrator"
)

type message struct {
	role    string
	content string
	label   string
}

type answerMsg struct {
	answer string
	label  string
	err    error
}

// Chat is the bubbletea model for the local console
type Chat struct {
	orch      *orchestrator.Orchestrator
	sessionID string

	viewport viewport.Model
	input    textinput.Model
	messages []message
	waiting  bool
	width    int
	height   int
}

// NewChat creates the chat model bound to one console session
func NewChat(orch *orchestrator.Orchestrator) *Chat {
	ti := textinput.New()
	ti.Placeholder = "Ask anything..."
	ti.Focus()

	vp := viewport.New(0, 0)
	vp.SetContent("Quorum-Gateway console. Ctrl+C to quit.\n")

	return &Chat{
		orch:      orch,
		sessionID: "console:local",
		viewport:  vp,
		input:     ti,
	}
}

// Run starts the TUI event loop and blocks until the user quits
func (c *Chat) Run() error {
	_, err := tea.NewProgram(c, tea.WithAltScreen()).Run()
	return err
}

func (c *Chat) Init() tea.Cmd {
	return textinput.Blink
}

func (c *Chat) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return c, tea.Quit
		case tea.KeyEnter:
			question := strings.TrimSpace(c.input.Value())
			if question == "" || c.waiting {
				break
			}
			c.messages = append(c.messages, message{role: "user", content: question})
			c.input.Reset()
			c.waiting = true
			c.refresh()
			return c, c.ask(question)
		}

	case answerMsg:
		c.waiting = false
		if msg.err != nil {
			c.messages = append(c.messages, message{role: "assistant", content: "error: " + msg.err.Error()})
		} else {
			c.messages = append(c.messages, message{role: "assistant", content: msg.answer, label: msg.label})
		}
		c.refresh()

	case tea.WindowSizeMsg:
		c.width = msg.Width
		c.height = msg.Height
		c.viewport.Width = msg.Width - 4
		c.viewport.Height = msg.Height - 6
		c.input.Width = msg.Width - 8
		c.refresh()
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	c.viewport, cmd = c.viewport.Update(msg)
	cmds = append(cmds, cmd)
	c.input, cmd = c.input.Update(msg)
	cmds = append(cmds, cmd)
	return c, tea.Batch(cmds...)
}

func (c *Chat) View() string {
	if c.width == 0 {
		return "Initializing..."
	}
	title := TitleStyle.Width(c.width).Render("Quorum-Gateway")
	body := ChatStyle.Width(c.width - 2).Render(c.viewport.View())
	prompt := c.input.View()
	if c.waiting {
		prompt = LabelStyle.Render("thinking...")
	}
	return lipgloss.JoinVertical(lipgloss.Left, title, body, InputStyle.Width(c.width-2).Render(prompt))
}

func (c *Chat) ask(question string) tea.Cmd {
	return func() tea.Msg {
		res, err := c.orch.Ask(context.Background(), orchestrator.AskRequest{
			Question:  question,
			SessionID: c.sessionID,
		})
		if err != nil {
			return answerMsg{err: err}
		}
		return answerMsg{answer: res.Answer, label: res.Provider}
	}
}

func (c *Chat) refresh() {
	var sb strings.Builder
	for _, m := range c.messages {
		switch m.role {
		case "user":
			sb.WriteString(UserStyle.Render("you: " + m.content))
		default:
			line := "gw: " + m.content
			if m.label != "" {
				line += " " + LabelStyle.Render(fmt.Sprintf("[%s]", m.label))
			}
			sb.WriteString(AssistantStyle.Render(line))
		}
		sb.WriteString("\n")
	}
	c.viewport.SetContent(sb.String())
	c.viewport.GotoBottom()
}
