// Package tui is the interactive front end: ask a question, pick a tone,
// read the rendered answer, rate it, export the transcript.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"pdfrag/internal/session"
)

// AssistantPort is the TUI-facing subset of the assistant service.
type AssistantPort interface {
	Ask(ctx context.Context, question, tone string, filter map[string]any) (string, int, error)
	Tones() []string
	Session() *session.Log
}

// ratings are the feedback labels offered after each answer, selected by
// number key.
var ratings = []string{"Highly Resonant", "Useful", "Neutral", "Not Resonant"}

const exportFile = "spiritual_session.txt"

type answerMsg struct {
	answer string
	entry  int
	err    error
}

// Model is the Bubble Tea model for the assistant.
type Model struct {
	assistant AssistantPort
	input     textinput.Model
	viewport  viewport.Model
	spin      spinner.Model
	tones     []string
	toneIdx   int
	status    string
	waiting   bool
	lastEntry int
	width     int
	ready     bool
}

// New creates the TUI model.
func New(assistant AssistantPort) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask your question and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	vp := viewport.New(0, 0)
	return Model{
		assistant: assistant,
		input:     ti,
		viewport:  vp,
		spin:      sp,
		tones:     assistant.Tones(),
		status:    "Ready. Tab cycles tone, Enter asks, Ctrl+E exports.",
		lastEntry: -1,
	}
}

// Init starts the text input cursor blink.
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key, window, and answer events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		m.width = msg.Width
		_, rh := answerBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 3 + qh + 1 // header + tone line + status, plus spacer
		vh := msg.Height - reserved
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, vh-rh)
		return m, nil

	case answerMsg:
		m.waiting = false
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
			return m, nil
		}
		m.lastEntry = msg.entry
		m.status = "Rate with 1-4 while the input is empty, or ask again."
		m.viewport.SetContent(m.renderAnswer(msg.answer))
		m.viewport.GotoTop()
		return m, nil

	case spinner.TickMsg:
		if m.waiting {
			var cmd tea.Cmd
			m.spin, cmd = m.spin.Update(msg)
			return m, cmd
		}
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		if m.waiting {
			return m, nil
		}
		switch msg.String() {
		case "enter":
			q := strings.TrimSpace(m.input.Value())
			if q == "" {
				return m, nil
			}
			m.waiting = true
			m.status = "Reflecting..."
			tone := m.tones[m.toneIdx]
			return m, tea.Batch(m.spin.Tick, askCmd(m.assistant, q, tone))
		case "tab":
			if len(m.tones) > 0 {
				m.toneIdx = (m.toneIdx + 1) % len(m.tones)
			}
			return m, nil
		case "shift+tab":
			if len(m.tones) > 0 {
				m.toneIdx = (m.toneIdx - 1 + len(m.tones)) % len(m.tones)
			}
			return m, nil
		case "1", "2", "3", "4":
			// Digits rate the previous answer only while the input is
			// empty; mid-question they are ordinary typing.
			if m.lastEntry >= 0 && strings.TrimSpace(m.input.Value()) == "" {
				idx := int(msg.String()[0] - '1')
				m.assistant.Session().Rate(m.lastEntry, ratings[idx])
				m.status = fmt.Sprintf("Rated: %s", ratings[idx])
				return m, nil
			}
		case "ctrl+e":
			if m.assistant.Session().Len() == 0 {
				m.status = "Nothing to export yet."
				return m, nil
			}
			if err := m.assistant.Session().Export(exportFile); err != nil {
				m.status = "Export failed: " + err.Error()
			} else {
				m.status = "Session exported to " + exportFile
			}
			return m, nil
		case "up", "down", "pgup", "pgdown":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the layout.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("Spiritual Assistant")
	tone := toneStyle.Render("Tone: " + m.currentTone() + "  (tab to change)")
	answer := answerBoxStyle.Render(m.viewport.View())
	input := queryBoxStyle.Render(m.input.View())
	status := statusStyle.Render(m.statusLine())
	return header + "\n" + tone + "\n" + answer + "\n" + input + "\n" + status
}

func (m Model) statusLine() string {
	if m.waiting {
		return m.spin.View() + " " + m.status
	}
	return m.status
}

func (m Model) currentTone() string {
	if len(m.tones) == 0 {
		return "default"
	}
	return m.tones[m.toneIdx]
}

// renderAnswer runs the markdown answer through glamour; on any rendering
// problem the raw text is shown instead.
func (m Model) renderAnswer(answer string) string {
	width := m.viewport.Width - 2
	if width < 20 {
		width = 20
	}
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(width))
	if err != nil {
		return answer
	}
	out, err := r.Render(answer)
	if err != nil {
		return answer
	}
	return out
}

func askCmd(assistant AssistantPort, question, tone string) tea.Cmd {
	return func() tea.Msg {
		answer, entry, err := assistant.Ask(context.Background(), question, tone, nil)
		return answerMsg{answer: answer, entry: entry, err: err}
	}
}

var (
	answerBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	toneStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
