package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/studyhall-app/studyhall/internal/chat"
)

type assistantAction int

const (
	assistantNone assistantAction = iota
	assistantBack
	assistantAsk
)

// assistantView is the course-assistant conversation. Same surface as a peer
// chat, different backend contract: questions go to the assistant endpoint
// and failures come back as synthetic transcript entries.
type assistantView struct {
	viewport viewport.Model
	textarea textarea.Model
	spinner  spinner.Model

	windowWidth  int
	windowHeight int

	// set by update when the action is assistantAsk
	question string
}

func newAssistantView() assistantView {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = statusStyle

	vp := viewport.New(80, 20)

	ta := textarea.New()
	ta.Placeholder = "Ask about this course..."
	ta.CharLimit = 500
	ta.SetHeight(3)
	ta.ShowLineNumbers = false
	ta.Focus()

	return assistantView{
		viewport:     vp,
		textarea:     ta,
		spinner:      s,
		windowWidth:  80,
		windowHeight: 30,
	}
}

func (v assistantView) setSize(width, height int) assistantView {
	v.windowWidth = width
	v.windowHeight = height

	headerHeight := 4
	textareaHeight := 5
	helpHeight := 2

	v.viewport.Width = width - 4
	v.viewport.Height = height - headerHeight - textareaHeight - helpHeight
	v.textarea.SetWidth(width - 4)
	return v
}

// setTranscript re-renders the viewport from the assistant session.
func (v assistantView) setTranscript(s *chat.AssistantSession) assistantView {
	v.viewport.SetContent(renderTranscript(s, v.viewport.Width))
	v.viewport.GotoBottom()
	return v
}

func (v assistantView) update(msg tea.Msg, pending bool) (assistantView, tea.Cmd, assistantAction) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if pending {
			var cmd tea.Cmd
			v.spinner, cmd = v.spinner.Update(msg)
			return v, cmd, assistantNone
		}
		return v, nil, assistantNone

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return v, nil, assistantBack
		case "ctrl+s":
			if pending {
				// One request in flight at a time.
				return v, nil, assistantNone
			}
			text := strings.TrimSpace(v.textarea.Value())
			if text == "" {
				return v, nil, assistantNone
			}
			v.question = text
			v.textarea.Reset()
			return v, nil, assistantAsk
		case "up", "down", "pgup", "pgdown":
			var cmd tea.Cmd
			v.viewport, cmd = v.viewport.Update(msg)
			return v, cmd, assistantNone
		}

		var cmd tea.Cmd
		v.textarea, cmd = v.textarea.Update(msg)
		return v, cmd, assistantNone
	}

	return v, nil, assistantNone
}

func (v assistantView) view(s *chat.AssistantSession) string {
	title := "🤖 Course Assistant"
	if s.CourseID != "" {
		title += fmt.Sprintf(" — course %s", s.CourseID)
	}
	out := titleStyle.Render(title) + "\n"

	out += v.viewport.View() + "\n"
	if s.Pending {
		out += fmt.Sprintf("  %s Thinking...\n", v.spinner.View())
	}

	out += "\n" + v.textarea.View() + "\n"
	out += helpStyle.Render("ctrl+s: ask • ↑↓: scroll • esc: back")
	return out
}

func renderTranscript(s *chat.AssistantSession, wrapWidth int) string {
	if wrapWidth <= 0 {
		wrapWidth = 80
	}

	if len(s.Transcript) == 0 {
		if s.CourseID == "" {
			return normalStyle.Render("  No course context detected. Questions are answered locally with a hint.")
		}
		return normalStyle.Render("  Ask anything about this course.")
	}

	var content strings.Builder
	for i, e := range s.Transcript {
		if i > 0 {
			content.WriteString("\n")
		}
		wrapped := wordwrap.String(e.Text, wrapWidth-10)
		if e.Role == chat.RoleUser {
			right := lipgloss.NewStyle().Align(lipgloss.Right).Width(wrapWidth)
			content.WriteString(right.Render(messageHeaderStyle.Render("You")) + "\n")
			content.WriteString(right.Render(messageFromMeStyle.Render(wrapped)) + "\n")
		} else {
			content.WriteString(messageHeaderStyle.Render("Assistant") + "\n")
			content.WriteString(assistantStyle.Render(wrapped) + "\n")
		}
	}
	return content.String()
}
