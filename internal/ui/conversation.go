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

	"github.com/studyhall-app/studyhall/internal/models"
)

type convoAction int

const (
	convoNone convoAction = iota
	convoBack
	convoSend
	convoBackfill
)

// convoView renders the open peer conversation: history above, composer
// below. Scrolling to the top of the viewport asks the app for a backfill
// page; the app's cursor guard decides whether one is actually issued.
type convoView struct {
	counterpart models.Contact
	viewport    viewport.Model
	textarea    textarea.Model
	spinner     spinner.Model
	loading     bool
	composing   bool

	windowWidth  int
	windowHeight int

	// set by update when the action is convoSend
	draft string
}

func newConvoView(counterpart models.Contact) convoView {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = statusStyle

	vp := viewport.New(80, 20)

	ta := textarea.New()
	ta.Placeholder = "Type your message..."
	ta.CharLimit = 1000
	ta.SetHeight(3)
	ta.ShowLineNumbers = false

	return convoView{
		counterpart:  counterpart,
		viewport:     vp,
		textarea:     ta,
		spinner:      s,
		loading:      true,
		windowWidth:  80,
		windowHeight: 30,
	}
}

func (v convoView) setSize(width, height int) convoView {
	v.windowWidth = width
	v.windowHeight = height

	headerHeight := 4
	textareaHeight := 5
	helpHeight := 2
	availableHeight := height - headerHeight - helpHeight

	v.viewport.Width = width - 4
	if v.composing {
		v.viewport.Height = availableHeight - textareaHeight
	} else {
		v.viewport.Height = availableHeight
	}
	v.textarea.SetWidth(width - 4)
	return v
}

// setTimeline re-renders the viewport from the store's timeline. Called
// after every merge for the open conversation.
func (v convoView) setTimeline(msgs []models.Message, selfID string, gotoBottom bool) convoView {
	v.viewport.SetContent(renderTimeline(msgs, selfID, v.counterpart.DisplayName, v.viewport.Width))
	if gotoBottom {
		v.viewport.GotoBottom()
	}
	return v
}

func (v convoView) update(msg tea.Msg) (convoView, tea.Cmd, convoAction) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if v.loading {
			var cmd tea.Cmd
			v.spinner, cmd = v.spinner.Update(msg)
			return v, cmd, convoNone
		}
		return v, nil, convoNone

	case tea.KeyMsg:
		if msg.String() == "esc" {
			if v.composing {
				v.composing = false
				v.textarea.Reset()
				v.textarea.Blur()
				return v.setSize(v.windowWidth, v.windowHeight), nil, convoNone
			}
			return v, nil, convoBack
		}

		if v.composing {
			if msg.String() == "ctrl+s" {
				text := strings.TrimSpace(v.textarea.Value())
				if text == "" {
					return v, nil, convoNone
				}
				v.draft = text
				v.textarea.Reset()
				v.composing = false
				v.textarea.Blur()
				return v.setSize(v.windowWidth, v.windowHeight), nil, convoSend
			}
			var cmd tea.Cmd
			v.textarea, cmd = v.textarea.Update(msg)
			return v, cmd, convoNone
		}

		switch msg.String() {
		case "n", "c":
			v.composing = true
			v.textarea.Focus()
			return v.setSize(v.windowWidth, v.windowHeight), textarea.Blink, convoNone

		default:
			var cmd tea.Cmd
			v.viewport, cmd = v.viewport.Update(msg)
			switch msg.String() {
			case "up", "k", "pgup":
				if v.viewport.AtTop() {
					return v, cmd, convoBackfill
				}
			}
			return v, cmd, convoNone
		}
	}

	return v, nil, convoNone
}

func (v convoView) view() string {
	s := titleStyle.Render(fmt.Sprintf("💬 %s", v.counterpart.DisplayName)) + "\n"

	if v.loading {
		s += fmt.Sprintf("  %s Loading messages...\n", v.spinner.View())
	}
	s += v.viewport.View() + "\n"

	if v.composing {
		s += "\n" + inputStyle.Render("New Message:") + "\n"
		s += v.textarea.View() + "\n"
		s += helpStyle.Render("ctrl+s: send • esc: cancel")
	} else {
		scrollPercent := int(v.viewport.ScrollPercent() * 100)
		s += "\n" + helpStyle.Render(fmt.Sprintf(
			"↑↓/jk: scroll (top loads older) • n: new message • esc: back • %d%%", scrollPercent))
	}
	return s
}

// renderTimeline formats a chronological timeline the way the platform's
// web client does: own messages right-aligned, counterpart's left-aligned,
// image messages as an attachment line, pending echoes marked until the
// server would have seen them.
func renderTimeline(msgs []models.Message, selfID, counterpartName string, wrapWidth int) string {
	if wrapWidth <= 0 {
		wrapWidth = 80
	}

	var content strings.Builder
	for i, m := range msgs {
		if i > 0 {
			content.WriteString("\n")
		}

		timestamp := m.Timestamp.Format("3:04 PM")
		mine := m.SenderID == selfID

		sender := counterpartName
		if mine {
			sender = "You"
		}
		header := fmt.Sprintf("%s • %s", sender, timestamp)
		if mine && m.Pending() {
			header += " • sending"
		}

		body := m.Content
		if m.Kind == models.KindImage {
			body = fmt.Sprintf("🖼  [Image: %s]", m.Content)
		}
		wrapped := wordwrap.String(body, wrapWidth-10)

		if mine {
			right := lipgloss.NewStyle().Align(lipgloss.Right).Width(wrapWidth)
			content.WriteString(right.Render(messageHeaderStyle.Render(header)) + "\n")
			content.WriteString(right.Render(messageFromMeStyle.Render(wrapped)) + "\n")
		} else {
			content.WriteString(messageHeaderStyle.Render(header) + "\n")
			content.WriteString(messageFromOtherStyle.Render(wrapped) + "\n")
		}
	}
	return content.String()
}
