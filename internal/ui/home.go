package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// The home screen stands in for the surrounding application (dashboards and
// friends). It only reads the aggregate unread count and opens the messaging
// overlay; it never touches timelines or cursors.

type homeAction int

const (
	homeNone homeAction = iota
	homeOpenMessages
	homeOpenAssistant
)

type homeItem struct {
	title string
	desc  string
}

func (i homeItem) FilterValue() string { return i.title }
func (i homeItem) Title() string       { return i.title }
func (i homeItem) Description() string { return i.desc }

type homeView struct {
	list   list.Model
	unread int
}

func newHomeView() homeView {
	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.
		Foreground(lipgloss.Color("5")).
		Bold(true)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.
		Foreground(lipgloss.Color("8"))

	l := list.New(nil, delegate, 80, 14)
	l.Title = "StudyHall"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)

	h := homeView{list: l}
	h.setUnread(0)
	return h
}

// setUnread refreshes the badge on the Messages entry.
func (h *homeView) setUnread(count int) {
	h.unread = count
	desc := "No unread messages"
	if count == 1 {
		desc = "1 unread message"
	} else if count > 1 {
		desc = fmt.Sprintf("%d unread messages", count)
	}
	h.list.SetItems([]list.Item{
		homeItem{title: "💬 Messages", desc: desc},
		homeItem{title: "🤖 Course Assistant", desc: "Ask about the course you're viewing"},
	})
}

func (h homeView) setSize(width, height int) homeView {
	h.list.SetWidth(width)
	h.list.SetHeight(height - 4)
	return h
}

func (h homeView) update(msg tea.Msg) (homeView, tea.Cmd, homeAction) {
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "enter" {
		switch h.list.Index() {
		case 0:
			return h, nil, homeOpenMessages
		case 1:
			return h, nil, homeOpenAssistant
		}
	}

	var cmd tea.Cmd
	h.list, cmd = h.list.Update(msg)
	return h, cmd, homeNone
}

func (h homeView) view() string {
	s := h.list.View() + "\n"
	if h.unread > 0 {
		s += badgeStyle.Render(fmt.Sprintf("● %d unread", h.unread)) + "\n"
	}
	s += helpStyle.Render("↑↓/jk: navigate • enter: select • q: quit")
	return s
}
