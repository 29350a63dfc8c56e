package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/studyhall-app/studyhall/internal/models"
)

type contactsAction int

const (
	contactsNone contactsAction = iota
	contactsSelected
	contactsAssistant
	contactsRefresh
	contactsBack
)

var categoryLabels = map[models.ContactCategory]string{
	models.CategoryFriends:        "Friend",
	models.CategoryClassmates:     "Classmate",
	models.CategoryAdministration: "Administration",
	models.CategoryOthers:         "Other",
}

type contactItem struct {
	contact models.Contact
}

func (i contactItem) FilterValue() string { return i.contact.DisplayName }
func (i contactItem) Title() string       { return i.contact.DisplayName }
func (i contactItem) Description() string {
	label := categoryLabels[i.contact.Category]
	if label == "" {
		label = string(i.contact.Category)
	}
	if i.contact.Role != "" {
		return fmt.Sprintf("%s • %s", label, i.contact.Role)
	}
	return label
}

type contactsView struct {
	list    list.Model
	spinner spinner.Model
	loading bool
	err     error

	// set by update when the action is contactsSelected
	picked models.Contact
}

func newContactsView() contactsView {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = statusStyle

	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.
		Foreground(lipgloss.Color("5")).
		Bold(true)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.
		Foreground(lipgloss.Color("8"))

	l := list.New(nil, delegate, 80, 20)
	l.Title = "Contacts"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.SetShowHelp(false)

	return contactsView{list: l, spinner: s, loading: true}
}

func (c contactsView) setSize(width, height int) contactsView {
	c.list.SetWidth(width)
	c.list.SetHeight(height - 4)
	return c
}

// setBundle replaces the list wholesale; contacts are never patched in
// place, every browsing entry refetches the full bundle.
func (c contactsView) setBundle(bundle models.ContactBundle) contactsView {
	all := bundle.All()
	items := make([]list.Item, len(all))
	for i, contact := range all {
		items[i] = contactItem{contact: contact}
	}
	c.list.SetItems(items)
	c.list.Title = fmt.Sprintf("Contacts - %d total", len(all))
	c.loading = false
	c.err = nil
	return c
}

func (c contactsView) update(msg tea.Msg) (contactsView, tea.Cmd, contactsAction) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if c.loading {
			var cmd tea.Cmd
			c.spinner, cmd = c.spinner.Update(msg)
			return c, cmd, contactsNone
		}
		return c, nil, contactsNone

	case tea.KeyMsg:
		// While the list filter is open, keys belong to it.
		if c.list.FilterState() == list.Filtering {
			break
		}

		switch msg.String() {
		case "esc", "q":
			return c, nil, contactsBack
		case "a":
			return c, nil, contactsAssistant
		case "r":
			c.loading = true
			return c, c.spinner.Tick, contactsRefresh
		case "enter":
			if item, ok := c.list.SelectedItem().(contactItem); ok {
				c.picked = item.contact
				return c, nil, contactsSelected
			}
			return c, nil, contactsNone
		}
	}

	var cmd tea.Cmd
	c.list, cmd = c.list.Update(msg)
	return c, cmd, contactsNone
}

func (c contactsView) view() string {
	if c.loading {
		return fmt.Sprintf("\n  %s Loading contacts...\n", c.spinner.View())
	}

	if c.err != nil {
		s := titleStyle.Render("Contacts") + "\n\n"
		s += errorStyle.Render(fmt.Sprintf("Error: %v", c.err)) + "\n\n"
		s += helpStyle.Render("r: retry • esc: back • q: quit")
		return s
	}

	s := c.list.View() + "\n"
	s += helpStyle.Render("↑↓/jk: navigate • enter: open chat • a: assistant • /: search • r: refresh • esc: back")
	return s
}
