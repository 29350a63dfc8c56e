package ui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"

	"github.com/studyhall-app/studyhall/internal/api"
	"github.com/studyhall-app/studyhall/internal/chat"
	"github.com/studyhall-app/studyhall/internal/config"
	"github.com/studyhall-app/studyhall/internal/models"
	"github.com/studyhall-app/studyhall/internal/transport"
)

const toastDuration = 4 * time.Second

// Messages produced by the app's asynchronous work. Every network call is a
// tea.Cmd; results come back through Update on the single event loop, so no
// locking is needed anywhere in the chat state.
type (
	identityResolvedMsg struct {
		identity models.Identity
		err      error
	}
	sessionDialedMsg struct {
		session *transport.Session
		err     error
	}
	frameMsg struct {
		frame models.Frame
		ok    bool
	}
	contactsFetchedMsg struct {
		bundle models.ContactBundle
		err    error
	}
	historyFetchedMsg struct {
		counterpartID string
		reset         bool
		page          api.HistoryPage
		err           error
	}
	unreadFetchedMsg struct {
		count int
		err   error
	}
	pollDueMsg          struct{}
	frameSentMsg        struct{ err error }
	assistantRepliedMsg struct {
		answer string
		err    error
	}
	toastExpiredMsg struct{}
)

// App is the root model: it owns the push session, the timeline store, the
// unread notifier and the assistant session, and routes input to exactly one
// of the three overlay modes.
type App struct {
	cfg    *config.Config
	client *api.Client

	identity models.Identity
	session  *transport.Session
	store    *chat.Store
	notifier *chat.Notifier
	helper   *chat.AssistantSession

	// overlay false means the home screen (the surrounding app) is showing;
	// mode is only meaningful while the overlay is open.
	overlay bool
	mode    chat.Mode

	home          homeView
	contacts      contactsView
	convo         convoView
	assistantPane assistantView

	toast        string
	fatalErr     error
	windowWidth  int
	windowHeight int
}

func NewApp(cfg *config.Config, client *api.Client) App {
	return App{
		cfg:           cfg,
		client:        client,
		notifier:      chat.NewNotifier(),
		helper:        chat.NewAssistantSession(cfg.Location),
		mode:          chat.Browsing{},
		home:          newHomeView(),
		contacts:      newContactsView(),
		assistantPane: newAssistantView(),
	}
}

// Teardown releases the push channel. Called when the program exits; the
// pending poll timer dies with the event loop.
func (a App) Teardown() {
	if a.session != nil {
		a.session.Close()
	}
}

func (a App) Init() tea.Cmd {
	return a.resolveIdentityCmd()
}

// ---- commands ----

func (a App) resolveIdentityCmd() tea.Cmd {
	return func() tea.Msg {
		identity, err := a.client.Profile(context.Background())
		return identityResolvedMsg{identity: identity, err: err}
	}
}

func (a App) dialSessionCmd() tea.Cmd {
	return func() tea.Msg {
		session, err := transport.Dial(context.Background(), a.cfg.WSURL, a.identity, a.cfg.Token)
		return sessionDialedMsg{session: session, err: err}
	}
}

// waitForFrameCmd blocks on the session's frame channel and converts one
// inbound frame into a message; it is re-armed after every delivery so
// frames are handled one at a time on the event loop.
func (a App) waitForFrameCmd() tea.Cmd {
	session := a.session
	return func() tea.Msg {
		frame, ok := <-session.Frames()
		return frameMsg{frame: frame, ok: ok}
	}
}

func (a App) fetchContactsCmd() tea.Cmd {
	return func() tea.Msg {
		bundle, err := a.client.Contacts(context.Background(), a.identity.ID)
		return contactsFetchedMsg{bundle: bundle, err: err}
	}
}

func (a App) fetchHistoryCmd(counterpartID string, page int, reset bool) tea.Cmd {
	return func() tea.Msg {
		hp, err := a.client.History(context.Background(), a.identity.ID, counterpartID, page, chat.PageSize)
		return historyFetchedMsg{counterpartID: counterpartID, reset: reset, page: hp, err: err}
	}
}

func (a App) fetchUnreadCmd() tea.Cmd {
	return func() tea.Msg {
		count, err := a.client.UnreadCount(context.Background(), a.identity.ID)
		return unreadFetchedMsg{count: count, err: err}
	}
}

// pollTickCmd arms the next unread poll. It is only ever armed from the
// completion of the previous attempt, so at most one poll is outstanding.
func pollTickCmd(delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(time.Time) tea.Msg {
		return pollDueMsg{}
	})
}

func (a App) sendFrameCmd(frame models.Frame) tea.Cmd {
	session := a.session
	return func() tea.Msg {
		return frameSentMsg{err: session.Send(frame)}
	}
}

func (a App) askAssistantCmd(courseID, question string) tea.Cmd {
	return func() tea.Msg {
		answer, err := a.client.AskAssistant(context.Background(), courseID, question)
		return assistantRepliedMsg{answer: answer, err: err}
	}
}

func toastTickCmd() tea.Cmd {
	return tea.Tick(toastDuration, func(time.Time) tea.Msg {
		return toastExpiredMsg{}
	})
}

// ---- update ----

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.windowWidth = msg.Width
		a.windowHeight = msg.Height
		a.home = a.home.setSize(msg.Width, msg.Height)
		a.contacts = a.contacts.setSize(msg.Width, msg.Height)
		a.convo = a.convo.setSize(msg.Width, msg.Height)
		a.assistantPane = a.assistantPane.setSize(msg.Width, msg.Height)
		return a, nil

	case identityResolvedMsg:
		if msg.err != nil {
			jww.ERROR.Printf("[App] Identity resolution failed: %v", msg.err)
			a.fatalErr = msg.err
			return a, nil
		}
		a.identity = msg.identity
		a.store = chat.NewStore(a.identity.ID)
		jww.INFO.Printf("[App] Logged in as %s (%s)", a.identity.DisplayName, a.identity.ID)
		// One connection attempt per identity lifetime, plus the first
		// unread poll right away.
		return a, tea.Batch(a.dialSessionCmd(), a.fetchUnreadCmd())

	case sessionDialedMsg:
		if msg.err != nil {
			// No retry: the unread poller is the fallback for the rest of
			// the session.
			jww.ERROR.Printf("[App] Push channel unavailable, continuing poll-only: %v", msg.err)
			return a, nil
		}
		a.session = msg.session
		return a, a.waitForFrameCmd()

	case frameMsg:
		return a.handleFrame(msg)

	case contactsFetchedMsg:
		if msg.err != nil {
			jww.ERROR.Printf("[App] Contacts fetch failed: %v", msg.err)
			a.contacts.loading = false
			a.contacts.err = msg.err
			return a, nil
		}
		a.contacts = a.contacts.setBundle(msg.bundle)
		return a, nil

	case historyFetchedMsg:
		return a.handleHistory(msg)

	case unreadFetchedMsg:
		var delay time.Duration
		if msg.err != nil {
			delay = a.notifier.PollFailed()
			jww.WARN.Printf("[App] Unread poll failed (%d consecutive), next in %s: %v",
				a.notifier.Failures(), delay, msg.err)
		} else {
			delay = a.notifier.PollSucceeded(msg.count)
		}
		a.home.setUnread(a.notifier.Unread())
		return a, pollTickCmd(delay)

	case pollDueMsg:
		return a, a.fetchUnreadCmd()

	case frameSentMsg:
		if msg.err != nil {
			// Fire-and-forget: the optimistic echo stays visible.
			jww.ERROR.Printf("[App] Send failed: %v", msg.err)
		}
		return a, nil

	case assistantRepliedMsg:
		if msg.err != nil {
			jww.ERROR.Printf("[App] Assistant request failed: %v", msg.err)
			a.helper.Fail(errors.Is(msg.err, api.ErrEntitlement))
		} else {
			a.helper.Answer(msg.answer)
		}
		a.assistantPane = a.assistantPane.setTranscript(a.helper)
		return a, nil

	case toastExpiredMsg:
		a.toast = ""
		return a, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			a.Teardown()
			return a, tea.Quit
		}
	}

	return a.routeToView(msg)
}

// handleFrame merges one push-delivered message. The frame's own
// participants decide which bucket it lands in; whether the badge moves
// depends on whether that conversation is on screen.
func (a App) handleFrame(msg frameMsg) (tea.Model, tea.Cmd) {
	if !msg.ok {
		jww.WARN.Print("[App] Push channel closed, continuing poll-only")
		return a, nil
	}

	m := msg.frame.Message()
	counterpartID := a.store.Inbound(m)

	cmds := []tea.Cmd{a.waitForFrameCmd()}

	if pc, open := a.mode.(chat.PeerChat); a.overlay && open && pc.Counterpart.ID == counterpartID {
		// Visible conversation: render, no badge.
		a.convo = a.convo.setTimeline(a.store.Timeline(counterpartID), a.identity.ID, true)
	} else {
		a.notifier.Bump()
		a.home.setUnread(a.notifier.Unread())
		name := msg.frame.SenderName
		if name == "" {
			name = counterpartID
		}
		a.toast = fmt.Sprintf("🔔 New message from %s", name)
		cmds = append(cmds, toastTickCmd())
	}
	return a, tea.Batch(cmds...)
}

func (a App) handleHistory(msg historyFetchedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		// Leaves HasMore as it was; the next scroll-to-top retries.
		jww.ERROR.Printf("[App] History fetch for %s failed: %v", msg.counterpartID, msg.err)
		a.store.FailLoad(msg.counterpartID)
	} else {
		a.store.FinishLoad(msg.counterpartID, msg.page.Content, msg.page.Last)
	}

	// A stale page for a conversation no longer on screen only lands in its
	// keyed bucket; nothing to render.
	if pc, open := a.mode.(chat.PeerChat); a.overlay && open && pc.Counterpart.ID == msg.counterpartID {
		a.convo.loading = false
		a.convo = a.convo.setTimeline(a.store.Timeline(msg.counterpartID), a.identity.ID, msg.reset)
	}
	return a, nil
}

// routeToView hands the event to whichever surface is active and applies
// any mode transition it requests.
func (a App) routeToView(msg tea.Msg) (tea.Model, tea.Cmd) {
	if a.fatalErr != nil {
		if key, ok := msg.(tea.KeyMsg); ok && (key.String() == "q" || key.String() == "esc") {
			return a, tea.Quit
		}
		return a, nil
	}

	if !a.overlay {
		if key, ok := msg.(tea.KeyMsg); ok && key.String() == "q" {
			a.Teardown()
			return a, tea.Quit
		}
		var cmd tea.Cmd
		var action homeAction
		a.home, cmd, action = a.home.update(msg)
		switch action {
		case homeOpenMessages:
			return a.openOverlay(chat.Browsing{})
		case homeOpenAssistant:
			mode, _ := chat.ToggleAssistant(chat.Browsing{})
			return a.openOverlay(mode)
		}
		return a, cmd
	}

	switch a.mode.(type) {
	case chat.Browsing:
		return a.updateBrowsing(msg)
	case chat.PeerChat:
		return a.updatePeerChat(msg)
	case chat.Assistant:
		return a.updateAssistant(msg)
	}
	return a, nil
}

// openOverlay enters the messaging overlay. Opening it is an
// attention-acknowledgement: the displayed badge resets, individual read
// flags on the server do not change.
func (a App) openOverlay(mode chat.Mode) (tea.Model, tea.Cmd) {
	a.overlay = true
	a.mode = mode
	a.notifier.ClearBadge()
	a.home.setUnread(0)

	if _, browsing := mode.(chat.Browsing); browsing {
		a.contacts.loading = true
		a.contacts.err = nil
		return a, tea.Batch(a.fetchContactsCmd(), a.contacts.spinner.Tick)
	}
	a.assistantPane = a.assistantPane.setTranscript(a.helper)
	return a, nil
}

func (a App) updateBrowsing(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	var action contactsAction
	a.contacts, cmd, action = a.contacts.update(msg)

	switch action {
	case contactsBack:
		a.overlay = false
		a.mode = chat.Browsing{}
		return a, nil

	case contactsRefresh:
		return a, tea.Batch(a.fetchContactsCmd(), cmd)

	case contactsAssistant:
		mode, ok := chat.ToggleAssistant(a.mode)
		if !ok {
			return a, cmd
		}
		a.mode = mode
		a.assistantPane = a.assistantPane.setTranscript(a.helper)
		return a, nil

	case contactsSelected:
		return a.openConversation(a.contacts.picked)
	}
	return a, cmd
}

// openConversation switches the active conversation: the bucket is reset to
// page zero before the first fetch for the new counterpart goes out.
func (a App) openConversation(contact models.Contact) (tea.Model, tea.Cmd) {
	mode, ok := chat.SelectContact(a.mode, contact)
	if !ok {
		return a, nil
	}
	a.mode = mode
	a.convo = newConvoView(contact).setSize(a.windowWidth, a.windowHeight)
	a.store.StartInitialLoad(contact.ID)
	return a, tea.Batch(a.fetchHistoryCmd(contact.ID, 0, true), a.convo.spinner.Tick)
}

func (a App) updatePeerChat(msg tea.Msg) (tea.Model, tea.Cmd) {
	pc := a.mode.(chat.PeerChat)

	var cmd tea.Cmd
	var action convoAction
	a.convo, cmd, action = a.convo.update(msg)

	switch action {
	case convoBack:
		a.mode = chat.Back(a.mode)
		// Contacts are refreshed wholesale on every browsing entry.
		a.contacts.loading = true
		return a, tea.Batch(a.fetchContactsCmd(), a.contacts.spinner.Tick)

	case convoSend:
		return a.sendMessage(pc.Counterpart, a.convo.draft)

	case convoBackfill:
		page, ok := a.store.StartBackfill(pc.Counterpart.ID)
		if !ok {
			return a, cmd
		}
		a.convo.loading = true
		return a, tea.Batch(a.fetchHistoryCmd(pc.Counterpart.ID, page, false), a.convo.spinner.Tick, cmd)
	}
	return a, cmd
}

// sendMessage appends the optimistic echo and hands the frame to the
// transport. No acknowledgement follows; a failed or impossible send is
// logged and the echo stays.
func (a App) sendMessage(counterpart models.Contact, content string) (tea.Model, tea.Cmd) {
	local := chat.NewLocalMessage(a.identity.ID, counterpart.ID, content, models.KindText)
	a.store.AppendLocal(counterpart.ID, local)
	a.convo = a.convo.setTimeline(a.store.Timeline(counterpart.ID), a.identity.ID, true)

	if a.session == nil {
		jww.ERROR.Print("[App] Send with no push channel; message not delivered")
		return a, nil
	}
	frame := models.Frame{
		SenderID:      a.identity.ID,
		RecipientID:   counterpart.ID,
		SenderName:    a.identity.DisplayName,
		RecipientName: counterpart.DisplayName,
		Content:       content,
		Kind:          models.KindText,
	}
	return a, a.sendFrameCmd(frame)
}

func (a App) updateAssistant(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	var action assistantAction
	a.assistantPane, cmd, action = a.assistantPane.update(msg, a.helper.Pending)

	switch action {
	case assistantBack:
		a.mode = chat.Back(a.mode)
		a.contacts.loading = true
		return a, tea.Batch(a.fetchContactsCmd(), a.contacts.spinner.Tick)

	case assistantAsk:
		courseID, send := a.helper.Ask(a.assistantPane.question)
		a.assistantPane = a.assistantPane.setTranscript(a.helper)
		if !send {
			// Context-free question: answered locally, nothing on the wire.
			return a, cmd
		}
		return a, tea.Batch(a.askAssistantCmd(courseID, a.assistantPane.question), a.assistantPane.spinner.Tick, cmd)
	}
	return a, cmd
}

// ---- view ----

func (a App) View() string {
	if a.fatalErr != nil {
		s := titleStyle.Render("StudyHall") + "\n\n"
		s += errorStyle.Render(fmt.Sprintf("Could not sign in: %v", a.fatalErr)) + "\n\n"
		s += helpStyle.Render("q: quit")
		return s
	}
	if a.identity.ID == "" {
		return "\n  Signing in...\n"
	}

	var s string
	if !a.overlay {
		s = a.home.view()
	} else {
		switch a.mode.(type) {
		case chat.Browsing:
			s = a.contacts.view()
		case chat.PeerChat:
			s = a.convo.view()
		case chat.Assistant:
			s = a.assistantPane.view(a.helper)
		}
	}

	if a.toast != "" {
		s += "\n" + toastStyle.Render(a.toast)
	}
	return s
}
