package chat

import "github.com/studyhall-app/studyhall/internal/models"

// Mode is the mutually exclusive UI/data context governing which backend
// contract user input is routed to. The sealed interface makes "exactly one
// mode active" a type-level invariant instead of a convention held up by
// scattered boolean flags.
type Mode interface {
	mode()
}

// Browsing is the contact list.
type Browsing struct{}

// PeerChat is an open conversation with one counterpart.
type PeerChat struct {
	Counterpart models.Contact
}

// Assistant is the course-assistant conversation.
type Assistant struct{}

func (Browsing) mode()  {}
func (PeerChat) mode()  {}
func (Assistant) mode() {}

// SelectContact opens a peer conversation. Allowed from Browsing, and from
// Assistant (which implicitly passes through Browsing). It is not reachable
// from an already-open conversation; PeerChat and Assistant never transition
// into each other directly.
func SelectContact(m Mode, c models.Contact) (Mode, bool) {
	switch m.(type) {
	case Browsing, Assistant:
		return PeerChat{Counterpart: c}, true
	default:
		return m, false
	}
}

// ToggleAssistant switches between Browsing and Assistant. From PeerChat it
// is a no-op; the user backs out to Browsing first.
func ToggleAssistant(m Mode) (Mode, bool) {
	switch m.(type) {
	case Browsing:
		return Assistant{}, true
	case Assistant:
		return Browsing{}, true
	default:
		return m, false
	}
}

// Back returns to Browsing from either conversation mode.
func Back(m Mode) Mode {
	return Browsing{}
}
