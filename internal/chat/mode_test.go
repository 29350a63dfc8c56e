package chat

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/studyhall-app/studyhall/internal/models"
)

var alice = models.Contact{ID: "u-9", DisplayName: "Alice", Category: models.CategoryClassmates}

func TestSelectContactTransitions(t *testing.T) {
	m, ok := SelectContact(Browsing{}, alice)
	require.True(t, ok)
	require.Equal(t, PeerChat{Counterpart: alice}, m)

	// Selecting a contact from the assistant passes through browsing.
	m, ok = SelectContact(Assistant{}, alice)
	require.True(t, ok)
	require.Equal(t, PeerChat{Counterpart: alice}, m)

	// No direct transition out of an open conversation.
	prev := Mode(PeerChat{Counterpart: alice})
	m, ok = SelectContact(prev, models.Contact{ID: "u-10"})
	require.False(t, ok)
	require.Equal(t, prev, m)
}

func TestToggleAssistantTransitions(t *testing.T) {
	m, ok := ToggleAssistant(Browsing{})
	require.True(t, ok)
	require.Equal(t, Assistant{}, m)

	m, ok = ToggleAssistant(Assistant{})
	require.True(t, ok)
	require.Equal(t, Browsing{}, m)

	// PeerChat and Assistant never transition into each other directly.
	prev := Mode(PeerChat{Counterpart: alice})
	m, ok = ToggleAssistant(prev)
	require.False(t, ok)
	require.Equal(t, prev, m)
}

func TestBackAlwaysReturnsToBrowsing(t *testing.T) {
	require.Equal(t, Browsing{}, Back(PeerChat{Counterpart: alice}))
	require.Equal(t, Browsing{}, Back(Assistant{}))
	require.Equal(t, Browsing{}, Back(Browsing{}))
}
