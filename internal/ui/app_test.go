package ui

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/studyhall-app/studyhall/internal/api"
	"github.com/studyhall-app/studyhall/internal/chat"
	"github.com/studyhall-app/studyhall/internal/config"
	"github.com/studyhall-app/studyhall/internal/models"
)

func testApp() App {
	cfg := &config.Config{Location: "/courses/42"}
	a := NewApp(cfg, api.NewClient("http://localhost:0", ""))
	a.identity = models.Identity{ID: "u-1", DisplayName: "Ana"}
	a.store = chat.NewStore("u-1")
	return a
}

func TestOpeningOverlayClearsDisplayedBadgeOnly(t *testing.T) {
	a := testApp()
	a.notifier.Bump()
	a.notifier.Bump()
	a.notifier.Bump()
	require.Equal(t, 3, a.notifier.Unread())

	model, _ := a.openOverlay(chat.Browsing{})
	a = model.(App)

	require.True(t, a.overlay)
	require.Equal(t, chat.Browsing{}, a.mode)
	require.Equal(t, 0, a.notifier.Unread())
}

func TestFrameForOtherConversationBumpsBadgeAndIsRetained(t *testing.T) {
	a := testApp()
	d := models.Contact{ID: "u-3", DisplayName: "Dora"}
	a.overlay = true
	a.mode = chat.PeerChat{Counterpart: d}
	a.convo = newConvoView(d)

	frame := models.Frame{
		SenderID:    "u-2",
		RecipientID: "u-1",
		SenderName:  "Cleo",
		Content:     "hi from C",
		Kind:        models.KindText,
		Timestamp:   time.Now(),
	}
	model, _ := a.handleFrame(frameMsg{frame: frame, ok: true})
	a = model.(App)

	require.Equal(t, 1, a.notifier.Unread())
	require.Len(t, a.store.Timeline("u-2"), 1)
	require.Empty(t, a.store.Timeline("u-3"))
	require.Contains(t, a.toast, "Cleo")
}

func TestFrameForActiveConversationRendersWithoutBadge(t *testing.T) {
	a := testApp()
	c := models.Contact{ID: "u-2", DisplayName: "Cleo"}
	a.overlay = true
	a.mode = chat.PeerChat{Counterpart: c}
	a.convo = newConvoView(c)

	frame := models.Frame{
		SenderID:    "u-2",
		RecipientID: "u-1",
		SenderName:  "Cleo",
		Content:     "right here",
		Kind:        models.KindText,
		Timestamp:   time.Now(),
	}
	model, _ := a.handleFrame(frameMsg{frame: frame, ok: true})
	a = model.(App)

	require.Equal(t, 0, a.notifier.Unread())
	require.Len(t, a.store.Timeline("u-2"), 1)
	require.Empty(t, a.toast)
}

func TestClosedPushChannelIsSilent(t *testing.T) {
	a := testApp()
	model, cmd := a.handleFrame(frameMsg{ok: false})
	a = model.(App)

	// No re-arm, no badge movement: the poller carries on alone.
	require.Nil(t, cmd)
	require.Equal(t, 0, a.notifier.Unread())
}

func TestOpenConversationResetsCursorBeforeFetch(t *testing.T) {
	a := testApp()
	a.overlay = true
	a.mode = chat.Browsing{}

	c := models.Contact{ID: "u-2", DisplayName: "Cleo"}
	model, cmd := a.openConversation(c)
	a = model.(App)

	require.Equal(t, chat.PeerChat{Counterpart: c}, a.mode)
	require.NotNil(t, cmd)
	cur := a.store.Cursor("u-2")
	require.Equal(t, 0, cur.Page)
	require.True(t, cur.Loading)
}
