package chat

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/studyhall-app/studyhall/internal/models"
)

const (
	self  = "u-1"
	peerC = "u-2"
	peerD = "u-3"
)

func msgAt(sender, recipient, content string, ts time.Time) models.Message {
	return models.Message{
		ID:          fmt.Sprintf("m-%s-%d", content, ts.UnixNano()),
		SenderID:    sender,
		RecipientID: recipient,
		Content:     content,
		Kind:        models.KindText,
		Timestamp:   ts,
	}
}

func requireAscending(t *testing.T, msgs []models.Message) {
	t.Helper()
	for i := 1; i < len(msgs); i++ {
		require.Falsef(t, msgs[i].Timestamp.Before(msgs[i-1].Timestamp),
			"timeline out of order at %d: %v before %v", i, msgs[i].Timestamp, msgs[i-1].Timestamp)
	}
}

func TestTimelineOrderedAcrossSources(t *testing.T) {
	s := NewStore(self)
	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	// Push frames arrive out of order relative to history and local echoes.
	s.Inbound(msgAt(peerC, self, "push-late", base.Add(50*time.Minute)))
	s.AppendLocal(peerC, msgAt(self, peerC, "local", base.Add(40*time.Minute)))
	s.StartInitialLoad(peerC)
	s.FinishLoad(peerC, []models.Message{
		// newest-first, as the server serves pages
		msgAt(peerC, self, "hist-2", base.Add(20*time.Minute)),
		msgAt(self, peerC, "hist-1", base.Add(10*time.Minute)),
	}, false)
	s.Inbound(msgAt(peerC, self, "push-mid", base.Add(30*time.Minute)))
	s.AppendLocal(peerC, msgAt(self, peerC, "local-2", base.Add(60*time.Minute)))

	tl := s.Timeline(peerC)
	require.Len(t, tl, 4) // StartInitialLoad discarded the two pre-switch entries
	requireAscending(t, tl)
	require.Equal(t, "hist-1", tl[0].Content)
	require.Equal(t, "local-2", tl[3].Content)
}

func TestTimelineSuppressesDuplicateTuples(t *testing.T) {
	s := NewStore(self)
	ts := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	m := msgAt(peerC, self, "hello", ts)
	s.Inbound(m)
	s.Inbound(m)
	s.FinishLoad(peerC, []models.Message{m}, true)

	require.Len(t, s.Timeline(peerC), 1)
}

func TestInboundRoutesByParticipantsNotActiveConversation(t *testing.T) {
	s := NewStore(self)
	ts := time.Now()

	// Frame for counterpart C while the user is looking at D: retained in
	// C's bucket, absent from D's.
	cp := s.Inbound(msgAt(peerC, self, "psst", ts))
	require.Equal(t, peerC, cp)
	require.Len(t, s.Timeline(peerC), 1)
	require.Empty(t, s.Timeline(peerD))

	// Own message echoed by the server routes to the recipient's bucket.
	cp = s.Inbound(msgAt(self, peerD, "mine", ts))
	require.Equal(t, peerD, cp)
	require.Len(t, s.Timeline(peerD), 1)
}

func TestConversationSwitchResetsCursorBeforeFetch(t *testing.T) {
	s := NewStore(self)
	s.StartInitialLoad(peerC)
	s.FinishLoad(peerC, nil, false)
	page, ok := s.StartBackfill(peerC)
	require.True(t, ok)
	require.Equal(t, 1, page)

	// Switching to D starts over at page zero with an empty timeline.
	s.StartInitialLoad(peerD)
	c := s.Cursor(peerD)
	require.Equal(t, 0, c.Page)
	require.True(t, c.Loading)
	require.True(t, c.HasMore)
	require.Empty(t, s.Timeline(peerD))

	// And switching back to C resets C as well.
	s.StartInitialLoad(peerC)
	require.Equal(t, 0, s.Cursor(peerC).Page)
}

func TestBackfillGuardIsIdempotent(t *testing.T) {
	s := NewStore(self)
	s.StartInitialLoad(peerC)

	// Initial fetch still in flight: the scroll trigger must be a no-op.
	_, ok := s.StartBackfill(peerC)
	require.False(t, ok)

	s.FinishLoad(peerC, nil, false)
	page, ok := s.StartBackfill(peerC)
	require.True(t, ok)
	require.Equal(t, 1, page)

	// Same scroll condition firing again before the fetch resolves.
	_, ok = s.StartBackfill(peerC)
	require.False(t, ok)

	// Exhausted history refuses as well.
	s.FinishLoad(peerC, nil, true)
	_, ok = s.StartBackfill(peerC)
	require.False(t, ok)
}

func TestFailedLoadLeavesHasMoreUntouched(t *testing.T) {
	s := NewStore(self)
	s.StartInitialLoad(peerC)
	s.FailLoad(peerC)

	c := s.Cursor(peerC)
	require.False(t, c.Loading)
	require.True(t, c.HasMore)
	require.True(t, c.CanLoadMore())
}

// Forty-five historical messages, page size 20: page 0 holds messages 26-45,
// page 1 holds 6-25, page 2 holds 1-5 and is the last.
func TestBackfillScenarioFortyFiveMessages(t *testing.T) {
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	history := make([]models.Message, 45)
	for i := range history {
		history[i] = msgAt(peerC, self, fmt.Sprintf("n%02d", i+1), base.Add(time.Duration(i)*time.Minute))
	}
	// Server pages are newest-first.
	pageOf := func(page int) []models.Message {
		hi := 45 - page*PageSize
		lo := hi - PageSize
		if lo < 0 {
			lo = 0
		}
		out := make([]models.Message, 0, hi-lo)
		for i := hi - 1; i >= lo; i-- {
			out = append(out, history[i])
		}
		return out
	}

	s := NewStore(self)
	s.StartInitialLoad(peerC)
	s.FinishLoad(peerC, pageOf(0), false)
	tl := s.Timeline(peerC)
	require.Len(t, tl, 20)
	require.Equal(t, "n26", tl[0].Content)
	require.Equal(t, "n45", tl[19].Content)

	page, ok := s.StartBackfill(peerC)
	require.True(t, ok)
	require.Equal(t, 1, page)
	s.FinishLoad(peerC, pageOf(1), false)
	tl = s.Timeline(peerC)
	require.Len(t, tl, 40)
	require.Equal(t, "n06", tl[0].Content)

	page, ok = s.StartBackfill(peerC)
	require.True(t, ok)
	require.Equal(t, 2, page)
	s.FinishLoad(peerC, pageOf(2), true)
	tl = s.Timeline(peerC)
	require.Len(t, tl, 45)
	require.Equal(t, "n01", tl[0].Content)
	requireAscending(t, tl)

	require.False(t, s.Cursor(peerC).HasMore)
	_, ok = s.StartBackfill(peerC)
	require.False(t, ok)
}

func TestLocalEchoIsPendingUntilConfirmed(t *testing.T) {
	m := NewLocalMessage(self, peerC, "hi there", models.KindText)
	require.True(t, m.Pending())
	require.NotEmpty(t, m.LocalID)
	require.Empty(t, m.ID)
	require.False(t, m.Timestamp.IsZero())
}
