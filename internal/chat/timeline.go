package chat

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/studyhall-app/studyhall/internal/models"
)

// PageSize is the fixed history page size the server serves.
const PageSize = 20

// tupleKey identifies a message for de-duplication. Overlapping pagination
// and push delivery may hand us the same message twice; duplicates are
// suppressed at merge time, never at render time.
type tupleKey struct {
	senderID    string
	recipientID string
	timestamp   int64
	content     string
}

func keyOf(m models.Message) tupleKey {
	return tupleKey{
		senderID:    m.SenderID,
		recipientID: m.RecipientID,
		timestamp:   m.Timestamp.UnixNano(),
		content:     m.Content,
	}
}

// conversation is the keyed bucket for one counterpart: its timeline, its
// pagination cursor and the set of message tuples already merged.
type conversation struct {
	messages []models.Message
	cursor   Cursor
	seen     map[tupleKey]struct{}
}

func newConversation() *conversation {
	return &conversation{
		cursor: Cursor{HasMore: true},
		seen:   make(map[tupleKey]struct{}),
	}
}

// insert places m into the timeline keeping ascending timestamp order.
// Returns false if the message was already present.
func (c *conversation) insert(m models.Message) bool {
	k := keyOf(m)
	if _, dup := c.seen[k]; dup {
		return false
	}
	c.seen[k] = struct{}{}

	i := sort.Search(len(c.messages), func(i int) bool {
		return c.messages[i].Timestamp.After(m.Timestamp)
	})
	c.messages = append(c.messages, models.Message{})
	copy(c.messages[i+1:], c.messages[i:])
	c.messages[i] = m
	return true
}

// Store reconciles push frames, optimistic local sends and paginated history
// into one ordered timeline per conversation. Conversations are keyed by the
// counterpart's id (the other half of the pair is always the current user),
// so a frame for a conversation that is not open is retained in its own
// bucket rather than discarded.
type Store struct {
	selfID string
	convs  map[string]*conversation
}

func NewStore(selfID string) *Store {
	return &Store{
		selfID: selfID,
		convs:  make(map[string]*conversation),
	}
}

func (s *Store) conv(counterpartID string) *conversation {
	c, ok := s.convs[counterpartID]
	if !ok {
		c = newConversation()
		s.convs[counterpartID] = c
	}
	return c
}

// Inbound merges a push-delivered message into the bucket it belongs to and
// returns the counterpart id so the caller can decide between rendering and
// badge accounting. The bucket is derived from the message participants, not
// from whichever conversation happens to be open.
func (s *Store) Inbound(m models.Message) string {
	cp := m.Counterpart(s.selfID)
	s.conv(cp).insert(m)
	return cp
}

// NewLocalMessage builds the optimistic echo for a send: client-generated
// id and timestamp, no server id until (if ever) the server confirms it.
func NewLocalMessage(selfID, counterpartID, content string, kind models.MessageKind) models.Message {
	return models.Message{
		LocalID:     uuid.NewString(),
		SenderID:    selfID,
		RecipientID: counterpartID,
		Content:     content,
		Kind:        kind,
		Timestamp:   time.Now(),
	}
}

// AppendLocal adds an optimistic local echo to the counterpart's timeline.
func (s *Store) AppendLocal(counterpartID string, m models.Message) {
	s.conv(counterpartID).insert(m)
}

// Timeline returns the visible messages for a counterpart in ascending
// timestamp order.
func (s *Store) Timeline(counterpartID string) []models.Message {
	return s.conv(counterpartID).messages
}

// Cursor returns the pagination cursor for a counterpart.
func (s *Store) Cursor(counterpartID string) Cursor {
	return s.conv(counterpartID).cursor
}

// StartInitialLoad resets the counterpart's bucket for a conversation
// switch: timeline cleared, cursor back to page zero, loading set. The
// caller issues the page-0 fetch right after.
func (s *Store) StartInitialLoad(counterpartID string) {
	c := newConversation()
	c.cursor.Loading = true
	s.convs[counterpartID] = c
}

// StartBackfill advances the cursor for a scroll-triggered backfill and
// returns the page to fetch. It refuses while a fetch is in flight or when
// the server said there is nothing older, so firing the scroll condition
// repeatedly never issues duplicate concurrent fetches.
func (s *Store) StartBackfill(counterpartID string) (int, bool) {
	c := s.conv(counterpartID)
	if !c.cursor.CanLoadMore() {
		return 0, false
	}
	c.cursor.Page++
	c.cursor.Loading = true
	return c.cursor.Page, true
}

// FinishLoad merges a fetched history page. Pages arrive newest-first from
// the server and are merged in chronological order; because pagination is
// strictly backward-filling, prepends land before anything already resident,
// and the tuple set catches any overlap with retained push frames.
func (s *Store) FinishLoad(counterpartID string, page []models.Message, last bool) {
	c := s.conv(counterpartID)
	for i := len(page) - 1; i >= 0; i-- {
		c.insert(page[i])
	}
	c.cursor.Loading = false
	c.cursor.HasMore = !last
}

// FailLoad clears the loading flag after a failed page fetch. HasMore is
// left untouched; the user re-triggering the scroll condition retries.
func (s *Store) FailLoad(counterpartID string) {
	s.conv(counterpartID).cursor.Loading = false
}
