package models

import "time"

// Identity is the logged-in user. It is immutable for the lifetime of a
// session; a different identity means a full teardown and rebuild of the
// push channel.
type Identity struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Role        string `json:"role"`
}

// ContactCategory buckets contacts the way the platform groups them.
type ContactCategory string

const (
	CategoryFriends        ContactCategory = "friends"
	CategoryClassmates     ContactCategory = "classmates"
	CategoryAdministration ContactCategory = "administration"
	CategoryOthers         ContactCategory = "others"
)

type Contact struct {
	ID          string          `json:"id"`
	DisplayName string          `json:"displayName"`
	Role        string          `json:"role"`
	AvatarRef   string          `json:"avatarRef"`
	Category    ContactCategory `json:"category"`
}

// ContactBundle is the categorized contacts response, refreshed wholesale
// whenever the browsing view is entered.
type ContactBundle struct {
	Friends        []Contact `json:"friends"`
	Classmates     []Contact `json:"classmates"`
	Administration []Contact `json:"administration"`
	Others         []Contact `json:"others"`
}

// All flattens the bundle in display order.
func (b ContactBundle) All() []Contact {
	out := make([]Contact, 0, len(b.Friends)+len(b.Classmates)+len(b.Administration)+len(b.Others))
	out = append(out, b.Friends...)
	out = append(out, b.Classmates...)
	out = append(out, b.Administration...)
	out = append(out, b.Others...)
	return out
}

type MessageKind string

const (
	KindText  MessageKind = "TEXT"
	KindImage MessageKind = "IMAGE"
)

// Message is one entry in a conversation timeline. A message is either
// confirmed (came from the server, via push or pagination) or pending-local
// (optimistically created on send, no server id yet). Pending-local messages
// carry a client-generated LocalID instead of a server ID.
type Message struct {
	ID          string      `json:"id,omitempty"`
	LocalID     string      `json:"-"`
	SenderID    string      `json:"senderId"`
	RecipientID string      `json:"recipientId"`
	Content     string      `json:"content"`
	Kind        MessageKind `json:"kind"`
	Timestamp   time.Time   `json:"timestamp"`
	Read        bool        `json:"read"`
}

// Pending reports whether the message is an optimistic local echo that has
// not been confirmed by the server.
func (m Message) Pending() bool {
	return m.ID == "" && m.LocalID != ""
}

// Frame is the wire shape delivered on the push channel, and published on
// send minus the server-assigned fields.
type Frame struct {
	SenderID      string      `json:"senderId"`
	RecipientID   string      `json:"recipientId"`
	SenderName    string      `json:"senderName"`
	RecipientName string      `json:"recipientName"`
	Content       string      `json:"content"`
	Kind          MessageKind `json:"kind"`
	Read          bool        `json:"read"`
	Timestamp     time.Time   `json:"timestamp,omitempty"`
}

// Message converts an inbound frame into a timeline entry. Frames without a
// server timestamp are stamped on receipt.
func (f Frame) Message() Message {
	ts := f.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	return Message{
		SenderID:    f.SenderID,
		RecipientID: f.RecipientID,
		Content:     f.Content,
		Kind:        f.Kind,
		Timestamp:   ts,
		Read:        f.Read,
	}
}

// Counterpart returns the other participant of the message's conversation,
// derived from the participants themselves, never from whichever
// conversation happens to be open.
func (m Message) Counterpart(selfID string) string {
	if m.SenderID == selfID {
		return m.RecipientID
	}
	return m.SenderID
}
