// Package transport owns the push channel: one websocket connection per
// logged-in identity, subscribed to that identity's private topic. There is
// no reconnect on failure; the unread poller is the resilience fallback and
// the channel simply stays down for the rest of the session.
package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"

	"github.com/studyhall-app/studyhall/internal/models"
)

const (
	// Time allowed to write a message to the server
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the server
	pongWait = 60 * time.Second

	// Send pings with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum frame size accepted from the server
	maxFrameSize = 64 * 1024
)

// SendDestination is the fixed application destination all outbound chat
// frames are published to.
const SendDestination = "/app/chat.send"

// Topic names the private queue the session subscribes to for an identity.
func Topic(userID string) string {
	return "/user/" + userID + "/queue/messages"
}

// envelope is the wire framing on the push channel. Inbound envelopes of
// type "message" carry a models.Frame payload; everything else is ignored.
type envelope struct {
	Type    string          `json:"type"`
	Topic   string          `json:"topic,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Session is one live push channel. Frames received on the identity's topic
// are delivered on Frames(); outbound frames go through a buffered send
// queue so the caller never blocks on the socket.
type Session struct {
	conn     *websocket.Conn
	frames   chan models.Frame
	outbound chan []byte

	done      chan struct{}
	closeOnce sync.Once
}

// Dial opens the connection, subscribes to the identity's private topic and
// starts the read/write pumps. It is attempted once per identity lifetime;
// the caller logs a failure and falls back to poll-only operation.
func Dial(ctx context.Context, wsURL string, identity models.Identity, token string) (*Session, error) {
	header := http.Header{}
	if token != "" {
		header.Set("Authorization", "Bearer "+token)
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, header)
	if err != nil {
		return nil, errors.Wrap(err, "dial push channel")
	}

	sub := envelope{Type: "subscribe", Topic: Topic(identity.ID)}
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(sub); err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "subscribe to private topic")
	}

	s := &Session{
		conn:     conn,
		frames:   make(chan models.Frame, 256),
		outbound: make(chan []byte, 256),
		done:     make(chan struct{}),
	}

	go s.readPump()
	go s.writePump()

	jww.INFO.Printf("[Transport] Connected, subscribed to %s", sub.Topic)
	return s, nil
}

// Frames is the inbound event stream. The channel is closed when the
// connection dies or the session is torn down.
func (s *Session) Frames() <-chan models.Frame {
	return s.frames
}

// Send publishes a frame to the fixed application destination. Delivery is
// one-way and fire-and-forget: there is no acknowledgement, and a full queue
// or a closed session surfaces only as an error for the caller to log.
func (s *Session) Send(f models.Frame) error {
	payload, err := json.Marshal(f)
	if err != nil {
		return errors.Wrap(err, "encode outbound frame")
	}
	data, err := json.Marshal(envelope{Type: "send", Topic: SendDestination, Payload: payload})
	if err != nil {
		return errors.Wrap(err, "encode outbound envelope")
	}

	// Checked separately from the enqueue: in a single select a closed
	// session with queue space would be a coin flip between the two cases.
	select {
	case <-s.done:
		return errors.New("push channel is closed")
	default:
	}

	select {
	case s.outbound <- data:
		return nil
	default:
		return errors.New("outbound queue full")
	}
}

// Close releases the connection and stops both pumps. Safe to call more
// than once.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
		s.conn.Close()
	})
}

// readPump decodes inbound envelopes and hands message frames to the
// consumer. It exits, closing the frame channel, on the first read error;
// there is no reconnect.
func (s *Session) readPump() {
	defer func() {
		s.Close()
		close(s.frames)
	}()

	s.conn.SetReadLimit(maxFrameSize)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				jww.ERROR.Printf("[Transport] Read error: %v", err)
			}
			return
		}

		var env envelope
		if err := json.Unmarshal(data, &env); err != nil {
			jww.ERROR.Printf("[Transport] Dropping malformed envelope: %v", err)
			continue
		}
		if env.Type != "message" {
			continue
		}

		var frame models.Frame
		if err := json.Unmarshal(env.Payload, &frame); err != nil {
			jww.ERROR.Printf("[Transport] Dropping malformed frame: %v", err)
			continue
		}

		select {
		case s.frames <- frame:
		case <-s.done:
			return
		}
	}
}

// writePump drains the outbound queue and keeps the connection alive with
// pings.
func (s *Session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.Close()
	}()

	for {
		select {
		case <-s.done:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			s.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return

		case data := <-s.outbound:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				jww.ERROR.Printf("[Transport] Write error: %v", err)
				return
			}

		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
