// Package notify pushes progression updates to connected frontends over
// WebSocket. The hub fans every engine event out to all subscribers; a
// subscriber that cannot keep up is dropped rather than allowed to stall
// the rest.
package notify

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const writeWait = 5 * time.Second

// Message kinds pushed to subscribers.
const (
	MessageRefresh    = "refresh"
	MessageImpact     = "impact"
	MessageMultiplier = "multiplier"
)

// Message is a single push notification. Payload carries the
// kind-specific body (a stats snapshot for refresh, the combo value for
// multiplier) and is absent for bare signals like impact.
type Message struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

type subscriber struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

// writeJSON sends a message guarded by the subscriber's mutex and write
// deadline.
func (s *subscriber) writeJSON(msg Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return s.conn.WriteJSON(msg)
}

// Hub tracks WebSocket subscribers and broadcasts engine events to them.
type Hub struct {
	mu          sync.Mutex
	subscribers map[*subscriber]struct{}
	upgrader    websocket.Upgrader
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[*subscriber]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// Notifier is the hook surface of the progression engine the hub
// subscribes to.
type Notifier interface {
	SetRefreshCallback(fn func())
	SetImpactCallback(fn func())
	SetMultiplierCallback(fn func(combo int))
}

// Attach subscribes the hub to the engine's hooks. snapshot is called on
// every refresh to build the payload.
func (h *Hub) Attach(engine Notifier, snapshot func() any) {
	engine.SetRefreshCallback(func() {
		h.Broadcast(Message{Type: MessageRefresh, Payload: snapshot()})
	})
	engine.SetImpactCallback(func() {
		h.Broadcast(Message{Type: MessageImpact})
	})
	engine.SetMultiplierCallback(func(combo int) {
		h.Broadcast(Message{Type: MessageMultiplier, Payload: combo})
	})
}

// ServeHTTP upgrades the request and registers the connection. The read
// loop exists only to notice the peer going away.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logrus.Warnf("websocket upgrade failed: %v", err)
		return
	}

	sub := &subscriber{conn: conn}
	h.mu.Lock()
	h.subscribers[sub] = struct{}{}
	count := len(h.subscribers)
	h.mu.Unlock()
	logrus.Debugf("websocket subscriber connected (%d total)", count)

	go h.readLoop(sub)
}

func (h *Hub) readLoop(sub *subscriber) {
	defer h.drop(sub)
	for {
		if _, _, err := sub.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// Broadcast sends a message to every subscriber, dropping any whose
// write fails or times out.
func (h *Hub) Broadcast(msg Message) {
	h.mu.Lock()
	subs := make([]*subscriber, 0, len(h.subscribers))
	for sub := range h.subscribers {
		subs = append(subs, sub)
	}
	h.mu.Unlock()

	for _, sub := range subs {
		if err := sub.writeJSON(msg); err != nil {
			logrus.Warnf("failed to push %s message, dropping subscriber: %v", msg.Type, err)
			h.drop(sub)
		}
	}
}

// Count returns the current number of subscribers.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}

// Close disconnects every subscriber.
func (h *Hub) Close() {
	h.mu.Lock()
	subs := make([]*subscriber, 0, len(h.subscribers))
	for sub := range h.subscribers {
		subs = append(subs, sub)
	}
	h.subscribers = make(map[*subscriber]struct{})
	h.mu.Unlock()

	for _, sub := range subs {
		sub.conn.Close()
	}
}

func (h *Hub) drop(sub *subscriber) {
	h.mu.Lock()
	_, present := h.subscribers[sub]
	delete(h.subscribers, sub)
	h.mu.Unlock()
	if present {
		sub.conn.Close()
	}
}
