// Package notify pushes change events to open friend tracking views.
package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const KindCurrencyChanged = "currency_changed"

// Event is what subscribers receive. Views are keyed by the admin that
// owns the friend, since every change we push is an admin-level setting.
type Event struct {
	Kind              string    `json:"kind"`
	AdminID           uint      `json:"admin_id"`
	PreferredCurrency string    `json:"preferred_currency,omitempty"`
	At                time.Time `json:"at"`
}

// Notifier publishes events. Hub delivers them in-process; PgNotifier
// routes them through Postgres so every instance sees them.
type Notifier interface {
	Publish(ctx context.Context, ev Event) error
}

// Conn is the part of *websocket.Conn the hub writes to.
type Conn interface {
	WriteJSON(v interface{}) error
	Close() error
}

// Hub manages subscriber connections per admin and fans events out to them.
// Only the run loop writes to connections.
type Hub struct {
	clients   map[uint]map[Conn]bool
	broadcast chan Event
	mu        sync.Mutex
	done      chan struct{}
	closeOnce sync.Once
}

// NewHub creates a Hub and starts its broadcast loop.
func NewHub() *Hub {
	h := &Hub{
		clients:   make(map[uint]map[Conn]bool),
		broadcast: make(chan Event, 100),
		done:      make(chan struct{}),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case <-h.done:
			return
		case ev := <-h.broadcast:
			h.deliver(ev)
		}
	}
}

func (h *Hub) deliver(ev Event) {
	h.mu.Lock()
	conns := make([]Conn, 0, len(h.clients[ev.AdminID]))
	for c := range h.clients[ev.AdminID] {
		conns = append(conns, c)
	}
	h.mu.Unlock()

	for _, c := range conns {
		if err := c.WriteJSON(ev); err != nil {
			if websocket.IsCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				logrus.WithFields(logrus.Fields{
					"admin_id": ev.AdminID,
					"conn_ptr": fmt.Sprintf("%p", c),
				}).Info("Subscriber closed during broadcast, unregistering.")
			} else {
				logrus.WithError(err).WithField("admin_id", ev.AdminID).Warn("Failed to send event to subscriber, unregistering.")
			}
			h.Unregister(ev.AdminID, c)
			c.Close()
		}
	}
}

// Register subscribes conn to events for adminID.
func (h *Hub) Register(adminID uint, conn Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[adminID]; !ok {
		h.clients[adminID] = make(map[Conn]bool)
	}
	h.clients[adminID][conn] = true
	logrus.WithFields(logrus.Fields{
		"admin_id": adminID,
		"conn_ptr": fmt.Sprintf("%p", conn),
	}).Debug("Subscriber registered.")
}

// Unregister removes conn. It is safe to call more than once.
func (h *Hub) Unregister(adminID uint, conn Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if clients, ok := h.clients[adminID]; ok {
		delete(clients, conn)
		if len(clients) == 0 {
			delete(h.clients, adminID)
		}
	}
}

// Subscribers returns how many connections are registered for adminID.
func (h *Hub) Subscribers(adminID uint) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients[adminID])
}

// Publish queues ev for delivery. When the queue is full the event is
// dropped; views refresh on their own next load anyway.
func (h *Hub) Publish(_ context.Context, ev Event) error {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	select {
	case h.broadcast <- ev:
	default:
		logrus.WithField("admin_id", ev.AdminID).Warn("Event broadcast channel full, dropping event.")
	}
	return nil
}

// Close stops the broadcast loop. Registered connections are left to their
// handlers.
func (h *Hub) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}

var _ Notifier = (*Hub)(nil)
