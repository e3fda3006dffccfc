package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const DefaultChannel = "lend_tracker_events"

// PgNotifier publishes events with pg_notify so that every server instance
// listening on the channel can forward them to its own Hub.
type PgNotifier struct {
	db      *gorm.DB
	channel string
}

func NewPgNotifier(db *gorm.DB, channel string) *PgNotifier {
	if channel == "" {
		channel = DefaultChannel
	}
	return &PgNotifier{db: db, channel: channel}
}

func (n *PgNotifier) Publish(ctx context.Context, ev Event) error {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if err := n.db.WithContext(ctx).Exec("SELECT pg_notify(?, ?)", n.channel, string(payload)).Error; err != nil {
		return fmt.Errorf("pg_notify: %w", err)
	}
	return nil
}

// DecodeEvent parses a NOTIFY payload produced by PgNotifier.
func DecodeEvent(payload string) (Event, error) {
	var ev Event
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		return Event{}, fmt.Errorf("decode event: %w", err)
	}
	if ev.Kind == "" || ev.AdminID == 0 {
		return Event{}, fmt.Errorf("decode event: missing kind or admin_id")
	}
	return ev, nil
}

// Listener forwards NOTIFY payloads from Postgres into a Hub.
type Listener struct {
	listener *pq.Listener
	hub       *Hub
	done      chan struct{}
	closeOnce sync.Once
}

// Listen opens a dedicated LISTEN connection on channel using the lib/pq
// DSN and starts forwarding events into hub.
func Listen(dsn, channel string, hub *Hub) (*Listener, error) {
	if channel == "" {
		channel = DefaultChannel
	}
	report := func(ev pq.ListenerEventType, err error) {
		if err != nil {
			logrus.WithError(err).WithField("event", ev).Warn("Postgres listener state change")
		}
	}
	pl := pq.NewListener(dsn, 10*time.Second, time.Minute, report)
	if err := pl.Listen(channel); err != nil {
		pl.Close()
		return nil, fmt.Errorf("listen %s: %w", channel, err)
	}

	l := &Listener{listener: pl, hub: hub, done: make(chan struct{})}
	go l.run()
	logrus.WithField("channel", channel).Info("Listening for change notifications.")
	return l, nil
}

func (l *Listener) run() {
	for {
		select {
		case <-l.done:
			return
		case n, ok := <-l.listener.Notify:
			if !ok {
				return
			}
			// nil after a reconnect; anything sent meanwhile is lost
			if n == nil {
				continue
			}
			l.forward(n.Extra)
		case <-time.After(90 * time.Second):
			go func() {
				if err := l.listener.Ping(); err != nil {
					logrus.WithError(err).Warn("Postgres listener ping failed")
				}
			}()
		}
	}
}

func (l *Listener) forward(payload string) {
	ev, err := DecodeEvent(payload)
	if err != nil {
		logrus.WithError(err).WithField("payload", payload).Warn("Ignoring malformed notification.")
		return
	}
	_ = l.hub.Publish(context.Background(), ev)
}

// Close stops forwarding and closes the LISTEN connection. Later calls
// are no-ops.
func (l *Listener) Close() error {
	var err error
	l.closeOnce.Do(func() {
		close(l.done)
		err = l.listener.Close()
	})
	return err
}
