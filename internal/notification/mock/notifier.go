// Package mock provides a dispatcher that logs messages and keeps them in memory.
package mock

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tvtracker/tvtracker/internal/notification/types"
)

// Record stores a sent message.
type Record struct {
	ID      int64         `json:"id"`
	Message types.Message `json:"message"`
	SentAt  time.Time     `json:"sentAt"`
}

// Notifier logs every message instead of delivering it.
type Notifier struct {
	name   string
	logger zerolog.Logger

	mu         sync.RWMutex
	records    []Record
	nextID     int64
	maxRecords int
	failWith   error
}

// New creates a new mock notifier.
func New(name string, logger zerolog.Logger) *Notifier {
	return &Notifier{
		name:       name,
		logger:     logger.With().Str("notifier", "mock").Str("name", name).Logger(),
		records:    make([]Record, 0),
		nextID:     1,
		maxRecords: 100,
	}
}

func (n *Notifier) Type() types.NotifierType {
	return types.NotifierMock
}

func (n *Notifier) Name() string {
	return n.name
}

// FailWith makes subsequent sends return err. Nil restores success.
func (n *Notifier) FailWith(err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.failWith = err
}

func (n *Notifier) Send(ctx context.Context, msg types.Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.failWith != nil {
		return n.failWith
	}

	n.logger.Info().
		Str("to", strings.Join(msg.To, ", ")).
		Str("subject", msg.Subject).
		Str("body", msg.Body).
		Msg("Notification")

	msg.To = append([]string(nil), msg.To...)
	n.records = append(n.records, Record{ID: n.nextID, Message: msg, SentAt: time.Now()})
	n.nextID++
	if len(n.records) > n.maxRecords {
		n.records = n.records[len(n.records)-n.maxRecords:]
	}
	return nil
}

// Records returns sent messages, oldest first.
func (n *Notifier) Records() []Record {
	n.mu.RLock()
	defer n.mu.RUnlock()
	out := make([]Record, len(n.records))
	copy(out, n.records)
	return out
}
