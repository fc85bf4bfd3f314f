// Package events publishes build lifecycle events to NATS when configured.
// The publisher is optional: a nil *Publisher is a valid no-op.
package events

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"git.home.luguber.info/inful/doccbuild/internal/config"
	"git.home.luguber.info/inful/doccbuild/internal/logfields"
)

// Event types published on the build subject.
const (
	TypeBuildStarted  = "build.started"
	TypeBuildFinished = "build.finished"
)

// BuildEvent is the JSON payload published for each build transition.
type BuildEvent struct {
	BuildID   string    `json:"build_id"`
	Type      string    `json:"type"`
	Outcome   string    `json:"outcome,omitempty"`
	Snippets  int       `json:"snippets,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Publisher publishes build events over a NATS connection.
type Publisher struct {
	conn    *nats.Conn
	subject string
}

// NewPublisher connects to NATS per the events config. An empty NATS URL
// means events are disabled and a nil publisher is returned without error.
func NewPublisher(cfg config.EventsConfig) (*Publisher, error) {
	if cfg.NATSURL == "" {
		return nil, nil
	}

	conn, err := nats.Connect(cfg.NATSURL, nats.Name("doccbuild"))
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	slog.Info("NATS build-event publisher initialized",
		slog.String("url", cfg.NATSURL), slog.String("subject", cfg.Subject))
	return &Publisher{conn: conn, subject: cfg.Subject}, nil
}

// Publish sends one event. Failures are logged, never fatal: event delivery
// must not break a documentation build.
func (p *Publisher) Publish(event BuildEvent) {
	if p == nil || p.conn == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		slog.Warn("Failed to marshal build event", logfields.Error(err))
		return
	}
	if err := p.conn.Publish(p.subject, payload); err != nil {
		slog.Warn("Failed to publish build event", logfields.Error(err))
	}
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	if p == nil || p.conn == nil {
		return
	}
	if err := p.conn.Drain(); err != nil {
		p.conn.Close()
	}
}
