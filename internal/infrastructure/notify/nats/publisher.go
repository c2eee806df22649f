package nats

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/n0rvyn/vault-rag/internal/core/domain"
)

// ProgressPublisher mirrors pipeline progress milestones onto a NATS
// subject so host applications can render progress outside the calling
// process. Publishing is fire-and-forget: a lost event never disturbs the
// pipeline.
type ProgressPublisher struct {
	conn    *nats.Conn
	subject string
}

type Options struct {
	ConnectTimeout time.Duration
	ReconnectWait  time.Duration
	MaxReconnects  int
}

func New(url, subject string, options Options) (*ProgressPublisher, error) {
	connectTimeout := options.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = 2 * time.Second
	}
	reconnectWait := options.ReconnectWait
	if reconnectWait <= 0 {
		reconnectWait = 2 * time.Second
	}
	maxReconnects := options.MaxReconnects
	if maxReconnects <= 0 {
		maxReconnects = 60
	}

	conn, err := nats.Connect(
		url,
		nats.Name("vault-rag"),
		nats.Timeout(connectTimeout),
		nats.ReconnectWait(reconnectWait),
		nats.MaxReconnects(maxReconnects),
		nats.RetryOnFailedConnect(true),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			slog.Warn("nats disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			slog.Info("nats reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, err
	}
	return &ProgressPublisher{conn: conn, subject: subject}, nil
}

func (p *ProgressPublisher) Close() {
	if p.conn != nil {
		p.conn.Close()
	}
}

type progressEvent struct {
	Invocation string `json:"invocation"`
	Percent    int    `json:"percent"`
	Stage      string `json:"stage"`
}

// Sink returns a per-invocation progress sink. Every invocation gets its
// own id so concurrent queries remain distinguishable on the wire.
func (p *ProgressPublisher) Sink() domain.ProgressSink {
	invocation := uuid.NewString()
	return func(percent int, stage string) {
		payload, err := json.Marshal(progressEvent{
			Invocation: invocation,
			Percent:    percent,
			Stage:      stage,
		})
		if err != nil {
			return
		}
		if err := p.conn.Publish(p.subject, payload); err != nil {
			slog.Debug("nats progress publish failed", "error", err)
		}
	}
}
