package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Its-donkey/rel8/logging"
	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
)

// NATSPublisher publishes events on core NATS subjects.
type NATSPublisher struct {
	conn   *nats.Conn
	prefix string
	logger *logging.Logger
}

// NewNATSPublisher wraps an existing connection.
func NewNATSPublisher(conn *nats.Conn, prefix string, logger *logging.Logger) *NATSPublisher {
	return &NATSPublisher{conn: conn, prefix: prefix, logger: logger}
}

// Connect dials url and returns a publisher owning the connection.
func Connect(url, prefix string, logger *logging.Logger) (*NATSPublisher, error) {
	conn, err := nats.Connect(url,
		nats.Name("rel8-server"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("events", "nats disconnected", map[string]any{"error": err.Error()})
			}
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return NewNATSPublisher(conn, prefix, logger), nil
}

// Publish encodes ev and sends it on its subject.
func (p *NATSPublisher) Publish(ctx context.Context, ev Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	subject := Subject(p.prefix, ev.Type)
	if err := p.conn.Publish(subject, data); err != nil {
		p.logger.Error("events", "publish failed", err, map[string]any{
			"subject":  subject,
			"event_id": ev.ID,
		})
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	p.logger.Debug("events", "event published", map[string]any{
		"subject":  subject,
		"event_id": ev.ID,
	})
	return nil
}

// Close flushes pending messages and closes the connection.
func (p *NATSPublisher) Close() error {
	if p.conn == nil {
		return nil
	}
	err := p.conn.Drain()
	if err != nil {
		p.conn.Close()
	}
	return err
}

// Subscribe decodes every event under prefix and hands it to fn.
func Subscribe(conn *nats.Conn, prefix string, fn func(Event)) (*nats.Subscription, error) {
	return conn.Subscribe(Subject(prefix, ">"), func(msg *nats.Msg) {
		var ev Event
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			return
		}
		fn(ev)
	})
}

// StartEmbedded starts an in-process NATS server without network ports.
func StartEmbedded() (*server.Server, error) {
	ns, err := server.NewServer(&server.Options{DontListen: true})
	if err != nil {
		return nil, fmt.Errorf("create embedded nats: %w", err)
	}
	go ns.Start()
	if !ns.ReadyForConnections(4 * time.Second) {
		ns.Shutdown()
		return nil, errors.New("embedded nats server failed to start within timeout")
	}
	return ns, nil
}

// ConnectInProcess connects to an embedded server.
func ConnectInProcess(ns *server.Server) (*nats.Conn, error) {
	conn, err := nats.Connect("", nats.InProcessServer(ns))
	if err != nil {
		return nil, fmt.Errorf("connect in-process nats: %w", err)
	}
	return conn, nil
}

// LogSubscriber writes every received event to the "events" log category.
func LogSubscriber(logger *logging.Logger) func(Event) {
	return func(ev Event) {
		logger.Info("events", ev.Type, map[string]any{
			"event_id": ev.ID,
			"actor_id": ev.ActorID,
		})
	}
}
