package hermes

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// Subjects shared by quarry and the research pipeline.
const (
	SubjectRunSubmit    = "research.run.submit"
	SubjectRunStop      = "research.run.stop"
	SubjectRunStream    = "research.run.stream"
	SubjectRunCompleted = "research.run.completed"
)

const (
	clientName     = "quarry"
	maxReconnects  = 60
	reconnectDelay = 2 * time.Second
)

// Handler receives the subject and raw payload of one NATS message.
type Handler func(subject string, data []byte)

// Client is a JSON publish/subscribe wrapper around a single NATS connection.
type Client struct {
	conn   *nats.Conn
	logger *slog.Logger
}

func NewClient(ctx context.Context, url, token string, logger *slog.Logger) (*Client, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	nc, err := nats.Connect(url, connOptions(token, logger)...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	logger.Debug("nats connection created", "url", url, "status", nc.Status().String())
	return &Client{conn: nc, logger: logger}, nil
}

// connOptions keeps retrying the initial connect so quarry can start before
// the NATS server does.
func connOptions(token string, logger *slog.Logger) []nats.Option {
	opts := []nats.Option{
		nats.Name(clientName),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(maxReconnects),
		nats.ReconnectWait(reconnectDelay),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats reconnected", "url", nc.ConnectedUrl())
		}),
	}
	if token != "" {
		opts = append(opts, nats.Token(token))
	}
	return opts
}

// Publish sends data JSON-encoded on subject.
func (c *Client) Publish(subject string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", subject, err)
	}
	if err := c.conn.Publish(subject, payload); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}

func (c *Client) Subscribe(subject string, handler Handler) error {
	if _, err := c.conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(msg.Subject, msg.Data)
	}); err != nil {
		return fmt.Errorf("subscribe %s: %w", subject, err)
	}
	c.logger.Info("subscribed", "subject", subject)
	return nil
}

// Flush waits until the server has processed everything sent so far,
// including subscription interest.
func (c *Client) Flush(ctx context.Context) error {
	if err := c.conn.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("nats flush: %w", err)
	}
	return nil
}

// Close drains subscriptions so in-flight messages are still handled, falling
// back to a hard close if draining cannot start.
func (c *Client) Close() {
	if err := c.conn.Drain(); err != nil {
		c.logger.Warn("nats drain failed", "error", err)
		c.conn.Close()
	}
}
