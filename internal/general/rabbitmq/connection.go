package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"ride-share/internal/general/config"
	"ride-share/internal/general/logger"

	amqp "github.com/rabbitmq/amqp091-go"
)

const maxBackoff = 30 * time.Second

// Client owns one AMQP connection plus a confirm-mode publishing channel,
// re-dialing and re-declaring topology whenever either closes.
type Client struct {
	url    string
	logger *logger.Logger
	logCtx context.Context

	mu      sync.RWMutex
	conn    *amqp.Connection
	pubChan *amqp.Channel

	pubMu       sync.Mutex
	pubConfirms chan amqp.Confirmation

	closed    chan struct{}
	closeOnce sync.Once
	reconnect chan struct{}
}

// ConnectRabbitMQ dials once and starts the background reconnect loop.
func ConnectRabbitMQ(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Client, error) {
	client := &Client{
		url:       cfg.AMQPURL(),
		logger:    log,
		logCtx:    context.WithoutCancel(ctx),
		closed:    make(chan struct{}),
		reconnect: make(chan struct{}, 1),
	}

	// single attempt; further retries happen in the watcher
	if err := client.connectOnce(); err != nil {
		return nil, err
	}

	go client.watch()

	return client, nil
}

// Healthy reports whether the connection and publishing channel are open.
func (client *Client) Healthy() error {
	client.mu.RLock()
	defer client.mu.RUnlock()
	if client.conn == nil || client.conn.IsClosed() {
		return errors.New("rabbitmq: connection is not open")
	}
	if client.pubChan == nil || client.pubChan.IsClosed() {
		return errors.New("rabbitmq: publish channel is not open")
	}
	return nil
}

// Close stops the watcher and releases AMQP resources. Safe to call twice.
func (client *Client) Close() {
	client.closeOnce.Do(func() {
		close(client.closed)

		client.mu.Lock()
		if client.pubChan != nil {
			_ = client.pubChan.Close()
			client.pubChan = nil
		}
		if client.conn != nil {
			_ = client.conn.Close()
			client.conn = nil
		}
		client.mu.Unlock()

		client.pubMu.Lock()
		if client.pubConfirms != nil {
			close(client.pubConfirms)
			client.pubConfirms = nil
		}
		client.pubMu.Unlock()
	})
}

func (client *Client) connectOnce() (err error) {
	conn, err := amqp.DialConfig(client.url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(30 * time.Second),
	})
	if err != nil {
		client.logger.Error(client.logCtx, "rabbitmq_dial_failed", "Failed to dial RabbitMQ", err, nil)
		return fmt.Errorf("rabbitmq dial failed: %w", err)
	}
	defer func() {
		if err != nil {
			_ = conn.Close()
		}
	}()

	ch, err := conn.Channel()
	if err != nil {
		client.logger.Error(client.logCtx, "rabbitmq_open_channel_failed", "Failed to open RabbitMQ channel", err, nil)
		return fmt.Errorf("rabbitmq: failed to open channel: %w", err)
	}

	if err = declareTopology(ch); err != nil {
		client.logger.Error(client.logCtx, "rabbitmq_declare_topology_failed", "Failed to declare RabbitMQ topology", err, nil)
		return fmt.Errorf("rabbitmq: failed to declare topology: %w", err)
	}

	if err = ch.Confirm(false); err != nil {
		client.logger.Error(client.logCtx, "rabbitmq_enable_confirms_failed", "Failed to enable publisher confirms", err, nil)
		return fmt.Errorf("rabbitmq: failed to enable confirms: %w", err)
	}

	client.pubMu.Lock()
	oldConfirms := client.pubConfirms
	client.pubConfirms = ch.NotifyPublish(make(chan amqp.Confirmation, 1))
	client.pubMu.Unlock()
	if oldConfirms != nil {
		close(oldConfirms)
	}

	// mandatory publishes that match no binding come back here
	returns := ch.NotifyReturn(make(chan amqp.Return, 1))
	go func() {
		for r := range returns {
			client.logger.Error(client.logCtx, "rabbitmq_returned", "Message was returned (unroutable)",
				fmt.Errorf("code=%d text=%s", r.ReplyCode, r.ReplyText),
				map[string]any{"exchange": r.Exchange, "routing_key": r.RoutingKey, "size": len(r.Body)},
			)
		}
	}()

	client.mu.Lock()
	if client.pubChan != nil && !client.pubChan.IsClosed() {
		_ = client.pubChan.Close()
	}
	client.conn = conn
	client.pubChan = ch
	client.mu.Unlock()

	go client.signalOnClose(conn, ch)

	client.logger.Info(client.logCtx, "rabbitmq_connected", "RabbitMQ connection established successfully", nil)
	return nil
}

// signalOnClose queues a reconnect when either the connection or channel dies.
func (client *Client) signalOnClose(conn *amqp.Connection, ch *amqp.Channel) {
	connClosed := conn.NotifyClose(make(chan *amqp.Error, 1))
	chClosed := ch.NotifyClose(make(chan *amqp.Error, 1))
	select {
	case <-client.closed:
		return
	case <-connClosed:
	case <-chClosed:
	}

	select {
	case client.reconnect <- struct{}{}:
	default:
	}
}

// watch re-dials with exponential backoff capped at maxBackoff.
func (client *Client) watch() {
	for {
		select {
		case <-client.closed:
			return
		case <-client.reconnect:
		}

		backoff := time.Second
		for {
			err := client.connectOnce()
			if err == nil {
				client.logger.Info(client.logCtx, "rabbitmq_reconnected", "Reconnected to RabbitMQ and re-ensured topology", nil)
				break
			}
			client.logger.Error(client.logCtx, "retry_attempted", "Failed to reconnect to RabbitMQ", err,
				map[string]any{"backoff_ms": backoff.Milliseconds()})

			select {
			case <-client.closed:
				return
			case <-time.After(backoff):
			}
			backoff = min(backoff*2, maxBackoff)
		}
	}
}
