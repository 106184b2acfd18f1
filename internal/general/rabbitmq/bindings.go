package rabbitmq

import (
	"fmt"

	"ride-share/internal/general/contracts"

	amqp "github.com/rabbitmq/amqp091-go"
)

func declareTopology(ch *amqp.Channel) error {
	// 1. Exchanges
	exchanges := []struct {
		name string
		kind string
	}{
		{contracts.ExchangeNotificationTopic, "topic"},
		{contracts.ExchangeNotificationDLX, "fanout"},
	}

	for _, ex := range exchanges {
		if err := ch.ExchangeDeclare(ex.name, ex.kind, true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare exchange %s: %w", ex.name, err)
		}
	}

	// 2. Queues; rejected notifications are dead-lettered rather than dropped
	queues := []struct {
		name string
		args amqp.Table
	}{
		{contracts.QueueNotifications, amqp.Table{"x-dead-letter-exchange": contracts.ExchangeNotificationDLX}},
		{contracts.QueueNotificationsDead, nil},
	}

	for _, q := range queues {
		if _, err := ch.QueueDeclare(q.name, true, false, false, false, q.args); err != nil {
			return fmt.Errorf("declare queue %s: %w", q.name, err)
		}
	}

	// 3. Bindings
	bindings := []struct {
		queue      string
		exchange   string
		routingKey string
	}{
		{contracts.QueueNotifications, contracts.ExchangeNotificationTopic, contracts.RouteNotifyPrefix + "#"},
		{contracts.QueueNotificationsDead, contracts.ExchangeNotificationDLX, ""},
	}

	for _, b := range bindings {
		if err := ch.QueueBind(b.queue, b.routingKey, b.exchange, false, nil); err != nil {
			return fmt.Errorf("bind queue %s to %s: %w", b.queue, b.exchange, err)
		}
	}

	return nil
}
