package contracts

// Exchanges
const (
	ExchangeNotificationTopic = "notification_topic"
	ExchangeNotificationDLX   = "notification_dlx"
)

// Queues
const (
	QueueNotifications     = "notifications"
	QueueNotificationsDead = "notifications.dead"
)

// Routing patterns
const (
	RouteNotifyPrefix = "notify." // {kind}, e.g. notify.booking.confirmed
)
