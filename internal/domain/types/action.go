package types

const (
	ActionRabbitMQConnected      = "rabbitmq_connected"
	ActionRabbitConnectionClosed = "rabbitmq_connection_closed"

	ActionDatabaseTransactionFailed = "database_transaction_failed"
	ActionCacheDegraded             = "cache_degraded"
	ActionBroadcastDropped          = "broadcast_dropped"
	ActionRetentionSweep            = "location_retention_sweep"
)
