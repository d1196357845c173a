package metrics

// Component label values used by app-level metrics.
const (
	ComponentFeed       = "feed"
	ComponentDispatcher = "dispatcher"
	ComponentRegistry   = "registry"
	ComponentRedis      = "redis"
	ComponentFile       = "file"
	ComponentWebhook    = "webhook"
	ComponentKafka      = "kafka"
)
