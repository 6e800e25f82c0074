package rabbitmq

// Exchange имя exchange для сообщений push-подсистемы.
const Exchange = "push"

type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

func GetPushQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: "push_associations_queue", RoutingKey: "associations"},
	}
}
