package rabbitmq

import "github.com/idleforest/idleforest/internal/models"

// QueueConfig очередь и ключ, по которому она привязана к обменнику.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// ReferralQueues очереди воркера начисления рефералов.
func ReferralQueues(queueName string) []QueueConfig {
	return []QueueConfig{
		{QueueName: queueName, RoutingKey: models.RoutingKeyUserRegistered},
	}
}
