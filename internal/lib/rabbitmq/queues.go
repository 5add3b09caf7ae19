package rabbitmq

import "github.com/magabrotheeeer/risk-monitor/internal/models"

// AlertExchange — обменник, в который публикуются алерты о рискованных пользователях.
const AlertExchange = "risk"

// QueueConfig описывает очередь и ключ маршрутизации, с которым она привязана к обменнику.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// GetAlertQueues возвращает по очереди на каждый уровень риска. Ключ маршрутизации равен уровню.
func GetAlertQueues() []QueueConfig {
	levels := []models.RiskLevel{models.RiskCritical, models.RiskHigh, models.RiskMedium, models.RiskLow}
	queues := make([]QueueConfig, len(levels))
	for i, level := range levels {
		queues[i] = QueueConfig{
			QueueName:  AlertQueueName(string(level)),
			RoutingKey: string(level),
		}
	}
	return queues
}

// AlertQueueName возвращает имя очереди алертов уровня level.
func AlertQueueName(level string) string {
	return "risk.alerts." + level
}
