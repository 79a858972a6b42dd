package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// MessageType — тип сообщения в очереди.
type MessageType string

// Типы сообщений.
const (
	MessageTypeAgentDispatch MessageType = "agent.dispatch"
)

// Message — сообщение для публикации.
type Message struct {
	// ID — уникальный идентификатор сообщения.
	ID string `json:"id"`

	// Type — тип сообщения.
	Type MessageType `json:"type"`

	// Payload — полезная нагрузка.
	Payload any `json:"payload"`

	// Timestamp — время создания.
	Timestamp time.Time `json:"timestamp"`
}

// AgentDispatchPayload — payload для запуска агента.
type AgentDispatchPayload struct {
	// TaskID — идентификатор поставленной задачи (task reference).
	TaskID uuid.UUID `json:"task_id"`

	// ProjectID — проект, над которым работает агент.
	ProjectID uuid.UUID `json:"project_id"`

	// Agent — тип агента (REQUIREMENTS, REFINE, PLAN, PROMPTS, VALIDATION).
	Agent string `json:"agent"`

	// Metadata — входные данные запуска: они же участвуют в dedup-хэше.
	Metadata map[string]any `json:"metadata,omitempty"`

	// CorrelationID — идентификатор логической операции.
	CorrelationID string `json:"correlation_id,omitempty"`
}

// Publisher публикует сообщения в RabbitMQ.
type Publisher struct {
	conn   *Connection
	logger *slog.Logger
}

// NewPublisher создаёт новый Publisher.
func NewPublisher(conn *Connection, logger *slog.Logger) *Publisher {
	return &Publisher{
		conn:   conn,
		logger: logger,
	}
}

// Publish публикует сообщение в указанный exchange с routing key.
func (p *Publisher) Publish(ctx context.Context, exchange Exchange, routingKey RoutingKey, msg *Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	return p.conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		err := ch.PublishWithContext(
			ctx,
			string(exchange),   // exchange
			string(routingKey), // routing key
			false,
			false,
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent, // сообщение переживёт рестарт RabbitMQ
				MessageId:    msg.ID,
				Timestamp:    msg.Timestamp,
				Body:         body,
			},
		)
		if err != nil {
			return fmt.Errorf("publish to %s/%s: %w", exchange, routingKey, err)
		}

		p.logger.Debug("published message",
			"exchange", exchange,
			"routing_key", routingKey,
			"message_id", msg.ID,
			"type", msg.Type,
		)
		return nil
	})
}

// PublishAgentDispatch публикует запуск агента.
// Потребитель: conductor-agentd.
func (p *Publisher) PublishAgentDispatch(ctx context.Context, payload AgentDispatchPayload) error {
	msg := &Message{
		ID:        uuid.New().String(),
		Type:      MessageTypeAgentDispatch,
		Payload:   payload,
		Timestamp: time.Now(),
	}

	return p.Publish(ctx, ExchangeAgents, RoutingKeyDispatch, msg)
}
