package push

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/streadway/amqp"

	"github.com/sidequest-campus/gatekeeper/internal/rabbitmq"
)

// AssociationMessage сообщение об изменении ассоциации установки.
type AssociationMessage struct {
	MessageID      string `json:"message_id"`
	Event          string `json:"event"` // associate | disassociate
	InstallationID string `json:"installation_id"`
	UserUID        string `json:"user_uid,omitempty"`
}

// Channel описывает минимальный контракт AMQP-канала для публикации.
// Ему удовлетворяет *amqp.Channel.
type Channel interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// Publisher публикует сообщения об ассоциациях в очередь push-подсистемы.
type Publisher struct {
	ch             Channel
	installationID string
}

// NewPublisher создает Publisher поверх открытого AMQP-канала.
func NewPublisher(ch Channel, installationID string) *Publisher {
	return &Publisher{
		ch:             ch,
		installationID: installationID,
	}
}

// Associate публикует событие привязки установки к пользователю.
func (p *Publisher) Associate(_ context.Context, userUID string) error {
	return p.publish("associate", userUID)
}

// Disassociate публикует событие отвязки установки.
func (p *Publisher) Disassociate(_ context.Context) error {
	return p.publish("disassociate", "")
}

func (p *Publisher) publish(event, userUID string) error {
	const op = "push.publish"

	message := AssociationMessage{
		MessageID:      uuid.NewString(),
		Event:          event,
		InstallationID: p.installationID,
		UserUID:        userUID,
	}
	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	err = p.ch.Publish(
		rabbitmq.Exchange,
		"associations",
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
