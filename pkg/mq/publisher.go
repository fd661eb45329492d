package mq

import (
	"context"
	"encoding/json"

	amqp "github.com/rabbitmq/amqp091-go"
)

type Publisher interface {
	Publish(ctx context.Context, exchange string, routingKey string, body []byte) error
	PublishJSON(ctx context.Context, exchange string, routingKey string, payload any) error
}

type RabbitPublisher struct {
	ch *amqp.Channel
}

func NewRabbitPublisher(ch *amqp.Channel) Publisher { return &RabbitPublisher{ch: ch} }

func (r *RabbitPublisher) Publish(ctx context.Context, exchange string, routingKey string, body []byte) error {
	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	}

	return r.ch.PublishWithContext(ctx, exchange, routingKey, false, false, msg)
}

func (r *RabbitPublisher) PublishJSON(ctx context.Context, exchange string, routingKey string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	return r.Publish(ctx, exchange, routingKey, body)
}

func (r *RabbitPublisher) Close() error {
	if r.ch != nil {
		return r.ch.Close()
	}

	return nil
}
