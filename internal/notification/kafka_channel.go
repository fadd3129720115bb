package notification

import (
	"context"
	"errors"
)

type Publisher interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

// KafkaChannel is the durable channel: the worker consumes the topic and delivers email.
type KafkaChannel struct {
	producer Publisher
	topic    string
}

func NewKafkaChannel(producer Publisher, topic string) *KafkaChannel {
	return &KafkaChannel{producer: producer, topic: topic}
}

func (c *KafkaChannel) Name() string { return "email" }

func (c *KafkaChannel) Send(ctx context.Context, msg Message) error {
	if c.topic == "" {
		return errors.New("notifications topic is not configured")
	}
	if msg.Recipient.Email == "" {
		return errors.New("recipient has no email address")
	}
	return c.producer.Publish(ctx, c.topic, msg.Key(), msg)
}
