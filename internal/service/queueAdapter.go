package service

import (
	"context"

	"github.com/ds124wfegd/instafilter/internal/entity"
)

// Queue is satisfied by both the Kafka producer and the RabbitMQ queue.
type Queue interface {
	Publish(ctx context.Context, message interface{}) error
}

// QueueAdapter адаптирует Queue к TaskPublisher интерфейсу
type QueueAdapter struct {
	queue Queue
}

func NewQueueAdapter(q Queue) *QueueAdapter {
	return &QueueAdapter{queue: q}
}

func (a *QueueAdapter) Publish(ctx context.Context, task entity.FilterTask) error {
	return a.queue.Publish(ctx, task)
}
