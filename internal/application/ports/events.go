package ports

import (
	"context"

	"file-share-api/internal/domain/file"
)

// EventPublisher never blocks the caller.
type EventPublisher interface {
	Publish(e file.Event)
}

type RabbitMQ interface {
	EventPublisher
	Connect(ctx context.Context, dsn string) error
	Init() error
	PublisherWorker(ctx context.Context)
	Flush(ctx context.Context) int
	Close() error
}
