package mq

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"file-share-api/config"
	"file-share-api/internal/domain/file"
)

// "Rely on metrics, not guesses."
const bufferSize = 128

type (
	InputCh  = chan file.Event
	RabbitMQ struct {
		cfg   config.MQ
		log   *zap.Logger
		conn  *amqp091.Connection
		pubCh *amqp091.Channel
		in    InputCh
	}
)

func New(cfg config.MQ, logger *zap.Logger) *RabbitMQ {
	return &RabbitMQ{
		cfg: cfg,
		log: logger,
		in:  make(chan file.Event, bufferSize),
	}
}

func (r *RabbitMQ) Connect(ctx context.Context, dsn string) error {
	dialer := &net.Dialer{Timeout: 10 * time.Second}

	amqpCfg := amqp091.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Properties: amqp091.Table{
			"connection_name": "fileshareapi",
		},
		Dial: func(network, addr string) (net.Conn, error) {
			return dialer.DialContext(ctx, network, addr)
		},
	}

	var err error
	r.conn, err = amqp091.DialConfig(dsn, amqpCfg)
	if err != nil {
		return err
	}
	r.pubCh, err = r.conn.Channel()
	if err != nil {
		_ = r.conn.Close()
		r.conn = nil
		return err
	}

	r.log.Info("rabbitmq connected successfully")

	return nil
}

func (r *RabbitMQ) Init() error {
	if r.pubCh == nil {
		return errors.New("rabbitmq: not connected")
	}

	var err error
	if err = r.pubCh.ExchangeDeclare(
		r.cfg.Exchange,
		r.cfg.ExchangeType,
		true,
		false,
		false,
		false,
		nil,
	); err != nil {
		_ = r.pubCh.Close()
		return err
	}
	q, err := r.pubCh.QueueDeclare(
		r.cfg.QueueName,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return err
	}

	for _, rk := range file.EventTypes {
		if err = r.pubCh.QueueBind(q.Name, string(rk), r.cfg.Exchange, false, nil); err != nil {
			return err
		}
	}

	return nil
}

// Publish hands e to the worker. A full buffer drops the event.
func (r *RabbitMQ) Publish(e file.Event) {
	select {
	case r.in <- e:
	default:
		r.log.Warn("mq buffer full, event dropped",
			zap.String("event_type", string(e.Type)),
			zap.String("file_id", e.Payload.FileID),
		)
	}
}

func (r *RabbitMQ) PublisherWorker(ctx context.Context) {
	r.log.Info("starting publisher worker")

	defer func() {
		r.log.Info("publisher worker gracefully stopped")
	}()

	for {
		select {
		case e := <-r.in:
			if err := r.publish(ctx, e); err != nil {
				// alert
				r.log.Error("mq publish error", zap.Error(err), zap.String("event_type", string(e.Type)))
			}
		case <-ctx.Done():
			return
		}
	}
}

// Flush publishes what is still buffered once PublisherWorker has stopped.
func (r *RabbitMQ) Flush(ctx context.Context) int {
	sent := 0
	for ctx.Err() == nil {
		select {
		case e := <-r.in:
			if err := r.publish(ctx, e); err != nil {
				r.log.Error("mq flush error", zap.Error(err), zap.String("event_type", string(e.Type)))
				continue
			}
			sent++
		default:
			return sent
		}
	}
	return sent
}

func (r *RabbitMQ) publish(ctx context.Context, e file.Event) error {
	b, err := encode(e)
	if err != nil {
		return err
	}

	return r.pubCh.PublishWithContext(
		ctx,
		r.cfg.Exchange,
		string(e.Type),
		false,
		false,
		b,
	)
}

func encode(e file.Event) (amqp091.Publishing, error) {
	body, err := json.Marshal(e)
	if err != nil {
		return amqp091.Publishing{}, err
	}

	return amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		MessageId:    e.ID.String(),
		Timestamp:    e.TS,
		Type:         string(e.Type),
		Body:         body,
	}, nil
}

func (r *RabbitMQ) Close() error {
	var errs []error
	if r.pubCh != nil {
		errs = append(errs, r.pubCh.Close())
	}
	if r.conn != nil {
		errs = append(errs, r.conn.Close())
	}
	return errors.Join(errs...)
}

func (r *RabbitMQ) GetInputChan() chan file.Event { return r.in }
func (r *RabbitMQ) GetConn() *amqp091.Connection { return r.conn }

// Noop is used when the broker is disabled.
type Noop struct{}

func (Noop) Publish(file.Event) {}
