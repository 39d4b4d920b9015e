package rmqconsumer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"file-share-api/config"
	"file-share-api/internal/domain/file"
)

// can scale depends on a parallel worker count
const preFetchCount = 1

var actions = map[string]string{
	string(file.EventUploaded): "FileUploaded",
	string(file.EventUpdated):  "FileUpdated",
	string(file.EventDeleted):  "FileDeleted",
	string(file.EventExpired):  "FileExpired",
}

// Consumer tails the lifecycle queue and prints each event. Used for local
// debugging of the publisher.
type Consumer struct {
	cfg        config.MQ
	log        *zap.Logger
	out        io.Writer
	conn       *amqp091.Connection
	ownsConn   bool
	chConsume  *amqp091.Channel
	chDelivery <-chan amqp091.Delivery
}

// New may share conn with the publisher; Close then leaves it open.
func New(cfg config.MQ, logger *zap.Logger, conn *amqp091.Connection) *Consumer {
	return &Consumer{
		cfg:  cfg,
		log:  logger,
		out:  os.Stdout,
		conn: conn,
	}
}

func (c *Consumer) Connect(dsn string) error {
	conn, err := amqp091.Dial(dsn)
	if err != nil {
		return fmt.Errorf("amqp dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("amqp channel: %w", err)
	}
	c.conn, c.chConsume, c.ownsConn = conn, ch, true

	c.log.Info("rabbitmq consumer connected successfully")

	return nil
}

func (c *Consumer) Init() error {
	if c.chConsume == nil {
		if c.conn == nil {
			return errors.New("rabbitmq consumer: not connected")
		}
		ch, err := c.conn.Channel()
		if err != nil {
			return fmt.Errorf("amqp channel: %w", err)
		}
		c.chConsume = ch
	}

	if err := c.chConsume.ExchangeDeclare(
		c.cfg.Exchange,
		c.cfg.ExchangeType,
		true,
		false,
		false,
		false,
		nil,
	); err != nil {
		return fmt.Errorf("exchange declare: %w", err)
	}
	if _, err := c.chConsume.QueueDeclare(
		c.cfg.QueueName,
		true,
		false,
		false,
		false,
		nil,
	); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	for _, rk := range file.EventTypes {
		if err := c.chConsume.QueueBind(
			c.cfg.QueueName,
			string(rk),
			c.cfg.Exchange,
			false,
			nil,
		); err != nil {
			return fmt.Errorf("queue bind %s: %w", rk, err)
		}
	}

	if err := c.chConsume.Qos(preFetchCount, 0, false); err != nil {
		return fmt.Errorf("qos: %w", err)
	}

	deliveries, err := c.chConsume.Consume(
		c.cfg.QueueName,
		"",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("consume: %w", err)
	}
	c.chDelivery = deliveries

	return nil
}

func (c *Consumer) DeliveryWorker(ctx context.Context) {
	c.log.Info("starting delivery worker")

	defer func() {
		c.log.Info("delivery worker gracefully stopped")
	}()

	for {
		select {
		case msg, ok := <-c.chDelivery:
			if !ok {
				c.log.Warn("delivery channel closed")
				return
			}
			if err := c.delivery(msg); err != nil {
				// alert
				c.log.Error("mq read message error", zap.Error(err))
			}
		case <-ctx.Done():
			return
		}
	}
}

func (c *Consumer) delivery(msg amqp091.Delivery) error {
	// auto-ack consumer; a crash between receive and print loses the event
	_, err := fmt.Fprintf(c.out,
		"Action=%s EventBody=%s\n",
		actions[msg.RoutingKey],
		string(msg.Body),
	)

	return err
}

func (c *Consumer) Close() error {
	var errs []error
	if c.chConsume != nil {
		errs = append(errs, c.chConsume.Close())
	}
	if c.conn != nil && c.ownsConn {
		errs = append(errs, c.conn.Close())
	}
	return errors.Join(errs...)
}
