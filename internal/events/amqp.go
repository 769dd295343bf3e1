package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/abhisek/levelup/internal/retry"
)

// DefaultExchange is the topic exchange quiz events are published to.
const DefaultExchange = "levelup.events"

// AMQPPublisher publishes JSON events to a RabbitMQ topic exchange.
type AMQPPublisher struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	log      *zap.Logger
}

// NewAMQPPublisher dials uri, retrying while the broker is unreachable, and
// declares a durable topic exchange. An empty uri yields Nop so callers need
// no special case.
func NewAMQPPublisher(ctx context.Context, uri, exchange string, log *zap.Logger) (Publisher, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if uri == "" {
		log.Info("RabbitMQ URI is empty, event publishing is disabled")
		return Nop{}, nil
	}
	if exchange == "" {
		exchange = DefaultExchange
	}

	var conn *amqp.Connection
	err := retry.Do(ctx, retry.DefaultConfig(), func(context.Context) error {
		c, err := amqp.Dial(uri)
		if err != nil {
			if errors.Is(err, amqp.ErrCredentials) {
				return retry.Permanent(err)
			}
			log.Warn("RabbitMQ not reachable yet", zap.Error(err))
			return err
		}
		conn = c
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		exchange, // name
		"topic",  // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	log.Info("event publisher initialized", zap.String("exchange", exchange))
	return &AMQPPublisher{conn: conn, channel: channel, exchange: exchange, log: log}, nil
}

// PublishQuizCompleted sends ev with routing key RoutingQuizCompleted.
func (p *AMQPPublisher) PublishQuizCompleted(ctx context.Context, ev QuizCompleted) error {
	msg, err := quizCompletedMessage(ev)
	if err != nil {
		return err
	}
	err = p.channel.PublishWithContext(ctx,
		p.exchange,           // exchange
		RoutingQuizCompleted, // routing key
		false,                // mandatory
		false,                // immediate
		msg,
	)
	if err != nil {
		return fmt.Errorf("publish %s: %w", RoutingQuizCompleted, err)
	}
	p.log.Debug("published event",
		zap.String("routing_key", RoutingQuizCompleted),
		zap.String("session_id", ev.SessionID))
	return nil
}

func quizCompletedMessage(ev QuizCompleted) (amqp.Publishing, error) {
	body, err := json.Marshal(ev)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("marshal event: %w", err)
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		MessageId:    ev.SessionID,
		Body:         body,
		Headers: amqp.Table{
			"event_type": RoutingQuizCompleted,
			"user_id":    strconv.FormatInt(ev.UserID, 10),
			"level":      ev.Level,
		},
	}, nil
}

// Close closes the channel and the connection.
func (p *AMQPPublisher) Close() error {
	if p.channel != nil {
		if err := p.channel.Close(); err != nil {
			p.log.Warn("close RabbitMQ channel", zap.Error(err))
		}
	}
	if p.conn != nil {
		if err := p.conn.Close(); err != nil {
			return fmt.Errorf("close RabbitMQ connection: %w", err)
		}
	}
	return nil
}
