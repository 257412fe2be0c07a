package transport

import (
	"context"
	"time"

	"can-dashboard/src/helpers"
	"can-dashboard/src/logger"
	"can-dashboard/src/models"

	amqp "github.com/rabbitmq/amqp091-go"
)

// -----------------------------------------------------------------------------
// AMQPSubscriber consumes the backend's telemetry stream into a bounded
// delivery channel and exposes a strictly non-blocking TryReceive for the
// poller. The poller self-limits per tick; anything it does not drain stays
// queued on the broker side.
// -----------------------------------------------------------------------------

type AMQPSubscriber struct {
	Config *models.MConfig
	Logger *logger.Logger

	conn       *amqp.Connection
	channel    *amqp.Channel
	deliveries <-chan amqp.Delivery
}

// -----------------------------------------------------------------------------

// NewAMQPSubscriber dials the broker (with backoff) and declares the
// telemetry queue.
func NewAMQPSubscriber(cfg *models.MConfig, log *logger.Logger) (*AMQPSubscriber, error) {
	res, err := helpers.RetryWithBackoff("broker dial", cfg.Broker.ConnectRetries, time.Second,
		func() (interface{}, error) {
			return amqp.Dial(cfg.Broker.URL)
		})
	if err != nil {
		return nil, &helpers.TransportError{DashboardError: helpers.DashboardError{Message: "failed to connect to broker", Cause: err}}
	}
	conn := res.(*amqp.Connection)

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}

	// Bound the unacked backlog held client-side; the poller's per-tick
	// budget does the rest.
	if cfg.Broker.PrefetchCount > 0 {
		if err := ch.Qos(cfg.Broker.PrefetchCount, 0, false); err != nil {
			ch.Close()
			conn.Close()
			return nil, err
		}
	}

	_, err = ch.QueueDeclare(
		cfg.Broker.Queue,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	return &AMQPSubscriber{
		Config:  cfg,
		Logger:  log,
		conn:    conn,
		channel: ch,
	}, nil
}

// -----------------------------------------------------------------------------

// Start begins consuming. The consumer is torn down when ctx is cancelled.
func (s *AMQPSubscriber) Start(ctx context.Context) error {
	deliveries, err := s.channel.Consume(
		s.Config.Broker.Queue,
		"",    // consumer tag
		true,  // autoAck
		false, // exclusive
		false, // noLocal
		false, // noWait
		nil,
	)
	if err != nil {
		return err
	}
	s.deliveries = deliveries

	s.Logger.Info("Consuming telemetry from queue '%s'", s.Config.Broker.Queue)

	go func() {
		<-ctx.Done()
		if err := s.Close(); err != nil {
			s.Logger.Warning("Broker shutdown: %v", err)
		}
	}()

	return nil
}

// -----------------------------------------------------------------------------

// TryReceive returns the next queued message without blocking. ok is false
// when nothing is waiting; a non-nil error means one malformed message was
// dropped and the caller may keep polling.
func (s *AMQPSubscriber) TryReceive() (*models.MDecodedMessage, bool, error) {
	if s.deliveries == nil {
		return nil, false, nil
	}

	select {
	case d, open := <-s.deliveries:
		if !open {
			// Broker connection lost; the loop keeps ticking and simply
			// sees an empty queue.
			return nil, false, nil
		}
		msg, err := DecodeMessage(d.Body)
		if err != nil {
			return nil, false, err
		}
		return msg, true, nil
	default:
		return nil, false, nil
	}
}

// -----------------------------------------------------------------------------

func (s *AMQPSubscriber) Close() error {
	if s.channel != nil {
		s.channel.Close()
	}
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}
