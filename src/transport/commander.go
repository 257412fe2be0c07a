package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"can-dashboard/src/logger"
	"can-dashboard/src/models"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// -----------------------------------------------------------------------------
// AMQPCommander sends backend commands (connect_can, load_dbc,
// send_can_message) over a request/reply queue pair and waits for the
// correlated response.
// -----------------------------------------------------------------------------

const commandTimeout = 5 * time.Second

type AMQPCommander struct {
	Logger *logger.Logger

	conn         *amqp.Connection
	channel      *amqp.Channel
	commandQueue string
	replyQueue   string
	replies      <-chan amqp.Delivery
}

// -----------------------------------------------------------------------------

func NewAMQPCommander(cfg *models.MConfig, log *logger.Logger) (*AMQPCommander, error) {
	conn, err := amqp.Dial(cfg.Broker.URL)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}

	// Server-named exclusive reply queue, deleted with the connection
	replyQ, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	replies, err := ch.Consume(replyQ.Name, "", true, true, false, false, nil)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	return &AMQPCommander{
		Logger:       log,
		conn:         conn,
		channel:      ch,
		commandQueue: cfg.Broker.CommandQueue,
		replyQueue:   replyQ.Name,
		replies:      replies,
	}, nil
}

// -----------------------------------------------------------------------------

// Send publishes a command and blocks until the backend replies or the
// context (bounded by commandTimeout) expires.
func (c *AMQPCommander) Send(ctx context.Context, command string, args map[string]interface{}) (*models.MCommandResponse, error) {
	if args == nil {
		args = map[string]interface{}{}
	}

	body, err := json.Marshal(map[string]interface{}{
		"command": command,
		"args":    args,
	})
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	corrID := uuid.NewString()

	err = c.channel.PublishWithContext(ctx,
		"",
		c.commandQueue,
		false,
		false,
		amqp.Publishing{
			ContentType:   "application/json",
			CorrelationId: corrID,
			ReplyTo:       c.replyQueue,
			Body:          body,
		},
	)
	if err != nil {
		return nil, err
	}

	for {
		select {
		case d, open := <-c.replies:
			if !open {
				return nil, fmt.Errorf("command channel closed")
			}
			if d.CorrelationId != corrID {
				// Stale reply from an expired command
				continue
			}
			var resp models.MCommandResponse
			if err := json.Unmarshal(d.Body, &resp); err != nil {
				return nil, fmt.Errorf("unreadable command response: %w", err)
			}
			return &resp, nil

		case <-ctx.Done():
			return nil, fmt.Errorf("command '%s' timed out: %w", command, ctx.Err())
		}
	}
}

// -----------------------------------------------------------------------------

func (c *AMQPCommander) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
