package rabbitmq

import (
	"encoding/json"
	"fmt"
	"time"

	"recipebox/internal/logging"

	amqp "github.com/streadway/amqp"
)

// QueueName is the durable queue every domain event is routed to.
const QueueName = "recipe_events"

// Event types.
const (
	EventRecipeCreated = "recipe.created"
	EventRecipeDeleted = "recipe.deleted"
	EventReviewCreated = "review.created"
)

// Event is a domain event describing a completed write.
type Event struct {
	Type       string         `json:"type"`
	RecipeID   string         `json:"recipeId"`
	ReviewID   string         `json:"reviewId,omitempty"`
	UserID     string         `json:"userId,omitempty"`
	OccurredAt time.Time      `json:"occurredAt"`
	Data       map[string]any `json:"data,omitempty"`
}

// DecodeEvent parses a message body produced by Publish.
func DecodeEvent(body []byte) (Event, error) {
	var event Event
	if err := json.Unmarshal(body, &event); err != nil {
		return Event{}, fmt.Errorf("failed to decode event: %w", err)
	}
	if event.Type == "" {
		return Event{}, fmt.Errorf("event has no type")
	}
	return event, nil
}

// Client holds the RabbitMQ connection and channel.
type Client struct {
	conn    *amqp.Connection
	channel *amqp.Channel
}

// Config holds RabbitMQ connection details.
type Config struct {
	URL string
}

// NewClient connects to RabbitMQ, opens a channel and declares QueueName.
func NewClient(cfg Config) (*Client, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if _, err := declareQueue(ch); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	logging.Info().Str("queue", QueueName).Msg("RabbitMQ client connected")

	return &Client{
		conn:    conn,
		channel: ch,
	}, nil
}

func declareQueue(ch *amqp.Channel) (amqp.Queue, error) {
	q, err := ch.QueueDeclare(
		QueueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return amqp.Queue{}, fmt.Errorf("failed to declare %s: %w", QueueName, err)
	}
	return q, nil
}

// Close closes the RabbitMQ channel and connection.
func (c *Client) Close() error {
	var errs []error
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close channel: %w", err))
		}
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close connection: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("errors closing RabbitMQ client: %v", errs)
	}
	return nil
}

// Publish sends event to QueueName as a persistent JSON message.
func (c *Client) Publish(event Event) error {
	if c.channel == nil {
		return fmt.Errorf("RabbitMQ channel is not available")
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	err = c.channel.Publish(
		"",        // default exchange
		QueueName, // routing key
		false,     // mandatory
		false,     // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Type:         event.Type,
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    event.OccurredAt,
		})
	if err != nil {
		return fmt.Errorf("failed to publish %s: %w", event.Type, err)
	}

	logging.Debug().Str("type", event.Type).Str("recipe_id", event.RecipeID).Msg("event published")
	return nil
}

// ConsumeEvents starts a goroutine delivering decoded events to handler.
// Messages are acked when handler returns nil. Undecodable messages are
// dropped; handler errors requeue the message.
func (c *Client) ConsumeEvents(handler func(Event) error) error {
	if c.channel == nil {
		return fmt.Errorf("RabbitMQ channel is not available for consumption")
	}

	queue, err := declareQueue(c.channel)
	if err != nil {
		return err
	}

	msgs, err := c.channel.Consume(
		queue.Name,
		"",    // consumer tag
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	go func() {
		for msg := range msgs {
			handleDelivery(msg, handler)
		}
	}()
	return nil
}

// acknowledger is the subset of amqp.Delivery used to settle a message.
type acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

func handleDelivery(msg amqp.Delivery, handler func(Event) error) {
	settle(&msg, msg.DeliveryTag, msg.Body, handler)
}

func settle(ack acknowledger, tag uint64, body []byte, handler func(Event) error) {
	event, err := DecodeEvent(body)
	if err != nil {
		logging.Warn().Err(err).Uint64("tag", tag).Msg("dropping undecodable event")
		if nackErr := ack.Nack(false, false); nackErr != nil {
			logging.Error().Err(nackErr).Uint64("tag", tag).Msg("failed to nack event")
		}
		return
	}

	if err := handler(event); err != nil {
		logging.Warn().Err(err).Uint64("tag", tag).Str("type", event.Type).Msg("event handler failed, requeueing")
		if nackErr := ack.Nack(false, true); nackErr != nil {
			logging.Error().Err(nackErr).Uint64("tag", tag).Msg("failed to nack event")
		}
		return
	}

	if ackErr := ack.Ack(false); ackErr != nil {
		logging.Error().Err(ackErr).Uint64("tag", tag).Msg("failed to ack event")
	}
}

// LogEvent is a consumer handler that records each event in the log.
func LogEvent(event Event) error {
	logging.Info().
		Str("type", event.Type).
		Str("recipe_id", event.RecipeID).
		Str("review_id", event.ReviewID).
		Str("user_id", event.UserID).
		Time("occurred_at", event.OccurredAt).
		Msg("domain event received")
	return nil
}
