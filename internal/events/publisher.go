package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

type EventType string

const (
	RUN_COMPLETED EventType = "RUN_COMPLETED"
	RUN_FAILED    EventType = "RUN_FAILED"
)

// RunEvent is published after each dispatch so the downstream composer
// pipeline can pick up fresh artifacts without polling the API.
type RunEvent struct {
	Type         EventType `json:"type"`
	ProgramID    string    `json:"program_id"`
	Backend      string    `json:"backend"`
	ArtifactPath string    `json:"artifact_path,omitempty"`
	ErrorKind    string    `json:"error_kind,omitempty"`
	FinishedAt   time.Time `json:"finished_at"`
}

const publishTimeout = 5 * time.Second

// Publisher sends run events to RabbitMQ. Fire-and-forget: a publish
// failure is logged and dropped, never surfaced to the execution path.
type Publisher struct {
	logger *slog.Logger
	conn   *amqp.Connection
	ch     *amqp.Channel
	queue  amqp.Queue
}

func NewPublisher(logger *slog.Logger, url, queueName string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	q, err := ch.QueueDeclare(
		queueName, // name
		true,      // durable
		false,     // delete when unused
		false,     // exclusive
		false,     // no-wait
		nil,       // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare queue: %w", err)
	}

	return &Publisher{
		logger: logger,
		conn:   conn,
		ch:     ch,
		queue:  q,
	}, nil
}

func (p *Publisher) Publish(ev RunEvent) {
	body, err := json.Marshal(ev)
	if err != nil {
		p.logger.Error("failed to marshal run event", "err", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	err = p.ch.PublishWithContext(ctx,
		"",
		p.queue.Name,
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		})
	if err != nil {
		p.logger.Error("failed to publish run event",
			"type", ev.Type,
			"program", ev.ProgramID,
			"err", err)
	}
}

func (p *Publisher) Close() {
	if p.ch != nil {
		p.ch.Close()
	}
	if p.conn != nil {
		p.conn.Close()
	}
}
