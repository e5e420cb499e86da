package worker

import (
	"admissions-portal/internal/config"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

// VerificationCommand is the message published for every dispatched application.
type VerificationCommand struct {
	ApplicationID string    `json:"application_id"`
	RequestedAt   time.Time `json:"requested_at"`
}

// KafkaDispatcher publishes verification commands so they survive a process restart.
type KafkaDispatcher struct {
	writer *kafka.Writer
}

func NewKafkaDispatcher(cfg config.Kafka) *KafkaDispatcher {
	return &KafkaDispatcher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(cfg.Brokers...),
			Topic:                  cfg.Topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireAll,
			AllowAutoTopicCreation: true,
		},
	}
}

func (d *KafkaDispatcher) Dispatch(ctx context.Context, applicationID string) error {
	payload, err := json.Marshal(VerificationCommand{
		ApplicationID: applicationID,
		RequestedAt:   time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("encode verification command: %w", err)
	}

	// keyed by application so commands for one application stay ordered
	return d.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(applicationID),
		Value: payload,
	})
}

func (d *KafkaDispatcher) Close() error {
	return d.writer.Close()
}

// KafkaConsumer feeds published commands into a Pool and commits each message only after its run finished.
type KafkaConsumer struct {
	reader  *kafka.Reader
	pool    *Pool
	logger  *slog.Logger
	backoff time.Duration
}

func NewKafkaConsumer(cfg config.Kafka, pool *Pool, logger *slog.Logger) *KafkaConsumer {
	if logger == nil {
		logger = slog.Default()
	}
	return &KafkaConsumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:  cfg.Brokers,
			GroupID:  cfg.GroupID,
			Topic:    cfg.Topic,
			MinBytes: 1,
			MaxBytes: 1 << 20,
		}),
		pool:    pool,
		logger:  logger.With(slog.String("component", "verification-consumer")),
		backoff: 500 * time.Millisecond,
	}
}

// Run consumes until ctx is cancelled.
func (c *KafkaConsumer) Run(ctx context.Context) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return fmt.Errorf("fetch verification command: %w", err)
		}

		if err := c.Handle(ctx, msg); err != nil {
			// left uncommitted, redelivered to the group after restart
			return err
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			return fmt.Errorf("commit verification command: %w", err)
		}
	}
}

// Handle runs one command to completion. It returns an error only when ctx ends first.
func (c *KafkaConsumer) Handle(ctx context.Context, msg kafka.Message) error {
	var cmd VerificationCommand
	if err := json.Unmarshal(msg.Value, &cmd); err != nil || cmd.ApplicationID == "" {
		c.logger.ErrorContext(ctx, "dropping malformed verification command",
			slog.Int64("offset", msg.Offset),
			slog.String("value", string(msg.Value)),
		)
		return nil
	}

	for {
		done, err := c.pool.Submit(cmd.ApplicationID)
		switch {
		case err == nil:
			select {
			case res := <-done:
				if res.Err != nil {
					c.logger.InfoContext(ctx, "verification command finished with error",
						slog.String("application_id", cmd.ApplicationID),
						slog.String("error", res.Err.Error()),
					)
				}
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		case errors.Is(err, ErrQueueFull):
			select {
			case <-time.After(c.backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		default:
			return err
		}
	}
}

func (c *KafkaConsumer) Close() error {
	return c.reader.Close()
}
