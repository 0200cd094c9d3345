package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/segmentio/kafka-go"

	"github.com/floorwatch/floorwatch/internal/domain"
	"github.com/floorwatch/floorwatch/internal/normalize"
)

// EventSink receives normalized events. The in-memory store implements it.
type EventSink interface {
	Upsert(events []*domain.Event) int
}

// Config holds the Kafka detection feed settings.
type Config struct {
	Brokers []string
	Topic   string
	GroupID string

	Normalize normalize.Options
}

// Consumer reads raw detection records from a Kafka topic, normalizes them
// and applies them to the event sink. Messages that fail to normalize are
// committed anyway; a malformed record must not wedge the partition.
type Consumer struct {
	reader  *kafka.Reader
	adapter *normalize.Adapter
	sink    EventSink
	log     *slog.Logger
	opts    normalize.Options

	// Optional hook invoked after each accepted event.
	OnEvent func(event *domain.Event)
}

func NewConsumer(cfg Config, adapter *normalize.Adapter, sink EventSink, log *slog.Logger) (*Consumer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("no brokers provided")
	}
	if cfg.Topic == "" {
		return nil, errors.New("no topic provided")
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		Topic:    cfg.Topic,
		GroupID:  cfg.GroupID,
		MinBytes: 1,
		MaxBytes: 10e6,
	})

	return &Consumer{
		reader:  reader,
		adapter: adapter,
		sink:    sink,
		log:     log,
		opts:    cfg.Normalize,
	}, nil
}

// Run consumes until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	c.log.Info("detection feed started",
		"topic", c.reader.Config().Topic,
		"group", c.reader.Config().GroupID)

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return fmt.Errorf("fetch message: %w", err)
		}

		c.handle(msg)

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			c.log.Warn("commit failed", "error", err)
		}
	}
}

func (c *Consumer) handle(msg kafka.Message) {
	var raw any
	if err := json.Unmarshal(msg.Value, &raw); err != nil {
		c.log.Warn("bad message json",
			"partition", msg.Partition, "offset", msg.Offset, "error", err)
		return
	}

	event, ok := c.adapter.AdaptRaw(raw, c.opts)
	if !ok {
		c.log.Debug("record rejected",
			"partition", msg.Partition, "offset", msg.Offset)
		return
	}

	applied := c.sink.Upsert([]*domain.Event{event})
	c.log.Debug("event ingested",
		"id", event.ID, "type", event.Type, "zone", event.ZoneID, "applied", applied)

	if applied > 0 && c.OnEvent != nil {
		c.OnEvent(event)
	}
}

func (c *Consumer) Close() error {
	if err := c.reader.Close(); err != nil {
		return fmt.Errorf("close reader: %w", err)
	}
	return nil
}
