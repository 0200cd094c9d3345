package feed

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/floorwatch/floorwatch/internal/domain"
	"github.com/floorwatch/floorwatch/internal/normalize"
	"github.com/floorwatch/floorwatch/internal/world"
)

type captureSink struct {
	events []*domain.Event
}

func (c *captureSink) Upsert(events []*domain.Event) int {
	c.events = append(c.events, events...)
	return len(events)
}

func newTestConsumer(t *testing.T, sink EventSink) *Consumer {
	t.Helper()

	zm := &world.ZoneMapFile{
		MapWidthPx:       1000,
		MapHeightPx:      1000,
		WorldWidthMeters: 40,
		WorldDepthMeters: 40,
		Zones: []world.ZoneDef{
			{
				ZoneID:  "sales-floor",
				Polygon: [][]float64{{0, 0}, {1000, 0}, {1000, 1000}, {0, 1000}},
			},
		},
	}
	w, err := world.New(zm, nil, world.Options{})
	require.NoError(t, err)

	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	adapter := normalize.NewAdapterWithClock(w, func() time.Time { return now })

	return &Consumer{
		adapter: adapter,
		sink:    sink,
		log:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		opts:    normalize.Options{FallbackStoreID: "store-main"},
	}
}

func TestHandleAcceptsValidRecord(t *testing.T) {
	sink := &captureSink{}
	c := newTestConsumer(t, sink)

	var notified *domain.Event
	c.OnEvent = func(event *domain.Event) { notified = event }

	c.handle(kafka.Message{Value: []byte(`{
		"id": "e1",
		"ts": "2024-06-01T11:59:00Z",
		"x": 0.5,
		"y": 0.5,
		"type": "fall"
	}`)})

	require.Len(t, sink.events, 1)
	assert.Equal(t, "e1", sink.events[0].ID)
	assert.Equal(t, domain.EventFall, sink.events[0].Type)
	assert.Equal(t, "store-main", sink.events[0].StoreID)
	require.NotNil(t, notified)
	assert.Equal(t, "e1", notified.ID)
}

func TestHandleSkipsBadJSON(t *testing.T) {
	sink := &captureSink{}
	c := newTestConsumer(t, sink)

	c.handle(kafka.Message{Value: []byte(`{not json`)})

	assert.Empty(t, sink.events)
}

func TestHandleSkipsRejectedRecord(t *testing.T) {
	sink := &captureSink{}
	c := newTestConsumer(t, sink)

	// No timestamp and no position: the normalizer drops it.
	c.handle(kafka.Message{Value: []byte(`{"type": "fall"}`)})

	assert.Empty(t, sink.events)
}

func TestNewConsumerValidation(t *testing.T) {
	_, err := NewConsumer(Config{}, nil, nil, nil)
	assert.Error(t, err)

	_, err = NewConsumer(Config{Brokers: []string{"localhost:9092"}}, nil, nil, nil)
	assert.Error(t, err)
}
