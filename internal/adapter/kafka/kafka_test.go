package kafka

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/beach-status-etl/internal/config"
	"github.com/couchcryptid/beach-status-etl/internal/domain"
)

func TestSerializeToMessage(t *testing.T) {
	now := time.Date(2024, 7, 1, 15, 10, 0, 0, time.UTC)
	change := domain.StatusChange{
		ID:             "3b0c4a1e-0000-4000-8000-000000000001",
		BeachName:      "Leddy Beach South",
		PreviousStatus: domain.StatusGreen,
		Status:         domain.StatusRed,
		Note:           "Closed due to contamination",
		Date:           "Jul 1 2024",
		Coordinates:    &domain.Coordinates{Lat: 44.5018, Lon: -73.2527},
		ObservedAt:     now,
	}

	msg, err := serializeToMessage(change)
	require.NoError(t, err)

	assert.Equal(t, []byte("Leddy Beach South"), msg.Key)
	assert.Contains(t, string(msg.Value), `"status":"red"`)
	assert.Contains(t, string(msg.Value), `"previous_status":"green"`)
	require.Len(t, msg.Headers, 3)
	assert.Equal(t, "status", msg.Headers[0].Key)
	assert.Equal(t, []byte("red"), msg.Headers[0].Value)
	assert.Equal(t, "previous_status", msg.Headers[1].Key)
	assert.Equal(t, []byte("green"), msg.Headers[1].Value)
	assert.Equal(t, "observed_at", msg.Headers[2].Key)
	assert.Equal(t, []byte(now.Format(time.RFC3339)), msg.Headers[2].Value)

	var decoded domain.StatusChange
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, change, decoded)
}

func TestPublishChanges_EmptyIsNoop(t *testing.T) {
	p := NewPublisher(&config.Config{KafkaBrokers: []string{"127.0.0.1:1"}, KafkaTopic: "t"}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	defer p.Close()

	assert.NoError(t, p.PublishChanges(context.Background(), nil))
}
