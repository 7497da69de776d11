package events

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"stock-ledger/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleEvent() core.Event {
	return core.Event{
		ID:         "4f1c2d1e-0000-4000-8000-000000000001",
		Type:       core.EventDocumentStatus,
		OccurredAt: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
		Payload: map[string]any{
			"document_number": "PO-000001",
			"from":            "QUOTED",
			"to":              "PO_ISSUED",
		},
	}
}

func TestEncode(t *testing.T) {
	data, err := encode(sampleEvent())
	require.NoError(t, err)

	var wire map[string]any
	require.NoError(t, json.Unmarshal(data, &wire))
	assert.Equal(t, "purchase_document.status_changed", wire["type"])
	assert.Equal(t, "2024-03-01T10:00:00Z", wire["occurred_at"])
	assert.Equal(t, "PO-000001", wire["payload"].(map[string]any)["document_number"])

	back, err := decode(data)
	require.NoError(t, err)
	assert.Equal(t, sampleEvent().ID, back.ID)
	assert.True(t, sampleEvent().OccurredAt.Equal(back.OccurredAt))
}

func TestDecode_Malformed(t *testing.T) {
	_, err := decode([]byte("{not json"))
	assert.Error(t, err)
}

func TestNewRedisClient_BadURL(t *testing.T) {
	_, err := NewRedisClient(context.Background(), "not-a-redis-url")
	assert.Error(t, err)
}

// Runs against a real server when TEST_REDIS_URL is set.
func TestRedisPublisher_RoundTrip(t *testing.T) {
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set, skipping redis integration test")
	}
	ctx := context.Background()
	rdb, err := NewRedisClient(ctx, url)
	require.NoError(t, err)
	defer rdb.Close()

	channel := "stock-ledger.test." + time.Now().Format("150405.000000")
	pub := NewRedisPublisher(rdb, channel)
	defer rdb.Del(ctx, pub.recentKey())

	sub := rdb.Subscribe(ctx, channel)
	defer sub.Close()
	_, err = sub.Receive(ctx)
	require.NoError(t, err)

	require.NoError(t, pub.Publish(ctx, sampleEvent()))

	msg, err := sub.ReceiveMessage(ctx)
	require.NoError(t, err)
	got, err := decode([]byte(msg.Payload))
	require.NoError(t, err)
	assert.Equal(t, sampleEvent().ID, got.ID)

	recent, err := pub.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, core.EventDocumentStatus, recent[0].Type)
}
