package pubsub

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPublishWithoutClient(t *testing.T) {
	t.Parallel()

	_, err := New(nil).Publish(context.Background(), "topic", map[string]any{"batch_id": "b1"})
	require.ErrorIs(t, err, ErrNoTopic)
}

func TestAttributes(t *testing.T) {
	t.Parallel()

	require.Equal(t, map[string]string{
		"event":    "link_enrichment.completed",
		"batch_id": "b1",
	}, attributes(map[string]any{"batch_id": "b1", "total_links": 3}))

	require.Equal(t, map[string]string{"event": "link_enrichment.completed"}, attributes(struct{}{}))
}
