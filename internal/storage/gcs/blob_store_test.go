package gcs

import (
	"testing"

	"cloud.google.com/go/storage"
	"github.com/stretchr/testify/require"
)

func TestNewValidatesInput(t *testing.T) {
	t.Parallel()

	_, err := New(nil, Config{Bucket: "dumps"})
	require.EqualError(t, err, "storage client is required")

	_, err = New(&storage.Client{}, Config{Bucket: "  "})
	require.EqualError(t, err, "bucket name is required")

	store, err := New(&storage.Client{}, Config{Bucket: "dumps"})
	require.NoError(t, err)
	require.Equal(t, "dumps", store.bucket)
}
