package local_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/link-enricher/internal/enrichment"
	"github.com/JakeFAU/link-enricher/internal/storage/local"
)

var _ enrichment.BlobStore = (*local.BlobStore)(nil)

const dumpPath = "dumps/2024-05-06/link_enrichment_20240506_070809_b-42.json"

func readDump(t *testing.T, root, rel string) string {
	t.Helper()
	// #nosec G304 -- reads inside the test's temp directory.
	data, err := os.ReadFile(filepath.Join(root, rel))
	require.NoError(t, err)
	return string(data)
}

func TestNewPreparesDumpDirectory(t *testing.T) {
	t.Parallel()

	root := filepath.Join(t.TempDir(), "debug", "dumps")
	store, err := local.New(local.Config{BaseDir: root})
	require.NoError(t, err)
	require.NotNil(t, store)

	info, err := os.Stat(root)
	require.NoError(t, err)
	require.True(t, info.IsDir())

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	require.Empty(t, entries, "writability check must not leave files behind")
}

func TestNewRejectsUnusableDirectories(t *testing.T) {
	t.Parallel()

	file := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o600))

	tests := []struct {
		name    string
		baseDir string
		wantErr string
	}{
		{name: "empty", baseDir: "  ", wantErr: "base directory is required"},
		{name: "file", baseDir: file, wantErr: "base directory path is not a directory"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := local.New(local.Config{BaseDir: tt.baseDir})
			require.EqualError(t, err, tt.wantErr)
		})
	}
}

func TestNewRejectsReadOnlyDirectory(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced for root")
	}
	root := t.TempDir()
	// #nosec G302 -- read-only on purpose.
	require.NoError(t, os.Chmod(root, 0o500))
	// #nosec G302 -- restore so TempDir cleanup succeeds.
	t.Cleanup(func() { _ = os.Chmod(root, 0o700) })

	_, err := local.New(local.Config{BaseDir: root})
	require.ErrorContains(t, err, "base directory is not writable")
}

func TestPutObjectWritesBatchDump(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	store, err := local.New(local.Config{BaseDir: root})
	require.NoError(t, err)

	body := `{"batch_id":"b-42","claims":[]}`
	uri, err := store.PutObject(context.Background(), dumpPath, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	require.Equal(t, "file://"+filepath.Join(root, dumpPath), uri)
	require.JSONEq(t, body, readDump(t, root, dumpPath))
}

func TestPutObjectReplacesDumpAtomically(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	store, err := local.New(local.Config{BaseDir: root})
	require.NoError(t, err)

	for _, body := range []string{`{"attempt":1}`, `{"attempt":2}`} {
		_, err := store.PutObject(context.Background(), dumpPath, "application/json", strings.NewReader(body))
		require.NoError(t, err)
	}
	require.Equal(t, `{"attempt":2}`, readDump(t, root, dumpPath))

	entries, err := os.ReadDir(filepath.Dir(filepath.Join(root, dumpPath)))
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp files must not remain next to the dump")
}

func TestPutObjectRejectsBadPaths(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	store, err := local.New(local.Config{BaseDir: root})
	require.NoError(t, err)

	tests := map[string]string{
		"":                           "path is required",
		"../outside.json":            "path traversal detected",
		"dumps/../../outside.json":   "path traversal detected",
		"dumps/2024-05-06/../../../": "path traversal detected",
	}
	for path, wantErr := range tests {
		_, err := store.PutObject(context.Background(), path, "application/json", strings.NewReader("{}"))
		require.EqualError(t, err, wantErr, path)
	}

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	require.Empty(t, entries)
}
