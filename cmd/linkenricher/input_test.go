package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/link-enricher/internal/config"
	"github.com/JakeFAU/link-enricher/internal/enricher"
	"github.com/JakeFAU/link-enricher/internal/enrichment"
)

func TestParseClaimsAcceptsBothShapes(t *testing.T) {
	t.Parallel()

	wrapped, err := parseClaims([]byte(`{"claims":[{"text":"a","urls":["https://x.test"]}]}`))
	require.NoError(t, err)
	require.Len(t, wrapped.Claims, 1)
	require.Equal(t, []string{"https://x.test"}, wrapped.Claims[0].URLs)

	bare, err := parseClaims([]byte("  [{\"text\":\"b\"},{\"text\":\"c\"}]\n"))
	require.NoError(t, err)
	require.Len(t, bare.Claims, 2)
}

func TestParseClaimsRejectsEmptyAndInvalid(t *testing.T) {
	t.Parallel()

	_, err := parseClaims([]byte(`{"claims":[]}`))
	require.ErrorIs(t, err, enricher.ErrNoClaims)

	_, err = parseClaims([]byte(`[]`))
	require.ErrorIs(t, err, enricher.ErrNoClaims)

	_, err = parseClaims([]byte(`{nope`))
	require.ErrorContains(t, err, "decode claims")
}

func TestReadClaimsFromFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "claims.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"text":"a"}]`), 0o600))

	req, err := readClaims(path)
	require.NoError(t, err)
	require.Len(t, req.Claims, 1)

	_, err = readClaims(filepath.Join(t.TempDir(), "missing.json"))
	require.ErrorContains(t, err, "read input")
}

// Claims without links never reach a backend, so the whole pipeline can run
// offline.
func TestRunOnceWithoutLinks(t *testing.T) {
	t.Parallel()

	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Enricher.Workers = 1

	svc, err := build(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	defer svc.close()

	path := filepath.Join(t.TempDir(), "claims.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"claims":[{"text":"no sources","entities":["IBGE"]}]}`), 0o600))

	var out bytes.Buffer
	require.NoError(t, runOnce(context.Background(), svc, path, &out, zap.NewNop()))

	var result enrichment.BatchResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &result))
	require.NotEmpty(t, result.BatchID)
	require.Len(t, result.EnrichedClaims, 1)
	require.Zero(t, result.TotalLinksProcessed)
	require.Equal(t, "processed 0 links. 0 successful extractions. 0 failures.", result.Notes)
}
