package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/JakeFAU/link-enricher/internal/api"
	"github.com/JakeFAU/link-enricher/internal/enricher"
)

// readClaims loads {"claims": [...]} or a bare claim array from a file or stdin.
func readClaims(input string) (api.EnrichRequest, error) {
	var (
		raw []byte
		err error
	)
	if input == "-" {
		raw, err = io.ReadAll(os.Stdin)
	} else {
		raw, err = os.ReadFile(input)
	}
	if err != nil {
		return api.EnrichRequest{}, fmt.Errorf("read input: %w", err)
	}
	return parseClaims(raw)
}

func parseClaims(raw []byte) (api.EnrichRequest, error) {
	var req api.EnrichRequest
	trimmed := bytes.TrimSpace(raw)
	if bytes.HasPrefix(trimmed, []byte("[")) {
		if err := json.Unmarshal(trimmed, &req.Claims); err != nil {
			return api.EnrichRequest{}, fmt.Errorf("decode claims: %w", err)
		}
	} else if err := json.Unmarshal(trimmed, &req); err != nil {
		return api.EnrichRequest{}, fmt.Errorf("decode claims: %w", err)
	}
	if len(req.Claims) == 0 {
		return api.EnrichRequest{}, enricher.ErrNoClaims
	}
	return req, nil
}
