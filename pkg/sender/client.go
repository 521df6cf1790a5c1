// Package sender delivers batches of activity records to the remote
// collector over authenticated HTTP.
package sender

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/keybeat/keybeat/pkg/activity"
)

// compressionThreshold is the minimum payload size to compress.
// Below this, compression overhead isn't worth it.
const compressionThreshold = 1024 // 1KB

const defaultTimeout = 30 * time.Second

// ErrUnauthorized is returned when the collector returns 401 or 403.
// This typically means the API key is invalid or expired.
var ErrUnauthorized = errors.New("unauthorized")

// Config holds the collector endpoint and credentials.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Client is a configured HTTP client for submitting record batches.
type Client struct {
	cfg        Config
	httpClient *http.Client
	encoder    *zstd.Encoder
}

// NewClient creates a new authenticated batch client.
func NewClient(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	encoder, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))

	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		encoder:    encoder,
	}
}

// batchRequest is the body for POST /api/v1/keystrokes/batch.
type batchRequest struct {
	Records []activity.Record `json:"records"`
}

// SubmitBatch submits a batch of records to the collector. Failures
// propagate to the caller; the client does not retry.
func (c *Client) SubmitBatch(ctx context.Context, records []activity.Record) error {
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/keystrokes/batch", batchRequest{Records: records}, nil); err != nil {
		return fmt.Errorf("batch submit failed: %w", err)
	}
	return nil
}

// doJSON performs an HTTP request with JSON body and parses the JSON
// response. Payloads larger than 1KB are compressed with zstd.
func (c *Client) doJSON(ctx context.Context, method, path string, reqBody, respBody interface{}) error {
	var bodyReader io.Reader
	var contentEncoding string

	if reqBody != nil {
		payload, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}

		if len(payload) >= compressionThreshold {
			compressed := c.encoder.EncodeAll(payload, make([]byte, 0, len(payload)/2))
			bodyReader = bytes.NewReader(compressed)
			contentEncoding = "zstd"
		} else {
			bodyReader = bytes.NewReader(payload)
		}
	}

	url := c.cfg.BaseURL + path
	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
		if contentEncoding != "" {
			req.Header.Set("Content-Encoding", contentEncoding)
		}
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return fmt.Errorf("%w: status %d: %s", ErrUnauthorized, resp.StatusCode, string(body))
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("http request failed with status %d: %s", resp.StatusCode, string(body))
	}

	if respBody != nil {
		if err := json.Unmarshal(body, respBody); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}

	return nil
}
