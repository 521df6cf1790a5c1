package sender

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keybeat/keybeat/pkg/activity"
)

func smallBatch(n int) []activity.Record {
	recs := make([]activity.Record, n)
	for i := range recs {
		recs[i] = activity.Record{Directory: "/work/app", Name: "app", Keystrokes: i + 1}
	}
	return recs
}

func TestSubmitBatch(t *testing.T) {
	var got batchRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/keystrokes/batch", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &got))
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, `{}`)
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, APIKey: "test-key"})
	err := c.SubmitBatch(context.Background(), smallBatch(2))
	require.NoError(t, err)
	require.Len(t, got.Records, 2)
	assert.Equal(t, 1, got.Records[0].Keystrokes)
	assert.Equal(t, 2, got.Records[1].Keystrokes)
}

func TestSubmitBatchCompressesLargePayloads(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "zstd", r.Header.Get("Content-Encoding"))

		compressed, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		dec, err := zstd.NewReader(nil)
		require.NoError(t, err)
		defer dec.Close()
		payload, err := dec.DecodeAll(compressed, nil)
		require.NoError(t, err)

		var req batchRequest
		require.NoError(t, json.Unmarshal(payload, &req))
		assert.Len(t, req.Records, 5)
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, `{}`)
	}))
	defer srv.Close()

	recs := smallBatch(5)
	for i := range recs {
		recs[i].Name = strings.Repeat("padding-", 64)
	}

	c := NewClient(Config{BaseURL: srv.URL, APIKey: "test-key"})
	require.NoError(t, c.SubmitBatch(context.Background(), recs))
}

func TestSubmitBatchUnauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, APIKey: "stale"})
	err := c.SubmitBatch(context.Background(), smallBatch(1))
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestSubmitBatchServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, APIKey: "k"})
	err := c.SubmitBatch(context.Background(), smallBatch(1))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnauthorized)
	assert.Contains(t, err.Error(), "status 500")
}
