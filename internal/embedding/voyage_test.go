package embedding

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbedReordersByIndex(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		var req embeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, InputQuery, req.InputType)
		assert.Equal(t, "voyage-3-lite", req.Model)
		w.Write([]byte(`{"data":[{"index":1,"embedding":[2]},{"index":0,"embedding":[1]}]}`))
	}))
	defer srv.Close()

	got, err := NewClient("key", "", WithURL(srv.URL)).Embed(context.Background(), []string{"a", "b"}, InputQuery)
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1}, {2}}, got)
}

func TestEmbedRetriesRateLimit(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"detail":"slow down"}`))
			return
		}
		w.Write([]byte(`{"data":[{"index":0,"embedding":[1,2]}]}`))
	}))
	defer srv.Close()

	got, err := NewClient("key", "", WithURL(srv.URL)).Embed(context.Background(), []string{"a"}, InputDocument)
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 2}}, got)
	assert.Equal(t, int32(2), calls.Load())
}

func TestEmbedClientErrorIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"detail":"bad key"}`))
	}))
	defer srv.Close()

	_, err := NewClient("key", "", WithURL(srv.URL)).Embed(context.Background(), []string{"a"}, InputDocument)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "bad key", apiErr.Detail)
	assert.Equal(t, int32(1), calls.Load())
}

type countingEmbedder struct{ batches [][]string }

func (c *countingEmbedder) Embed(_ context.Context, texts []string, _ string) ([][]float32, error) {
	c.batches = append(c.batches, texts)
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{float32(len(texts[i]))}
	}
	return out, nil
}

func TestEmbedBatch(t *testing.T) {
	e := &countingEmbedder{}
	var progress []int
	got, err := EmbedBatch(context.Background(), e, []string{"a", "bb", "ccc"}, InputDocument, 2, func(i, total int) {
		assert.Equal(t, 2, total)
		progress = append(progress, i)
	})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1}, {2}, {3}}, got)
	assert.Len(t, e.batches, 2)
	assert.Equal(t, []int{1, 2}, progress)
}
