package audit

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFakeES(t *testing.T, handle func(w http.ResponseWriter, r *http.Request)) *Indexer {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		handle(w, r)
	}))
	t.Cleanup(srv.Close)

	client, err := NewClient(srv.URL, "", "")
	require.NoError(t, err)
	return &Indexer{ES: client, Index: "order_history"}
}

func TestIndexHistory(t *testing.T) {
	var (
		method, path string
		got          Entry
	)
	ix := newFakeES(t, func(w http.ResponseWriter, r *http.Request) {
		method, path = r.Method, r.URL.Path
		b, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(b, &got)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"result":"created"}`))
	})

	e := Entry{ID: "h-1", OrderID: "o-1", Status: "CANCELLED", Source: "customer", CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	require.NoError(t, ix.IndexHistory(context.Background(), e))

	assert.Equal(t, http.MethodPut, method)
	assert.Equal(t, "/order_history/_doc/h-1", path)
	assert.Equal(t, e, got)
}

func TestIndexHistory_ErrorStatus(t *testing.T) {
	ix := newFakeES(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"mapper_parsing_exception"}`))
	})

	err := ix.IndexHistory(context.Background(), Entry{ID: "h-2"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mapper_parsing_exception")
}

func TestHistory(t *testing.T) {
	ix := newFakeES(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/order_history/_search", r.URL.Path)
		var q map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&q))
		assert.EqualValues(t, 10, q["from"])
		assert.EqualValues(t, 50, q["size"])
		_, _ = w.Write([]byte(`{"hits":{"hits":[{"_source":{"id":"h-1","order_id":"o-1","status":"PENDING"}},{"_source":{"id":"h-2","order_id":"o-1","status":"CANCELLED"}}]}}`))
	})

	got, err := ix.History(context.Background(), "o-1", 10, 50)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "CANCELLED", got[1].Status)
}
