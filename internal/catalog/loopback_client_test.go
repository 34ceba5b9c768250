package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newLoopbackTS(t *testing.T, h http.HandlerFunc) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	return ts
}

func fastOpts() LoopbackOptions {
	return LoopbackOptions{
		Timeout: 500 * time.Millisecond,
		Retries: 2,
		Backoff: time.Millisecond,
		Log:     zap.NewNop(),
	}
}

func TestLoopback_FetchCategory(t *testing.T) {
	ts := newLoopbackTS(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/plugin_store/categories/3", r.URL.Path)
		_ = json.NewEncoder(w).Encode(Category{ID: 3, Name: "Reverb", Products: []Product{{ID: 1}}})
	})

	c := NewLoopbackClient(ts.URL+APIPrefix+"/", fastOpts())
	cat, err := c.FetchCategory(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, "Reverb", cat.Name)
	assert.Equal(t, []int{1}, productIDs(cat.Products))
}

func TestLoopback_NotFoundIsNotRetried(t *testing.T) {
	var calls int32
	ts := newLoopbackTS(t, func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "nope", http.StatusNotFound)
	})

	c := NewLoopbackClient(ts.URL, fastOpts())
	_, err := c.FetchProduct(context.Background(), 1)

	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, err, ErrRemote)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestLoopback_RetriesServerErrors(t *testing.T) {
	var calls int32
	ts := newLoopbackTS(t, func(w http.ResponseWriter, _ *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(Product{ID: 4, Name: "Comp"})
	})

	reg := prometheus.NewRegistry()
	opts := fastOpts()
	opts.Metrics = NewSyncMetrics(reg)

	c := NewLoopbackClient(ts.URL, opts)
	p, err := c.FetchProduct(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, "Comp", p.Name)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))

	assert.Equal(t, 2.0, testutil.ToFloat64(opts.Metrics.Attempts.WithLabelValues(http.MethodGet, resultError)))
	assert.Equal(t, 1.0, testutil.ToFloat64(opts.Metrics.Attempts.WithLabelValues(http.MethodGet, resultOK)))
}

func TestLoopback_RetriesAreBounded(t *testing.T) {
	var calls int32
	ts := newLoopbackTS(t, func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	})

	c := NewLoopbackClient(ts.URL, fastOpts())
	err := c.PushCategoryUpdate(context.Background(), 1, CategoryInput{Name: "x"})

	var re *RemoteError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, http.StatusInternalServerError, re.Status)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls), "first attempt plus two retries")
}

func TestLoopback_TimeoutIsRemoteError(t *testing.T) {
	release := make(chan struct{})
	ts := newLoopbackTS(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	opts := fastOpts()
	opts.Timeout = 20 * time.Millisecond
	opts.Retries = 0

	c := NewLoopbackClient(ts.URL, opts)
	_, err := c.FetchCategory(context.Background(), 1)

	var re *RemoteError
	require.ErrorAs(t, err, &re)
	assert.Zero(t, re.Status)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestLoopback_PushSendsIDs(t *testing.T) {
	var got CategoryInput
	ts := newLoopbackTS(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode([]Category{})
	})

	c := NewLoopbackClient(ts.URL, fastOpts())
	require.NoError(t, c.PushCategoryUpdate(context.Background(), 2, CategoryInput{Name: "Delay", Products: []int{1, 5}}))
	assert.Equal(t, CategoryInput{Name: "Delay", Products: []int{1, 5}}, got)
}

func TestLoopback_FetchProductsSkipsMissing(t *testing.T) {
	ts := newLoopbackTS(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/products/1":
			_ = json.NewEncoder(w).Encode(Product{ID: 1})
		case "/products/3":
			_ = json.NewEncoder(w).Encode(Product{ID: 3})
		default:
			http.NotFound(w, r)
		}
	})

	c := NewLoopbackClient(ts.URL, fastOpts())
	ps, err := c.FetchProducts(context.Background(), []int{3, 2, 1})
	require.NoError(t, err)
	assert.Equal(t, []int{3, 1}, productIDs(ps))
}

func TestLoopback_CanceledContextIsRemoteError(t *testing.T) {
	ts := newLoopbackTS(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewLoopbackClient(ts.URL, fastOpts())
	_, err := c.FetchCategory(ctx, 1)

	var re *RemoteError
	require.ErrorAs(t, err, &re)
	assert.ErrorIs(t, err, context.Canceled)
}
