package clients

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mtga-analyzer/backend/internal/catalog"
)

func TestDraftSets(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sets", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"code":"MH3","name":"Modern Horizons 3"}]`))
	}))
	defer srv.Close()

	c := NewDraftClient(testUpstreamConfig(srv.URL), srv.Client(), nil)

	data, err := c.Sets(context.Background())
	require.NoError(t, err)
	assert.JSONEq(t, `[{"code":"MH3","name":"Modern Horizons 3"}]`, string(data))
}

func TestDraftSetIcon(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sets/mh3/icon", r.URL.Path)
		w.Header().Set("Content-Type", "image/svg+xml")
		_, _ = w.Write([]byte("<svg/>"))
	}))
	defer srv.Close()

	c := NewDraftClient(testUpstreamConfig(srv.URL), srv.Client(), nil)

	asset, err := c.SetIcon(context.Background(), "mh3")
	require.NoError(t, err)
	assert.Equal(t, "image/svg+xml", asset.ContentType)
	assert.Equal(t, "<svg/>", string(asset.Body))
}

func TestDraftSetIcon_EscapesCode(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sets/a%2Fb/icon", r.URL.EscapedPath())
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewDraftClient(testUpstreamConfig(srv.URL), srv.Client(), nil)

	_, err := c.SetIcon(context.Background(), "a/b")
	status, ok := catalog.StatusOf(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestDraft_DoesNotRetry429(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewDraftClient(testUpstreamConfig(srv.URL), srv.Client(), nil)

	_, err := c.Sets(context.Background())
	status, ok := catalog.StatusOf(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusTooManyRequests, status)
	assert.Equal(t, int32(1), calls.Load())
}

func TestDraftProbe(t *testing.T) {
	t.Parallel()

	c := NewDraftClient(testUpstreamConfig("http://127.0.0.1:1"), nil, nil)
	p := c.Probe(context.Background())
	assert.True(t, p.OK)
	assert.Equal(t, "draft-assistant", p.Name)
}
