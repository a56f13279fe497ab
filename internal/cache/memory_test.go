package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_SetGet(t *testing.T) {
	t.Parallel()

	m := NewMemory(time.Hour, 0)
	t.Cleanup(func() { _ = m.Close() })

	_, ok, err := m.Get(context.Background(), "Opt-XLN")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, m.Set(context.Background(), "Opt-XLN", []byte(`{"name":"Opt"}`)))

	got, ok, err := m.Get(context.Background(), "Opt-XLN")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `{"name":"Opt"}`, string(got))
}

func TestMemory_Expiry(t *testing.T) {
	t.Parallel()

	m := NewMemory(20*time.Millisecond, 0)
	t.Cleanup(func() { _ = m.Close() })

	require.NoError(t, m.Set(context.Background(), "k", []byte("v")))
	time.Sleep(60 * time.Millisecond)

	_, ok, err := m.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemory_Capacity(t *testing.T) {
	t.Parallel()

	m := NewMemory(time.Hour, 2)
	t.Cleanup(func() { _ = m.Close() })

	for i := range 5 {
		require.NoError(t, m.Set(context.Background(), fmt.Sprintf("k%d", i), []byte("v")))
	}
	assert.Equal(t, 2, m.Len())
}

func TestMemory_Probe(t *testing.T) {
	t.Parallel()

	m := NewMemory(time.Hour, 0)
	t.Cleanup(func() { _ = m.Close() })

	p := m.Probe(context.Background())
	assert.True(t, p.OK)
	assert.Equal(t, "memory", p.Name)
}
