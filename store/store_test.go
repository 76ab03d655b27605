package store

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStorage(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStorage(time.Hour)
	defer s.Close()

	_, err := s.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	val := []byte("order")
	require.NoError(t, s.Set(ctx, "k", val, 0))
	val[0] = 'X'

	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "order", string(got), "stored value is a copy")

	got[0] = 'Y'
	again, _ := s.Get(ctx, "k")
	assert.Equal(t, "order", string(again), "returned value is a copy")

	require.NoError(t, s.Delete(ctx, "k"))
	_, err = s.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStorageExpiry(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStorage(time.Hour)
	defer s.Close()

	require.NoError(t, s.Set(ctx, "short", []byte("x"), time.Millisecond))
	require.NoError(t, s.Set(ctx, "long", []byte("y"), time.Hour))
	time.Sleep(5 * time.Millisecond)

	_, err := s.Get(ctx, "short")
	assert.ErrorIs(t, err, ErrNotFound)

	s.prune(time.Now().Add(2 * time.Hour))
	assert.Equal(t, 0, s.Len())
}

func TestMemoryPubSub(t *testing.T) {
	ctx := context.Background()
	p := NewMemoryPubSub()

	var a, b atomic.Int32
	unsubA, err := p.Subscribe(ctx, "qpick.session.1", func([]byte) { a.Add(1) })
	require.NoError(t, err)
	_, err = p.Subscribe(ctx, "qpick.session.1", func(msg []byte) {
		if string(msg) == "changed" {
			b.Add(1)
		}
	})
	require.NoError(t, err)
	assert.Equal(t, 2, p.Subscribers("qpick.session.1"))

	require.NoError(t, p.Publish(ctx, "qpick.session.1", []byte("changed")))
	require.NoError(t, p.Publish(ctx, "qpick.session.2", []byte("other")))
	assert.Eventually(t, func() bool { return a.Load() == 1 && b.Load() == 1 }, time.Second, 5*time.Millisecond)

	unsubA()
	unsubA()
	assert.Equal(t, 1, p.Subscribers("qpick.session.1"))

	require.NoError(t, p.Publish(ctx, "qpick.session.1", []byte("changed")))
	assert.Eventually(t, func() bool { return b.Load() == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(1), a.Load())
}
