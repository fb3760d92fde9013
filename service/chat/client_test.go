package chat

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClientEnqueueAfterClose(t *testing.T) {
	req := require.New(t)
	c := NewClient("conn-1", 1, nil, 4)
	c.Close()
	req.ErrorIs(c.Enqueue([]byte("x")), errClientClosed)
}

func TestClientEnqueueFullQueue(t *testing.T) {
	req := require.New(t)
	c := NewClient("conn-1", 1, nil, 2)
	req.NoError(c.Enqueue([]byte("a")))
	req.NoError(c.Enqueue([]byte("b")))
	// stalled reader: queue full counts as a transport failure
	req.ErrorIs(c.Enqueue([]byte("c")), errQueueFull)
}

func TestClientCloseIdempotent(t *testing.T) {
	req := require.New(t)
	c := NewClient("conn-1", 1, nil, 4)
	req.NoError(c.Enqueue([]byte("a")))
	c.Close()
	c.Close()
	req.True(c.isClosed())

	// a closed channel still drains what was queued
	payload, ok := <-c.Send
	req.True(ok)
	req.Equal([]byte("a"), payload)
	_, ok = <-c.Send
	req.False(ok)
}
