package handlers

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campus-assoc/backend/internal/events"
)

type fakeConn struct {
	mu       sync.Mutex
	writeErr error
	deadline time.Time
	messages [][]byte
	closed   bool
}

func (c *fakeConn) SetWriteDeadline(t time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deadline = t
	return nil
}

func (c *fakeConn) WriteMessage(_ int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.writeErr != nil {
		return c.writeErr
	}
	c.messages = append(c.messages, data)
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func TestBroadcastDropsFailedConnections(t *testing.T) {
	hub := NewWSHub("audit", nil, zap.NewNop())
	healthy := &fakeConn{}
	broken := &fakeConn{writeErr: errors.New("i/o timeout")}
	hub.add("u-1", healthy)
	hub.add("u-1", broken)
	hub.add("u-2", &fakeConn{writeErr: errors.New("broken pipe")})
	require.Equal(t, 3, hub.Connected())

	before := time.Now()
	hub.broadcast(events.Event{Type: "audit.critical", Payload: map[string]any{"entity_type": "Song"}})

	assert.Equal(t, 1, hub.Connected())
	require.Len(t, healthy.messages, 1)
	assert.Contains(t, string(healthy.messages[0]), `"audit.critical"`)
	assert.True(t, healthy.deadline.After(before))
	assert.False(t, healthy.closed)
	assert.True(t, broken.closed)

	hub.broadcast(events.Event{Type: "audit.critical"})
	assert.Len(t, healthy.messages, 2)
}

func TestRemoveIsIdempotent(t *testing.T) {
	hub := NewWSHub("audit", nil, zap.NewNop())
	first, second := &fakeConn{}, &fakeConn{}
	hub.add("u-1", first)
	hub.add("u-1", second)

	hub.remove("u-1", first)
	hub.remove("u-1", first)
	assert.Equal(t, 1, hub.Connected())
	assert.True(t, first.closed)
	assert.False(t, second.closed)

	hub.remove("u-1", second)
	assert.Zero(t, hub.Connected())
}

func TestConnectionGaugeFollowsHub(t *testing.T) {
	reg := prometheus.NewRegistry()
	hub := NewWSHub("audit", nil, zap.NewNop())
	hub.RegisterMetrics(reg)

	conn := &fakeConn{}
	hub.add("u-1", conn)
	hub.add("u-2", &fakeConn{})
	n, err := testutil.GatherAndCount(reg, "assoc_ws_audit_connections")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	mfs, err := reg.Gather()
	require.NoError(t, err)
	require.Len(t, mfs, 1)
	assert.Equal(t, 2.0, mfs[0].GetMetric()[0].GetGauge().GetValue())

	hub.remove("u-1", conn)
	mfs, err = reg.Gather()
	require.NoError(t, err)
	assert.Equal(t, 1.0, mfs[0].GetMetric()[0].GetGauge().GetValue())
}
