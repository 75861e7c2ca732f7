package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, ch <-chan []byte) []byte {
	t.Helper()
	select {
	case msg, ok := <-ch:
		require.True(t, ok, "subscription closed")
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("no message received")
		return nil
	}
}

func TestSignalBusRoundTrip(t *testing.T) {
	c, _ := newTestClient(t)
	bus := NewSignalBus(c)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := bus.Subscribe(ctx, "liquidations")
	require.NoError(t, err)

	require.NoError(t, bus.Publish(ctx, "liquidations", []byte(`{"event":"opportunity"}`)))
	require.JSONEq(t, `{"event":"opportunity"}`, string(receive(t, ch)))
}

func TestSignalBusNamespacesChannels(t *testing.T) {
	c, _ := newTestClient(t)
	bus := NewSignalBus(c)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := bus.Subscribe(ctx, "liquidations")
	require.NoError(t, err)

	require.NoError(t, c.Underlying().Publish(ctx, "liquidations", "bare").Err())
	require.NoError(t, c.Underlying().Publish(ctx, "liqscope:liquidations", "prefixed").Err())
	require.Equal(t, "prefixed", string(receive(t, ch)))
}

func TestSignalBusPatternSubscribe(t *testing.T) {
	c, _ := newTestClient(t)
	bus := NewSignalBus(c)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := bus.Subscribe(ctx, "liq*")
	require.NoError(t, err)

	require.NoError(t, bus.Publish(ctx, "liquidations", []byte("x")))
	require.Equal(t, "x", string(receive(t, ch)))
}

func TestSignalBusClosesOnCancel(t *testing.T) {
	c, _ := newTestClient(t)
	bus := NewSignalBus(c)
	ctx, cancel := context.WithCancel(context.Background())

	ch, err := bus.Subscribe(ctx, "liquidations")
	require.NoError(t, err)
	cancel()

	require.Eventually(t, func() bool {
		select {
		case _, ok := <-ch:
			return !ok
		default:
			return false
		}
	}, 2*time.Second, 10*time.Millisecond)
}
