package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEngineDelegatesToServices(t *testing.T) {
	gw := newFakeGateway()
	gw.setAccount(aliceAddr, 1000, 100, hf(2000))
	engine := NewEngine(gw, EngineConfig{BatchConcurrency: 2}, nil, discardLogger())
	ctx := context.Background()

	reserves, err := engine.ListReserves(ctx)
	require.NoError(t, err)
	require.Len(t, reserves, 3)

	snap, err := engine.Snapshot(ctx, alice)
	require.NoError(t, err)
	require.False(t, snap.IsLiquidatable)
	require.False(t, snap.IsAtRisk)

	opp, err := engine.Analyze(ctx, alice)
	require.NoError(t, err)
	require.Nil(t, opp)

	results := engine.AnalyzeBatch(ctx, []string{alice, "0x123"})
	require.Len(t, results, 2)
	require.Equal(t, alice, results[0].Address)
	require.Empty(t, results[0].Error)
	require.Equal(t, "0x123", results[1].Address)
	require.NotEmpty(t, results[1].Error)

	require.True(t, engine.IsValidAddress(alice))
	require.False(t, engine.IsValidAddress("not an address"))
}
