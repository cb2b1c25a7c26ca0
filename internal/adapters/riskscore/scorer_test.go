package riskscore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"copyTradeEngine/internal/domain"
)

func TestScore_StaysOnScale(t *testing.T) {
	s := New(Config{})

	for _, quantity := range []int64{1, 10, 1000, 1_000_000_000} {
		score, err := s.Score(context.Background(), "f1", "ETHUSDT", quantity, domain.ActionBuy)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, score, 0.0)
		assert.LessOrEqual(t, score, 10.0)
	}
}

func TestScore_GrowsWithQuantity(t *testing.T) {
	s := New(Config{})

	small, err := s.Score(context.Background(), "f1", "ETHUSDT", 10, domain.ActionBuy)
	require.NoError(t, err)
	large, err := s.Score(context.Background(), "f1", "ETHUSDT", 1000, domain.ActionBuy)
	require.NoError(t, err)
	assert.Greater(t, large, small)
}

func TestScore_SymbolWeightApplies(t *testing.T) {
	s := New(Config{SymbolWeights: map[string]float64{"MEMEUSDT": 2.0}})

	base, err := s.Score(context.Background(), "f1", "ETHUSDT", 100, domain.ActionBuy)
	require.NoError(t, err)
	weighted, err := s.Score(context.Background(), "f1", "MEMEUSDT", 100, domain.ActionBuy)
	require.NoError(t, err)
	assert.InDelta(t, base*2, weighted, 1e-9)
}

func TestScore_RejectsNonPositiveQuantity(t *testing.T) {
	s := New(Config{})
	_, err := s.Score(context.Background(), "f1", "ETHUSDT", 0, domain.ActionBuy)
	assert.Error(t, err)
}
