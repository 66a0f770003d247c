package service

import (
	"context"
	"testing"

	"github.com/defibrain/advisory-engine/internal/adapter"
	"github.com/defibrain/advisory-engine/internal/models"
	"github.com/defibrain/advisory-engine/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newMarketServiceForTest(advisory *mockAdvisory) *MarketService {
	return NewMarketService(advisory, NewAdvisoryGate(advisory), adapter.NewSyntheticMarketData(), zap.NewNop())
}

func TestAnalyzeUsesRemoteWhenHealthy(t *testing.T) {
	remote := &models.MarketAnalysis{
		Sentiment:       types.SentimentBullish,
		VolatilityIndex: decimal.NewFromFloat(0.3),
	}
	advisory := &mockAdvisory{healthy: true, market: remote}
	s := newMarketServiceForTest(advisory)

	got := s.Analyze(context.Background(), []string{"ETH"})

	assert.Same(t, remote, got)
	assert.Equal(t, 1, advisory.marketCalls)
}

func TestAnalyzeLocalWhenUnhealthy(t *testing.T) {
	advisory := &mockAdvisory{healthy: false}
	s := newMarketServiceForTest(advisory)

	got := s.Analyze(context.Background(), []string{"ETH", "BTC"})

	require.NotNil(t, got)
	assert.Equal(t, 0, advisory.marketCalls)
	require.Len(t, got.Signals, 2)

	for token, signal := range got.Signals {
		rsi, _ := signal.RSI.Float64()
		assert.GreaterOrEqual(t, rsi, 0.0, token)
		assert.LessOrEqual(t, rsi, 100.0, token)

		strength, _ := signal.Strength.Float64()
		assert.GreaterOrEqual(t, strength, 0.0, token)
		assert.LessOrEqual(t, strength, 1.0, token)

		assert.True(t, signal.SMA.IsPositive(), token)
	}

	assert.False(t, got.VolatilityIndex.IsNegative())
}

func TestAnalyzeLocalIsDeterministic(t *testing.T) {
	advisory := &mockAdvisory{healthy: false}
	s := newMarketServiceForTest(advisory)

	tokens := []string{"ETH", "BTC", "USDC"}
	first := s.Analyze(context.Background(), tokens)
	second := s.Analyze(context.Background(), tokens)

	assert.Equal(t, first, second)
}

func TestAnalyzeDefaultsTokenBasket(t *testing.T) {
	advisory := &mockAdvisory{healthy: false}
	s := newMarketServiceForTest(advisory)

	got := s.Analyze(context.Background(), nil)

	require.NotNil(t, got)
	assert.Len(t, got.Signals, len(defaultTokens))
}

func TestAnalyzeFallsBackWhenRemoteReturnsNil(t *testing.T) {
	advisory := &mockAdvisory{healthy: true, market: nil}
	s := newMarketServiceForTest(advisory)

	got := s.Analyze(context.Background(), []string{"ETH"})

	require.NotNil(t, got)
	assert.Equal(t, 1, advisory.marketCalls)
	assert.Contains(t, got.Signals, "ETH")
}

func TestHistoryVolatility(t *testing.T) {
	assert.Equal(t, 0.0, historyVolatility([]float64{100}))
	assert.Equal(t, 0.0, historyVolatility([]float64{100, 100, 100}))
	assert.Greater(t, historyVolatility([]float64{100, 110, 95, 105}), 0.0)
}
