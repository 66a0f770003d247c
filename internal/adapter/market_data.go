package adapter

import (
	"context"
	"hash/fnv"
	"math"

	"github.com/pkg/errors"
)

// MarketDataProvider supplies recent price series for tokens. It is injected
// into the local market analyzer so analysis stays deterministic under test
// and a real feed can be swapped in without touching the analyzer.
type MarketDataProvider interface {
	// PriceHistory returns the last n closing prices for a token, oldest
	// first.
	PriceHistory(ctx context.Context, token string, n int) ([]float64, error)
}

// SyntheticMarketData is the reference MarketDataProvider. It derives a
// repeatable price walk from the token symbol, so identical inputs always
// produce identical series.
type SyntheticMarketData struct{}

// NewSyntheticMarketData creates the reference market data provider
func NewSyntheticMarketData() *SyntheticMarketData {
	return &SyntheticMarketData{}
}

// PriceHistory generates a deterministic price series for the token
func (p *SyntheticMarketData) PriceHistory(ctx context.Context, token string, n int) ([]float64, error) {
	if n <= 0 {
		return nil, errors.Errorf("invalid history length %d", n)
	}

	seed := tokenSeed(token)
	base := 50.0 + float64(seed%4000)
	amplitude := base * 0.05
	drift := base * 0.0008 * float64(int(seed%5)-2)

	prices := make([]float64, n)
	for i := 0; i < n; i++ {
		phase := float64(i+int(seed%97)) / 6.0
		prices[i] = base + drift*float64(i) + amplitude*math.Sin(phase) + amplitude*0.3*math.Sin(phase*3.7)
	}

	return prices, nil
}

// tokenSeed maps a token symbol to a stable numeric seed
func tokenSeed(token string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(token))
	return h.Sum64()
}
