package service

import (
	"context"
	"math"

	"github.com/cinar/indicator/v2/helper"
	"github.com/cinar/indicator/v2/momentum"
	"github.com/cinar/indicator/v2/trend"
	"github.com/defibrain/advisory-engine/internal/adapter"
	"github.com/defibrain/advisory-engine/internal/models"
	"github.com/defibrain/advisory-engine/internal/types"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	rsiPeriod = 14
	smaPeriod = 20

	// Price history length; enough for RSI and SMA warmup plus a stable tail
	historyLength = 60

	rsiOversold   = 30.0
	rsiOverbought = 70.0
)

// defaultTokens is the analysis basket used when the portfolio holds nothing
var defaultTokens = []string{"ETH", "BTC", "USDC"}

// MarketService analyzes market conditions for the portfolio's tokens. The
// advisory service supplies the analysis when reachable; otherwise signals
// are computed locally from price history with standard indicators.
type MarketService struct {
	gate     *AdvisoryGate
	advisory AdvisoryAPI
	prices   adapter.MarketDataProvider
	logger   *zap.Logger
}

// NewMarketService creates a new market service
func NewMarketService(advisory AdvisoryAPI, gate *AdvisoryGate, prices adapter.MarketDataProvider, logger *zap.Logger) *MarketService {
	return &MarketService{
		gate:     gate,
		advisory: advisory,
		prices:   prices,
		logger:   logger.Named("market"),
	}
}

// Analyze produces per-token signals plus aggregate sentiment. Never fails:
// local indicator analysis answers whenever the advisory path cannot.
func (s *MarketService) Analyze(ctx context.Context, tokens []string) *models.MarketAnalysis {
	if len(tokens) == 0 {
		tokens = defaultTokens
	}

	if s.gate.Healthy(ctx) {
		if analysis := s.advisory.MarketAnalysis(ctx, tokens); analysis != nil {
			return analysis
		}
		s.logger.Warn("remote market analysis unavailable, computing locally")
	}

	return s.analyzeLocal(ctx, tokens)
}

// analyzeLocal runs RSI and SMA over recent price history per token. Tokens
// whose history cannot be loaded are skipped rather than failing the batch.
func (s *MarketService) analyzeLocal(ctx context.Context, tokens []string) *models.MarketAnalysis {
	signals := make(map[string]models.TokenSignal, len(tokens))
	volatilitySum := 0.0
	bullish, bearish := 0, 0

	for _, token := range tokens {
		history, err := s.prices.PriceHistory(ctx, token, historyLength)
		if err != nil || len(history) <= smaPeriod {
			s.logger.Warn("price history unavailable, skipping token",
				zap.String("token", token), zap.Error(err))
			continue
		}

		signal, sentiment := analyzeToken(history)
		signals[token] = signal
		volatilitySum += historyVolatility(history)

		switch {
		case sentiment > 0.5:
			bullish++
		case sentiment < 0.5:
			bearish++
		}
	}

	aggregate := types.SentimentNeutral
	switch {
	case bullish > bearish:
		aggregate = types.SentimentBullish
	case bearish > bullish:
		aggregate = types.SentimentBearish
	}

	volatility := 0.0
	if len(signals) > 0 {
		volatility = volatilitySum / float64(len(signals))
	}

	return &models.MarketAnalysis{
		Signals:         signals,
		Sentiment:       aggregate,
		VolatilityIndex: decimal.NewFromFloat(volatility),
	}
}

// analyzeToken derives one token's signal from its price history. The
// sentiment score lives in [0,1] with 0.5 neutral, matching the advisory
// service's scale.
func analyzeToken(history []float64) (models.TokenSignal, float64) {
	rsiValues := helper.ChanToSlice(
		momentum.NewRsiWithPeriod[float64](rsiPeriod).Compute(helper.SliceToChan(history)))
	smaValues := helper.ChanToSlice(
		trend.NewSmaWithPeriod[float64](smaPeriod).Compute(helper.SliceToChan(history)))

	rsi := 50.0
	if len(rsiValues) > 0 {
		rsi = rsiValues[len(rsiValues)-1]
	}
	sma := history[len(history)-1]
	if len(smaValues) > 0 {
		sma = smaValues[len(smaValues)-1]
	}
	last := history[len(history)-1]

	signal := types.SignalHold
	switch {
	case rsi < rsiOversold:
		signal = types.SignalBuy
	case rsi > rsiOverbought:
		signal = types.SignalSell
	}

	sentiment := 0.5
	if sma > 0 {
		sentiment = clampFloat(0.5+(last-sma)/sma, 0, 1)
	}

	return models.TokenSignal{
		Signal:    signal,
		Strength:  decimal.NewFromFloat(math.Abs(rsi-50) / 50),
		RSI:       decimal.NewFromFloat(rsi),
		SMA:       decimal.NewFromFloat(sma),
		Sentiment: decimal.NewFromFloat(sentiment),
	}, sentiment
}

// historyVolatility is the standard deviation of simple returns
func historyVolatility(history []float64) float64 {
	if len(history) < 2 {
		return 0
	}

	returns := make([]float64, 0, len(history)-1)
	sum := 0.0
	for i := 1; i < len(history); i++ {
		if history[i-1] == 0 {
			continue
		}
		r := history[i]/history[i-1] - 1
		returns = append(returns, r)
		sum += r
	}
	if len(returns) == 0 {
		return 0
	}

	mean := sum / float64(len(returns))
	variance := 0.0
	for _, r := range returns {
		variance += (r - mean) * (r - mean)
	}
	variance /= float64(len(returns))

	return math.Sqrt(variance)
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
