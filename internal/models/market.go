package models

import (
	"github.com/defibrain/advisory-engine/internal/types"
	"github.com/shopspring/decimal"
)

// TokenSignal represents the analysis result for a single token
type TokenSignal struct {
	Signal    types.Signal    `json:"signal"`
	Strength  decimal.Decimal `json:"strength"`
	RSI       decimal.Decimal `json:"rsi"`
	SMA       decimal.Decimal `json:"sma"`
	Sentiment decimal.Decimal `json:"sentiment"`
}

// MarketAnalysis represents per-token signals plus aggregate market state
type MarketAnalysis struct {
	Signals         map[string]TokenSignal `json:"signals"`
	Sentiment       types.Sentiment        `json:"sentiment"`
	VolatilityIndex decimal.Decimal        `json:"volatilityIndex"`
}

// PricePrediction represents a predicted price for one token
type PricePrediction struct {
	Price      decimal.Decimal `json:"price"`
	Confidence decimal.Decimal `json:"confidence"`
	Timeframe  string          `json:"timeframe"`
	Trend      string          `json:"trend"`
}
