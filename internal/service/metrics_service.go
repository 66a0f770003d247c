package service

import (
	"github.com/defibrain/advisory-engine/internal/models"
	"github.com/shopspring/decimal"
)

// Fixed model constants for the Sharpe-like ratio. The same snapshot feeds
// both the dashboard and the local insight fallback, so these must never vary
// between calls.
var (
	riskFreeRate      = decimal.NewFromFloat(0.02)
	assumedVolatility = decimal.NewFromFloat(0.15)

	winRateBase  = decimal.NewFromInt(60)
	winRateSlope = decimal.NewFromFloat(0.01)
	winRateFloor = decimal.NewFromInt(5)
	winRateCeil  = decimal.NewFromInt(95)
)

// MetricsService derives performance and risk metrics from a snapshot alone.
// Every method is a pure function of its inputs: no network access, no
// hidden randomness, identical inputs yield identical outputs.
type MetricsService struct{}

// NewMetricsService creates a new metrics service
func NewMetricsService() *MetricsService {
	return &MetricsService{}
}

// Compute bundles all derived metrics for a snapshot
func (m *MetricsService) Compute(snapshot *models.PortfolioSnapshot) models.PerformanceMetrics {
	return models.PerformanceMetrics{
		RiskScore:   m.RiskScore(snapshot),
		SharpeRatio: m.SharpeRatio(snapshot.TotalYield, snapshot.TotalDeposited),
		WinRate:     m.WinRate(snapshot.TotalYield),
		MaxDrawdown: m.MaxDrawdown(snapshot),
	}
}

// RiskScore scores concentration risk in [0,100]. Diversification reduces
// the score: each position subtracts ten points.
func (m *MetricsService) RiskScore(snapshot *models.PortfolioSnapshot) int {
	score := 100 - 10*len(snapshot.Positions)
	if score < 0 {
		return 0
	}
	return score
}

// SharpeRatio computes a Sharpe-like ratio from pnl and invested principal.
// Returns zero when nothing is invested.
func (m *MetricsService) SharpeRatio(pnl, invested decimal.Decimal) decimal.Decimal {
	if !invested.IsPositive() {
		return decimal.Zero
	}
	return pnl.Div(invested).Sub(riskFreeRate).Div(assumedVolatility)
}

// WinRate estimates win rate in [5,95], centered at 60 and monotonic in pnl.
// The clamp avoids degenerate 0/100 claims from a single data point.
func (m *MetricsService) WinRate(pnl decimal.Decimal) decimal.Decimal {
	rate := winRateBase.Add(pnl.Mul(winRateSlope))
	if rate.LessThan(winRateFloor) {
		return winRateFloor
	}
	if rate.GreaterThan(winRateCeil) {
		return winRateCeil
	}
	return rate
}

// MaxDrawdown computes the drawdown from deposited principal in [0,100].
// Zero when nothing is deposited or the portfolio is at or above principal.
func (m *MetricsService) MaxDrawdown(snapshot *models.PortfolioSnapshot) decimal.Decimal {
	deposited := snapshot.TotalDeposited
	if !deposited.IsPositive() {
		return decimal.Zero
	}

	current := snapshot.TotalValue
	if current.GreaterThanOrEqual(deposited) {
		return decimal.Zero
	}

	drawdown := deposited.Sub(current).Div(deposited).Mul(oneHundred)
	if drawdown.GreaterThan(oneHundred) {
		return oneHundred
	}
	return drawdown
}
