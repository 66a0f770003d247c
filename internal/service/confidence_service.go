package service

import (
	"context"
	"math"
	"time"

	"github.com/defibrain/advisory-engine/internal/models"
	"github.com/defibrain/advisory-engine/internal/types"
	"go.uber.org/zap"
)

// Category names in display order
const (
	categoryMarketAnalysis  = "Market Analysis"
	categoryRiskAssessment  = "Risk Assessment"
	categoryPortfolioHealth = "Portfolio Health"
	categoryYieldPrediction = "Yield Predictions"
)

// ConfidenceService summarizes how much trust to place in the engine's
// analytics, per category. Remote scores are derived from live market
// analysis; local scores fall back to portfolio shape alone.
type ConfidenceService struct {
	gate     *AdvisoryGate
	advisory AdvisoryAPI
	now      func() time.Time
	logger   *zap.Logger
}

// NewConfidenceService creates a new confidence service
func NewConfidenceService(advisory AdvisoryAPI, gate *AdvisoryGate, logger *zap.Logger) *ConfidenceService {
	return &ConfidenceService{
		gate:     gate,
		advisory: advisory,
		now:      time.Now,
		logger:   logger.Named("confidence"),
	}
}

// Compute produces the four-category confidence summary. Never fails: when
// the advisory service is unavailable the local derivation answers instead.
func (s *ConfidenceService) Compute(ctx context.Context, snapshot *models.PortfolioSnapshot, vault *models.VaultState) *models.ConfidenceMetrics {
	apy := 0.0
	if vault != nil {
		apy, _ = vault.APY.Float64()
	}

	var scores [4]int
	if s.gate.Healthy(ctx) {
		if analysis := s.advisory.MarketAnalysis(ctx, tokensOrDefault(snapshot)); analysis != nil {
			volatility, _ := analysis.VolatilityIndex.Float64()
			scores = remoteScores(volatility, apy)
			return s.assemble(snapshot, scores)
		}
		s.logger.Warn("market analysis unavailable, deriving confidence locally")
	}

	scores = localScores(snapshot, apy)
	return s.assemble(snapshot, scores)
}

// remoteScores maps the volatility index v (0..1) and vault APY onto the four
// categories. Higher volatility lowers market and risk confidence; higher APY
// raises health and yield confidence.
func remoteScores(v, apy float64) [4]int {
	return [4]int{
		clampInt(int(math.Round(95-v*70)), 60, 95),
		clampInt(int(math.Round(90-v*50)), 55, 90),
		clampInt(int(math.Round(70+apy*2)), 50, 95),
		clampInt(int(math.Round(65+apy*2.5)), 50, 92),
	}
}

// localScores derives confidence from portfolio shape when no market data is
// available. Deployment ratio stands in for the missing volatility signal.
func localScores(snapshot *models.PortfolioSnapshot, apy float64) [4]int {
	deployment := 0.0
	yieldPct := 0.0
	if snapshot != nil {
		if snapshot.TotalValue.IsPositive() {
			deployment, _ = snapshot.TotalDeposited.Div(snapshot.TotalValue).Float64()
		}
		yieldPct, _ = snapshot.YieldPercentage.Float64()
	}

	risk := 75
	switch {
	case deployment > 0.8:
		risk = 62
	case deployment < 0.5:
		risk = 85
	}

	yield := 68
	if apy > 8 {
		yield = 80
	}

	return [4]int{
		clampInt(int(math.Round(60+apy*2)), 60, 95),
		risk,
		clampInt(int(math.Round(70+yieldPct)), 50, 95),
		yield,
	}
}

func (s *ConfidenceService) assemble(snapshot *models.PortfolioSnapshot, scores [4]int) *models.ConfidenceMetrics {
	names := [4]string{categoryMarketAnalysis, categoryRiskAssessment, categoryPortfolioHealth, categoryYieldPrediction}

	categories := make([]models.ConfidenceCategory, 0, len(scores))
	sum := 0
	for i, score := range scores {
		sum += score
		categories = append(categories, models.ConfidenceCategory{
			Name:       names[i],
			Confidence: score,
			Tier:       types.TierForConfidence(score),
		})
	}
	overall := int(math.Round(float64(sum) / float64(len(scores))))

	// Trend follows the yield percentage, not the raw yield: with nothing
	// deposited the percentage is guard-zeroed and the trend reads stable.
	trend := types.TrendStable
	if snapshot != nil {
		switch {
		case snapshot.YieldPercentage.IsPositive():
			trend = types.TrendUp
		case snapshot.YieldPercentage.IsNegative():
			trend = types.TrendDown
		}
	}

	return &models.ConfidenceMetrics{
		Overall:     overall,
		Trend:       trend,
		Categories:  categories,
		LastUpdated: s.now().UTC().Format(time.RFC3339),
	}
}

// tokensOrDefault lists snapshot token symbols, or the default analysis
// basket when the portfolio is empty.
func tokensOrDefault(snapshot *models.PortfolioSnapshot) []string {
	if snapshot != nil {
		if tokens := snapshot.TokenSymbols(); len(tokens) > 0 {
			return tokens
		}
	}
	return defaultTokens
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
