package service

import (
	"context"

	"github.com/defibrain/advisory-engine/internal/adapter"
	"github.com/defibrain/advisory-engine/internal/models"
)

// AdvisoryAPI is the advisory service surface consumed by this package.
// Defined here so services can be tested against stubs.
type AdvisoryAPI interface {
	CheckHealth(ctx context.Context) bool
	PortfolioInsights(ctx context.Context, snapshot *models.PortfolioSnapshot, vault *models.VaultState) []models.Insight
	PricePredictions(ctx context.Context, tokens []string) map[string]models.PricePrediction
	YieldOptimization(ctx context.Context, snapshot *models.PortfolioSnapshot) *models.YieldOptimization
	MarketAnalysis(ctx context.Context, tokens []string) *models.MarketAnalysis
	Chat(ctx context.Context, message string, snapshot *models.PortfolioSnapshot, history []models.ChatMessage) (*adapter.ChatResponse, error)
}

// AdvisoryGate is the single health-gated chooser shared by the insight,
// confidence, market and chat paths. One probe per decision: a failed probe
// means the remote is treated as absent for this cycle only and re-probed on
// the next.
type AdvisoryGate struct {
	advisory AdvisoryAPI
}

// NewAdvisoryGate creates a health gate over the advisory API
func NewAdvisoryGate(advisory AdvisoryAPI) *AdvisoryGate {
	return &AdvisoryGate{advisory: advisory}
}

// Healthy reports whether the remote path should be attempted this cycle
func (g *AdvisoryGate) Healthy(ctx context.Context) bool {
	return g.advisory.CheckHealth(ctx)
}
