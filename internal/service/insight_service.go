package service

import (
	"context"
	"fmt"

	"github.com/defibrain/advisory-engine/internal/models"
	"github.com/defibrain/advisory-engine/internal/types"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Local rule thresholds
var (
	highYieldAPY        = decimal.NewFromInt(8)
	underDeployedFactor = decimal.NewFromFloat(0.5)
	overDeployedFactor  = decimal.NewFromFloat(0.8)
	compoundYieldFloor  = decimal.NewFromInt(5)
)

// InsightProvider generates a ranked insight batch for a snapshot. Two
// implementations exist: remote (advisory service) and local (deterministic
// rules); the insight service selects between them through the health gate.
type InsightProvider interface {
	Name() string
	Generate(ctx context.Context, snapshot *models.PortfolioSnapshot, vault *models.VaultState) ([]models.Insight, error)
}

// remoteInsightProvider delegates to the advisory service. An empty result
// is an error here: callers must fall back rather than show nothing.
type remoteInsightProvider struct {
	advisory AdvisoryAPI
}

func (p *remoteInsightProvider) Name() string { return "remote" }

func (p *remoteInsightProvider) Generate(ctx context.Context, snapshot *models.PortfolioSnapshot, vault *models.VaultState) ([]models.Insight, error) {
	insights := p.advisory.PortfolioInsights(ctx, snapshot, vault)
	if len(insights) == 0 {
		return nil, errors.New("advisory service returned no insights")
	}
	return insights, nil
}

// localInsightProvider evaluates the deterministic rule set. Rules fire
// independently, in fixed order, with sequential IDs assigned from 1.
type localInsightProvider struct{}

func (p *localInsightProvider) Name() string { return "local" }

func (p *localInsightProvider) Generate(ctx context.Context, snapshot *models.PortfolioSnapshot, vault *models.VaultState) ([]models.Insight, error) {
	var insights []models.Insight
	nextID := 1

	add := func(kind types.InsightKind, title, description string, confidence int, impact types.Impact, timeframe, action string) {
		insights = append(insights, models.Insight{
			ID:          nextID,
			Kind:        kind,
			Title:       title,
			Description: description,
			Confidence:  confidence,
			Impact:      impact,
			Timeframe:   timeframe,
			Action:      action,
		})
		nextID++
	}

	apy := decimal.Zero
	if vault != nil {
		apy = vault.APY
	}

	if apy.GreaterThan(highYieldAPY) {
		add(types.KindOpportunity, "High Yield Opportunity",
			fmt.Sprintf("Current vault APY of %s%% is well above typical market rates. Increasing your deposit would capture more of this yield.", apy.StringFixed(1)),
			88, types.ImpactHigh, "7 days", "Increase Deposit")
	}

	if snapshot.TotalDeposited.LessThan(snapshot.TotalValue.Mul(underDeployedFactor)) {
		add(types.KindOpportunity, "Underutilized Capital",
			"Less than half of your portfolio value is deployed in the vault. Idle capital is earning nothing.",
			82, types.ImpactMedium, "3 days", "Deploy Capital")
	}

	if snapshot.TotalDeposited.GreaterThan(snapshot.TotalValue.Mul(overDeployedFactor)) {
		add(types.KindRisk, "Concentration Risk",
			"Most of your portfolio value sits in a single vault strategy. Consider spreading exposure across protocols.",
			75, types.ImpactMedium, "14 days", "Diversify Holdings")
	}

	if snapshot.YieldPercentage.IsNegative() {
		add(types.KindRisk, "Negative Yield Alert",
			fmt.Sprintf("Your portfolio is down %s%% against deposited principal. Review underperforming positions.", snapshot.YieldPercentage.Abs().StringFixed(2)),
			92, types.ImpactHigh, "Immediate", "Review Positions")
	}

	if snapshot.TotalYield.IsPositive() && snapshot.YieldPercentage.GreaterThan(compoundYieldFloor) {
		add(types.KindOptimization, "Compound Opportunity",
			fmt.Sprintf("Unrealized yield of %s%% can be compounded back into the vault to accelerate growth.", snapshot.YieldPercentage.StringFixed(2)),
			90, types.ImpactMedium, "24 hours", "Compound Rewards")
	}

	// Always-on so the list is never empty for an active portfolio
	add(types.KindOptimization, "Gas Optimization",
		"Batching deposits and claims during low-fee periods reduces transaction overhead.",
		85, types.ImpactLow, "48 hours", "Batch Transactions")

	return insights, nil
}

// InsightService produces the ranked insight batch shown to the user,
// preferring the advisory service and falling back to local rule evaluation
// when the service is unhealthy, errors, or returns nothing.
type InsightService struct {
	gate     *AdvisoryGate
	advisory AdvisoryAPI
	remote   InsightProvider
	local    InsightProvider
	logger   *zap.Logger
}

// NewInsightService creates a new insight service
func NewInsightService(advisory AdvisoryAPI, gate *AdvisoryGate, logger *zap.Logger) *InsightService {
	return &InsightService{
		gate:     gate,
		advisory: advisory,
		remote:   &remoteInsightProvider{advisory: advisory},
		local:    &localInsightProvider{},
		logger:   logger.Named("insights"),
	}
}

// Generate produces a fresh insight batch for the snapshot. A nil snapshot
// yields an empty batch: no speculative insights without data. When the
// health probe fails, no insight request is made at all.
func (s *InsightService) Generate(ctx context.Context, snapshot *models.PortfolioSnapshot, vault *models.VaultState) []models.Insight {
	if snapshot == nil {
		return []models.Insight{}
	}

	if s.gate.Healthy(ctx) {
		insights, err := s.remote.Generate(ctx, snapshot, vault)
		if err == nil {
			s.logger.Debug("insights generated", zap.String("provider", s.remote.Name()), zap.Int("count", len(insights)))
			return insights
		}
		s.logger.Warn("remote insight generation failed, falling back", zap.Error(err))
	}

	insights, _ := s.local.Generate(ctx, snapshot, vault)
	s.logger.Debug("insights generated", zap.String("provider", s.local.Name()), zap.Int("count", len(insights)))
	return insights
}

// Optimization fetches a yield optimization enrichment. Nil means the
// enrichment is unavailable this cycle and is skipped silently.
func (s *InsightService) Optimization(ctx context.Context, snapshot *models.PortfolioSnapshot) *models.YieldOptimization {
	if snapshot == nil || !s.gate.Healthy(ctx) {
		return nil
	}
	return s.advisory.YieldOptimization(ctx, snapshot)
}

// Predictions fetches price predictions for the given tokens. Nil means the
// enrichment is unavailable this cycle.
func (s *InsightService) Predictions(ctx context.Context, tokens []string) map[string]models.PricePrediction {
	if len(tokens) == 0 || !s.gate.Healthy(ctx) {
		return nil
	}
	return s.advisory.PricePredictions(ctx, tokens)
}
