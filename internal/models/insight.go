package models

import (
	"github.com/defibrain/advisory-engine/internal/types"
	"github.com/shopspring/decimal"
)

// Insight represents a single advisory recommendation. Insights are immutable
// once produced and are superseded wholesale by the next generation batch.
type Insight struct {
	ID          int               `json:"id"`
	Kind        types.InsightKind `json:"kind"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Confidence  int               `json:"confidence"`
	Impact      types.Impact      `json:"impact"`
	Timeframe   string            `json:"timeframe"`
	Action      string            `json:"action"`
}

// ConfidenceCategory represents one named category within a confidence summary
type ConfidenceCategory struct {
	Name       string               `json:"name"`
	Confidence int                  `json:"confidence"`
	Tier       types.ConfidenceTier `json:"tier"`
}

// ConfidenceMetrics represents a derived, per-category confidence summary.
// Overall is the rounded arithmetic mean of the category confidences.
type ConfidenceMetrics struct {
	Overall     int                  `json:"overall"`
	Trend       types.Trend          `json:"trend"`
	Categories  []ConfidenceCategory `json:"categories"`
	LastUpdated string               `json:"lastUpdated"`
}

// ProtocolRecommendation represents one protocol allocation suggested by the
// yield optimizer
type ProtocolRecommendation struct {
	Protocol             string          `json:"protocol"`
	APY                  decimal.Decimal `json:"apy"`
	RiskScore            decimal.Decimal `json:"riskScore"`
	AllocationPercentage decimal.Decimal `json:"allocationPercentage"`
}

// YieldOptimization represents the advisory service's yield optimization result
type YieldOptimization struct {
	Recommendations []ProtocolRecommendation `json:"recommendations"`
	ExpectedYield   decimal.Decimal          `json:"expectedYield"`
	RiskAssessment  string                   `json:"riskAssessment"`
}
