// Package types provides common type definitions for the advisory engine.
package types

// InsightKind represents the category of an advisory insight
type InsightKind string

const (
	// KindOpportunity represents an insight suggesting a favorable action
	KindOpportunity InsightKind = "opportunity"
	// KindRisk represents an insight warning about portfolio exposure
	KindRisk InsightKind = "risk"
	// KindOptimization represents an insight about improving an existing position
	KindOptimization InsightKind = "optimization"
)

// Impact represents the expected impact level of an insight
type Impact string

const (
	// ImpactLow represents a minor expected effect on the portfolio
	ImpactLow Impact = "low"
	// ImpactMedium represents a moderate expected effect on the portfolio
	ImpactMedium Impact = "medium"
	// ImpactHigh represents a significant expected effect on the portfolio
	ImpactHigh Impact = "high"
)

// Trend represents the direction of portfolio performance
type Trend string

const (
	// TrendUp represents positive yield
	TrendUp Trend = "up"
	// TrendDown represents negative yield
	TrendDown Trend = "down"
	// TrendStable represents flat yield
	TrendStable Trend = "stable"
)

// ChatRole represents the author of a chat message
type ChatRole string

const (
	// RoleUser represents a message sent by the user
	RoleUser ChatRole = "user"
	// RoleAssistant represents a message produced by the assistant
	RoleAssistant ChatRole = "assistant"
)

// Signal represents a trading signal for a token
type Signal string

const (
	// SignalBuy represents a buy recommendation
	SignalBuy Signal = "buy"
	// SignalSell represents a sell recommendation
	SignalSell Signal = "sell"
	// SignalHold represents a hold recommendation
	SignalHold Signal = "hold"
)

// Sentiment represents aggregate market sentiment
type Sentiment string

const (
	// SentimentBullish represents a rising market
	SentimentBullish Sentiment = "bullish"
	// SentimentBearish represents a falling market
	SentimentBearish Sentiment = "bearish"
	// SentimentNeutral represents a sideways market
	SentimentNeutral Sentiment = "neutral"
)

// ConfidenceTier represents a qualitative label for a confidence score
type ConfidenceTier string

const (
	// TierHigh represents confidence of 85 or above
	TierHigh ConfidenceTier = "high"
	// TierModerate represents confidence between 70 and 84
	TierModerate ConfidenceTier = "moderate"
	// TierLow represents confidence below 70
	TierLow ConfidenceTier = "low"
)

// TierForConfidence maps a confidence score to its qualitative tier
func TierForConfidence(confidence int) ConfidenceTier {
	switch {
	case confidence >= 85:
		return TierHigh
	case confidence >= 70:
		return TierModerate
	default:
		return TierLow
	}
}

// ServiceError represents a structured error response
type ServiceError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func (e *ServiceError) Error() string {
	return e.Message
}
