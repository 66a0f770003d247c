package types

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
)

func TestTierForConfidence(t *testing.T) {
	tests := []struct {
		confidence int
		want       ConfidenceTier
	}{
		{100, TierHigh},
		{85, TierHigh},
		{84, TierModerate},
		{70, TierModerate},
		{69, TierLow},
		{0, TierLow},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, TierForConfidence(tt.confidence), "confidence %d", tt.confidence)
	}
}

func TestTierBoundariesExhaustive(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("every confidence maps to exactly one tier", prop.ForAll(
		func(confidence int) bool {
			tier := TierForConfidence(confidence)
			switch {
			case confidence >= 85:
				return tier == TierHigh
			case confidence >= 70:
				return tier == TierModerate
			default:
				return tier == TierLow
			}
		},
		gen.IntRange(0, 100),
	))

	properties.TestingRun(t)
}

func TestServiceError(t *testing.T) {
	err := &ServiceError{Code: "INVALID_ADDRESS", Message: "bad address"}
	assert.Equal(t, "bad address", err.Error())
}
