package service

import (
	"context"
	"testing"

	"github.com/defibrain/advisory-engine/internal/adapter"
	apperrors "github.com/defibrain/advisory-engine/internal/errors"
	"github.com/defibrain/advisory-engine/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testAddress = "0x1111111111111111111111111111111111111111"

// mockLedger implements adapter.LedgerReader for testing
type mockLedger struct {
	value     decimal.Decimal
	deposited decimal.Decimal
	shares    decimal.Decimal
	positions []adapter.RawPosition
	vault     *models.VaultState
	err       error
}

func (m *mockLedger) TotalValue(ctx context.Context, address string) (decimal.Decimal, decimal.Decimal, decimal.Decimal, error) {
	if m.err != nil {
		return decimal.Zero, decimal.Zero, decimal.Zero, m.err
	}
	return m.value, m.deposited, m.shares, nil
}

func (m *mockLedger) Positions(ctx context.Context, address string) ([]adapter.RawPosition, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.positions, nil
}

func (m *mockLedger) VaultState(ctx context.Context) (*models.VaultState, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.vault, nil
}

func TestBuildComputesYieldAndAllocations(t *testing.T) {
	ledger := &mockLedger{
		value:     decimal.NewFromInt(1000),
		deposited: decimal.NewFromInt(800),
		shares:    decimal.NewFromInt(750),
		positions: []adapter.RawPosition{
			{TokenSymbol: "ETH", Balance: decimal.NewFromFloat(0.2), Value: decimal.NewFromInt(600)},
			{TokenSymbol: "USDC", Balance: decimal.NewFromInt(400), Value: decimal.NewFromInt(400)},
		},
	}

	s := NewSnapshotService(ledger, zap.NewNop())
	snapshot, err := s.Build(context.Background(), testAddress)
	require.NoError(t, err)

	assert.True(t, snapshot.TotalYield.Equal(decimal.NewFromInt(200)))
	// 200/800 = 25%
	assert.True(t, snapshot.YieldPercentage.Equal(decimal.NewFromInt(25)), "got %s", snapshot.YieldPercentage)

	require.Len(t, snapshot.Positions, 2)
	assert.True(t, snapshot.Positions[0].AllocationPercent.Equal(decimal.NewFromInt(60)))
	assert.True(t, snapshot.Positions[1].AllocationPercent.Equal(decimal.NewFromInt(40)))

	// Allocations always sum to 100 within tolerance
	sum := decimal.Zero
	for _, p := range snapshot.Positions {
		sum = sum.Add(p.AllocationPercent)
	}
	assert.True(t, sum.Sub(decimal.NewFromInt(100)).Abs().LessThan(decimal.NewFromFloat(0.1)))
}

func TestBuildZeroDeposited(t *testing.T) {
	ledger := &mockLedger{
		value: decimal.NewFromInt(500),
	}

	s := NewSnapshotService(ledger, zap.NewNop())
	snapshot, err := s.Build(context.Background(), testAddress)
	require.NoError(t, err)

	// No division by zero; yield percentage defined as zero
	assert.True(t, snapshot.YieldPercentage.IsZero())
	assert.True(t, snapshot.TotalYield.Equal(decimal.NewFromInt(500)))
}

func TestBuildZeroValuePortfolio(t *testing.T) {
	ledger := &mockLedger{
		positions: []adapter.RawPosition{
			{TokenSymbol: "DUST", Balance: decimal.NewFromInt(1), Value: decimal.Zero},
		},
	}

	s := NewSnapshotService(ledger, zap.NewNop())
	snapshot, err := s.Build(context.Background(), testAddress)
	require.NoError(t, err)

	require.Len(t, snapshot.Positions, 1)
	assert.True(t, snapshot.Positions[0].AllocationPercent.IsZero())
}

func TestBuildPropagatesLedgerError(t *testing.T) {
	ledger := &mockLedger{
		err: apperrors.NewLedgerUnavailableError("getTotalValue", assert.AnError),
	}

	s := NewSnapshotService(ledger, zap.NewNop())
	_, err := s.Build(context.Background(), testAddress)
	require.Error(t, err)
	assert.True(t, apperrors.IsLedgerError(err))
}
