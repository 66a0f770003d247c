// Package service implements the portfolio analytics and advisory engine:
// snapshot building, derived metrics, insight generation, confidence
// summaries, market analysis, chat, and refresh orchestration.
package service

import (
	"context"
	"time"

	"github.com/defibrain/advisory-engine/internal/adapter"
	"github.com/defibrain/advisory-engine/internal/models"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var oneHundred = decimal.NewFromInt(100)

// SnapshotService normalizes raw ledger reads into canonical portfolio
// snapshots. It is a pure transformation over the ledger reader and performs
// no other I/O.
type SnapshotService struct {
	ledger adapter.LedgerReader
	now    func() time.Time
	logger *zap.Logger
}

// NewSnapshotService creates a new snapshot service
func NewSnapshotService(ledger adapter.LedgerReader, logger *zap.Logger) *SnapshotService {
	return &SnapshotService{
		ledger: ledger,
		now:    time.Now,
		logger: logger.Named("snapshot"),
	}
}

// Build reads the ledger once and produces a canonical snapshot for the
// address. Yield percentage and every allocation percentage are recomputed
// here with zero-guards; externally supplied allocation fields are never
// trusted, which prevents stale percentages after a value change.
func (s *SnapshotService) Build(ctx context.Context, address string) (*models.PortfolioSnapshot, error) {
	value, deposited, shares, err := s.ledger.TotalValue(ctx, address)
	if err != nil {
		return nil, err
	}

	raw, err := s.ledger.Positions(ctx, address)
	if err != nil {
		return nil, err
	}

	totalYield := value.Sub(deposited)

	yieldPercentage := decimal.Zero
	if deposited.IsPositive() {
		yieldPercentage = totalYield.Div(deposited).Mul(oneHundred)
	}

	positions := make([]models.Position, 0, len(raw))
	for _, p := range raw {
		allocation := decimal.Zero
		if value.IsPositive() {
			allocation = p.Value.Div(value).Mul(oneHundred)
		}
		positions = append(positions, models.Position{
			TokenSymbol:       p.TokenSymbol,
			Balance:           p.Balance,
			Value:             p.Value,
			AllocationPercent: allocation,
		})
	}

	snapshot := &models.PortfolioSnapshot{
		TotalValue:      value,
		TotalDeposited:  deposited,
		TotalYield:      totalYield,
		YieldPercentage: yieldPercentage,
		Positions:       positions,
		VaultShares:     shares,
		AsOf:            s.now().UTC(),
	}

	s.logger.Debug("snapshot built",
		zap.String("address", address),
		zap.String("totalValue", value.String()),
		zap.Int("positions", len(positions)),
	)

	return snapshot, nil
}

// VaultState reads aggregate vault data through the same ledger boundary
func (s *SnapshotService) VaultState(ctx context.Context) (*models.VaultState, error) {
	return s.ledger.VaultState(ctx)
}
