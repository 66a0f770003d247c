// Package adapter contains the external boundaries of the advisory engine:
// the on-chain ledger reader, the advisory service HTTP client, and the
// market data provider.
package adapter

import (
	"context"

	"github.com/defibrain/advisory-engine/internal/models"
	"github.com/shopspring/decimal"
)

// RawPosition represents one holding as read from the vault contract, already
// scaled from fixed-point units to decimals.
type RawPosition struct {
	TokenSymbol string
	Balance     decimal.Decimal
	Value       decimal.Decimal
}

// LedgerReader reads on-chain vault and portfolio state. Implementations are
// read-only and may fail or time out; failures must surface to the caller.
type LedgerReader interface {
	// TotalValue returns the mark-to-market value of all positions plus the
	// cumulative deposited principal and vault share count for an address.
	TotalValue(ctx context.Context, address string) (value, deposited, shares decimal.Decimal, err error)

	// Positions returns the address's holdings in display order.
	Positions(ctx context.Context, address string) ([]RawPosition, error)

	// VaultState returns aggregate protocol-level vault data.
	VaultState(ctx context.Context) (*models.VaultState, error)
}
