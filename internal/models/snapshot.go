// Package models defines the domain entities of the advisory engine.
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Position represents one on-chain holding within a snapshot
type Position struct {
	TokenSymbol       string          `json:"tokenSymbol"`
	Balance           decimal.Decimal `json:"balance"`
	Value             decimal.Decimal `json:"value"`
	AllocationPercent decimal.Decimal `json:"allocationPercent"`
}

// PortfolioSnapshot represents an immutable point-in-time read of portfolio state.
// TotalValue, TotalDeposited and VaultShares are never negative; TotalYield may be.
type PortfolioSnapshot struct {
	TotalValue      decimal.Decimal `json:"totalValue"`
	TotalDeposited  decimal.Decimal `json:"totalDeposited"`
	TotalYield      decimal.Decimal `json:"totalYield"`
	YieldPercentage decimal.Decimal `json:"yieldPercentage"`
	Positions       []Position      `json:"positions"`
	VaultShares     decimal.Decimal `json:"vaultShares"`
	AsOf            time.Time       `json:"asOf"`
}

// TokenSymbols returns the symbols of all positions in display order
func (s *PortfolioSnapshot) TokenSymbols() []string {
	symbols := make([]string, 0, len(s.Positions))
	for _, p := range s.Positions {
		symbols = append(symbols, p.TokenSymbol)
	}
	return symbols
}

// VaultState represents aggregate protocol-level vault data, independent of any user
type VaultState struct {
	TotalAssets   decimal.Decimal `json:"totalAssets"`
	TotalShares   decimal.Decimal `json:"totalShares"`
	SharePrice    decimal.Decimal `json:"sharePrice"`
	APY           decimal.Decimal `json:"apy"`
	StrategyLabel string          `json:"strategyLabel"`
}

// PerformanceMetrics represents derived risk and performance numbers for a snapshot
type PerformanceMetrics struct {
	RiskScore   int             `json:"riskScore"`
	SharpeRatio decimal.Decimal `json:"sharpeRatio"`
	WinRate     decimal.Decimal `json:"winRate"`
	MaxDrawdown decimal.Decimal `json:"maxDrawdown"`
}
