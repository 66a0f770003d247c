package service

import (
	"context"
	"sync"
	"testing"

	"github.com/defibrain/advisory-engine/internal/adapter"
	apperrors "github.com/defibrain/advisory-engine/internal/errors"
	"github.com/defibrain/advisory-engine/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// memoryViewCache implements ViewCache in memory for testing
type memoryViewCache struct {
	mu    sync.Mutex
	views map[string]*DashboardView
	sets  int
}

func newMemoryViewCache() *memoryViewCache {
	return &memoryViewCache{views: make(map[string]*DashboardView)}
}

func (c *memoryViewCache) GetView(ctx context.Context, address string) (*DashboardView, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	view, ok := c.views[address]
	return view, ok
}

func (c *memoryViewCache) SetView(ctx context.Context, address string, view *DashboardView) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.views[address] = view
	c.sets++
}

func newDashboardForTest(ledger *mockLedger, advisory *mockAdvisory, cache ViewCache) *DashboardService {
	logger := zap.NewNop()
	gate := NewAdvisoryGate(advisory)
	return NewDashboardService(
		NewSnapshotService(ledger, logger),
		NewMetricsService(),
		NewInsightService(advisory, gate, logger),
		NewConfidenceService(advisory, gate, logger),
		NewMarketService(advisory, gate, adapter.NewSyntheticMarketData(), logger),
		cache,
		logger,
	)
}

func healthyLedger() *mockLedger {
	return &mockLedger{
		value:     decimal.NewFromInt(1000),
		deposited: decimal.NewFromInt(800),
		shares:    decimal.NewFromInt(750),
		positions: []adapter.RawPosition{
			{TokenSymbol: "ETH", Balance: decimal.NewFromFloat(0.2), Value: decimal.NewFromInt(1000)},
		},
		vault: &models.VaultState{APY: decimal.NewFromInt(12)},
	}
}

func TestRefreshAssemblesConsistentView(t *testing.T) {
	advisory := &mockAdvisory{healthy: false}
	dashboard := newDashboardForTest(healthyLedger(), advisory, nil)

	view, err := dashboard.Refresh(context.Background(), testAddress)
	require.NoError(t, err)

	require.NotNil(t, view.Snapshot)
	assert.True(t, view.Snapshot.TotalYield.Equal(decimal.NewFromInt(200)))

	// Every stage derives from the same snapshot
	assert.NotEmpty(t, view.Insights)
	require.NotNil(t, view.Confidence)
	assert.NotNil(t, view.Market)
	assert.Equal(t, 90, view.Metrics.RiskScore)
	assert.False(t, view.RefreshedAt.IsZero())
}

func TestRefreshLedgerFailureKeepsPreviousView(t *testing.T) {
	ledger := healthyLedger()
	advisory := &mockAdvisory{healthy: false}
	dashboard := newDashboardForTest(ledger, advisory, nil)

	first, err := dashboard.Refresh(context.Background(), testAddress)
	require.NoError(t, err)

	ledger.err = apperrors.NewLedgerUnavailableError("getTotalValue", assert.AnError)
	_, err = dashboard.Refresh(context.Background(), testAddress)
	require.Error(t, err)
	assert.True(t, apperrors.IsLedgerError(err))

	current, err := dashboard.View(context.Background(), testAddress)
	require.NoError(t, err)
	assert.Same(t, first, current)
}

func TestViewTriggersRefreshWhenEmpty(t *testing.T) {
	advisory := &mockAdvisory{healthy: false}
	dashboard := newDashboardForTest(healthyLedger(), advisory, nil)

	view, err := dashboard.View(context.Background(), testAddress)
	require.NoError(t, err)
	require.NotNil(t, view.Snapshot)
}

func TestRefreshWritesThroughCache(t *testing.T) {
	advisory := &mockAdvisory{healthy: false}
	cache := newMemoryViewCache()
	dashboard := newDashboardForTest(healthyLedger(), advisory, cache)

	_, err := dashboard.Refresh(context.Background(), testAddress)
	require.NoError(t, err)

	cached, ok := cache.GetView(context.Background(), testAddress)
	assert.True(t, ok)
	assert.NotNil(t, cached)
}

func TestViewServedFromCacheAfterRestart(t *testing.T) {
	advisory := &mockAdvisory{healthy: false}
	cache := newMemoryViewCache()

	warm := newDashboardForTest(healthyLedger(), advisory, cache)
	_, err := warm.Refresh(context.Background(), testAddress)
	require.NoError(t, err)

	// A fresh instance with a failing ledger still serves the cached view
	failing := &mockLedger{err: apperrors.NewLedgerUnavailableError("getTotalValue", assert.AnError)}
	cold := newDashboardForTest(failing, advisory, cache)

	view, err := cold.View(context.Background(), testAddress)
	require.NoError(t, err)
	require.NotNil(t, view.Snapshot)
}

func TestVaultFailureDoesNotAbortRefresh(t *testing.T) {
	ledger := healthyLedger()
	ledger.vault = nil
	advisory := &mockAdvisory{healthy: false}
	dashboard := newDashboardForTest(ledger, advisory, nil)

	view, err := dashboard.Refresh(context.Background(), testAddress)
	require.NoError(t, err)
	assert.Nil(t, view.Vault)
	assert.NotEmpty(t, view.Insights)
}
