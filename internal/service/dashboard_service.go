package service

import (
	"context"
	"sync"
	"time"

	"github.com/defibrain/advisory-engine/internal/models"
	"go.uber.org/zap"
)

// DashboardView is the complete, self-consistent view assembled by one
// refresh cycle. All fields derive from the same ledger read.
type DashboardView struct {
	Snapshot     *models.PortfolioSnapshot         `json:"snapshot"`
	Vault        *models.VaultState                `json:"vault,omitempty"`
	Metrics      models.PerformanceMetrics         `json:"metrics"`
	Insights     []models.Insight                  `json:"insights"`
	Confidence   *models.ConfidenceMetrics         `json:"confidence"`
	Market       *models.MarketAnalysis            `json:"market,omitempty"`
	Optimization *models.YieldOptimization         `json:"optimization,omitempty"`
	Predictions  map[string]models.PricePrediction `json:"predictions,omitempty"`
	RefreshedAt  time.Time                         `json:"refreshedAt"`
}

// ViewCache stores assembled views keyed by address. Implementations own
// their TTL; a miss is not an error.
type ViewCache interface {
	GetView(ctx context.Context, address string) (*DashboardView, bool)
	SetView(ctx context.Context, address string, view *DashboardView)
}

// DashboardService orchestrates refresh cycles: one ledger read per cycle,
// then derived stages fanned out concurrently, then a single atomic view
// swap. Overlapping refreshes are safe; the last cycle to complete wins.
type DashboardService struct {
	snapshots  *SnapshotService
	metrics    *MetricsService
	insights   *InsightService
	confidence *ConfidenceService
	market     *MarketService
	cache      ViewCache
	logger     *zap.Logger

	mu    sync.RWMutex
	views map[string]*DashboardView
}

// NewDashboardService creates a new dashboard service. cache may be nil.
func NewDashboardService(
	snapshots *SnapshotService,
	metrics *MetricsService,
	insights *InsightService,
	confidence *ConfidenceService,
	market *MarketService,
	cache ViewCache,
	logger *zap.Logger,
) *DashboardService {
	return &DashboardService{
		snapshots:  snapshots,
		metrics:    metrics,
		insights:   insights,
		confidence: confidence,
		market:     market,
		cache:      cache,
		logger:     logger.Named("dashboard"),
		views:      make(map[string]*DashboardView),
	}
}

// Refresh runs one full cycle for the address and installs the resulting
// view. The ledger is read exactly once; every derived stage consumes that
// same snapshot, so the installed view is internally consistent. Ledger
// failures abort the cycle and leave the previous view in place.
func (s *DashboardService) Refresh(ctx context.Context, address string) (*DashboardView, error) {
	start := time.Now()

	snapshot, err := s.snapshots.Build(ctx, address)
	if err != nil {
		return nil, err
	}

	vault, err := s.snapshots.VaultState(ctx)
	if err != nil {
		s.logger.Warn("vault state read failed, continuing without it", zap.Error(err))
		vault = nil
	}

	view := &DashboardView{
		Snapshot:    snapshot,
		Vault:       vault,
		Metrics:     s.metrics.Compute(snapshot),
		RefreshedAt: time.Now().UTC(),
	}

	tokens := snapshot.TokenSymbols()

	var wg sync.WaitGroup
	wg.Add(4)
	go func() {
		defer wg.Done()
		view.Insights = s.insights.Generate(ctx, snapshot, vault)
	}()
	go func() {
		defer wg.Done()
		view.Confidence = s.confidence.Compute(ctx, snapshot, vault)
	}()
	go func() {
		defer wg.Done()
		view.Market = s.market.Analyze(ctx, tokens)
	}()
	go func() {
		defer wg.Done()
		view.Optimization = s.insights.Optimization(ctx, snapshot)
		view.Predictions = s.insights.Predictions(ctx, tokens)
	}()
	wg.Wait()

	s.mu.Lock()
	s.views[address] = view
	s.mu.Unlock()

	if s.cache != nil {
		s.cache.SetView(ctx, address, view)
	}

	s.logger.Info("dashboard refreshed",
		zap.String("address", address),
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("insights", len(view.Insights)),
	)

	return view, nil
}

// View returns the current view for the address, consulting the cache and
// finally running a refresh when nothing is held in memory.
func (s *DashboardService) View(ctx context.Context, address string) (*DashboardView, error) {
	s.mu.RLock()
	view, ok := s.views[address]
	s.mu.RUnlock()
	if ok {
		return view, nil
	}

	if s.cache != nil {
		if cached, ok := s.cache.GetView(ctx, address); ok {
			s.mu.Lock()
			s.views[address] = cached
			s.mu.Unlock()
			return cached, nil
		}
	}

	return s.Refresh(ctx, address)
}

// trackedAddresses snapshots the set of addresses with an installed view
func (s *DashboardService) trackedAddresses() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	addresses := make([]string, 0, len(s.views))
	for address := range s.views {
		addresses = append(addresses, address)
	}
	return addresses
}

// Run refreshes every tracked address on the given interval until the
// context is canceled. Failed cycles log and keep the previous view.
func (s *DashboardService) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, address := range s.trackedAddresses() {
				if _, err := s.Refresh(ctx, address); err != nil {
					s.logger.Error("scheduled refresh failed", zap.String("address", address), zap.Error(err))
				}
			}
		}
	}
}
