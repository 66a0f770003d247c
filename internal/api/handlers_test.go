package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/defibrain/advisory-engine/internal/adapter"
	apperrors "github.com/defibrain/advisory-engine/internal/errors"
	"github.com/defibrain/advisory-engine/internal/models"
	"github.com/defibrain/advisory-engine/internal/service"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testAddress = "0x1111111111111111111111111111111111111111"

// stubDashboard implements DashboardServiceInterface
type stubDashboard struct {
	view         *service.DashboardView
	err          error
	refreshCalls int
}

func (s *stubDashboard) View(ctx context.Context, address string) (*service.DashboardView, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.view, nil
}

func (s *stubDashboard) Refresh(ctx context.Context, address string) (*service.DashboardView, error) {
	s.refreshCalls++
	if s.err != nil {
		return nil, s.err
	}
	return s.view, nil
}

// stubAdvisory implements service.AdvisoryAPI for chat sessions
type stubAdvisory struct {
	healthy  bool
	chatResp *adapter.ChatResponse
	chatErr  error
}

func (s *stubAdvisory) CheckHealth(ctx context.Context) bool { return s.healthy }

func (s *stubAdvisory) PortfolioInsights(ctx context.Context, snapshot *models.PortfolioSnapshot, vault *models.VaultState) []models.Insight {
	return nil
}

func (s *stubAdvisory) PricePredictions(ctx context.Context, tokens []string) map[string]models.PricePrediction {
	return nil
}

func (s *stubAdvisory) YieldOptimization(ctx context.Context, snapshot *models.PortfolioSnapshot) *models.YieldOptimization {
	return nil
}

func (s *stubAdvisory) MarketAnalysis(ctx context.Context, tokens []string) *models.MarketAnalysis {
	return nil
}

func (s *stubAdvisory) Chat(ctx context.Context, message string, snapshot *models.PortfolioSnapshot, history []models.ChatMessage) (*adapter.ChatResponse, error) {
	return s.chatResp, s.chatErr
}

func stubView() *service.DashboardView {
	return &service.DashboardView{
		Snapshot: &models.PortfolioSnapshot{
			TotalValue:     decimal.NewFromInt(1000),
			TotalDeposited: decimal.NewFromInt(800),
		},
		Metrics: models.PerformanceMetrics{RiskScore: 90},
		Insights: []models.Insight{
			{ID: 1, Title: "Gas Optimization", Confidence: 85},
		},
		Confidence:  &models.ConfidenceMetrics{Overall: 78},
		RefreshedAt: time.Now().UTC(),
	}
}

func newTestServer(dashboard DashboardServiceInterface, advisory *stubAdvisory) *Server {
	logger := zap.NewNop()
	factory := func() *service.ChatService {
		return service.NewChatService(advisory, service.NewAdvisoryGate(advisory), logger)
	}
	return NewServer(&ServerConfig{Host: "127.0.0.1", Port: "0"}, dashboard, advisory, factory, logger)
}

func doRequest(t *testing.T, server *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reqBody bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&reqBody).Encode(body))
	}

	req := httptest.NewRequest(method, path, &reqBody)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	server := newTestServer(&stubDashboard{view: stubView()}, &stubAdvisory{healthy: true})

	rec := doRequest(t, server, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp["status"])
	assert.Equal(t, true, resp["advisoryReachable"])
}

func TestGetDashboard(t *testing.T) {
	server := newTestServer(&stubDashboard{view: stubView()}, &stubAdvisory{})

	rec := doRequest(t, server, http.MethodGet, "/api/v1/dashboard/"+testAddress, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var view service.DashboardView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, 90, view.Metrics.RiskScore)
	require.Len(t, view.Insights, 1)
}

func TestGetDashboardInvalidAddress(t *testing.T) {
	server := newTestServer(&stubDashboard{view: stubView()}, &stubAdvisory{})

	rec := doRequest(t, server, http.MethodGet, "/api/v1/dashboard/not-an-address", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, ErrCodeInvalidInput, resp.Error.Code)
}

func TestGetDashboardLedgerFailure(t *testing.T) {
	dashboard := &stubDashboard{
		err: apperrors.NewLedgerUnavailableError("getTotalValue", assert.AnError),
	}
	server := newTestServer(dashboard, &stubAdvisory{})

	rec := doRequest(t, server, http.MethodGet, "/api/v1/dashboard/"+testAddress, nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestRefreshEndpoint(t *testing.T) {
	dashboard := &stubDashboard{view: stubView()}
	server := newTestServer(dashboard, &stubAdvisory{})

	rec := doRequest(t, server, http.MethodPost, "/api/v1/refresh/"+testAddress, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, dashboard.refreshCalls)
}

func TestGetConfidence(t *testing.T) {
	server := newTestServer(&stubDashboard{view: stubView()}, &stubAdvisory{})

	rec := doRequest(t, server, http.MethodGet, "/api/v1/confidence/"+testAddress, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var metrics models.ConfidenceMetrics
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &metrics))
	assert.Equal(t, 78, metrics.Overall)
}

func TestChatCreatesSession(t *testing.T) {
	advisory := &stubAdvisory{
		healthy:  true,
		chatResp: &adapter.ChatResponse{Response: "Hi", AIPowered: true},
	}
	server := newTestServer(&stubDashboard{view: stubView()}, advisory)

	rec := doRequest(t, server, http.MethodPost, "/api/v1/chat", ChatRequest{Message: "hello"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ChatAPIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.SessionID)
	assert.Equal(t, "Hi", resp.Message.Text)
	assert.True(t, resp.AIPowered)

	// Follow-up on the same session accumulates history
	rec = doRequest(t, server, http.MethodPost, "/api/v1/chat", ChatRequest{
		SessionID: resp.SessionID,
		Message:   "more",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, server, http.MethodGet, "/api/v1/chat/"+resp.SessionID+"/history", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var history struct {
		Messages []models.ChatMessage `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &history))
	assert.Len(t, history.Messages, 4)
}

func TestChatUnknownSession(t *testing.T) {
	server := newTestServer(&stubDashboard{view: stubView()}, &stubAdvisory{})

	rec := doRequest(t, server, http.MethodPost, "/api/v1/chat", ChatRequest{
		SessionID: "does-not-exist",
		Message:   "hello",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestChatBlankMessage(t *testing.T) {
	server := newTestServer(&stubDashboard{view: stubView()}, &stubAdvisory{healthy: true})

	rec := doRequest(t, server, http.MethodPost, "/api/v1/chat", ChatRequest{Message: "   "})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp["sessionId"])
}

func TestChatHistoryUnknownSession(t *testing.T) {
	server := newTestServer(&stubDashboard{view: stubView()}, &stubAdvisory{})

	rec := doRequest(t, server, http.MethodGet, "/api/v1/chat/nope/history", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
