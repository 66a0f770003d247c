package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/defibrain/advisory-engine/internal/circuitbreaker"
	"github.com/defibrain/advisory-engine/internal/config"
	apperrors "github.com/defibrain/advisory-engine/internal/errors"
	"github.com/defibrain/advisory-engine/internal/models"
	"github.com/defibrain/advisory-engine/internal/types"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// chatHistoryWindow is the number of recent messages included in chat
// requests. Older turns are never sent, keeping payload size constant
// regardless of conversation length.
const chatHistoryWindow = 5

// AdvisoryClient is the sole network boundary to the remote advisory service.
// Every call runs under a bounded timeout with a cancellable request, so a
// hung remote never blocks a refresh cycle. The client never retries; each
// caller decides whether to fall back.
type AdvisoryClient struct {
	baseURL        string
	httpClient     *http.Client
	requestTimeout time.Duration
	healthTimeout  time.Duration
	limiter        *rate.Limiter
	breaker        *circuitbreaker.CircuitBreaker
	logger         *zap.Logger
}

// NewAdvisoryClient creates an advisory service client from configuration
func NewAdvisoryClient(cfg *config.AdvisoryConfig, logger *zap.Logger) *AdvisoryClient {
	return &AdvisoryClient{
		baseURL:        cfg.BaseURL,
		httpClient:     &http.Client{},
		requestTimeout: cfg.RequestTimeout,
		healthTimeout:  cfg.HealthTimeout,
		limiter:        rate.NewLimiter(rate.Limit(cfg.RequestsPerSec), int(cfg.RequestsPerSec)+1),
		breaker:        circuitbreaker.NewCircuitBreaker(circuitbreaker.DefaultConfig("advisory"), logger),
		logger:         logger.Named("advisory"),
	}
}

// Wire shapes for the advisory backend (snake_case per its API).

type insightsRequest struct {
	PortfolioData *models.PortfolioSnapshot `json:"portfolio_data"`
	VaultInfo     *models.VaultState        `json:"vault_info"`
	Tokens        []string                  `json:"tokens"`
}

type insightWire struct {
	ID          string  `json:"id"`
	Type        string  `json:"type"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Confidence  float64 `json:"confidence"`
	Impact      string  `json:"impact"`
	Timeframe   string  `json:"timeframe"`
	Action      string  `json:"action"`
}

type insightsResponse struct {
	Insights []insightWire `json:"insights"`
}

type predictionsRequest struct {
	Tokens []string `json:"tokens"`
}

type predictionWire struct {
	Price      float64 `json:"price"`
	Confidence float64 `json:"confidence"`
	Timeframe  string  `json:"timeframe"`
	Trend      string  `json:"trend"`
}

type predictionsResponse struct {
	Predictions map[string]predictionWire `json:"predictions"`
}

type optimizationRequest struct {
	PortfolioData *models.PortfolioSnapshot `json:"portfolio_data"`
}

type recommendationWire struct {
	Protocol             string  `json:"protocol"`
	APY                  float64 `json:"apy"`
	RiskScore            float64 `json:"risk_score"`
	AllocationPercentage float64 `json:"allocation_percentage"`
}

type optimizationResponse struct {
	Recommendations []recommendationWire `json:"recommendations"`
	ExpectedYield   float64              `json:"expected_yield"`
	RiskAssessment  string               `json:"risk_assessment"`
}

type marketAnalysisRequest struct {
	Tokens []string `json:"tokens"`
}

type indicatorsWire struct {
	RSI           float64 `json:"rsi"`
	MACD          float64 `json:"macd"`
	MovingAverage float64 `json:"moving_average"`
}

type signalWire struct {
	Signal     string         `json:"signal"`
	Strength   float64        `json:"strength"`
	Indicators indicatorsWire `json:"indicators"`
	Sentiment  float64        `json:"sentiment"`
}

type marketAnalysisResponse struct {
	Signals         map[string]signalWire `json:"signals"`
	MarketSentiment string                `json:"market_sentiment"`
	VolatilityIndex float64               `json:"volatility_index"`
}

type chatHistoryEntry struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

type chatRequest struct {
	Message       string                    `json:"message"`
	PortfolioData *models.PortfolioSnapshot `json:"portfolio_data,omitempty"`
	ChatHistory   []chatHistoryEntry        `json:"chat_history"`
}

// ChatResponse represents the advisory service's answer to a chat message
type ChatResponse struct {
	Response    string   `json:"response"`
	Timestamp   string   `json:"timestamp"`
	Confidence  float64  `json:"confidence"`
	Suggestions []string `json:"suggestions"`
	AIPowered   bool     `json:"ai_powered"`
}

// CheckHealth probes the advisory service. It returns false on any network
// error, non-2xx status, or timeout, and never returns an error.
func (c *AdvisoryClient) CheckHealth(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, c.healthTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return false
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("health probe failed", zap.Error(err))
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

// PortfolioInsights requests remote insight generation. On any failure
// (network, timeout, non-2xx, malformed body) it returns an empty slice;
// callers must treat empty as "service unavailable", not "no insights".
func (c *AdvisoryClient) PortfolioInsights(ctx context.Context, snapshot *models.PortfolioSnapshot, vault *models.VaultState) []models.Insight {
	reqBody := insightsRequest{
		PortfolioData: snapshot,
		VaultInfo:     vault,
		Tokens:        snapshot.TokenSymbols(),
	}

	var respBody insightsResponse
	if err := c.post(ctx, "/api/v1/portfolio/insights", reqBody, &respBody); err != nil {
		c.logger.Warn("portfolio insights request failed", zap.Error(err))
		return []models.Insight{}
	}

	insights := make([]models.Insight, 0, len(respBody.Insights))
	for i, wire := range respBody.Insights {
		insights = append(insights, models.Insight{
			// Remote IDs are opaque strings; batch-local sequential IDs are
			// assigned in arrival order instead.
			ID:          i + 1,
			Kind:        parseInsightKind(wire.Type),
			Title:       wire.Title,
			Description: wire.Description,
			Confidence:  normalizeConfidence(wire.Confidence),
			Impact:      parseImpact(wire.Impact),
			Timeframe:   wire.Timeframe,
			Action:      wire.Action,
		})
	}

	return insights
}

// PricePredictions requests price predictions for the given tokens.
// Returns nil on any failure.
func (c *AdvisoryClient) PricePredictions(ctx context.Context, tokens []string) map[string]models.PricePrediction {
	var respBody predictionsResponse
	if err := c.post(ctx, "/api/v1/predict/price", predictionsRequest{Tokens: tokens}, &respBody); err != nil {
		c.logger.Warn("price prediction request failed", zap.Error(err))
		return nil
	}

	predictions := make(map[string]models.PricePrediction, len(respBody.Predictions))
	for token, wire := range respBody.Predictions {
		predictions[token] = models.PricePrediction{
			Price:      decimal.NewFromFloat(wire.Price),
			Confidence: decimal.NewFromFloat(wire.Confidence),
			Timeframe:  wire.Timeframe,
			Trend:      wire.Trend,
		}
	}

	return predictions
}

// YieldOptimization requests a yield optimization for the snapshot.
// Returns nil on any failure; callers skip the enrichment.
func (c *AdvisoryClient) YieldOptimization(ctx context.Context, snapshot *models.PortfolioSnapshot) *models.YieldOptimization {
	var respBody optimizationResponse
	if err := c.post(ctx, "/api/v1/optimize/yield", optimizationRequest{PortfolioData: snapshot}, &respBody); err != nil {
		c.logger.Warn("yield optimization request failed", zap.Error(err))
		return nil
	}

	recommendations := make([]models.ProtocolRecommendation, 0, len(respBody.Recommendations))
	for _, wire := range respBody.Recommendations {
		recommendations = append(recommendations, models.ProtocolRecommendation{
			Protocol:             wire.Protocol,
			APY:                  decimal.NewFromFloat(wire.APY),
			RiskScore:            decimal.NewFromFloat(wire.RiskScore),
			AllocationPercentage: decimal.NewFromFloat(wire.AllocationPercentage),
		})
	}

	return &models.YieldOptimization{
		Recommendations: recommendations,
		ExpectedYield:   decimal.NewFromFloat(respBody.ExpectedYield),
		RiskAssessment:  respBody.RiskAssessment,
	}
}

// MarketAnalysis requests market analysis for the given tokens.
// Returns nil on any failure.
func (c *AdvisoryClient) MarketAnalysis(ctx context.Context, tokens []string) *models.MarketAnalysis {
	var respBody marketAnalysisResponse
	if err := c.post(ctx, "/api/v1/analyze/market", marketAnalysisRequest{Tokens: tokens}, &respBody); err != nil {
		c.logger.Warn("market analysis request failed", zap.Error(err))
		return nil
	}

	signals := make(map[string]models.TokenSignal, len(respBody.Signals))
	for token, wire := range respBody.Signals {
		signals[token] = models.TokenSignal{
			Signal:    parseSignal(wire.Signal),
			Strength:  decimal.NewFromFloat(wire.Strength),
			RSI:       decimal.NewFromFloat(wire.Indicators.RSI),
			SMA:       decimal.NewFromFloat(wire.Indicators.MovingAverage),
			Sentiment: decimal.NewFromFloat(wire.Sentiment),
		}
	}

	return &models.MarketAnalysis{
		Signals:         signals,
		Sentiment:       parseSentiment(respBody.MarketSentiment),
		VolatilityIndex: decimal.NewFromFloat(respBody.VolatilityIndex),
	}
}

// Chat forwards a user message with bounded conversation context. Unlike the
// other operations this returns an error on failure; the assistant falls
// back to its apology message.
func (c *AdvisoryClient) Chat(ctx context.Context, message string, snapshot *models.PortfolioSnapshot, history []models.ChatMessage) (*ChatResponse, error) {
	if len(history) > chatHistoryWindow {
		history = history[len(history)-chatHistoryWindow:]
	}

	entries := make([]chatHistoryEntry, 0, len(history))
	for _, msg := range history {
		entries = append(entries, chatHistoryEntry{
			Role: string(msg.Role),
			Text: msg.Text,
		})
	}

	reqBody := chatRequest{
		Message:       message,
		PortfolioData: snapshot,
		ChatHistory:   entries,
	}

	var respBody ChatResponse
	if err := c.post(ctx, "/api/v1/chat", reqBody, &respBody); err != nil {
		return nil, apperrors.NewAdvisoryUnavailableError("chat", err)
	}
	if respBody.Response == "" {
		return nil, apperrors.NewAdvisoryUnavailableError("chat", errors.New("empty chat response"))
	}

	return &respBody, nil
}

// post executes one rate-limited, circuit-broken POST with a bounded timeout.
// The timeout cancels the underlying request, guaranteeing resource cleanup
// rather than leaving the call to resolve in the background.
func (c *AdvisoryClient) post(ctx context.Context, path string, reqBody, respBody interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		return errors.Wrap(err, "rate limiter wait failed")
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return errors.Wrap(err, "failed to encode request body")
	}

	return c.breaker.Execute(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
		if err != nil {
			return errors.Wrap(err, "failed to build request")
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return errors.Wrapf(err, "POST %s failed", path)
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			io.Copy(io.Discard, resp.Body)
			return fmt.Errorf("POST %s returned status %d", path, resp.StatusCode)
		}

		// Schema mismatches are treated like network failures and never
		// escape the client boundary uncaught.
		if err := json.NewDecoder(resp.Body).Decode(respBody); err != nil {
			return errors.Wrapf(err, "failed to decode %s response", path)
		}

		return nil
	})
}

// normalizeConfidence maps remote confidence values to the [0,100] integer
// scale. The backend reports fractions in [0,1].
func normalizeConfidence(confidence float64) int {
	if confidence <= 1.0 {
		confidence *= 100
	}
	value := int(confidence + 0.5)
	if value < 0 {
		return 0
	}
	if value > 100 {
		return 100
	}
	return value
}

func parseInsightKind(kind string) types.InsightKind {
	switch kind {
	case "opportunity":
		return types.KindOpportunity
	case "risk":
		return types.KindRisk
	default:
		return types.KindOptimization
	}
}

func parseImpact(impact string) types.Impact {
	switch impact {
	case "high":
		return types.ImpactHigh
	case "medium":
		return types.ImpactMedium
	default:
		return types.ImpactLow
	}
}

func parseSignal(signal string) types.Signal {
	switch signal {
	case "buy":
		return types.SignalBuy
	case "sell":
		return types.SignalSell
	default:
		return types.SignalHold
	}
}

func parseSentiment(sentiment string) types.Sentiment {
	switch sentiment {
	case "bullish":
		return types.SentimentBullish
	case "bearish":
		return types.SentimentBearish
	default:
		return types.SentimentNeutral
	}
}
