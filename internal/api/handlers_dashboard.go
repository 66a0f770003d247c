package api

import (
	"net/http"

	apperrors "github.com/defibrain/advisory-engine/internal/errors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gorilla/mux"
)

// addressFromRequest extracts and validates the wallet address path variable
func addressFromRequest(r *http.Request) (string, error) {
	address := mux.Vars(r)["address"]
	if !common.IsHexAddress(address) {
		return "", apperrors.NewInvalidAddressError(address)
	}
	return address, nil
}

// handleGetDashboard returns the full dashboard view for an address
func (s *Server) handleGetDashboard(w http.ResponseWriter, r *http.Request) {
	address, err := addressFromRequest(r)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	view, err := s.dashboard.View(r.Context(), address)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, view)
}

// handleRefresh forces a full refresh cycle for an address
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	address, err := addressFromRequest(r)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	view, err := s.dashboard.Refresh(r.Context(), address)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, view)
}

// handleGetInsights returns the insight batch from the current view
func (s *Server) handleGetInsights(w http.ResponseWriter, r *http.Request) {
	address, err := addressFromRequest(r)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	view, err := s.dashboard.View(r.Context(), address)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"insights":    view.Insights,
		"refreshedAt": view.RefreshedAt,
	})
}

// handleGetMetrics returns derived performance metrics from the current view
func (s *Server) handleGetMetrics(w http.ResponseWriter, r *http.Request) {
	address, err := addressFromRequest(r)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	view, err := s.dashboard.View(r.Context(), address)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"metrics":     view.Metrics,
		"snapshot":    view.Snapshot,
		"refreshedAt": view.RefreshedAt,
	})
}

// handleGetConfidence returns the confidence summary from the current view
func (s *Server) handleGetConfidence(w http.ResponseWriter, r *http.Request) {
	address, err := addressFromRequest(r)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	view, err := s.dashboard.View(r.Context(), address)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, view.Confidence)
}
