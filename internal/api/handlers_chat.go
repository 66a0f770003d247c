package api

import (
	"net/http"
	"strings"
	"sync"

	apperrors "github.com/defibrain/advisory-engine/internal/errors"
	"github.com/defibrain/advisory-engine/internal/models"
	"github.com/defibrain/advisory-engine/internal/service"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// chatSessionStore holds one chat service per session ID. Sessions live in
// memory only and disappear on restart.
type chatSessionStore struct {
	mu       sync.Mutex
	sessions map[string]*service.ChatService
	factory  ChatServiceFactory
}

func newChatSessionStore(factory ChatServiceFactory) *chatSessionStore {
	return &chatSessionStore{
		sessions: make(map[string]*service.ChatService),
		factory:  factory,
	}
}

// resolve returns the session's chat service, creating a new session when the
// ID is empty. An unknown non-empty ID is an error rather than an implicit
// new session, so clients notice lost state.
func (s *chatSessionStore) resolve(sessionID string) (string, *service.ChatService, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sessionID == "" {
		sessionID = uuid.NewString()
		chat := s.factory()
		s.sessions[sessionID] = chat
		return sessionID, chat, nil
	}

	chat, ok := s.sessions[sessionID]
	if !ok {
		return "", nil, apperrors.NewSessionNotFoundError(sessionID)
	}
	return sessionID, chat, nil
}

func (s *chatSessionStore) get(sessionID string) (*service.ChatService, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	chat, ok := s.sessions[sessionID]
	return chat, ok
}

// ChatRequest represents a chat message submission
type ChatRequest struct {
	SessionID string `json:"sessionId,omitempty"`
	Message   string `json:"message"`
	Address   string `json:"address,omitempty"`
}

// ChatAPIResponse represents the assistant's reply
type ChatAPIResponse struct {
	SessionID   string             `json:"sessionId"`
	Message     models.ChatMessage `json:"message"`
	Suggestions []string           `json:"suggestions,omitempty"`
	AIPowered   bool               `json:"aiPowered"`
}

// handleChat appends a user message to a session and returns the reply.
// Omitting sessionId starts a new session. A blank message is a no-op that
// still returns the session ID.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := parseJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	sessionID, chat, err := s.sessions.resolve(req.SessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	// Portfolio context is optional; chat works without an address
	var snapshot *models.PortfolioSnapshot
	if strings.TrimSpace(req.Address) != "" {
		if view, err := s.dashboard.View(r.Context(), req.Address); err == nil {
			snapshot = view.Snapshot
		}
	}

	reply, err := chat.Send(r.Context(), req.Message, snapshot)
	if err != nil {
		if err == service.ErrSendInProgress {
			respondError(w, http.StatusConflict, ErrCodeConflict, "A message is already being processed for this session", nil)
			return
		}
		respondServiceError(w, err)
		return
	}

	if reply == nil {
		// Blank message after trimming; nothing was appended
		respondJSON(w, http.StatusOK, map[string]interface{}{"sessionId": sessionID})
		return
	}

	respondJSON(w, http.StatusOK, ChatAPIResponse{
		SessionID:   sessionID,
		Message:     reply.Message,
		Suggestions: reply.Suggestions,
		AIPowered:   reply.AIPowered,
	})
}

// handleChatHistory returns the full conversation log for a session
func (s *Server) handleChatHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionId"]

	chat, ok := s.sessions.get(sessionID)
	if !ok {
		respondServiceError(w, apperrors.NewSessionNotFoundError(sessionID))
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"sessionId": sessionID,
		"messages":  chat.History(),
		"typing":    chat.Typing(),
	})
}
