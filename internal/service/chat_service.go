package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/defibrain/advisory-engine/internal/models"
	"github.com/defibrain/advisory-engine/internal/types"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// apologyText is appended whenever the advisory service cannot answer. The
// conversation log never drops a user turn or leaves it unanswered.
const apologyText = "I'm sorry, I'm having trouble reaching the advisory service right now. Please try again in a moment."

// sentAtLayout is the display format for message timestamps
const sentAtLayout = "15:04:05"

// ErrSendInProgress is returned when a send is issued while a previous round
// trip is still in flight. The assistant never interleaves two round trips.
var ErrSendInProgress = errors.New("a chat round trip is already in progress")

// ChatService maintains the ordered conversation log and mediates one
// send-cycle at a time against the advisory service.
type ChatService struct {
	gate     *AdvisoryGate
	advisory AdvisoryAPI
	now      func() time.Time
	logger   *zap.Logger

	mu      sync.Mutex
	history []models.ChatMessage
	typing  bool
	lastID  int64
}

// NewChatService creates a new chat service
func NewChatService(advisory AdvisoryAPI, gate *AdvisoryGate, logger *zap.Logger) *ChatService {
	return &ChatService{
		gate:     gate,
		advisory: advisory,
		now:      time.Now,
		logger:   logger.Named("chat"),
	}
}

// Send appends the user's message and produces the assistant's reply. A
// message that is empty after trimming is ignored without error. The user
// message is appended before any network call, so the log reflects the send
// regardless of network latency. On any advisory failure the assistant
// answers with a fixed apology instead of dropping the turn.
func (s *ChatService) Send(ctx context.Context, text string, snapshot *models.PortfolioSnapshot) (*models.ChatReply, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}

	s.mu.Lock()
	if s.typing {
		s.mu.Unlock()
		return nil, ErrSendInProgress
	}
	s.typing = true

	// Context window captured before appending the new user turn
	priorHistory := append([]models.ChatMessage(nil), s.history...)
	s.appendLocked(types.RoleUser, text)
	s.mu.Unlock()

	// Typing clears on every exit path, not just the happy one
	defer func() {
		s.mu.Lock()
		s.typing = false
		s.mu.Unlock()
	}()

	var (
		replyText   string
		suggestions []string
		aiPowered   bool
	)

	if s.gate.Healthy(ctx) {
		resp, err := s.advisory.Chat(ctx, text, snapshot, priorHistory)
		if err == nil {
			replyText = resp.Response
			suggestions = resp.Suggestions
			aiPowered = resp.AIPowered
		} else {
			s.logger.Warn("chat request failed, using apology fallback", zap.Error(err))
			replyText = apologyText
		}
	} else {
		replyText = apologyText
	}

	s.mu.Lock()
	message := s.appendLocked(types.RoleAssistant, replyText)
	s.mu.Unlock()

	return &models.ChatReply{
		Message:     message,
		Suggestions: suggestions,
		AIPowered:   aiPowered,
	}, nil
}

// appendLocked appends a message with a strictly increasing, collision-free
// ID derived from the monotonic clock. Callers must hold the mutex.
func (s *ChatService) appendLocked(role types.ChatRole, text string) models.ChatMessage {
	id := s.now().UnixNano()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id

	message := models.ChatMessage{
		ID:     id,
		Role:   role,
		Text:   text,
		SentAt: s.now().Format(sentAtLayout),
	}

	// Replace the slice wholesale so a concurrent reader never observes a
	// partial in-place edit.
	next := make([]models.ChatMessage, 0, len(s.history)+1)
	next = append(next, s.history...)
	next = append(next, message)
	s.history = next

	return message
}

// History returns a copy of the conversation log in chronological order
func (s *ChatService) History() []models.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.ChatMessage(nil), s.history...)
}

// Typing reports whether a round trip is currently in flight
func (s *ChatService) Typing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.typing
}
