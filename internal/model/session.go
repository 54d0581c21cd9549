package model

import (
	"time"

	"github.com/google/uuid"
)

// Session aggregates one fact-checking pass over a piece of input text.
// The transport layer owns the session for its lifetime; pipeline stages
// receive and return plain data and never retain references to it.
// Once CompletedAt is set, no further mutation occurs.
type Session struct {
	UserID              string               `json:"user_id"`
	SessionID           string               `json:"session_id"`
	OriginalText        string               `json:"original_text"`
	Claims              []Claim              `json:"claims"`
	VerificationResults []VerificationResult `json:"verification_results"`
	CreatedAt           time.Time            `json:"created_at"`
	CompletedAt         *time.Time           `json:"completed_at,omitempty"`
}

// NewSession creates a session for the given user and input text
func NewSession(userID, originalText string) *Session {
	return &Session{
		UserID:       userID,
		SessionID:    uuid.NewString(),
		OriginalText: originalText,
		CreatedAt:    time.Now().UTC(),
	}
}

// Complete stamps the session as finished
func (s *Session) Complete() {
	now := time.Now().UTC()
	s.CompletedAt = &now
}

// IsComplete reports whether the session has been stamped
func (s *Session) IsComplete() bool {
	return s.CompletedAt != nil
}
