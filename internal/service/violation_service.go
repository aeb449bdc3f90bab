package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/vantora/vantora-backend/internal/model"
	"github.com/vantora/vantora-backend/internal/repository"
)

// ViolationService records proctoring events. Recording is gated by the
// per-session violation token, not by session liveness: events that arrive
// after finalization are still evidence and are kept.
type ViolationService struct {
	sessions   SessionStore
	violations ViolationStore
	log        zerolog.Logger
}

// NewViolationService creates a new ViolationService.
func NewViolationService(sessions SessionStore, violations ViolationStore) *ViolationService {
	return &ViolationService{
		sessions:   sessions,
		violations: violations,
		log:        log.With().Str("component", "violation").Logger(),
	}
}

// Record appends one violation event to a session owned by the candidate.
// The bearer token must match the session's violation token exactly.
// Unknown event types are stored as unknown rather than rejected.
func (s *ViolationService) Record(ctx context.Context, candidateID int64, req *model.LogViolationRequest) (*model.Violation, error) {
	session, err := s.sessions.GetForCandidate(ctx, req.SessionID, candidateID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}

	if subtle.ConstantTimeCompare([]byte(session.ViolationToken), []byte(req.Token)) != 1 {
		return nil, ErrViolationToken
	}

	eventType := req.EventType
	if !eventType.Valid() {
		eventType = model.ViolationUnknown
	}

	violation := &model.Violation{
		SessionID: session.ID,
		EventType: eventType,
		Metadata:  req.Metadata,
	}
	if err := s.violations.Insert(ctx, violation); err != nil {
		return nil, fmt.Errorf("insert violation: %w", err)
	}

	s.log.Warn().
		Int64("session_id", session.ID).
		Str("event_type", string(eventType)).
		Msg("violation recorded")

	return violation, nil
}

// ListBySession returns a session's violations for admin review.
func (s *ViolationService) ListBySession(ctx context.Context, sessionID int64) ([]model.Violation, error) {
	if _, err := s.sessions.GetByID(ctx, sessionID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	return s.violations.ListBySession(ctx, sessionID)
}

// ListFiltered returns violations across sessions, narrowed by candidate
// and question set.
func (s *ViolationService) ListFiltered(ctx context.Context, f repository.ViolationFilter) ([]repository.ViolationDetail, error) {
	return s.violations.ListFiltered(ctx, f)
}
