package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/vantora/vantora-backend/internal/model"
	"github.com/vantora/vantora-backend/internal/repository"
)

// fallbackDurationMinutes applies when a question set carries no usable
// duration.
const fallbackDurationMinutes = 60

// StartResult is everything the candidate client needs to run a session:
// the session row, the question payload (correctness withheld), and the
// violation token that gates proctoring reports.
type StartResult struct {
	Session        *model.TestSession        `json:"session"`
	ViolationToken string                    `json:"violation_token"`
	Questions      []model.CandidateQuestion `json:"questions"`
}

// SessionService is the session lifecycle engine. Every mutating candidate
// operation runs lazy expiry first: an in-progress session whose deadline
// has passed is finalized as auto_submitted before the request is judged.
type SessionService struct {
	sessions  SessionStore
	catalog   CatalogStore
	questions QuestionStore
	answers   AnswerStore
	log       zerolog.Logger
}

// NewSessionService creates a new SessionService.
func NewSessionService(sessions SessionStore, catalog CatalogStore, questions QuestionStore, answers AnswerStore) *SessionService {
	return &SessionService{
		sessions:  sessions,
		catalog:   catalog,
		questions: questions,
		answers:   answers,
		log:       log.With().Str("component", "session").Logger(),
	}
}

// Start begins a timed session for a resolved assignment. The assignment's
// session history decides reusability: an in-progress session blocks the
// start (or, if overdue, is finalized and reported expired), and any
// terminal session means the code was used up.
func (s *SessionService) Start(ctx context.Context, assignment *model.TestAssignment) (*StartResult, error) {
	now := time.Now()

	latest, err := s.sessions.LatestByAssignment(ctx, assignment.ID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("latest session: %w", err)
	}
	if latest != nil {
		switch {
		case latest.Status == model.SessionStatusInProgress && latest.Overdue(now):
			if _, err := s.sessions.Finalize(ctx, latest.ID, model.SessionStatusAutoSubmitted); err != nil {
				return nil, fmt.Errorf("finalize overdue session: %w", err)
			}
			return nil, ErrSessionExpired
		case latest.Status == model.SessionStatusInProgress:
			return nil, ErrSessionInProgress
		default:
			return nil, ErrSessionUsed
		}
	}

	set, err := s.catalog.GetQuestionSet(ctx, assignment.QuestionSetID)
	if err != nil {
		return nil, fmt.Errorf("get question set: %w", err)
	}
	duration := set.DurationMinutes
	if duration <= 0 {
		duration = fallbackDurationMinutes
	}

	token, err := newViolationToken()
	if err != nil {
		return nil, err
	}

	session := &model.TestSession{
		AssignmentID:   assignment.ID,
		QuestionSetID:  assignment.QuestionSetID,
		CandidateID:    assignment.CandidateID,
		Status:         model.SessionStatusInProgress,
		StartTime:      now,
		EndTime:        now.Add(time.Duration(duration) * time.Minute),
		ViolationToken: token,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		if errors.Is(err, repository.ErrActiveSessionExists) {
			// Lost a race with a concurrent start on the same assignment.
			return nil, ErrSessionInProgress
		}
		return nil, fmt.Errorf("create session: %w", err)
	}

	questions, err := s.questions.ListBySet(ctx, assignment.QuestionSetID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	candidateQuestions := make([]model.CandidateQuestion, 0, len(questions))
	for i := range questions {
		candidateQuestions = append(candidateQuestions, questions[i].ForCandidate())
	}

	s.log.Info().
		Int64("session_id", session.ID).
		Int64("assignment_id", assignment.ID).
		Time("end_time", session.EndTime).
		Msg("session started")

	return &StartResult{
		Session:        session,
		ViolationToken: token,
		Questions:      candidateQuestions,
	}, nil
}

// guardActive applies lazy expiry and rejects writes against sessions that
// are not live. Returns nil only for an in-progress session whose deadline
// has not passed.
func (s *SessionService) guardActive(ctx context.Context, session *model.TestSession, now time.Time) error {
	switch session.Status {
	case model.SessionStatusSubmitted, model.SessionStatusAutoSubmitted:
		return ErrAlreadySubmitted
	case model.SessionStatusExpired:
		return ErrSessionExpired
	case model.SessionStatusInProgress:
		if session.Overdue(now) {
			if _, err := s.sessions.Finalize(ctx, session.ID, model.SessionStatusAutoSubmitted); err != nil {
				return fmt.Errorf("finalize overdue session: %w", err)
			}
			return ErrSessionExpired
		}
		return nil
	default:
		return ErrSessionNotActive
	}
}

// SaveAnswer autosaves one answer into a live session owned by the
// candidate. Multiple-choice selections are replaced wholesale; option ids
// foreign to the question are dropped silently.
func (s *SessionService) SaveAnswer(ctx context.Context, candidateID int64, req *model.SaveAnswerRequest) error {
	session, err := s.sessions.GetForCandidate(ctx, req.SessionID, candidateID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("get session: %w", err)
	}
	if err := s.guardActive(ctx, session, time.Now()); err != nil {
		return err
	}

	question, err := s.questions.GetInSet(ctx, req.QuestionID, session.QuestionSetID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrQuestionNotInSet
		}
		return fmt.Errorf("get question: %w", err)
	}

	params := repository.SaveAnswerParams{
		SessionID:      session.ID,
		QuestionID:     question.ID,
		MultipleChoice: question.AnswerType == model.AnswerTypeMultipleChoice,
	}
	if params.MultipleChoice {
		params.OptionIDs = req.SelectedOptionIDs
	} else {
		params.Text = req.AnswerText
	}

	if err := s.answers.Save(ctx, params); err != nil {
		if errors.Is(err, repository.ErrAnswerLocked) {
			// The sweeper can lock the answer between the activity guard
			// and the write.
			return ErrAnswerLocked
		}
		return fmt.Errorf("save answer: %w", err)
	}
	return nil
}

// Submit finalizes a live session as submitted and locks its answers.
func (s *SessionService) Submit(ctx context.Context, candidateID, sessionID int64) (*model.TestSession, error) {
	session, err := s.sessions.GetForCandidate(ctx, sessionID, candidateID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	if err := s.guardActive(ctx, session, time.Now()); err != nil {
		return nil, err
	}

	ok, err := s.sessions.Finalize(ctx, session.ID, model.SessionStatusSubmitted)
	if err != nil {
		return nil, fmt.Errorf("finalize session: %w", err)
	}
	if !ok {
		// Another writer finalized between the guard and the update.
		return nil, ErrAlreadySubmitted
	}

	s.log.Info().Int64("session_id", session.ID).Msg("session submitted")

	final, err := s.sessions.GetByID(ctx, session.ID)
	if err != nil {
		return nil, fmt.Errorf("reload session: %w", err)
	}
	return final, nil
}
