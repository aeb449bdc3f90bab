package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/vantora/vantora-backend/internal/model"
	"github.com/vantora/vantora-backend/internal/repository"
)

// Assignment resolution errors.
var (
	ErrCodeNotFound      = errors.New("session code not found")
	ErrCodeWrongUser     = errors.New("session code belongs to another candidate")
	ErrCodeInactive      = errors.New("session code is deactivated")
	ErrSessionInProgress = errors.New("a session is already in progress for this code")
	ErrSessionUsed       = errors.New("session code has already been used")
)

// Validation reasons returned by Validate when a code cannot be started.
const (
	ReasonInvalid    = "invalid"
	ReasonWrongUser  = "wrong_user"
	ReasonInactive   = "inactive"
	ReasonInProgress = "in_progress"
	ReasonUsed       = "used"
)

// ValidationResult is the side-effect-free answer to "can this code be
// started right now".
type ValidationResult struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason,omitempty"`
}

// AssignmentService resolves session codes into assignments and manages
// the admin side of assignment issuance.
type AssignmentService struct {
	assignments AssignmentStore
	sessions    SessionStore
	users       UserStore
	catalog     CatalogStore
}

// NewAssignmentService creates a new AssignmentService.
func NewAssignmentService(assignments AssignmentStore, sessions SessionStore, users UserStore, catalog CatalogStore) *AssignmentService {
	return &AssignmentService{assignments: assignments, sessions: sessions, users: users, catalog: catalog}
}

// ResolveForStart resolves a session code on behalf of a candidate who
// wants to start. It checks existence, ownership, and the active flag;
// session-level reusability is the lifecycle engine's job.
func (s *AssignmentService) ResolveForStart(ctx context.Context, code string, candidateID int64) (*model.TestAssignment, error) {
	assignment, err := s.assignments.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCodeNotFound
		}
		return nil, fmt.Errorf("resolve code: %w", err)
	}
	if assignment.CandidateID != candidateID {
		return nil, ErrCodeWrongUser
	}
	if !assignment.IsActive {
		return nil, ErrCodeInactive
	}
	return assignment, nil
}

// Validate pre-flights a session code without side effects. An overdue
// in-progress session still reports in_progress here; only mutating
// requests finalize it.
func (s *AssignmentService) Validate(ctx context.Context, code string, candidateID int64) (*ValidationResult, error) {
	assignment, err := s.assignments.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &ValidationResult{Reason: ReasonInvalid}, nil
		}
		return nil, fmt.Errorf("resolve code: %w", err)
	}
	if assignment.CandidateID != candidateID {
		return &ValidationResult{Reason: ReasonWrongUser}, nil
	}
	if !assignment.IsActive {
		return &ValidationResult{Reason: ReasonInactive}, nil
	}

	latest, err := s.sessions.LatestByAssignment(ctx, assignment.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &ValidationResult{Valid: true}, nil
		}
		return nil, fmt.Errorf("latest session: %w", err)
	}
	if latest.Status == model.SessionStatusInProgress {
		return &ValidationResult{Reason: ReasonInProgress}, nil
	}
	return &ValidationResult{Reason: ReasonUsed}, nil
}

// Create issues a new assignment with a freshly generated session code.
// The candidate must be an active candidate account and the question set
// must exist.
func (s *AssignmentService) Create(ctx context.Context, req *model.CreateAssignmentRequest) (*model.TestAssignment, error) {
	user, err := s.users.GetByID(ctx, req.CandidateID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get candidate: %w", err)
	}
	if user.Role != model.RoleCandidate {
		return nil, ErrNotFound
	}
	if _, err := s.catalog.GetQuestionSet(ctx, req.QuestionSetID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get question set: %w", err)
	}

	return s.issue(ctx, req.QuestionSetID, req.CandidateID)
}

func (s *AssignmentService) issue(ctx context.Context, setID, candidateID int64) (*model.TestAssignment, error) {
	// Codes are 64 bits of randomness; collisions are retried a few times
	// before giving up.
	for attempt := 0; attempt < 3; attempt++ {
		code, err := newSessionCode()
		if err != nil {
			return nil, err
		}
		assignment := &model.TestAssignment{
			QuestionSetID: setID,
			CandidateID:   candidateID,
			SessionCode:   code,
		}
		err = s.assignments.Create(ctx, assignment)
		if err == nil {
			return assignment, nil
		}
		if !errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("create assignment: %w", err)
		}
	}
	return nil, errors.New("could not allocate a unique session code")
}

// Regenerate deactivates an assignment and issues a replacement with a
// fresh code for the same candidate and set. Refused while the latest
// session is in progress, even if its deadline has passed; the sweeper or
// a candidate request must finalize it first.
func (s *AssignmentService) Regenerate(ctx context.Context, assignmentID int64) (*model.TestAssignment, error) {
	old, err := s.assignments.GetByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get assignment: %w", err)
	}

	latest, err := s.sessions.LatestByAssignment(ctx, old.ID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("latest session: %w", err)
	}
	if latest != nil && latest.Status == model.SessionStatusInProgress {
		return nil, ErrSessionInProgress
	}

	if err := s.assignments.SetActive(ctx, old.ID, false); err != nil {
		return nil, fmt.Errorf("deactivate assignment: %w", err)
	}
	return s.issue(ctx, old.QuestionSetID, old.CandidateID)
}

// SetActive toggles an assignment's active flag.
func (s *AssignmentService) SetActive(ctx context.Context, assignmentID int64, active bool) error {
	if err := s.assignments.SetActive(ctx, assignmentID, active); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("set active: %w", err)
	}
	return nil
}

// ListForCandidate returns the candidate's active assignments with the
// status of each one's latest session.
func (s *AssignmentService) ListForCandidate(ctx context.Context, candidateID int64) ([]model.CandidateAssignment, error) {
	list, err := s.assignments.ListForCandidate(ctx, candidateID)
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}

	// An overdue in-progress session already reads as over for the
	// candidate, before any mutating request finalizes it.
	now := time.Now()
	for i := range list {
		if list[i].Status != string(model.SessionStatusInProgress) {
			continue
		}
		latest, err := s.latestByCode(ctx, list[i].AssignmentID)
		if err != nil {
			return nil, err
		}
		if latest != nil && latest.Overdue(now) {
			list[i].Status = string(model.SessionStatusAutoSubmitted)
		}
	}
	return list, nil
}

func (s *AssignmentService) latestByCode(ctx context.Context, assignmentID int64) (*model.TestSession, error) {
	latest, err := s.sessions.LatestByAssignment(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("latest session: %w", err)
	}
	return latest, nil
}
