package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vantora/vantora-backend/internal/model"
)

const sessionColumns = `id, assignment_id, question_set_id, candidate_id, status,
	start_time, end_time, submitted_at, violation_token, created_at, updated_at`

// SessionRepository handles test session data access. All finalization
// writes are conditional on the row still being in_progress, so the
// request-path lazy expiry and the background sweeper can race safely.
type SessionRepository struct {
	pool *pgxpool.Pool
}

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

func scanSession(row pgx.Row) (*model.TestSession, error) {
	s := &model.TestSession{}
	err := row.Scan(&s.ID, &s.AssignmentID, &s.QuestionSetID, &s.CandidateID, &s.Status,
		&s.StartTime, &s.EndTime, &s.SubmittedAt, &s.ViolationToken, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Create inserts a new in-progress session. The partial unique index on
// (assignment_id) WHERE status = 'in_progress' serializes concurrent
// starts; the loser receives ErrActiveSessionExists.
func (r *SessionRepository) Create(ctx context.Context, s *model.TestSession) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO test_sessions
			(assignment_id, question_set_id, candidate_id, status, start_time, end_time, violation_token)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at, updated_at`,
		s.AssignmentID, s.QuestionSetID, s.CandidateID, s.Status,
		s.StartTime, s.EndTime, s.ViolationToken,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrActiveSessionExists
		}
		return err
	}
	return nil
}

// LatestByAssignment returns the most recent session by creation time for
// the given assignment. This query is the single authority for assignment
// reusability checks. Returns pgx.ErrNoRows if the assignment has never
// been started.
func (r *SessionRepository) LatestByAssignment(ctx context.Context, assignmentID int64) (*model.TestSession, error) {
	return scanSession(r.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+`
		 FROM test_sessions
		 WHERE assignment_id = $1
		 ORDER BY created_at DESC, id DESC
		 LIMIT 1`, assignmentID))
}

// GetByID retrieves a session by its ID.
func (r *SessionRepository) GetByID(ctx context.Context, id int64) (*model.TestSession, error) {
	return scanSession(r.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM test_sessions WHERE id = $1`, id))
}

// GetForCandidate retrieves a session by ID scoped to its owning candidate.
func (r *SessionRepository) GetForCandidate(ctx context.Context, id, candidateID int64) (*model.TestSession, error) {
	return scanSession(r.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+`
		 FROM test_sessions
		 WHERE id = $1 AND candidate_id = $2`, id, candidateID))
}

// Finalize transitions a session into the given terminal status and locks
// all its answers in the same transaction. The status update is conditional
// on the row still being in_progress; if another writer finalized first the
// call is a no-op and returns false.
func (r *SessionRepository) Finalize(ctx context.Context, sessionID int64, outcome model.SessionStatus) (bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE test_sessions
		 SET status = $1, submitted_at = NOW(), updated_at = NOW()
		 WHERE id = $2 AND status = $3`,
		outcome, sessionID, model.SessionStatusInProgress)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}

	_, err = tx.Exec(ctx,
		`UPDATE answers
		 SET is_final = TRUE, updated_at = NOW()
		 WHERE session_id = $1 AND is_final = FALSE`, sessionID)
	if err != nil {
		return false, err
	}

	return true, tx.Commit(ctx)
}

// FinalizeOverdue force-finalizes every in-progress session whose deadline
// has passed as auto_submitted, locking their answers, in one transaction.
// Returns the number of sessions swept.
func (r *SessionRepository) FinalizeOverdue(ctx context.Context, now time.Time) (int, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx,
		`UPDATE test_sessions
		 SET status = $1, submitted_at = NOW(), updated_at = NOW()
		 WHERE status = $2 AND end_time <= $3
		 RETURNING id`,
		model.SessionStatusAutoSubmitted, model.SessionStatusInProgress, now)
	if err != nil {
		return 0, err
	}

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return 0, err
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	if len(ids) > 0 {
		_, err = tx.Exec(ctx,
			`UPDATE answers
			 SET is_final = TRUE, updated_at = NOW()
			 WHERE session_id = ANY($1) AND is_final = FALSE`, ids)
		if err != nil {
			return 0, err
		}
	}

	return len(ids), tx.Commit(ctx)
}

// ListByStatus retrieves all sessions in the given status, newest first.
func (r *SessionRepository) ListByStatus(ctx context.Context, status model.SessionStatus) ([]model.TestSession, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+sessionColumns+`
		 FROM test_sessions
		 WHERE status = $1
		 ORDER BY created_at DESC`, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSessions(rows)
}

// ListByAssignments retrieves all sessions belonging to the given
// assignments, newest first. Used by the dashboard to build attempt
// histories.
func (r *SessionRepository) ListByAssignments(ctx context.Context, assignmentIDs []int64) ([]model.TestSession, error) {
	if len(assignmentIDs) == 0 {
		return nil, nil
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+sessionColumns+`
		 FROM test_sessions
		 WHERE assignment_id = ANY($1)
		 ORDER BY created_at DESC, id DESC`, assignmentIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSessions(rows)
}

func collectSessions(rows pgx.Rows) ([]model.TestSession, error) {
	var sessions []model.TestSession
	for rows.Next() {
		var s model.TestSession
		if err := rows.Scan(&s.ID, &s.AssignmentID, &s.QuestionSetID, &s.CandidateID, &s.Status,
			&s.StartTime, &s.EndTime, &s.SubmittedAt, &s.ViolationToken, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}
