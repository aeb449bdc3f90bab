package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vantora/vantora-backend/internal/model"
)

const assignmentColumns = `id, question_set_id, candidate_id, session_code, assigned_at, is_active`

// AssignmentRepository handles test assignment data access.
type AssignmentRepository struct {
	pool *pgxpool.Pool
}

// NewAssignmentRepository creates a new AssignmentRepository.
func NewAssignmentRepository(pool *pgxpool.Pool) *AssignmentRepository {
	return &AssignmentRepository{pool: pool}
}

func scanAssignment(row pgx.Row) (*model.TestAssignment, error) {
	a := &model.TestAssignment{}
	err := row.Scan(&a.ID, &a.QuestionSetID, &a.CandidateID, &a.SessionCode, &a.AssignedAt, &a.IsActive)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Create inserts a new assignment. Session codes are unique; a collision
// surfaces as ErrDuplicate so the caller can retry with a fresh code.
func (r *AssignmentRepository) Create(ctx context.Context, a *model.TestAssignment) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO test_assignments (question_set_id, candidate_id, session_code, is_active)
		 VALUES ($1, $2, $3, TRUE)
		 RETURNING id, assigned_at, is_active`,
		a.QuestionSetID, a.CandidateID, a.SessionCode,
	).Scan(&a.ID, &a.AssignedAt, &a.IsActive)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// GetByCode retrieves an assignment by its session code.
func (r *AssignmentRepository) GetByCode(ctx context.Context, code string) (*model.TestAssignment, error) {
	return scanAssignment(r.pool.QueryRow(ctx,
		`SELECT `+assignmentColumns+` FROM test_assignments WHERE session_code = $1`, code))
}

// GetByID retrieves an assignment by its ID.
func (r *AssignmentRepository) GetByID(ctx context.Context, id int64) (*model.TestAssignment, error) {
	return scanAssignment(r.pool.QueryRow(ctx,
		`SELECT `+assignmentColumns+` FROM test_assignments WHERE id = $1`, id))
}

// SetActive toggles an assignment's active flag. Returns pgx.ErrNoRows via
// the affected-rows check when the assignment does not exist.
func (r *AssignmentRepository) SetActive(ctx context.Context, id int64, active bool) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE test_assignments SET is_active = $1 WHERE id = $2`, active, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// ListForCandidate returns the candidate's assignments joined with their
// question sets and the status of each assignment's latest session.
// Assignments never started report not_started.
func (r *AssignmentRepository) ListForCandidate(ctx context.Context, candidateID int64) ([]model.CandidateAssignment, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT ta.id, qs.id, qs.name, tt.name, qs.duration_minutes, qs.warning_minutes,
		        COALESCE(ls.status, 'not_started'), ta.session_code
		 FROM test_assignments ta
		 JOIN question_sets qs ON qs.id = ta.question_set_id
		 JOIN test_types tt ON tt.id = qs.test_type_id
		 LEFT JOIN LATERAL (
		   SELECT status FROM test_sessions s
		   WHERE s.assignment_id = ta.id
		   ORDER BY s.created_at DESC, s.id DESC
		   LIMIT 1
		 ) ls ON TRUE
		 WHERE ta.candidate_id = $1 AND ta.is_active = TRUE
		 ORDER BY ta.assigned_at DESC`, candidateID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []model.CandidateAssignment
	for rows.Next() {
		var ca model.CandidateAssignment
		if err := rows.Scan(&ca.AssignmentID, &ca.QuestionSetID, &ca.SetName, &ca.TestType,
			&ca.DurationMinutes, &ca.WarningMinutes, &ca.Status, &ca.SessionCode); err != nil {
			return nil, err
		}
		list = append(list, ca)
	}
	return list, rows.Err()
}
