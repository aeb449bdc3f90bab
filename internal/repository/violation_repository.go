package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vantora/vantora-backend/internal/model"
)

// ViolationRepository handles proctoring event persistence. The table is
// append-only: no update or delete paths exist.
type ViolationRepository struct {
	pool *pgxpool.Pool
}

// NewViolationRepository creates a new ViolationRepository.
func NewViolationRepository(pool *pgxpool.Pool) *ViolationRepository {
	return &ViolationRepository{pool: pool}
}

// Insert records one violation event.
func (r *ViolationRepository) Insert(ctx context.Context, v *model.Violation) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO violations (session_id, event_type, metadata)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at`,
		v.SessionID, v.EventType, v.Metadata,
	).Scan(&v.ID, &v.CreatedAt)
}

// ListBySession retrieves a session's violations, oldest first.
func (r *ViolationRepository) ListBySession(ctx context.Context, sessionID int64) ([]model.Violation, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, session_id, event_type, metadata, created_at
		 FROM violations
		 WHERE session_id = $1
		 ORDER BY created_at ASC, id ASC`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectViolations(rows)
}

// CountBySessions returns violation counts keyed by session ID for the
// given sessions.
func (r *ViolationRepository) CountBySessions(ctx context.Context, sessionIDs []int64) (map[int64]int64, error) {
	counts := make(map[int64]int64, len(sessionIDs))
	if len(sessionIDs) == 0 {
		return counts, nil
	}
	rows, err := r.pool.Query(ctx,
		`SELECT session_id, COUNT(*)
		 FROM violations
		 WHERE session_id = ANY($1)
		 GROUP BY session_id`, sessionIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var sessionID, count int64
		if err := rows.Scan(&sessionID, &count); err != nil {
			return nil, err
		}
		counts[sessionID] = count
	}
	return counts, rows.Err()
}

// ViolationFilter narrows admin violation listings. Zero values mean no
// filter on that dimension.
type ViolationFilter struct {
	CandidateID   int64
	QuestionSetID int64
}

// ViolationDetail is a violation joined with its session's candidate and
// question set, for the admin listing.
type ViolationDetail struct {
	model.Violation
	CandidateID   int64  `json:"candidate_id"`
	Candidate     string `json:"candidate"`
	QuestionSetID int64  `json:"question_set_id"`
	QuestionSet   string `json:"question_set"`
}

// ListFiltered retrieves violations across sessions matching the filter,
// newest first.
func (r *ViolationRepository) ListFiltered(ctx context.Context, f ViolationFilter) ([]ViolationDetail, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT v.id, v.session_id, v.event_type, v.metadata, v.created_at,
		        u.id, u.username, qs.id, qs.name
		 FROM violations v
		 JOIN test_sessions s ON s.id = v.session_id
		 JOIN users u ON u.id = s.candidate_id
		 JOIN question_sets qs ON qs.id = s.question_set_id
		 WHERE ($1 = 0 OR s.candidate_id = $1)
		   AND ($2 = 0 OR s.question_set_id = $2)
		 ORDER BY v.created_at DESC, v.id DESC`,
		f.CandidateID, f.QuestionSetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var details []ViolationDetail
	for rows.Next() {
		var d ViolationDetail
		if err := rows.Scan(&d.ID, &d.SessionID, &d.EventType, &d.Metadata, &d.CreatedAt,
			&d.CandidateID, &d.Candidate, &d.QuestionSetID, &d.QuestionSet); err != nil {
			return nil, err
		}
		details = append(details, d)
	}
	return details, rows.Err()
}

func collectViolations(rows pgx.Rows) ([]model.Violation, error) {
	var violations []model.Violation
	for rows.Next() {
		var v model.Violation
		if err := rows.Scan(&v.ID, &v.SessionID, &v.EventType, &v.Metadata, &v.CreatedAt); err != nil {
			return nil, err
		}
		violations = append(violations, v)
	}
	return violations, rows.Err()
}
