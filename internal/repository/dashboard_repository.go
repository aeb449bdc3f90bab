package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// AssignmentOverview is one dashboard row before status aggregation: an
// assignment joined with its candidate and question set.
type AssignmentOverview struct {
	AssignmentID  int64  `json:"assignment_id"`
	CandidateID   int64  `json:"candidate_id"`
	Candidate     string `json:"candidate"`
	QuestionSetID int64  `json:"question_set_id"`
	QuestionSet   string `json:"question_set"`
	TestType      string `json:"test_type"`
	SessionCode   string `json:"session_code"`
	IsActive      bool   `json:"is_active"`
	AssignedAt    string `json:"assigned_at"`
}

// SummaryCounts are the headline numbers on the admin dashboard.
type SummaryCounts struct {
	Candidates    int64 `json:"candidates"`
	QuestionSets  int64 `json:"question_sets"`
	Assignments   int64 `json:"assignments"`
	InProgress    int64 `json:"in_progress"`
	AutoSubmitted int64 `json:"auto_submitted"`
	Violations    int64 `json:"violations"`
}

// DashboardRepository serves the admin overview queries.
type DashboardRepository struct {
	pool *pgxpool.Pool
}

// NewDashboardRepository creates a new DashboardRepository.
func NewDashboardRepository(pool *pgxpool.Pool) *DashboardRepository {
	return &DashboardRepository{pool: pool}
}

// ListOverviews retrieves every assignment with its candidate and set,
// newest first. Status aggregation happens in the service layer from the
// assignments' session histories.
func (r *DashboardRepository) ListOverviews(ctx context.Context) ([]AssignmentOverview, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT ta.id, u.id, u.username, qs.id, qs.name, tt.name, ta.session_code,
		        ta.is_active, to_char(ta.assigned_at, 'YYYY-MM-DD"T"HH24:MI:SSOF')
		 FROM test_assignments ta
		 JOIN users u ON u.id = ta.candidate_id
		 JOIN question_sets qs ON qs.id = ta.question_set_id
		 JOIN test_types tt ON tt.id = qs.test_type_id
		 ORDER BY ta.assigned_at DESC, ta.id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var overviews []AssignmentOverview
	for rows.Next() {
		var o AssignmentOverview
		if err := rows.Scan(&o.AssignmentID, &o.CandidateID, &o.Candidate, &o.QuestionSetID,
			&o.QuestionSet, &o.TestType, &o.SessionCode, &o.IsActive, &o.AssignedAt); err != nil {
			return nil, err
		}
		overviews = append(overviews, o)
	}
	return overviews, rows.Err()
}

// GetSummaryCounts retrieves the dashboard headline counts in one query.
func (r *DashboardRepository) GetSummaryCounts(ctx context.Context) (*SummaryCounts, error) {
	c := &SummaryCounts{}
	err := r.pool.QueryRow(ctx,
		`SELECT
		   (SELECT COUNT(*) FROM users WHERE role = 'candidate'),
		   (SELECT COUNT(*) FROM question_sets),
		   (SELECT COUNT(*) FROM test_assignments),
		   (SELECT COUNT(*) FROM test_sessions WHERE status = 'in_progress'),
		   (SELECT COUNT(*) FROM test_sessions WHERE status = 'auto_submitted'),
		   (SELECT COUNT(*) FROM violations)`,
	).Scan(&c.Candidates, &c.QuestionSets, &c.Assignments, &c.InProgress, &c.AutoSubmitted, &c.Violations)
	if err != nil {
		return nil, err
	}
	return c, nil
}
