package service

import (
	"context"
	"time"

	"github.com/vantora/vantora-backend/internal/model"
	"github.com/vantora/vantora-backend/internal/repository"
)

// Store interfaces declare what each service needs from persistence. The
// pgx repositories satisfy them; tests substitute in-memory fakes.

// UserStore is the persistence surface for user accounts.
type UserStore interface {
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	GetByID(ctx context.Context, id int64) (*model.User, error)
	Create(ctx context.Context, u *model.User) error
	List(ctx context.Context, role model.Role) ([]model.User, error)
	Update(ctx context.Context, u *model.User) error
}

// AssignmentStore is the persistence surface for test assignments.
type AssignmentStore interface {
	Create(ctx context.Context, a *model.TestAssignment) error
	GetByCode(ctx context.Context, code string) (*model.TestAssignment, error)
	GetByID(ctx context.Context, id int64) (*model.TestAssignment, error)
	SetActive(ctx context.Context, id int64, active bool) error
	ListForCandidate(ctx context.Context, candidateID int64) ([]model.CandidateAssignment, error)
}

// SessionStore is the persistence surface for test sessions.
type SessionStore interface {
	Create(ctx context.Context, s *model.TestSession) error
	LatestByAssignment(ctx context.Context, assignmentID int64) (*model.TestSession, error)
	GetByID(ctx context.Context, id int64) (*model.TestSession, error)
	GetForCandidate(ctx context.Context, id, candidateID int64) (*model.TestSession, error)
	Finalize(ctx context.Context, sessionID int64, outcome model.SessionStatus) (bool, error)
	FinalizeOverdue(ctx context.Context, now time.Time) (int, error)
	ListByStatus(ctx context.Context, status model.SessionStatus) ([]model.TestSession, error)
	ListByAssignments(ctx context.Context, assignmentIDs []int64) ([]model.TestSession, error)
}

// AnswerStore is the persistence surface for autosaved answers.
type AnswerStore interface {
	Save(ctx context.Context, p repository.SaveAnswerParams) error
	ListBySession(ctx context.Context, sessionID int64) ([]repository.AnswerReview, error)
}

// CatalogStore is the persistence surface for test types and question sets.
type CatalogStore interface {
	ListTestTypes(ctx context.Context) ([]model.TestType, error)
	GetTestType(ctx context.Context, id int64) (*model.TestType, error)
	CreateTestType(ctx context.Context, t *model.TestType) error
	ListQuestionSets(ctx context.Context) ([]model.QuestionSet, error)
	GetQuestionSet(ctx context.Context, id int64) (*model.QuestionSet, error)
	CreateQuestionSet(ctx context.Context, qs *model.QuestionSet) error
	UpdateQuestionSet(ctx context.Context, qs *model.QuestionSet) error
	CountAssignmentsForSet(ctx context.Context, setID int64) (int64, error)
	DeleteQuestionSet(ctx context.Context, id int64) error
}

// QuestionStore is the persistence surface for questions and their options.
type QuestionStore interface {
	ListBySet(ctx context.Context, setID int64) ([]model.Question, error)
	GetInSet(ctx context.Context, questionID, setID int64) (*model.Question, error)
	CreateInSet(ctx context.Context, setID int64, q *model.Question) error
	Update(ctx context.Context, q *model.Question, replaceOptions bool) error
	HasAnswers(ctx context.Context, questionID int64) (bool, error)
	DeleteFromSet(ctx context.Context, setID, questionID int64) error
	Reorder(ctx context.Context, setID int64, questionIDs []int64) error
	CountInSet(ctx context.Context, setID int64) (int64, error)
}

// ViolationStore is the persistence surface for proctoring events.
type ViolationStore interface {
	Insert(ctx context.Context, v *model.Violation) error
	ListBySession(ctx context.Context, sessionID int64) ([]model.Violation, error)
	CountBySessions(ctx context.Context, sessionIDs []int64) (map[int64]int64, error)
	ListFiltered(ctx context.Context, f repository.ViolationFilter) ([]repository.ViolationDetail, error)
}

// DashboardStore is the persistence surface for the admin overview.
type DashboardStore interface {
	ListOverviews(ctx context.Context) ([]repository.AssignmentOverview, error)
	GetSummaryCounts(ctx context.Context) (*repository.SummaryCounts, error)
}
