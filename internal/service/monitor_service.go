package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/vantora/vantora-backend/internal/model"
	"github.com/vantora/vantora-backend/internal/repository"
)

// Dashboard status labels. Aggregation picks the first label present in
// an assignment group, in this order.
const (
	LabelInProgress    = "In Progress"
	LabelNotStarted    = "Not Started"
	LabelSubmitted     = "Submitted"
	LabelAutoSubmitted = "Auto-Submitted"
	LabelExpired       = "Expired"
)

var labelPriority = []string{
	LabelInProgress,
	LabelNotStarted,
	LabelAutoSubmitted,
	LabelSubmitted,
	LabelExpired,
}

// MonitoringRow is one live session on the admin monitoring screen.
type MonitoringRow struct {
	SessionID     int64     `json:"session_id"`
	AssignmentID  int64     `json:"assignment_id"`
	CandidateID   int64     `json:"candidate_id"`
	QuestionSetID int64     `json:"question_set_id"`
	Status        string    `json:"status"`
	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time"`
	Violations    int64     `json:"violations"`
}

// MonitoringSnapshot is the full monitoring payload: live sessions plus
// the sessions the sweeper force-closed.
type MonitoringSnapshot struct {
	InProgress    []MonitoringRow `json:"in_progress"`
	AutoSubmitted []MonitoringRow `json:"auto_submitted"`
	Taken         time.Time       `json:"taken"`
}

// DashboardFilters narrow the admin dashboard. Zero values mean no filter.
type DashboardFilters struct {
	TestType       string
	Status         string
	ViolationsOnly bool
}

// DashboardRow is one candidate/set pair on the dashboard with its
// aggregated status over every attempt.
type DashboardRow struct {
	CandidateID   int64    `json:"candidate_id"`
	Candidate     string   `json:"candidate"`
	QuestionSetID int64    `json:"question_set_id"`
	QuestionSet   string   `json:"question_set"`
	TestType      string   `json:"test_type"`
	Status        string   `json:"status"`
	Attempts      int      `json:"attempts"`
	Violations    int64    `json:"violations"`
	SessionIDs    []int64  `json:"session_ids"`
	History       []string `json:"history"`
}

// MonitorService serves the admin monitoring and dashboard views.
type MonitorService struct {
	sessions   SessionStore
	violations ViolationStore
	answers    AnswerStore
	dashboard  DashboardStore
}

// NewMonitorService creates a new MonitorService.
func NewMonitorService(sessions SessionStore, violations ViolationStore, answers AnswerStore, dashboard DashboardStore) *MonitorService {
	return &MonitorService{sessions: sessions, violations: violations, answers: answers, dashboard: dashboard}
}

// statusLabel maps a session status to its dashboard label. An overdue
// in-progress session reads as In Progress here; the label does not
// pre-empt finalization.
func statusLabel(status model.SessionStatus) string {
	switch status {
	case model.SessionStatusInProgress:
		return LabelInProgress
	case model.SessionStatusSubmitted:
		return LabelSubmitted
	case model.SessionStatusAutoSubmitted:
		return LabelAutoSubmitted
	case model.SessionStatusExpired:
		return LabelExpired
	default:
		return LabelNotStarted
	}
}

// aggregateStatus folds the labels of every attempt in a group into one
// headline label by priority. An empty group is Not Started.
func aggregateStatus(labels []string) string {
	if len(labels) == 0 {
		return LabelNotStarted
	}
	present := make(map[string]bool, len(labels))
	for _, l := range labels {
		present[l] = true
	}
	for _, l := range labelPriority {
		if present[l] {
			return l
		}
	}
	return LabelNotStarted
}

// Snapshot builds the live monitoring payload. The two session lists are
// fetched concurrently; violation counts cover both.
func (s *MonitorService) Snapshot(ctx context.Context) (*MonitoringSnapshot, error) {
	var (
		inProgress    []model.TestSession
		autoSubmitted []model.TestSession
		inProgressErr error
		autoErr       error
		wg            sync.WaitGroup
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		inProgress, inProgressErr = s.sessions.ListByStatus(ctx, model.SessionStatusInProgress)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		autoSubmitted, autoErr = s.sessions.ListByStatus(ctx, model.SessionStatusAutoSubmitted)
	}()

	wg.Wait()

	if inProgressErr != nil {
		return nil, fmt.Errorf("list in-progress sessions: %w", inProgressErr)
	}
	if autoErr != nil {
		return nil, fmt.Errorf("list auto-submitted sessions: %w", autoErr)
	}

	ids := make([]int64, 0, len(inProgress)+len(autoSubmitted))
	for _, sess := range inProgress {
		ids = append(ids, sess.ID)
	}
	for _, sess := range autoSubmitted {
		ids = append(ids, sess.ID)
	}
	counts, err := s.violations.CountBySessions(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("count violations: %w", err)
	}

	snapshot := &MonitoringSnapshot{Taken: time.Now()}
	snapshot.InProgress = toMonitoringRows(inProgress, counts)
	snapshot.AutoSubmitted = toMonitoringRows(autoSubmitted, counts)
	return snapshot, nil
}

func toMonitoringRows(sessions []model.TestSession, counts map[int64]int64) []MonitoringRow {
	rows := make([]MonitoringRow, 0, len(sessions))
	for _, sess := range sessions {
		rows = append(rows, MonitoringRow{
			SessionID:     sess.ID,
			AssignmentID:  sess.AssignmentID,
			CandidateID:   sess.CandidateID,
			QuestionSetID: sess.QuestionSetID,
			Status:        string(sess.Status),
			StartTime:     sess.StartTime,
			EndTime:       sess.EndTime,
			Violations:    counts[sess.ID],
		})
	}
	return rows
}

// Dashboard aggregates every assignment into candidate/set rows with one
// headline status each, then applies the filters.
func (s *MonitorService) Dashboard(ctx context.Context, filters DashboardFilters) ([]DashboardRow, error) {
	overviews, err := s.dashboard.ListOverviews(ctx)
	if err != nil {
		return nil, fmt.Errorf("list overviews: %w", err)
	}
	if len(overviews) == 0 {
		return nil, nil
	}

	assignmentIDs := make([]int64, 0, len(overviews))
	for _, o := range overviews {
		assignmentIDs = append(assignmentIDs, o.AssignmentID)
	}
	sessions, err := s.sessions.ListByAssignments(ctx, assignmentIDs)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	byAssignment := make(map[int64][]model.TestSession)
	sessionIDs := make([]int64, 0, len(sessions))
	for _, sess := range sessions {
		byAssignment[sess.AssignmentID] = append(byAssignment[sess.AssignmentID], sess)
		sessionIDs = append(sessionIDs, sess.ID)
	}
	counts, err := s.violations.CountBySessions(ctx, sessionIDs)
	if err != nil {
		return nil, fmt.Errorf("count violations: %w", err)
	}

	type groupKey struct {
		candidateID int64
		setID       int64
	}
	groups := make(map[groupKey]*DashboardRow)
	var order []groupKey

	for _, o := range overviews {
		key := groupKey{o.CandidateID, o.QuestionSetID}
		row, ok := groups[key]
		if !ok {
			row = &DashboardRow{
				CandidateID:   o.CandidateID,
				Candidate:     o.Candidate,
				QuestionSetID: o.QuestionSetID,
				QuestionSet:   o.QuestionSet,
				TestType:      o.TestType,
			}
			groups[key] = row
			order = append(order, key)
		}
		sessionList := byAssignment[o.AssignmentID]
		if len(sessionList) == 0 {
			row.History = append(row.History, LabelNotStarted)
			continue
		}
		for _, sess := range sessionList {
			row.Attempts++
			row.Violations += counts[sess.ID]
			row.SessionIDs = append(row.SessionIDs, sess.ID)
			row.History = append(row.History, statusLabel(sess.Status))
		}
	}

	rows := make([]DashboardRow, 0, len(order))
	for _, key := range order {
		row := groups[key]
		row.Status = aggregateStatus(row.History)
		if filters.TestType != "" && row.TestType != filters.TestType {
			continue
		}
		if filters.Status != "" && row.Status != filters.Status {
			continue
		}
		if filters.ViolationsOnly && row.Violations == 0 {
			continue
		}
		rows = append(rows, *row)
	}
	return rows, nil
}

// SessionAnswers returns a finalized or live session's answers paired with
// their question definitions for admin review.
func (s *MonitorService) SessionAnswers(ctx context.Context, sessionID int64) ([]repository.AnswerReview, error) {
	if _, err := s.sessions.GetByID(ctx, sessionID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	return s.answers.ListBySession(ctx, sessionID)
}

// Summary returns the dashboard headline counts.
func (s *MonitorService) Summary(ctx context.Context) (*repository.SummaryCounts, error) {
	return s.dashboard.GetSummaryCounts(ctx)
}
