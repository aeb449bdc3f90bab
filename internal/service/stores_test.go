package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/vantora/vantora-backend/internal/model"
	"github.com/vantora/vantora-backend/internal/repository"
)

// fakeStore is the shared in-memory backing for the per-interface fakes
// below. It mirrors the constraints the real schema enforces: one live
// session per assignment, locked answers, unique codes and usernames.
type fakeStore struct {
	mu sync.Mutex

	users       map[int64]*model.User
	assignments map[int64]*model.TestAssignment
	sessions    map[int64]*model.TestSession
	sessionSeq  map[int64]int64 // session id to insertion order
	answers     map[string]*fakeAnswer
	violations  []model.Violation
	testTypes   map[int64]*model.TestType
	sets        map[int64]*model.QuestionSet
	questions   map[int64][]model.Question // set id to ordered questions

	nextID int64
	seq    int64
}

type fakeAnswer struct {
	sessionID  int64
	questionID int64
	text       *string
	optionIDs  []int64
	isFinal    bool
}

// Interface adapters. Each one exposes a single store surface over the
// shared state, the way the pgx repositories share one pool.
type (
	fakeUsers       struct{ *fakeStore }
	fakeAssignments struct{ *fakeStore }
	fakeSessions    struct{ *fakeStore }
	fakeAnswers     struct{ *fakeStore }
	fakeCatalog     struct{ *fakeStore }
	fakeQuestions   struct{ *fakeStore }
	fakeViolations  struct{ *fakeStore }
	fakeDashboard   struct{ *fakeStore }
)

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:       make(map[int64]*model.User),
		assignments: make(map[int64]*model.TestAssignment),
		sessions:    make(map[int64]*model.TestSession),
		sessionSeq:  make(map[int64]int64),
		answers:     make(map[string]*fakeAnswer),
		testTypes:   make(map[int64]*model.TestType),
		sets:        make(map[int64]*model.QuestionSet),
		questions:   make(map[int64][]model.Question),
	}
}

func (f *fakeStore) id() int64 {
	f.nextID++
	return f.nextID
}

func answerKey(sessionID, questionID int64) string {
	return fmt.Sprintf("%d/%d", sessionID, questionID)
}

// Seeding helpers used by the tests.

func (f *fakeStore) addUser(username string, role model.Role) *model.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := &model.User{ID: f.id(), Username: username, Role: role, IsActive: true}
	f.users[u.ID] = u
	return u
}

func (f *fakeStore) addSet(name string, durationMins int, questions ...model.Question) *model.QuestionSet {
	f.mu.Lock()
	defer f.mu.Unlock()
	tt, ok := f.testTypes[1]
	if !ok {
		tt = &model.TestType{ID: f.id(), Name: "General"}
		f.testTypes[tt.ID] = tt
	}
	set := &model.QuestionSet{
		ID:              f.id(),
		Name:            name,
		TestTypeID:      tt.ID,
		TestTypeName:    tt.Name,
		DurationMinutes: durationMins,
		WarningMinutes:  5,
	}
	f.sets[set.ID] = set
	for i := range questions {
		questions[i].ID = f.id()
		questions[i].Order = i
		for j := range questions[i].Options {
			questions[i].Options[j].ID = f.id()
			questions[i].Options[j].QuestionID = questions[i].ID
		}
	}
	f.questions[set.ID] = questions
	return set
}

func (f *fakeStore) addAssignment(setID, candidateID int64, code string) *model.TestAssignment {
	f.mu.Lock()
	defer f.mu.Unlock()
	a := &model.TestAssignment{
		ID:            f.id(),
		QuestionSetID: setID,
		CandidateID:   candidateID,
		SessionCode:   code,
		AssignedAt:    time.Now(),
		IsActive:      true,
	}
	f.assignments[a.ID] = a
	return a
}

// setEndTime rewinds or advances a session deadline so tests control
// whether it reads as overdue.
func (f *fakeStore) setEndTime(sessionID int64, end time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions[sessionID].EndTime = end
}

func (f *fakeStore) session(sessionID int64) model.TestSession {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.sessions[sessionID]
}

func (f *fakeStore) answer(sessionID, questionID int64) *fakeAnswer {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.answers[answerKey(sessionID, questionID)]
}

// SessionStore methods.

func (f fakeSessions) Create(ctx context.Context, s *model.TestSession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.sessions {
		if existing.AssignmentID == s.AssignmentID && existing.Status == model.SessionStatusInProgress {
			return repository.ErrActiveSessionExists
		}
	}
	s.ID = f.id()
	s.CreatedAt = time.Now()
	f.seq++
	f.sessionSeq[s.ID] = f.seq
	cp := *s
	f.sessions[s.ID] = &cp
	return nil
}

func (f fakeSessions) LatestByAssignment(ctx context.Context, assignmentID int64) (*model.TestSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var latest *model.TestSession
	for _, s := range f.sessions {
		if s.AssignmentID != assignmentID {
			continue
		}
		if latest == nil || f.sessionSeq[s.ID] > f.sessionSeq[latest.ID] {
			latest = s
		}
	}
	if latest == nil {
		return nil, pgx.ErrNoRows
	}
	cp := *latest
	return &cp, nil
}

func (f fakeSessions) GetByID(ctx context.Context, id int64) (*model.TestSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *s
	return &cp, nil
}

func (f fakeSessions) GetForCandidate(ctx context.Context, id, candidateID int64) (*model.TestSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok || s.CandidateID != candidateID {
		return nil, pgx.ErrNoRows
	}
	cp := *s
	return &cp, nil
}

func (f fakeSessions) Finalize(ctx context.Context, sessionID int64, outcome model.SessionStatus) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.finalizeLocked(sessionID, outcome), nil
}

func (f *fakeStore) finalizeLocked(sessionID int64, outcome model.SessionStatus) bool {
	s, ok := f.sessions[sessionID]
	if !ok || s.Status != model.SessionStatusInProgress {
		return false
	}
	now := time.Now()
	s.Status = outcome
	s.SubmittedAt = &now
	for _, a := range f.answers {
		if a.sessionID == sessionID {
			a.isFinal = true
		}
	}
	return true
}

func (f fakeSessions) FinalizeOverdue(ctx context.Context, now time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	swept := 0
	for id, s := range f.sessions {
		if s.Status == model.SessionStatusInProgress && !s.EndTime.After(now) {
			if f.finalizeLocked(id, model.SessionStatusAutoSubmitted) {
				swept++
			}
		}
	}
	return swept, nil
}

func (f fakeSessions) ListByStatus(ctx context.Context, status model.SessionStatus) ([]model.TestSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.TestSession
	for _, s := range f.sessions {
		if s.Status == status {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f fakeSessions) ListByAssignments(ctx context.Context, assignmentIDs []int64) ([]model.TestSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	want := make(map[int64]bool, len(assignmentIDs))
	for _, id := range assignmentIDs {
		want[id] = true
	}
	var out []model.TestSession
	for _, s := range f.sessions {
		if want[s.AssignmentID] {
			out = append(out, *s)
		}
	}
	return out, nil
}

// AnswerStore methods.

func (f fakeAnswers) Save(ctx context.Context, p repository.SaveAnswerParams) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := answerKey(p.SessionID, p.QuestionID)
	a, ok := f.answers[key]
	if ok && a.isFinal {
		return repository.ErrAnswerLocked
	}
	if !ok {
		a = &fakeAnswer{sessionID: p.SessionID, questionID: p.QuestionID}
		f.answers[key] = a
	}
	if p.MultipleChoice {
		a.text = nil
		a.optionIDs = nil
		valid := f.validOptionIDs(p.QuestionID)
		for _, id := range p.OptionIDs {
			if valid[id] {
				a.optionIDs = append(a.optionIDs, id)
			}
		}
	} else {
		a.text = p.Text
		a.optionIDs = nil
	}
	return nil
}

func (f *fakeStore) validOptionIDs(questionID int64) map[int64]bool {
	valid := make(map[int64]bool)
	for _, qs := range f.questions {
		for _, q := range qs {
			if q.ID == questionID {
				for _, opt := range q.Options {
					valid[opt.ID] = true
				}
			}
		}
	}
	return valid
}

func (f fakeAnswers) ListBySession(ctx context.Context, sessionID int64) ([]repository.AnswerReview, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []repository.AnswerReview
	for _, a := range f.answers {
		if a.sessionID != sessionID {
			continue
		}
		out = append(out, repository.AnswerReview{
			QuestionID:  a.questionID,
			AnswerText:  a.text,
			SelectedIDs: a.optionIDs,
			IsFinal:     a.isFinal,
		})
	}
	return out, nil
}

// AssignmentStore methods.

func (f fakeAssignments) Create(ctx context.Context, a *model.TestAssignment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.assignments {
		if existing.SessionCode == a.SessionCode {
			return repository.ErrDuplicate
		}
	}
	a.ID = f.id()
	a.AssignedAt = time.Now()
	a.IsActive = true
	cp := *a
	f.assignments[a.ID] = &cp
	return nil
}

func (f fakeAssignments) GetByCode(ctx context.Context, code string) (*model.TestAssignment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.assignments {
		if a.SessionCode == code {
			cp := *a
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f fakeAssignments) GetByID(ctx context.Context, id int64) (*model.TestAssignment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.assignments[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *a
	return &cp, nil
}

func (f fakeAssignments) SetActive(ctx context.Context, id int64, active bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.assignments[id]
	if !ok {
		return pgx.ErrNoRows
	}
	a.IsActive = active
	return nil
}

func (f fakeAssignments) ListForCandidate(ctx context.Context, candidateID int64) ([]model.CandidateAssignment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.CandidateAssignment
	for _, a := range f.assignments {
		if a.CandidateID != candidateID || !a.IsActive {
			continue
		}
		set := f.sets[a.QuestionSetID]
		status := "not_started"
		var latest *model.TestSession
		for _, s := range f.sessions {
			if s.AssignmentID != a.ID {
				continue
			}
			if latest == nil || f.sessionSeq[s.ID] > f.sessionSeq[latest.ID] {
				latest = s
			}
		}
		if latest != nil {
			status = string(latest.Status)
		}
		out = append(out, model.CandidateAssignment{
			AssignmentID:    a.ID,
			QuestionSetID:   a.QuestionSetID,
			SetName:         set.Name,
			TestType:        set.TestTypeName,
			DurationMinutes: set.DurationMinutes,
			WarningMinutes:  set.WarningMinutes,
			Status:          status,
			SessionCode:     a.SessionCode,
		})
	}
	return out, nil
}

// CatalogStore methods.

func (f fakeCatalog) ListTestTypes(ctx context.Context) ([]model.TestType, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.TestType
	for _, t := range f.testTypes {
		out = append(out, *t)
	}
	return out, nil
}

func (f fakeCatalog) GetTestType(ctx context.Context, id int64) (*model.TestType, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.testTypes[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *t
	return &cp, nil
}

func (f fakeCatalog) CreateTestType(ctx context.Context, t *model.TestType) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.testTypes {
		if existing.Name == t.Name {
			return repository.ErrDuplicate
		}
	}
	t.ID = f.id()
	cp := *t
	f.testTypes[t.ID] = &cp
	return nil
}

func (f fakeCatalog) ListQuestionSets(ctx context.Context) ([]model.QuestionSet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.QuestionSet
	for _, s := range f.sets {
		out = append(out, *s)
	}
	return out, nil
}

func (f fakeCatalog) GetQuestionSet(ctx context.Context, id int64) (*model.QuestionSet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *s
	return &cp, nil
}

func (f fakeCatalog) CreateQuestionSet(ctx context.Context, qs *model.QuestionSet) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	qs.ID = f.id()
	cp := *qs
	f.sets[qs.ID] = &cp
	return nil
}

func (f fakeCatalog) UpdateQuestionSet(ctx context.Context, qs *model.QuestionSet) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.sets[qs.ID]; !ok {
		return pgx.ErrNoRows
	}
	cp := *qs
	f.sets[qs.ID] = &cp
	return nil
}

func (f fakeCatalog) CountAssignmentsForSet(ctx context.Context, setID int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var count int64
	for _, a := range f.assignments {
		if a.QuestionSetID == setID {
			count++
		}
	}
	return count, nil
}

func (f fakeCatalog) DeleteQuestionSet(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.sets[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(f.sets, id)
	delete(f.questions, id)
	return nil
}

// QuestionStore methods.

func (f fakeQuestions) ListBySet(ctx context.Context, setID int64) ([]model.Question, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Question(nil), f.questions[setID]...), nil
}

func (f fakeQuestions) GetInSet(ctx context.Context, questionID, setID int64) (*model.Question, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, q := range f.questions[setID] {
		if q.ID == questionID {
			cp := q
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f fakeQuestions) CreateInSet(ctx context.Context, setID int64, q *model.Question) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	q.ID = f.id()
	q.Order = len(f.questions[setID])
	for i := range q.Options {
		q.Options[i].ID = f.id()
		q.Options[i].QuestionID = q.ID
		q.Options[i].Order = i
	}
	f.questions[setID] = append(f.questions[setID], *q)
	return nil
}

func (f fakeQuestions) Update(ctx context.Context, q *model.Question, replaceOptions bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for setID, qs := range f.questions {
		for i := range qs {
			if qs[i].ID == q.ID {
				if replaceOptions {
					for j := range q.Options {
						if q.Options[j].ID == 0 {
							q.Options[j].ID = f.id()
						}
						q.Options[j].QuestionID = q.ID
						q.Options[j].Order = j
					}
				} else {
					q.Options = qs[i].Options
				}
				f.questions[setID][i] = *q
				return nil
			}
		}
	}
	return pgx.ErrNoRows
}

func (f fakeQuestions) HasAnswers(ctx context.Context, questionID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.answers {
		if a.questionID == questionID {
			return true, nil
		}
	}
	return false, nil
}

func (f fakeQuestions) DeleteFromSet(ctx context.Context, setID, questionID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	qs := f.questions[setID]
	for i := range qs {
		if qs[i].ID == questionID {
			f.questions[setID] = append(qs[:i:i], qs[i+1:]...)
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (f fakeQuestions) Reorder(ctx context.Context, setID int64, questionIDs []int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	byID := make(map[int64]model.Question, len(f.questions[setID]))
	for _, q := range f.questions[setID] {
		byID[q.ID] = q
	}
	reordered := make([]model.Question, 0, len(questionIDs))
	for i, id := range questionIDs {
		q, ok := byID[id]
		if !ok {
			return pgx.ErrNoRows
		}
		q.Order = i
		reordered = append(reordered, q)
	}
	f.questions[setID] = reordered
	return nil
}

func (f fakeQuestions) CountInSet(ctx context.Context, setID int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.questions[setID])), nil
}

// ViolationStore methods.

func (f fakeViolations) Insert(ctx context.Context, v *model.Violation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	v.ID = f.id()
	v.CreatedAt = time.Now()
	f.violations = append(f.violations, *v)
	return nil
}

func (f fakeViolations) ListBySession(ctx context.Context, sessionID int64) ([]model.Violation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Violation
	for _, v := range f.violations {
		if v.SessionID == sessionID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (f fakeViolations) CountBySessions(ctx context.Context, sessionIDs []int64) (map[int64]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	want := make(map[int64]bool, len(sessionIDs))
	for _, id := range sessionIDs {
		want[id] = true
	}
	counts := make(map[int64]int64)
	for _, v := range f.violations {
		if want[v.SessionID] {
			counts[v.SessionID]++
		}
	}
	return counts, nil
}

func (f fakeViolations) ListFiltered(ctx context.Context, filter repository.ViolationFilter) ([]repository.ViolationDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []repository.ViolationDetail
	for _, v := range f.violations {
		s, ok := f.sessions[v.SessionID]
		if !ok {
			continue
		}
		if filter.CandidateID != 0 && s.CandidateID != filter.CandidateID {
			continue
		}
		if filter.QuestionSetID != 0 && s.QuestionSetID != filter.QuestionSetID {
			continue
		}
		out = append(out, repository.ViolationDetail{
			Violation:     v,
			CandidateID:   s.CandidateID,
			QuestionSetID: s.QuestionSetID,
		})
	}
	return out, nil
}

// UserStore methods.

func (f fakeUsers) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f fakeUsers) GetByID(ctx context.Context, id int64) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *u
	return &cp, nil
}

func (f fakeUsers) Create(ctx context.Context, u *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.users {
		if existing.Username == u.Username {
			return repository.ErrDuplicate
		}
	}
	u.ID = f.id()
	u.IsActive = true
	cp := *u
	f.users[u.ID] = &cp
	return nil
}

func (f fakeUsers) List(ctx context.Context, role model.Role) ([]model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.User
	for _, u := range f.users {
		if role == "" || u.Role == role {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (f fakeUsers) Update(ctx context.Context, u *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[u.ID]; !ok {
		return pgx.ErrNoRows
	}
	cp := *u
	f.users[u.ID] = &cp
	return nil
}

// DashboardStore methods.

func (f fakeDashboard) ListOverviews(ctx context.Context) ([]repository.AssignmentOverview, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []repository.AssignmentOverview
	for _, a := range f.assignments {
		o := repository.AssignmentOverview{
			AssignmentID:  a.ID,
			CandidateID:   a.CandidateID,
			QuestionSetID: a.QuestionSetID,
			SessionCode:   a.SessionCode,
			IsActive:      a.IsActive,
		}
		if set := f.sets[a.QuestionSetID]; set != nil {
			o.QuestionSet = set.Name
			o.TestType = set.TestTypeName
		}
		if user := f.users[a.CandidateID]; user != nil {
			o.Candidate = user.Username
		}
		out = append(out, o)
	}
	return out, nil
}

func (f fakeDashboard) GetSummaryCounts(ctx context.Context) (*repository.SummaryCounts, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := &repository.SummaryCounts{
		QuestionSets: int64(len(f.sets)),
		Assignments:  int64(len(f.assignments)),
		Violations:   int64(len(f.violations)),
	}
	for _, u := range f.users {
		if u.Role == model.RoleCandidate {
			c.Candidates++
		}
	}
	for _, s := range f.sessions {
		switch s.Status {
		case model.SessionStatusInProgress:
			c.InProgress++
		case model.SessionStatusAutoSubmitted:
			c.AutoSubmitted++
		}
	}
	return c, nil
}
