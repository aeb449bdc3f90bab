package service

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"
	"github.com/vantora/vantora-backend/internal/model"
)

func newSessionHarness(t *testing.T) (*fakeStore, *SessionService) {
	t.Helper()
	store := newFakeStore()
	svc := NewSessionService(fakeSessions{store}, fakeCatalog{store}, fakeQuestions{store}, fakeAnswers{store})
	return store, svc
}

func mcQuestion(title string, optionCount int) model.Question {
	q := model.Question{
		Title:      title,
		Body:       title + "?",
		AnswerType: model.AnswerTypeMultipleChoice,
	}
	for i := 0; i < optionCount; i++ {
		q.Options = append(q.Options, model.QuestionOption{OptionText: string(rune('A' + i))})
	}
	return q
}

func textQuestion(title string) model.Question {
	return model.Question{Title: title, Body: title + "?", AnswerType: model.AnswerTypeLongText}
}

func TestStartCreatesTimedSession(t *testing.T) {
	store, svc := newSessionHarness(t)
	candidate := store.addUser("jules", model.RoleCandidate)
	set := store.addSet("Algorithms", 45, textQuestion("Explain quicksort"), mcQuestion("Pick primes", 4))
	assignment := store.addAssignment(set.ID, candidate.ID, "CODE0001")

	before := time.Now()
	result, err := svc.Start(context.Background(), assignment)
	require.NoError(t, err)

	require.Equal(t, model.SessionStatusInProgress, result.Session.Status)
	require.Equal(t, assignment.ID, result.Session.AssignmentID)
	require.Equal(t, candidate.ID, result.Session.CandidateID)
	require.NotEmpty(t, result.ViolationToken)
	require.Len(t, result.Questions, 2)

	wantEnd := result.Session.StartTime.Add(45 * time.Minute)
	require.Equal(t, wantEnd, result.Session.EndTime)
	require.False(t, result.Session.StartTime.Before(before))
}

func TestStartStripsCorrectnessFromQuestions(t *testing.T) {
	store, svc := newSessionHarness(t)
	candidate := store.addUser("jules", model.RoleCandidate)
	q := mcQuestion("Pick primes", 3)
	q.Options[1].IsCorrect = true
	set := store.addSet("Algorithms", 30, q)
	assignment := store.addAssignment(set.ID, candidate.ID, "CODE0001")

	result, err := svc.Start(context.Background(), assignment)
	require.NoError(t, err)
	require.Len(t, result.Questions, 1)
	require.Len(t, result.Questions[0].Options, 3)
	// CandidateOption carries no correctness field at all; the ids must
	// still line up with the stored options.
	for i, opt := range result.Questions[0].Options {
		require.NotZero(t, opt.ID, "option %d", i)
	}
}

func TestStartFallsBackToDefaultDuration(t *testing.T) {
	store, svc := newSessionHarness(t)
	candidate := store.addUser("jules", model.RoleCandidate)
	set := store.addSet("Untimed", 0, textQuestion("Q"))
	assignment := store.addAssignment(set.ID, candidate.ID, "CODE0001")

	result, err := svc.Start(context.Background(), assignment)
	require.NoError(t, err)
	require.Equal(t, result.Session.StartTime.Add(60*time.Minute), result.Session.EndTime)
}

func TestStartRejectsWhileSessionInProgress(t *testing.T) {
	store, svc := newSessionHarness(t)
	candidate := store.addUser("jules", model.RoleCandidate)
	set := store.addSet("Algorithms", 45, textQuestion("Q"))
	assignment := store.addAssignment(set.ID, candidate.ID, "CODE0001")

	_, err := svc.Start(context.Background(), assignment)
	require.NoError(t, err)

	_, err = svc.Start(context.Background(), assignment)
	require.ErrorIs(t, err, ErrSessionInProgress)
}

func TestStartAfterSubmitReportsCodeUsed(t *testing.T) {
	store, svc := newSessionHarness(t)
	candidate := store.addUser("jules", model.RoleCandidate)
	set := store.addSet("Algorithms", 45, textQuestion("Q"))
	assignment := store.addAssignment(set.ID, candidate.ID, "CODE0001")

	result, err := svc.Start(context.Background(), assignment)
	require.NoError(t, err)
	_, err = svc.Submit(context.Background(), candidate.ID, result.Session.ID)
	require.NoError(t, err)

	_, err = svc.Start(context.Background(), assignment)
	require.ErrorIs(t, err, ErrSessionUsed)
}

func TestStartFinalizesOverdueSessionAndReportsExpired(t *testing.T) {
	store, svc := newSessionHarness(t)
	candidate := store.addUser("jules", model.RoleCandidate)
	set := store.addSet("Algorithms", 45, textQuestion("Q"))
	assignment := store.addAssignment(set.ID, candidate.ID, "CODE0001")

	result, err := svc.Start(context.Background(), assignment)
	require.NoError(t, err)
	store.setEndTime(result.Session.ID, time.Now().Add(-time.Minute))

	_, err = svc.Start(context.Background(), assignment)
	require.ErrorIs(t, err, ErrSessionExpired)
	require.Equal(t, model.SessionStatusAutoSubmitted, store.session(result.Session.ID).Status)
}

func TestSaveAnswerTextOverwrites(t *testing.T) {
	store, svc := newSessionHarness(t)
	candidate := store.addUser("jules", model.RoleCandidate)
	set := store.addSet("Essay", 45, textQuestion("Explain"))
	assignment := store.addAssignment(set.ID, candidate.ID, "CODE0001")

	result, err := svc.Start(context.Background(), assignment)
	require.NoError(t, err)
	questionID := result.Questions[0].ID

	hello, world := "hello", "world"
	err = svc.SaveAnswer(context.Background(), candidate.ID, &model.SaveAnswerRequest{
		SessionID:  result.Session.ID,
		QuestionID: questionID,
		AnswerText: &hello,
	})
	require.NoError(t, err)
	err = svc.SaveAnswer(context.Background(), candidate.ID, &model.SaveAnswerRequest{
		SessionID:  result.Session.ID,
		QuestionID: questionID,
		AnswerText: &world,
	})
	require.NoError(t, err)

	saved := store.answer(result.Session.ID, questionID)
	require.NotNil(t, saved)
	require.Equal(t, "world", *saved.text)
}

func TestSaveAnswerMultipleChoiceReplacesSelection(t *testing.T) {
	store, svc := newSessionHarness(t)
	candidate := store.addUser("jules", model.RoleCandidate)
	set := store.addSet("Choice", 45, mcQuestion("Pick", 4))
	assignment := store.addAssignment(set.ID, candidate.ID, "CODE0001")

	result, err := svc.Start(context.Background(), assignment)
	require.NoError(t, err)
	question := result.Questions[0]
	first := question.Options[0].ID
	second := question.Options[1].ID
	third := question.Options[2].ID

	err = svc.SaveAnswer(context.Background(), candidate.ID, &model.SaveAnswerRequest{
		SessionID:         result.Session.ID,
		QuestionID:        question.ID,
		SelectedOptionIDs: []int64{first, second},
	})
	require.NoError(t, err)
	err = svc.SaveAnswer(context.Background(), candidate.ID, &model.SaveAnswerRequest{
		SessionID:         result.Session.ID,
		QuestionID:        question.ID,
		SelectedOptionIDs: []int64{third},
	})
	require.NoError(t, err)

	saved := store.answer(result.Session.ID, question.ID)
	require.Equal(t, []int64{third}, saved.optionIDs)
}

func TestSaveAnswerDropsForeignOptionIDs(t *testing.T) {
	store, svc := newSessionHarness(t)
	candidate := store.addUser("jules", model.RoleCandidate)
	set := store.addSet("Choice", 45, mcQuestion("Pick", 2))
	assignment := store.addAssignment(set.ID, candidate.ID, "CODE0001")

	result, err := svc.Start(context.Background(), assignment)
	require.NoError(t, err)
	question := result.Questions[0]
	valid := question.Options[0].ID

	err = svc.SaveAnswer(context.Background(), candidate.ID, &model.SaveAnswerRequest{
		SessionID:         result.Session.ID,
		QuestionID:        question.ID,
		SelectedOptionIDs: []int64{valid, 999999},
	})
	require.NoError(t, err)

	saved := store.answer(result.Session.ID, question.ID)
	require.Equal(t, []int64{valid}, saved.optionIDs)
}

func TestSaveAnswerRejectsQuestionOutsideSet(t *testing.T) {
	store, svc := newSessionHarness(t)
	candidate := store.addUser("jules", model.RoleCandidate)
	set := store.addSet("Essay", 45, textQuestion("Explain"))
	other := store.addSet("Other", 45, textQuestion("Unrelated"))
	assignment := store.addAssignment(set.ID, candidate.ID, "CODE0001")

	result, err := svc.Start(context.Background(), assignment)
	require.NoError(t, err)

	foreign := store.questions[other.ID][0].ID
	text := "hello"
	err = svc.SaveAnswer(context.Background(), candidate.ID, &model.SaveAnswerRequest{
		SessionID:  result.Session.ID,
		QuestionID: foreign,
		AnswerText: &text,
	})
	require.ErrorIs(t, err, ErrQuestionNotInSet)
}

func TestSaveAnswerRejectsForeignCandidate(t *testing.T) {
	store, svc := newSessionHarness(t)
	owner := store.addUser("jules", model.RoleCandidate)
	intruder := store.addUser("mallory", model.RoleCandidate)
	set := store.addSet("Essay", 45, textQuestion("Explain"))
	assignment := store.addAssignment(set.ID, owner.ID, "CODE0001")

	result, err := svc.Start(context.Background(), assignment)
	require.NoError(t, err)

	text := "hijack"
	err = svc.SaveAnswer(context.Background(), intruder.ID, &model.SaveAnswerRequest{
		SessionID:  result.Session.ID,
		QuestionID: result.Questions[0].ID,
		AnswerText: &text,
	})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSaveAnswerOnOverdueSessionExpiresIt(t *testing.T) {
	store, svc := newSessionHarness(t)
	candidate := store.addUser("jules", model.RoleCandidate)
	set := store.addSet("Essay", 45, textQuestion("Explain"))
	assignment := store.addAssignment(set.ID, candidate.ID, "CODE0001")

	result, err := svc.Start(context.Background(), assignment)
	require.NoError(t, err)
	store.setEndTime(result.Session.ID, time.Now().Add(-time.Second))

	text := "too late"
	err = svc.SaveAnswer(context.Background(), candidate.ID, &model.SaveAnswerRequest{
		SessionID:  result.Session.ID,
		QuestionID: result.Questions[0].ID,
		AnswerText: &text,
	})
	require.ErrorIs(t, err, ErrSessionExpired)
	require.Equal(t, model.SessionStatusAutoSubmitted, store.session(result.Session.ID).Status)
	require.Nil(t, store.answer(result.Session.ID, result.Questions[0].ID))
}

func TestSubmitLocksAnswers(t *testing.T) {
	store, svc := newSessionHarness(t)
	candidate := store.addUser("jules", model.RoleCandidate)
	set := store.addSet("Essay", 45, textQuestion("Explain"))
	assignment := store.addAssignment(set.ID, candidate.ID, "CODE0001")

	result, err := svc.Start(context.Background(), assignment)
	require.NoError(t, err)
	questionID := result.Questions[0].ID

	text := "final answer"
	err = svc.SaveAnswer(context.Background(), candidate.ID, &model.SaveAnswerRequest{
		SessionID:  result.Session.ID,
		QuestionID: questionID,
		AnswerText: &text,
	})
	require.NoError(t, err)

	final, err := svc.Submit(context.Background(), candidate.ID, result.Session.ID)
	require.NoError(t, err)
	require.Equal(t, model.SessionStatusSubmitted, final.Status)
	require.NotNil(t, final.SubmittedAt)
	require.True(t, store.answer(result.Session.ID, questionID).isFinal)

	// The locked answer must survive later write attempts untouched.
	altered := "changed my mind"
	err = svc.SaveAnswer(context.Background(), candidate.ID, &model.SaveAnswerRequest{
		SessionID:  result.Session.ID,
		QuestionID: questionID,
		AnswerText: &altered,
	})
	require.ErrorIs(t, err, ErrAlreadySubmitted)
	require.Equal(t, "final answer", *store.answer(result.Session.ID, questionID).text)
}

func TestSubmitTwiceReportsAlreadySubmitted(t *testing.T) {
	store, svc := newSessionHarness(t)
	candidate := store.addUser("jules", model.RoleCandidate)
	set := store.addSet("Essay", 45, textQuestion("Explain"))
	assignment := store.addAssignment(set.ID, candidate.ID, "CODE0001")

	result, err := svc.Start(context.Background(), assignment)
	require.NoError(t, err)

	_, err = svc.Submit(context.Background(), candidate.ID, result.Session.ID)
	require.NoError(t, err)
	_, err = svc.Submit(context.Background(), candidate.ID, result.Session.ID)
	require.ErrorIs(t, err, ErrAlreadySubmitted)
}

func TestSubmitOverdueSessionAutoSubmits(t *testing.T) {
	store, svc := newSessionHarness(t)
	candidate := store.addUser("jules", model.RoleCandidate)
	set := store.addSet("Essay", 45, textQuestion("Explain"))
	assignment := store.addAssignment(set.ID, candidate.ID, "CODE0001")

	result, err := svc.Start(context.Background(), assignment)
	require.NoError(t, err)
	store.setEndTime(result.Session.ID, time.Now().Add(-time.Minute))

	_, err = svc.Submit(context.Background(), candidate.ID, result.Session.ID)
	require.ErrorIs(t, err, ErrSessionExpired)
	require.Equal(t, model.SessionStatusAutoSubmitted, store.session(result.Session.ID).Status)
}

func TestSaveAnswerRejectsLockedAnswer(t *testing.T) {
	store, svc := newSessionHarness(t)
	candidate := store.addUser("jules", model.RoleCandidate)
	set := store.addSet("Essay", 45, textQuestion("Explain"))
	assignment := store.addAssignment(set.ID, candidate.ID, "CODE0001")

	result, err := svc.Start(context.Background(), assignment)
	require.NoError(t, err)
	questionID := result.Questions[0].ID

	hello := "hello"
	err = svc.SaveAnswer(context.Background(), candidate.ID, &model.SaveAnswerRequest{
		SessionID:  result.Session.ID,
		QuestionID: questionID,
		AnswerText: &hello,
	})
	require.NoError(t, err)

	// A finalizer can lock the answer after the activity guard passes.
	store.answer(result.Session.ID, questionID).isFinal = true

	world := "world"
	err = svc.SaveAnswer(context.Background(), candidate.ID, &model.SaveAnswerRequest{
		SessionID:  result.Session.ID,
		QuestionID: questionID,
		AnswerText: &world,
	})
	require.ErrorIs(t, err, ErrAnswerLocked)
	require.Equal(t, "hello", *store.answer(result.Session.ID, questionID).text)
}

// staleLatestSessions simulates a concurrent start: the history read sees
// no session even though another start has already inserted one.
type staleLatestSessions struct {
	fakeSessions
}

func (staleLatestSessions) LatestByAssignment(ctx context.Context, assignmentID int64) (*model.TestSession, error) {
	return nil, pgx.ErrNoRows
}

func TestStartLosingConcurrentRaceReportsInProgress(t *testing.T) {
	store, svc := newSessionHarness(t)
	candidate := store.addUser("jules", model.RoleCandidate)
	set := store.addSet("Essay", 45, textQuestion("Explain"))
	assignment := store.addAssignment(set.ID, candidate.ID, "CODE0001")

	_, err := svc.Start(context.Background(), assignment)
	require.NoError(t, err)

	racer := NewSessionService(staleLatestSessions{fakeSessions{store}}, fakeCatalog{store}, fakeQuestions{store}, fakeAnswers{store})
	_, err = racer.Start(context.Background(), assignment)
	require.ErrorIs(t, err, ErrSessionInProgress)
}
