package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vantora/vantora-backend/internal/model"
)

func newCatalogHarness(t *testing.T) (*fakeStore, *CatalogService) {
	t.Helper()
	store := newFakeStore()
	return store, NewCatalogService(fakeCatalog{store}, fakeQuestions{store})
}

func TestCreateTestTypeRejectsDuplicateName(t *testing.T) {
	_, svc := newCatalogHarness(t)

	created, err := svc.CreateTestType(context.Background(), &model.CreateTestTypeRequest{Name: "Aptitude"})
	require.NoError(t, err)
	require.NotZero(t, created.ID)

	_, err = svc.CreateTestType(context.Background(), &model.CreateTestTypeRequest{Name: "Aptitude"})
	require.ErrorIs(t, err, ErrDuplicateName)
}

func TestCreateQuestionSetAppliesDefaults(t *testing.T) {
	_, svc := newCatalogHarness(t)
	tt, err := svc.CreateTestType(context.Background(), &model.CreateTestTypeRequest{Name: "Aptitude"})
	require.NoError(t, err)

	set, err := svc.CreateQuestionSet(context.Background(), &model.CreateQuestionSetRequest{
		Name:       "Numeracy",
		TestTypeID: tt.ID,
	})
	require.NoError(t, err)
	require.Equal(t, 60, set.DurationMinutes)
	require.Equal(t, 5, set.WarningMinutes)

	_, err = svc.CreateQuestionSet(context.Background(), &model.CreateQuestionSetRequest{
		Name:       "Orphan",
		TestTypeID: 999999,
	})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateQuestionSetAppliesPartialFields(t *testing.T) {
	_, svc := newCatalogHarness(t)
	tt, err := svc.CreateTestType(context.Background(), &model.CreateTestTypeRequest{Name: "Aptitude"})
	require.NoError(t, err)
	set, err := svc.CreateQuestionSet(context.Background(), &model.CreateQuestionSetRequest{
		Name:            "Numeracy",
		TestTypeID:      tt.ID,
		DurationMinutes: 30,
	})
	require.NoError(t, err)

	newDuration := 90
	updated, err := svc.UpdateQuestionSet(context.Background(), set.ID, &model.UpdateQuestionSetRequest{
		DurationMinutes: &newDuration,
	})
	require.NoError(t, err)
	require.Equal(t, 90, updated.DurationMinutes)
	require.Equal(t, "Numeracy", updated.Name)
}

func TestDeleteQuestionSetRefusedWhileAssigned(t *testing.T) {
	store, svc := newCatalogHarness(t)
	candidate := store.addUser("jules", model.RoleCandidate)
	set := store.addSet("Numeracy", 30)
	store.addAssignment(set.ID, candidate.ID, "CODE0001")

	err := svc.DeleteQuestionSet(context.Background(), set.ID)
	require.ErrorIs(t, err, ErrResourceInUse)

	unassigned := store.addSet("Literacy", 30)
	require.NoError(t, svc.DeleteQuestionSet(context.Background(), unassigned.ID))
	require.ErrorIs(t, svc.DeleteQuestionSet(context.Background(), unassigned.ID), ErrNotFound)
}

func TestCreateQuestionValidatesShape(t *testing.T) {
	store, svc := newCatalogHarness(t)
	set := store.addSet("Numeracy", 30)

	ctx := context.Background()

	// Answer type defaults to long text when omitted.
	q, err := svc.CreateQuestion(ctx, set.ID, &model.CreateQuestionRequest{Title: "Essay", Body: "Write"})
	require.NoError(t, err)
	require.Equal(t, model.AnswerTypeLongText, q.AnswerType)

	_, err = svc.CreateQuestion(ctx, set.ID, &model.CreateQuestionRequest{
		Title:      "Weird",
		Body:       "?",
		AnswerType: model.AnswerType("telepathy"),
	})
	require.ErrorIs(t, err, ErrInvalidAnswerType)

	_, err = svc.CreateQuestion(ctx, set.ID, &model.CreateQuestionRequest{
		Title:      "Lonely choice",
		Body:       "?",
		AnswerType: model.AnswerTypeMultipleChoice,
		Options:    []model.OptionInput{{OptionText: "only one"}},
	})
	require.ErrorIs(t, err, ErrOptionsRequired)

	_, err = svc.CreateQuestion(ctx, set.ID, &model.CreateQuestionRequest{
		Title:      "Essay with options",
		Body:       "?",
		AnswerType: model.AnswerTypeShortText,
		Options:    []model.OptionInput{{OptionText: "a"}, {OptionText: "b"}},
	})
	require.ErrorIs(t, err, ErrOptionsForbidden)

	mc, err := svc.CreateQuestion(ctx, set.ID, &model.CreateQuestionRequest{
		Title:      "Proper choice",
		Body:       "?",
		AnswerType: model.AnswerTypeMultipleChoice,
		Options:    []model.OptionInput{{OptionText: "a", IsCorrect: true}, {OptionText: "b"}},
	})
	require.NoError(t, err)
	require.Len(t, mc.Options, 2)
	require.NotZero(t, mc.Options[0].ID)
}

func TestCreateQuestionAppendsInOrder(t *testing.T) {
	store, svc := newCatalogHarness(t)
	set := store.addSet("Numeracy", 30)

	for i, title := range []string{"first", "second", "third"} {
		q, err := svc.CreateQuestion(context.Background(), set.ID, &model.CreateQuestionRequest{Title: title, Body: "?"})
		require.NoError(t, err)
		require.Equal(t, i, q.Order)
	}
}

func TestUpdateQuestionReplacesOptionsWholesale(t *testing.T) {
	store, svc := newCatalogHarness(t)
	set := store.addSet("Numeracy", 30)

	q, err := svc.CreateQuestion(context.Background(), set.ID, &model.CreateQuestionRequest{
		Title:      "Pick",
		Body:       "?",
		AnswerType: model.AnswerTypeMultipleChoice,
		Options:    []model.OptionInput{{OptionText: "a"}, {OptionText: "b"}, {OptionText: "c"}},
	})
	require.NoError(t, err)

	updated, err := svc.UpdateQuestion(context.Background(), set.ID, q.ID, &model.UpdateQuestionRequest{
		Options: []model.OptionInput{{OptionText: "x", IsCorrect: true}, {OptionText: "y"}},
	})
	require.NoError(t, err)
	require.Len(t, updated.Options, 2)
	require.Equal(t, "x", updated.Options[0].OptionText)

	// Shrinking below two options is rejected.
	_, err = svc.UpdateQuestion(context.Background(), set.ID, q.ID, &model.UpdateQuestionRequest{
		Options: []model.OptionInput{{OptionText: "alone"}},
	})
	require.ErrorIs(t, err, ErrOptionsRequired)
}

func TestDeleteQuestionRefusedOnceAnswered(t *testing.T) {
	store, svc := newCatalogHarness(t)
	sessions := NewSessionService(fakeSessions{store}, fakeCatalog{store}, fakeQuestions{store}, fakeAnswers{store})

	candidate := store.addUser("jules", model.RoleCandidate)
	set := store.addSet("Essay", 45, textQuestion("Explain"), textQuestion("Elaborate"))
	assignment := store.addAssignment(set.ID, candidate.ID, "CODE0001")

	started, err := sessions.Start(context.Background(), assignment)
	require.NoError(t, err)
	text := "words"
	err = sessions.SaveAnswer(context.Background(), candidate.ID, &model.SaveAnswerRequest{
		SessionID:  started.Session.ID,
		QuestionID: started.Questions[0].ID,
		AnswerText: &text,
	})
	require.NoError(t, err)

	err = svc.DeleteQuestion(context.Background(), set.ID, started.Questions[0].ID)
	require.ErrorIs(t, err, ErrResourceInUse)

	require.NoError(t, svc.DeleteQuestion(context.Background(), set.ID, started.Questions[1].ID))
}

func TestReorderQuestionsMustCoverSetExactly(t *testing.T) {
	store, svc := newCatalogHarness(t)
	set := store.addSet("Numeracy", 30, textQuestion("a"), textQuestion("b"), textQuestion("c"))
	ids := make([]int64, 0, 3)
	for _, q := range store.questions[set.ID] {
		ids = append(ids, q.ID)
	}

	ctx := context.Background()

	require.ErrorIs(t, svc.ReorderQuestions(ctx, set.ID, ids[:2]), ErrReorderMismatch)
	require.ErrorIs(t, svc.ReorderQuestions(ctx, set.ID, []int64{ids[0], ids[0], ids[1]}), ErrReorderMismatch)
	require.ErrorIs(t, svc.ReorderQuestions(ctx, set.ID, []int64{ids[0], ids[1], 999999}), ErrReorderMismatch)

	require.NoError(t, svc.ReorderQuestions(ctx, set.ID, []int64{ids[2], ids[0], ids[1]}))
	reordered, err := svc.QuestionsForSet(ctx, set.ID)
	require.NoError(t, err)
	require.Equal(t, ids[2], reordered[0].ID)
	require.Equal(t, ids[0], reordered[1].ID)
	require.Equal(t, ids[1], reordered[2].ID)
}

func TestQuestionsForSetWithholdsCorrectness(t *testing.T) {
	store, svc := newCatalogHarness(t)
	q := mcQuestion("Pick", 2)
	q.Options[0].IsCorrect = true
	set := store.addSet("Choice", 30, q)

	out, err := svc.QuestionsForSet(context.Background(), set.ID)
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Len(t, out[0].Options, 2)
}
