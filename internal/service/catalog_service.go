package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/vantora/vantora-backend/internal/model"
	"github.com/vantora/vantora-backend/internal/repository"
)

// Catalog validation errors.
var (
	ErrInvalidAnswerType = errors.New("unknown answer type")
	ErrOptionsRequired   = errors.New("multiple choice questions need at least two options")
	ErrOptionsForbidden  = errors.New("only multiple choice questions carry options")
	ErrReorderMismatch   = errors.New("reorder must list every question in the set exactly once")
)

// defaultWarningMinutes is applied when a set is created without one.
const defaultWarningMinutes = 5

// CatalogService manages test types, question sets, and questions.
type CatalogService struct {
	catalog   CatalogStore
	questions QuestionStore
}

// NewCatalogService creates a new CatalogService.
func NewCatalogService(catalog CatalogStore, questions QuestionStore) *CatalogService {
	return &CatalogService{catalog: catalog, questions: questions}
}

// ListTestTypes returns all test types.
func (s *CatalogService) ListTestTypes(ctx context.Context) ([]model.TestType, error) {
	return s.catalog.ListTestTypes(ctx)
}

// CreateTestType creates a test type with a unique name.
func (s *CatalogService) CreateTestType(ctx context.Context, req *model.CreateTestTypeRequest) (*model.TestType, error) {
	t := &model.TestType{Name: req.Name, Description: req.Description}
	if err := s.catalog.CreateTestType(ctx, t); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrDuplicateName
		}
		return nil, fmt.Errorf("create test type: %w", err)
	}
	return t, nil
}

// ListQuestionSets returns all question sets.
func (s *CatalogService) ListQuestionSets(ctx context.Context) ([]model.QuestionSet, error) {
	return s.catalog.ListQuestionSets(ctx)
}

// GetQuestionSet returns one question set with its questions.
func (s *CatalogService) GetQuestionSet(ctx context.Context, id int64) (*model.QuestionSet, []model.Question, error) {
	set, err := s.catalog.GetQuestionSet(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, fmt.Errorf("get question set: %w", err)
	}
	questions, err := s.questions.ListBySet(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("list questions: %w", err)
	}
	return set, questions, nil
}

// CreateQuestionSet creates a question set under an existing test type.
func (s *CatalogService) CreateQuestionSet(ctx context.Context, req *model.CreateQuestionSetRequest) (*model.QuestionSet, error) {
	if _, err := s.catalog.GetTestType(ctx, req.TestTypeID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get test type: %w", err)
	}

	set := &model.QuestionSet{
		Name:            req.Name,
		Description:     req.Description,
		TestTypeID:      req.TestTypeID,
		DurationMinutes: req.DurationMinutes,
		WarningMinutes:  req.WarningMinutes,
	}
	if set.DurationMinutes <= 0 {
		set.DurationMinutes = fallbackDurationMinutes
	}
	if set.WarningMinutes <= 0 {
		set.WarningMinutes = defaultWarningMinutes
	}
	if err := s.catalog.CreateQuestionSet(ctx, set); err != nil {
		return nil, fmt.Errorf("create question set: %w", err)
	}
	return set, nil
}

// UpdateQuestionSet applies the non-nil fields of the request. Duration
// changes never touch running sessions; end times are fixed at start.
func (s *CatalogService) UpdateQuestionSet(ctx context.Context, id int64, req *model.UpdateQuestionSetRequest) (*model.QuestionSet, error) {
	set, err := s.catalog.GetQuestionSet(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get question set: %w", err)
	}

	if req.Name != nil {
		set.Name = *req.Name
	}
	if req.Description != nil {
		set.Description = req.Description
	}
	if req.TestTypeID != nil {
		if _, err := s.catalog.GetTestType(ctx, *req.TestTypeID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, ErrNotFound
			}
			return nil, fmt.Errorf("get test type: %w", err)
		}
		set.TestTypeID = *req.TestTypeID
	}
	if req.DurationMinutes != nil {
		set.DurationMinutes = *req.DurationMinutes
	}
	if req.WarningMinutes != nil {
		set.WarningMinutes = *req.WarningMinutes
	}

	if err := s.catalog.UpdateQuestionSet(ctx, set); err != nil {
		return nil, fmt.Errorf("update question set: %w", err)
	}
	return set, nil
}

// DeleteQuestionSet removes a set unless assignments reference it.
func (s *CatalogService) DeleteQuestionSet(ctx context.Context, id int64) error {
	count, err := s.catalog.CountAssignmentsForSet(ctx, id)
	if err != nil {
		return fmt.Errorf("count assignments: %w", err)
	}
	if count > 0 {
		return ErrResourceInUse
	}
	if err := s.catalog.DeleteQuestionSet(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("delete question set: %w", err)
	}
	return nil
}

func validateQuestionShape(answerType model.AnswerType, options []model.OptionInput) error {
	if !answerType.Valid() {
		return ErrInvalidAnswerType
	}
	if answerType == model.AnswerTypeMultipleChoice {
		if len(options) < 2 {
			return ErrOptionsRequired
		}
	} else if len(options) > 0 {
		return ErrOptionsForbidden
	}
	return nil
}

func toOptions(inputs []model.OptionInput) []model.QuestionOption {
	opts := make([]model.QuestionOption, 0, len(inputs))
	for _, in := range inputs {
		opts = append(opts, model.QuestionOption{OptionText: in.OptionText, IsCorrect: in.IsCorrect})
	}
	return opts
}

// CreateQuestion appends a question to a set.
func (s *CatalogService) CreateQuestion(ctx context.Context, setID int64, req *model.CreateQuestionRequest) (*model.Question, error) {
	if _, err := s.catalog.GetQuestionSet(ctx, setID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get question set: %w", err)
	}

	answerType := req.AnswerType
	if answerType == "" {
		answerType = model.AnswerTypeLongText
	}
	if err := validateQuestionShape(answerType, req.Options); err != nil {
		return nil, err
	}

	q := &model.Question{
		Title:         req.Title,
		Body:          req.Body,
		Sections:      req.Sections,
		AnswerType:    answerType,
		AllowMultiple: req.AllowMultiple,
		Options:       toOptions(req.Options),
	}
	if err := s.questions.CreateInSet(ctx, setID, q); err != nil {
		return nil, fmt.Errorf("create question: %w", err)
	}
	return q, nil
}

// UpdateQuestion applies the non-nil fields of the request. Passing
// options replaces the option list wholesale.
func (s *CatalogService) UpdateQuestion(ctx context.Context, setID, questionID int64, req *model.UpdateQuestionRequest) (*model.Question, error) {
	q, err := s.questions.GetInSet(ctx, questionID, setID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get question: %w", err)
	}

	if req.Title != nil {
		q.Title = *req.Title
	}
	if req.Body != nil {
		q.Body = *req.Body
	}
	if req.Sections != nil {
		q.Sections = req.Sections
	}
	if req.AnswerType != nil {
		q.AnswerType = *req.AnswerType
	}
	if req.AllowMultiple != nil {
		q.AllowMultiple = *req.AllowMultiple
	}

	replaceOptions := req.Options != nil
	if replaceOptions {
		q.Options = toOptions(req.Options)
	}
	if err := validateQuestionShape(q.AnswerType, optionsAsInput(q.Options)); err != nil {
		return nil, err
	}

	if err := s.questions.Update(ctx, q, replaceOptions); err != nil {
		return nil, fmt.Errorf("update question: %w", err)
	}
	return q, nil
}

func optionsAsInput(opts []model.QuestionOption) []model.OptionInput {
	inputs := make([]model.OptionInput, 0, len(opts))
	for _, o := range opts {
		inputs = append(inputs, model.OptionInput{OptionText: o.OptionText, IsCorrect: o.IsCorrect})
	}
	return inputs
}

// DeleteQuestion removes a question from a set unless answers reference it.
func (s *CatalogService) DeleteQuestion(ctx context.Context, setID, questionID int64) error {
	hasAnswers, err := s.questions.HasAnswers(ctx, questionID)
	if err != nil {
		return fmt.Errorf("check answers: %w", err)
	}
	if hasAnswers {
		return ErrResourceInUse
	}
	if err := s.questions.DeleteFromSet(ctx, setID, questionID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("delete question: %w", err)
	}
	return nil
}

// ReorderQuestions rewrites a set's display order. The request must cover
// the set's questions exactly once.
func (s *CatalogService) ReorderQuestions(ctx context.Context, setID int64, questionIDs []int64) error {
	count, err := s.questions.CountInSet(ctx, setID)
	if err != nil {
		return fmt.Errorf("count questions: %w", err)
	}
	seen := make(map[int64]bool, len(questionIDs))
	for _, id := range questionIDs {
		if seen[id] {
			return ErrReorderMismatch
		}
		seen[id] = true
	}
	if int64(len(questionIDs)) != count {
		return ErrReorderMismatch
	}

	if err := s.questions.Reorder(ctx, setID, questionIDs); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrReorderMismatch
		}
		return fmt.Errorf("reorder questions: %w", err)
	}
	return nil
}

// QuestionsForSet returns the candidate-facing view of a set's questions.
func (s *CatalogService) QuestionsForSet(ctx context.Context, setID int64) ([]model.CandidateQuestion, error) {
	questions, err := s.questions.ListBySet(ctx, setID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	out := make([]model.CandidateQuestion, 0, len(questions))
	for i := range questions {
		out = append(out, questions[i].ForCandidate())
	}
	return out, nil
}
