package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vantora/vantora-backend/internal/model"
)

// QuestionRepository handles questions, their options, and their ordering
// within question sets.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

// ListBySet retrieves the questions of a set in display order, options
// included.
func (r *QuestionRepository) ListBySet(ctx context.Context, setID int64) ([]model.Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT q.id, q.title, q.body, q.sections, q.answer_type, q.allow_multiple,
		        qsq.display_order, q.created_at, q.updated_at
		 FROM questions q
		 JOIN question_set_questions qsq ON qsq.question_id = q.id
		 WHERE qsq.question_set_id = $1
		 ORDER BY qsq.display_order ASC`, setID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(&q.ID, &q.Title, &q.Body, &q.Sections, &q.AnswerType,
			&q.AllowMultiple, &q.Order, &q.CreatedAt, &q.UpdatedAt); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range questions {
		opts, err := r.listOptions(ctx, questions[i].ID)
		if err != nil {
			return nil, err
		}
		questions[i].Options = opts
	}
	return questions, nil
}

func (r *QuestionRepository) listOptions(ctx context.Context, questionID int64) ([]model.QuestionOption, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, question_id, option_text, is_correct, display_order
		 FROM question_options
		 WHERE question_id = $1
		 ORDER BY display_order ASC, id ASC`, questionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var opts []model.QuestionOption
	for rows.Next() {
		var o model.QuestionOption
		if err := rows.Scan(&o.ID, &o.QuestionID, &o.OptionText, &o.IsCorrect, &o.Order); err != nil {
			return nil, err
		}
		opts = append(opts, o)
	}
	return opts, rows.Err()
}

// GetInSet retrieves a question only if it belongs to the given set.
// Returns pgx.ErrNoRows otherwise; callers treat that as a membership
// failure, not a missing question.
func (r *QuestionRepository) GetInSet(ctx context.Context, questionID, setID int64) (*model.Question, error) {
	q := &model.Question{}
	err := r.pool.QueryRow(ctx,
		`SELECT q.id, q.title, q.body, q.sections, q.answer_type, q.allow_multiple,
		        qsq.display_order, q.created_at, q.updated_at
		 FROM questions q
		 JOIN question_set_questions qsq ON qsq.question_id = q.id
		 WHERE q.id = $1 AND qsq.question_set_id = $2`, questionID, setID,
	).Scan(&q.ID, &q.Title, &q.Body, &q.Sections, &q.AnswerType,
		&q.AllowMultiple, &q.Order, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		return nil, err
	}
	q.Options, err = r.listOptions(ctx, q.ID)
	if err != nil {
		return nil, err
	}
	return q, nil
}

// CreateInSet inserts a question with its options and appends it to the
// end of the set's ordering, all in one transaction.
func (r *QuestionRepository) CreateInSet(ctx context.Context, setID int64, q *model.Question) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO questions (title, body, sections, answer_type, allow_multiple)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at, updated_at`,
		q.Title, q.Body, q.Sections, q.AnswerType, q.AllowMultiple,
	).Scan(&q.ID, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		return err
	}

	err = tx.QueryRow(ctx,
		`INSERT INTO question_set_questions (question_set_id, question_id, display_order)
		 SELECT $1, $2, COUNT(*) FROM question_set_questions WHERE question_set_id = $1
		 RETURNING display_order`, setID, q.ID,
	).Scan(&q.Order)
	if err != nil {
		return err
	}

	for i := range q.Options {
		opt := &q.Options[i]
		opt.QuestionID = q.ID
		opt.Order = i
		err = tx.QueryRow(ctx,
			`INSERT INTO question_options (question_id, option_text, is_correct, display_order)
			 VALUES ($1, $2, $3, $4)
			 RETURNING id`,
			opt.QuestionID, opt.OptionText, opt.IsCorrect, opt.Order,
		).Scan(&opt.ID)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// Update persists a question's fields and, when replaceOptions is set,
// swaps its option list wholesale.
func (r *QuestionRepository) Update(ctx context.Context, q *model.Question, replaceOptions bool) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE questions
		 SET title = $1, body = $2, sections = $3, answer_type = $4,
		     allow_multiple = $5, updated_at = NOW()
		 WHERE id = $6`,
		q.Title, q.Body, q.Sections, q.AnswerType, q.AllowMultiple, q.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}

	if replaceOptions {
		_, err = tx.Exec(ctx, `DELETE FROM question_options WHERE question_id = $1`, q.ID)
		if err != nil {
			return err
		}
		for i := range q.Options {
			opt := &q.Options[i]
			opt.QuestionID = q.ID
			opt.Order = i
			err = tx.QueryRow(ctx,
				`INSERT INTO question_options (question_id, option_text, is_correct, display_order)
				 VALUES ($1, $2, $3, $4)
				 RETURNING id`,
				opt.QuestionID, opt.OptionText, opt.IsCorrect, opt.Order,
			).Scan(&opt.ID)
			if err != nil {
				return err
			}
		}
	}

	return tx.Commit(ctx)
}

// HasAnswers reports whether any session has an answer against the
// question. Questions with recorded answers cannot be deleted.
func (r *QuestionRepository) HasAnswers(ctx context.Context, questionID int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM answers WHERE question_id = $1)`, questionID).Scan(&exists)
	return exists, err
}

// DeleteFromSet unlinks a question from a set and deletes the question
// with its options, then compacts the set's display order.
func (r *QuestionRepository) DeleteFromSet(ctx context.Context, setID, questionID int64) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`DELETE FROM question_set_questions
		 WHERE question_set_id = $1 AND question_id = $2`, setID, questionID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}

	_, err = tx.Exec(ctx, `DELETE FROM question_options WHERE question_id = $1`, questionID)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `DELETE FROM questions WHERE id = $1`, questionID)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx,
		`UPDATE question_set_questions qsq
		 SET display_order = ranked.rn - 1
		 FROM (
		   SELECT question_id, ROW_NUMBER() OVER (ORDER BY display_order ASC) AS rn
		   FROM question_set_questions
		   WHERE question_set_id = $1
		 ) ranked
		 WHERE qsq.question_set_id = $1 AND qsq.question_id = ranked.question_id`, setID)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// Reorder rewrites the display order of a set's questions to match the
// given id sequence. The caller validates that the sequence covers the
// set exactly.
func (r *QuestionRepository) Reorder(ctx context.Context, setID int64, questionIDs []int64) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for i, qid := range questionIDs {
		tag, err := tx.Exec(ctx,
			`UPDATE question_set_questions
			 SET display_order = $1
			 WHERE question_set_id = $2 AND question_id = $3`, i, setID, qid)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return pgx.ErrNoRows
		}
	}

	return tx.Commit(ctx)
}

// CountInSet returns the number of questions linked to a set.
func (r *QuestionRepository) CountInSet(ctx context.Context, setID int64) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM question_set_questions WHERE question_set_id = $1`, setID).Scan(&count)
	return count, err
}
