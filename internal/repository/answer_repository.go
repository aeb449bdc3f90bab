package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vantora/vantora-backend/internal/model"
)

// SaveAnswerParams carries one autosave write. For multiple choice answers
// Text stays nil and OptionIDs fully replaces the stored selection.
type SaveAnswerParams struct {
	SessionID      int64
	QuestionID     int64
	Text           *string
	OptionIDs      []int64
	MultipleChoice bool
}

// AnswerRepository handles answer persistence. There is at most one answer
// row per (session, question); saves upsert that row, and once a session is
// finalized every row is locked via is_final.
type AnswerRepository struct {
	pool *pgxpool.Pool
}

// NewAnswerRepository creates a new AnswerRepository.
func NewAnswerRepository(pool *pgxpool.Pool) *AnswerRepository {
	return &AnswerRepository{pool: pool}
}

// Save upserts the answer for one question in a session. Returns
// ErrAnswerLocked if the existing row was already finalized. Multiple
// choice selections are replaced wholesale; selected ids that do not
// belong to the question are dropped by the option join.
func (r *AnswerRepository) Save(ctx context.Context, p SaveAnswerParams) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var answerID int64
	var isFinal bool
	err = tx.QueryRow(ctx,
		`SELECT id, is_final FROM answers
		 WHERE session_id = $1 AND question_id = $2
		 FOR UPDATE`, p.SessionID, p.QuestionID).Scan(&answerID, &isFinal)
	switch {
	case err == pgx.ErrNoRows:
		err = tx.QueryRow(ctx,
			`INSERT INTO answers (session_id, question_id, answer_text, last_saved_at)
			 VALUES ($1, $2, $3, NOW())
			 RETURNING id`, p.SessionID, p.QuestionID, textValue(p)).Scan(&answerID)
		if err != nil {
			return err
		}
	case err != nil:
		return err
	case isFinal:
		return ErrAnswerLocked
	default:
		_, err = tx.Exec(ctx,
			`UPDATE answers
			 SET answer_text = $1, last_saved_at = NOW(), updated_at = NOW()
			 WHERE id = $2`, textValue(p), answerID)
		if err != nil {
			return err
		}
	}

	if p.MultipleChoice {
		_, err = tx.Exec(ctx, `DELETE FROM answer_options WHERE answer_id = $1`, answerID)
		if err != nil {
			return err
		}
		if len(p.OptionIDs) > 0 {
			_, err = tx.Exec(ctx,
				`INSERT INTO answer_options (answer_id, option_id)
				 SELECT $1, qo.id FROM question_options qo
				 WHERE qo.question_id = $2 AND qo.id = ANY($3)`,
				answerID, p.QuestionID, p.OptionIDs)
			if err != nil {
				return err
			}
		}
	} else {
		// A question's answer type never changes mid-session, but clearing
		// keeps the row consistent if the set was edited between attempts.
		_, err = tx.Exec(ctx, `DELETE FROM answer_options WHERE answer_id = $1`, answerID)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func textValue(p SaveAnswerParams) *string {
	if p.MultipleChoice {
		return nil
	}
	return p.Text
}

// AnswerReview is one answered question in an admin session review,
// pairing the stored answer with its question and option definitions.
type AnswerReview struct {
	QuestionID    int64                  `json:"question_id"`
	QuestionTitle string                 `json:"question_title"`
	AnswerType    model.AnswerType       `json:"answer_type"`
	AnswerText    *string                `json:"answer_text"`
	SelectedIDs   []int64                `json:"selected_option_ids"`
	Options       []model.QuestionOption `json:"options,omitempty"`
	IsFinal       bool                   `json:"is_final"`
	LastSavedAt   *string                `json:"last_saved_at"`
}

// ListBySession retrieves every answer of a session joined with its
// question, in the question set's display order, for admin review.
func (r *AnswerRepository) ListBySession(ctx context.Context, sessionID int64) ([]AnswerReview, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT q.id, q.title, q.answer_type, a.answer_text, a.is_final,
		        to_char(a.last_saved_at, 'YYYY-MM-DD"T"HH24:MI:SSOF')
		 FROM answers a
		 JOIN questions q ON q.id = a.question_id
		 JOIN test_sessions s ON s.id = a.session_id
		 JOIN question_set_questions qsq
		   ON qsq.question_id = q.id AND qsq.question_set_id = s.question_set_id
		 WHERE a.session_id = $1
		 ORDER BY qsq.display_order ASC`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reviews []AnswerReview
	for rows.Next() {
		var rev AnswerReview
		if err := rows.Scan(&rev.QuestionID, &rev.QuestionTitle, &rev.AnswerType,
			&rev.AnswerText, &rev.IsFinal, &rev.LastSavedAt); err != nil {
			return nil, err
		}
		reviews = append(reviews, rev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range reviews {
		if reviews[i].AnswerType != model.AnswerTypeMultipleChoice {
			continue
		}
		if err := r.fillReviewOptions(ctx, sessionID, &reviews[i]); err != nil {
			return nil, err
		}
	}
	return reviews, nil
}

func (r *AnswerRepository) fillReviewOptions(ctx context.Context, sessionID int64, rev *AnswerReview) error {
	rows, err := r.pool.Query(ctx,
		`SELECT qo.id, qo.question_id, qo.option_text, qo.is_correct,
		        EXISTS (
		          SELECT 1 FROM answer_options ao
		          JOIN answers a ON a.id = ao.answer_id
		          WHERE a.session_id = $1 AND a.question_id = qo.question_id
		            AND ao.option_id = qo.id
		        )
		 FROM question_options qo
		 WHERE qo.question_id = $2
		 ORDER BY qo.id ASC`, sessionID, rev.QuestionID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var opt model.QuestionOption
		var selected bool
		if err := rows.Scan(&opt.ID, &opt.QuestionID, &opt.OptionText, &opt.IsCorrect, &selected); err != nil {
			return err
		}
		rev.Options = append(rev.Options, opt)
		if selected {
			rev.SelectedIDs = append(rev.SelectedIDs, opt.ID)
		}
	}
	return rows.Err()
}
