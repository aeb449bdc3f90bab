package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vantora/vantora-backend/internal/model"
)

// CatalogRepository handles test types and question sets.
type CatalogRepository struct {
	pool *pgxpool.Pool
}

// NewCatalogRepository creates a new CatalogRepository.
func NewCatalogRepository(pool *pgxpool.Pool) *CatalogRepository {
	return &CatalogRepository{pool: pool}
}

// ListTestTypes retrieves all test types ordered by name.
func (r *CatalogRepository) ListTestTypes(ctx context.Context) ([]model.TestType, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, description, created_at FROM test_types ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var types []model.TestType
	for rows.Next() {
		var t model.TestType
		if err := rows.Scan(&t.ID, &t.Name, &t.Description, &t.CreatedAt); err != nil {
			return nil, err
		}
		types = append(types, t)
	}
	return types, rows.Err()
}

// GetTestType retrieves a test type by ID.
func (r *CatalogRepository) GetTestType(ctx context.Context, id int64) (*model.TestType, error) {
	t := &model.TestType{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, description, created_at FROM test_types WHERE id = $1`, id,
	).Scan(&t.ID, &t.Name, &t.Description, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// CreateTestType inserts a new test type. Names are unique.
func (r *CatalogRepository) CreateTestType(ctx context.Context, t *model.TestType) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO test_types (name, description) VALUES ($1, $2)
		 RETURNING id, created_at`,
		t.Name, t.Description,
	).Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

const questionSetColumns = `qs.id, qs.name, qs.description, qs.test_type_id, tt.name,
	qs.duration_minutes, qs.warning_minutes, qs.created_at, qs.updated_at`

func scanQuestionSet(row pgx.Row) (*model.QuestionSet, error) {
	qs := &model.QuestionSet{}
	err := row.Scan(&qs.ID, &qs.Name, &qs.Description, &qs.TestTypeID, &qs.TestTypeName,
		&qs.DurationMinutes, &qs.WarningMinutes, &qs.CreatedAt, &qs.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return qs, nil
}

// ListQuestionSets retrieves all question sets with their test type names.
func (r *CatalogRepository) ListQuestionSets(ctx context.Context) ([]model.QuestionSet, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+questionSetColumns+`
		 FROM question_sets qs
		 JOIN test_types tt ON tt.id = qs.test_type_id
		 ORDER BY qs.created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sets []model.QuestionSet
	for rows.Next() {
		var qs model.QuestionSet
		if err := rows.Scan(&qs.ID, &qs.Name, &qs.Description, &qs.TestTypeID, &qs.TestTypeName,
			&qs.DurationMinutes, &qs.WarningMinutes, &qs.CreatedAt, &qs.UpdatedAt); err != nil {
			return nil, err
		}
		sets = append(sets, qs)
	}
	return sets, rows.Err()
}

// GetQuestionSet retrieves a question set by ID with its test type name.
func (r *CatalogRepository) GetQuestionSet(ctx context.Context, id int64) (*model.QuestionSet, error) {
	return scanQuestionSet(r.pool.QueryRow(ctx,
		`SELECT `+questionSetColumns+`
		 FROM question_sets qs
		 JOIN test_types tt ON tt.id = qs.test_type_id
		 WHERE qs.id = $1`, id))
}

// CreateQuestionSet inserts a new question set.
func (r *CatalogRepository) CreateQuestionSet(ctx context.Context, qs *model.QuestionSet) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO question_sets (name, description, test_type_id, duration_minutes, warning_minutes)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at, updated_at`,
		qs.Name, qs.Description, qs.TestTypeID, qs.DurationMinutes, qs.WarningMinutes,
	).Scan(&qs.ID, &qs.CreatedAt, &qs.UpdatedAt)
}

// UpdateQuestionSet persists the set's mutable fields.
func (r *CatalogRepository) UpdateQuestionSet(ctx context.Context, qs *model.QuestionSet) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE question_sets
		 SET name = $1, description = $2, test_type_id = $3,
		     duration_minutes = $4, warning_minutes = $5, updated_at = NOW()
		 WHERE id = $6`,
		qs.Name, qs.Description, qs.TestTypeID, qs.DurationMinutes, qs.WarningMinutes, qs.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// CountAssignmentsForSet returns how many assignments reference a set.
// Used to refuse deleting a set that is in use.
func (r *CatalogRepository) CountAssignmentsForSet(ctx context.Context, setID int64) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM test_assignments WHERE question_set_id = $1`, setID).Scan(&count)
	return count, err
}

// DeleteQuestionSet removes a set and its question links. The questions
// themselves survive; they may belong to other sets.
func (r *CatalogRepository) DeleteQuestionSet(ctx context.Context, id int64) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `DELETE FROM question_set_questions WHERE question_set_id = $1`, id)
	if err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, `DELETE FROM question_sets WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return tx.Commit(ctx)
}
