package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/Freeeeeet/tuition_market/internal/model"
	"github.com/Freeeeeet/tuition_market/internal/repository/base"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const tuitionColumns = `id, student_id, subject, class_level, location, budget, schedule, mode,
	description, status, application_count, created_at, updated_at`

type TuitionRepository struct {
	*base.Repository
}

func NewTuitionRepository(pool *pgxpool.Pool) *TuitionRepository {
	return &TuitionRepository{Repository: base.NewRepository(pool)}
}

func scanTuition(row pgx.Row) (*model.Tuition, error) {
	var t model.Tuition
	err := row.Scan(
		&t.ID,
		&t.StudentID,
		&t.Subject,
		&t.ClassLevel,
		&t.Location,
		&t.Budget,
		&t.Schedule,
		&t.Mode,
		&t.Description,
		&t.Status,
		&t.ApplicationCount,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Create создаёт объявление
func (r *TuitionRepository) Create(ctx context.Context, t *model.Tuition) error {
	query := `
		INSERT INTO tuitions (student_id, subject, class_level, location, budget, schedule, mode, description, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, application_count, created_at, updated_at
	`

	err := r.QueryRow(
		ctx, query,
		t.StudentID,
		t.Subject,
		t.ClassLevel,
		t.Location,
		t.Budget,
		t.Schedule,
		t.Mode,
		t.Description,
		t.Status,
	).Scan(&t.ID, &t.ApplicationCount, &t.CreatedAt, &t.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create tuition: %w", base.MapError(err))
	}

	return nil
}

// GetByID получает объявление по ID
func (r *TuitionRepository) GetByID(ctx context.Context, id int64) (*model.Tuition, error) {
	t, err := scanTuition(r.QueryRow(ctx, `SELECT `+tuitionColumns+` FROM tuitions WHERE id = $1`, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get tuition by id: %w", err)
	}
	return t, nil
}

// GetByIDForUpdate то же что GetByID, но с блокировкой строки (нужна открытая транзакция)
func (r *TuitionRepository) GetByIDForUpdate(ctx context.Context, id int64) (*model.Tuition, error) {
	t, err := scanTuition(r.QueryRow(ctx, `SELECT `+tuitionColumns+` FROM tuitions WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("lock tuition: %w", err)
	}
	return t, nil
}

func (r *TuitionRepository) GetByIDs(ctx context.Context, ids []int64) ([]*model.Tuition, error) {
	if len(ids) == 0 {
		return []*model.Tuition{}, nil
	}

	rows, err := r.Query(ctx, `SELECT `+tuitionColumns+` FROM tuitions WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("get tuitions by ids: %w", err)
	}
	defer rows.Close()

	return collectTuitions(rows)
}

// Update обновляет редактируемые поля объявления
func (r *TuitionRepository) Update(ctx context.Context, t *model.Tuition) error {
	query := `
		UPDATE tuitions
		SET subject = $1, class_level = $2, location = $3, budget = $4, schedule = $5, mode = $6,
			description = $7, updated_at = NOW()
		WHERE id = $8
		RETURNING updated_at
	`

	err := r.QueryRow(
		ctx, query,
		t.Subject,
		t.ClassLevel,
		t.Location,
		t.Budget,
		t.Schedule,
		t.Mode,
		t.Description,
		t.ID,
	).Scan(&t.UpdatedAt)

	if err != nil {
		if base.IsNotFound(err) {
			return fmt.Errorf("tuition %d not found", t.ID)
		}
		return fmt.Errorf("update tuition: %w", err)
	}

	return nil
}

// UpdateStatus меняет статус, проверка перехода на стороне сервиса
func (r *TuitionRepository) UpdateStatus(ctx context.Context, id int64, status model.TuitionStatus) error {
	affected, err := r.ExecAffected(ctx,
		`UPDATE tuitions SET status = $1, updated_at = NOW() WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("update tuition status: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("tuition %d not found", id)
	}
	return nil
}

func (r *TuitionRepository) AdjustApplicationCount(ctx context.Context, id int64, delta int) error {
	_, err := r.ExecAffected(ctx,
		`UPDATE tuitions SET application_count = GREATEST(application_count + $1, 0) WHERE id = $2`, delta, id)
	if err != nil {
		return fmt.Errorf("adjust application count: %w", err)
	}
	return nil
}

func (r *TuitionRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.ExecAffected(ctx, `DELETE FROM tuitions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete tuition: %w", err)
	}
	return nil
}

var tuitionOrder = map[model.TuitionSort]string{
	model.TuitionSortDateDesc:   "created_at DESC",
	model.TuitionSortDateAsc:    "created_at ASC",
	model.TuitionSortBudgetAsc:  "budget ASC, created_at DESC",
	model.TuitionSortBudgetDesc: "budget DESC, created_at DESC",
}

// List общий список объявлений с фильтрами и сортировкой
func (r *TuitionRepository) List(ctx context.Context, filter model.TuitionFilter) ([]*model.Tuition, int, error) {
	var w where
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = string(s)
		}
		w.add("status = ANY(?)", statuses)
	}
	if filter.StudentID != nil {
		w.add("student_id = ?", *filter.StudentID)
	}
	if filter.ClassLevel != "" {
		w.add("class_level = ?", filter.ClassLevel)
	}
	if filter.Subject != "" {
		w.add("subject ILIKE ?", like(filter.Subject))
	}
	if filter.Location != "" {
		w.add("location ILIKE ?", like(filter.Location))
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		pattern := like(q)
		w.add("(subject ILIKE ? OR location ILIKE ? OR description ILIKE ?)", pattern, pattern, pattern)
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		pattern := like(s)
		w.add("(subject ILIKE ? OR location ILIKE ?)", pattern, pattern)
	}

	var total int
	if err := r.QueryRow(ctx, `SELECT COUNT(*) FROM tuitions `+w.String(), w.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count tuitions: %w", err)
	}

	order, ok := tuitionOrder[filter.Sort]
	if !ok {
		order = tuitionOrder[model.TuitionSortDateDesc]
	}

	query := `SELECT ` + tuitionColumns + ` FROM tuitions ` + w.String() +
		` ORDER BY ` + order + ` LIMIT ` + w.arg(filter.Page.Limit) + ` OFFSET ` + w.arg(filter.Page.Offset())

	rows, err := r.Query(ctx, query, w.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list tuitions: %w", err)
	}
	defer rows.Close()

	tuitions, err := collectTuitions(rows)
	if err != nil {
		return nil, 0, err
	}
	return tuitions, total, nil
}

func collectTuitions(rows pgx.Rows) ([]*model.Tuition, error) {
	tuitions := []*model.Tuition{}
	for rows.Next() {
		t, err := scanTuition(rows)
		if err != nil {
			return nil, fmt.Errorf("scan tuition: %w", err)
		}
		tuitions = append(tuitions, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tuitions: %w", err)
	}
	return tuitions, nil
}
