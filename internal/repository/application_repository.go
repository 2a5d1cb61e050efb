package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/tuition_market/internal/model"
	"github.com/Freeeeeet/tuition_market/internal/repository/base"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const applicationColumns = `a.id, a.tuition_id, a.tutor_id, a.qualifications, a.experience, a.expected_salary,
	a.status, a.created_at, a.updated_at`

type ApplicationRepository struct {
	*base.Repository
}

func NewApplicationRepository(pool *pgxpool.Pool) *ApplicationRepository {
	return &ApplicationRepository{Repository: base.NewRepository(pool)}
}

func scanApplication(row pgx.Row) (*model.Application, error) {
	var app model.Application
	err := row.Scan(
		&app.ID,
		&app.TuitionID,
		&app.TutorID,
		&app.Qualifications,
		&app.Experience,
		&app.ExpectedSalary,
		&app.Status,
		&app.CreatedAt,
		&app.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &app, nil
}

// Create создаёт заявку, повтор от того же репетитора даёт base.ErrDuplicate
func (r *ApplicationRepository) Create(ctx context.Context, app *model.Application) error {
	query := `
		INSERT INTO applications (tuition_id, tutor_id, qualifications, experience, expected_salary, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`

	err := r.QueryRow(
		ctx, query,
		app.TuitionID,
		app.TutorID,
		app.Qualifications,
		app.Experience,
		app.ExpectedSalary,
		app.Status,
	).Scan(&app.ID, &app.CreatedAt, &app.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create application: %w", base.MapError(err))
	}

	return nil
}

// GetByID получает заявку по ID
func (r *ApplicationRepository) GetByID(ctx context.Context, id int64) (*model.Application, error) {
	app, err := scanApplication(r.QueryRow(ctx, `SELECT `+applicationColumns+` FROM applications a WHERE a.id = $1`, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get application by id: %w", err)
	}
	return app, nil
}

func (r *ApplicationRepository) GetByTuitionAndTutor(ctx context.Context, tuitionID, tutorID int64) (*model.Application, error) {
	app, err := scanApplication(r.QueryRow(ctx,
		`SELECT `+applicationColumns+` FROM applications a WHERE a.tuition_id = $1 AND a.tutor_id = $2`,
		tuitionID, tutorID,
	))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get application by tuition and tutor: %w", err)
	}
	return app, nil
}

// Update обновляет текст и ожидаемую оплату, только пока заявка Pending
func (r *ApplicationRepository) Update(ctx context.Context, app *model.Application) error {
	query := `
		UPDATE applications
		SET qualifications = $1, experience = $2, expected_salary = $3, updated_at = NOW()
		WHERE id = $4 AND status = $5
		RETURNING updated_at
	`

	err := r.QueryRow(ctx, query, app.Qualifications, app.Experience, app.ExpectedSalary, app.ID,
		model.ApplicationStatusPending).Scan(&app.UpdatedAt)
	if err != nil {
		if base.IsNotFound(err) {
			return fmt.Errorf("update application %d: %w", app.ID, base.ErrStale)
		}
		return fmt.Errorf("update application: %w", err)
	}
	return nil
}

func (r *ApplicationRepository) UpdateStatus(ctx context.Context, id int64, status model.ApplicationStatus) error {
	affected, err := r.ExecAffected(ctx,
		`UPDATE applications SET status = $1, updated_at = NOW() WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("update application status: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("application %d not found", id)
	}
	return nil
}

// RejectSiblings отклоняет остальные активные заявки объявления и возвращает их
func (r *ApplicationRepository) RejectSiblings(ctx context.Context, tuitionID, keepID int64) ([]*model.Application, error) {
	query := `
		UPDATE applications a
		SET status = $1, updated_at = NOW()
		WHERE a.tuition_id = $2 AND a.id <> $3 AND a.status IN ($4, $5)
		RETURNING ` + applicationColumns

	rows, err := r.Query(ctx, query,
		model.ApplicationStatusRejected,
		tuitionID,
		keepID,
		model.ApplicationStatusPending,
		model.ApplicationStatusApproved,
	)
	if err != nil {
		return nil, fmt.Errorf("reject sibling applications: %w", err)
	}
	defer rows.Close()

	return collectApplications(rows)
}

func (r *ApplicationRepository) CountByTuition(ctx context.Context, tuitionID int64) (int, error) {
	var count int
	err := r.QueryRow(ctx, `SELECT COUNT(*) FROM applications WHERE tuition_id = $1`, tuitionID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count applications: %w", err)
	}
	return count, nil
}

func (r *ApplicationRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.ExecAffected(ctx, `DELETE FROM applications WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete application: %w", err)
	}
	return nil
}

func (r *ApplicationRepository) DeleteByTuition(ctx context.Context, tuitionID int64) error {
	if _, err := r.ExecAffected(ctx, `DELETE FROM applications WHERE tuition_id = $1`, tuitionID); err != nil {
		return fmt.Errorf("delete applications by tuition: %w", err)
	}
	return nil
}

// ListByTutor заявки репетитора, новые первыми
func (r *ApplicationRepository) ListByTutor(ctx context.Context, tutorID int64) ([]*model.Application, error) {
	rows, err := r.Query(ctx,
		`SELECT `+applicationColumns+` FROM applications a WHERE a.tutor_id = $1 ORDER BY a.created_at DESC`, tutorID)
	if err != nil {
		return nil, fmt.Errorf("list tutor applications: %w", err)
	}
	defer rows.Close()

	return collectApplications(rows)
}

// ListByStudent заявки на объявления студента, новые первыми
func (r *ApplicationRepository) ListByStudent(ctx context.Context, studentID int64) ([]*model.Application, error) {
	query := `
		SELECT ` + applicationColumns + `
		FROM applications a
		JOIN tuitions t ON t.id = a.tuition_id
		WHERE t.student_id = $1
		ORDER BY a.created_at DESC
	`

	rows, err := r.Query(ctx, query, studentID)
	if err != nil {
		return nil, fmt.Errorf("list student applications: %w", err)
	}
	defer rows.Close()

	return collectApplications(rows)
}

func collectApplications(rows pgx.Rows) ([]*model.Application, error) {
	apps := []*model.Application{}
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("scan application: %w", err)
		}
		apps = append(apps, app)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate applications: %w", err)
	}
	return apps, nil
}
