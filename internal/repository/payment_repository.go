package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/tuition_market/internal/model"
	"github.com/Freeeeeet/tuition_market/internal/repository/base"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const paymentColumns = `id, student_id, tutor_id, tuition_id, application_id, amount, external_ref,
	status, method, created_at, updated_at`

type PaymentRepository struct {
	*base.Repository
}

func NewPaymentRepository(pool *pgxpool.Pool) *PaymentRepository {
	return &PaymentRepository{Repository: base.NewRepository(pool)}
}

func scanPayment(row pgx.Row) (*model.Payment, error) {
	var p model.Payment
	err := row.Scan(
		&p.ID,
		&p.StudentID,
		&p.TutorID,
		&p.TuitionID,
		&p.ApplicationID,
		&p.Amount,
		&p.ExternalRef,
		&p.Status,
		&p.Method,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Create записывает платёж, повтор external_ref даёт base.ErrDuplicate
func (r *PaymentRepository) Create(ctx context.Context, p *model.Payment) error {
	query := `
		INSERT INTO payments (student_id, tutor_id, tuition_id, application_id, amount, external_ref, status, method)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`

	err := r.QueryRow(
		ctx, query,
		p.StudentID,
		p.TutorID,
		p.TuitionID,
		p.ApplicationID,
		p.Amount,
		p.ExternalRef,
		p.Status,
		p.Method,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create payment: %w", base.MapError(err))
	}

	return nil
}

func (r *PaymentRepository) GetByID(ctx context.Context, id int64) (*model.Payment, error) {
	p, err := scanPayment(r.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get payment by id: %w", err)
	}
	return p, nil
}

// GetByExternalRef поиск по id платежа у процессора
func (r *PaymentRepository) GetByExternalRef(ctx context.Context, ref string) (*model.Payment, error) {
	p, err := scanPayment(r.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE external_ref = $1`, ref))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get payment by external ref: %w", err)
	}
	return p, nil
}

func (r *PaymentRepository) UpdateStatus(ctx context.Context, id int64, status model.PaymentStatus) error {
	affected, err := r.ExecAffected(ctx,
		`UPDATE payments SET status = $1, updated_at = NOW() WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("update payment status: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("payment %d not found", id)
	}
	return nil
}

func (r *PaymentRepository) DeleteByTuition(ctx context.Context, tuitionID int64) error {
	if _, err := r.ExecAffected(ctx, `DELETE FROM payments WHERE tuition_id = $1`, tuitionID); err != nil {
		return fmt.Errorf("delete payments by tuition: %w", err)
	}
	return nil
}

// List платежи по студенту/репетитору/статусам и диапазону дат создания
func (r *PaymentRepository) List(ctx context.Context, filter model.PaymentFilter) ([]*model.Payment, int, error) {
	var w where
	if filter.StudentID != nil {
		w.add("student_id = ?", *filter.StudentID)
	}
	if filter.TutorID != nil {
		w.add("tutor_id = ?", *filter.TutorID)
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = string(s)
		}
		w.add("status = ANY(?)", statuses)
	}
	if filter.From != nil {
		w.add("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		w.add("created_at <= ?", *filter.To)
	}

	var total int
	if err := r.QueryRow(ctx, `SELECT COUNT(*) FROM payments `+w.String(), w.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count payments: %w", err)
	}

	query := `SELECT ` + paymentColumns + ` FROM payments ` + w.String() +
		` ORDER BY created_at DESC LIMIT ` + w.arg(filter.Page.Limit) + ` OFFSET ` + w.arg(filter.Page.Offset())

	rows, err := r.Query(ctx, query, w.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	payments := []*model.Payment{}
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan payment: %w", err)
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate payments: %w", err)
	}

	return payments, total, nil
}
