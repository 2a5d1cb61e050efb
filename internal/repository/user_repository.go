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

const userColumns = `id, external_id, name, email, role, phone, photo_url, city, qualifications,
	experience_years, subjects, class_levels, is_verified, average_rating::float8, review_count,
	is_available, telegram_chat_id, created_at, updated_at`

type UserRepository struct {
	*base.Repository
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{Repository: base.NewRepository(pool)}
}

func scanUser(row pgx.Row) (*model.User, error) {
	var user model.User
	err := row.Scan(
		&user.ID,
		&user.ExternalID,
		&user.Name,
		&user.Email,
		&user.Role,
		&user.Phone,
		&user.PhotoURL,
		&user.City,
		&user.Qualifications,
		&user.ExperienceYears,
		&user.Subjects,
		&user.ClassLevels,
		&user.IsVerified,
		&user.AverageRating,
		&user.ReviewCount,
		&user.IsAvailable,
		&user.TelegramChatID,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Create создаёт нового пользователя
func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	query := `
		INSERT INTO users (external_id, name, email, role, phone, photo_url, city, qualifications,
			experience_years, subjects, class_levels, is_verified, is_available, telegram_chat_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id, created_at, updated_at
	`

	err := r.QueryRow(
		ctx, query,
		user.ExternalID,
		user.Name,
		strings.ToLower(user.Email),
		user.Role,
		user.Phone,
		user.PhotoURL,
		user.City,
		user.Qualifications,
		user.ExperienceYears,
		nonNil(user.Subjects),
		nonNil(user.ClassLevels),
		user.IsVerified,
		user.IsAvailable,
		user.TelegramChatID,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create user: %w", base.MapError(err))
	}

	return nil
}

// GetByID получает пользователя по ID
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	user, err := scanUser(r.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user by id: %w", err)
	}
	return user, nil
}

// GetByExternalID получает пользователя по uid провайдера идентификации
func (r *UserRepository) GetByExternalID(ctx context.Context, externalID string) (*model.User, error) {
	user, err := scanUser(r.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE external_id = $1`, externalID))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user by external id: %w", err)
	}
	return user, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	user, err := scanUser(r.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, strings.ToLower(email)))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return user, nil
}

// GetByIDs получает пользователей списком, порядок не гарантирован
func (r *UserRepository) GetByIDs(ctx context.Context, ids []int64) ([]*model.User, error) {
	if len(ids) == 0 {
		return []*model.User{}, nil
	}

	rows, err := r.Query(ctx, `SELECT `+userColumns+` FROM users WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("get users by ids: %w", err)
	}
	defer rows.Close()

	return collectUsers(rows)
}

// Update обновляет профиль пользователя
func (r *UserRepository) Update(ctx context.Context, user *model.User) error {
	query := `
		UPDATE users
		SET name = $1, email = $2, role = $3, phone = $4, photo_url = $5, city = $6, qualifications = $7,
			experience_years = $8, subjects = $9, class_levels = $10, is_verified = $11, is_available = $12,
			telegram_chat_id = $13, updated_at = NOW()
		WHERE id = $14
		RETURNING updated_at
	`

	err := r.QueryRow(
		ctx, query,
		user.Name,
		strings.ToLower(user.Email),
		user.Role,
		user.Phone,
		user.PhotoURL,
		user.City,
		user.Qualifications,
		user.ExperienceYears,
		nonNil(user.Subjects),
		nonNil(user.ClassLevels),
		user.IsVerified,
		user.IsAvailable,
		user.TelegramChatID,
		user.ID,
	).Scan(&user.UpdatedAt)

	if err != nil {
		if base.IsNotFound(err) {
			return fmt.Errorf("user %d not found", user.ID)
		}
		return fmt.Errorf("update user: %w", base.MapError(err))
	}

	return nil
}

// UpdateRating записывает пересчитанный рейтинг репетитора
func (r *UserRepository) UpdateRating(ctx context.Context, id int64, average float64, count int) error {
	affected, err := r.ExecAffected(ctx,
		`UPDATE users SET average_rating = $1, review_count = $2, updated_at = NOW() WHERE id = $3`,
		average, count, id,
	)
	if err != nil {
		return fmt.Errorf("update rating: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("user %d not found", id)
	}
	return nil
}

func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.ExecAffected(ctx, `DELETE FROM users WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

// List админский список с фильтром по роли и поиском по имени/почте
func (r *UserRepository) List(ctx context.Context, filter model.UserFilter) ([]*model.User, int, error) {
	var w where
	if filter.Role != "" {
		w.add("role = ?", filter.Role)
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		pattern := like(s)
		w.add("(name ILIKE ? OR email ILIKE ?)", pattern, pattern)
	}

	var total int
	if err := r.QueryRow(ctx, `SELECT COUNT(*) FROM users `+w.String(), w.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	query := `SELECT ` + userColumns + ` FROM users ` + w.String() +
		` ORDER BY created_at DESC LIMIT ` + w.arg(filter.Page.Limit) + ` OFFSET ` + w.arg(filter.Page.Offset())

	rows, err := r.Query(ctx, query, w.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users, err := collectUsers(rows)
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func collectUsers(rows pgx.Rows) ([]*model.User, error) {
	users := []*model.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return users, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
