package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"medride/internal/domain"
	"medride/internal/repository"
)

// UserRepository implements repository.UserRepository using PostgreSQL.
type UserRepository struct {
	q Querier
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{q: db}
}

// Create adds a new user.
func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	query := `INSERT INTO users (name, phone, line_user_id, created_at) VALUES ($1, $2, $3, $4) RETURNING id`
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	return r.q.QueryRowContext(ctx, query, user.Name, user.Phone, nullString(user.LineUserID), user.CreatedAt).Scan(&user.ID)
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	query := `SELECT id, name, phone, line_user_id, created_at FROM users WHERE id = $1`

	var user domain.User
	var lineUserID sql.NullString
	err := r.q.QueryRowContext(ctx, query, id).Scan(&user.ID, &user.Name, &user.Phone, &lineUserID, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	user.LineUserID = lineUserID.String
	return &user, nil
}

// GetAll retrieves all users.
func (r *UserRepository) GetAll(ctx context.Context) ([]*domain.User, error) {
	query := `SELECT id, name, phone, line_user_id, created_at FROM users ORDER BY id`
	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		var user domain.User
		var lineUserID sql.NullString
		if err := rows.Scan(&user.ID, &user.Name, &user.Phone, &lineUserID, &user.CreatedAt); err != nil {
			return nil, err
		}
		user.LineUserID = lineUserID.String
		users = append(users, &user)
	}
	return users, rows.Err()
}
