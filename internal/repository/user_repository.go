package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shipbridge/shipbridge/internal/model"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

type userRow struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	Name         string
	Role         string
	CreatedAt    time.Time
}

func (row userRow) toModel() model.User {
	return model.User{
		ID:           row.ID,
		Email:        row.Email,
		PasswordHash: row.PasswordHash,
		Name:         row.Name,
		Role:         model.Role(row.Role),
		CreatedAt:    row.CreatedAt,
	}
}

func (r *UserRepository) Create(ctx context.Context, user model.User) (*model.User, error) {
	var row userRow
	err := r.db.WithContext(ctx).Raw(`
		INSERT INTO users (email, password_hash, name, role)
		VALUES (?, ?, ?, ?)
		RETURNING id, email, password_hash, name, role, created_at
	`, user.Email, user.PasswordHash, user.Name, user.Role).Scan(&row).Error
	if err != nil {
		return nil, err
	}
	saved := row.toModel()
	return &saved, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var row userRow
	err := r.db.WithContext(ctx).Raw(`
		SELECT id, email, password_hash, name, role, created_at
		FROM users
		WHERE LOWER(email) = LOWER(?)
		LIMIT 1
	`, email).Scan(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	user := row.toModel()
	return &user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var row userRow
	err := r.db.WithContext(ctx).Raw(`
		SELECT id, email, password_hash, name, role, created_at
		FROM users
		WHERE id = ?
		LIMIT 1
	`, id).Scan(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	user := row.toModel()
	return &user, nil
}

func (r *UserRepository) CreateRefreshToken(ctx context.Context, token model.RefreshToken) error {
	return r.db.WithContext(ctx).Exec(`
		INSERT INTO refresh_tokens (user_id, token_hash, expires_at)
		VALUES (?, ?, ?)
	`, token.UserID, token.TokenHash, token.ExpiresAt).Error
}

func (r *UserRepository) GetRefreshToken(ctx context.Context, tokenHash string) (*model.RefreshToken, error) {
	var row struct {
		ID        uuid.UUID
		UserID    uuid.UUID
		TokenHash string
		ExpiresAt time.Time
		Revoked   bool
		CreatedAt time.Time
	}
	err := r.db.WithContext(ctx).Raw(`
		SELECT id, user_id, token_hash, expires_at, revoked, created_at
		FROM refresh_tokens
		WHERE token_hash = ?
		LIMIT 1
	`, tokenHash).Scan(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &model.RefreshToken{
		ID:        row.ID,
		UserID:    row.UserID,
		TokenHash: row.TokenHash,
		ExpiresAt: row.ExpiresAt,
		Revoked:   row.Revoked,
		CreatedAt: row.CreatedAt,
	}, nil
}

// RevokeRefreshToken marks a token used; zero rows affected means another
// request already consumed it.
func (r *UserRepository) RevokeRefreshToken(ctx context.Context, id uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).Exec(`
		UPDATE refresh_tokens
		SET revoked = TRUE
		WHERE id = ? AND NOT revoked
	`, id)
	return result.RowsAffected, result.Error
}
