package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"fanclub/entity"
)

type PostgresRepository struct {
	db *sqlx.DB
}

func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Upsert stores a user profile. The tier is validated at write time;
// reads degrade unknown values to free instead.
func (r *PostgresRepository) Upsert(ctx context.Context, user entity.User) error {
	if user.UserID == "" || user.Email == "" {
		return fmt.Errorf("%w: user id and email are required", entity.ErrValidation)
	}
	if _, err := entity.ParseTier(string(user.Tier)); err != nil {
		return err
	}

	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO users (user_id, email, tier)
		VALUES (:user_id, :email, :tier)
		ON CONFLICT (user_id) DO UPDATE
		SET email = EXCLUDED.email,
		    tier = EXCLUDED.tier
	`, user)
	return err
}

func (r *PostgresRepository) Get(ctx context.Context, userID string) (entity.User, error) {
	var user entity.User
	err := r.db.GetContext(ctx, &user, `
		SELECT user_id, email, tier
		FROM users
		WHERE user_id = $1
	`, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return entity.User{}, fmt.Errorf("%w: user %s", entity.ErrNotFound, userID)
		}
		return entity.User{}, fmt.Errorf("could not get user: %w", err)
	}
	return user, nil
}
