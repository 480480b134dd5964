package content

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

// Upsert stores a content record. The required tier is validated here:
// an unknown requirement must never reach the table, because readers
// would fail closed on it and hide the content from everyone, or worse,
// a read-time default could expose it to everyone.
func (r *PostgresRepository) Upsert(ctx context.Context, c entity.Content) error {
	if c.ContentID == "" || c.Title == "" {
		return fmt.Errorf("%w: content id and title are required", entity.ErrValidation)
	}
	if _, err := entity.ParseTier(string(c.RequiredTier)); err != nil {
		return err
	}

	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO content (content_id, title, body, required_tier, published_at)
		VALUES (:content_id, :title, :body, :required_tier, :published_at)
		ON CONFLICT (content_id) DO UPDATE
		SET title = EXCLUDED.title,
		    body = EXCLUDED.body,
		    required_tier = EXCLUDED.required_tier
	`, c)
	return err
}

func (r *PostgresRepository) Get(ctx context.Context, contentID string) (entity.Content, error) {
	var c entity.Content
	err := r.db.GetContext(ctx, &c, `
		SELECT content_id, title, body, required_tier, published_at
		FROM content
		WHERE content_id = $1
	`, contentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return entity.Content{}, fmt.Errorf("%w: content %s", entity.ErrNotFound, contentID)
		}
		return entity.Content{}, fmt.Errorf("could not get content: %w", err)
	}
	return c, nil
}

func (r *PostgresRepository) FindAll(ctx context.Context) ([]entity.Content, error) {
	var items []entity.Content
	err := r.db.SelectContext(ctx, &items, `
		SELECT content_id, title, body, required_tier, published_at
		FROM content
		ORDER BY published_at DESC
	`)
	return items, err
}
