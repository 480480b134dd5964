package event_archive

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"fanclub/entity"
)

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return Repository{db: db}
}

// StoreEvent appends a published event to the archive. Duplicate
// deliveries of the same event id are ignored.
func (r Repository) StoreEvent(ctx context.Context, event entity.ArchivedEvent) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO events_archive (event_id, published_at, event_name, event_payload)
		VALUES (:event_id, :published_at, :event_name, :event_payload)
		ON CONFLICT (event_id) DO NOTHING
	`, event)
	if err != nil {
		return fmt.Errorf("could not store event in archive: %w", err)
	}
	return nil
}

func (r Repository) FindAll(ctx context.Context) ([]entity.ArchivedEvent, error) {
	var events []entity.ArchivedEvent
	err := r.db.SelectContext(ctx, &events, `
		SELECT event_id, published_at, event_name, event_payload
		FROM events_archive
		ORDER BY published_at
	`)
	return events, err
}
