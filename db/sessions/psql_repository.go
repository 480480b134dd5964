package sessions

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

func (r *PostgresRepository) Upsert(ctx context.Context, s entity.MeetGreetSession) error {
	if s.SessionID == "" || s.Title == "" {
		return fmt.Errorf("%w: session id and title are required", entity.ErrValidation)
	}
	if _, err := entity.ParseSessionType(string(s.SessionType)); err != nil {
		return err
	}
	if _, err := entity.ParseTier(string(s.RequiredTier)); err != nil {
		return err
	}

	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO meet_greet_sessions
			(session_id, title, session_type, required_tier, scheduled_at, duration_minutes, price_cents, currency)
		VALUES
			(:session_id, :title, :session_type, :required_tier, :scheduled_at, :duration_minutes, :price_cents, :currency)
		ON CONFLICT (session_id) DO UPDATE
		SET title = EXCLUDED.title,
		    session_type = EXCLUDED.session_type,
		    required_tier = EXCLUDED.required_tier,
		    scheduled_at = EXCLUDED.scheduled_at,
		    duration_minutes = EXCLUDED.duration_minutes,
		    price_cents = EXCLUDED.price_cents,
		    currency = EXCLUDED.currency
	`, s)
	return err
}

func (r *PostgresRepository) Get(ctx context.Context, sessionID string) (entity.MeetGreetSession, error) {
	var s entity.MeetGreetSession
	err := r.db.GetContext(ctx, &s, `
		SELECT session_id, title, session_type, required_tier, scheduled_at, duration_minutes, price_cents, currency
		FROM meet_greet_sessions
		WHERE session_id = $1
	`, sessionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return entity.MeetGreetSession{}, fmt.Errorf("%w: session %s", entity.ErrNotFound, sessionID)
		}
		return entity.MeetGreetSession{}, fmt.Errorf("could not get session: %w", err)
	}
	return s, nil
}

func (r *PostgresRepository) FindAll(ctx context.Context) ([]entity.MeetGreetSession, error) {
	var sessions []entity.MeetGreetSession
	err := r.db.SelectContext(ctx, &sessions, `
		SELECT session_id, title, session_type, required_tier, scheduled_at, duration_minutes, price_cents, currency
		FROM meet_greet_sessions
		ORDER BY scheduled_at
	`)
	return sessions, err
}
