package entity

import "time"

// ArchivedEvent is a raw copy of a published event, kept for audit.
type ArchivedEvent struct {
	ID          string    `db:"event_id"`
	PublishedAt time.Time `db:"published_at"`
	Name        string    `db:"event_name"`
	Payload     []byte    `db:"event_payload"`
}
