package db

import (
	"fmt"

	"github.com/jmoiron/sqlx"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	user_id UUID PRIMARY KEY,
	email VARCHAR(255) NOT NULL,
	tier VARCHAR(20) NOT NULL DEFAULT 'free'
);

CREATE TABLE IF NOT EXISTS products (
	product_id VARCHAR(255) PRIMARY KEY,
	name VARCHAR(255) NOT NULL,
	price_cents BIGINT NOT NULL,
	currency VARCHAR(3) NOT NULL,
	stock INT NOT NULL
);

CREATE TABLE IF NOT EXISTS content (
	content_id VARCHAR(255) PRIMARY KEY,
	title VARCHAR(255) NOT NULL,
	body TEXT NOT NULL DEFAULT '',
	required_tier VARCHAR(20) NOT NULL,
	published_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS meet_greet_sessions (
	session_id VARCHAR(255) PRIMARY KEY,
	title VARCHAR(255) NOT NULL,
	session_type VARCHAR(20) NOT NULL,
	required_tier VARCHAR(20) NOT NULL,
	scheduled_at TIMESTAMPTZ NOT NULL,
	duration_minutes INT NOT NULL,
	price_cents BIGINT NOT NULL,
	currency VARCHAR(3) NOT NULL
);

CREATE TABLE IF NOT EXISTS orders (
	order_id UUID PRIMARY KEY,
	user_id UUID NOT NULL,
	status VARCHAR(20) NOT NULL,
	checkout_session_id VARCHAR(255) NOT NULL,
	total_cents BIGINT NOT NULL,
	currency VARCHAR(3) NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE UNIQUE INDEX IF NOT EXISTS orders_checkout_session_idx
	ON orders (checkout_session_id);

CREATE TABLE IF NOT EXISTS order_items (
	order_id UUID NOT NULL REFERENCES orders (order_id),
	product_id VARCHAR(255) NOT NULL,
	quantity INT NOT NULL,
	unit_price_cents BIGINT NOT NULL,
	currency VARCHAR(3) NOT NULL,
	PRIMARY KEY (order_id, product_id)
);

CREATE TABLE IF NOT EXISTS bookings (
	booking_id UUID PRIMARY KEY,
	user_id UUID NOT NULL,
	session_id VARCHAR(255) NOT NULL,
	session_type VARCHAR(20) NOT NULL,
	status VARCHAR(20) NOT NULL,
	checkout_session_id VARCHAR(255) NOT NULL,
	scheduled_at TIMESTAMPTZ NOT NULL,
	duration_minutes INT NOT NULL,
	price_cents BIGINT NOT NULL,
	currency VARCHAR(3) NOT NULL,
	customer_email VARCHAR(255) NOT NULL,
	special_requests TEXT NOT NULL DEFAULT '',
	room_url VARCHAR(255),
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	UNIQUE (user_id, session_id)
);

CREATE UNIQUE INDEX IF NOT EXISTS bookings_checkout_session_idx
	ON bookings (checkout_session_id);

CREATE TABLE IF NOT EXISTS events_archive (
	event_id UUID PRIMARY KEY,
	published_at TIMESTAMPTZ NOT NULL,
	event_name VARCHAR(255) NOT NULL,
	event_payload JSONB NOT NULL
);
`

func InitializeDatabaseSchema(db *sqlx.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("could not initialize database schema: %w", err)
	}
	return nil
}
