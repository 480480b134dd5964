package entity

import (
	"fmt"
	"time"
)

// Product is a merchandise catalog entry. Stock and price are
// authoritative here; client-side cart state is untrusted.
type Product struct {
	ProductID  string `json:"product_id" db:"product_id"`
	Name       string `json:"name" db:"name"`
	PriceCents int64  `json:"price_cents" db:"price_cents"`
	Currency   string `json:"currency" db:"currency"`
	Stock      int    `json:"stock" db:"stock"`
}

func (p Product) Validate() error {
	if p.ProductID == "" || p.Name == "" {
		return fmt.Errorf("%w: product id and name are required", ErrValidation)
	}
	if p.PriceCents < 0 || p.Stock < 0 {
		return fmt.Errorf("%w: price and stock must be non-negative", ErrValidation)
	}
	return nil
}

// Content is a tier-gated piece of club content.
type Content struct {
	ContentID    string    `json:"content_id" db:"content_id"`
	Title        string    `json:"title" db:"title"`
	Body         string    `json:"body" db:"body"`
	RequiredTier Tier      `json:"required_tier" db:"required_tier"`
	PublishedAt  time.Time `json:"published_at" db:"published_at"`
}

// MeetGreetSession is a bookable meet-and-greet slot in the catalog.
type MeetGreetSession struct {
	SessionID       string      `json:"session_id" db:"session_id"`
	Title           string      `json:"title" db:"title"`
	SessionType     SessionType `json:"session_type" db:"session_type"`
	RequiredTier    Tier        `json:"required_tier" db:"required_tier"`
	ScheduledAt     time.Time   `json:"scheduled_at" db:"scheduled_at"`
	DurationMinutes int         `json:"duration_minutes" db:"duration_minutes"`
	PriceCents      int64       `json:"price_cents" db:"price_cents"`
	Currency        string      `json:"currency" db:"currency"`
}

// User is the profile slice this service reads: identity and tier.
type User struct {
	UserID string `json:"user_id" db:"user_id"`
	Email  string `json:"email" db:"email"`
	Tier   Tier   `json:"tier" db:"tier"`
}
