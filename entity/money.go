package entity

import "fmt"

// Money is an amount in the smallest currency unit (cents).
type Money struct {
	Cents    int64  `json:"cents" db:"cents"`
	Currency string `json:"currency" db:"currency"`
}

func (m Money) Mul(qty int) Money {
	return Money{Cents: m.Cents * int64(qty), Currency: m.Currency}
}

func (m Money) Add(other Money) (Money, error) {
	if m.Currency != other.Currency {
		return Money{}, fmt.Errorf("%w: currency mismatch: %s != %s", ErrValidation, m.Currency, other.Currency)
	}
	return Money{Cents: m.Cents + other.Cents, Currency: m.Currency}, nil
}

func (m Money) String() string {
	return fmt.Sprintf("%d.%02d %s", m.Cents/100, m.Cents%100, m.Currency)
}
