// Package types holds small value objects shared across modules.
package types

// ID identifies users, drivers, and reservations.
type ID string

// Money is an amount in integer minor units (cents). All charging math is
// done in cents; floating-point rate math is rounded half-up before it
// becomes a Money amount.
type Money struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// USD builds a Money in the only currency the storefront bills in.
func USD(cents int64) Money {
	return Money{Amount: cents, Currency: "USD"}
}
