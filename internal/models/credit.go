package models

import "time"

// Credit is purchasing power a member can put toward an appointment.
type Credit struct {
	ID        string     `db:"id" json:"id"`
	MemberID  string     `db:"member_id" json:"member_id"`
	Amount    int        `db:"amount" json:"amount"`
	ExpiresAt *time.Time `db:"expires_at" json:"expires_at"`
}

// ActiveAt reports whether the credit can fund a slot starting at t.
// A credit with no expiry is always active.
func (c Credit) ActiveAt(t time.Time) bool {
	return c.ExpiresAt == nil || !c.ExpiresAt.Before(t)
}

// TotalCreditsAt sums the credit amounts still active at t.
func TotalCreditsAt(credits []Credit, t time.Time) int {
	total := 0
	for _, c := range credits {
		if c.ActiveAt(t) {
			total += c.Amount
		}
	}
	return total
}
