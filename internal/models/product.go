package models

// Product defines a bookable appointment type a practitioner sells.
type Product struct {
	ID           string  `db:"id" json:"id"`
	UserID       string  `db:"user_id" json:"user_id"`
	Minutes      int     `db:"minutes" json:"minutes"`
	PrepBuffer   *int    `db:"prep_buffer" json:"prep_buffer"`
	Price        float64 `db:"price" json:"price"`
	IsActive     bool    `db:"is_active" json:"is_active"`
	VerticalName string  `db:"vertical_name" json:"vertical_name,omitempty"`
}

// Bookable reports whether the product can ever yield a slot.
func (p Product) Bookable() bool {
	return p.IsActive && p.Minutes > 0
}
