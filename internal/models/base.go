package models

import "time"

// Base carries the integer identity and bookkeeping columns shared by every
// association record except accounts and join rows.
type Base struct {
	ID        int64     `db:"id" json:"id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	CreatedBy *string   `db:"created_by" json:"created_by,omitempty"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
	UpdatedBy *string   `db:"updated_by" json:"updated_by,omitempty"`
}

func (b *Base) PrimaryKey() any { return b.ID }

func (b *Base) SetID(id int64) { b.ID = id }

// Stamp records who touched the row and when.
func (b *Base) Stamp(created bool, at time.Time, by *string) {
	if created {
		b.CreatedAt = at
		b.CreatedBy = by
	}
	b.UpdatedAt = at
	b.UpdatedBy = by
}
