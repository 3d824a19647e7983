package models

import "time"

type FiscalYear struct {
	Base
	Name     string    `db:"name" json:"name"`
	StartsOn time.Time `db:"starts_on" json:"starts_on"`
	EndsOn   time.Time `db:"ends_on" json:"ends_on"`
	IsClosed bool      `db:"is_closed" json:"is_closed"`
}

func (f *FiscalYear) EntityType() string { return "FiscalYear" }
func (f *FiscalYear) TableName() string  { return "fiscal_years" }

// Transaction is a booking in the association's ledger. Amounts are in cents.
type Transaction struct {
	Base
	FiscalYearID int64     `db:"fiscal_year_id" json:"fiscal_year_id"`
	AmountCents  int64     `db:"amount_cents" json:"amount_cents"`
	Description  string    `db:"description" json:"description"`
	Category     *string   `db:"category" json:"category,omitempty"`
	BookedOn     time.Time `db:"booked_on" json:"booked_on"`
	ReceiptFile  []byte    `db:"receipt_file" json:"-"`
}

func (t *Transaction) EntityType() string { return "Transaction" }
func (t *Transaction) TableName() string  { return "transactions" }

type Report struct {
	Base
	Title        string  `db:"title" json:"title"`
	FiscalYearID *int64  `db:"fiscal_year_id" json:"fiscal_year_id,omitempty"`
	Body         *string `db:"body" json:"body,omitempty"`
	Document     []byte  `db:"document" json:"-"`
	Published    bool    `db:"published" json:"published"`
}

func (r *Report) EntityType() string { return "Report" }
func (r *Report) TableName() string  { return "reports" }
