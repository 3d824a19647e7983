package repositories

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campus-assoc/backend/internal/models"
)

type FinanceRepo struct {
	pool *pgxpool.Pool
}

func NewFinanceRepo(pool *pgxpool.Pool) *FinanceRepo {
	return &FinanceRepo{pool: pool}
}

func (r *FinanceRepo) GetFiscalYear(ctx context.Context, s Attacher, id int64) (*models.FiscalYear, error) {
	return getOne[models.FiscalYear](ctx, r.pool, s, "id = $1", id)
}

func (r *FinanceRepo) ListFiscalYears(ctx context.Context) ([]*models.FiscalYear, error) {
	return getMany[models.FiscalYear](ctx, r.pool, nil, "ORDER BY starts_on DESC")
}

func (r *FinanceRepo) GetTransaction(ctx context.Context, s Attacher, id int64) (*models.Transaction, error) {
	return getOne[models.Transaction](ctx, r.pool, s, "id = $1", id)
}

func (r *FinanceRepo) Transactions(ctx context.Context, fiscalYearID int64, limit, offset int) ([]*models.Transaction, error) {
	limit, offset = pageArgs(limit, offset)
	return getMany[models.Transaction](ctx, r.pool, nil,
		"WHERE fiscal_year_id = $1 ORDER BY booked_on DESC, id DESC LIMIT $2 OFFSET $3", fiscalYearID, limit, offset)
}

// Balance sums the bookings of a fiscal year in cents.
func (r *FinanceRepo) Balance(ctx context.Context, fiscalYearID int64) (int64, error) {
	var sum int64
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount_cents), 0) FROM transactions WHERE fiscal_year_id = $1
	`, fiscalYearID).Scan(&sum)
	return sum, err
}

func (r *FinanceRepo) GetReport(ctx context.Context, s Attacher, id int64) (*models.Report, error) {
	return getOne[models.Report](ctx, r.pool, s, "id = $1", id)
}

func (r *FinanceRepo) Reports(ctx context.Context, publishedOnly bool) ([]*models.Report, error) {
	if publishedOnly {
		return getMany[models.Report](ctx, r.pool, nil, "WHERE published ORDER BY created_at DESC")
	}
	return getMany[models.Report](ctx, r.pool, nil, "ORDER BY created_at DESC")
}
