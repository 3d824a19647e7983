package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/campus-assoc/backend/internal/models"
	"github.com/campus-assoc/backend/internal/repositories"
	"github.com/campus-assoc/backend/internal/richtext"
)

type FinanceService struct {
	units       *Units
	financeRepo *repositories.FinanceRepo
	log         *zap.Logger
}

func NewFinanceService(units *Units, financeRepo *repositories.FinanceRepo, log *zap.Logger) *FinanceService {
	return &FinanceService{units: units, financeRepo: financeRepo, log: log}
}

func (s *FinanceService) ListFiscalYears(ctx context.Context) ([]*models.FiscalYear, error) {
	return s.financeRepo.ListFiscalYears(ctx)
}

func (s *FinanceService) CreateFiscalYear(ctx context.Context, name string, startsOn, endsOn time.Time) (*models.FiscalYear, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: fiscal year name is required", ErrInvalidInput)
	}
	if !endsOn.After(startsOn) {
		return nil, fmt.Errorf("%w: fiscal year must end after it starts", ErrInvalidInput)
	}

	u := s.units.Begin()
	defer u.Close()

	fy := &models.FiscalYear{Name: name, StartsOn: startsOn.UTC(), EndsOn: endsOn.UTC()}
	if err := u.Add(fy); err != nil {
		return nil, err
	}
	if err := u.Save(ctx); err != nil {
		return nil, err
	}
	return fy, nil
}

// CloseFiscalYear freezes a year; no bookings can be added or removed afterwards.
func (s *FinanceService) CloseFiscalYear(ctx context.Context, id int64) error {
	u := s.units.Begin()
	defer u.Close()

	fy, err := s.financeRepo.GetFiscalYear(ctx, u, id)
	if err != nil {
		return err
	}
	if fy.IsClosed {
		return ErrFiscalYearClosed
	}
	fy.IsClosed = true
	return u.Save(ctx)
}

type TransactionInput struct {
	FiscalYearID int64
	AmountCents  int64
	Description  string
	Category     *string
	BookedOn     time.Time
	Receipt      []byte
}

func (s *FinanceService) Transactions(ctx context.Context, fiscalYearID int64, limit, offset int) ([]*models.Transaction, error) {
	return s.financeRepo.Transactions(ctx, fiscalYearID, limit, offset)
}

func (s *FinanceService) Balance(ctx context.Context, fiscalYearID int64) (int64, error) {
	if _, err := s.financeRepo.GetFiscalYear(ctx, nil, fiscalYearID); err != nil {
		return 0, err
	}
	return s.financeRepo.Balance(ctx, fiscalYearID)
}

func (s *FinanceService) BookTransaction(ctx context.Context, in TransactionInput) (*models.Transaction, error) {
	in.Description = strings.TrimSpace(in.Description)
	if in.Description == "" {
		return nil, fmt.Errorf("%w: description is required", ErrInvalidInput)
	}
	if in.AmountCents == 0 {
		return nil, fmt.Errorf("%w: amount must not be zero", ErrInvalidInput)
	}

	u := s.units.Begin()
	defer u.Close()

	fy, err := s.financeRepo.GetFiscalYear(ctx, u, in.FiscalYearID)
	if err != nil {
		return nil, err
	}
	if fy.IsClosed {
		return nil, ErrFiscalYearClosed
	}
	booked := in.BookedOn.UTC()
	if booked.IsZero() {
		booked = time.Now().UTC()
	}
	if booked.Before(fy.StartsOn) || booked.After(fy.EndsOn) {
		return nil, fmt.Errorf("%w: booking date outside fiscal year %s", ErrInvalidInput, fy.Name)
	}

	tx := &models.Transaction{
		FiscalYearID: fy.ID,
		AmountCents:  in.AmountCents,
		Description:  in.Description,
		Category:     in.Category,
		BookedOn:     booked,
		ReceiptFile:  nilIfEmpty(in.Receipt),
	}
	if err := u.Add(tx); err != nil {
		return nil, err
	}
	if err := u.Save(ctx); err != nil {
		return nil, err
	}
	return tx, nil
}

func (s *FinanceService) AttachReceipt(ctx context.Context, id int64, receipt []byte) error {
	u := s.units.Begin()
	defer u.Close()

	tx, err := s.openTransaction(ctx, u, id)
	if err != nil {
		return err
	}
	tx.ReceiptFile = nilIfEmpty(receipt)
	return u.Save(ctx)
}

func (s *FinanceService) DeleteTransaction(ctx context.Context, id int64) error {
	u := s.units.Begin()
	defer u.Close()

	tx, err := s.openTransaction(ctx, u, id)
	if err != nil {
		return err
	}
	if err := u.Remove(tx); err != nil {
		return err
	}
	return u.Save(ctx)
}

// openTransaction loads a booking whose fiscal year is still open.
func (s *FinanceService) openTransaction(ctx context.Context, u *Unit, id int64) (*models.Transaction, error) {
	tx, err := s.financeRepo.GetTransaction(ctx, u, id)
	if err != nil {
		return nil, err
	}
	fy, err := s.financeRepo.GetFiscalYear(ctx, u, tx.FiscalYearID)
	if err != nil {
		return nil, err
	}
	if fy.IsClosed {
		return nil, ErrFiscalYearClosed
	}
	return tx, nil
}

func (s *FinanceService) Reports(ctx context.Context, publishedOnly bool) ([]*models.Report, error) {
	return s.financeRepo.Reports(ctx, publishedOnly)
}

func (s *FinanceService) GetReport(ctx context.Context, id int64) (*models.Report, error) {
	return s.financeRepo.GetReport(ctx, nil, id)
}

func (s *FinanceService) CreateReport(ctx context.Context, title string, fiscalYearID *int64, body *string, document []byte) (*models.Report, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("%w: report title is required", ErrInvalidInput)
	}

	if body != nil {
		body = trimmedOrNil(richtext.PlainText(*body))
	}

	u := s.units.Begin()
	defer u.Close()

	if fiscalYearID != nil {
		if _, err := s.financeRepo.GetFiscalYear(ctx, u, *fiscalYearID); err != nil {
			return nil, err
		}
	}
	r := &models.Report{Title: title, FiscalYearID: fiscalYearID, Body: body, Document: nilIfEmpty(document)}
	if err := u.Add(r); err != nil {
		return nil, err
	}
	if err := u.Save(ctx); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *FinanceService) PublishReport(ctx context.Context, id int64) error {
	u := s.units.Begin()
	defer u.Close()

	r, err := s.financeRepo.GetReport(ctx, u, id)
	if err != nil {
		return err
	}
	r.Published = true
	return u.Save(ctx)
}

func (s *FinanceService) DeleteReport(ctx context.Context, id int64) error {
	u := s.units.Begin()
	defer u.Close()

	r, err := s.financeRepo.GetReport(ctx, u, id)
	if err != nil {
		return err
	}
	if err := u.Remove(r); err != nil {
		return err
	}
	return u.Save(ctx)
}
