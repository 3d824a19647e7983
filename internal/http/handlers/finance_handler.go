package handlers

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/campus-assoc/backend/internal/http/dto"
	"github.com/campus-assoc/backend/internal/services"
)

type FinanceHandler struct {
	finance *services.FinanceService
	log     *zap.Logger
}

func NewFinanceHandler(finance *services.FinanceService, log *zap.Logger) *FinanceHandler {
	return &FinanceHandler{finance: finance, log: log}
}

func (h *FinanceHandler) ListFiscalYears(c *fiber.Ctx) error {
	years, err := h.finance.ListFiscalYears(c.UserContext())
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: years})
}

func (h *FinanceHandler) CreateFiscalYear(c *fiber.Ctx) error {
	var req dto.FiscalYearRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	fy, err := h.finance.CreateFiscalYear(c.UserContext(), req.Name, req.StartsOn, req.EndsOn)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true, Data: fy})
}

func (h *FinanceHandler) CloseFiscalYear(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid fiscal year id")
	}
	if err := h.finance.CloseFiscalYear(c.UserContext(), id); err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true})
}

func (h *FinanceHandler) Balance(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid fiscal year id")
	}
	sum, err := h.finance.Balance(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: dto.BalanceResponse{FiscalYearID: id, BalanceCents: sum}})
}

func (h *FinanceHandler) Transactions(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid fiscal year id")
	}
	limit, offset := paging(c)
	list, err := h.finance.Transactions(c.UserContext(), id, limit, offset)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: list})
}

// BookTransaction accepts a multipart form: fiscal_year_id, amount_cents,
// description, optional category and booked_on (YYYY-MM-DD), and an optional
// "receipt" file.
func (h *FinanceHandler) BookTransaction(c *fiber.Ctx) error {
	fyID, err := strconv.ParseInt(c.FormValue("fiscal_year_id"), 10, 64)
	if err != nil {
		return badRequest(c, "invalid fiscal_year_id")
	}
	amount, err := strconv.ParseInt(c.FormValue("amount_cents"), 10, 64)
	if err != nil {
		return badRequest(c, "invalid amount_cents")
	}
	var booked time.Time
	if v := c.FormValue("booked_on"); v != "" {
		if booked, err = time.Parse(time.DateOnly, v); err != nil {
			return badRequest(c, "booked_on must be YYYY-MM-DD")
		}
	}
	receipt, err := readUpload(c, "receipt")
	if err != nil {
		return err
	}

	in := services.TransactionInput{
		FiscalYearID: fyID,
		AmountCents:  amount,
		Description:  c.FormValue("description"),
		BookedOn:     booked,
		Receipt:      receipt,
	}
	if v := c.FormValue("category"); v != "" {
		in.Category = &v
	}

	tx, err := h.finance.BookTransaction(c.UserContext(), in)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true, Data: tx})
}

func (h *FinanceHandler) UploadReceipt(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid transaction id")
	}
	data, err := readUpload(c, "receipt")
	if err != nil {
		return err
	}
	if err := h.finance.AttachReceipt(c.UserContext(), id, data); err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true})
}

func (h *FinanceHandler) DeleteTransaction(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid transaction id")
	}
	if err := h.finance.DeleteTransaction(c.UserContext(), id); err != nil {
		return respondError(c, h.log, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ListReports shows drafts only to callers allowed to publish.
func (h *FinanceHandler) ListReports(canSeeDrafts func(*fiber.Ctx) bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		reports, err := h.finance.Reports(c.UserContext(), !canSeeDrafts(c))
		if err != nil {
			return respondError(c, h.log, err)
		}
		return c.JSON(dto.SuccessResponse{OK: true, Data: reports})
	}
}

// CreateReport accepts a multipart form: title, optional fiscal_year_id and
// body, and an optional "document" file.
func (h *FinanceHandler) CreateReport(c *fiber.Ctx) error {
	var fyID *int64
	if v := c.FormValue("fiscal_year_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return badRequest(c, "invalid fiscal_year_id")
		}
		fyID = &id
	}
	var body *string
	if v := c.FormValue("body"); v != "" {
		body = &v
	}
	doc, err := readUpload(c, "document")
	if err != nil {
		return err
	}

	r, err := h.finance.CreateReport(c.UserContext(), c.FormValue("title"), fyID, body, doc)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true, Data: r})
}

func (h *FinanceHandler) PublishReport(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid report id")
	}
	if err := h.finance.PublishReport(c.UserContext(), id); err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true})
}

func (h *FinanceHandler) DeleteReport(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid report id")
	}
	if err := h.finance.DeleteReport(c.UserContext(), id); err != nil {
		return respondError(c, h.log, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
