package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/campus-assoc/backend/internal/http/dto"
	"github.com/campus-assoc/backend/internal/repositories"
	"github.com/campus-assoc/backend/internal/services"
)

type AuditHandler struct {
	audit *services.AuditService
	log   *zap.Logger
}

func NewAuditHandler(audit *services.AuditService, log *zap.Logger) *AuditHandler {
	return &AuditHandler{audit: audit, log: log}
}

// History handles GET /audit/:entityType/:id, newest first.
func (h *AuditHandler) History(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid entity id")
	}
	limit, offset := paging(c)
	logs, err := h.audit.History(c.UserContext(), c.Params("entityType"), id, limit, offset)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: logs})
}

// List handles GET /audit?entity_type=&actor_id=&critical=true.
func (h *AuditHandler) List(c *fiber.Ctx) error {
	f := repositories.AuditFilter{CriticalOnly: c.QueryBool("critical")}
	if v := c.Query("entity_type"); v != "" {
		f.EntityType = &v
	}
	if v := c.Query("actor_id"); v != "" {
		f.ActorID = &v
	}
	f.Limit, f.Offset = paging(c)

	logs, err := h.audit.List(c.UserContext(), f)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: logs})
}
