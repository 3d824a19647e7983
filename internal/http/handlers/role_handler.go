package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/campus-assoc/backend/internal/http/dto"
	"github.com/campus-assoc/backend/internal/services"
)

type RoleHandler struct {
	roles *services.RoleService
	log   *zap.Logger
}

func NewRoleHandler(roles *services.RoleService, log *zap.Logger) *RoleHandler {
	return &RoleHandler{roles: roles, log: log}
}

func (h *RoleHandler) List(c *fiber.Ctx) error {
	roles, err := h.roles.List(c.UserContext())
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: roles})
}

func (h *RoleHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	role, err := h.roles.Create(c.UserContext(), req.Name, req.Description)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true, Data: role})
}

// Grant handles POST /admin/users/:id/roles.
func (h *RoleHandler) Grant(c *fiber.Ctx) error {
	var req dto.GrantRoleRequest
	if err := c.BodyParser(&req); err != nil || req.RoleID <= 0 {
		return badRequest(c, "role_id is required")
	}
	if err := h.roles.Grant(c.UserContext(), c.Params("id"), req.RoleID); err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true})
}

// Revoke handles DELETE /admin/users/:id/roles/:roleId.
func (h *RoleHandler) Revoke(c *fiber.Ctx) error {
	roleID, ok := paramID(c, "roleId")
	if !ok {
		return badRequest(c, "invalid role id")
	}
	if err := h.roles.Revoke(c.UserContext(), c.Params("id"), roleID); err != nil {
		return respondError(c, h.log, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
