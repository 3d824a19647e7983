package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/campus-assoc/backend/internal/http/dto"
	"github.com/campus-assoc/backend/internal/middleware"
	"github.com/campus-assoc/backend/internal/services"
)

type MemberHandler struct {
	members *services.MemberService
	log     *zap.Logger
}

func NewMemberHandler(members *services.MemberService, log *zap.Logger) *MemberHandler {
	return &MemberHandler{members: members, log: log}
}

func (h *MemberHandler) GetMe(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	user, err := h.members.Get(c.UserContext(), userID)
	if err != nil {
		return respondError(c, h.log, err)
	}
	roles, err := h.members.Roles(c.UserContext(), userID)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: dto.MeResponse{User: user, Roles: roles}})
}

func (h *MemberHandler) UpdateMe(c *fiber.Ctx) error {
	var req dto.UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	user, err := h.members.UpdateProfile(c.UserContext(), middleware.GetUserID(c), services.ProfileInput{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		PhoneNumber: req.PhoneNumber,
		Instruments: req.Instruments,
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: user})
}

// UploadPicture replaces the profile picture with the "picture" file part. An
// empty request removes it.
func (h *MemberHandler) UploadPicture(c *fiber.Ctx) error {
	data, err := readUpload(c, "picture")
	if err != nil {
		return err
	}
	if err := h.members.SetProfilePicture(c.UserContext(), middleware.GetUserID(c), data); err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true})
}

func (h *MemberHandler) ChangePassword(c *fiber.Ctx) error {
	var req dto.ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := h.members.ChangePassword(c.UserContext(), middleware.GetUserID(c), req.CurrentPassword, req.NewPassword); err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true})
}

func (h *MemberHandler) List(c *fiber.Ctx) error {
	limit, offset := paging(c)
	users, err := h.members.List(c.UserContext(), limit, offset)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: users})
}

func (h *MemberHandler) Deactivate(c *fiber.Ctx) error {
	if err := h.members.Deactivate(c.UserContext(), c.Params("id")); err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true})
}

func (h *MemberHandler) Delete(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == middleware.GetUserID(c) {
		return badRequest(c, "cannot delete your own account")
	}
	if err := h.members.Delete(c.UserContext(), id); err != nil {
		return respondError(c, h.log, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
