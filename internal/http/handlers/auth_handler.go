package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/campus-assoc/backend/internal/http/dto"
	"github.com/campus-assoc/backend/internal/services"
)

type AuthHandler struct {
	members *services.MemberService
	log     *zap.Logger
}

func NewAuthHandler(members *services.MemberService, log *zap.Logger) *AuthHandler {
	return &AuthHandler{members: members, log: log}
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	user, err := h.members.Register(c.UserContext(), services.RegisterInput{
		UserName:  req.UserName,
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true, Data: user})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if req.Login == "" || req.Password == "" {
		return badRequest(c, "login and password are required")
	}

	token, user, err := h.members.Login(c.UserContext(), req.Login, req.Password)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.AuthResponse{Token: token, User: user})
}
