package handlers

import (
	"github.com/campus-assoc/backend/internal/http/dto"
	"github.com/campus-assoc/backend/internal/models"
	"github.com/gofiber/fiber/v2"
)

type MetaHandler struct{}

func NewMetaHandler() *MetaHandler {
	return &MetaHandler{}
}

type MetaOption struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

var attendanceStatuses = []MetaOption{
	{ID: models.AttendancePresent, Label: "Present"},
	{ID: models.AttendanceExcused, Label: "Excused"},
	{ID: models.AttendanceAbsent, Label: "Absent"},
}

var predefinedInstruments = []MetaOption{
	{ID: "soprano", Label: "Soprano"},
	{ID: "alto", Label: "Alto"},
	{ID: "tenor", Label: "Tenor"},
	{ID: "bass", Label: "Bass"},
	{ID: "piano", Label: "Piano"},
	{ID: "guitar", Label: "Guitar"},
	{ID: "violin", Label: "Violin"},
	{ID: "cello", Label: "Cello"},
	{ID: "flute", Label: "Flute"},
	{ID: "clarinet", Label: "Clarinet"},
	{ID: "trumpet", Label: "Trumpet"},
	{ID: "percussion", Label: "Percussion"},
	{ID: "other", Label: "Other"},
}

var systemRoles = []MetaOption{
	{ID: models.RoleAdmin, Label: "Administrator"},
	{ID: models.RoleBoard, Label: "Board member"},
	{ID: models.RoleTreasurer, Label: "Treasurer"},
	{ID: models.RoleMember, Label: "Member"},
}

func (h *MetaHandler) GetAttendanceStatuses(c *fiber.Ctx) error {
	return c.JSON(dto.SuccessResponse{OK: true, Data: attendanceStatuses})
}

func (h *MetaHandler) GetInstruments(c *fiber.Ctx) error {
	return c.JSON(dto.SuccessResponse{OK: true, Data: predefinedInstruments})
}

func (h *MetaHandler) GetRoles(c *fiber.Ctx) error {
	return c.JSON(dto.SuccessResponse{OK: true, Data: systemRoles})
}
