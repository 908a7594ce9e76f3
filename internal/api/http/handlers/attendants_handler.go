package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/queue-service/internal/api/dto"
	"github.com/spec-kit/queue-service/internal/auth"
	"github.com/spec-kit/queue-service/internal/domain"
	"github.com/spec-kit/queue-service/internal/service"
	apperrors "github.com/spec-kit/queue-service/pkg/util"
)

// AttendantsHandler manages attendant state and admin operations.
type AttendantsHandler struct {
	attendants *service.AttendantService
}

// NewAttendantsHandler constructs handler.
func NewAttendantsHandler(attendants *service.AttendantService) *AttendantsHandler {
	return &AttendantsHandler{attendants: attendants}
}

// Create POST /attendants.
func (h *AttendantsHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateAttendantRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	attendant, err := h.attendants.Register(c.UserContext(), req.Name, req.EligibleServices, domain.Desk{
		Label:  req.DeskLabel,
		Number: req.DeskNumber,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": attendantResponse(attendant)})
}

// Delete DELETE /attendants/:id.
func (h *AttendantsHandler) Delete(c *fiber.Ctx) error {
	if err := h.attendants.Remove(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// Get GET /attendants/:id.
func (h *AttendantsHandler) Get(c *fiber.Ctx) error {
	attendant, err := h.attendants.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": attendantResponse(attendant)})
}

// List GET /attendants.
func (h *AttendantsHandler) List(c *fiber.Ctx) error {
	attendants, err := h.attendants.List(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": attendantResponses(attendants)})
}

// SetAvailability PUT /attendants/:id/availability. Attendants may
// only report for themselves; admins may report for anyone.
func (h *AttendantsHandler) SetAvailability(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("principal required")
	}
	attendantID := c.Params("id")
	if principal.Role != domain.RoleAdmin && principal.AttendantID != attendantID {
		return apperrors.NewForbidden("availability is self-reported")
	}
	var req dto.AvailabilityRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	attendant, err := h.attendants.SetAvailability(c.UserContext(), attendantID, domain.Availability(req.State), req.Version)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": attendantResponse(attendant)})
}

// Available GET /attendants/available.
func (h *AttendantsHandler) Available(c *fiber.Ctx) error {
	serviceCode := c.Query("service_code")
	if serviceCode == "" {
		return apperrors.NewValidationError("service_code required", nil)
	}
	attendants, err := h.attendants.FindEligibleAvailable(c.UserContext(), serviceCode)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": attendantResponses(attendants)})
}

// SetEligibility PUT /attendants/:id/eligibility.
func (h *AttendantsHandler) SetEligibility(c *fiber.Ctx) error {
	var req dto.EligibilityRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	attendant, err := h.attendants.SetEligibility(c.UserContext(), c.Params("id"), req.ServiceCodes)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": attendantResponse(attendant)})
}

// SetDesk PUT /attendants/:id/desk.
func (h *AttendantsHandler) SetDesk(c *fiber.Ctx) error {
	var req dto.DeskRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	attendant, err := h.attendants.SetDesk(c.UserContext(), c.Params("id"), domain.Desk{
		Label:  req.Label,
		Number: req.Number,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": attendantResponse(attendant)})
}

func attendantResponse(attendant *domain.Attendant) dto.AttendantResponse {
	return dto.AttendantResponse{
		ID:               attendant.ID,
		Name:             attendant.Name,
		EligibleServices: attendant.EligibleServices,
		Availability:     attendant.Availability,
		DeskLabel:        attendant.Desk.Label,
		DeskNumber:       attendant.Desk.Number,
		Version:          attendant.Version,
		CreatedAt:        attendant.CreatedAt,
		UpdatedAt:        attendant.UpdatedAt,
	}
}

func attendantResponses(attendants []domain.Attendant) []dto.AttendantResponse {
	items := make([]dto.AttendantResponse, 0, len(attendants))
	for i := range attendants {
		items = append(items, attendantResponse(&attendants[i]))
	}
	return items
}
