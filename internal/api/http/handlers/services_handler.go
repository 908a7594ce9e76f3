package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/queue-service/internal/api/dto"
	"github.com/spec-kit/queue-service/internal/domain"
	"github.com/spec-kit/queue-service/internal/service"
	apperrors "github.com/spec-kit/queue-service/pkg/util"
)

// ServicesHandler manages the service type catalog.
type ServicesHandler struct {
	catalog *service.CatalogService
}

// NewServicesHandler constructs handler.
func NewServicesHandler(catalog *service.CatalogService) *ServicesHandler {
	return &ServicesHandler{catalog: catalog}
}

// Create POST /services.
func (h *ServicesHandler) Create(c *fiber.Ctx) error {
	var req dto.ServiceTypeRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	serviceType, err := h.catalog.Create(c.UserContext(), req.Code, req.DisplayName)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": serviceTypeResponse(serviceType)})
}

// Delete DELETE /services/:code.
func (h *ServicesHandler) Delete(c *fiber.Ctx) error {
	if err := h.catalog.Delete(c.UserContext(), c.Params("code")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// Get GET /services/:code.
func (h *ServicesHandler) Get(c *fiber.Ctx) error {
	serviceType, err := h.catalog.Get(c.UserContext(), c.Params("code"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": serviceTypeResponse(serviceType)})
}

// List GET /services.
func (h *ServicesHandler) List(c *fiber.Ctx) error {
	serviceTypes, err := h.catalog.List(c.UserContext())
	if err != nil {
		return err
	}
	items := make([]dto.ServiceTypeResponse, 0, len(serviceTypes))
	for i := range serviceTypes {
		items = append(items, serviceTypeResponse(&serviceTypes[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

func serviceTypeResponse(serviceType *domain.ServiceType) dto.ServiceTypeResponse {
	return dto.ServiceTypeResponse{
		Code:        serviceType.Code,
		DisplayName: serviceType.DisplayName,
		CreatedAt:   serviceType.CreatedAt,
	}
}
