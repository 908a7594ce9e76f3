package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/queue-service/internal/api/dto"
	"github.com/spec-kit/queue-service/internal/domain"
	"github.com/spec-kit/queue-service/internal/service"
	apperrors "github.com/spec-kit/queue-service/pkg/util"
)

// TicketsHandler manages ticket intake and the pending pool.
type TicketsHandler struct {
	tickets *service.TicketService
	ledger  *service.LedgerService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(tickets *service.TicketService, ledger *service.LedgerService) *TicketsHandler {
	return &TicketsHandler{tickets: tickets, ledger: ledger}
}

// IssueTicket POST /tickets.
func (h *TicketsHandler) IssueTicket(c *fiber.Ctx) error {
	var req dto.IssueTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.ServiceCode == "" {
		return apperrors.NewValidationError("service_code required", nil)
	}
	ticket, err := h.tickets.IssueTicket(c.UserContext(), req.ServiceCode)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// ListPending GET /tickets/pending.
func (h *TicketsHandler) ListPending(c *fiber.Ctx) error {
	serviceCode := queryServiceCode(c)
	tickets, err := h.tickets.ListPending(c.UserContext(), serviceCode)
	if err != nil {
		return err
	}
	items := make([]dto.TicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, ticketResponse(&tickets[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// PendingCount GET /tickets/pending/count.
func (h *TicketsHandler) PendingCount(c *fiber.Ctx) error {
	serviceCode := queryServiceCode(c)
	count, err := h.ledger.CountPendingToday(c.UserContext(), serviceCode)
	if err != nil {
		return err
	}
	return c.JSON(dto.PendingCountResponse{Count: count})
}

func queryServiceCode(c *fiber.Ctx) *string {
	if code := c.Query("service_code"); code != "" {
		return &code
	}
	return nil
}

func ticketResponse(ticket *domain.Ticket) dto.TicketResponse {
	return dto.TicketResponse{
		ID:             ticket.ID,
		ServiceCode:    ticket.ServiceCode,
		SequenceNumber: ticket.SequenceNumber,
		DisplayNumber:  ticket.DisplayNumber,
		IssuedAt:       ticket.IssuedAt,
	}
}
