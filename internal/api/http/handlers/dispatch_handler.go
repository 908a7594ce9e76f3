package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/queue-service/internal/api/dto"
	"github.com/spec-kit/queue-service/internal/service"
	apperrors "github.com/spec-kit/queue-service/pkg/util"
)

// DispatchHandler exposes dispatching and the call board.
type DispatchHandler struct {
	dispatch *service.DispatchService
	ledger   *service.LedgerService
}

// NewDispatchHandler constructs handler.
func NewDispatchHandler(dispatch *service.DispatchService, ledger *service.LedgerService) *DispatchHandler {
	return &DispatchHandler{dispatch: dispatch, ledger: ledger}
}

// DispatchNext POST /dispatch.
func (h *DispatchHandler) DispatchNext(c *fiber.Ctx) error {
	var req dto.DispatchRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return apperrors.NewValidationError("invalid payload", nil)
		}
	}
	assignment, ticket, err := h.dispatch.DispatchNext(c.UserContext(), req.ServiceCode)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.DispatchResponse{
		AssignmentID:  assignment.ID,
		TicketID:      ticket.ID,
		DisplayNumber: ticket.DisplayNumber,
		ServiceCode:   ticket.ServiceCode,
		AttendantID:   assignment.AttendantID,
		DeskLabel:     assignment.Desk.Label,
		DeskNumber:    assignment.Desk.Number,
		CalledAt:      assignment.CreatedAt,
	}})
}

// RecentCalls GET /calls/recent.
func (h *DispatchHandler) RecentCalls(c *fiber.Ctx) error {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return apperrors.NewValidationError("limit must be a positive integer", nil)
		}
		limit = parsed
	}
	records, err := h.ledger.RecentCalls(c.UserContext(), limit)
	if err != nil {
		return err
	}
	items := make([]dto.CallRecordResponse, 0, len(records))
	for _, record := range records {
		items = append(items, dto.CallRecordResponse{
			AssignmentID:  record.Assignment.ID,
			DisplayNumber: record.DisplayNumber,
			ServiceName:   record.ServiceName,
			DeskLabel:     record.Assignment.Desk.Label,
			DeskNumber:    record.Assignment.Desk.Number,
			CalledAt:      record.Assignment.CreatedAt,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

// MonthlyStats GET /stats/monthly.
func (h *DispatchHandler) MonthlyStats(c *fiber.Ctx) error {
	from, to, err := parseRange(c)
	if err != nil {
		return err
	}
	counts, err := h.ledger.AggregateByPeriod(c.UserContext(), from, to)
	if err != nil {
		return err
	}
	resp := dto.StatsResponse{Labels: []string{}, Data: []int64{}}
	for _, bucket := range counts {
		resp.Labels = append(resp.Labels, bucket.Label())
		resp.Data = append(resp.Data, bucket.Count)
	}
	return c.JSON(resp)
}

// ServiceStats GET /stats/by-service.
func (h *DispatchHandler) ServiceStats(c *fiber.Ctx) error {
	from, to, err := parseRange(c)
	if err != nil {
		return err
	}
	counts, err := h.ledger.AggregateByService(c.UserContext(), from, to)
	if err != nil {
		return err
	}
	resp := dto.StatsResponse{Labels: []string{}, Data: []int64{}}
	for _, bucket := range counts {
		resp.Labels = append(resp.Labels, bucket.ServiceName)
		resp.Data = append(resp.Data, bucket.Count)
	}
	return c.JSON(resp)
}

func parseRange(c *fiber.Ctx) (*time.Time, *time.Time, error) {
	var from, to *time.Time
	if raw := c.Query("start_date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return nil, nil, apperrors.NewValidationError("invalid start_date", map[string]any{"start_date": raw})
		}
		from = &parsed
	}
	if raw := c.Query("end_date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return nil, nil, apperrors.NewValidationError("invalid end_date", map[string]any{"end_date": raw})
		}
		to = &parsed
	}
	return from, to, nil
}
