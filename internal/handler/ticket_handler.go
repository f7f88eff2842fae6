package handler

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/ticketry/turnstile/internal/dto"
	"github.com/ticketry/turnstile/internal/repository"
	"github.com/ticketry/turnstile/internal/service"
)

type TicketHandler struct {
	svc     service.PurchaseService
	tickets repository.TicketRepository
}

func NewTicketHandler(svc service.PurchaseService, tickets repository.TicketRepository) *TicketHandler {
	return &TicketHandler{svc: svc, tickets: tickets}
}

func (h *TicketHandler) RegisterRoutes(e *echo.Echo) {
	t := e.Group("/api/v1/tickets")
	t.POST("/purchase", h.Purchase)
	t.POST("/hold", h.Hold)
	t.POST("/confirm", h.Confirm)
	t.POST("/cancel", h.Cancel)
	t.GET("/:id", h.GetTicket)
	t.GET("/user/:user_id", h.GetUserTickets)
}

func bindPurchase(c echo.Context) (*dto.PurchaseRequest, error) {
	var req dto.PurchaseRequest
	if err := c.Bind(&req); err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.EventID == uuid.Nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "event_id is required")
	}
	if req.UserID == uuid.Nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "user_id is required")
	}
	if req.SessionID == "" {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "session_id is required")
	}
	return &req, nil
}

// purchaseError maps the core's typed errors onto HTTP statuses. Admission
// errors and hold expiry are distinct outcomes for the client: the former
// mean "resynchronize through the queue", the latter "rejoin and start over".
func purchaseError(err error) error {
	switch {
	case errors.Is(err, service.ErrNotAdmitted), errors.Is(err, service.ErrNotInQueue):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrEventNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrEventNotOnSale), errors.Is(err, service.ErrSeatRequired):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrSeatUnavailable), errors.Is(err, service.ErrSoldOut),
		errors.Is(err, service.ErrHoldActive), errors.Is(err, service.ErrAlreadyHeld):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrHoldExpired), errors.Is(err, service.ErrNoActiveHold):
		return echo.NewHTTPError(http.StatusGone, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}

func (h *TicketHandler) Purchase(c echo.Context) error {
	req, err := bindPurchase(c)
	if err != nil {
		return err
	}

	ticket, err := h.svc.PurchaseTicket(c.Request().Context(), req.EventID, req.UserID, req.SessionID, req.SeatID)
	if err != nil {
		return purchaseError(err)
	}
	return c.JSON(http.StatusCreated, ticket)
}

func (h *TicketHandler) Hold(c echo.Context) error {
	req, err := bindPurchase(c)
	if err != nil {
		return err
	}

	hold, err := h.svc.RequestHold(c.Request().Context(), req.EventID, req.UserID, req.SessionID, req.SeatID)
	if err != nil {
		return purchaseError(err)
	}
	return c.JSON(http.StatusCreated, dto.ToHoldResponse(hold))
}

func (h *TicketHandler) Confirm(c echo.Context) error {
	req, err := bindPurchase(c)
	if err != nil {
		return err
	}

	ticket, err := h.svc.ConfirmPurchase(c.Request().Context(), req.EventID, req.UserID, req.SessionID)
	if err != nil {
		return purchaseError(err)
	}
	return c.JSON(http.StatusCreated, ticket)
}

func (h *TicketHandler) Cancel(c echo.Context) error {
	req, err := bindPurchase(c)
	if err != nil {
		return err
	}

	if err := h.svc.Cancel(c.Request().Context(), req.EventID, req.UserID, req.SessionID); err != nil {
		return purchaseError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *TicketHandler) GetTicket(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid ticket id")
	}

	ticket, err := h.tickets.FindByID(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "ticket not found")
	}
	return c.JSON(http.StatusOK, ticket)
}

func (h *TicketHandler) GetUserTickets(c echo.Context) error {
	userID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid user id")
	}

	tickets, err := h.tickets.FindByUserID(c.Request().Context(), userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, tickets)
}
