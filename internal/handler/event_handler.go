package handler

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/ticketry/turnstile/internal/dto"
	"github.com/ticketry/turnstile/internal/models"
	"github.com/ticketry/turnstile/internal/service"
)

type EventHandler struct {
	svc service.EventService
}

func NewEventHandler(svc service.EventService) *EventHandler {
	return &EventHandler{svc: svc}
}

func (h *EventHandler) RegisterRoutes(e *echo.Echo) {
	events := e.Group("/api/v1/events")
	events.POST("", h.CreateEvent)
	events.GET("", h.ListEvents)
	events.GET("/:id", h.GetEvent)
	events.POST("/:id/seats", h.LoadSeats)
	events.GET("/:id/seats/available", h.ListAvailableSeats)
}

func (h *EventHandler) CreateEvent(c echo.Context) error {
	var req dto.CreateEventRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name is required")
	}
	capacity := req.Capacity
	if capacity == 0 {
		capacity = req.TotalTickets
	}
	if capacity <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "capacity must be positive")
	}
	if !req.StartTime.IsZero() && !req.EndTime.IsZero() && req.StartTime.After(req.EndTime) {
		return echo.NewHTTPError(http.StatusBadRequest, "start_time must be before end_time")
	}

	event := &models.Event{
		Name:        req.Name,
		Description: req.Description,
		Venue:       req.Venue,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		SaleStartAt: req.SaleStartAt,
		SaleEndAt:   req.SaleEndAt,
		Capacity:    capacity,
		Seated:      req.Seated,
		Price:       req.Price,
	}
	if err := h.svc.CreateEvent(c.Request().Context(), event); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	avail, _ := h.svc.Availability(c.Request().Context(), event.ID)
	return c.JSON(http.StatusCreated, dto.ToEventResponse(event, avail))
}

func (h *EventHandler) ListEvents(c echo.Context) error {
	events, err := h.svc.ListActiveEvents(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	resp := make([]dto.EventResponse, len(events))
	for i := range events {
		avail, _ := h.svc.Availability(c.Request().Context(), events[i].ID)
		resp[i] = dto.ToEventResponse(&events[i], avail)
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *EventHandler) GetEvent(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid event id")
	}

	event, err := h.svc.GetEvent(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "event not found")
	}

	avail, _ := h.svc.Availability(c.Request().Context(), id)
	return c.JSON(http.StatusOK, dto.ToEventResponse(event, avail))
}

func (h *EventHandler) LoadSeats(c echo.Context) error {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid event id")
	}

	var req dto.LoadSeatsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if len(req.Seats) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "seats are required")
	}

	seats := make([]models.Seat, len(req.Seats))
	for i, spec := range req.Seats {
		seats[i] = models.Seat{
			Section: spec.Section,
			Row:     spec.Row,
			Number:  spec.Number,
			Price:   spec.Price,
		}
	}

	count, err := h.svc.LoadSeats(c.Request().Context(), eventID, seats)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEventNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrDuplicateSeat):
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		case errors.Is(err, service.ErrEventLocked):
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}

	return c.JSON(http.StatusCreated, map[string]int{"seats_loaded": count})
}

func (h *EventHandler) ListAvailableSeats(c echo.Context) error {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid event id")
	}

	seats, err := h.svc.AvailableSeats(c.Request().Context(), eventID)
	if err != nil {
		if errors.Is(err, service.ErrEventNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "event not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	resp := make([]dto.SeatResponse, len(seats))
	for i, s := range seats {
		resp[i] = dto.ToSeatResponse(s)
	}
	return c.JSON(http.StatusOK, resp)
}
