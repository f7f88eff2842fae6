package handler

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/ticketry/turnstile/internal/dto"
	"github.com/ticketry/turnstile/internal/service"
)

type QueueHandler struct {
	svc service.QueueService
}

func NewQueueHandler(svc service.QueueService) *QueueHandler {
	return &QueueHandler{svc: svc}
}

// RegisterRoutes wires the queue endpoints. Extra middleware (rate limiting
// on join) is attached by the caller.
func (h *QueueHandler) RegisterRoutes(e *echo.Echo, joinMiddleware ...echo.MiddlewareFunc) {
	queue := e.Group("/api/v1/queue")
	queue.POST("/join", h.JoinQueue, joinMiddleware...)
	queue.GET("/position/:event_id/:user_id", h.GetPosition)
	queue.GET("/status/:session_id", h.GetStatus)
}

func (h *QueueHandler) JoinQueue(c echo.Context) error {
	var req dto.JoinQueueRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.EventID == uuid.Nil {
		return echo.NewHTTPError(http.StatusBadRequest, "event_id is required")
	}
	if req.UserID == uuid.Nil {
		return echo.NewHTTPError(http.StatusBadRequest, "user_id is required")
	}

	entry, position, err := h.svc.Join(c.Request().Context(), req.EventID, req.UserID, req.SessionID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEventNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrEventNotOnSale):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrAlreadyQueued), errors.Is(err, service.ErrSessionTaken):
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}

	return c.JSON(http.StatusOK, dto.QueueJoinResponse{
		SessionID: entry.SessionID,
		Position:  position,
		Status:    entry.Status,
	})
}

func (h *QueueHandler) GetPosition(c echo.Context) error {
	eventID, err := uuid.Parse(c.Param("event_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid event id")
	}
	userID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid user id")
	}

	entry, rank, wait, err := h.svc.Position(c.Request().Context(), eventID, userID)
	if err != nil {
		if errors.Is(err, service.ErrNotInQueue) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	resp := dto.QueuePositionResponse{
		Position:   rank,
		Status:     entry.Status,
		EnqueuedAt: entry.EnqueuedAt,
	}
	if wait > 0 {
		resp.EstimatedWait = wait.String()
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *QueueHandler) GetStatus(c echo.Context) error {
	sessionID := c.Param("session_id")
	if sessionID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "session id is required")
	}

	entry, err := h.svc.StatusBySession(c.Request().Context(), sessionID)
	if err != nil {
		if errors.Is(err, service.ErrNotInQueue) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, entry)
}
