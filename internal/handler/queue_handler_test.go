package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/ticketry/turnstile/internal/dto"
	"github.com/ticketry/turnstile/internal/models"
	"github.com/ticketry/turnstile/internal/service"
)

// --- Mock QueueService ---

type mockQueueService struct {
	joinFn     func(ctx context.Context, eventID, userID uuid.UUID, sessionID string) (models.QueueEntry, int, error)
	positionFn func(ctx context.Context, eventID, userID uuid.UUID) (models.QueueEntry, int, time.Duration, error)
	statusFn   func(ctx context.Context, sessionID string) (models.QueueEntry, error)
}

func (m *mockQueueService) Join(ctx context.Context, eventID, userID uuid.UUID, sessionID string) (models.QueueEntry, int, error) {
	return m.joinFn(ctx, eventID, userID, sessionID)
}
func (m *mockQueueService) Position(ctx context.Context, eventID, userID uuid.UUID) (models.QueueEntry, int, time.Duration, error) {
	return m.positionFn(ctx, eventID, userID)
}
func (m *mockQueueService) StatusBySession(ctx context.Context, sessionID string) (models.QueueEntry, error) {
	return m.statusFn(ctx, sessionID)
}

// --- Tests ---

func TestJoinQueue_Handler_Success(t *testing.T) {
	eventID := uuid.New()
	userID := uuid.New()
	svc := &mockQueueService{
		joinFn: func(ctx context.Context, gotEvent, gotUser uuid.UUID, sessionID string) (models.QueueEntry, int, error) {
			assert.Equal(t, eventID, gotEvent)
			assert.Equal(t, userID, gotUser)
			return models.QueueEntry{
				EventID:   gotEvent,
				UserID:    gotUser,
				SessionID: "session-1",
				Status:    models.QueueWaiting,
			}, 4, nil
		},
	}

	e := echo.New()
	body := `{"event_id":"` + eventID.String() + `","user_id":"` + userID.String() + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/queue/join", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := NewQueueHandler(svc)
	assert.NoError(t, h.JoinQueue(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp dto.QueueJoinResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "session-1", resp.SessionID)
	assert.Equal(t, 4, resp.Position)
	assert.Equal(t, models.QueueWaiting, resp.Status)
}

func TestJoinQueue_Handler_MissingUser(t *testing.T) {
	e := echo.New()
	body := `{"event_id":"` + uuid.NewString() + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/queue/join", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c := e.NewContext(req, httptest.NewRecorder())

	h := NewQueueHandler(&mockQueueService{})
	err := h.JoinQueue(c)

	var he *echo.HTTPError
	assert.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusBadRequest, he.Code)
}

func TestJoinQueue_Handler_AlreadyQueued(t *testing.T) {
	svc := &mockQueueService{
		joinFn: func(ctx context.Context, eventID, userID uuid.UUID, sessionID string) (models.QueueEntry, int, error) {
			return models.QueueEntry{}, 0, service.ErrAlreadyQueued
		},
	}

	e := echo.New()
	body := `{"event_id":"` + uuid.NewString() + `","user_id":"` + uuid.NewString() + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/queue/join", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c := e.NewContext(req, httptest.NewRecorder())

	h := NewQueueHandler(svc)
	err := h.JoinQueue(c)

	var he *echo.HTTPError
	assert.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusConflict, he.Code)
}

func TestGetPosition_Handler_Success(t *testing.T) {
	svc := &mockQueueService{
		positionFn: func(ctx context.Context, eventID, userID uuid.UUID) (models.QueueEntry, int, time.Duration, error) {
			return models.QueueEntry{Status: models.QueueWaiting}, 3, 9 * time.Second, nil
		},
	}

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("event_id", "user_id")
	c.SetParamValues(uuid.NewString(), uuid.NewString())

	h := NewQueueHandler(svc)
	assert.NoError(t, h.GetPosition(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp dto.QueuePositionResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 3, resp.Position)
	assert.Equal(t, "9s", resp.EstimatedWait)
}

func TestGetPosition_Handler_NotInQueue(t *testing.T) {
	svc := &mockQueueService{
		positionFn: func(ctx context.Context, eventID, userID uuid.UUID) (models.QueueEntry, int, time.Duration, error) {
			return models.QueueEntry{}, 0, 0, service.ErrNotInQueue
		},
	}

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetParamNames("event_id", "user_id")
	c.SetParamValues(uuid.NewString(), uuid.NewString())

	h := NewQueueHandler(svc)
	err := h.GetPosition(c)

	var he *echo.HTTPError
	assert.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusNotFound, he.Code)
}

func TestGetStatus_Handler_Success(t *testing.T) {
	svc := &mockQueueService{
		statusFn: func(ctx context.Context, sessionID string) (models.QueueEntry, error) {
			assert.Equal(t, "session-1", sessionID)
			return models.QueueEntry{SessionID: sessionID, Status: models.QueueAdmitted}, nil
		},
	}

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("session_id")
	c.SetParamValues("session-1")

	h := NewQueueHandler(svc)
	assert.NoError(t, h.GetStatus(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var entry models.QueueEntry
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entry))
	assert.Equal(t, models.QueueAdmitted, entry.Status)
}
