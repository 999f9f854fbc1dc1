package v1

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/usetownhall/townhall/plugin/ai/session"
)

type createSessionRequest struct {
	UserID string `json:"user_id"`
}

type sessionResponse struct {
	SessionID    string `json:"session_id"`
	UserID       string `json:"user_id"`
	GroupID      string `json:"group_id"`
	CreatedAt    string `json:"created_at"`
	LastActiveAt string `json:"last_active_at"`
	MessageCount int    `json:"message_count"`
	ActiveRole   string `json:"active_role"`
}

func toSessionResponse(s *session.Session) *sessionResponse {
	return &sessionResponse{
		SessionID:    s.ID,
		UserID:       s.UserID,
		GroupID:      s.GroupID,
		CreatedAt:    time.Unix(s.CreatedTs, 0).UTC().Format(time.RFC3339),
		LastActiveAt: time.Unix(s.LastActiveTs, 0).UTC().Format(time.RFC3339),
		MessageCount: s.MessageCount,
		ActiveRole:   s.ActiveRole.String(),
	}
}

func (s *APIV1Service) createSession(c echo.Context) error {
	request := &createSessionRequest{}
	if err := c.Bind(request); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "malformed request body"})
	}

	created, err := s.Sessions.Create(c.Request().Context(), request.UserID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to create session"})
	}
	return c.JSON(http.StatusOK, toSessionResponse(created))
}

func (s *APIV1Service) getSession(c echo.Context) error {
	sessionID := c.Param("id")

	found, err := s.Sessions.Get(c.Request().Context(), sessionID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "session not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to load session"})
	}
	return c.JSON(http.StatusOK, toSessionResponse(found))
}

func (s *APIV1Service) deleteSession(c echo.Context) error {
	sessionID := c.Param("id")

	if err := s.Sessions.Delete(c.Request().Context(), sessionID); err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "session not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to delete session"})
	}
	return c.JSON(http.StatusOK, map[string]string{
		"status":     "deleted",
		"session_id": sessionID,
	})
}

func (s *APIV1Service) listSessions(c echo.Context) error {
	userID := c.QueryParam("user_id")

	list, err := s.Sessions.List(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to list sessions"})
	}

	responses := make([]*sessionResponse, 0, len(list))
	for _, item := range list {
		responses = append(responses, toSessionResponse(item))
	}
	return c.JSON(http.StatusOK, map[string]any{
		"sessions": responses,
		"count":    len(responses),
	})
}
