package v1

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/usetownhall/townhall/plugin/ai/agent"
	"github.com/usetownhall/townhall/plugin/ai/session"
	apierrors "github.com/usetownhall/townhall/server/internal/errors"
	"github.com/usetownhall/townhall/server/internal/observability"
)

type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}

// chat drives one routing turn and streams the answer over SSE.
//
// Each answer chunk is emitted as "data: <chunk>\n\n". The stream ends
// with "data: [DONE]\n\n", or with a single "data: [ERROR: ...]\n\n"
// when the turn fails; errors are delivered in-band because the
// response has already committed to the streaming status line.
func (s *APIV1Service) chat(c echo.Context) error {
	request := &chatRequest{}
	if err := c.Bind(request); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "malformed request body"})
	}
	if request.Message == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "message is required"})
	}

	ctx := c.Request().Context()

	// Resolve the session before committing to the stream, so an
	// unknown id is still a clean 404.
	var sess *session.Session
	var err error
	if request.SessionID == "" {
		sess, err = s.Sessions.Create(ctx, "")
		if err != nil {
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to create session"})
		}
	} else {
		sess, err = s.Sessions.Get(ctx, request.SessionID)
		if err != nil {
			if errors.Is(err, session.ErrNotFound) {
				return c.JSON(http.StatusNotFound, map[string]string{"error": "session not found"})
			}
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to load session"})
		}
	}

	if err := s.chatSemaphore.Acquire(ctx, 1); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "server busy"})
	}
	defer s.chatSemaphore.Release(1)

	if _, err := s.Sessions.Touch(ctx, sess.ID); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to update session"})
	}

	reqCtx := observability.NewRequestContext(slog.Default(), sess.ID, sess.UserID)
	reqCtx.Info("chat turn started",
		slog.String(observability.LogFieldRole, sess.ActiveRole.String()),
		slog.Int(observability.LogFieldMessageLen, len(request.Message)),
	)
	s.metrics.RecordTurn(sess.ActiveRole.String())

	history, err := s.Sessions.History(ctx, sess.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to load history"})
	}
	lines := make([]string, 0, len(history))
	for _, msg := range history {
		lines = append(lines, msg.Content)
	}

	// Commit to the stream.
	response := c.Response()
	response.Header().Set(echo.HeaderContentType, "text/event-stream")
	response.Header().Set(echo.HeaderCacheControl, "no-cache")
	response.Header().Set(echo.HeaderConnection, "keep-alive")
	response.Header().Set("X-Accel-Buffering", "no")
	response.WriteHeader(http.StatusOK)

	turn := agent.NewTurn(sess.ID, request.Message, lines, sess.Context)

	callback := func(eventType string, eventData any) error {
		if eventType != agent.EventTypeAnswer {
			return nil
		}
		chunk, ok := eventData.(string)
		if !ok || chunk == "" {
			return nil
		}
		if _, err := fmt.Fprintf(response, "data: %s\n\n", chunk); err != nil {
			return err
		}
		response.Flush()
		s.metrics.RecordStreamChunk()
		return nil
	}

	result, runErr := s.Runner.RunTurn(ctx, sess.ActiveRole, turn, callback)

	// Record the role where generation stopped, success or not, so the
	// next turn resumes from it. A disconnected caller does not roll
	// back anything already committed.
	if result != nil {
		if err := s.Sessions.SetActiveRole(ctx, sess.ID, result.FinalRole); err != nil {
			reqCtx.Warn("failed to record active role")
		}
	}

	if runErr != nil {
		svcErr := classifyTurnError(runErr)
		reqCtx.Error("chat turn failed", runErr,
			slog.String(observability.LogFieldErrorCode, string(svcErr.Code)),
			slog.Int64(observability.LogFieldDuration, reqCtx.DurationMs()),
		)
		s.metrics.RecordFailure(sess.ActiveRole.String())
		fmt.Fprintf(response, "data: [ERROR: %s]\n\n", svcErr.Message)
		response.Flush()
		return nil
	}

	if err := s.Sessions.AppendExchange(ctx, sess.ID, request.Message, result.Answer); err != nil {
		reqCtx.Warn("failed to append exchange")
	}

	s.metrics.RecordDuration(sess.ActiveRole.String(), reqCtx.Duration())
	reqCtx.Info("chat turn completed",
		slog.String(observability.LogFieldRole, result.FinalRole.String()),
		slog.Int64(observability.LogFieldDuration, reqCtx.DurationMs()),
	)

	fmt.Fprint(response, "data: [DONE]\n\n")
	response.Flush()
	return nil
}

// classifyTurnError maps a turn failure onto the boundary taxonomy.
// The caller-facing message is kept short; details stay in the logs.
func classifyTurnError(err error) *apierrors.ServiceError {
	var validationErr *agent.ValidationError
	switch {
	case errors.As(err, &validationErr):
		return apierrors.Validation(validationErr.Error(), err)
	case errors.Is(err, context.DeadlineExceeded):
		return apierrors.Timeout("turn timed out")
	case errors.Is(err, context.Canceled):
		return apierrors.Canceled(err)
	case errors.Is(err, agent.ErrIllegalHandoff), errors.Is(err, agent.ErrTooManyHandoffs):
		return apierrors.Upstream("routing failed", err)
	default:
		return apierrors.Upstream("generation failed", err)
	}
}
