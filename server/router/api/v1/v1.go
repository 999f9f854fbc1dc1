package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"golang.org/x/sync/semaphore"

	"github.com/usetownhall/townhall/internal/profile"
	"github.com/usetownhall/townhall/plugin/ai/agent"
	"github.com/usetownhall/townhall/plugin/ai/session"
	"github.com/usetownhall/townhall/server/internal/observability"
	"github.com/usetownhall/townhall/server/middleware"
	"github.com/usetownhall/townhall/store"
)

// APIV1Service exposes the HTTP surface: session lifecycle and the
// streaming chat endpoint.
type APIV1Service struct {
	Profile  *profile.Profile
	Store    *store.Store
	Sessions session.Service
	Runner   *agent.Runner

	// chatSemaphore bounds concurrent turns so a burst of chat requests
	// cannot exhaust upstream connections.
	chatSemaphore *semaphore.Weighted
	rateLimiter   *middleware.RateLimiter
	metrics       *observability.Metrics
}

// NewAPIV1Service creates the API service.
func NewAPIV1Service(prof *profile.Profile, st *store.Store, sessions session.Service, runner *agent.Runner) *APIV1Service {
	concurrency := int64(16)
	if prof != nil && prof.ChatConcurrency > 0 {
		concurrency = int64(prof.ChatConcurrency)
	}
	return &APIV1Service{
		Profile:       prof,
		Store:         st,
		Sessions:      sessions,
		Runner:        runner,
		chatSemaphore: semaphore.NewWeighted(concurrency),
		rateLimiter:   middleware.NewRateLimiter(10, 20),
		metrics:       observability.GlobalMetrics(),
	}
}

// RegisterRoutes attaches all handlers to the given Echo instance.
func (s *APIV1Service) RegisterRoutes(echoServer *echo.Echo) {
	echoServer.GET("/", s.getServiceInfo)
	echoServer.GET("/health", s.getHealth)

	echoServer.POST("/sessions/create", s.createSession)
	echoServer.GET("/sessions", s.listSessions)
	echoServer.GET("/sessions/:id", s.getSession)
	echoServer.DELETE("/sessions/:id", s.deleteSession)

	echoServer.POST("/chat", s.chat, s.rateLimiter.PerClient())
}

func (s *APIV1Service) getServiceInfo(c echo.Context) error {
	info := map[string]any{
		"service":         "digital-town-hall",
		"active_sessions": s.Sessions.Count(c.Request().Context()),
	}
	if s.Profile != nil {
		info["version"] = s.Profile.Version
		info["ai_enabled"] = s.Profile.IsAIEnabled()
	}
	snapshot := s.metrics.Snapshot()
	info["turns_total"] = snapshot.TurnTotal
	info["turns_failed"] = snapshot.TurnFailed
	return c.JSON(http.StatusOK, info)
}

func (s *APIV1Service) getHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "healthy"})
}
