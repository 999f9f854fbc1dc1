package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/usetownhall/townhall/internal/profile"
	ai "github.com/usetownhall/townhall/plugin/ai"
	"github.com/usetownhall/townhall/plugin/ai/agent"
	"github.com/usetownhall/townhall/plugin/ai/router"
	"github.com/usetownhall/townhall/plugin/ai/session"
	apiv1 "github.com/usetownhall/townhall/server/router/api/v1"
	"github.com/usetownhall/townhall/store"
)

// Server wires the session registry, agent graph, and HTTP surface.
type Server struct {
	Profile  *profile.Profile
	Store    *store.Store
	Sessions session.Service

	echoServer *echo.Echo
	cleanupJob *session.CleanupJob
}

// NewServer builds the full service graph.
func NewServer(ctx context.Context, prof *profile.Profile, st *store.Store) (*Server, error) {
	echoServer := echo.New()
	echoServer.HideBanner = true
	echoServer.HidePort = true

	echoServer.Use(middleware.Recover())
	echoServer.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
	}))

	var llmService ai.LLMService
	if prof.IsAIEnabled() {
		aiConfig := ai.NewConfigFromProfile(prof)
		if err := aiConfig.Validate(); err != nil {
			return nil, errors.Wrap(err, "invalid AI configuration")
		}
		svc, err := ai.NewLLMService(&aiConfig.LLM)
		if err != nil {
			return nil, errors.Wrap(err, "failed to create LLM service")
		}
		llmService = svc
		slog.Info("LLM service initialized",
			"provider", aiConfig.LLM.Provider,
			"model", aiConfig.LLM.Model,
		)
	} else {
		slog.Warn("AI is disabled; chat turns will fail until it is configured")
	}

	classifier := router.NewClassifierService(llmService)
	sessions := session.NewStore()

	coordinator := agent.NewFormatCoordinator(
		agent.NewIncidentFormatter(llmService, st),
		agent.NewFeedbackFormatter(llmService, st),
		agent.NewConversationSummarizer(llmService),
		classifier,
	)
	runner := agent.NewRunner([]agent.Agent{
		agent.NewDialogueAgent(llmService),
		agent.NewTriageAgent(classifier),
		agent.NewInsightsAgent(st),
		coordinator,
	}, prof.TurnTimeout)

	apiService := apiv1.NewAPIV1Service(prof, st, sessions, runner)
	apiService.RegisterRoutes(echoServer)

	cleanupJob := session.NewCleanupJob(sessions, session.CleanupConfig{
		Retention: prof.SessionRetention,
	})

	return &Server{
		Profile:    prof,
		Store:      st,
		Sessions:   sessions,
		echoServer: echoServer,
		cleanupJob: cleanupJob,
	}, nil
}

// Start runs the HTTP listener and the background jobs. Non-blocking:
// listener errors are reported through the returned channel.
func (s *Server) Start(ctx context.Context) <-chan error {
	s.cleanupJob.Start(ctx)

	errChan := make(chan error, 1)
	address := fmt.Sprintf("%s:%d", s.Profile.Addr, s.Profile.Port)
	go func() {
		slog.Info("server started", "address", address, "mode", s.Profile.Mode)
		if err := s.echoServer.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()
	return errChan
}

// Shutdown drains the listener and stops background jobs.
func (s *Server) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	s.cleanupJob.Stop()

	if err := s.echoServer.Shutdown(ctx); err != nil {
		slog.Error("failed to shut down http server", "error", err)
	}
	if err := s.Store.Close(); err != nil {
		slog.Error("failed to close store", "error", err)
	}
	slog.Info("server shut down")
}
