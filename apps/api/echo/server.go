package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/pkg/errors"

	"github.com/erise-club/website/core"
	"github.com/erise-club/website/core/achievement"
	"github.com/erise-club/website/core/admin"
	"github.com/erise-club/website/core/chat"
	"github.com/erise-club/website/core/event"
	"github.com/erise-club/website/core/member"
)

type (
	ServerDeps struct {
		Conf   *core.Config
		Logger core.Logger
		DB     core.DB

		AdminSvc       *admin.Service
		EventSvc       *event.Service
		MemberSvc      *member.Service
		AchievementSvc *achievement.Service
		ChatSvc        *chat.Service

		// ChatLimiterStore counts chat requests per client. An in-memory store is used when nil.
		ChatLimiterStore middleware.RateLimiterStore

		Validate   *validator.Validate
		Translator ut.Translator
	}

	Server struct {
		deps     ServerDeps
		app      *echo.Echo
		errors   chan error
		shutdown chan os.Signal
	}
)

func NewServer(deps ServerDeps) *Server {
	s := &Server{
		deps:     deps,
		app:      echo.New(),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *Server) setup() {
	conf := s.deps.Conf

	s.app.HideBanner = true
	s.app.Debug = conf.Debug
	s.app.Server.ReadTimeout = conf.Server.ReadTimeout
	s.app.Server.WriteTimeout = conf.Server.WriteTimeout
	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.AdminSvc, s.deps.Translator, s.signalShutdown)

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !conf.Server.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	if conf.Server.BodyLimit != "" {
		s.app.Use(middleware.BodyLimit(conf.Server.BodyLimit))
	}
	if frontend := s.frontendMiddleware(); frontend != nil {
		s.app.Use(frontend)
	}

	api := s.app.Group("/api")
	auth := authMiddleware(s.deps.AdminSvc, []byte(conf.SecretKey))

	api.GET("/health", s.health)
	registerAuthAPI(api, auth, s.deps.AdminSvc, conf)
	registerResourceAPI(api, auth, s.deps.EventSvc, s.deps.Validate)
	registerResourceAPI(api, auth, s.deps.MemberSvc, s.deps.Validate)
	registerResourceAPI(api, auth, s.deps.AchievementSvc, s.deps.Validate)
	registerChatAPI(api, s.deps.ChatSvc, s.chatLimiter(), s.deps.Validate)
}

// Start listens on the configured address. Listening errors are sent to Errors().
func (s *Server) Start() {
	if err := s.app.Start(s.deps.Conf.Server.Address); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) Errors() <-chan error {
	return s.errors
}

func (s *Server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

func (s *Server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default: // already shutting down
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

var errDBUnavailable = echo.NewHTTPError(http.StatusServiceUnavailable, "database unavailable")

func (s *Server) health(ctx echo.Context) error {
	if err := s.deps.DB.PingContext(ctx.Request().Context()); err != nil {
		s.deps.Logger.Error("health check failed", errors.Wrap(err, "pinging database"))
		return errDBUnavailable
	}
	return ctx.JSON(http.StatusOK, echo.Map{"status": "ok"})
}
