package echoapi

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"golang.org/x/time/rate"

	"github.com/erise-club/website/core"
	"github.com/erise-club/website/core/chat"
)

type chatApi struct {
	svc      *chat.Service
	validate *validator.Validate
}

func registerChatAPI(
	g *echo.Group,
	svc *chat.Service,
	limiter echo.MiddlewareFunc,
	validate *validator.Validate,
) {
	api := chatApi{
		svc:      svc,
		validate: validate,
	}
	g.GET("/chat", api.greeting)
	g.POST("/chat", api.reply, limiter)
}

// chatLimiter limits chat requests per client IP to Chat.RateLimit per minute.
func (s *Server) chatLimiter() echo.MiddlewareFunc {
	perMinute := s.deps.Conf.Chat.RateLimit
	if perMinute <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}

	store := s.deps.ChatLimiterStore
	if store == nil {
		store = middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
			Rate:      rate.Limit(float64(perMinute) / time.Minute.Seconds()),
			Burst:     perMinute,
			ExpiresIn: 3 * time.Minute,
		})
	}

	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: failOpenStore{store: store, logger: s.deps.Logger},
		DenyHandler: func(ctx echo.Context, identifier string, err error) error {
			return errRateLimited
		},
	})
}

// failOpenStore lets requests through when the underlying store cannot count them.
type failOpenStore struct {
	store  middleware.RateLimiterStore
	logger core.Logger
}

func (s failOpenStore) Allow(identifier string) (bool, error) {
	allowed, err := s.store.Allow(identifier)
	if err != nil {
		err = errors.Wrapf(err, "checking rate limit of %s", identifier)
		s.logger.Error(fmt.Sprintf("rate limiter unavailable: %v", err), err)
		return true, nil
	}
	return allowed, nil
}

// Handlers

func (api *chatApi) greeting(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, GreetingResponse{Greeting: chat.Greeting})
}

func (api *chatApi) reply(ctx echo.Context) error {
	var data chat.Message
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Message")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, api.svc.Reply(ctx.Request().Context(), data))
}

type GreetingResponse struct {
	Greeting string `json:"greeting"`
}
