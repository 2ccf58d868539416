package echoapi

import (
	"net/url"
	"os"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// isAPIRequest is true for "/api" & "/api/...": those paths are never served by the frontend.
func isAPIRequest(ctx echo.Context) bool {
	p := ctx.Request().URL.Path
	return p == "/api" || strings.HasPrefix(p, "/api/")
}

// frontendMiddleware serves the single-page application: either proxied to the development
// bundler (Server.DevServerURL) or from the prebuilt bundle (Server.StaticDir), falling back
// to its index.html for client-side routes.
func (s *Server) frontendMiddleware() echo.MiddlewareFunc {
	conf := s.deps.Conf.Server

	if conf.DevServerURL != "" {
		target, err := url.Parse(conf.DevServerURL)
		if err != nil {
			s.deps.Logger.Fatal("invalid dev server URL", err)
			return nil
		}
		return middleware.ProxyWithConfig(middleware.ProxyConfig{
			Skipper:  isAPIRequest,
			Balancer: middleware.NewRoundRobinBalancer([]*middleware.ProxyTarget{{Name: "dev", URL: target}}),
		})
	}

	if conf.StaticDir == "" {
		return nil
	}
	if info, err := os.Stat(conf.StaticDir); err != nil || !info.IsDir() {
		s.deps.Logger.Warn("static bundle not found, serving the API only: " + conf.StaticDir)
		return nil
	}
	return middleware.StaticWithConfig(middleware.StaticConfig{
		Skipper: isAPIRequest,
		Root:    conf.StaticDir,
		Index:   "index.html",
		HTML5:   true,
	})
}
