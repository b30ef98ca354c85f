package server

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"

	echoapi "github.com/wildlanka/identity/api/echo"
	"github.com/wildlanka/identity/config"
)

// NewHTTPServer creates and configures the Echo HTTP server hosting the
// identity endpoints.
func NewHTTPServer(cfg *config.ServerConfig, identityAPI *echoapi.IdentityAPI) *http.Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())

	// Request logging through zerolog.
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogRemoteIP:  true,
		LogUserAgent: true,
		LogLatency:   true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			evt := log.Info()
			if v.Error != nil {
				evt = log.Error().Err(v.Error)
			}
			evt.
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Str("ip", v.RemoteIP).
				Str("user_agent", v.UserAgent).
				Dur("latency", v.Latency).
				Msg("HTTP Request")
			return nil
		},
	}))

	identityAPI.RegisterRoutes(e)

	return &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           e,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
	}
}
