package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"blog-backend/internal/auth"
	"blog-backend/internal/flash"
	"blog-backend/internal/logutil"
	"blog-backend/internal/turnstile"
)

const (
	csrfLifetime         = 12 * time.Hour
	limiterSweepInterval = time.Minute
)

// NewServer builds the echo instance serving every route. trusted may be
// nil, in which case forwarded client addresses are never honoured.
func NewServer(h *Handler, trusted *turnstile.TrustedProxies, logger zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Renderer = h.renderer
	e.IPExtractor = turnstile.ClientIPExtractor(trusted, h.cfg.Turnstile.ProxyHeader)

	// Middleware
	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(requestLogger(logger))
	e.Use(flash.Middleware())
	e.Use(auth.LoadIdentity(h.codec, h.users))

	h.RegisterRoutes(e)
	return e
}

// requestLogger attaches a request scoped logger to the request context
// and logs every completed request
func requestLogger(base zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()
			log := base.With().
				Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Str("remote_ip", c.RealIP()).
				Logger()
			c.SetRequest(req.WithContext(logutil.WithLogger(req.Context(), log)))

			if err := next(c); err != nil {
				c.Error(err)
			}

			status := c.Response().Status
			ev := log.Info()
			if status >= http.StatusInternalServerError {
				ev = log.Error()
			}
			ev.Int("status", status).Dur("latency", time.Since(start)).Msg("Request handled")
			return nil
		}
	}
}
