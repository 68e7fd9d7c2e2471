package api

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"blog-backend/internal/auth"
	"blog-backend/internal/config"
	"blog-backend/internal/database"
	"blog-backend/internal/turnstile"
)

// Options carries everything the HTTP layer needs. All of it is built once
// at startup and shared read-only between requests, except the rate limiter
// which guards its own state.
type Options struct {
	Config   *config.Config
	DB       *sqlx.DB
	Secret   []byte
	Verifier *turnstile.Verifier
	Limiter  *auth.RateLimiter
}

// Handler holds the dependencies of every route
type Handler struct {
	cfg      *config.Config
	db       *sqlx.DB
	users    *database.UserRepo
	posts    *database.PostRepo
	audit    *AuditLogger
	authSvc  *auth.Service
	codec    *auth.SessionCodec
	csrf     *auth.CSRFProtection
	gate     auth.Gate
	verifier *turnstile.Verifier
	limiter  *auth.RateLimiter
	renderer *Renderer
}

// New wires repositories and auth helpers around opts
func New(opts Options) (*Handler, error) {
	if opts.Config == nil || opts.DB == nil {
		return nil, errors.New("config and database are required")
	}
	if opts.Verifier == nil {
		opts.Verifier = turnstile.NewVerifier(opts.Config.Turnstile)
	}
	if opts.Limiter == nil {
		rl := opts.Config.RateLimit
		opts.Limiter = auth.NewRateLimiter(rl.Attempts, rl.Window, rl.BlockTime)
	}

	codec, err := auth.NewSessionCodec(opts.Secret, auth.SessionOptions{
		CookieName: opts.Config.Session.CookieName,
		Lifetime:   opts.Config.Session.Lifetime,
		Secure:     opts.Config.Session.Secure,
	})
	if err != nil {
		return nil, fmt.Errorf("session codec: %w", err)
	}

	renderer, err := NewRenderer()
	if err != nil {
		return nil, fmt.Errorf("templates: %w", err)
	}

	users := database.NewUserRepo(opts.DB)
	return &Handler{
		cfg:      opts.Config,
		db:       opts.DB,
		users:    users,
		posts:    database.NewPostRepo(opts.DB),
		audit:    NewAuditLogger(database.NewAuditRepo(opts.DB)),
		authSvc:  auth.NewService(users),
		codec:    codec,
		csrf:     auth.NewCSRFProtection(opts.Secret, csrfLifetime),
		gate:     auth.Gate{AdminID: opts.Config.AdminID},
		verifier: opts.Verifier,
		limiter:  opts.Limiter,
		renderer: renderer,
	}, nil
}

// RunBackground starts maintenance loops owned by the handler. It returns
// when ctx is done.
func (h *Handler) RunBackground(ctx context.Context) {
	h.limiter.Run(ctx, limiterSweepInterval)
}
