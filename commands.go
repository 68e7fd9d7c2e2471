package main

import (
	"context"
	"fmt"
	"net"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"blog-backend/internal/api"
	"blog-backend/internal/auth"
	"blog-backend/internal/certs"
	"blog-backend/internal/config"
	"blog-backend/internal/database"
	"blog-backend/internal/httpserver"
	"blog-backend/internal/logutil"
	"blog-backend/internal/turnstile"
)

func serveCmd() *cli.Command {
	return &cli.Command{
		Name:   "serve",
		Usage:  "Start the blog web server (default command)",
		Action: serve,
	}
}

func initDBCmd() *cli.Command {
	return &cli.Command{
		Name:  "init-db",
		Usage: "Create or upgrade the database schema and exit",
		Action: func(c *cli.Context) error {
			ctx, _, db, err := setup(c)
			if err != nil {
				return err
			}
			defer db.Close()
			logger := logutil.GetOrDefault(ctx)
			logger.Info().Msg("Initialized the database")
			return nil
		},
	}
}

func rotateSecretCmd() *cli.Command {
	return &cli.Command{
		Name:  "rotate-secret",
		Usage: "Replace the stored session secret, signing every user out",
		Action: func(c *cli.Context) error {
			ctx, cfg, db, err := setup(c)
			if err != nil {
				return err
			}
			defer db.Close()

			secret, err := auth.NewSecret()
			if err != nil {
				return err
			}
			if err := database.NewSettingsRepo(db).Set(ctx, database.SettingSessionSecret, secret); err != nil {
				return fmt.Errorf("store session secret: %w", err)
			}

			log := logutil.GetOrDefault(ctx)
			if cfg.Session.SecretKey != "" {
				log.Warn().Msg("session.secret_key is configured and still overrides the stored secret")
			}
			log.Info().Msg("Session secret rotated, existing sessions are no longer valid")
			return nil
		},
	}
}

// setup loads configuration, installs the process logger and opens the
// database, applying pending migrations
func setup(c *cli.Context) (context.Context, *config.Config, *sqlx.DB, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, nil, nil, err
	}

	logger := logutil.New(cfg.Log.Level, cfg.Log.Pretty)
	log.Logger = logger
	ctx := logutil.WithLogger(c.Context, logger)

	driver, _ := database.ParseDSN(cfg.Database.DSN)
	logger.Info().Str("driver", driver).Msg("Opening database")
	db, err := database.Open(ctx, cfg.Database.DSN)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return ctx, cfg, db, nil
}

func serve(c *cli.Context) error {
	ctx, cfg, db, err := setup(c)
	if err != nil {
		return err
	}
	defer db.Close()
	log := logutil.GetOrDefault(ctx)

	secret, err := auth.LoadOrCreateSecret(ctx, database.NewSettingsRepo(db), cfg.Session.SecretKey)
	if err != nil {
		return err
	}

	trusted, err := turnstile.LoadTrustedProxies(cfg.Turnstile)
	if err != nil {
		return fmt.Errorf("failed to load trusted proxies: %w", err)
	}
	log.Info().Int("ranges", trusted.Len()).Str("header", cfg.Turnstile.ProxyHeader).Msg("Trusted proxy ranges loaded")

	if cfg.TestMode {
		log.Warn().Msg("Test mode enabled, challenge verification is skipped")
	}

	h, err := api.New(api.Options{
		Config:   cfg,
		DB:       db,
		Secret:   secret,
		Verifier: turnstile.NewVerifier(cfg.Turnstile),
		Limiter:  auth.NewRateLimiter(cfg.RateLimit.Attempts, cfg.RateLimit.Window, cfg.RateLimit.BlockTime),
	})
	if err != nil {
		return err
	}
	go h.RunBackground(ctx)

	var tlsFiles httpserver.TLSFiles
	if cfg.TLS.Enabled {
		host, _, _ := net.SplitHostPort(cfg.Listen)
		certFile, keyFile, err := certs.EnsureCertificates(cfg.TLS.CertDir, host)
		if err != nil {
			return err
		}
		tlsFiles = httpserver.TLSFiles{CertFile: certFile, KeyFile: keyFile}
	}

	return httpserver.Serve(ctx, cfg.Listen, api.NewServer(h, trusted, log), tlsFiles)
}
