package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"blog-backend/internal/logutil"
)

// TLSFiles names a certificate and key; the zero value serves plain HTTP
type TLSFiles struct {
	CertFile string
	KeyFile  string
}

func (t TLSFiles) enabled() bool {
	return t.CertFile != "" && t.KeyFile != ""
}

// Serve runs handler on bind until ctx is done, then shuts down gracefully
func Serve(ctx context.Context, bind string, handler http.Handler, tlsFiles TLSFiles) error {
	server := http.Server{
		Handler:           handler,
		Addr:              bind,
		ReadTimeout:       time.Second * 30,
		WriteTimeout:      time.Minute,
		ReadHeaderTimeout: time.Second * 10,
		IdleTimeout:       time.Minute * 5,
	}
	err := make(chan error, 1)
	done := make(chan struct{})
	go serveInBackground(ctx, &server, tlsFiles, err, done)
	<-done
	return <-err
}

func serveInBackground(ctx context.Context, server *http.Server, tlsFiles TLSFiles, firstErr chan<- error, done chan<- struct{}) {
	log := logutil.GetOrDefault(ctx).With().Str("server.addr", server.Addr).Bool("server.tls", tlsFiles.enabled()).Logger()
	defer close(done)
	serverCtx, cancel := context.WithCancel(ctx)
	go func() {
		defer cancel()
		defer close(firstErr)
		log.Info().Msg("Starting HTTP server")
		var err error
		if tlsFiles.enabled() {
			err = server.ListenAndServeTLS(tlsFiles.CertFile, tlsFiles.KeyFile)
		} else {
			err = server.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			log.Info().Msg("Server closed")
			// shutdown called,
			// ignore the error
			return
		} else if err != nil {
			select {
			case firstErr <- err:
			default:
			}
			return
		}
	}()
	select {
	case <-serverCtx.Done():
	case <-ctx.Done():
		log.Info().Msg("Initiating shutdown process")
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), time.Second*30)
		defer cancelShutdown()
		server.Shutdown(shutdownCtx)
		log.Info().Msg("Shutdown completed")
	}
}
