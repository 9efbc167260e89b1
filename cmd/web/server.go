package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/myrjola/trainingplan/internal/e2etest"
	"golang.org/x/sync/errgroup"
)

const (
	// requestTimeout covers a plan generation waiting on a slow calendar.
	requestTimeout  = 10 * time.Second
	shutdownTimeout = 2 * time.Second
)

// serve listens on addr and serves handler until ctx is done, then drains open requests for up to shutdownTimeout.
func (app *application) serve(ctx context.Context, addr string, handler http.Handler) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("TCP listen: %w", err)
	}
	srv := &http.Server{
		ErrorLog:          slog.NewLogLogger(app.logger.Handler(), slog.LevelError),
		Handler:           handler,
		IdleTimeout:       time.Minute,
		ReadTimeout:       requestTimeout,
		WriteTimeout:      requestTimeout + time.Second,
		ReadHeaderTimeout: time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		app.logger.LogAttrs(ctx, slog.LevelInfo, "starting server",
			slog.String(e2etest.LogAddrKey, listener.Addr().String()))
		if serveErr := srv.Serve(listener); !errors.Is(serveErr, http.ErrServerClosed) {
			return fmt.Errorf("server serve: %w", serveErr)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		app.logger.LogAttrs(stopCtx, slog.LevelInfo, "shutting down server")
		if shutdownErr := srv.Shutdown(stopCtx); shutdownErr != nil {
			return fmt.Errorf("shutdown server: %w", shutdownErr)
		}
		return nil
	})
	if err = g.Wait(); err != nil {
		return err //nolint:wrapcheck // wrapped in the goroutines.
	}
	return nil
}
