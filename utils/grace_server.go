package utils

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

const (
	defaultReadTimeout  = 60 * time.Second
	defaultWriteTimeout = defaultReadTimeout
	shutdownTimeout     = 30 * time.Second
)

// GraceServer runs an HTTP server until SIGTERM/SIGINT, then drains in-flight
// requests and invokes onShutdown hooks (audit drain, connection close) before
// returning.
func GraceServer(addr string, handler http.Handler, onShutdown ...func()) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  defaultReadTimeout,
		WriteTimeout: defaultWriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		if Sugar != nil {
			Sugar.Infof("received %s, graceful shutting down HTTP server", sig)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := srv.Shutdown(ctx)
	for _, hook := range onShutdown {
		hook()
	}
	if err != nil {
		if Sugar != nil {
			Sugar.Errorf("HTTP server shutdown error: %v", err)
		}
		return err
	}
	if Sugar != nil {
		Sugar.Info("HTTP server shutdown success")
	}
	return nil
}
