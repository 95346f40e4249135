// Command api serves the VoteHub PH REST API.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/votehubph/backend/internal/config"
	"github.com/votehubph/backend/internal/logger"
	"github.com/votehubph/backend/internal/server"
)

func main() {
	l := logger.Setup()

	cfg, err := config.Load()
	if err != nil {
		l.Error("config_error", "err", err)
		os.Exit(1)
	}

	srv, cleanup, err := server.NewServer(cfg)
	if err != nil {
		l.Error("server_init_error", "err", err)
		os.Exit(1)
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		l.Info("server_listen", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		if err != nil {
			l.Error("server_error", "err", err)
			return
		}
	case <-ctx.Done():
	}

	l.Info("server_shutdown_begin")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		l.Error("server_shutdown_error", "err", err)
		return
	}
	l.Info("server_shutdown_ok")
}
