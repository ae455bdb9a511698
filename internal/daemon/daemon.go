// Package daemon hosts the long-running process: instance locking, startup
// dependency checks, the HTTP API server, and graceful shutdown.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"podforge/internal/config"
	"podforge/internal/logging"
	"podforge/internal/queue"
	"podforge/internal/workflow"
)

const shutdownGrace = 10 * time.Second

// Daemon ties the queue, workflow manager, and API server together.
type Daemon struct {
	cfg     *config.Config
	store   queue.TaskStore
	manager *workflow.Manager
	logger  *slog.Logger

	lock   *flock.Flock
	server *http.Server
}

// New constructs a Daemon.
func New(cfg *config.Config, store queue.TaskStore, manager *workflow.Manager, logger *slog.Logger) *Daemon {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Daemon{cfg: cfg, store: store, manager: manager, logger: logger}
}

// CheckDependencies verifies the external tools the pipeline shells out to
// are on PATH before any task is accepted.
func CheckDependencies(cfg *config.Config) error {
	for _, binary := range []string{cfg.FFmpegBinary(), cfg.FFprobeBinary()} {
		if _, err := exec.LookPath(binary); err != nil {
			return fmt.Errorf("required tool %q not found on PATH: %w", binary, err)
		}
	}
	return nil
}

// Run starts the daemon and blocks until ctx is cancelled or the server
// fails. Only one daemon may run per log directory; the instance lock
// guards the shared queue database.
func (d *Daemon) Run(ctx context.Context) error {
	lockPath := filepath.Join(d.cfg.Paths.LogDir, "podforged.lock")
	d.lock = flock.New(lockPath)
	locked, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire instance lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("another daemon already holds %s", lockPath)
	}
	defer d.lock.Unlock()

	if err := d.manager.Start(ctx); err != nil {
		return err
	}
	defer d.manager.Stop()

	api := NewAPI(d.cfg, d.store, d.logger)
	d.server = &http.Server{
		Addr:              d.cfg.Paths.APIBind,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	serverErr := make(chan error, 1)
	go func() {
		d.logger.Info("api listening", logging.String("bind", d.cfg.Paths.APIBind))
		serverErr <- d.server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		d.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := d.server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	case err := <-serverErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
