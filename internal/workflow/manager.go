package workflow

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"podforge/internal/config"
	"podforge/internal/logging"
	"podforge/internal/queue"
	"podforge/internal/services"
)

// TaskRunner executes one claimed task to completion.
type TaskRunner interface {
	Run(ctx context.Context, task *queue.Task) error
}

// Notifier receives terminal task transitions. Implementations must treat
// delivery as best-effort.
type Notifier interface {
	TaskCompleted(ctx context.Context, task *queue.Task)
	TaskFailed(ctx context.Context, task *queue.Task)
}

// StuckResetter recovers tasks left in processing by a crashed daemon.
type StuckResetter interface {
	ResetStuckProcessing(ctx context.Context) (int64, error)
}

var titleCaser = cases.Title(language.English)

// StatusLabel renders a status for human-facing messages.
func StatusLabel(status queue.Status) string {
	return titleCaser.String(string(status))
}

// Manager owns the daemon's task loop: it claims pending tasks one at a time
// and drives each through the runner. One task runs at a time; concurrency
// lives inside the pipeline stages, not across tasks.
type Manager struct {
	cfg      *config.Config
	store    queue.TaskStore
	runner   TaskRunner
	notifier Notifier
	logger   *slog.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	started bool
}

// NewManager wires a Manager. notifier may be nil.
func NewManager(cfg *config.Config, store queue.TaskStore, runner TaskRunner, notifier Notifier, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Manager{
		cfg:      cfg,
		store:    store,
		runner:   runner,
		notifier: notifier,
		logger:   logger,
	}
}

// Start launches the polling loop. Tasks stuck in processing from a previous
// daemon run are failed first so the queue never wedges on a phantom claim.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started {
		return nil
	}

	if resetter, ok := m.store.(StuckResetter); ok {
		reset, err := resetter.ResetStuckProcessing(ctx)
		if err != nil {
			return err
		}
		if reset > 0 {
			m.logger.Warn("reset stuck processing tasks", logging.Int64("count", reset))
		}
	}

	loopCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.done = make(chan struct{})
	m.started = true
	go m.loop(loopCtx)
	return nil
}

// Stop cancels the loop and waits for the in-flight task to finish.
func (m *Manager) Stop() {
	m.mu.Lock()
	cancel, done := m.cancel, m.done
	m.started = false
	m.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (m *Manager) loop(ctx context.Context) {
	defer close(m.done)

	pollInterval := time.Duration(m.cfg.Workflow.QueuePollInterval) * time.Second
	if pollInterval <= 0 {
		pollInterval = 2 * time.Second
	}
	errorInterval := time.Duration(m.cfg.Workflow.ErrorRetryInterval) * time.Second
	if errorInterval <= 0 {
		errorInterval = 10 * time.Second
	}

	for {
		interval := pollInterval
		if err := m.processNext(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			m.logger.Error("queue poll failed", logging.Error(err))
			interval = errorInterval
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(interval):
		}
	}
}

// processNext claims and runs at most one pending task. A nil return with no
// claim simply means the queue was empty.
func (m *Manager) processNext(ctx context.Context) error {
	task, err := m.store.NextPending(ctx)
	if err != nil {
		return err
	}
	if task == nil {
		return nil
	}

	task.Status = queue.StatusProcessing
	task.SetProgress(0, "Claimed by daemon")
	if err := m.store.Update(ctx, task); err != nil {
		return err
	}

	logger := m.logger.With(
		logging.String(logging.FieldTaskID, task.ID),
		logging.String(logging.FieldScriptID, task.ScriptID))
	logger.Info("task started")

	if runErr := m.runner.Run(ctx, task); runErr != nil {
		task.SetFailed(services.Message(runErr))
		if err := m.store.Update(ctx, task); err != nil {
			logger.Error("failed to persist failure", logging.Error(err))
		}
		logger.Error("task failed", logging.Error(runErr))
		if m.notifier != nil {
			m.notifier.TaskFailed(ctx, task)
		}
		return nil
	}

	logger.Info("task finished", logging.String("status", StatusLabel(task.Status)))
	if m.notifier != nil {
		m.notifier.TaskCompleted(ctx, task)
	}
	return nil
}
