package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"podforge/internal/config"
)

// Store manages task persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the task database and applies the schema.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := filepath.Join(cfg.Paths.LogDir, "tasks.db")
	return OpenPath(dbPath)
}

// OpenPath opens a task database at an explicit location.
func OpenPath(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.applySchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) applySchema(ctx context.Context) error {
	const schema = `CREATE TABLE IF NOT EXISTS tasks (
        id TEXT PRIMARY KEY,
        script_id TEXT NOT NULL,
        status TEXT NOT NULL,
        progress REAL NOT NULL DEFAULT 0,
        message TEXT,
        error_message TEXT,
        video_path TEXT,
        subtitle_path TEXT,
        video_format TEXT NOT NULL DEFAULT 'horizontal',
        skip_image_generation INTEGER NOT NULL DEFAULT 0,
        max_lines INTEGER NOT NULL DEFAULT 0,
        burn_subtitles INTEGER NOT NULL DEFAULT 0,
        created_at TEXT NOT NULL,
        updated_at TEXT NOT NULL
    );
    CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status, created_at);`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Create inserts a new task record.
func (s *Store) Create(ctx context.Context, task *Task) error {
	if task == nil {
		return errors.New("task is nil")
	}
	now := time.Now().UTC()
	task.CreatedAt = now
	task.UpdatedAt = now
	if task.Status == "" {
		task.Status = StatusPending
	}
	if task.Format == "" {
		task.Format = FormatHorizontal
	}

	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO tasks (
            id, script_id, status, progress, message, error_message,
            video_path, subtitle_path, video_format, skip_image_generation,
            max_lines, burn_subtitles, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		task.ID,
		task.ScriptID,
		task.Status,
		task.Progress,
		nullableString(task.Message),
		nullableString(task.ErrorMessage),
		nullableString(task.VideoPath),
		nullableString(task.SubtitlePath),
		string(task.Format),
		boolToInt(task.SkipImageGeneration),
		task.MaxLines,
		boolToInt(task.BurnSubtitles),
		now.Format(time.RFC3339Nano),
		now.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

// GetByID fetches a task by identifier, returning nil when absent.
func (s *Store) GetByID(ctx context.Context, id string) (*Task, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	task, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return task, nil
}

// Update persists changes to an existing task.
func (s *Store) Update(ctx context.Context, task *Task) error {
	if task == nil {
		return errors.New("task is nil")
	}
	task.UpdatedAt = time.Now().UTC()
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE tasks
         SET script_id = ?, status = ?, progress = ?, message = ?, error_message = ?,
             video_path = ?, subtitle_path = ?, video_format = ?,
             skip_image_generation = ?, max_lines = ?, burn_subtitles = ?, updated_at = ?
         WHERE id = ?`,
		task.ScriptID,
		task.Status,
		task.Progress,
		nullableString(task.Message),
		nullableString(task.ErrorMessage),
		nullableString(task.VideoPath),
		nullableString(task.SubtitlePath),
		string(task.Format),
		boolToInt(task.SkipImageGeneration),
		task.MaxLines,
		boolToInt(task.BurnSubtitles),
		task.UpdatedAt.Format(time.RFC3339Nano),
		task.ID,
	)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	return nil
}

// List returns tasks filtered by status set (or all tasks when no status is provided).
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Task, error) {
	baseQuery := `SELECT ` + taskColumns + ` FROM tasks`
	orderClause := ` ORDER BY created_at`

	var (
		rows *sql.Rows
		err  error
	)
	if len(statuses) == 0 {
		rows, err = s.db.QueryContext(ctx, baseQuery+orderClause)
	} else {
		placeholders := makePlaceholders(len(statuses))
		args := make([]any, len(statuses))
		for i, status := range statuses {
			args[i] = status
		}
		rows, err = s.db.QueryContext(ctx, baseQuery+` WHERE status IN (`+placeholders+`)`+orderClause, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

// NextPending returns the oldest pending task, or nil when the queue is drained.
func (s *Store) NextPending(ctx context.Context) (*Task, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE status = ? ORDER BY created_at LIMIT 1`,
		StatusPending,
	)
	task, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return task, nil
}

// ResetStuckProcessing fails tasks left in processing by a previous daemon
// run. Runs are atomic and non-resumable, so an interrupted run cannot be
// continued; it is surfaced as a failure instead of silently restarted.
func (s *Store) ResetStuckProcessing(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE tasks
         SET status = ?, error_message = 'Interrupted by daemon restart', progress = 0, updated_at = ?
         WHERE status = ?`,
		StatusFailed,
		time.Now().UTC().Format(time.RFC3339Nano),
		StatusProcessing,
	)
	if err != nil {
		return 0, fmt.Errorf("reset stuck tasks: %w", err)
	}
	return res.RowsAffected()
}

// Delete removes a task by identifier.
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete task: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// Stats returns a count of tasks grouped by status.
func (s *Store) Stats(ctx context.Context) (map[Status]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM tasks GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("task stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[Status]int)
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

const taskColumns = "id, script_id, status, progress, message, error_message, video_path, subtitle_path, video_format, skip_image_generation, max_lines, burn_subtitles, created_at, updated_at"

func scanTask(scanner interface{ Scan(dest ...any) error }) (*Task, error) {
	var (
		id         string
		scriptID   string
		statusStr  string
		progress   float64
		message    sql.NullString
		errMessage sql.NullString
		videoPath  sql.NullString
		subPath    sql.NullString
		formatStr  string
		skipImages sql.NullInt64
		maxLines   int
		burnSubs   sql.NullInt64
		createdRaw string
		updatedRaw string
	)

	if err := scanner.Scan(
		&id,
		&scriptID,
		&statusStr,
		&progress,
		&message,
		&errMessage,
		&videoPath,
		&subPath,
		&formatStr,
		&skipImages,
		&maxLines,
		&burnSubs,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	task := &Task{
		ID:           id,
		ScriptID:     scriptID,
		Status:       Status(statusStr),
		Progress:     progress,
		Message:      message.String,
		ErrorMessage: errMessage.String,
		VideoPath:    videoPath.String,
		SubtitlePath: subPath.String,
		Format:       ParseFormat(formatStr),
		MaxLines:     maxLines,
	}
	if skipImages.Valid {
		task.SkipImageGeneration = skipImages.Int64 != 0
	}
	if burnSubs.Valid {
		task.BurnSubtitles = burnSubs.Int64 != 0
	}
	if created, err := time.Parse(time.RFC3339Nano, createdRaw); err == nil {
		task.CreatedAt = created
	}
	if updated, err := time.Parse(time.RFC3339Nano, updatedRaw); err == nil {
		task.UpdatedAt = updated
	}
	return task, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
