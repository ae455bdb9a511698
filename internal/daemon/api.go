package daemon

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"podforge/internal/config"
	"podforge/internal/logging"
	"podforge/internal/queue"
)

// API serves the task submission and artifact retrieval endpoints.
type API struct {
	cfg    *config.Config
	store  queue.TaskStore
	logger *slog.Logger
}

// NewAPI constructs the HTTP API.
func NewAPI(cfg *config.Config, store queue.TaskStore, logger *slog.Logger) *API {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &API{cfg: cfg, store: store, logger: logger}
}

// Handler returns the routed handler for the API.
func (a *API) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", a.handleHealth)
	mux.HandleFunc("POST /api/v1/videos", a.handleCreateVideo)
	mux.HandleFunc("GET /api/v1/videos/{id}", a.handleGetVideo)
	mux.HandleFunc("GET /api/v1/videos/{id}/download", a.handleVideoArtifact(".mp4", "attachment"))
	mux.HandleFunc("GET /api/v1/videos/{id}/subtitle", a.handleVideoArtifact(".srt", "attachment"))
	mux.HandleFunc("GET /api/v1/download", a.handleFileByName("attachment"))
	mux.HandleFunc("GET /api/v1/preview", a.handleFileByName("inline"))
	mux.HandleFunc("DELETE /api/v1/files/{filename}", a.handleDeleteFile)
	return mux
}

type createVideoRequest struct {
	ScriptID            string `json:"script_id"`
	VideoFormat         string `json:"video_format"`
	SkipImageGeneration bool   `json:"skip_image_generation"`
	MaxLines            int    `json:"max_lines"`
	BurnSubtitles       bool   `json:"burn_subtitles"`
}

type taskResponse struct {
	TaskID       string  `json:"task_id"`
	ScriptID     string  `json:"script_id"`
	Status       string  `json:"status"`
	Progress     float64 `json:"progress"`
	Message      string  `json:"message,omitempty"`
	ErrorMessage string  `json:"error_message,omitempty"`
	VideoPath    string  `json:"video_path,omitempty"`
	SubtitlePath string  `json:"subtitle_path,omitempty"`
	VideoURL     string  `json:"video_url,omitempty"`
	SubtitleURL  string  `json:"subtitle_url,omitempty"`
	CreatedAt    string  `json:"created_at"`
	UpdatedAt    string  `json:"updated_at"`
}

func (a *API) toTaskResponse(task *queue.Task) taskResponse {
	resp := taskResponse{
		TaskID:       task.ID,
		ScriptID:     task.ScriptID,
		Status:       string(task.Status),
		Progress:     task.Progress,
		Message:      task.Message,
		ErrorMessage: task.ErrorMessage,
		VideoPath:    task.VideoPath,
		SubtitlePath: task.SubtitlePath,
		CreatedAt:    task.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:    task.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if task.Status == queue.StatusCompleted {
		base := strings.TrimRight(strings.TrimSpace(a.cfg.Paths.AppBaseURL), "/")
		if base != "" {
			resp.VideoURL = fmt.Sprintf("%s/api/v1/videos/%s/download", base, task.ID)
			resp.SubtitleURL = fmt.Sprintf("%s/api/v1/videos/%s/subtitle", base, task.ID)
		}
	}
	return resp
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *API) handleCreateVideo(w http.ResponseWriter, r *http.Request) {
	var req createVideoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	req.ScriptID = strings.TrimSpace(req.ScriptID)
	if req.ScriptID == "" {
		writeError(w, http.StatusBadRequest, "script_id is required")
		return
	}
	if req.MaxLines < 0 {
		writeError(w, http.StatusBadRequest, "max_lines must not be negative")
		return
	}

	now := time.Now().UTC()
	task := &queue.Task{
		ID:                  uuid.NewString(),
		ScriptID:            req.ScriptID,
		Status:              queue.StatusPending,
		Message:             "Queued",
		Format:              queue.ParseFormat(req.VideoFormat),
		SkipImageGeneration: req.SkipImageGeneration,
		MaxLines:            req.MaxLines,
		BurnSubtitles:       req.BurnSubtitles,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err := a.store.Create(r.Context(), task); err != nil {
		a.logger.Error("task creation failed", logging.Error(err))
		writeError(w, http.StatusInternalServerError, "could not enqueue task")
		return
	}
	a.logger.Info("task enqueued",
		logging.String(logging.FieldTaskID, task.ID),
		logging.String(logging.FieldScriptID, task.ScriptID))
	writeJSON(w, http.StatusAccepted, map[string]string{
		"task_id": task.ID,
		"message": "Video generation queued",
	})
}

func (a *API) handleGetVideo(w http.ResponseWriter, r *http.Request) {
	task, ok := a.lookupTask(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, a.toTaskResponse(task))
}

// handleVideoArtifact serves a task's output artifact by task ID. The file
// on disk is always named <task-id><ext> in the output directory.
func (a *API) handleVideoArtifact(ext, disposition string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		task, ok := a.lookupTask(w, r)
		if !ok {
			return
		}
		if task.Status != queue.StatusCompleted {
			writeError(w, http.StatusConflict, "task has no artifacts yet")
			return
		}
		a.serveOutputFile(w, r, task.ID+ext, disposition)
	}
}

func (a *API) handleFileByName(disposition string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filename := r.URL.Query().Get("file")
		if !validFilename(filename) {
			writeError(w, http.StatusBadRequest, "invalid file name")
			return
		}
		a.serveOutputFile(w, r, filename, disposition)
	}
}

func (a *API) handleDeleteFile(w http.ResponseWriter, r *http.Request) {
	filename := r.PathValue("filename")
	if !validFilename(filename) {
		writeError(w, http.StatusBadRequest, "invalid file name")
		return
	}
	videoPath := filepath.Join(a.cfg.Paths.OutputDir, filename)
	if err := os.Remove(videoPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			writeError(w, http.StatusNotFound, "file not found")
			return
		}
		a.logger.Error("file deletion failed", logging.Error(err))
		writeError(w, http.StatusInternalServerError, "could not delete file")
		return
	}
	// The sidecar subtitle shares the video's stem; remove it too if present.
	stem := strings.TrimSuffix(filename, filepath.Ext(filename))
	removedSubtitle := false
	if err := os.Remove(filepath.Join(a.cfg.Paths.OutputDir, stem+".srt")); err == nil {
		removedSubtitle = true
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"deleted":          filename,
		"subtitle_deleted": removedSubtitle,
	})
}

func (a *API) lookupTask(w http.ResponseWriter, r *http.Request) (*queue.Task, bool) {
	id := r.PathValue("id")
	task, err := a.store.GetByID(r.Context(), id)
	if err != nil {
		a.logger.Error("task lookup failed", logging.Error(err))
		writeError(w, http.StatusInternalServerError, "task lookup failed")
		return nil, false
	}
	if task == nil {
		writeError(w, http.StatusNotFound, "task not found")
		return nil, false
	}
	return task, true
}

func (a *API) serveOutputFile(w http.ResponseWriter, r *http.Request, filename, disposition string) {
	path := filepath.Join(a.cfg.Paths.OutputDir, filename)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		writeError(w, http.StatusNotFound, "file not found")
		return
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf("%s; filename=%q", disposition, filename))
	http.ServeFile(w, r, path)
}

// validFilename rejects anything that could escape the output directory.
func validFilename(name string) bool {
	if name == "" {
		return false
	}
	if strings.Contains(name, "..") || strings.Contains(name, "/") || strings.Contains(name, "\\") {
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
