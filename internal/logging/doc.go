// Package logging builds the process-wide slog logger and provides attribute
// helpers plus context plumbing for task/stage fields.
package logging
