package queue

import "context"

// TaskStore is the persistence contract the pipeline driver and daemon
// consume. The SQLite Store is the default implementation; tests substitute
// the in-memory one.
type TaskStore interface {
	Create(ctx context.Context, task *Task) error
	GetByID(ctx context.Context, id string) (*Task, error)
	Update(ctx context.Context, task *Task) error
	List(ctx context.Context, statuses ...Status) ([]*Task, error)
	NextPending(ctx context.Context) (*Task, error)
	Delete(ctx context.Context, id string) (bool, error)
}
