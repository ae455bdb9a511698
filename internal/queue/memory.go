package queue

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-process TaskStore used by tests and embedded callers.
type MemoryStore struct {
	mu    sync.RWMutex
	tasks map[string]Task
}

// NewMemoryStore returns an empty in-memory task store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tasks: make(map[string]Task)}
}

func (m *MemoryStore) Create(_ context.Context, task *Task) error {
	if task == nil {
		return errors.New("task is nil")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.tasks[task.ID]; exists {
		return errors.New("task already exists: " + task.ID)
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
	m.tasks[task.ID] = *task
	return nil
}

func (m *MemoryStore) GetByID(_ context.Context, id string) (*Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	task, ok := m.tasks[id]
	if !ok {
		return nil, nil
	}
	cp := task
	return &cp, nil
}

func (m *MemoryStore) Update(_ context.Context, task *Task) error {
	if task == nil {
		return errors.New("task is nil")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tasks[task.ID]; !ok {
		return errors.New("task not found: " + task.ID)
	}
	task.UpdatedAt = time.Now().UTC()
	m.tasks[task.ID] = *task
	return nil
}

func (m *MemoryStore) List(_ context.Context, statuses ...Status) ([]*Task, error) {
	wanted := make(map[Status]struct{}, len(statuses))
	for _, status := range statuses {
		wanted[status] = struct{}{}
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	var tasks []*Task
	for _, task := range m.tasks {
		if len(wanted) > 0 {
			if _, ok := wanted[task.Status]; !ok {
				continue
			}
		}
		cp := task
		tasks = append(tasks, &cp)
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].CreatedAt.Before(tasks[j].CreatedAt) })
	return tasks, nil
}

func (m *MemoryStore) NextPending(ctx context.Context) (*Task, error) {
	pending, err := m.List(ctx, StatusPending)
	if err != nil || len(pending) == 0 {
		return nil, err
	}
	return pending[0], nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tasks[id]; !ok {
		return false, nil
	}
	delete(m.tasks, id)
	return true, nil
}
