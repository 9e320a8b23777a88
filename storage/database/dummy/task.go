package dummydb

import (
	"context"

	"github.com/trezcool/studentgroup/core/task"
)

type taskRepository struct {
	db *taskTable
}

var (
	_ task.Repository = (*taskRepository)(nil) // interface compliance check
	_ task.Watcher    = (*taskRepository)(nil)
)

func NewTaskRepository(db *DB) task.Repository {
	return &taskRepository{db: db.task}
}

func (repo *taskRepository) query() []task.Task {
	tasks := make([]task.Task, 0, len(repo.db.table))
	for _, t := range repo.db.table {
		tasks = append(tasks, *t)
	}
	return tasks
}

func (repo *taskRepository) CreateTask(_ context.Context, t task.Task) (task.Task, error) {
	repo.db.Lock()
	repo.db.table[t.ID] = &t
	repo.db.Unlock()

	repo.notify()
	return t, nil
}

func (repo *taskRepository) GetTask(_ context.Context, id string) (task.Task, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if t, ok := repo.db.table[id]; ok {
		return *t, nil
	}
	return task.Task{}, task.ErrNotFound
}

func (repo *taskRepository) QueryAllTasks(context.Context) ([]task.Task, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return repo.query(), nil
}

func (repo *taskRepository) UpdateTaskStatus(_ context.Context, id string, status task.Status) error {
	repo.db.Lock()
	t, ok := repo.db.table[id]
	if !ok {
		repo.db.Unlock()
		return task.ErrNotFound
	}
	t.Status = status
	repo.db.Unlock()

	repo.notify()
	return nil
}

func (repo *taskRepository) DeleteTask(_ context.Context, id string) error {
	repo.db.Lock()
	if _, ok := repo.db.table[id]; !ok {
		repo.db.Unlock()
		return task.ErrNotFound
	}
	delete(repo.db.table, id)
	repo.db.Unlock()

	repo.notify()
	return nil
}

// WatchTasks pushes the full collection on subscribe and after every mutation.
// A slow subscriber only misses intermediate snapshots, never the latest one.
func (repo *taskRepository) WatchTasks(ctx context.Context) (<-chan []task.Task, error) {
	ch := make(chan []task.Task, 1)

	repo.db.Lock()
	repo.db.watchers[ch] = struct{}{}
	ch <- repo.query() // initial snapshot; buffered, cannot block
	repo.db.Unlock()

	go func() {
		<-ctx.Done()
		repo.db.Lock()
		delete(repo.db.watchers, ch)
		repo.db.Unlock()
		close(ch)
	}()
	return ch, nil
}

func (repo *taskRepository) notify() {
	repo.db.Lock()
	defer repo.db.Unlock()

	tasks := repo.query()
	for ch := range repo.db.watchers {
		// replace a pending stale snapshot instead of blocking
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- tasks:
		default:
		}
	}
}
