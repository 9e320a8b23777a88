package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/studentgroup/core"
	"github.com/trezcool/studentgroup/core/task"
)

// tasksChannel matches the pg_notify channel raised by the tasks table trigger.
const tasksChannel = "tasks_changed"

type taskRepository struct {
	db  *sqlx.DB
	dsn string
	log core.Logger
}

var (
	_ task.Repository = (*taskRepository)(nil) // interface compliance check
	_ task.Watcher    = (*taskRepository)(nil)
)

func NewTaskRepository(db *sqlx.DB, dsn string, log core.Logger) task.Repository {
	return &taskRepository{db: db, dsn: dsn, log: log}
}

func (repo *taskRepository) CreateTask(ctx context.Context, t task.Task) (task.Task, error) {
	q := `
	INSERT INTO tasks (id, title, description, subject, teacher_id, teacher_name, deadline, status, created_at)
	VALUES (:id, :title, :description, :subject, :teacher_id, :teacher_name, :deadline, :status, :created_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, t); err != nil {
		return task.Task{}, errors.Wrap(err, "creating task")
	}
	return t, nil
}

func (repo *taskRepository) GetTask(ctx context.Context, id string) (task.Task, error) {
	var t task.Task
	if err := repo.db.GetContext(ctx, &t, `SELECT * FROM tasks WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return task.Task{}, task.ErrNotFound
		}
		return task.Task{}, errors.Wrap(err, "getting task")
	}
	return t, nil
}

func (repo *taskRepository) QueryAllTasks(ctx context.Context) ([]task.Task, error) {
	var tasks []task.Task
	if err := repo.db.SelectContext(ctx, &tasks, `SELECT * FROM tasks`); err != nil {
		return nil, errors.Wrap(err, "querying tasks")
	}
	return tasks, nil
}

func (repo *taskRepository) UpdateTaskStatus(ctx context.Context, id string, status task.Status) error {
	res, err := repo.db.ExecContext(ctx, `UPDATE tasks SET status = $2 WHERE id = $1`, id, string(status))
	if err != nil {
		return errors.Wrap(err, "updating task status")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return task.ErrNotFound
	}
	return nil
}

func (repo *taskRepository) DeleteTask(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting task")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return task.ErrNotFound
	}
	return nil
}

// WatchTasks re-queries the full collection whenever the tasks table raises a
// notification, coalescing bursts behind a single LISTEN connection.
func (repo *taskRepository) WatchTasks(ctx context.Context) (<-chan []task.Task, error) {
	listener := pq.NewListener(repo.dsn, 10*time.Second, time.Minute, func(_ pq.ListenerEventType, err error) {
		if err != nil {
			repo.log.Error("task: listener event", err)
		}
	})
	if err := listener.Listen(tasksChannel); err != nil {
		_ = listener.Close()
		return nil, errors.Wrap(err, "listening on "+tasksChannel)
	}

	ch := make(chan []task.Task, 1)
	go func() {
		defer close(ch)
		defer func() { _ = listener.Close() }()

		// initial snapshot
		if !repo.push(ctx, ch) {
			return
		}
		for {
			select {
			case <-ctx.Done():
				return
			case <-listener.Notify:
				if !repo.push(ctx, ch) {
					return
				}
			case <-time.After(90 * time.Second):
				// keep the connection honest during quiet periods
				if err := listener.Ping(); err != nil {
					repo.log.Error("task: listener ping", err)
					return
				}
			}
		}
	}()
	return ch, nil
}

func (repo *taskRepository) push(ctx context.Context, ch chan<- []task.Task) bool {
	tasks, err := repo.QueryAllTasks(ctx)
	if err != nil {
		repo.log.Error("task: refreshing watch snapshot", err)
		return ctx.Err() == nil
	}
	select {
	case ch <- tasks:
		return true
	case <-ctx.Done():
		return false
	}
}
