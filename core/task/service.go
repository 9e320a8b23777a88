package task

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/studentgroup/core"
)

var (
	NowFunc = time.Now // mockable

	// errors
	ErrNotFound         = errors.New("task not found")
	ErrWatchUnsupported = errors.New("task store does not support change notifications")
)

type (
	Repository interface {
		CreateTask(ctx context.Context, t Task) (Task, error)
		GetTask(ctx context.Context, id string) (Task, error)
		QueryAllTasks(ctx context.Context) ([]Task, error)
		UpdateTaskStatus(ctx context.Context, id string, status Status) error
		DeleteTask(ctx context.Context, id string) error
	}

	// Watcher is an optional Repository capability: a store that can push the
	// full task collection whenever it changes.
	Watcher interface {
		WatchTasks(ctx context.Context) (<-chan []Task, error)
	}

	Service interface {
		// List returns all tasks newest-first, expiring overdue ones on the way.
		List(ctx context.Context) ([]Task, error)
		Create(ctx context.Context, nt NewTask, teacherID, teacherName string) (Task, error)
		Complete(ctx context.Context, id string) (Task, error)
		Delete(ctx context.Context, id string) error
		// Watch re-emits store change notifications with the same sweep and
		// ordering List applies. The subscription ends when ctx is done.
		Watch(ctx context.Context) (<-chan []Task, error)
	}

	service struct {
		repo Repository
		log  core.Logger
	}
)

func NewService(repo Repository, log core.Logger) Service {
	return &service{repo: repo, log: log}
}

func (svc *service) List(ctx context.Context) ([]Task, error) {
	tasks, err := svc.repo.QueryAllTasks(ctx)
	if err != nil {
		return nil, err
	}
	return svc.sweep(ctx, tasks), nil
}

// sweep transitions overdue active tasks to expired and persists the
// transition before presenting the list. Re-observing an already-expired task
// writes nothing, so running the sweep twice is the same as running it once.
func (svc *service) sweep(ctx context.Context, tasks []Task) []Task {
	now := EpochMillis(NowFunc())
	swept := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if t.expiredAt(now) {
			if err := svc.repo.UpdateTaskStatus(ctx, t.ID, StatusExpired); err != nil {
				// present the derived status regardless; the next observation retries
				svc.log.Error("task: persisting expiry", err, map[string]interface{}{"task": t.ID})
			}
			t.Status = StatusExpired
		}
		swept = append(swept, t)
	}
	sort.SliceStable(swept, func(i, j int) bool { return swept[i].CreatedAt > swept[j].CreatedAt })
	return swept
}

func (svc *service) Create(ctx context.Context, nt NewTask, teacherID, teacherName string) (Task, error) {
	t := Task{
		ID:          uuid.New().String(),
		Title:       nt.Title,
		Description: nt.Description,
		Subject:     nt.Subject,
		TeacherID:   teacherID,
		TeacherName: teacherName,
		Deadline:    nt.Deadline,
		Status:      StatusActive,
		CreatedAt:   EpochMillis(NowFunc()),
	}
	return svc.repo.CreateTask(ctx, t)
}

func (svc *service) Complete(ctx context.Context, id string) (Task, error) {
	t, err := svc.repo.GetTask(ctx, id)
	if err != nil {
		return Task{}, err
	}
	// expired is terminal
	if t.Status == StatusExpired {
		return t, nil
	}
	if err := svc.repo.UpdateTaskStatus(ctx, id, StatusCompleted); err != nil {
		return Task{}, err
	}
	t.Status = StatusCompleted
	return t, nil
}

func (svc *service) Delete(ctx context.Context, id string) error {
	return svc.repo.DeleteTask(ctx, id)
}

func (svc *service) Watch(ctx context.Context) (<-chan []Task, error) {
	watcher, ok := svc.repo.(Watcher)
	if !ok {
		return nil, ErrWatchUnsupported
	}
	in, err := watcher.WatchTasks(ctx)
	if err != nil {
		return nil, err
	}

	out := make(chan []Task)
	go func() {
		defer close(out)
		for tasks := range in {
			select {
			case out <- svc.sweep(ctx, tasks):
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
