// Package tasklist holds the state and workflow of the task list page:
// server-side filtering, refresh after deletion and the confirm-to-delete flow.
package tasklist

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"taskboard/internal/apiclient"
	"taskboard/internal/model"
	"taskboard/internal/notify"

	"github.com/sirupsen/logrus"
)

var ErrNoPendingDelete = errors.New("no delete is pending confirmation")

type Repository interface {
	List(ctx context.Context, filter model.Filter) ([]model.Task, error)
	Delete(ctx context.Context, id string) (*apiclient.Response, error)
}

type Navigator interface {
	Navigate(path string)
}

// ListRoute is the list page.
const ListRoute = "/"

// EditRoute is the form route for editing the task with id.
func EditRoute(id string) string {
	return "/create/" + url.PathEscape(id)
}

// DeleteState is either Idle or ConfirmingDelete.
type DeleteState interface {
	isDeleteState()
}

type Idle struct{}

// ConfirmingDelete means the modal is open for the task ID.
type ConfirmingDelete struct {
	ID string
}

func (Idle) isDeleteState()             {}
func (ConfirmingDelete) isDeleteState() {}

type List struct {
	mu sync.Mutex

	filter  model.Filter
	tasks   []model.Task
	deleteS DeleteState

	// fetchSeq identifies the latest fetch; older responses are dropped.
	fetchSeq    uint64
	cancelFetch context.CancelFunc

	repo     Repository
	notifier notify.Sink
	nav      Navigator
	log      logrus.FieldLogger
}

func New(repo Repository, notifier notify.Sink, nav Navigator, log logrus.FieldLogger) *List {
	return &List{
		filter:   model.DefaultFilter(),
		tasks:    []model.Task{},
		deleteS:  Idle{},
		repo:     repo,
		notifier: notifier,
		nav:      nav,
		log:      log.WithField("component", "tasklist"),
	}
}

func (l *List) SetNotifier(n notify.Sink) {
	l.mu.Lock()
	l.notifier = n
	l.mu.Unlock()
}

func (l *List) SetNavigator(nav Navigator) {
	l.mu.Lock()
	l.nav = nav
	l.mu.Unlock()
}

// Mount applies filter and fetches once, as when the page is opened.
func (l *List) Mount(ctx context.Context, filter model.Filter) error {
	l.mu.Lock()
	if filter.Order == "" {
		filter.Order = model.OrderAsc
	}
	l.filter = filter
	l.mu.Unlock()
	return l.Refresh(ctx)
}

// SetPriority changes the priority filter and re-fetches. An unset priority
// shows every task.
func (l *List) SetPriority(ctx context.Context, p model.Priority) error {
	l.mu.Lock()
	l.filter.Priority = p
	l.mu.Unlock()
	return l.Refresh(ctx)
}

func (l *List) SetOrder(ctx context.Context, o model.Order) error {
	l.mu.Lock()
	if o == "" {
		o = model.OrderAsc
	}
	l.filter.Order = o
	l.mu.Unlock()
	return l.Refresh(ctx)
}

// Refresh fetches the collection under the current filter. On success the
// displayed tasks are replaced; on failure the previous ones stay visible.
// Starting a fetch cancels the one still in flight.
func (l *List) Refresh(ctx context.Context) error {
	l.mu.Lock()
	if l.cancelFetch != nil {
		l.cancelFetch()
	}
	ctx, cancel := context.WithCancel(ctx)
	l.fetchSeq++
	seq := l.fetchSeq
	l.cancelFetch = cancel
	filter := l.filter
	l.mu.Unlock()

	defer cancel()

	tasks, err := l.repo.List(ctx, filter)

	l.mu.Lock()
	defer l.mu.Unlock()

	if seq != l.fetchSeq {
		l.log.WithField("seq", seq).Debug("dropping superseded task list response")
		return nil
	}
	l.cancelFetch = nil

	if err != nil {
		l.log.WithError(err).Error("Error fetching task data")
		return fmt.Errorf("fetch tasks: %w", err)
	}
	l.tasks = tasks
	return nil
}

// Edit sends the user to the form for the task.
func (l *List) Edit(id string) {
	l.mu.Lock()
	nav := l.nav
	l.mu.Unlock()
	if nav != nil {
		nav.Navigate(EditRoute(id))
	}
}

// RequestDelete opens the confirmation for id without contacting the
// backend. A pending request for another task is replaced.
func (l *List) RequestDelete(id string) {
	l.mu.Lock()
	l.deleteS = ConfirmingDelete{ID: id}
	l.mu.Unlock()
}

func (l *List) CancelDelete() {
	l.mu.Lock()
	l.deleteS = Idle{}
	l.mu.Unlock()
}

// ConfirmDelete deletes the pending task. After a 200 the confirmation is
// closed and the list is fetched again; there is no local removal. On
// failure the confirmation stays open so the user can retry or cancel.
func (l *List) ConfirmDelete(ctx context.Context) error {
	l.mu.Lock()
	pending, ok := l.deleteS.(ConfirmingDelete)
	l.mu.Unlock()
	if !ok {
		return ErrNoPendingDelete
	}

	resp, err := l.repo.Delete(ctx, pending.ID)
	if err == nil && resp.StatusCode != http.StatusOK {
		err = fmt.Errorf("unexpected status %s", resp.Status)
	}
	if err != nil {
		l.log.WithError(err).WithField("task_id", pending.ID).Error("Error while deleting task")
		l.notify(notify.Error, "Error deleting task")
		return fmt.Errorf("delete task %s: %w", pending.ID, err)
	}

	l.notify(notify.Success, "Deleted successfully")

	l.mu.Lock()
	// only close the confirmation that was just carried out
	if cur, ok := l.deleteS.(ConfirmingDelete); ok && cur.ID == pending.ID {
		l.deleteS = Idle{}
	}
	l.mu.Unlock()

	// a failed refresh keeps the stale rows and is already logged
	_ = l.Refresh(ctx)
	return nil
}

func (l *List) notify(kind notify.Kind, msg string) {
	l.mu.Lock()
	n := l.notifier
	l.mu.Unlock()
	if n != nil {
		n.Notify(kind, msg)
	}
}

type Snapshot struct {
	Filter      model.Filter
	Tasks       []model.Task
	DeleteState DeleteState
}

// PendingDeleteID returns the id awaiting confirmation, if any.
func (s Snapshot) PendingDeleteID() (string, bool) {
	c, ok := s.DeleteState.(ConfirmingDelete)
	return c.ID, ok
}

func (l *List) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()

	tasks := make([]model.Task, len(l.tasks))
	copy(tasks, l.tasks)
	return Snapshot{
		Filter:      l.filter,
		Tasks:       tasks,
		DeleteState: l.deleteS,
	}
}
