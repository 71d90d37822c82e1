package handler

import (
	"context"
	"errors"
	"net/http"

	"taskboard/internal/apiclient"
	"taskboard/internal/model"
	"taskboard/internal/notify"
	"taskboard/internal/repository"
	"taskboard/internal/tasklist"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// TaskRepository is the backend access both pages need.
type TaskRepository interface {
	List(ctx context.Context, filter model.Filter) ([]model.Task, error)
	GetByID(ctx context.Context, id string) (*model.Task, error)
	Create(ctx context.Context, in repository.TaskInput) (*apiclient.Response, error)
	Update(ctx context.Context, id string, in repository.TaskInput) (*apiclient.Response, error)
	Delete(ctx context.Context, id string) (*apiclient.Response, error)
}

type TaskHandler struct {
	repo      TaskRepository
	sessions  *SessionStore
	flash     *notify.FlashStore
	maxUpload int64
	log       logrus.FieldLogger
}

func NewTaskHandler(repo TaskRepository, sessions *SessionStore, flash *notify.FlashStore, maxUpload int64, log logrus.FieldLogger) *TaskHandler {
	return &TaskHandler{
		repo:      repo,
		sessions:  sessions,
		flash:     flash,
		maxUpload: maxUpload,
		log:       log.WithField("component", "handler"),
	}
}

// filterFromQuery reads ?priority=&order=. Unknown values fall back to
// "all priorities" and ascending order.
func (h *TaskHandler) filterFromQuery(c *gin.Context) model.Filter {
	f := model.DefaultFilter()

	p, err := model.ParsePriority(c.Query("priority"))
	if err != nil {
		h.log.WithError(err).Warn("ignoring priority filter")
	} else {
		f.Priority = p
	}

	o, err := model.ParseOrder(c.Query("order"))
	if err != nil {
		h.log.WithError(err).Warn("ignoring order filter")
	} else {
		f.Order = o
	}
	return f
}

// List renders the task list page. Opening the page fetches the collection
// once under the filter in the query string, unless it follows the redirect
// of a delete confirmation or cancel under the same filter.
func (h *TaskHandler) List(c *gin.Context) {
	sess := h.sessions.Acquire(c)
	defer h.sessions.Release(sess)

	filter := h.filterFromQuery(c)
	if !sess.reuseList || sess.List.Snapshot().Filter != filter {
		// a failed fetch keeps the rows already shown
		_ = sess.List.Mount(c.Request.Context(), filter)
	}

	h.renderList(c, sess, http.StatusOK)
}

// Edit navigates from a list row to its edit form.
func (h *TaskHandler) Edit(c *gin.Context) {
	sess := h.sessions.Acquire(c)
	defer h.sessions.Release(sess)

	nav := &redirect{}
	sess.List.SetNavigator(nav)
	defer sess.List.SetNavigator(nil)

	sess.List.Edit(c.Param("id"))
	c.Redirect(http.StatusSeeOther, nav.path)
}

// RequestDelete opens the confirmation for a row. Nothing is sent to the backend.
func (h *TaskHandler) RequestDelete(c *gin.Context) {
	sess := h.sessions.Acquire(c)
	defer h.sessions.Release(sess)

	sess.List.RequestDelete(c.Param("id"))
	h.renderList(c, sess, http.StatusOK)
}

// ConfirmDelete deletes the pending task and redirects back to the list.
// Failures re-render the list with the confirmation still open.
func (h *TaskHandler) ConfirmDelete(c *gin.Context) {
	sess := h.sessions.Acquire(c)
	defer h.sessions.Release(sess)

	if err := sess.List.ConfirmDelete(c.Request.Context()); err != nil {
		_ = c.Error(err)
		status := http.StatusBadGateway
		if errors.Is(err, tasklist.ErrNoPendingDelete) {
			status = http.StatusConflict
		}
		h.renderList(c, sess, status)
		return
	}
	h.redirectToList(c, sess)
}

func (h *TaskHandler) CancelDelete(c *gin.Context) {
	sess := h.sessions.Acquire(c)
	defer h.sessions.Release(sess)

	sess.List.CancelDelete()
	h.redirectToList(c, sess)
}

// redirectToList answers a list action with a 303 to the list under the
// current filter. The list already holds what that page would fetch.
func (h *TaskHandler) redirectToList(c *gin.Context, sess *Session) {
	sess.listFresh = true
	c.Redirect(http.StatusSeeOther, listURL(sess.List.Snapshot().Filter))
}

func listURL(f model.Filter) string {
	return tasklist.ListRoute + queryString(f)
}

func queryString(f model.Filter) string {
	q := f.Query().Encode()
	if q == "" {
		return ""
	}
	return "?" + q
}

func (h *TaskHandler) renderList(c *gin.Context, sess *Session, status int) {
	snap := sess.List.Snapshot()
	pendingID, modal := snap.PendingDeleteID()

	c.HTML(status, "list.html", listPage{
		Title:      "All Task List",
		Toasts:     h.flash.Drain(sess.ID),
		Filter:     snap.Filter,
		Priorities: model.Priorities,
		Tasks:      snap.Tasks,
		ModalOpen:  modal,
		PendingID:  pendingID,
		Query:      queryString(snap.Filter),
	})
}

// Health reports liveness of the web client itself.
func (h *TaskHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
