package handler

import (
	"errors"
	"io"
	"net/http"
	"net/url"

	"taskboard/internal/model"
	"taskboard/internal/repository"
	"taskboard/internal/taskform"

	"github.com/gin-gonic/gin"
)

const (
	actionSave       = "save"
	actionClearImage = "clear-image"
)

// taskFormRequest is the posted form. A nil field was not posted and leaves
// the form's value alone; validation is done by taskform.
type taskFormRequest struct {
	Heading     *string `form:"heading"`
	Description *string `form:"description"`
	Date        *string `form:"date"`
	Time        *string `form:"time"`
	Priority    *string `form:"priority"`
	Action      string  `form:"action"`
}

func (r taskFormRequest) apply(form *taskform.Form) {
	fields := []struct {
		name  string
		value *string
	}{
		{taskform.FieldHeading, r.Heading},
		{taskform.FieldDescription, r.Description},
		{taskform.FieldDate, r.Date},
		{taskform.FieldTime, r.Time},
		{taskform.FieldPriority, r.Priority},
	}
	for _, f := range fields {
		if f.value != nil {
			form.SetField(f.name, *f.value)
		}
	}
}

func formAction(mode taskform.Mode, id string) string {
	if mode == taskform.ModeEdit {
		return "/create/" + url.PathEscape(id)
	}
	return "/create"
}

func (h *TaskHandler) newForm(sess *Session, mode taskform.Mode, id string) *taskform.Form {
	return taskform.New(mode, id, h.repo, sess.Notifier(), nil, h.log)
}

// NewForm opens a blank create form.
func (h *TaskHandler) NewForm(c *gin.Context) {
	sess := h.sessions.Acquire(c)
	defer h.sessions.Release(sess)

	sess.Form = h.newForm(sess, taskform.ModeCreate, "")
	h.renderForm(c, sess, http.StatusOK)
}

// EditForm opens the form for an existing task and loads it from the backend.
func (h *TaskHandler) EditForm(c *gin.Context) {
	sess := h.sessions.Acquire(c)
	defer h.sessions.Release(sess)

	sess.Form = h.newForm(sess, taskform.ModeEdit, c.Param("taskId"))

	status := http.StatusOK
	if err := sess.Form.Load(c.Request.Context()); err != nil {
		_ = c.Error(err)
		status = http.StatusBadGateway
		if errors.Is(err, repository.ErrTaskNotFound) {
			status = http.StatusNotFound
		}
	}
	h.renderForm(c, sess, status)
}

func (h *TaskHandler) SubmitCreate(c *gin.Context) {
	h.submit(c, taskform.ModeCreate, "")
}

func (h *TaskHandler) SubmitEdit(c *gin.Context) {
	h.submit(c, taskform.ModeEdit, c.Param("taskId"))
}

// submit applies the posted fields to the session's form, then either
// clears the stored image or submits to the backend.
func (h *TaskHandler) submit(c *gin.Context, mode taskform.Mode, id string) {
	sess := h.sessions.Acquire(c)
	defer h.sessions.Release(sess)

	if sess.Form == nil || !sess.Form.Matches(mode, id) {
		// the form was never opened in this session (expired or restarted)
		sess.Form = h.newForm(sess, mode, id)
		if err := sess.Form.Load(c.Request.Context()); err != nil {
			_ = c.Error(err)
		}
	}
	form := sess.Form

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload)
	if err := c.Request.ParseMultipartForm(h.maxUpload); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		_ = c.Error(err)
		status := http.StatusBadRequest
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		c.String(status, http.StatusText(status))
		return
	}

	var req taskFormRequest
	if err := c.ShouldBind(&req); err != nil {
		_ = c.Error(err)
		c.String(http.StatusBadRequest, "Invalid request")
		return
	}
	req.apply(form)

	if fh, err := c.FormFile(taskform.FieldImage); err == nil && fh.Size > 0 {
		f, err := fh.Open()
		if err != nil {
			_ = c.Error(err)
			c.String(http.StatusBadRequest, "unreadable image upload")
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			_ = c.Error(err)
			c.String(http.StatusBadRequest, "unreadable image upload")
			return
		}
		form.SelectImage(fh.Filename, fh.Header.Get("Content-Type"), data)
	}

	if req.Action == actionClearImage {
		form.ClearImage()
		h.renderForm(c, sess, http.StatusOK)
		return
	}

	nav := &redirect{}
	form.SetNavigator(nav)
	defer form.SetNavigator(nil)

	err := form.Submit(c.Request.Context())
	switch {
	case err == nil:
		target := nav.path
		if target == "" {
			target = taskform.ListRoute
		}
		c.Redirect(http.StatusSeeOther, target)
	case errors.Is(err, taskform.ErrInvalid):
		h.renderForm(c, sess, http.StatusUnprocessableEntity)
	default:
		_ = c.Error(err)
		h.renderForm(c, sess, http.StatusBadGateway)
	}
}

func (h *TaskHandler) renderForm(c *gin.Context, sess *Session, status int) {
	snap := sess.Form.Snapshot()
	c.HTML(status, "form.html", formPage{
		Title:      snap.Title(),
		Toasts:     h.flash.Drain(sess.ID),
		Form:       snap,
		Action:     formAction(snap.Mode, snap.TaskID),
		Priorities: model.Priorities,
	})
}
