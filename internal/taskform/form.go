// Package taskform holds the state and workflow of the task create/edit form.
package taskform

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"taskboard/internal/apiclient"
	"taskboard/internal/model"
	"taskboard/internal/notify"
	"taskboard/internal/repository"

	"github.com/sirupsen/logrus"
)

type Mode string

const (
	ModeCreate Mode = "create"
	ModeEdit   Mode = "edit"
)

// Field names as they appear in the payload and the error map.
const (
	FieldHeading     = "heading"
	FieldDescription = "description"
	FieldDate        = "date"
	FieldTime        = "time"
	FieldPriority    = "priority"
	FieldImage       = "image"
)

// ListRoute is where a successful submit navigates to.
const ListRoute = "/"

var (
	// ErrInvalid is returned by Submit when validation fails
	ErrInvalid = errors.New("task form is invalid")

	// ErrNotSaved is returned by Submit when the backend did not confirm the write
	ErrNotSaved = errors.New("task was not saved")
)

// Repository is what the form needs from the task repository.
type Repository interface {
	GetByID(ctx context.Context, id string) (*model.Task, error)
	Create(ctx context.Context, in repository.TaskInput) (*apiclient.Response, error)
	Update(ctx context.Context, id string, in repository.TaskInput) (*apiclient.Response, error)
}

type Navigator interface {
	Navigate(path string)
}

// Values are the editable fields. Priority is kept as entered so an invalid
// selection can be reported rather than silently replaced.
type Values struct {
	Heading     string
	Description string
	Date        string
	Time        string
	Priority    string
	Image       model.Image
}

func blankValues() Values {
	return Values{
		Priority: string(model.PriorityLow),
		Image:    model.NoImage{},
	}
}

type Form struct {
	mu sync.Mutex

	mode   Mode
	taskID string
	values Values
	errors map[string]string
	loaded bool

	repo     Repository
	notifier notify.Sink
	nav      Navigator
	log      logrus.FieldLogger
}

func New(mode Mode, taskID string, repo Repository, notifier notify.Sink, nav Navigator, log logrus.FieldLogger) *Form {
	if mode != ModeEdit {
		mode = ModeCreate
		taskID = ""
	}
	return &Form{
		mode:     mode,
		taskID:   taskID,
		values:   blankValues(),
		errors:   map[string]string{},
		repo:     repo,
		notifier: notifier,
		nav:      nav,
		log:      log.WithFields(logrus.Fields{"component": "taskform", "mode": mode, "task_id": taskID}),
	}
}

// SetNotifier and SetNavigator rebind the side-effect sinks. The web layer
// keeps one form per browser session across requests and rebinds them to
// the current request.
func (f *Form) SetNotifier(n notify.Sink) {
	f.mu.Lock()
	f.notifier = n
	f.mu.Unlock()
}

func (f *Form) SetNavigator(nav Navigator) {
	f.mu.Lock()
	f.nav = nav
	f.mu.Unlock()
}

func (f *Form) Mode() Mode     { return f.mode }
func (f *Form) TaskID() string { return f.taskID }

// Matches reports whether the form is the one for mode and taskID.
func (f *Form) Matches(mode Mode, taskID string) bool {
	if mode != ModeEdit {
		return f.mode == ModeCreate
	}
	return f.mode == ModeEdit && f.taskID == taskID
}

// Load fills the form from the stored task in edit mode. The stored image
// becomes an ExistingURL. A failed load is logged and leaves the form blank.
func (f *Form) Load(ctx context.Context) error {
	if f.mode != ModeEdit {
		return nil
	}

	task, err := f.repo.GetByID(ctx, f.taskID)
	if err != nil {
		f.log.WithError(err).Error("Error fetching task")
		return fmt.Errorf("load task %s: %w", f.taskID, err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.values = Values{
		Heading:     task.Heading,
		Description: task.Description,
		Date:        task.Date,
		Time:        task.Time,
		Priority:    string(task.Priority),
		Image:       model.ExistingURL(task.Image),
	}
	if task.Image == "" {
		f.values.Image = model.NoImage{}
	}
	f.errors = map[string]string{}
	f.loaded = true
	return nil
}

// Loaded reports whether Load has populated the form.
func (f *Form) Loaded() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loaded
}

// SetField overwrites a text or select field and clears its error.
// Unknown names are ignored.
func (f *Form) SetField(name, value string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch name {
	case FieldHeading:
		f.values.Heading = value
	case FieldDescription:
		f.values.Description = value
	case FieldDate:
		f.values.Date = value
	case FieldTime:
		f.values.Time = value
	case FieldPriority:
		f.values.Priority = value
	default:
		return
	}
	delete(f.errors, name)
}

// SelectImage replaces whatever image the form held with a new upload.
func (f *Form) SelectImage(filename, contentType string, data []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.values.Image = model.NewFile{Filename: filename, ContentType: contentType, Data: data}
	delete(f.errors, FieldImage)
}

// ClearImage drops a previously stored image so a new file must be chosen.
func (f *Form) ClearImage() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.values.Image.(model.ExistingURL); ok {
		f.values.Image = model.NoImage{}
	}
}

// Validate returns the per-field error map without storing it.
func (f *Form) Validate() map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return validate(f.values)
}

func validate(v Values) map[string]string {
	errs := map[string]string{}
	if v.Heading == "" {
		errs[FieldHeading] = "Heading is required"
	}
	if v.Description == "" {
		errs[FieldDescription] = "Description is required"
	}
	if v.Date == "" {
		errs[FieldDate] = "Date is required"
	}
	if v.Time == "" {
		errs[FieldTime] = "Time is required"
	}
	if v.Priority == "" {
		errs[FieldPriority] = "Priority is required"
	} else if _, err := model.ParsePriority(v.Priority); err != nil {
		errs[FieldPriority] = "Priority must be low, medium or high"
	}
	// An ExistingURL only survives in edit mode, so this covers both modes.
	if !model.HasImage(v.Image) {
		errs[FieldImage] = "Image is required"
	}
	return errs
}

// Submit validates and sends the form. Validation failures are stored on the
// form and make no request. On status 200 the form is reset and the user is
// sent back to the list; anything else keeps the entered values.
func (f *Form) Submit(ctx context.Context) error {
	f.mu.Lock()
	errs := validate(f.values)
	if len(errs) > 0 {
		f.errors = errs
		f.mu.Unlock()
		return ErrInvalid
	}
	f.errors = map[string]string{}
	priority, _ := model.ParsePriority(f.values.Priority)
	in := repository.TaskInput{
		Heading:     f.values.Heading,
		Description: f.values.Description,
		Date:        f.values.Date,
		Time:        f.values.Time,
		Priority:    priority,
		Image:       f.values.Image,
	}
	mode, id := f.mode, f.taskID
	f.mu.Unlock()

	var (
		resp *apiclient.Response
		err  error
	)
	if mode == ModeEdit {
		resp, err = f.repo.Update(ctx, id, in)
	} else {
		resp, err = f.repo.Create(ctx, in)
	}

	verb := "creating"
	if mode == ModeEdit {
		verb = "updating"
	}

	if err != nil {
		msg := fmt.Sprintf("Error %s task", verb)
		if resp != nil {
			msg = fmt.Sprintf("Error %s task: %s", verb, resp.Status)
		}
		f.log.WithError(err).Error(msg)
		f.notify(notify.Error, msg)
		return fmt.Errorf("%w: %w", ErrNotSaved, err)
	}

	if resp.StatusCode != http.StatusOK {
		msg := fmt.Sprintf("Error %s task: %s", verb, resp.Status)
		f.log.WithField("status", resp.StatusCode).Error(msg)
		f.notify(notify.Error, msg)
		return fmt.Errorf("%w: status %d", ErrNotSaved, resp.StatusCode)
	}

	f.mu.Lock()
	f.values = blankValues()
	f.errors = map[string]string{}
	nav := f.nav
	f.mu.Unlock()

	if mode == ModeEdit {
		f.notify(notify.Success, "Task updated")
	} else {
		f.notify(notify.Success, "Task created")
	}
	if nav != nil {
		nav.Navigate(ListRoute)
	}
	return nil
}

func (f *Form) notify(kind notify.Kind, msg string) {
	f.mu.Lock()
	n := f.notifier
	f.mu.Unlock()
	if n != nil {
		n.Notify(kind, msg)
	}
}

// Snapshot is a read-only copy of the form for rendering.
type Snapshot struct {
	Mode     Mode
	TaskID   string
	Values   Values
	Errors   map[string]string
	ImageURL string
	HasFile  bool
	FileName string
}

func (s Snapshot) Title() string {
	if s.Mode == ModeEdit {
		return "Edit Task"
	}
	return "Create Task"
}

func (s Snapshot) SubmitLabel() string {
	if s.Mode == ModeEdit {
		return "UPDATE"
	}
	return "SAVE"
}

func (f *Form) Snapshot() Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()

	errs := make(map[string]string, len(f.errors))
	for k, v := range f.errors {
		errs[k] = v
	}
	s := Snapshot{
		Mode:   f.mode,
		TaskID: f.taskID,
		Values: f.values,
		Errors: errs,
	}
	switch img := f.values.Image.(type) {
	case model.ExistingURL:
		s.ImageURL = string(img)
	case model.NewFile:
		s.HasFile = true
		s.FileName = img.Filename
	}
	return s
}
