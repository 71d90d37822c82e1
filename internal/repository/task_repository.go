package repository

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"taskboard/internal/apiclient"
	"taskboard/internal/model"
)

// Backend is the subset of the HTTP adapter the repository needs.
type Backend interface {
	Get(ctx context.Context, path string) (*apiclient.Response, error)
	PostForm(ctx context.Context, path string, form *apiclient.Form) (*apiclient.Response, error)
	PutForm(ctx context.Context, path string, form *apiclient.Form) (*apiclient.Response, error)
	Delete(ctx context.Context, path string) (*apiclient.Response, error)
}

// TaskInput is the writable part of a task as submitted by the form.
type TaskInput struct {
	Heading     string
	Description string
	Date        string
	Time        string
	Priority    model.Priority
	Image       model.Image
}

// Form builds the multipart payload. Text fields are always present; the
// image is attached only when a new file was chosen, so an update without
// one keeps the stored image.
func (in TaskInput) Form() *apiclient.Form {
	form := apiclient.NewForm().
		Add("heading", in.Heading).
		Add("description", in.Description).
		Add("date", in.Date).
		Add("time", in.Time).
		Add("priority", string(in.Priority))

	if file, ok := in.Image.(model.NewFile); ok {
		form.AddFile("image", file.Filename, file.ContentType, file.Data)
	}
	return form
}

type envelope[T any] struct {
	Data T `json:"data"`
}

type TaskRepository struct {
	backend Backend
}

func NewTaskRepository(backend Backend) *TaskRepository {
	return &TaskRepository{backend: backend}
}

const tasksPath = "/tasks"

func taskPath(id string) string {
	return tasksPath + "/" + url.PathEscape(id)
}

// List retrieves the collection filtered and ordered by the backend
func (r *TaskRepository) List(ctx context.Context, filter model.Filter) ([]model.Task, error) {
	resp, err := r.backend.Get(ctx, tasksPath+"?"+filter.Query().Encode())
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("list tasks: unexpected status %s", resp.Status)
	}

	var body envelope[[]model.Task]
	if err := resp.DecodeJSON(&body); err != nil {
		return nil, err
	}
	if body.Data == nil {
		return []model.Task{}, nil
	}
	return body.Data, nil
}

// GetByID retrieves a task by its ID
func (r *TaskRepository) GetByID(ctx context.Context, id string) (*model.Task, error) {
	if id == "" {
		return nil, ErrEmptyID
	}
	resp, err := r.backend.Get(ctx, taskPath(id))
	if err != nil {
		if apiclient.StatusCode(err) == http.StatusNotFound {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("get task %s: unexpected status %s", id, resp.Status)
	}

	var body envelope[*model.Task]
	if err := resp.DecodeJSON(&body); err != nil {
		return nil, err
	}
	if body.Data == nil {
		return nil, ErrTaskNotFound
	}
	return body.Data, nil
}

// Create sends a new task. The raw response is returned so the caller can
// decide what counts as success.
func (r *TaskRepository) Create(ctx context.Context, in TaskInput) (*apiclient.Response, error) {
	return r.backend.PostForm(ctx, tasksPath, in.Form())
}

// Update replaces every writable field of an existing task
func (r *TaskRepository) Update(ctx context.Context, id string, in TaskInput) (*apiclient.Response, error) {
	if id == "" {
		return nil, ErrEmptyID
	}
	resp, err := r.backend.PutForm(ctx, taskPath(id), in.Form())
	return resp, notFound(err)
}

// Delete removes a task by its ID
func (r *TaskRepository) Delete(ctx context.Context, id string) (*apiclient.Response, error) {
	if id == "" {
		return nil, ErrEmptyID
	}
	resp, err := r.backend.Delete(ctx, taskPath(id))
	return resp, notFound(err)
}

func notFound(err error) error {
	if err != nil && apiclient.StatusCode(err) == http.StatusNotFound {
		return errors.Join(ErrTaskNotFound, err)
	}
	return err
}
