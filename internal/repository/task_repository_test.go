package repository_test

import (
	"context"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"testing"

	"taskboard/internal/apiclient"
	"taskboard/internal/model"
	"taskboard/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockBackend struct {
	mock.Mock
}

func (m *MockBackend) Get(ctx context.Context, path string) (*apiclient.Response, error) {
	args := m.Called(ctx, path)
	return response(args.Get(0)), args.Error(1)
}

func (m *MockBackend) PostForm(ctx context.Context, path string, form *apiclient.Form) (*apiclient.Response, error) {
	args := m.Called(ctx, path, form)
	return response(args.Get(0)), args.Error(1)
}

func (m *MockBackend) PutForm(ctx context.Context, path string, form *apiclient.Form) (*apiclient.Response, error) {
	args := m.Called(ctx, path, form)
	return response(args.Get(0)), args.Error(1)
}

func (m *MockBackend) Delete(ctx context.Context, path string) (*apiclient.Response, error) {
	args := m.Called(ctx, path)
	return response(args.Get(0)), args.Error(1)
}

func response(v any) *apiclient.Response {
	if v == nil {
		return nil
	}
	return v.(*apiclient.Response)
}

func ok(body string) *apiclient.Response {
	return &apiclient.Response{StatusCode: http.StatusOK, Status: "200 OK", Body: []byte(body)}
}

func TestTaskRepository_List(t *testing.T) {
	// Arrange
	backend := new(MockBackend)
	repo := repository.NewTaskRepository(backend)
	backend.On("Get", mock.Anything, "/tasks?order=DESC&priority=High").
		Return(ok(`{"data":[{"id":"1","heading":"A","priority":"High"}]}`), nil)

	// Act
	tasks, err := repo.List(context.Background(), model.Filter{Priority: model.PriorityHigh, Order: model.OrderDesc})

	// Assert
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "1", tasks[0].ID)
	assert.Equal(t, model.PriorityHigh, tasks[0].Priority)
	backend.AssertExpectations(t)
}

func TestTaskRepository_List_NumericIDs(t *testing.T) {
	// Arrange
	backend := new(MockBackend)
	repo := repository.NewTaskRepository(backend)
	backend.On("Get", mock.Anything, "/tasks?order=ASC").
		Return(ok(`{"data":[{"id":1,"heading":"A","priority":"High"},{"id":2,"heading":"B","priority":"Low"}]}`), nil)

	// Act
	tasks, err := repo.List(context.Background(), model.DefaultFilter())

	// Assert
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, "1", tasks[0].ID)
	assert.Equal(t, "A", tasks[0].Heading)
	assert.Equal(t, "2", tasks[1].ID)
	backend.AssertExpectations(t)
}

func TestTaskRepository_List_NullData(t *testing.T) {
	backend := new(MockBackend)
	repo := repository.NewTaskRepository(backend)
	backend.On("Get", mock.Anything, "/tasks?order=ASC").Return(ok(`{"data":null}`), nil)

	tasks, err := repo.List(context.Background(), model.DefaultFilter())

	require.NoError(t, err)
	assert.NotNil(t, tasks)
	assert.Empty(t, tasks)
}

func TestTaskRepository_List_Error(t *testing.T) {
	backend := new(MockBackend)
	repo := repository.NewTaskRepository(backend)
	backend.On("Get", mock.Anything, "/tasks?order=ASC").Return(nil, assert.AnError)

	tasks, err := repo.List(context.Background(), model.DefaultFilter())

	assert.ErrorIs(t, err, assert.AnError)
	assert.Nil(t, tasks)
}

func TestTaskRepository_GetByID_Found(t *testing.T) {
	backend := new(MockBackend)
	repo := repository.NewTaskRepository(backend)
	backend.On("Get", mock.Anything, "/tasks/abc").
		Return(ok(`{"data":{"_id":"abc","heading":"H","image":"http://img/a.png"}}`), nil)

	task, err := repo.GetByID(context.Background(), "abc")

	require.NoError(t, err)
	assert.Equal(t, "abc", task.ID)
	assert.Equal(t, "http://img/a.png", task.Image)
}

func TestTaskRepository_GetByID_NotFound(t *testing.T) {
	backend := new(MockBackend)
	repo := repository.NewTaskRepository(backend)
	notFound := &apiclient.Response{StatusCode: http.StatusNotFound, Status: "404 Not Found"}
	backend.On("Get", mock.Anything, "/tasks/missing").
		Return(notFound, &apiclient.StatusError{StatusCode: http.StatusNotFound, Status: "404 Not Found"})

	task, err := repo.GetByID(context.Background(), "missing")

	assert.ErrorIs(t, err, repository.ErrTaskNotFound)
	assert.Nil(t, task)
}

func TestTaskRepository_EmptyIDNeverCallsBackend(t *testing.T) {
	backend := new(MockBackend)
	repo := repository.NewTaskRepository(backend)

	_, err := repo.GetByID(context.Background(), "")
	assert.ErrorIs(t, err, repository.ErrEmptyID)

	_, err = repo.Update(context.Background(), "", repository.TaskInput{})
	assert.ErrorIs(t, err, repository.ErrEmptyID)

	_, err = repo.Delete(context.Background(), "")
	assert.ErrorIs(t, err, repository.ErrEmptyID)

	backend.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
	backend.AssertNotCalled(t, "PutForm", mock.Anything, mock.Anything, mock.Anything)
	backend.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestTaskRepository_Create(t *testing.T) {
	backend := new(MockBackend)
	repo := repository.NewTaskRepository(backend)
	backend.On("PostForm", mock.Anything, "/tasks", mock.AnythingOfType("*apiclient.Form")).Return(ok(`{}`), nil)

	resp, err := repo.Create(context.Background(), repository.TaskInput{Heading: "H"})

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	backend.AssertExpectations(t)
}

func TestTaskRepository_Delete_NotFound(t *testing.T) {
	backend := new(MockBackend)
	repo := repository.NewTaskRepository(backend)
	backend.On("Delete", mock.Anything, "/tasks/7").
		Return(&apiclient.Response{StatusCode: http.StatusNotFound}, &apiclient.StatusError{StatusCode: http.StatusNotFound})

	_, err := repo.Delete(context.Background(), "7")

	assert.ErrorIs(t, err, repository.ErrTaskNotFound)
	var se *apiclient.StatusError
	assert.True(t, errors.As(err, &se))
}

func readParts(t *testing.T, form *apiclient.Form) (map[string]string, map[string]string) {
	body, contentType, err := form.Encode()
	require.NoError(t, err)

	_, params, err := mime.ParseMediaType(contentType)
	require.NoError(t, err)

	fields := map[string]string{}
	files := map[string]string{}
	mr := multipart.NewReader(body, params["boundary"])
	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		data, _ := io.ReadAll(p)
		if p.FileName() != "" {
			files[p.FormName()] = p.FileName() + ":" + string(data)
		} else {
			fields[p.FormName()] = string(data)
		}
	}
	return fields, files
}

func TestTaskInput_Form_IncludesNewFileOnly(t *testing.T) {
	in := repository.TaskInput{
		Heading:     "H",
		Description: "D",
		Date:        "2024-06-01",
		Time:        "09:30",
		Priority:    model.PriorityMedium,
		Image:       model.NewFile{Filename: "a.png", ContentType: "image/png", Data: []byte("A")},
	}

	fields, files := readParts(t, in.Form())

	assert.Equal(t, map[string]string{
		"heading":     "H",
		"description": "D",
		"date":        "2024-06-01",
		"time":        "09:30",
		"priority":    "medium",
	}, fields)
	assert.Equal(t, "a.png:A", files["image"])
}

func TestTaskInput_Form_ExistingURLIsNotSent(t *testing.T) {
	in := repository.TaskInput{Heading: "H", Image: model.ExistingURL("http://img/old.png")}

	form := in.Form()
	fields, files := readParts(t, form)

	assert.False(t, form.Has("image"))
	assert.Empty(t, files)
	assert.NotContains(t, fields, "image")
}
