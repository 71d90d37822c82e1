package apiclient_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"taskboard/internal/apiclient"
	"taskboard/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captured struct {
	method      string
	path        string
	contentType string
	requestID   string
	fields      map[string]string
	files       map[string]string
	body        string
}

func setupBackend(t *testing.T, status int) (*httptest.Server, *captured) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	got := &captured{}

	r.Any("/*path", func(c *gin.Context) {
		got.method = c.Request.Method
		got.path = c.Request.URL.RequestURI()
		got.contentType = c.GetHeader("Content-Type")
		got.requestID = c.GetHeader(logger.RequestIDHeader)

		if strings.HasPrefix(got.contentType, apiclient.ContentTypeMultipart) {
			form, err := c.MultipartForm()
			require.NoError(t, err)
			got.fields = map[string]string{}
			for k, v := range form.Value {
				got.fields[k] = v[0]
			}
			got.files = map[string]string{}
			for k, fhs := range form.File {
				f, err := fhs[0].Open()
				require.NoError(t, err)
				data, _ := io.ReadAll(f)
				f.Close()
				got.files[k] = fhs[0].Filename + ":" + string(data)
			}
		} else {
			data, _ := io.ReadAll(c.Request.Body)
			got.body = string(data)
		}

		c.JSON(status, gin.H{"data": []string{}})
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, got
}

func TestClient_Get(t *testing.T) {
	// Arrange
	srv, got := setupBackend(t, http.StatusOK)
	client := apiclient.New(srv.URL + "/api/")
	ctx := logger.ContextWithRequestID(context.Background(), "req-42")

	// Act
	resp, err := client.Get(ctx, "/tasks?order=ASC")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"data":[]}`, string(resp.Body))
	assert.Equal(t, http.MethodGet, got.method)
	assert.Equal(t, "/api/tasks?order=ASC", got.path)
	assert.Equal(t, apiclient.ContentTypeJSON, got.contentType)
	assert.Equal(t, "req-42", got.requestID)
}

func TestClient_PostJSON_And_PutJSON(t *testing.T) {
	srv, got := setupBackend(t, http.StatusOK)
	client := apiclient.New(srv.URL)

	_, err := client.PostJSON(context.Background(), "tasks", map[string]string{"heading": "a"})
	require.NoError(t, err)
	assert.Equal(t, http.MethodPost, got.method)
	assert.Equal(t, apiclient.ContentTypeJSON, got.contentType)
	assert.JSONEq(t, `{"heading":"a"}`, got.body)

	_, err = client.PutJSON(context.Background(), "/tasks/1", map[string]string{"heading": "b"})
	require.NoError(t, err)
	assert.Equal(t, http.MethodPut, got.method)
	assert.Equal(t, "/tasks/1", got.path)
	assert.JSONEq(t, `{"heading":"b"}`, got.body)
}

func TestClient_PostForm_SendsMultipart(t *testing.T) {
	srv, got := setupBackend(t, http.StatusOK)
	client := apiclient.New(srv.URL)

	form := apiclient.NewForm().
		Add("heading", "Write report").
		Add("priority", "high").
		AddFile("image", "cat.png", "image/png", []byte("PNG"))

	_, err := client.PostForm(context.Background(), "/tasks", form)

	require.NoError(t, err)
	assert.Equal(t, http.MethodPost, got.method)
	assert.True(t, strings.HasPrefix(got.contentType, "multipart/form-data; boundary="))
	assert.Equal(t, "Write report", got.fields["heading"])
	assert.Equal(t, "high", got.fields["priority"])
	assert.Equal(t, "cat.png:PNG", got.files["image"])
}

func TestClient_PutForm_WithoutFile(t *testing.T) {
	srv, got := setupBackend(t, http.StatusOK)
	client := apiclient.New(srv.URL)

	_, err := client.PutForm(context.Background(), "/tasks/9", apiclient.NewForm().Add("heading", "x"))

	require.NoError(t, err)
	assert.Equal(t, http.MethodPut, got.method)
	assert.Equal(t, "/tasks/9", got.path)
	assert.Empty(t, got.files)
}

func TestClient_Delete_NonSuccessReturnsStatusError(t *testing.T) {
	// Arrange
	srv, got := setupBackend(t, http.StatusNotFound)
	client := apiclient.New(srv.URL)

	// Act
	resp, err := client.Delete(context.Background(), "/tasks/404")

	// Assert
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.MethodDelete, got.method)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	var se *apiclient.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusNotFound, se.StatusCode)
	assert.Equal(t, http.StatusNotFound, apiclient.StatusCode(err))
}

func TestClient_TransportError(t *testing.T) {
	srv, _ := setupBackend(t, http.StatusOK)
	url := srv.URL
	srv.Close()

	client := apiclient.New(url)
	resp, err := client.Get(context.Background(), "/tasks")

	assert.Error(t, err)
	assert.Nil(t, resp)
	assert.Equal(t, 0, apiclient.StatusCode(err))
}

func TestClient_URL(t *testing.T) {
	client := apiclient.New("http://backend/api/")

	assert.Equal(t, "http://backend/api/tasks", client.URL("tasks"))
	assert.Equal(t, "http://backend/api/tasks/1", client.URL("/tasks/1"))
	assert.Equal(t, "https://other/x", client.URL("https://other/x"))
}
