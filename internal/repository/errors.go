package repository

import "errors"

// Common repository errors
var (
	// ErrTaskNotFound is returned when the backend has no task with the given id
	ErrTaskNotFound = errors.New("task not found")

	// ErrEmptyID is returned before any request when an id-scoped call gets no id
	ErrEmptyID = errors.New("task id is empty")
)
