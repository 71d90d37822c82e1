package handler

import (
	"embed"
	"html/template"

	"taskboard/internal/model"
	"taskboard/internal/notify"
	"taskboard/internal/taskform"
)

//go:embed templates/*.html
var templatesFS embed.FS

// Templates parses the embedded page templates for gin's HTML renderer.
func Templates() (*template.Template, error) {
	return template.New("pages").
		Funcs(template.FuncMap{
			"inc": func(i int) int { return i + 1 },
		}).
		ParseFS(templatesFS, "templates/*.html")
}

type listPage struct {
	Title      string
	Toasts     []notify.Notification
	Filter     model.Filter
	Priorities []model.Priority
	Tasks      []model.Task
	ModalOpen  bool
	PendingID  string
	// Query carries the active filter into the action URLs.
	Query string
}

type formPage struct {
	Title      string
	Toasts     []notify.Notification
	Form       taskform.Snapshot
	Action     string
	Priorities []model.Priority
}
