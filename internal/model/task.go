package model

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

// Priority is the urgency tag of a task. The zero value means "unset".
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Priorities lists the valid priorities in display order.
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

// ParsePriority accepts any letter case. An empty string yields the unset priority.
func ParsePriority(s string) (Priority, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return "", nil
	case "low":
		return PriorityLow, nil
	case "medium":
		return PriorityMedium, nil
	case "high":
		return PriorityHigh, nil
	}
	return "", fmt.Errorf("unknown priority %q", s)
}

// Label returns the capitalised form used by the list filter query.
func (p Priority) Label() string {
	if p == "" {
		return ""
	}
	return strings.ToUpper(string(p[:1])) + string(p[1:])
}

func (p Priority) IsSet() bool { return p != "" }

// Order is the sort direction the backend applies to the collection.
type Order string

const (
	OrderAsc  Order = "ASC"
	OrderDesc Order = "DESC"
)

// ParseOrder defaults to ascending for an empty value.
func ParseOrder(s string) (Order, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "ASC":
		return OrderAsc, nil
	case "DESC":
		return OrderDesc, nil
	}
	return "", fmt.Errorf("unknown order %q", s)
}

// Filter is the server-applied selection of the task list.
type Filter struct {
	Priority Priority
	Order    Order
}

// DefaultFilter shows every priority in ascending order.
func DefaultFilter() Filter {
	return Filter{Order: OrderAsc}
}

// Query encodes the filter. order is always present, priority only when set.
func (f Filter) Query() url.Values {
	q := url.Values{}
	if f.Priority.IsSet() {
		q.Set("priority", f.Priority.Label())
	}
	order := f.Order
	if order == "" {
		order = OrderAsc
	}
	q.Set("order", string(order))
	return q
}

// Task is a backend task record as displayed by the client.
type Task struct {
	ID          string   `json:"id"`
	Heading     string   `json:"heading"`
	Description string   `json:"description"`
	Date        string   `json:"date"`
	Time        string   `json:"time"`
	Priority    Priority `json:"priority"`
	Image       string   `json:"image"`
	CreatedAt   string   `json:"createdAt"`
}

// UnmarshalJSON takes the id from "id" and falls back to "_id" for
// document-store backends. Ids may be JSON strings or numbers and are kept
// in string form. Priorities are normalised to lowercase.
func (t *Task) UnmarshalJSON(data []byte) error {
	type plain Task
	var aux struct {
		plain
		ID       json.RawMessage `json:"id"`
		MongoID  json.RawMessage `json:"_id"`
		Priority string          `json:"priority"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*t = Task(aux.plain)

	id, err := decodeID(aux.ID)
	if err != nil {
		return err
	}
	if id == "" {
		if id, err = decodeID(aux.MongoID); err != nil {
			return err
		}
	}
	t.ID = id

	p, err := ParsePriority(aux.Priority)
	if err != nil {
		// keep what the backend sent so it is still displayed
		p = Priority(aux.Priority)
	}
	t.Priority = p
	return nil
}

func decodeID(raw json.RawMessage) (string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", fmt.Errorf("task id must be a string or a number, got %s", raw)
	}
	return n.String(), nil
}
