package model_test

import (
	"encoding/json"
	"testing"

	"taskboard/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilter_Query_OmitsUnsetPriority(t *testing.T) {
	q := model.DefaultFilter().Query()

	assert.Equal(t, "ASC", q.Get("order"))
	_, ok := q["priority"]
	assert.False(t, ok)
}

func TestFilter_Query_WithPriority(t *testing.T) {
	f := model.Filter{Priority: model.PriorityHigh, Order: model.OrderDesc}

	assert.Equal(t, "order=DESC&priority=High", f.Query().Encode())
}

func TestParsePriority(t *testing.T) {
	p, err := model.ParsePriority("MEDIUM")
	require.NoError(t, err)
	assert.Equal(t, model.PriorityMedium, p)

	p, err = model.ParsePriority("")
	require.NoError(t, err)
	assert.False(t, p.IsSet())

	_, err = model.ParsePriority("urgent")
	assert.Error(t, err)
}

func TestParseOrder_DefaultsToAscending(t *testing.T) {
	o, err := model.ParseOrder("")
	require.NoError(t, err)
	assert.Equal(t, model.OrderAsc, o)

	o, err = model.ParseOrder("desc")
	require.NoError(t, err)
	assert.Equal(t, model.OrderDesc, o)

	_, err = model.ParseOrder("sideways")
	assert.Error(t, err)
}

func TestTask_UnmarshalJSON_FallsBackToUnderscoreID(t *testing.T) {
	var task model.Task
	err := json.Unmarshal([]byte(`{"_id":"abc123","heading":"Buy milk","priority":"High"}`), &task)

	require.NoError(t, err)
	assert.Equal(t, "abc123", task.ID)
	assert.Equal(t, "Buy milk", task.Heading)
	assert.Equal(t, model.PriorityHigh, task.Priority)
}

func TestTask_UnmarshalJSON_PrefersID(t *testing.T) {
	var task model.Task
	err := json.Unmarshal([]byte(`{"id":"7","_id":"abc123","createdAt":"2024-05-01T10:00:00Z"}`), &task)

	require.NoError(t, err)
	assert.Equal(t, "7", task.ID)
	assert.Equal(t, "2024-05-01T10:00:00Z", task.CreatedAt)
}

func TestTask_UnmarshalJSON_NumericID(t *testing.T) {
	var tasks []model.Task
	err := json.Unmarshal([]byte(`[{"id":1,"heading":"A","priority":"High"},{"_id":42,"heading":"B"},{"id":"x9"}]`), &tasks)

	require.NoError(t, err)
	require.Len(t, tasks, 3)
	assert.Equal(t, "1", tasks[0].ID)
	assert.Equal(t, "A", tasks[0].Heading)
	assert.Equal(t, model.PriorityHigh, tasks[0].Priority)
	assert.Equal(t, "42", tasks[1].ID)
	assert.Equal(t, "x9", tasks[2].ID)
}

func TestTask_UnmarshalJSON_RejectsObjectID(t *testing.T) {
	var task model.Task
	err := json.Unmarshal([]byte(`{"id":{"oid":"1"}}`), &task)

	assert.Error(t, err)
}

func TestHasImage(t *testing.T) {
	assert.False(t, model.HasImage(model.NoImage{}))
	assert.False(t, model.HasImage(nil))
	assert.False(t, model.HasImage(model.ExistingURL("")))
	assert.True(t, model.HasImage(model.ExistingURL("http://cdn/x.png")))
	assert.True(t, model.HasImage(model.NewFile{Filename: "x.png", Data: []byte{1}}))
}
