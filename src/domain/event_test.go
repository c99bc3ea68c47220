package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChangeEventIncludes(t *testing.T) {
	t.Parallel()

	op := Operation{ID: "POST /users", OperationID: "createUser"}

	assert.True(t, ChangeEvent{}.Includes(op))
	assert.True(t, ChangeEvent{OperationSet: []string{"POST /users"}}.Includes(op))
	assert.True(t, ChangeEvent{OperationSet: []string{"createUser"}}.Includes(op))
	assert.False(t, ChangeEvent{OperationSet: []string{"GET /users"}}.Includes(op))
	assert.False(t, ChangeEvent{OperationSet: []string{""}}.Includes(Operation{ID: "GET /x"}))
}

func TestChangeEventTypeJSON(t *testing.T) {
	t.Parallel()

	var event struct {
		Type ChangeEventType `json:"event_type"`
	}

	require.NoError(t, json.Unmarshal([]byte(`{"event_type":"deleted"}`), &event))
	assert.Equal(t, ChangeEventDeleted, event.Type)

	require.NoError(t, json.Unmarshal([]byte(`{"event_type":""}`), &event))
	assert.Equal(t, ChangeEventUpdated, event.Type)

	assert.Error(t, json.Unmarshal([]byte(`{"event_type":"renamed"}`), &event))

	out, err := json.Marshal(event)
	require.NoError(t, err)
	assert.JSONEq(t, `{"event_type":"updated"}`, string(out))
}
