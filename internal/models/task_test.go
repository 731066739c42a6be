package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskListPendingOrdersByPriority(t *testing.T) {
	list := &TaskList{Tasks: []Task{
		{ID: "a", Priority: 2},
		{ID: "b", Priority: 1},
		{ID: "c", Priority: 1, Passes: true},
		{ID: "d", Priority: 2},
	}}

	pending := list.Pending()
	require.Len(t, pending, 3)
	assert.Equal(t, "b", pending[0].ID)
	assert.Equal(t, "a", pending[1].ID)
	assert.Equal(t, "d", pending[2].ID)

	next, ok := list.Next()
	require.True(t, ok)
	assert.Equal(t, "b", next.ID)
}

func TestTaskListAllComplete(t *testing.T) {
	assert.True(t, (&TaskList{}).AllComplete())

	list := &TaskList{Tasks: []Task{{ID: "a", Passes: true}, {ID: "b"}}}
	assert.False(t, list.AllComplete())
	assert.Equal(t, 1, list.CompletedCount())

	require.NoError(t, list.MarkComplete("b"))
	assert.True(t, list.AllComplete())
	assert.ErrorIs(t, list.MarkComplete("zzz"), ErrTaskNotFound)
}

func TestTaskListNormalize(t *testing.T) {
	list := &TaskList{Tasks: []Task{{ID: "a", Title: "Do it"}}}
	list.Normalize()
	assert.Equal(t, DefaultTaskPriority, list.Tasks[0].Priority)
	assert.Equal(t, "unknown", list.Tasks[0].Source)
	assert.Equal(t, "Do it", list.Tasks[0].Description)
}
