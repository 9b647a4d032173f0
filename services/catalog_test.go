package services

import (
	"testing"

	"github.com/toorbo1/telegram-community1-sub000/events"
	"github.com/toorbo1/telegram-community1-sub000/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateTaskRequiresAdmin(t *testing.T) {
	env := setupTestEnv(t)
	env.addUser(t, userID, "alice")

	_, err := env.svc.CreateTask(env.ctx, TaskInput{Title: "t", Description: "d", Price: 10, PeopleRequired: 1}, userID)
	assert.ErrorIs(t, err, ErrPermissionDenied)

	require.NoError(t, env.svc.AddAdmin(env.ctx, mainAdminID, userID))
	task, err := env.svc.CreateTask(env.ctx, TaskInput{Title: "t", Description: "d", Price: 10, PeopleRequired: 1}, userID)
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusActive, task.Status)
	assert.Equal(t, models.CategoryGeneral, task.Category)
	assert.Equal(t, userID, task.CreatedBy)
	assert.Contains(t, env.events.Types(), events.TaskCreated)
}

func TestCreateTaskValidation(t *testing.T) {
	env := setupTestEnv(t)

	cases := []struct {
		name string
		in   TaskInput
	}{
		{"empty title", TaskInput{Title: "  ", Description: "d", Price: 10, PeopleRequired: 1}},
		{"empty description", TaskInput{Title: "t", Price: 10, PeopleRequired: 1}},
		{"zero price", TaskInput{Title: "t", Description: "d", Price: 0, PeopleRequired: 1}},
		{"negative price", TaskInput{Title: "t", Description: "d", Price: -5, PeopleRequired: 1}},
		{"no people", TaskInput{Title: "t", Description: "d", Price: 10, PeopleRequired: 0}},
		{"unknown category", TaskInput{Title: "t", Description: "d", Price: 10, PeopleRequired: 1, Category: "gambling"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.svc.CreateTask(env.ctx, tc.in, mainAdminID)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}

	var count int64
	require.NoError(t, env.db.Model(&models.Task{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestDeleteTask(t *testing.T) {
	env := setupTestEnv(t)
	env.addUser(t, userID, "alice")

	unused := env.createTask(t, "Unused", 10, 5)
	used := env.createTask(t, "Used", 10, 5)
	_, err := env.svc.StartTask(env.ctx, userID, used.ID)
	require.NoError(t, err)

	assert.ErrorIs(t, env.svc.DeleteTask(env.ctx, used.ID, userID), ErrPermissionDenied)

	require.NoError(t, env.svc.DeleteTask(env.ctx, unused.ID, mainAdminID))
	var count int64
	require.NoError(t, env.db.Model(&models.Task{}).Where("id = ?", unused.ID).Count(&count).Error)
	assert.Zero(t, count, "task without history is removed")

	require.NoError(t, env.svc.DeleteTask(env.ctx, used.ID, mainAdminID))
	assert.Equal(t, models.TaskStatusInactive, env.task(t, used.ID).Status, "referenced task is deactivated")

	assert.ErrorIs(t, env.svc.DeleteTask(env.ctx, 9999, mainAdminID), ErrNotFound)
}

func TestListAvailableTasks(t *testing.T) {
	env := setupTestEnv(t)
	env.addUser(t, userID, "alice")
	env.addUser(t, otherUserID, "bob")

	sub := env.createTask(t, "Subscribe to channel", 50, 10)
	view, err := env.svc.CreateTask(env.ctx, TaskInput{
		Title: "Watch video", Description: "Watch till the end", Price: 30,
		Category: models.CategoryView, PeopleRequired: 10,
	}, mainAdminID)
	require.NoError(t, err)
	single := env.createTask(t, "Repost", 70, 1)

	tasks, err := env.svc.ListAvailableTasks(env.ctx, userID, TaskFilter{})
	require.NoError(t, err)
	assert.Len(t, tasks, 3)

	tasks, err = env.svc.ListAvailableTasks(env.ctx, userID, TaskFilter{Search: "VIDEO"})
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, view.ID, tasks[0].ID)

	tasks, err = env.svc.ListAvailableTasks(env.ctx, userID, TaskFilter{Search: "till the"})
	require.NoError(t, err)
	require.Len(t, tasks, 1, "search covers the description")

	tasks, err = env.svc.ListAvailableTasks(env.ctx, userID, TaskFilter{Category: models.CategorySubscribe})
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{sub.ID, single.ID}, taskIDs(tasks))

	// Bob's open attempt reserves the only slot of the single-person task.
	_, err = env.svc.StartTask(env.ctx, otherUserID, single.ID)
	require.NoError(t, err)
	_, err = env.svc.StartTask(env.ctx, userID, sub.ID)
	require.NoError(t, err)

	tasks, err = env.svc.ListAvailableTasks(env.ctx, userID, TaskFilter{})
	require.NoError(t, err)
	assert.Equal(t, []uint{view.ID}, taskIDs(tasks))

	tasks, err = env.svc.ListAvailableTasks(env.ctx, otherUserID, TaskFilter{})
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{sub.ID, view.ID}, taskIDs(tasks))

	require.NoError(t, env.svc.DeleteTask(env.ctx, view.ID, mainAdminID))
	tasks, err = env.svc.ListAvailableTasks(env.ctx, userID, TaskFilter{})
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestListTasksForAdmin(t *testing.T) {
	env := setupTestEnv(t)
	env.addUser(t, userID, "alice")
	task := env.createTask(t, "Subscribe", 50, 3)
	_, err := env.svc.StartTask(env.ctx, userID, task.ID)
	require.NoError(t, err)

	_, err = env.svc.ListTasks(env.ctx, userID, TaskFilter{}, "")
	assert.ErrorIs(t, err, ErrPermissionDenied)

	stats, err := env.svc.ListTasks(env.ctx, mainAdminID, TaskFilter{}, models.TaskStatusActive)
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, task.ID, stats[0].ID)
	assert.Equal(t, int64(1), stats[0].InFlight)
}

func taskIDs(tasks []models.Task) []uint {
	out := make([]uint, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.ID)
	}
	return out
}
