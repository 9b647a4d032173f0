package services

import (
	"testing"

	"github.com/toorbo1/telegram-community1-sub000/events"
	"github.com/toorbo1/telegram-community1-sub000/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartTask(t *testing.T) {
	env := setupTestEnv(t)
	env.addUser(t, userID, "alice")
	task := env.createTask(t, "Subscribe", 50, 5)

	ut, err := env.svc.StartTask(env.ctx, userID, task.ID)
	require.NoError(t, err)
	assert.Equal(t, models.UserTaskActive, ut.Status)
	assert.False(t, ut.StartedAt.IsZero())
	assert.Equal(t, int64(1), env.user(t, userID).ActiveTasks)
	assert.Contains(t, env.events.Types(), events.TaskStarted)

	_, err = env.svc.StartTask(env.ctx, userID, task.ID)
	assert.ErrorIs(t, err, ErrTaskInProgress)
	assert.Equal(t, int64(1), env.user(t, userID).ActiveTasks)

	_, err = env.svc.StartTask(env.ctx, userID, 4242)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = env.svc.StartTask(env.ctx, 777, task.ID)
	assert.ErrorIs(t, err, ErrNotFound, "unknown user")
}

func TestStartTaskQuota(t *testing.T) {
	env := setupTestEnv(t)
	env.addUser(t, userID, "alice")
	env.addUser(t, otherUserID, "bob")
	task := env.createTask(t, "Subscribe", 50, 1)

	_, err := env.svc.StartTask(env.ctx, userID, task.ID)
	require.NoError(t, err)

	_, err = env.svc.StartTask(env.ctx, otherUserID, task.ID)
	assert.ErrorIs(t, err, ErrQuotaExceeded)
	assert.Zero(t, env.user(t, otherUserID).ActiveTasks)
}

func TestStartTaskInactive(t *testing.T) {
	env := setupTestEnv(t)
	env.addUser(t, userID, "alice")
	env.addUser(t, otherUserID, "bob")
	task := env.createTask(t, "Subscribe", 50, 5)
	_, err := env.svc.StartTask(env.ctx, otherUserID, task.ID)
	require.NoError(t, err)
	require.NoError(t, env.svc.DeleteTask(env.ctx, task.ID, mainAdminID))

	_, err = env.svc.StartTask(env.ctx, userID, task.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStartCancelRoundTrip(t *testing.T) {
	env := setupTestEnv(t)
	env.addUser(t, userID, "alice")
	task := env.createTask(t, "Subscribe", 50, 1)
	before := env.user(t, userID)

	ut, err := env.svc.StartTask(env.ctx, userID, task.ID)
	require.NoError(t, err)

	available, err := env.svc.ListAvailableTasks(env.ctx, userID, TaskFilter{})
	require.NoError(t, err)
	assert.Empty(t, available)

	cancelled, err := env.svc.CancelTask(env.ctx, ut.ID, userID)
	require.NoError(t, err)
	assert.Equal(t, models.UserTaskCancelled, cancelled.Status)
	assert.NotNil(t, cancelled.CancelledAt)
	assert.Contains(t, env.events.Types(), events.TaskReleased)

	available, err = env.svc.ListAvailableTasks(env.ctx, userID, TaskFilter{})
	require.NoError(t, err)
	assert.Equal(t, []uint{task.ID}, taskIDs(available))

	after := env.user(t, userID)
	assert.Equal(t, before.Balance, after.Balance)
	assert.Equal(t, before.TasksCompleted, after.TasksCompleted)
	assert.Equal(t, before.ActiveTasks, after.ActiveTasks)
	assert.Equal(t, int64(0), env.task(t, task.ID).CompletedCount)

	_, err = env.svc.CancelTask(env.ctx, ut.ID, userID)
	assert.ErrorIs(t, err, ErrInvalidState)

	again, err := env.svc.StartTask(env.ctx, userID, task.ID)
	require.NoError(t, err, "a cancelled attempt frees the pair and the quota")
	assert.NotEqual(t, ut.ID, again.ID)
}

func TestSubmitScreenshot(t *testing.T) {
	env := setupTestEnv(t)
	env.addUser(t, userID, "alice")
	env.addUser(t, otherUserID, "bob")
	task := env.createTask(t, "Subscribe", 50, 5)

	ut, err := env.svc.StartTask(env.ctx, userID, task.ID)
	require.NoError(t, err)

	_, _, err = env.svc.SubmitScreenshot(env.ctx, ut.ID, userID, "   ")
	assert.ErrorIs(t, err, ErrValidation)

	_, _, err = env.svc.SubmitScreenshot(env.ctx, ut.ID, otherUserID, "shot.jpg")
	assert.ErrorIs(t, err, ErrNotFound, "other users cannot submit for this assignment")

	submitted, v, err := env.svc.SubmitScreenshot(env.ctx, ut.ID, userID, "screenshots/a.jpg")
	require.NoError(t, err)
	assert.Equal(t, models.UserTaskPendingReview, submitted.Status)
	require.NotNil(t, submitted.ScreenshotURL)
	assert.Equal(t, "screenshots/a.jpg", *submitted.ScreenshotURL)
	assert.NotNil(t, submitted.SubmittedAt)

	assert.Equal(t, models.VerificationPending, v.Status)
	assert.Equal(t, ut.ID, v.UserTaskID)
	assert.Equal(t, "Subscribe", v.TaskTitle)
	assert.Equal(t, int64(50), v.TaskPrice)
	assert.Equal(t, "alice", v.UserHandle)
	assert.Equal(t, []uint{v.ID}, env.notifier.submitted)

	_, _, err = env.svc.SubmitScreenshot(env.ctx, ut.ID, userID, "screenshots/b.jpg")
	assert.ErrorIs(t, err, ErrInvalidState)

	_, err = env.svc.CancelTask(env.ctx, ut.ID, userID)
	assert.ErrorIs(t, err, ErrInvalidState, "submitted work cannot be cancelled")

	var count int64
	require.NoError(t, env.db.Model(&models.Verification{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestVerificationSnapshotIsNotLive(t *testing.T) {
	env := setupTestEnv(t)
	env.addUser(t, userID, "alice")
	task := env.createTask(t, "Subscribe", 50, 5)
	v := env.submit(t, userID, task.ID)

	require.NoError(t, env.db.Model(&models.Task{}).Where("id = ?", task.ID).Update("title", "Renamed").Error)
	_, err := env.svc.AuthenticateUser(env.ctx, Identity{ID: userID, FirstName: "Alice", Username: "alice_new"}, "")
	require.NoError(t, err)

	pending, err := env.svc.ListPendingVerifications(env.ctx, mainAdminID)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, v.ID, pending[0].ID)
	assert.Equal(t, "Subscribe", pending[0].TaskTitle)
	assert.Equal(t, "alice", pending[0].UserHandle)
}

func TestListUserTasks(t *testing.T) {
	env := setupTestEnv(t)
	env.addUser(t, userID, "alice")
	a := env.createTask(t, "A", 10, 5)
	b := env.createTask(t, "B", 10, 5)

	_, err := env.svc.StartTask(env.ctx, userID, a.ID)
	require.NoError(t, err)
	env.submit(t, userID, b.ID)

	all, err := env.svc.ListUserTasks(env.ctx, userID, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
	for _, ut := range all {
		require.NotNil(t, ut.Task)
	}

	pending, err := env.svc.ListUserTasks(env.ctx, userID, models.UserTaskPendingReview)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, b.ID, pending[0].TaskID)
}
