package services

import (
	"sync"
	"testing"
	"time"

	"github.com/toorbo1/telegram-community1-sub000/events"
	"github.com/toorbo1/telegram-community1-sub000/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApproveVerification(t *testing.T) {
	env := setupTestEnv(t)
	env.addUser(t, userID, "alice")
	task := env.createTask(t, "Subscribe", 50, 1)
	before := env.user(t, userID)

	ut, err := env.svc.StartTask(env.ctx, userID, task.ID)
	require.NoError(t, err)
	assert.Equal(t, models.UserTaskActive, ut.Status)
	_, v, err := env.svc.SubmitScreenshot(env.ctx, ut.ID, userID, "shot.jpg")
	require.NoError(t, err)
	assert.Equal(t, models.VerificationPending, v.Status)

	settlement, err := env.svc.ApproveVerification(env.ctx, v.ID, mainAdminID)
	require.NoError(t, err)
	assert.Equal(t, int64(50), settlement.Reward)
	assert.True(t, settlement.TaskFilled)
	assert.Empty(t, settlement.LevelsReached)

	after := env.user(t, userID)
	assert.Equal(t, before.Balance+50, after.Balance)
	assert.Equal(t, int64(1), after.TasksCompleted)
	assert.Equal(t, int64(0), after.ActiveTasks)
	assert.Equal(t, int64(10), after.Experience)
	assert.Equal(t, int64(1), env.task(t, task.ID).CompletedCount)

	var stored models.Verification
	require.NoError(t, env.db.First(&stored, v.ID).Error)
	assert.Equal(t, models.VerificationApproved, stored.Status)
	require.NotNil(t, stored.ReviewedBy)
	assert.Equal(t, mainAdminID, *stored.ReviewedBy)
	assert.NotNil(t, stored.ReviewedAt)

	var assignment models.UserTask
	require.NoError(t, env.db.First(&assignment, ut.ID).Error)
	assert.Equal(t, models.UserTaskCompleted, assignment.Status)
	assert.NotNil(t, assignment.CompletedAt)
	assert.Nil(t, assignment.OpenKey)

	var journal []models.Transaction
	require.NoError(t, env.db.Where("user_id = ? AND transaction_type = ?", userID, models.TxTaskReward).Find(&journal).Error)
	require.Len(t, journal, 1)
	assert.Equal(t, int64(50), journal[0].Amount)

	assert.Equal(t, []string{models.VerificationApproved}, env.notifier.resolved)
	assert.Contains(t, env.events.Types(), events.TaskCompleted)
	assert.Contains(t, env.events.Types(), events.TaskFilled)

	_, err = env.svc.StartTask(env.ctx, userID, task.ID)
	assert.ErrorIs(t, err, ErrTaskDone)
}

func TestRejectVerification(t *testing.T) {
	env := setupTestEnv(t)
	env.addUser(t, userID, "alice")
	task := env.createTask(t, "Subscribe", 50, 1)
	before := env.user(t, userID)
	v := env.submit(t, userID, task.ID)

	rejected, err := env.svc.RejectVerification(env.ctx, v.ID, mainAdminID, "screenshot is blurry")
	require.NoError(t, err)
	assert.Equal(t, models.VerificationRejected, rejected.Status)
	require.NotNil(t, rejected.Comment)
	assert.Equal(t, "screenshot is blurry", *rejected.Comment)

	after := env.user(t, userID)
	assert.Equal(t, before.Balance, after.Balance)
	assert.Equal(t, before.TasksCompleted, after.TasksCompleted)
	assert.Equal(t, int64(0), after.ActiveTasks)
	assert.Equal(t, int64(0), env.task(t, task.ID).CompletedCount)

	var assignment models.UserTask
	require.NoError(t, env.db.First(&assignment, v.UserTaskID).Error)
	assert.Equal(t, models.UserTaskRejected, assignment.Status)

	_, err = env.svc.ApproveVerification(env.ctx, v.ID, mainAdminID)
	assert.ErrorIs(t, err, ErrAlreadyResolved, "resolved verifications are immutable")
	assert.Equal(t, before.Balance, env.user(t, userID).Balance)

	retry, err := env.svc.StartTask(env.ctx, userID, task.ID)
	require.NoError(t, err, "a rejected user may try again while quota remains")
	assert.Equal(t, models.UserTaskActive, retry.Status)
}

func TestApproveTwicePaysOnce(t *testing.T) {
	env := setupTestEnv(t)
	env.addUser(t, userID, "alice")
	task := env.createTask(t, "Subscribe", 50, 3)
	v := env.submit(t, userID, task.ID)
	start := env.user(t, userID).Balance

	_, err := env.svc.ApproveVerification(env.ctx, v.ID, mainAdminID)
	require.NoError(t, err)
	_, err = env.svc.ApproveVerification(env.ctx, v.ID, mainAdminID)
	assert.ErrorIs(t, err, ErrAlreadyResolved)
	_, err = env.svc.RejectVerification(env.ctx, v.ID, mainAdminID, "")
	assert.ErrorIs(t, err, ErrAlreadyResolved)

	assert.Equal(t, start+50, env.user(t, userID).Balance)
	assert.Equal(t, int64(1), env.task(t, task.ID).CompletedCount)
}

func TestConcurrentApprovalsPayOnce(t *testing.T) {
	env := setupPooledEnv(t, 8)
	env.addUser(t, userID, "alice")
	task := env.createTask(t, "Subscribe", 50, 3)
	v := env.submit(t, userID, task.ID)
	start := env.user(t, userID).Balance

	const workers = 8
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.svc.ApproveVerification(env.ctx, v.ID, mainAdminID)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var ok, resolved int
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case assert.ErrorIs(t, err, ErrAlreadyResolved):
			resolved++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, workers-1, resolved)
	assert.Equal(t, start+50, env.user(t, userID).Balance)
	assert.Equal(t, int64(1), env.user(t, userID).TasksCompleted)
}

func TestResolveRequiresAdmin(t *testing.T) {
	env := setupTestEnv(t)
	env.addUser(t, userID, "alice")
	env.addUser(t, otherUserID, "bob")
	task := env.createTask(t, "Subscribe", 50, 3)
	v := env.submit(t, userID, task.ID)

	_, err := env.svc.ApproveVerification(env.ctx, v.ID, otherUserID)
	assert.ErrorIs(t, err, ErrPermissionDenied)
	_, err = env.svc.RejectVerification(env.ctx, v.ID, userID, "")
	assert.ErrorIs(t, err, ErrPermissionDenied)
	_, err = env.svc.ListPendingVerifications(env.ctx, otherUserID)
	assert.ErrorIs(t, err, ErrPermissionDenied)

	var stored models.Verification
	require.NoError(t, env.db.First(&stored, v.ID).Error)
	assert.Equal(t, models.VerificationPending, stored.Status)

	require.NoError(t, env.svc.AddAdmin(env.ctx, mainAdminID, otherUserID))
	_, err = env.svc.ApproveVerification(env.ctx, v.ID, otherUserID)
	assert.NoError(t, err, "profile admins may moderate")

	_, err = env.svc.ApproveVerification(env.ctx, 999, mainAdminID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListPendingVerificationsOldestFirst(t *testing.T) {
	env := setupTestEnv(t)
	env.addUser(t, userID, "alice")
	env.addUser(t, otherUserID, "bob")
	a := env.createTask(t, "A", 10, 5)
	b := env.createTask(t, "B", 10, 5)

	first := env.submit(t, otherUserID, a.ID)
	second := env.submit(t, userID, b.ID)
	third := env.submit(t, userID, a.ID)
	// Put the earliest submission last by id.
	require.NoError(t, env.db.Model(&models.Verification{}).Where("id = ?", third.ID).
		Update("submitted_at", time.Now().Add(-time.Hour)).Error)

	pending, err := env.svc.ListPendingVerifications(env.ctx, mainAdminID)
	require.NoError(t, err)
	require.Len(t, pending, 3)
	assert.Equal(t, []uint{third.ID, first.ID, second.ID}, []uint{pending[0].ID, pending[1].ID, pending[2].ID})

	_, err = env.svc.ApproveVerification(env.ctx, first.ID, mainAdminID)
	require.NoError(t, err)
	pending, err = env.svc.ListPendingVerifications(env.ctx, mainAdminID)
	require.NoError(t, err)
	assert.Len(t, pending, 2)
}

func TestCompletedCountNeverExceedsQuota(t *testing.T) {
	env := setupTestEnv(t)
	env.addUser(t, userID, "alice")
	env.addUser(t, otherUserID, "bob")
	task := env.createTask(t, "Subscribe", 50, 2)

	v1 := env.submit(t, userID, task.ID)
	v2 := env.submit(t, otherUserID, task.ID)

	// Shrink the quota behind the engine's back; approval must still hold the cap.
	require.NoError(t, env.db.Model(&models.Task{}).Where("id = ?", task.ID).Update("people_required", 1).Error)

	_, err := env.svc.ApproveVerification(env.ctx, v1.ID, mainAdminID)
	require.NoError(t, err)
	bobBefore := env.user(t, otherUserID)
	_, err = env.svc.ApproveVerification(env.ctx, v2.ID, mainAdminID)
	assert.ErrorIs(t, err, ErrQuotaExceeded)

	got := env.task(t, task.ID)
	assert.LessOrEqual(t, got.CompletedCount, got.PeopleRequired)
	assert.Equal(t, bobBefore.Balance, env.user(t, otherUserID).Balance, "failed approval rolls back")

	var stored models.Verification
	require.NoError(t, env.db.First(&stored, v2.ID).Error)
	assert.Equal(t, models.VerificationPending, stored.Status)
}
