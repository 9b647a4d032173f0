package services

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/toorbo1/telegram-community1-sub000/events"
	"github.com/toorbo1/telegram-community1-sub000/models"
	"github.com/toorbo1/telegram-community1-sub000/monitoring"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func openKey(userID int64, taskID uint) *string {
	k := fmt.Sprintf("%d:%d", userID, taskID)
	return &k
}

// lockTask loads the task row FOR UPDATE so quota checks on it serialize.
func lockTask(tx *gorm.DB, taskID uint) (*models.Task, error) {
	var task models.Task
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", taskID).Limit(1).Find(&task).Error
	if err != nil {
		return nil, err
	}
	if task.ID == 0 {
		return nil, fmt.Errorf("%w: task %d", ErrNotFound, taskID)
	}
	return &task, nil
}

// StartTask opens a new attempt. The task row lock makes the quota check and
// the insert atomic with respect to other starters. The lock is the first
// statement so later plain reads see every assignment committed before it was
// granted (InnoDB takes the REPEATABLE READ snapshot at the first plain read).
func (s *Service) StartTask(ctx context.Context, userID int64, taskID uint) (*models.UserTask, error) {
	var ut models.UserTask
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		task, err := lockTask(tx, taskID)
		if err != nil {
			return err
		}
		if err := mustUser(tx, userID); err != nil {
			return err
		}
		if task.Status != models.TaskStatusActive {
			return fmt.Errorf("%w: task %d is not active", ErrNotFound, taskID)
		}

		var held []string
		err = tx.Model(&models.UserTask{}).
			Where("user_id = ? AND task_id = ? AND status IN ?", userID, taskID,
				[]string{models.UserTaskActive, models.UserTaskPendingReview, models.UserTaskCompleted}).
			Pluck("status", &held).Error
		if err != nil {
			return err
		}
		if slices.Contains(held, models.UserTaskCompleted) {
			return ErrTaskDone
		}
		if len(held) > 0 {
			return ErrTaskInProgress
		}

		var inflight int64
		err = tx.Model(&models.UserTask{}).
			Where("task_id = ? AND status IN ?", taskID, openStatuses).
			Count(&inflight).Error
		if err != nil {
			return err
		}
		if task.PeopleRequired-task.CompletedCount-inflight <= 0 {
			return ErrQuotaExceeded
		}

		ut = models.UserTask{
			UserID:    userID,
			TaskID:    taskID,
			Status:    models.UserTaskActive,
			OpenKey:   openKey(userID, taskID),
			StartedAt: time.Now(),
		}
		if err := tx.Create(&ut).Error; err != nil {
			if isDuplicate(err) {
				return ErrTaskInProgress
			}
			return fmt.Errorf("create assignment: %w", err)
		}
		ut.Task = task
		return bumpCounter(tx, userID, "active_tasks", 1)
	})
	if err != nil {
		return nil, err
	}
	monitoring.TasksStarted.Inc()
	s.log.Info("task started", zap.Int64("user_id", userID), zap.Uint("task_id", taskID), zap.Uint("user_task_id", ut.ID))
	s.publish(ctx, events.Event{Type: events.TaskStarted, TaskID: taskID, UserID: userID})
	return &ut, nil
}

var openStatuses = []string{models.UserTaskActive, models.UserTaskPendingReview}

// loadOwnAssignment returns the user's assignment or ErrNotFound, so other
// users' assignment ids are indistinguishable from missing ones.
func loadOwnAssignment(tx *gorm.DB, userTaskID uint, userID int64) (*models.UserTask, error) {
	var ut models.UserTask
	if err := tx.Where("id = ? AND user_id = ?", userTaskID, userID).Limit(1).Find(&ut).Error; err != nil {
		return nil, err
	}
	if ut.ID == 0 {
		return nil, fmt.Errorf("%w: assignment %d", ErrNotFound, userTaskID)
	}
	return &ut, nil
}

// SubmitScreenshot moves an active attempt to review and queues a
// Verification that snapshots the submitter and the task.
func (s *Service) SubmitScreenshot(ctx context.Context, userTaskID uint, userID int64, screenshotRef string) (*models.UserTask, *models.Verification, error) {
	screenshotRef = strings.TrimSpace(screenshotRef)
	if screenshotRef == "" {
		return nil, nil, fmt.Errorf("%w: screenshot is required", ErrValidation)
	}
	var (
		ut models.UserTask
		v  models.Verification
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		own, err := loadOwnAssignment(tx, userTaskID, userID)
		if err != nil {
			return err
		}
		now := time.Now()
		res := tx.Model(&models.UserTask{}).
			Where("id = ? AND status = ?", own.ID, models.UserTaskActive).
			Updates(map[string]interface{}{
				"status":         models.UserTaskPendingReview,
				"screenshot_url": screenshotRef,
				"submitted_at":   now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: assignment is %s", ErrInvalidState, own.Status)
		}

		var user models.User
		if err := tx.First(&user, userID).Error; err != nil {
			return err
		}
		var task models.Task
		if err := tx.First(&task, own.TaskID).Error; err != nil {
			return err
		}
		v = models.Verification{
			UserTaskID:    own.ID,
			UserID:        userID,
			TaskID:        task.ID,
			UserName:      user.DisplayName(),
			UserHandle:    user.Username,
			TaskTitle:     task.Title,
			TaskPrice:     task.Price,
			ScreenshotURL: screenshotRef,
			Status:        models.VerificationPending,
			SubmittedAt:   now,
		}
		if err := tx.Create(&v).Error; err != nil {
			return fmt.Errorf("create verification: %w", err)
		}
		return tx.Preload("Task").First(&ut, own.ID).Error
	})
	if err != nil {
		return nil, nil, err
	}
	s.log.Info("screenshot submitted", zap.Uint("user_task_id", ut.ID), zap.Uint("verification_id", v.ID))
	s.notifier.VerificationSubmitted(context.WithoutCancel(ctx), &v)
	return &ut, &v, nil
}

// CancelTask aborts an active attempt and releases its quota slot.
func (s *Service) CancelTask(ctx context.Context, userTaskID uint, userID int64) (*models.UserTask, error) {
	var ut models.UserTask
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		own, err := loadOwnAssignment(tx, userTaskID, userID)
		if err != nil {
			return err
		}
		res := tx.Model(&models.UserTask{}).
			Where("id = ? AND status = ?", own.ID, models.UserTaskActive).
			Updates(map[string]interface{}{
				"status":       models.UserTaskCancelled,
				"open_key":     nil,
				"cancelled_at": time.Now(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: assignment is %s", ErrInvalidState, own.Status)
		}
		if err := bumpCounter(tx, userID, "active_tasks", -1); err != nil {
			return err
		}
		return tx.First(&ut, own.ID).Error
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("task cancelled", zap.Uint("user_task_id", ut.ID), zap.Int64("user_id", userID))
	s.publish(ctx, events.Event{Type: events.TaskReleased, TaskID: ut.TaskID, UserID: userID})
	return &ut, nil
}

// ListUserTasks returns the user's own attempts, newest first.
func (s *Service) ListUserTasks(ctx context.Context, userID int64, status string) ([]models.UserTask, error) {
	q := s.db.WithContext(ctx).Preload("Task").Where("user_id = ?", userID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var out []models.UserTask
	if err := q.Order("started_at DESC, id DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
