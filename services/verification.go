package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/toorbo1/telegram-community1-sub000/events"
	"github.com/toorbo1/telegram-community1-sub000/models"
	"github.com/toorbo1/telegram-community1-sub000/monitoring"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ListPendingVerifications returns the review queue, oldest submission first.
func (s *Service) ListPendingVerifications(ctx context.Context, adminID int64) ([]models.Verification, error) {
	db := s.db.WithContext(ctx)
	if err := s.requireAdmin(db, adminID); err != nil {
		return nil, err
	}
	var out []models.Verification
	err := db.Where("status = ?", models.VerificationPending).
		Order("submitted_at ASC, id ASC").
		Find(&out).Error
	return out, err
}

// Settlement is the outcome of an approval.
type Settlement struct {
	Verification  models.Verification `json:"verification"`
	Reward        int64               `json:"reward"`
	LevelsReached []int               `json:"levels_reached,omitempty"`
	TaskFilled    bool                `json:"task_filled"`
}

// resolve flips a pending verification and its assignment in one step. Only
// the first concurrent resolver sees RowsAffected == 1.
func resolve(tx *gorm.DB, verificationID uint, adminID int64, status, assignmentStatus string, comment *string) (*models.Verification, error) {
	var v models.Verification
	if err := tx.Where("id = ?", verificationID).Limit(1).Find(&v).Error; err != nil {
		return nil, err
	}
	if v.ID == 0 {
		return nil, fmt.Errorf("%w: verification %d", ErrNotFound, verificationID)
	}
	now := time.Now()
	res := tx.Model(&models.Verification{}).
		Where("id = ? AND status = ?", v.ID, models.VerificationPending).
		Updates(map[string]interface{}{
			"status":      status,
			"reviewed_at": now,
			"reviewed_by": adminID,
			"comment":     comment,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrAlreadyResolved
	}

	fields := map[string]interface{}{
		"status":   assignmentStatus,
		"open_key": nil,
	}
	if assignmentStatus == models.UserTaskCompleted {
		fields["completed_at"] = now
	}
	res = tx.Model(&models.UserTask{}).
		Where("id = ? AND status = ?", v.UserTaskID, models.UserTaskPendingReview).
		Updates(fields)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: assignment %d is not pending review", ErrInvalidState, v.UserTaskID)
	}

	v.Status = status
	v.ReviewedAt = &now
	v.ReviewedBy = &adminID
	v.Comment = comment
	return &v, nil
}

// ApproveVerification settles a submission: the reward, the user's counters,
// the task's completed_count and any level-up bonuses commit together or not
// at all.
func (s *Service) ApproveVerification(ctx context.Context, verificationID uint, adminID int64) (*Settlement, error) {
	var out Settlement
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.requireAdmin(tx, adminID); err != nil {
			return err
		}
		v, err := resolve(tx, verificationID, adminID, models.VerificationApproved, models.UserTaskCompleted, nil)
		if err != nil {
			return err
		}

		var task models.Task
		if err := tx.Select("id", "price", "people_required").First(&task, v.TaskID).Error; err != nil {
			return err
		}
		res := tx.Model(&models.Task{}).
			Where("id = ? AND completed_count < people_required", task.ID).
			Update("completed_count", gorm.Expr("completed_count + 1"))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrQuotaExceeded
		}

		if err := credit(tx, v.UserID, v.TaskPrice, models.TxTaskReward, v.TaskTitle); err != nil {
			return err
		}
		err = tx.Model(&models.User{}).Where("id = ?", v.UserID).Updates(map[string]interface{}{
			"tasks_completed": gorm.Expr("tasks_completed + 1"),
			"experience":      gorm.Expr("experience + ?", s.cfg.TaskExperience),
			"active_tasks":    gorm.Expr("CASE WHEN active_tasks > 0 THEN active_tasks - 1 ELSE 0 END"),
		}).Error
		if err != nil {
			return fmt.Errorf("update user counters: %w", err)
		}

		// Read back rather than assume +1 so the level check sees the committed
		// value even when another approval for this user ran first.
		var after models.User
		if err := tx.Select("id", "tasks_completed").First(&after, v.UserID).Error; err != nil {
			return err
		}
		reached, err := s.applyLevelUps(tx, v.UserID, after.TasksCompleted-1, after.TasksCompleted)
		if err != nil {
			return err
		}

		var filled int64
		if err := tx.Model(&models.Task{}).Where("id = ? AND completed_count >= people_required", task.ID).Count(&filled).Error; err != nil {
			return err
		}

		out = Settlement{Verification: *v, Reward: v.TaskPrice, LevelsReached: reached, TaskFilled: filled > 0}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrAlreadyResolved) {
			s.log.Warn("duplicate approval", zap.Uint("verification_id", verificationID), zap.Int64("admin_id", adminID))
		}
		return nil, err
	}

	monitoring.VerificationsResolved.WithLabelValues(models.VerificationApproved).Inc()
	s.log.Info("verification approved",
		zap.Uint("verification_id", verificationID),
		zap.Int64("user_id", out.Verification.UserID),
		zap.Int64("reward", out.Reward),
		zap.Int64("admin_id", adminID))
	s.notifier.VerificationResolved(context.WithoutCancel(ctx), &out.Verification)
	s.publish(ctx, events.Event{Type: events.TaskCompleted, TaskID: out.Verification.TaskID, UserID: out.Verification.UserID})
	if out.TaskFilled {
		s.publish(ctx, events.Event{Type: events.TaskFilled, TaskID: out.Verification.TaskID})
	}
	return &out, nil
}

// RejectVerification closes a submission without any balance change. The
// user may start the task again while quota remains.
func (s *Service) RejectVerification(ctx context.Context, verificationID uint, adminID int64, comment string) (*models.Verification, error) {
	var out *models.Verification
	var reason *string
	if c := strings.TrimSpace(comment); c != "" {
		reason = &c
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.requireAdmin(tx, adminID); err != nil {
			return err
		}
		v, err := resolve(tx, verificationID, adminID, models.VerificationRejected, models.UserTaskRejected, reason)
		if err != nil {
			return err
		}
		if err := bumpCounter(tx, v.UserID, "active_tasks", -1); err != nil {
			return err
		}
		out = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	monitoring.VerificationsResolved.WithLabelValues(models.VerificationRejected).Inc()
	s.log.Info("verification rejected", zap.Uint("verification_id", verificationID), zap.Int64("admin_id", adminID))
	s.notifier.VerificationResolved(context.WithoutCancel(ctx), out)
	s.publish(ctx, events.Event{Type: events.TaskReleased, TaskID: out.TaskID, UserID: out.UserID})
	return out, nil
}
