package services

import (
	"context"
	"fmt"
	"time"

	"github.com/toorbo1/telegram-community1-sub000/models"
	"github.com/toorbo1/telegram-community1-sub000/monitoring"
	"github.com/toorbo1/telegram-community1-sub000/utils"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RequestWithdrawal debits the balance and records the request in one
// transaction. There is no refund path; completion only marks it paid.
func (s *Service) RequestWithdrawal(ctx context.Context, userID, amount int64) (*models.Withdrawal, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrValidation)
	}
	if amount < s.cfg.MinWithdrawal {
		return nil, fmt.Errorf("%w: minimum is %d", ErrBelowMinimum, s.cfg.MinWithdrawal)
	}
	var wd models.Withdrawal
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Select("id", "username").Where("id = ?", userID).Limit(1).Find(&user).Error; err != nil {
			return err
		}
		if user.ID == 0 {
			return fmt.Errorf("%w: user %d", ErrNotFound, userID)
		}
		if err := debit(tx, userID, amount, models.TxWithdrawal, "Withdrawal request"); err != nil {
			return err
		}
		wd = models.Withdrawal{
			UserID:    userID,
			Username:  user.Username,
			Amount:    amount,
			Reference: utils.GenerateReference("WD", userID),
			Status:    models.WithdrawalPending,
		}
		if err := tx.Create(&wd).Error; err != nil {
			return fmt.Errorf("create withdrawal: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	monitoring.WithdrawalsRequested.Inc()
	s.log.Info("withdrawal requested", zap.Uint("withdrawal_id", wd.ID), zap.Int64("user_id", userID), zap.Int64("amount", amount))
	s.notifier.WithdrawalRequested(context.WithoutCancel(ctx), &wd)
	return &wd, nil
}

func (s *Service) CompleteWithdrawal(ctx context.Context, requestID uint, adminID int64) (*models.Withdrawal, error) {
	var wd models.Withdrawal
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.requireAdmin(tx, adminID); err != nil {
			return err
		}
		if err := tx.Where("id = ?", requestID).Limit(1).Find(&wd).Error; err != nil {
			return err
		}
		if wd.ID == 0 {
			return fmt.Errorf("%w: withdrawal %d", ErrNotFound, requestID)
		}
		now := time.Now()
		res := tx.Model(&models.Withdrawal{}).
			Where("id = ? AND status = ?", wd.ID, models.WithdrawalPending).
			Updates(map[string]interface{}{
				"status":       models.WithdrawalCompleted,
				"completed_at": now,
				"completed_by": adminID,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrAlreadyCompleted
		}
		wd.Status = models.WithdrawalCompleted
		wd.CompletedAt = &now
		wd.CompletedBy = &adminID
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("withdrawal completed", zap.Uint("withdrawal_id", wd.ID), zap.Int64("admin_id", adminID))
	s.notifier.WithdrawalCompleted(context.WithoutCancel(ctx), &wd)
	return &wd, nil
}

func (s *Service) ListWithdrawals(ctx context.Context, userID int64) ([]models.Withdrawal, error) {
	var out []models.Withdrawal
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC, id DESC").Find(&out).Error
	return out, err
}

func (s *Service) ListPendingWithdrawals(ctx context.Context, adminID int64) ([]models.Withdrawal, error) {
	db := s.db.WithContext(ctx)
	if err := s.requireAdmin(db, adminID); err != nil {
		return nil, err
	}
	var out []models.Withdrawal
	err := db.Where("status = ?", models.WithdrawalPending).Order("created_at ASC, id ASC").Find(&out).Error
	return out, err
}

// ListTransactions returns the user's ledger journal, newest first.
func (s *Service) ListTransactions(ctx context.Context, userID int64, limit int) ([]models.Transaction, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var out []models.Transaction
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("id DESC").Limit(limit).Find(&out).Error
	return out, err
}
