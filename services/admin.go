package services

import (
	"context"
	"fmt"

	"github.com/toorbo1/telegram-community1-sub000/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RequireAdmin is the single authorization gate for every admin operation.
// The main admin id always passes; anyone else needs is_admin on their profile.
func (s *Service) RequireAdmin(ctx context.Context, actorID int64) error {
	return s.requireAdmin(s.db.WithContext(ctx), actorID)
}

func (s *Service) requireAdmin(tx *gorm.DB, actorID int64) error {
	if actorID == 0 {
		return ErrPermissionDenied
	}
	if actorID == s.cfg.MainAdminID {
		return nil
	}
	var count int64
	if err := tx.Model(&models.User{}).Where("id = ? AND is_admin = ?", actorID, true).Count(&count).Error; err != nil {
		return fmt.Errorf("check admin: %w", err)
	}
	if count == 0 {
		return ErrPermissionDenied
	}
	return nil
}

func (s *Service) IsAdmin(ctx context.Context, userID int64) bool {
	return s.RequireAdmin(ctx, userID) == nil
}

func (s *Service) ListAdmins(ctx context.Context, actorID int64) ([]models.User, error) {
	db := s.db.WithContext(ctx)
	if err := s.requireAdmin(db, actorID); err != nil {
		return nil, err
	}
	var admins []models.User
	err := db.Where("is_admin = ? OR id = ?", true, s.cfg.MainAdminID).Order("id ASC").Find(&admins).Error
	return admins, err
}

func (s *Service) AddAdmin(ctx context.Context, actorID, userID int64) error {
	return s.setAdmin(ctx, actorID, userID, true)
}

func (s *Service) RemoveAdmin(ctx context.Context, actorID, userID int64) error {
	if userID == s.cfg.MainAdminID {
		return fmt.Errorf("%w: the main admin cannot be removed", ErrValidation)
	}
	return s.setAdmin(ctx, actorID, userID, false)
}

// setAdmin is reserved for the main admin.
func (s *Service) setAdmin(ctx context.Context, actorID, userID int64, isAdmin bool) error {
	if actorID != s.cfg.MainAdminID {
		return ErrPermissionDenied
	}
	res := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Update("is_admin", isAdmin)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: user %d", ErrNotFound, userID)
	}
	s.log.Info("admin flag changed", zap.Int64("user_id", userID), zap.Bool("is_admin", isAdmin), zap.Int64("by", actorID))
	return nil
}
