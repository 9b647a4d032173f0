package services

import (
	"context"
	"fmt"

	"github.com/toorbo1/telegram-community1-sub000/models"
	"github.com/toorbo1/telegram-community1-sub000/monitoring"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	TasksPerLevel = 10
	MaxLevel      = 10
)

type LevelInfo struct {
	Level         int    `json:"level"`
	Name          string `json:"name"`
	TasksRequired int64  `json:"tasks_required"`
	Bonus         int64  `json:"bonus"`
}

// levels is indexed by level-1. Level n is reached at (n-1)*TasksPerLevel
// completed tasks and pays Bonus once when first reached.
var levels = [MaxLevel]LevelInfo{
	{1, "Новичок", 0, 0},
	{2, "Ученик", 10, 50},
	{3, "Опытный", 20, 100},
	{4, "Профессионал", 30, 150},
	{5, "Эксперт", 40, 200},
	{6, "Мастер", 50, 250},
	{7, "Гуру", 60, 300},
	{8, "Легенда", 70, 350},
	{9, "Император", 80, 400},
	{10, "Бог заданий", 90, 500},
}

func LevelFor(tasksCompleted int64) int {
	if tasksCompleted < 0 {
		return 1
	}
	lvl := 1 + int(tasksCompleted/TasksPerLevel)
	if lvl > MaxLevel {
		return MaxLevel
	}
	return lvl
}

func Level(n int) LevelInfo {
	if n < 1 {
		n = 1
	}
	if n > MaxLevel {
		n = MaxLevel
	}
	return levels[n-1]
}

func Levels() []LevelInfo {
	out := make([]LevelInfo, MaxLevel)
	copy(out, levels[:])
	return out
}

// claimBonus inserts the BonusBook row if absent and reports whether this call
// inserted it. The unique key decides, so concurrent callers cannot both win.
func claimBonus(tx *gorm.DB, grant *models.BonusGrant) (bool, error) {
	res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(grant)
	if res.Error != nil {
		return false, fmt.Errorf("claim %s bonus: %w", grant.Kind, res.Error)
	}
	return res.RowsAffected == 1, nil
}

// GrantWelcomeBonus pays the welcome bonus once per user.
func (s *Service) GrantWelcomeBonus(ctx context.Context, userID int64) (bool, error) {
	var granted bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := mustUser(tx, userID); err != nil {
			return err
		}
		var err error
		granted, err = s.grantWelcome(tx, userID)
		return err
	})
	return granted, err
}

func (s *Service) grantWelcome(tx *gorm.DB, userID int64) (bool, error) {
	amount := s.cfg.WelcomeBonus
	ok, err := claimBonus(tx, &models.BonusGrant{UserID: userID, Kind: models.BonusWelcome, Amount: amount})
	if err != nil || !ok {
		return false, err
	}
	if err := credit(tx, userID, amount, models.TxWelcomeBonus, "Welcome bonus"); err != nil {
		return false, err
	}
	monitoring.BonusesGranted.WithLabelValues(models.BonusWelcome).Inc()
	s.log.Info("welcome bonus granted", zap.Int64("user_id", userID), zap.Int64("amount", amount))
	return true, nil
}

// GrantReferralBonus pays both sides of a referral once. A referred user can
// be paid for at most once, so a pair can never be paid twice.
func (s *Service) GrantReferralBonus(ctx context.Context, referrerID, referredID int64) (bool, error) {
	var granted bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		granted, err = s.grantReferral(tx, referrerID, referredID)
		return err
	})
	return granted, err
}

func (s *Service) grantReferral(tx *gorm.DB, referrerID, referredID int64) (bool, error) {
	if referrerID == referredID {
		return false, fmt.Errorf("%w: self-referral", ErrInvalidReferral)
	}
	if err := mustUser(tx, referrerID); err != nil {
		return false, err
	}
	if err := mustUser(tx, referredID); err != nil {
		return false, err
	}

	var current models.User
	if err := tx.Select("id", "referred_by").First(&current, referredID).Error; err != nil {
		return false, err
	}
	if current.ReferredBy != nil && *current.ReferredBy != referrerID {
		return false, fmt.Errorf("%w: already referred by another user", ErrInvalidReferral)
	}

	// The link is claimed before the grant row so a lost race leaves no
	// grant behind.
	if current.ReferredBy == nil {
		res := tx.Model(&models.User{}).
			Where("id = ? AND referred_by IS NULL", referredID).
			Update("referred_by", referrerID)
		if res.Error != nil {
			return false, res.Error
		}
		if res.RowsAffected == 0 {
			return false, fmt.Errorf("%w: already referred by another user", ErrInvalidReferral)
		}
	}

	ok, err := claimBonus(tx, &models.BonusGrant{
		UserID:         referredID,
		Kind:           models.BonusReferral,
		CounterpartyID: &referrerID,
		Amount:         s.cfg.ReferralBonusReferred,
	})
	if err != nil || !ok {
		return false, err
	}

	if err := credit(tx, referredID, s.cfg.ReferralBonusReferred, models.TxReferralBonus, "Joined by referral"); err != nil {
		return false, err
	}
	if err := credit(tx, referrerID, s.cfg.ReferralBonusReferrer, models.TxReferralBonus, fmt.Sprintf("Invited user %d", referredID)); err != nil {
		return false, err
	}
	err = tx.Model(&models.User{}).Where("id = ?", referrerID).Updates(map[string]interface{}{
		"referral_count":  gorm.Expr("referral_count + 1"),
		"referral_earned": gorm.Expr("referral_earned + ?", s.cfg.ReferralBonusReferrer),
	}).Error
	if err != nil {
		return false, fmt.Errorf("update referral counters: %w", err)
	}

	monitoring.BonusesGranted.WithLabelValues(models.BonusReferral).Inc()
	s.log.Info("referral bonus granted", zap.Int64("referrer_id", referrerID), zap.Int64("referred_id", referredID))
	return true, nil
}

// applyLevelUps grants every level crossed between the two completion counts,
// each at most once, and raises users.level monotonically.
func (s *Service) applyLevelUps(tx *gorm.DB, userID, oldCompleted, newCompleted int64) ([]int, error) {
	from, to := LevelFor(oldCompleted), LevelFor(newCompleted)
	if to <= from {
		return nil, nil
	}
	var reached []int
	for lvl := from + 1; lvl <= to; lvl++ {
		info := Level(lvl)
		ok, err := claimBonus(tx, &models.BonusGrant{
			UserID: userID,
			Kind:   models.BonusLevelUp,
			RefKey: int64(lvl),
			Amount: info.Bonus,
		})
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		if err := credit(tx, userID, info.Bonus, models.TxLevelBonus, fmt.Sprintf("Level %d: %s", lvl, info.Name)); err != nil {
			return nil, err
		}
		monitoring.BonusesGranted.WithLabelValues(models.BonusLevelUp).Inc()
		reached = append(reached, lvl)
	}
	err := tx.Model(&models.User{}).Where("id = ? AND level < ?", userID, to).Update("level", to).Error
	if err != nil {
		return nil, fmt.Errorf("update level: %w", err)
	}
	if len(reached) > 0 {
		s.log.Info("level up", zap.Int64("user_id", userID), zap.Ints("levels", reached))
	}
	return reached, nil
}

// SyncLevel re-applies the level table to the stored completion count. It is
// safe to run repeatedly; already granted levels are skipped.
func (s *Service) SyncLevel(ctx context.Context, userID int64) ([]int, error) {
	var reached []int
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var u models.User
		if err := tx.Select("id", "tasks_completed").Where("id = ?", userID).Limit(1).Find(&u).Error; err != nil {
			return err
		}
		if u.ID == 0 {
			return fmt.Errorf("%w: user %d", ErrNotFound, userID)
		}
		var err error
		reached, err = s.applyLevelUps(tx, userID, 0, u.TasksCompleted)
		return err
	})
	return reached, err
}

func mustUser(tx *gorm.DB, userID int64) error {
	var count int64
	if err := tx.Model(&models.User{}).Where("id = ?", userID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return fmt.Errorf("%w: user %d", ErrNotFound, userID)
	}
	return nil
}
