package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/toorbo1/telegram-community1-sub000/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const referralCodeLength = 8

// Identity is the platform-issued identity of a Telegram user.
type Identity struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Username  string `json:"username"`
}

// AuthenticateUser creates the user on first contact and settles the
// first-login bonuses. Calling it again for the same identity only refreshes
// the name fields.
func (s *Service) AuthenticateUser(ctx context.Context, id Identity, startParam string) (*models.User, error) {
	if id.ID <= 0 {
		return nil, fmt.Errorf("%w: missing platform id", ErrValidation)
	}
	var user models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		created, err := s.upsertUser(tx, id)
		if err != nil {
			return err
		}
		if !created {
			err := tx.Model(&models.User{}).Where("id = ?", id.ID).Updates(map[string]interface{}{
				"first_name": id.FirstName,
				"last_name":  id.LastName,
				"username":   id.Username,
			}).Error
			if err != nil {
				return fmt.Errorf("refresh profile: %w", err)
			}
		}

		if err := tx.First(&user, id.ID).Error; err != nil {
			return err
		}
		if !user.IsFirstLogin {
			return nil
		}

		if _, err := s.grantWelcome(tx, user.ID); err != nil {
			return err
		}
		if referrer, err := s.resolveReferral(tx, startParam); err != nil {
			return err
		} else if referrer != nil {
			if _, err := s.grantReferral(tx, referrer.ID, user.ID); err != nil {
				if !errors.Is(err, ErrInvalidReferral) && !errors.Is(err, ErrNotFound) {
					return err
				}
				s.log.Info("referral ignored", zap.Int64("user_id", user.ID), zap.String("start_param", startParam), zap.Error(err))
			}
		}
		if err := tx.Model(&models.User{}).Where("id = ?", user.ID).Update("is_first_login", false).Error; err != nil {
			return err
		}
		return tx.First(&user, id.ID).Error
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// upsertUser inserts the user if absent. A referral code collision is retried
// with a fresh code.
func (s *Service) upsertUser(tx *gorm.DB, id Identity) (bool, error) {
	for attempt := 0; attempt < 5; attempt++ {
		code, err := generateReferralCode(referralCodeLength)
		if err != nil {
			return false, err
		}
		u := models.User{
			ID:           id.ID,
			FirstName:    id.FirstName,
			LastName:     id.LastName,
			Username:     id.Username,
			Level:        1,
			ReferralCode: code,
			IsAdmin:      id.ID == s.cfg.MainAdminID,
			IsFirstLogin: true,
		}
		res := tx.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).Create(&u)
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			continue
		}
		if res.Error != nil {
			return false, fmt.Errorf("create user: %w", res.Error)
		}
		if res.RowsAffected == 1 {
			s.log.Info("user registered", zap.Int64("user_id", id.ID), zap.String("username", id.Username))
			return true, nil
		}
		var count int64
		if err := tx.Model(&models.User{}).Where("id = ?", id.ID).Count(&count).Error; err != nil {
			return false, err
		}
		if count == 1 {
			return false, nil
		}
	}
	return false, errors.New("could not allocate a unique referral code")
}

// resolveReferral accepts "ref_<code>", a bare code, or the legacy
// "ref_<telegram id>" form.
func (s *Service) resolveReferral(tx *gorm.DB, startParam string) (*models.User, error) {
	code := strings.TrimPrefix(strings.TrimSpace(startParam), "ref_")
	if code == "" {
		return nil, nil
	}
	var referrer models.User
	if err := tx.Where("referral_code = ?", code).Limit(1).Find(&referrer).Error; err != nil {
		return nil, err
	}
	if referrer.ID != 0 {
		return &referrer, nil
	}
	if numericID, err := strconv.ParseInt(code, 10, 64); err == nil {
		if err := tx.Where("id = ?", numericID).Limit(1).Find(&referrer).Error; err != nil {
			return nil, err
		}
		if referrer.ID != 0 {
			return &referrer, nil
		}
	}
	return nil, nil
}

func generateReferralCode(length int) (string, error) {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	b := make([]byte, length)
	for i := range b {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		b[i] = charset[n.Int64()]
	}
	return string(b), nil
}

type Profile struct {
	models.User
	LevelName      string `json:"level_name"`
	NextLevelAt    int64  `json:"next_level_at,omitempty"`
	LevelProgress  int    `json:"level_progress"`
	ReferralLink   string `json:"referral_link"`
	IsAdminAccount bool   `json:"is_admin_account"`
}

func (s *Service) GetUser(ctx context.Context, userID int64) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).Where("id = ?", userID).Limit(1).Find(&u).Error; err != nil {
		return nil, err
	}
	if u.ID == 0 {
		return nil, fmt.Errorf("%w: user %d", ErrNotFound, userID)
	}
	return &u, nil
}

func (s *Service) GetProfile(ctx context.Context, userID int64) (*Profile, error) {
	u, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	p := &Profile{
		User:           *u,
		LevelName:      Level(u.Level).Name,
		LevelProgress:  100,
		ReferralLink:   s.ReferralLink(u.ReferralCode),
		IsAdminAccount: s.IsAdmin(ctx, u.ID),
	}
	if u.Level < MaxLevel {
		next := Level(u.Level + 1)
		cur := Level(u.Level)
		p.NextLevelAt = next.TasksRequired
		p.LevelProgress = int((u.TasksCompleted - cur.TasksRequired) * 100 / (next.TasksRequired - cur.TasksRequired))
		if p.LevelProgress < 0 {
			p.LevelProgress = 0
		}
		if p.LevelProgress > 100 {
			p.LevelProgress = 100
		}
	}
	return p, nil
}

func (s *Service) ReferralLink(code string) string {
	return fmt.Sprintf("https://t.me/%s?start=ref_%s", s.cfg.BotUsername, code)
}

type Referral struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Username  string `json:"username"`
	Status    string `json:"status"`
	JoinedAt  string `json:"joined_at"`
	Completed int64  `json:"tasks_completed"`
}

// ListReferrals returns users invited by userID; a referral counts as active
// once its first login has been settled.
func (s *Service) ListReferrals(ctx context.Context, userID int64) ([]Referral, error) {
	var invited []models.User
	err := s.db.WithContext(ctx).
		Where("referred_by = ?", userID).
		Order("created_at DESC").
		Find(&invited).Error
	if err != nil {
		return nil, err
	}
	out := make([]Referral, 0, len(invited))
	for _, u := range invited {
		status := "pending"
		if !u.IsFirstLogin {
			status = "active"
		}
		out = append(out, Referral{
			ID:        u.ID,
			Name:      u.DisplayName(),
			Username:  u.Username,
			Status:    status,
			JoinedAt:  u.CreatedAt.Format("2006-01-02"),
			Completed: u.TasksCompleted,
		})
	}
	return out, nil
}
