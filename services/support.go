package services

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/toorbo1/telegram-community1-sub000/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const maxSupportMessage = 2000

func cleanMessage(body string) (string, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return "", fmt.Errorf("%w: message is empty", ErrValidation)
	}
	if utf8.RuneCountInString(body) > maxSupportMessage {
		return "", fmt.Errorf("%w: message is longer than %d characters", ErrValidation, maxSupportMessage)
	}
	return body, nil
}

// OpenChat returns the user's support chat, creating it on first use.
func (s *Service) OpenChat(ctx context.Context, userID int64) (*models.SupportChat, error) {
	var chat models.SupportChat
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.openChat(tx, userID, &chat)
	})
	if err != nil {
		return nil, err
	}
	return &chat, nil
}

func (s *Service) openChat(tx *gorm.DB, userID int64, chat *models.SupportChat) error {
	var user models.User
	if err := tx.Where("id = ?", userID).Limit(1).Find(&user).Error; err != nil {
		return err
	}
	if user.ID == 0 {
		return fmt.Errorf("%w: user %d", ErrNotFound, userID)
	}
	fresh := models.SupportChat{UserID: userID, UserName: user.DisplayName(), LastMessageAt: time.Now()}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&fresh).Error; err != nil {
		return err
	}
	return tx.Where("user_id = ?", userID).First(chat).Error
}

func (s *Service) SendUserMessage(ctx context.Context, userID int64, body string) (*models.SupportMessage, error) {
	body, err := cleanMessage(body)
	if err != nil {
		return nil, err
	}
	var msg models.SupportMessage
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var chat models.SupportChat
		if err := s.openChat(tx, userID, &chat); err != nil {
			return err
		}
		msg = models.SupportMessage{ChatID: chat.ID, SenderID: userID, Body: body}
		if err := tx.Create(&msg).Error; err != nil {
			return err
		}
		return tx.Model(&models.SupportChat{}).Where("id = ?", chat.ID).Updates(map[string]interface{}{
			"last_message":     body,
			"last_message_at":  msg.CreatedAt,
			"unread_for_admin": gorm.Expr("unread_for_admin + 1"),
			"archived":         false,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

func (s *Service) SendAdminMessage(ctx context.Context, adminID int64, chatID uint, body string) (*models.SupportMessage, error) {
	body, err := cleanMessage(body)
	if err != nil {
		return nil, err
	}
	var msg models.SupportMessage
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.requireAdmin(tx, adminID); err != nil {
			return err
		}
		if _, err := findChat(tx, chatID); err != nil {
			return err
		}
		msg = models.SupportMessage{ChatID: chatID, SenderID: adminID, FromAdmin: true, Body: body}
		if err := tx.Create(&msg).Error; err != nil {
			return err
		}
		return tx.Model(&models.SupportChat{}).Where("id = ?", chatID).Updates(map[string]interface{}{
			"last_message":    body,
			"last_message_at": msg.CreatedAt,
			"unread_for_user": gorm.Expr("unread_for_user + 1"),
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// ListMessages lets the chat owner or an admin read a chat and clears that
// side's unread counter.
func (s *Service) ListMessages(ctx context.Context, actorID int64, chatID uint) ([]models.SupportMessage, error) {
	var out []models.SupportMessage
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		chat, err := findChat(tx, chatID)
		if err != nil {
			return err
		}
		column := "unread_for_user"
		if chat.UserID != actorID {
			if err := s.requireAdmin(tx, actorID); err != nil {
				return err
			}
			column = "unread_for_admin"
		}
		if err := tx.Where("chat_id = ?", chatID).Order("created_at ASC, id ASC").Find(&out).Error; err != nil {
			return err
		}
		return tx.Model(&models.SupportChat{}).Where("id = ?", chatID).Update(column, 0).Error
	})
	return out, err
}

func (s *Service) ListChats(ctx context.Context, adminID int64, archived bool) ([]models.SupportChat, error) {
	db := s.db.WithContext(ctx)
	if err := s.requireAdmin(db, adminID); err != nil {
		return nil, err
	}
	var out []models.SupportChat
	err := db.Where("archived = ?", archived).Order("last_message_at DESC").Find(&out).Error
	return out, err
}

func (s *Service) ArchiveChat(ctx context.Context, adminID int64, chatID uint) error {
	return s.setArchived(ctx, adminID, chatID, true)
}

func (s *Service) RestoreChat(ctx context.Context, adminID int64, chatID uint) error {
	return s.setArchived(ctx, adminID, chatID, false)
}

func (s *Service) setArchived(ctx context.Context, adminID int64, chatID uint, archived bool) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.requireAdmin(tx, adminID); err != nil {
			return err
		}
		if _, err := findChat(tx, chatID); err != nil {
			return err
		}
		return tx.Model(&models.SupportChat{}).Where("id = ?", chatID).Update("archived", archived).Error
	})
}

func (s *Service) DeleteChat(ctx context.Context, adminID int64, chatID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.requireAdmin(tx, adminID); err != nil {
			return err
		}
		if _, err := findChat(tx, chatID); err != nil {
			return err
		}
		if err := tx.Where("chat_id = ?", chatID).Delete(&models.SupportMessage{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.SupportChat{}, chatID).Error
	})
}

func findChat(tx *gorm.DB, chatID uint) (*models.SupportChat, error) {
	var chat models.SupportChat
	if err := tx.Where("id = ?", chatID).Limit(1).Find(&chat).Error; err != nil {
		return nil, err
	}
	if chat.ID == 0 {
		return nil, fmt.Errorf("%w: chat %d", ErrNotFound, chatID)
	}
	return &chat, nil
}
