package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/toorbo1/telegram-community1-sub000/models"

	"gorm.io/gorm"
)

func (s *Service) CreatePost(ctx context.Context, adminID int64, title, content string) (*models.Post, error) {
	db := s.db.WithContext(ctx)
	if err := s.requireAdmin(db, adminID); err != nil {
		return nil, err
	}
	title, content = strings.TrimSpace(title), strings.TrimSpace(content)
	if title == "" || content == "" {
		return nil, fmt.Errorf("%w: title and content are required", ErrValidation)
	}
	post := models.Post{Title: title, Content: content, AuthorID: adminID}
	if err := db.Create(&post).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

func (s *Service) DeletePost(ctx context.Context, adminID int64, postID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.requireAdmin(tx, adminID); err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", postID).Delete(&models.PostReaction{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Post{}, postID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: post %d", ErrNotFound, postID)
		}
		return nil
	})
}

func (s *Service) ListPosts(ctx context.Context, limit int) ([]models.Post, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var out []models.Post
	err := s.db.WithContext(ctx).Order("created_at DESC, id DESC").Limit(limit).Find(&out).Error
	return out, err
}

func reactionColumn(kind string) string {
	if kind == models.ReactionLike {
		return "likes"
	}
	return "dislikes"
}

// ReactToPost keeps at most one reaction per user and post. Switching kinds
// moves the counter; repeating the same kind changes nothing.
func (s *Service) ReactToPost(ctx context.Context, userID int64, postID uint, kind string) (*models.Post, error) {
	if kind != models.ReactionLike && kind != models.ReactionDislike {
		return nil, fmt.Errorf("%w: reaction must be like or dislike", ErrValidation)
	}
	var post models.Post
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", postID).Limit(1).Find(&post).Error; err != nil {
			return err
		}
		if post.ID == 0 {
			return fmt.Errorf("%w: post %d", ErrNotFound, postID)
		}
		var existing models.PostReaction
		if err := tx.Where("post_id = ? AND user_id = ?", postID, userID).Limit(1).Find(&existing).Error; err != nil {
			return err
		}
		switch {
		case existing.ID == 0:
			if err := tx.Create(&models.PostReaction{PostID: postID, UserID: userID, Kind: kind}).Error; err != nil {
				if isDuplicate(err) {
					return nil
				}
				return err
			}
			if err := tx.Model(&models.Post{}).Where("id = ?", postID).
				Update(reactionColumn(kind), gorm.Expr(reactionColumn(kind)+" + 1")).Error; err != nil {
				return err
			}
		case existing.Kind != kind:
			res := tx.Model(&models.PostReaction{}).
				Where("id = ? AND kind = ?", existing.ID, existing.Kind).
				Update("kind", kind)
			if res.Error != nil || res.RowsAffected == 0 {
				return res.Error
			}
			old := reactionColumn(existing.Kind)
			err := tx.Model(&models.Post{}).Where("id = ?", postID).Updates(map[string]interface{}{
				reactionColumn(kind): gorm.Expr(reactionColumn(kind) + " + 1"),
				old:                  gorm.Expr("CASE WHEN " + old + " > 0 THEN " + old + " - 1 ELSE 0 END"),
			}).Error
			if err != nil {
				return err
			}
		}
		return tx.First(&post, postID).Error
	})
	if err != nil {
		return nil, err
	}
	return &post, nil
}
