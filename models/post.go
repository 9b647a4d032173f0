package models

import "time"

const (
	ReactionLike    = "like"
	ReactionDislike = "dislike"
)

type Post struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Title     string    `gorm:"type:varchar(255);not null" json:"title"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	AuthorID  int64     `gorm:"not null" json:"author_id"`
	Likes     int64     `gorm:"not null;default:0" json:"likes"`
	Dislikes  int64     `gorm:"not null;default:0" json:"dislikes"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Post) TableName() string {
	return "posts"
}

type PostReaction struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostID    uint      `gorm:"not null;uniqueIndex:idx_post_reaction,priority:1" json:"post_id"`
	UserID    int64     `gorm:"not null;uniqueIndex:idx_post_reaction,priority:2" json:"user_id"`
	Kind      string    `gorm:"type:varchar(10);not null" json:"kind"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (PostReaction) TableName() string {
	return "post_reactions"
}
