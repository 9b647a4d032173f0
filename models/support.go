package models

import "time"

type SupportChat struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	UserID         int64     `gorm:"not null;uniqueIndex" json:"user_id"`
	UserName       string    `gorm:"size:255" json:"user_name"`
	LastMessage    string    `gorm:"type:text" json:"last_message"`
	LastMessageAt  time.Time `gorm:"index" json:"last_message_at"`
	UnreadForAdmin int       `gorm:"not null;default:0" json:"unread_for_admin"`
	UnreadForUser  int       `gorm:"not null;default:0" json:"unread_for_user"`
	Archived       bool      `gorm:"not null;default:false;index" json:"archived"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	Messages []SupportMessage `gorm:"foreignKey:ChatID" json:"messages,omitempty"`
}

func (SupportChat) TableName() string {
	return "support_chats"
}

type SupportMessage struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ChatID    uint      `gorm:"not null;index" json:"chat_id"`
	SenderID  int64     `gorm:"not null" json:"sender_id"`
	FromAdmin bool      `gorm:"not null;default:false" json:"from_admin"`
	Body      string    `gorm:"type:text;not null" json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

func (SupportMessage) TableName() string {
	return "support_messages"
}
