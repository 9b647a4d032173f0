package models

import (
	"strings"
	"time"
)

type User struct {
	ID             int64     `gorm:"primaryKey;autoIncrement:false" json:"id"`
	FirstName      string    `gorm:"size:128" json:"first_name"`
	LastName       string    `gorm:"size:128" json:"last_name"`
	Username       string    `gorm:"size:64;index" json:"username"`
	Balance        int64     `gorm:"not null;default:0" json:"balance"`
	Level          int       `gorm:"not null;default:1" json:"level"`
	Experience     int64     `gorm:"not null;default:0" json:"experience"`
	TasksCompleted int64     `gorm:"not null;default:0" json:"tasks_completed"`
	ActiveTasks    int64     `gorm:"not null;default:0" json:"active_tasks"`
	ReferralCode   string    `gorm:"size:32;uniqueIndex;not null" json:"referral_code"`
	ReferredBy     *int64    `gorm:"index" json:"referred_by,omitempty"`
	ReferralCount  int64     `gorm:"not null;default:0" json:"referral_count"`
	ReferralEarned int64     `gorm:"not null;default:0" json:"referral_earned"`
	IsAdmin        bool      `gorm:"not null;default:false" json:"is_admin"`
	IsFirstLogin   bool      `gorm:"not null;default:true" json:"is_first_login"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"-"`
}

func (User) TableName() string {
	return "users"
}

// DisplayName joins first and last name, falling back to the handle.
func (u *User) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" && u.Username != "" {
		return "@" + u.Username
	}
	return name
}
