package models

import "time"

const (
	BonusWelcome  = "welcome"
	BonusReferral = "referral"
	BonusLevelUp  = "level_up"
)

// BonusGrant records a one-time bonus. The unique key (user_id, kind, ref_key)
// is what makes a grant happen at most once.
type BonusGrant struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	UserID         int64     `gorm:"not null;uniqueIndex:idx_bonus_once,priority:1" json:"user_id"`
	Kind           string    `gorm:"type:varchar(20);not null;uniqueIndex:idx_bonus_once,priority:2" json:"kind"`
	RefKey         int64     `gorm:"not null;default:0;uniqueIndex:idx_bonus_once,priority:3" json:"ref_key"`
	CounterpartyID *int64    `gorm:"index" json:"counterparty_id,omitempty"`
	Amount         int64     `gorm:"not null" json:"amount"`
	CreatedAt      time.Time `json:"created_at"`
}

func (BonusGrant) TableName() string {
	return "bonus_grants"
}
