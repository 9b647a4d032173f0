package models

import "time"

const (
	WithdrawalPending   = "pending"
	WithdrawalCompleted = "completed"
)

type Withdrawal struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	UserID      int64      `gorm:"not null;index" json:"user_id"`
	Username    string     `gorm:"size:64" json:"username"`
	Amount      int64      `gorm:"not null" json:"amount"`
	Reference   string     `gorm:"type:varchar(64);not null;uniqueIndex" json:"reference"`
	Status      string     `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CompletedBy *int64     `json:"completed_by,omitempty"`
}

func (Withdrawal) TableName() string {
	return "withdrawals"
}
