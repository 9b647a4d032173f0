package models

import "time"

const (
	FlowCredit = "credit"
	FlowDebit  = "debit"
)

const (
	TxTaskReward    = "task_reward"
	TxWelcomeBonus  = "welcome_bonus"
	TxReferralBonus = "referral_bonus"
	TxLevelBonus    = "level_bonus"
	TxWithdrawal    = "withdrawal"
)

// Transaction is the append-only journal of balance movements.
type Transaction struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	UserID          int64     `gorm:"not null;index" json:"user_id"`
	Amount          int64     `gorm:"not null" json:"amount"`
	Reference       string    `gorm:"type:varchar(64);not null;uniqueIndex" json:"reference"`
	TransactionFlow string    `gorm:"type:varchar(10);not null" json:"transaction_flow"`
	TransactionType string    `gorm:"type:varchar(50);not null;index" json:"transaction_type"`
	Message         *string   `gorm:"type:text" json:"message,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

func (Transaction) TableName() string {
	return "transactions"
}
