package services

import (
	"fmt"

	"github.com/toorbo1/telegram-community1-sub000/models"
	"github.com/toorbo1/telegram-community1-sub000/utils"

	"gorm.io/gorm"
)

var referencePrefix = map[string]string{
	models.TxTaskReward:    "TR",
	models.TxWelcomeBonus:  "WB",
	models.TxReferralBonus: "RB",
	models.TxLevelBonus:    "LB",
	models.TxWithdrawal:    "WD",
}

// credit adds amount to the user's balance in SQL and journals it.
func credit(tx *gorm.DB, userID, amount int64, txType, message string) error {
	if amount <= 0 {
		return nil
	}
	res := tx.Model(&models.User{}).
		Where("id = ?", userID).
		Update("balance", gorm.Expr("balance + ?", amount))
	if res.Error != nil {
		return fmt.Errorf("credit balance: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: user %d", ErrNotFound, userID)
	}
	return journal(tx, userID, amount, models.FlowCredit, txType, message)
}

// debit subtracts amount only while the balance covers it; balance never goes
// below zero regardless of concurrent writers.
func debit(tx *gorm.DB, userID, amount int64, txType, message string) error {
	res := tx.Model(&models.User{}).
		Where("id = ? AND balance >= ?", userID, amount).
		Update("balance", gorm.Expr("balance - ?", amount))
	if res.Error != nil {
		return fmt.Errorf("debit balance: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrInsufficientBalance
	}
	return journal(tx, userID, amount, models.FlowDebit, txType, message)
}

func journal(tx *gorm.DB, userID, amount int64, flow, txType, message string) error {
	entry := models.Transaction{
		UserID:          userID,
		Amount:          amount,
		Reference:       utils.GenerateReference(referencePrefix[txType], userID),
		TransactionFlow: flow,
		TransactionType: txType,
	}
	if message != "" {
		entry.Message = &message
	}
	if err := tx.Create(&entry).Error; err != nil {
		return fmt.Errorf("journal %s: %w", txType, err)
	}
	return nil
}

func bumpCounter(tx *gorm.DB, userID int64, column string, delta int64) error {
	q := tx.Model(&models.User{}).Where("id = ?", userID)
	if delta < 0 {
		q = q.Where(column+" >= ?", -delta)
	}
	if err := q.Update(column, gorm.Expr(column+" + ?", delta)).Error; err != nil {
		return fmt.Errorf("update %s: %w", column, err)
	}
	return nil
}
