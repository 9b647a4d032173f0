package telegram

import (
	"context"
	"fmt"

	"github.com/toorbo1/telegram-community1-sub000/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func callbackData(action string, id uint) string {
	return fmt.Sprintf("%s_%d", action, id)
}

func (b *Bot) VerificationSubmitted(_ context.Context, v *models.Verification) {
	text := fmt.Sprintf("📸 New screenshot #%d\n\nUser: %s (%d)\nTask: %s\nReward: %d ⭐",
		v.ID, v.UserName, v.UserID, v.TaskTitle, v.TaskPrice)
	msg := tgbotapi.NewMessage(b.cfg.MainAdminID, text)
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Approve", callbackData(actionVerifyApprove, v.ID)),
			tgbotapi.NewInlineKeyboardButtonData("❌ Reject", callbackData(actionVerifyReject, v.ID)),
		),
	)
	b.enqueue(msg)
}

func (b *Bot) VerificationResolved(_ context.Context, v *models.Verification) {
	var text string
	switch v.Status {
	case models.VerificationApproved:
		text = fmt.Sprintf("🎉 Task \"%s\" approved! %d ⭐ added to your balance.", v.TaskTitle, v.TaskPrice)
	case models.VerificationRejected:
		text = fmt.Sprintf("😔 Task \"%s\" was not accepted.", v.TaskTitle)
		if v.Comment != nil && *v.Comment != "" {
			text += "\nReason: " + *v.Comment
		}
		text += "\nYou can start it again."
	default:
		return
	}
	b.enqueue(tgbotapi.NewMessage(v.UserID, text))
}

func (b *Bot) WithdrawalRequested(_ context.Context, w *models.Withdrawal) {
	who := w.Username
	if who == "" {
		who = fmt.Sprintf("id %d", w.UserID)
	} else {
		who = "@" + who
	}
	text := fmt.Sprintf("💸 Withdrawal request #%d\n\nUser: %s\nAmount: %d ⭐\nRef: %s", w.ID, who, w.Amount, w.Reference)
	msg := tgbotapi.NewMessage(b.cfg.MainAdminID, text)
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Paid", callbackData(actionWithdrawDone, w.ID)),
		),
	)
	b.enqueue(msg)
}

func (b *Bot) WithdrawalCompleted(_ context.Context, w *models.Withdrawal) {
	b.enqueue(tgbotapi.NewMessage(w.UserID, fmt.Sprintf("✅ Your withdrawal of %d ⭐ has been paid.", w.Amount)))
}
