package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/toorbo1/telegram-community1-sub000/config"
	"github.com/toorbo1/telegram-community1-sub000/controllers"
	"github.com/toorbo1/telegram-community1-sub000/services"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

const (
	actionWithdrawDone  = "withdraw_done"
	actionVerifyApprove = "verify_approve"
	actionVerifyReject  = "verify_reject"
)

// Bot is the companion bot: it answers /start, carries admin callbacks and
// delivers notifications for the service.
type Bot struct {
	api    *tgbotapi.BotAPI
	svc    *services.Service
	cfg    *config.Config
	log    *zap.Logger
	outbox chan tgbotapi.Chattable
	stopCh chan struct{}
	wg     sync.WaitGroup
}

func NewBot(cfg *config.Config, svc *services.Service, log *zap.Logger) (*Bot, error) {
	if cfg.BotToken == "" {
		return nil, errors.New("TELEGRAM_BOT_TOKEN is not set")
	}
	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, err
	}
	log = log.With(zap.String("component", "bot"))
	log.Info("bot authorized", zap.String("username", api.Self.UserName))
	return &Bot{
		api:    api,
		svc:    svc,
		cfg:    cfg,
		log:    log,
		outbox: make(chan tgbotapi.Chattable, 256),
		stopCh: make(chan struct{}),
	}, nil
}

// Start runs the long polling loop and the send worker until Stop.
func (b *Bot) Start() {
	b.wg.Add(1)
	go b.sendLoop()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-b.stopCh:
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			switch {
			case update.CallbackQuery != nil:
				b.dispatch(func() { b.handleCallback(update.CallbackQuery) })
			case update.Message != nil && update.Message.IsCommand():
				b.dispatch(func() { b.handleCommand(update.Message) })
			}
		}
	}
}

func (b *Bot) dispatch(fn func()) {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		defer func() {
			if rec := recover(); rec != nil {
				b.log.Error("bot handler panic", zap.Any("panic", rec))
			}
		}()
		fn()
	}()
}

func (b *Bot) Stop() {
	close(b.stopCh)
	b.api.StopReceivingUpdates()

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		b.log.Info("bot stopped")
	case <-time.After(10 * time.Second):
		b.log.Warn("bot shutdown timeout, pending messages dropped")
	}
}

func (b *Bot) sendLoop() {
	defer b.wg.Done()
	for {
		select {
		case <-b.stopCh:
			return
		case msg := <-b.outbox:
			if _, err := b.api.Send(msg); err != nil {
				b.log.Warn("telegram send failed", zap.Error(err))
			}
		}
	}
}

// enqueue never blocks the caller; a full outbox drops the message.
func (b *Bot) enqueue(msg tgbotapi.Chattable) {
	select {
	case b.outbox <- msg:
	default:
		b.log.Warn("bot outbox full, message dropped")
	}
}

func (b *Bot) handleCommand(msg *tgbotapi.Message) {
	if msg.Command() != "start" || msg.From == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	from := msg.From
	user, err := b.svc.AuthenticateUser(ctx, services.Identity{
		ID:        from.ID,
		FirstName: from.FirstName,
		LastName:  from.LastName,
		Username:  from.UserName,
	}, strings.TrimSpace(msg.CommandArguments()))
	if err != nil {
		b.log.Error("start: authenticate", zap.Int64("user_id", from.ID), zap.Error(err))
		b.enqueue(tgbotapi.NewMessage(msg.Chat.ID, "Something went wrong, please try again later."))
		return
	}

	text := fmt.Sprintf("Welcome to LinkGold, %s!\n\nComplete simple tasks, send a screenshot and get paid.\nYour balance: %d ⭐", user.DisplayName(), user.Balance)
	reply := tgbotapi.NewMessage(msg.Chat.ID, text)
	if b.cfg.MiniAppURL != "" {
		reply.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonURL("🚀 Open LinkGold", b.cfg.MiniAppURL),
			),
		)
	}
	b.enqueue(reply)
}

// parseCallback splits "<action>_<id>" data from an inline button.
func parseCallback(data string) (string, uint, bool) {
	i := strings.LastIndexByte(data, '_')
	if i <= 0 || i == len(data)-1 {
		return "", 0, false
	}
	id, err := strconv.ParseUint(data[i+1:], 10, 64)
	if err != nil || id == 0 {
		return "", 0, false
	}
	action := data[:i]
	switch action {
	case actionWithdrawDone, actionVerifyApprove, actionVerifyReject:
		return action, uint(id), true
	}
	return "", 0, false
}

func (b *Bot) handleCallback(q *tgbotapi.CallbackQuery) {
	action, id, ok := parseCallback(q.Data)
	if !ok || q.From == nil {
		b.answer(q, "Unknown action")
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	var (
		err    error
		result string
	)
	switch action {
	case actionWithdrawDone:
		_, err = b.svc.CompleteWithdrawal(ctx, id, q.From.ID)
		result = fmt.Sprintf("✅ Withdrawal #%d marked as paid", id)
	case actionVerifyApprove:
		var st *services.Settlement
		st, err = b.svc.ApproveVerification(ctx, id, q.From.ID)
		if err == nil {
			result = fmt.Sprintf("✅ Verification #%d approved, %d ⭐ paid", id, st.Reward)
		}
	case actionVerifyReject:
		_, err = b.svc.RejectVerification(ctx, id, q.From.ID, "")
		result = fmt.Sprintf("❌ Verification #%d rejected", id)
	}
	if err != nil {
		if controllers.StatusFor(err) == http.StatusInternalServerError {
			b.log.Error("bot callback failed", zap.String("data", q.Data), zap.Error(err))
			b.answer(q, "Internal error")
			return
		}
		b.answer(q, err.Error())
		return
	}
	b.answer(q, "Done")
	if q.Message != nil {
		b.enqueue(tgbotapi.NewEditMessageText(q.Message.Chat.ID, q.Message.MessageID, q.Message.Text+"\n\n"+result))
	}
}

func (b *Bot) answer(q *tgbotapi.CallbackQuery, text string) {
	if _, err := b.api.Request(tgbotapi.NewCallback(q.ID, text)); err != nil {
		b.log.Debug("answer callback", zap.Error(err))
	}
}
