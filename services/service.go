package services

import (
	"context"

	"github.com/toorbo1/telegram-community1-sub000/config"
	"github.com/toorbo1/telegram-community1-sub000/events"
	"github.com/toorbo1/telegram-community1-sub000/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Notifier delivers user and admin facing messages. Delivery is best effort
// and runs after the owning transaction has committed.
type Notifier interface {
	VerificationSubmitted(ctx context.Context, v *models.Verification)
	VerificationResolved(ctx context.Context, v *models.Verification)
	WithdrawalRequested(ctx context.Context, w *models.Withdrawal)
	WithdrawalCompleted(ctx context.Context, w *models.Withdrawal)
}

type nopNotifier struct{}

func (nopNotifier) VerificationSubmitted(context.Context, *models.Verification) {}
func (nopNotifier) VerificationResolved(context.Context, *models.Verification)  {}
func (nopNotifier) WithdrawalRequested(context.Context, *models.Withdrawal)     {}
func (nopNotifier) WithdrawalCompleted(context.Context, *models.Withdrawal)     {}

type Service struct {
	db       *gorm.DB
	cfg      *config.Config
	log      *zap.Logger
	events   events.Publisher
	notifier Notifier
}

type Option func(*Service)

func WithEvents(p events.Publisher) Option {
	return func(s *Service) { s.events = p }
}

func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

func New(db *gorm.DB, cfg *config.Config, log *zap.Logger, opts ...Option) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Service{
		db:       db,
		cfg:      cfg,
		log:      log,
		events:   events.NopPublisher{},
		notifier: nopNotifier{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetNotifier swaps the notifier once the bot is up; the bot itself needs the
// service, so it cannot be passed to New.
func (s *Service) SetNotifier(n Notifier) {
	if n != nil {
		s.notifier = n
	}
}

func (s *Service) Config() *config.Config {
	return s.cfg
}

func (s *Service) publish(ctx context.Context, ev events.Event) {
	if err := s.events.Publish(context.WithoutCancel(ctx), ev); err != nil {
		s.log.Warn("publish event failed", zap.String("type", ev.Type), zap.Uint("task_id", ev.TaskID), zap.Error(err))
	}
}
