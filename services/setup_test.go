package services

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/toorbo1/telegram-community1-sub000/config"
	"github.com/toorbo1/telegram-community1-sub000/database"
	"github.com/toorbo1/telegram-community1-sub000/events"
	"github.com/toorbo1/telegram-community1-sub000/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	mainAdminID int64 = 1000
	userID      int64 = 2001
	otherUserID int64 = 2002
)

type testEnv struct {
	svc      *Service
	db       *gorm.DB
	events   *events.Recorder
	notifier *recordingNotifier
	ctx      context.Context
}

type recordingNotifier struct {
	submitted   []uint
	resolved    []string
	withdrawals []uint
	paid        []uint
}

func (n *recordingNotifier) VerificationSubmitted(_ context.Context, v *models.Verification) {
	n.submitted = append(n.submitted, v.ID)
}

func (n *recordingNotifier) VerificationResolved(_ context.Context, v *models.Verification) {
	n.resolved = append(n.resolved, v.Status)
}

func (n *recordingNotifier) WithdrawalRequested(_ context.Context, w *models.Withdrawal) {
	n.withdrawals = append(n.withdrawals, w.ID)
}

func (n *recordingNotifier) WithdrawalCompleted(_ context.Context, w *models.Withdrawal) {
	n.paid = append(n.paid, w.ID)
}

func testConfig() *config.Config {
	return &config.Config{
		MainAdminID:           mainAdminID,
		WelcomeBonus:          10,
		ReferralBonusReferrer: 20,
		ReferralBonusReferred: 10,
		MinWithdrawal:         200,
		TaskExperience:        10,
		BotUsername:           "LinkGoldMoney_bot",
	}
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.Migrate(db))

	rec := &events.Recorder{}
	notifier := &recordingNotifier{}
	svc := New(db, testConfig(), zap.NewNop(), WithEvents(rec), WithNotifier(notifier))
	return &testEnv{svc: svc, db: db, events: rec, notifier: notifier, ctx: context.Background()}
}

// setupPooledEnv opens a file-backed database with several connections so
// concurrent calls really overlap. Writers queue on the busy timeout.
func setupPooledEnv(t *testing.T, conns int) *testEnv {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "linkgold.db") + "?_busy_timeout=10000&_txlock=immediate&_journal_mode=WAL"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(conns)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.Migrate(db))

	rec := &events.Recorder{}
	svc := New(db, testConfig(), zap.NewNop(), WithEvents(rec))
	return &testEnv{svc: svc, db: db, events: rec, ctx: context.Background()}
}

// addUser authenticates a user without a referral so the welcome bonus is
// already settled.
func (e *testEnv) addUser(t *testing.T, id int64, username string) *models.User {
	t.Helper()
	u, err := e.svc.AuthenticateUser(e.ctx, Identity{ID: id, FirstName: "User", Username: username}, "")
	require.NoError(t, err)
	return u
}

func (e *testEnv) setBalance(t *testing.T, id, balance int64) {
	t.Helper()
	require.NoError(t, e.db.Model(&models.User{}).Where("id = ?", id).Update("balance", balance).Error)
}

func (e *testEnv) user(t *testing.T, id int64) models.User {
	t.Helper()
	var u models.User
	require.NoError(t, e.db.First(&u, id).Error)
	return u
}

func (e *testEnv) task(t *testing.T, id uint) models.Task {
	t.Helper()
	var task models.Task
	require.NoError(t, e.db.First(&task, id).Error)
	return task
}

func (e *testEnv) createTask(t *testing.T, title string, price, people int64) *models.Task {
	t.Helper()
	task, err := e.svc.CreateTask(e.ctx, TaskInput{
		Title:          title,
		Description:    title + " description",
		Price:          price,
		Category:       models.CategorySubscribe,
		PeopleRequired: people,
	}, mainAdminID)
	require.NoError(t, err)
	return task
}

// submit starts the task for uid and submits a screenshot.
func (e *testEnv) submit(t *testing.T, uid int64, taskID uint) *models.Verification {
	t.Helper()
	ut, err := e.svc.StartTask(e.ctx, uid, taskID)
	require.NoError(t, err)
	_, v, err := e.svc.SubmitScreenshot(e.ctx, ut.ID, uid, "screenshots/proof.jpg")
	require.NoError(t, err)
	return v
}
