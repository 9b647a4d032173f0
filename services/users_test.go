package services

import (
	"testing"

	"github.com/toorbo1/telegram-community1-sub000/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthenticateUser(t *testing.T) {
	env := setupTestEnv(t)

	_, err := env.svc.AuthenticateUser(env.ctx, Identity{}, "")
	assert.ErrorIs(t, err, ErrValidation)

	u, err := env.svc.AuthenticateUser(env.ctx, Identity{ID: userID, FirstName: "Alice", Username: "alice"}, "")
	require.NoError(t, err)
	assert.Equal(t, 1, u.Level)
	assert.Len(t, u.ReferralCode, referralCodeLength)
	assert.False(t, u.IsAdmin)

	u2, err := env.svc.AuthenticateUser(env.ctx, Identity{ID: userID, FirstName: "Alicia", LastName: "K", Username: "alicia"}, "")
	require.NoError(t, err)
	assert.Equal(t, u.ReferralCode, u2.ReferralCode)
	assert.Equal(t, "Alicia K", u2.DisplayName())
	assert.Equal(t, "alicia", u2.Username)
	assert.Equal(t, u.Balance, u2.Balance)

	admin := env.addUser(t, mainAdminID, "boss")
	assert.True(t, admin.IsAdmin)

	var count int64
	require.NoError(t, env.db.Model(&models.User{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestGetProfile(t *testing.T) {
	env := setupTestEnv(t)
	u := env.addUser(t, userID, "alice")
	require.NoError(t, env.db.Model(&models.User{}).Where("id = ?", userID).Update("tasks_completed", 5).Error)

	p, err := env.svc.GetProfile(env.ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, "Новичок", p.LevelName)
	assert.Equal(t, int64(10), p.NextLevelAt)
	assert.Equal(t, 50, p.LevelProgress)
	assert.Equal(t, "https://t.me/LinkGoldMoney_bot?start=ref_"+u.ReferralCode, p.ReferralLink)
	assert.False(t, p.IsAdminAccount)

	_, err = env.svc.GetProfile(env.ctx, 404)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGenerateReferralCode(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		code, err := generateReferralCode(referralCodeLength)
		require.NoError(t, err)
		assert.Regexp(t, `^[A-Z0-9]{8}$`, code)
		seen[code] = true
	}
	assert.Greater(t, len(seen), 45)
}
