package controllers

import (
	"net/http"

	"github.com/toorbo1/telegram-community1-sub000/config"
	"github.com/toorbo1/telegram-community1-sub000/models"
	"github.com/toorbo1/telegram-community1-sub000/services"
)

type PublicInfo struct {
	BotUsername   string               `json:"bot_username"`
	MiniAppURL    string               `json:"mini_app_url,omitempty"`
	MinWithdrawal int64                `json:"min_withdrawal"`
	WelcomeBonus  int64                `json:"welcome_bonus"`
	ReferralBonus int64                `json:"referral_bonus"`
	Levels        []services.LevelInfo `json:"levels"`
	Categories    []string             `json:"categories"`
}

// InfoHandler serves GET /api/info, the static settings the Mini App shows
// before login.
func InfoHandler(cfg *config.Config) http.HandlerFunc {
	info := PublicInfo{
		BotUsername:   cfg.BotUsername,
		MiniAppURL:    cfg.MiniAppURL,
		MinWithdrawal: cfg.MinWithdrawal,
		WelcomeBonus:  cfg.WelcomeBonus,
		ReferralBonus: cfg.ReferralBonusReferrer,
		Levels:        services.Levels(),
		Categories:    models.TaskCategories,
	}
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=300")
		OK(w, info)
	}
}
