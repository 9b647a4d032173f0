package auth

import (
	"errors"
	"net/http"
	"time"

	"github.com/toorbo1/telegram-community1-sub000/config"
	"github.com/toorbo1/telegram-community1-sub000/controllers"
	"github.com/toorbo1/telegram-community1-sub000/middleware"
	"github.com/toorbo1/telegram-community1-sub000/services"
	"github.com/toorbo1/telegram-community1-sub000/utils"

	"go.uber.org/zap"
)

type Controller struct {
	svc    *services.Service
	tokens *utils.TokenManager
	cfg    *config.Config
	log    *zap.Logger
}

func NewController(svc *services.Service, tokens *utils.TokenManager, cfg *config.Config, log *zap.Logger) *Controller {
	return &Controller{svc: svc, tokens: tokens, cfg: cfg, log: log}
}

type LoginRequest struct {
	InitData   string `json:"init_data" validate:"max=4096"`
	StartParam string `json:"start_param" validate:"max=64"`
	// DevUser stands in for initData when DEV_MODE is on outside production.
	DevUser *utils.WebAppUser `json:"dev_user,omitempty"`
}

type LoginResponse struct {
	Token     string            `json:"token"`
	ExpiresAt time.Time         `json:"expires_at"`
	Profile   *services.Profile `json:"profile"`
}

// POST /api/auth/telegram
func (c *Controller) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := middleware.ValidateJSON(w, r, &req); err != nil {
		return
	}

	identity, startParam, err := c.identify(req)
	if err != nil {
		c.log.Info("telegram login rejected", zap.Error(err))
		utils.WriteError(w, http.StatusUnauthorized, "Invalid Telegram session, please reopen the app")
		return
	}

	user, err := c.svc.AuthenticateUser(r.Context(), identity, startParam)
	if err != nil {
		controllers.WriteServiceError(w, r, c.log, err)
		return
	}
	profile, err := c.svc.GetProfile(r.Context(), user.ID)
	if err != nil {
		controllers.WriteServiceError(w, r, c.log, err)
		return
	}

	role := "user"
	if profile.IsAdminAccount {
		role = "admin"
	}
	token, exp, err := c.tokens.Issue(user.ID, role)
	if err != nil {
		controllers.WriteServiceError(w, r, c.log, err)
		return
	}
	controllers.OK(w, LoginResponse{Token: token, ExpiresAt: exp, Profile: profile})
}

func (c *Controller) identify(req LoginRequest) (services.Identity, string, error) {
	if req.InitData == "" {
		if c.cfg.DevMode && !c.cfg.IsProduction() && req.DevUser != nil && req.DevUser.ID > 0 {
			u := req.DevUser
			return services.Identity{ID: u.ID, FirstName: u.FirstName, LastName: u.LastName, Username: u.Username}, req.StartParam, nil
		}
		return services.Identity{}, "", errors.New("init_data is required")
	}
	data, err := utils.ValidateWebAppData(req.InitData, c.cfg.BotToken, c.cfg.InitDataTTL)
	if err != nil {
		return services.Identity{}, "", err
	}
	startParam := data.StartParam
	if startParam == "" {
		startParam = req.StartParam
	}
	u := data.User
	return services.Identity{ID: u.ID, FirstName: u.FirstName, LastName: u.LastName, Username: u.Username}, startParam, nil
}

// POST /api/auth/logout
func (c *Controller) Logout(w http.ResponseWriter, r *http.Request) {
	claims, ok := utils.ClaimsFrom(r.Context())
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	if err := c.tokens.Revoke(r.Context(), claims); err != nil {
		c.log.Warn("token revocation failed", zap.Int64("user_id", claims.UserID), zap.Error(err))
	}
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Logged out"})
}
