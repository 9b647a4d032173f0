package users

import (
	"net/http"

	"github.com/toorbo1/telegram-community1-sub000/controllers"

	qrcode "github.com/skip2/go-qrcode"
	"go.uber.org/zap"
)

// GET /api/users/profile
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	uid, ok := controllers.CurrentUser(w, r)
	if !ok {
		return
	}
	profile, err := h.svc.GetProfile(r.Context(), uid)
	if err != nil {
		controllers.WriteServiceError(w, r, h.log, err)
		return
	}
	controllers.OK(w, profile)
}

// GET /api/users/referrals
func (h *Handler) Referrals(w http.ResponseWriter, r *http.Request) {
	uid, ok := controllers.CurrentUser(w, r)
	if !ok {
		return
	}
	profile, err := h.svc.GetProfile(r.Context(), uid)
	if err != nil {
		controllers.WriteServiceError(w, r, h.log, err)
		return
	}
	list, err := h.svc.ListReferrals(r.Context(), uid)
	if err != nil {
		controllers.WriteServiceError(w, r, h.log, err)
		return
	}
	controllers.OK(w, map[string]interface{}{
		"referral_code":   profile.ReferralCode,
		"referral_link":   profile.ReferralLink,
		"referral_count":  profile.ReferralCount,
		"referral_earned": profile.ReferralEarned,
		"referrals":       list,
	})
}

// GET /api/users/referrals/qr returns the invite link as a PNG QR code.
func (h *Handler) ReferralQR(w http.ResponseWriter, r *http.Request) {
	uid, ok := controllers.CurrentUser(w, r)
	if !ok {
		return
	}
	user, err := h.svc.GetUser(r.Context(), uid)
	if err != nil {
		controllers.WriteServiceError(w, r, h.log, err)
		return
	}
	png, err := qrcode.Encode(h.svc.ReferralLink(user.ReferralCode), qrcode.Medium, 256)
	if err != nil {
		controllers.WriteServiceError(w, r, h.log, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(png); err != nil {
		h.log.Debug("write qr", zap.Error(err))
	}
}
