package admins

import (
	"net/http"

	"github.com/toorbo1/telegram-community1-sub000/controllers"
	"github.com/toorbo1/telegram-community1-sub000/middleware"
	"github.com/toorbo1/telegram-community1-sub000/models"
	"github.com/toorbo1/telegram-community1-sub000/utils"

	"go.uber.org/zap"
)

type VerificationView struct {
	models.Verification
	ScreenshotLink string `json:"screenshot_link"`
}

type RejectRequest struct {
	Comment string `json:"comment" validate:"max=1000"`
}

// GET /api/admin/verifications
func (h *Handler) PendingVerifications(w http.ResponseWriter, r *http.Request) {
	uid, ok := controllers.CurrentUser(w, r)
	if !ok {
		return
	}
	list, err := h.svc.ListPendingVerifications(r.Context(), uid)
	if err != nil {
		controllers.WriteServiceError(w, r, h.log, err)
		return
	}
	out := make([]VerificationView, 0, len(list))
	for _, v := range list {
		link, err := h.store.URL(r.Context(), v.ScreenshotURL)
		if err != nil {
			h.log.Warn("screenshot link", zap.Uint("verification_id", v.ID), zap.Error(err))
		}
		out = append(out, VerificationView{Verification: v, ScreenshotLink: link})
	}
	controllers.OK(w, out)
}

// POST /api/admin/verifications/{id}/approve
func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	uid, ok := controllers.CurrentUser(w, r)
	if !ok {
		return
	}
	id, ok := controllers.PathID(r)
	if !ok {
		utils.WriteError(w, http.StatusBadRequest, "Invalid verification id")
		return
	}
	res, err := h.svc.ApproveVerification(r.Context(), id, uid)
	if err != nil {
		controllers.WriteServiceError(w, r, h.log, err)
		return
	}
	controllers.OK(w, res)
}

// POST /api/admin/verifications/{id}/reject, body optional
func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	uid, ok := controllers.CurrentUser(w, r)
	if !ok {
		return
	}
	id, ok := controllers.PathID(r)
	if !ok {
		utils.WriteError(w, http.StatusBadRequest, "Invalid verification id")
		return
	}
	var req RejectRequest
	if r.ContentLength > 0 {
		if err := middleware.ValidateJSON(w, r, &req); err != nil {
			return
		}
	}
	v, err := h.svc.RejectVerification(r.Context(), id, uid, req.Comment)
	if err != nil {
		controllers.WriteServiceError(w, r, h.log, err)
		return
	}
	controllers.OK(w, v)
}
