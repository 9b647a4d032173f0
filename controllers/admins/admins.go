package admins

import (
	"net/http"

	"github.com/toorbo1/telegram-community1-sub000/controllers"
	"github.com/toorbo1/telegram-community1-sub000/middleware"
	"github.com/toorbo1/telegram-community1-sub000/utils"
)

type AddAdminRequest struct {
	UserID int64 `json:"user_id" validate:"gt=0"`
}

// GET /api/admin/admins
func (h *Handler) Admins(w http.ResponseWriter, r *http.Request) {
	uid, ok := controllers.CurrentUser(w, r)
	if !ok {
		return
	}
	list, err := h.svc.ListAdmins(r.Context(), uid)
	if err != nil {
		controllers.WriteServiceError(w, r, h.log, err)
		return
	}
	controllers.OK(w, list)
}

// POST /api/admin/admins
func (h *Handler) AddAdmin(w http.ResponseWriter, r *http.Request) {
	uid, ok := controllers.CurrentUser(w, r)
	if !ok {
		return
	}
	var req AddAdminRequest
	if err := middleware.ValidateJSON(w, r, &req); err != nil {
		return
	}
	if err := h.svc.AddAdmin(r.Context(), uid, req.UserID); err != nil {
		controllers.WriteServiceError(w, r, h.log, err)
		return
	}
	controllers.Created(w, "Admin added", map[string]int64{"user_id": req.UserID})
}

// DELETE /api/admin/admins/{id}
func (h *Handler) RemoveAdmin(w http.ResponseWriter, r *http.Request) {
	uid, ok := controllers.CurrentUser(w, r)
	if !ok {
		return
	}
	target, ok := controllers.PathUserID(r)
	if !ok {
		utils.WriteError(w, http.StatusBadRequest, "Invalid user id")
		return
	}
	if err := h.svc.RemoveAdmin(r.Context(), uid, target); err != nil {
		controllers.WriteServiceError(w, r, h.log, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Admin removed"})
}
