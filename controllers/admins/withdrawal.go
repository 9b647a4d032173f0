package admins

import (
	"net/http"

	"github.com/toorbo1/telegram-community1-sub000/controllers"
	"github.com/toorbo1/telegram-community1-sub000/utils"
)

// GET /api/admin/withdrawals
func (h *Handler) PendingWithdrawals(w http.ResponseWriter, r *http.Request) {
	uid, ok := controllers.CurrentUser(w, r)
	if !ok {
		return
	}
	list, err := h.svc.ListPendingWithdrawals(r.Context(), uid)
	if err != nil {
		controllers.WriteServiceError(w, r, h.log, err)
		return
	}
	controllers.OK(w, list)
}

// POST /api/admin/withdrawals/{id}/complete
func (h *Handler) CompleteWithdrawal(w http.ResponseWriter, r *http.Request) {
	uid, ok := controllers.CurrentUser(w, r)
	if !ok {
		return
	}
	id, ok := controllers.PathID(r)
	if !ok {
		utils.WriteError(w, http.StatusBadRequest, "Invalid withdrawal id")
		return
	}
	wd, err := h.svc.CompleteWithdrawal(r.Context(), id, uid)
	if err != nil {
		controllers.WriteServiceError(w, r, h.log, err)
		return
	}
	controllers.OK(w, wd)
}
