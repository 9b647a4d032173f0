package admins

import (
	"context"
	"net/http"

	"github.com/toorbo1/telegram-community1-sub000/controllers"
	"github.com/toorbo1/telegram-community1-sub000/middleware"
	"github.com/toorbo1/telegram-community1-sub000/utils"
)

type ReplyRequest struct {
	Body string `json:"body" validate:"required,max=2000"`
}

// GET /api/admin/support?archived=
func (h *Handler) Chats(w http.ResponseWriter, r *http.Request) {
	uid, ok := controllers.CurrentUser(w, r)
	if !ok {
		return
	}
	list, err := h.svc.ListChats(r.Context(), uid, controllers.QueryBool(r, "archived"))
	if err != nil {
		controllers.WriteServiceError(w, r, h.log, err)
		return
	}
	controllers.OK(w, list)
}

// GET /api/admin/support/{id}/messages
func (h *Handler) ChatMessages(w http.ResponseWriter, r *http.Request) {
	uid, ok := controllers.CurrentUser(w, r)
	if !ok {
		return
	}
	id, ok := controllers.PathID(r)
	if !ok {
		utils.WriteError(w, http.StatusBadRequest, "Invalid chat id")
		return
	}
	msgs, err := h.svc.ListMessages(r.Context(), uid, id)
	if err != nil {
		controllers.WriteServiceError(w, r, h.log, err)
		return
	}
	controllers.OK(w, msgs)
}

// POST /api/admin/support/{id}/messages
func (h *Handler) Reply(w http.ResponseWriter, r *http.Request) {
	uid, ok := controllers.CurrentUser(w, r)
	if !ok {
		return
	}
	id, ok := controllers.PathID(r)
	if !ok {
		utils.WriteError(w, http.StatusBadRequest, "Invalid chat id")
		return
	}
	var req ReplyRequest
	if err := middleware.ValidateJSON(w, r, &req); err != nil {
		return
	}
	msg, err := h.svc.SendAdminMessage(r.Context(), uid, id, req.Body)
	if err != nil {
		controllers.WriteServiceError(w, r, h.log, err)
		return
	}
	controllers.Created(w, "Reply sent", msg)
}

// POST /api/admin/support/{id}/archive
func (h *Handler) Archive(w http.ResponseWriter, r *http.Request) {
	h.chatAction(w, r, "Chat archived", h.svc.ArchiveChat)
}

// POST /api/admin/support/{id}/restore
func (h *Handler) Restore(w http.ResponseWriter, r *http.Request) {
	h.chatAction(w, r, "Chat restored", h.svc.RestoreChat)
}

// DELETE /api/admin/support/{id}
func (h *Handler) DeleteChat(w http.ResponseWriter, r *http.Request) {
	h.chatAction(w, r, "Chat deleted", h.svc.DeleteChat)
}

func (h *Handler) chatAction(w http.ResponseWriter, r *http.Request, msg string, action func(ctx context.Context, adminID int64, chatID uint) error) {
	uid, ok := controllers.CurrentUser(w, r)
	if !ok {
		return
	}
	id, ok := controllers.PathID(r)
	if !ok {
		utils.WriteError(w, http.StatusBadRequest, "Invalid chat id")
		return
	}
	if err := action(r.Context(), uid, id); err != nil {
		controllers.WriteServiceError(w, r, h.log, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: msg})
}
