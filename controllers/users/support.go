package users

import (
	"net/http"

	"github.com/toorbo1/telegram-community1-sub000/controllers"
	"github.com/toorbo1/telegram-community1-sub000/middleware"
)

type SupportMessageRequest struct {
	Body string `json:"body" validate:"required,max=2000"`
}

// GET /api/users/support
func (h *Handler) SupportChat(w http.ResponseWriter, r *http.Request) {
	uid, ok := controllers.CurrentUser(w, r)
	if !ok {
		return
	}
	chat, err := h.svc.OpenChat(r.Context(), uid)
	if err != nil {
		controllers.WriteServiceError(w, r, h.log, err)
		return
	}
	controllers.OK(w, chat)
}

// GET /api/users/support/messages
func (h *Handler) SupportMessages(w http.ResponseWriter, r *http.Request) {
	uid, ok := controllers.CurrentUser(w, r)
	if !ok {
		return
	}
	chat, err := h.svc.OpenChat(r.Context(), uid)
	if err != nil {
		controllers.WriteServiceError(w, r, h.log, err)
		return
	}
	msgs, err := h.svc.ListMessages(r.Context(), uid, chat.ID)
	if err != nil {
		controllers.WriteServiceError(w, r, h.log, err)
		return
	}
	controllers.OK(w, msgs)
}

// POST /api/users/support
func (h *Handler) SendSupportMessage(w http.ResponseWriter, r *http.Request) {
	uid, ok := controllers.CurrentUser(w, r)
	if !ok {
		return
	}
	var req SupportMessageRequest
	if err := middleware.ValidateJSON(w, r, &req); err != nil {
		return
	}
	msg, err := h.svc.SendUserMessage(r.Context(), uid, req.Body)
	if err != nil {
		controllers.WriteServiceError(w, r, h.log, err)
		return
	}
	controllers.Created(w, "Message sent", msg)
}
