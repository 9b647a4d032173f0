package admins

import (
	"net/http"

	"github.com/toorbo1/telegram-community1-sub000/controllers"
	"github.com/toorbo1/telegram-community1-sub000/middleware"
	"github.com/toorbo1/telegram-community1-sub000/utils"
)

type PostRequest struct {
	Title   string `json:"title" validate:"required,max=255"`
	Content string `json:"content" validate:"required"`
}

// POST /api/admin/posts
func (h *Handler) CreatePost(w http.ResponseWriter, r *http.Request) {
	uid, ok := controllers.CurrentUser(w, r)
	if !ok {
		return
	}
	var req PostRequest
	if err := middleware.ValidateJSON(w, r, &req); err != nil {
		return
	}
	post, err := h.svc.CreatePost(r.Context(), uid, req.Title, req.Content)
	if err != nil {
		controllers.WriteServiceError(w, r, h.log, err)
		return
	}
	controllers.Created(w, "Post published", post)
}

// DELETE /api/admin/posts/{id}
func (h *Handler) DeletePost(w http.ResponseWriter, r *http.Request) {
	uid, ok := controllers.CurrentUser(w, r)
	if !ok {
		return
	}
	id, ok := controllers.PathID(r)
	if !ok {
		utils.WriteError(w, http.StatusBadRequest, "Invalid post id")
		return
	}
	if err := h.svc.DeletePost(r.Context(), uid, id); err != nil {
		controllers.WriteServiceError(w, r, h.log, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Post deleted"})
}
