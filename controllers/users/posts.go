package users

import (
	"net/http"

	"github.com/toorbo1/telegram-community1-sub000/controllers"
	"github.com/toorbo1/telegram-community1-sub000/middleware"
	"github.com/toorbo1/telegram-community1-sub000/utils"
)

type ReactionRequest struct {
	Kind string `json:"kind" validate:"required,oneof=like dislike"`
}

// GET /api/users/posts?limit=
func (h *Handler) Posts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.svc.ListPosts(r.Context(), controllers.QueryInt(r, "limit", 20))
	if err != nil {
		controllers.WriteServiceError(w, r, h.log, err)
		return
	}
	controllers.OK(w, posts)
}

// POST /api/users/posts/{id}/react
func (h *Handler) React(w http.ResponseWriter, r *http.Request) {
	uid, ok := controllers.CurrentUser(w, r)
	if !ok {
		return
	}
	id, ok := controllers.PathID(r)
	if !ok {
		utils.WriteError(w, http.StatusBadRequest, "Invalid post id")
		return
	}
	var req ReactionRequest
	if err := middleware.ValidateJSON(w, r, &req); err != nil {
		return
	}
	post, err := h.svc.ReactToPost(r.Context(), uid, id, req.Kind)
	if err != nil {
		controllers.WriteServiceError(w, r, h.log, err)
		return
	}
	controllers.OK(w, post)
}
