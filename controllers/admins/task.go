package admins

import (
	"net/http"

	"github.com/toorbo1/telegram-community1-sub000/controllers"
	"github.com/toorbo1/telegram-community1-sub000/middleware"
	"github.com/toorbo1/telegram-community1-sub000/services"
	"github.com/toorbo1/telegram-community1-sub000/utils"
)

// GET /api/admin/tasks?search=&category=&status=
func (h *Handler) Tasks(w http.ResponseWriter, r *http.Request) {
	uid, ok := controllers.CurrentUser(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	list, err := h.svc.ListTasks(r.Context(), uid, services.TaskFilter{
		Search:   q.Get("search"),
		Category: q.Get("category"),
	}, q.Get("status"))
	if err != nil {
		controllers.WriteServiceError(w, r, h.log, err)
		return
	}
	controllers.OK(w, list)
}

// POST /api/admin/tasks
func (h *Handler) CreateTask(w http.ResponseWriter, r *http.Request) {
	uid, ok := controllers.CurrentUser(w, r)
	if !ok {
		return
	}
	var in services.TaskInput
	if err := middleware.ValidateJSON(w, r, &in); err != nil {
		return
	}
	task, err := h.svc.CreateTask(r.Context(), in, uid)
	if err != nil {
		controllers.WriteServiceError(w, r, h.log, err)
		return
	}
	controllers.Created(w, "Task created", task)
}

// DELETE /api/admin/tasks/{id}
func (h *Handler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	uid, ok := controllers.CurrentUser(w, r)
	if !ok {
		return
	}
	id, ok := controllers.PathID(r)
	if !ok {
		utils.WriteError(w, http.StatusBadRequest, "Invalid task id")
		return
	}
	if err := h.svc.DeleteTask(r.Context(), id, uid); err != nil {
		controllers.WriteServiceError(w, r, h.log, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Task deleted"})
}
