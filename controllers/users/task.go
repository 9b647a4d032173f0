package users

import (
	"errors"
	"net/http"
	"strings"

	"github.com/toorbo1/telegram-community1-sub000/controllers"
	"github.com/toorbo1/telegram-community1-sub000/services"
	"github.com/toorbo1/telegram-community1-sub000/storage"
	"github.com/toorbo1/telegram-community1-sub000/utils"

	"go.uber.org/zap"
)

// GET /api/users/tasks?search=&category=
func (h *Handler) AvailableTasks(w http.ResponseWriter, r *http.Request) {
	uid, ok := controllers.CurrentUser(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	tasks, err := h.svc.ListAvailableTasks(r.Context(), uid, services.TaskFilter{
		Search:   q.Get("search"),
		Category: q.Get("category"),
	})
	if err != nil {
		controllers.WriteServiceError(w, r, h.log, err)
		return
	}
	controllers.OK(w, tasks)
}

// GET /api/users/tasks/{id}
func (h *Handler) TaskDetail(w http.ResponseWriter, r *http.Request) {
	id, ok := controllers.PathID(r)
	if !ok {
		utils.WriteError(w, http.StatusBadRequest, "Invalid task id")
		return
	}
	task, err := h.svc.GetTask(r.Context(), id)
	if err != nil {
		controllers.WriteServiceError(w, r, h.log, err)
		return
	}
	controllers.OK(w, task)
}

// GET /api/users/tasks/mine?status=
func (h *Handler) MyTasks(w http.ResponseWriter, r *http.Request) {
	uid, ok := controllers.CurrentUser(w, r)
	if !ok {
		return
	}
	list, err := h.svc.ListUserTasks(r.Context(), uid, strings.TrimSpace(r.URL.Query().Get("status")))
	if err != nil {
		controllers.WriteServiceError(w, r, h.log, err)
		return
	}
	controllers.OK(w, list)
}

// POST /api/users/tasks/{id}/start
func (h *Handler) StartTask(w http.ResponseWriter, r *http.Request) {
	uid, ok := controllers.CurrentUser(w, r)
	if !ok {
		return
	}
	id, ok := controllers.PathID(r)
	if !ok {
		utils.WriteError(w, http.StatusBadRequest, "Invalid task id")
		return
	}
	ut, err := h.svc.StartTask(r.Context(), uid, id)
	if err != nil {
		controllers.WriteServiceError(w, r, h.log, err)
		return
	}
	controllers.Created(w, "Task started", ut)
}

// POST /api/users/assignments/{id}/submit (multipart, field "screenshot")
func (h *Handler) SubmitTask(w http.ResponseWriter, r *http.Request) {
	uid, ok := controllers.CurrentUser(w, r)
	if !ok {
		return
	}
	id, ok := controllers.PathID(r)
	if !ok {
		utils.WriteError(w, http.StatusBadRequest, "Invalid assignment id")
		return
	}
	if err := r.ParseMultipartForm(storage.MaxScreenshotBytes + 1<<20); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Screenshot upload must be multipart/form-data")
		return
	}
	defer r.MultipartForm.RemoveAll()
	file, _, err := r.FormFile("screenshot")
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Screenshot file is required")
		return
	}
	defer file.Close()

	ref, err := storage.SaveScreenshot(r.Context(), h.store, uid, file)
	if err != nil {
		if errors.Is(err, storage.ErrUnsupportedImage) || errors.Is(err, storage.ErrTooLarge) {
			utils.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		controllers.WriteServiceError(w, r, h.log, err)
		return
	}

	ut, v, err := h.svc.SubmitScreenshot(r.Context(), id, uid, ref)
	if err != nil {
		if delErr := h.store.Delete(r.Context(), ref); delErr != nil {
			h.log.Warn("orphan screenshot left behind", zap.String("ref", ref), zap.Error(delErr))
		}
		controllers.WriteServiceError(w, r, h.log, err)
		return
	}
	controllers.Created(w, "Screenshot submitted for review", map[string]interface{}{
		"user_task":    ut,
		"verification": v,
	})
}

// POST /api/users/assignments/{id}/cancel
func (h *Handler) CancelTask(w http.ResponseWriter, r *http.Request) {
	uid, ok := controllers.CurrentUser(w, r)
	if !ok {
		return
	}
	id, ok := controllers.PathID(r)
	if !ok {
		utils.WriteError(w, http.StatusBadRequest, "Invalid assignment id")
		return
	}
	ut, err := h.svc.CancelTask(r.Context(), id, uid)
	if err != nil {
		controllers.WriteServiceError(w, r, h.log, err)
		return
	}
	controllers.OK(w, ut)
}
