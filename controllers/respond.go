package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/toorbo1/telegram-community1-sub000/services"
	"github.com/toorbo1/telegram-community1-sub000/utils"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// StatusFor maps a service error to its HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrValidation),
		errors.Is(err, services.ErrBelowMinimum),
		errors.Is(err, services.ErrInvalidReferral):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrAlreadyResolved),
		errors.Is(err, services.ErrAlreadyCompleted),
		errors.Is(err, services.ErrTaskInProgress),
		errors.Is(err, services.ErrTaskDone),
		errors.Is(err, services.ErrInvalidState):
		return http.StatusConflict
	case errors.Is(err, services.ErrQuotaExceeded),
		errors.Is(err, services.ErrInsufficientBalance):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// WriteServiceError answers with the mapped status. Unexpected errors are
// logged and hidden behind a generic message.
func WriteServiceError(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		rid, _ := r.Context().Value(utils.RequestIDKey).(string)
		log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", rid),
			zap.Error(err))
		utils.WriteError(w, status, "Internal server error, please try again")
		return
	}
	utils.WriteError(w, status, err.Error())
}

func OK(w http.ResponseWriter, data interface{}) {
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Successfully", Data: data})
}

func Created(w http.ResponseWriter, message string, data interface{}) {
	utils.WriteJSON(w, http.StatusCreated, utils.APIResponse{Success: true, Message: message, Data: data})
}

// PathID parses the {id} route variable.
func PathID(r *http.Request) (uint, bool) {
	n, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}

// PathUserID parses the {id} route variable as a Telegram user id.
func PathUserID(r *http.Request) (int64, bool) {
	n, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

func QueryBool(r *http.Request, key string) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(r.URL.Query().Get(key)))
	return err == nil && v
}

func QueryInt(r *http.Request, key string, def int) int {
	if v, err := strconv.Atoi(r.URL.Query().Get(key)); err == nil {
		return v
	}
	return def
}

// CurrentUser returns the authenticated user id or answers 401.
func CurrentUser(w http.ResponseWriter, r *http.Request) (int64, bool) {
	uid, ok := utils.GetUserID(r)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, "Unauthorized")
	}
	return uid, ok
}
