package routes

import (
	"net/http"
	"time"

	"github.com/toorbo1/telegram-community1-sub000/controllers/users"
	"github.com/toorbo1/telegram-community1-sub000/middleware"

	"github.com/gorilla/mux"
)

// UsersRoutes registers the Mini App endpoints under /users and returns the
// per-user limiter guarding them.
func UsersRoutes(api *mux.Router, d Deps) *middleware.UserRateLimiter {
	// 120 reads, 60 writes and 10 uploads per user per minute
	userLimiter := middleware.NewUserRateLimiter(120, 60, 10, time.Minute)
	h := users.NewHandler(d.Service, d.Store, d.Log)

	ur := api.PathPrefix("/users").Subrouter()
	ur.Use(middleware.Auth(d.Tokens))
	ur.Use(userLimiter.Middleware)

	ur.Handle("/profile", http.HandlerFunc(h.Profile)).Methods(http.MethodGet)

	// Tasks
	ur.Handle("/tasks", http.HandlerFunc(h.AvailableTasks)).Methods(http.MethodGet)
	ur.Handle("/tasks/mine", http.HandlerFunc(h.MyTasks)).Methods(http.MethodGet)
	ur.Handle("/tasks/{id:[0-9]+}", http.HandlerFunc(h.TaskDetail)).Methods(http.MethodGet)
	ur.Handle("/tasks/{id:[0-9]+}/start", http.HandlerFunc(h.StartTask)).Methods(http.MethodPost)
	ur.Handle("/assignments/{id:[0-9]+}/submit", http.HandlerFunc(h.SubmitTask)).Methods(http.MethodPost)
	ur.Handle("/assignments/{id:[0-9]+}/cancel", http.HandlerFunc(h.CancelTask)).Methods(http.MethodPost)

	// Money
	ur.Handle("/withdrawals", http.HandlerFunc(h.RequestWithdrawal)).Methods(http.MethodPost)
	ur.Handle("/withdrawals", http.HandlerFunc(h.Withdrawals)).Methods(http.MethodGet)
	ur.Handle("/transactions", http.HandlerFunc(h.Transactions)).Methods(http.MethodGet)

	// Referrals
	ur.Handle("/referrals", http.HandlerFunc(h.Referrals)).Methods(http.MethodGet)
	ur.Handle("/referrals/qr", http.HandlerFunc(h.ReferralQR)).Methods(http.MethodGet)

	// Support
	ur.Handle("/support", http.HandlerFunc(h.SupportChat)).Methods(http.MethodGet)
	ur.Handle("/support", http.HandlerFunc(h.SendSupportMessage)).Methods(http.MethodPost)
	ur.Handle("/support/messages", http.HandlerFunc(h.SupportMessages)).Methods(http.MethodGet)

	// Posts
	ur.Handle("/posts", http.HandlerFunc(h.Posts)).Methods(http.MethodGet)
	ur.Handle("/posts/{id:[0-9]+}/react", http.HandlerFunc(h.React)).Methods(http.MethodPost)

	return userLimiter
}
