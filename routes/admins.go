package routes

import (
	"net/http"

	"github.com/toorbo1/telegram-community1-sub000/controllers/admins"
	"github.com/toorbo1/telegram-community1-sub000/middleware"

	"github.com/gorilla/mux"
)

func SetAdminRoutes(api *mux.Router, d Deps) {
	h := admins.NewHandler(d.Service, d.Store, d.Log)

	adminRouter := api.PathPrefix("/admin").Subrouter()
	adminRouter.Use(middleware.Auth(d.Tokens))
	adminRouter.Use(middleware.AdminOnly(d.Service))

	// Verification queue
	adminRouter.Handle("/verifications", http.HandlerFunc(h.PendingVerifications)).Methods(http.MethodGet)
	adminRouter.Handle("/verifications/{id:[0-9]+}/approve", http.HandlerFunc(h.Approve)).Methods(http.MethodPost)
	adminRouter.Handle("/verifications/{id:[0-9]+}/reject", http.HandlerFunc(h.Reject)).Methods(http.MethodPost)

	// Task catalog
	adminRouter.Handle("/tasks", http.HandlerFunc(h.Tasks)).Methods(http.MethodGet)
	adminRouter.Handle("/tasks", http.HandlerFunc(h.CreateTask)).Methods(http.MethodPost)
	adminRouter.Handle("/tasks/{id:[0-9]+}", http.HandlerFunc(h.DeleteTask)).Methods(http.MethodDelete)

	// Withdrawals
	adminRouter.Handle("/withdrawals", http.HandlerFunc(h.PendingWithdrawals)).Methods(http.MethodGet)
	adminRouter.Handle("/withdrawals/{id:[0-9]+}/complete", http.HandlerFunc(h.CompleteWithdrawal)).Methods(http.MethodPost)

	// Admin directory
	adminRouter.Handle("/admins", http.HandlerFunc(h.Admins)).Methods(http.MethodGet)
	adminRouter.Handle("/admins", http.HandlerFunc(h.AddAdmin)).Methods(http.MethodPost)
	adminRouter.Handle("/admins/{id:[0-9]+}", http.HandlerFunc(h.RemoveAdmin)).Methods(http.MethodDelete)

	// Support desk
	adminRouter.Handle("/support", http.HandlerFunc(h.Chats)).Methods(http.MethodGet)
	adminRouter.Handle("/support/{id:[0-9]+}/messages", http.HandlerFunc(h.ChatMessages)).Methods(http.MethodGet)
	adminRouter.Handle("/support/{id:[0-9]+}/messages", http.HandlerFunc(h.Reply)).Methods(http.MethodPost)
	adminRouter.Handle("/support/{id:[0-9]+}/archive", http.HandlerFunc(h.Archive)).Methods(http.MethodPost)
	adminRouter.Handle("/support/{id:[0-9]+}/restore", http.HandlerFunc(h.Restore)).Methods(http.MethodPost)
	adminRouter.Handle("/support/{id:[0-9]+}", http.HandlerFunc(h.DeleteChat)).Methods(http.MethodDelete)

	// Posts
	adminRouter.Handle("/posts", http.HandlerFunc(h.CreatePost)).Methods(http.MethodPost)
	adminRouter.Handle("/posts/{id:[0-9]+}", http.HandlerFunc(h.DeletePost)).Methods(http.MethodDelete)
}
