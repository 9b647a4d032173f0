package routes

import (
	"net/http"
	"time"

	"github.com/toorbo1/telegram-community1-sub000/config"
	"github.com/toorbo1/telegram-community1-sub000/controllers"
	"github.com/toorbo1/telegram-community1-sub000/controllers/auth"
	"github.com/toorbo1/telegram-community1-sub000/middleware"
	"github.com/toorbo1/telegram-community1-sub000/services"
	"github.com/toorbo1/telegram-community1-sub000/storage"
	"github.com/toorbo1/telegram-community1-sub000/utils"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type Deps struct {
	Config  *config.Config
	Service *services.Service
	Tokens  *utils.TokenManager
	Store   storage.Store
	Tracker *middleware.SlowTracker
	Log     *zap.Logger
}

// Limiters collects the rate limiters built for the route groups so main can
// sweep them periodically.
type Limiters struct {
	ip   []*middleware.IPRateLimiter
	user []*middleware.UserRateLimiter
}

func (l *Limiters) Cleanup() {
	for _, lim := range l.ip {
		lim.Cleanup()
	}
	for _, lim := range l.user {
		lim.Cleanup()
	}
}

func optionsHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func InitRouter(d Deps) (*mux.Router, *Limiters) {
	r := mux.NewRouter()
	limiters := &Limiters{}

	r.Use(func(next http.Handler) http.Handler {
		return handlers.CORS(
			handlers.AllowedOrigins(d.Config.AllowedOrigins),
			handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
			handlers.AllowedHeaders([]string{"Content-Type", "Authorization", "X-Requested-With", "X-Request-ID"}),
			handlers.MaxAge(600),
		)(next)
	})
	r.Use(middleware.Metrics(d.Tracker))

	// Screenshots saved on local disk; R2 objects are served through presigned links.
	if local, ok := d.Store.(*storage.LocalStore); ok {
		r.PathPrefix("/uploads/").Handler(http.StripPrefix("/uploads/", http.FileServer(http.Dir(local.Dir())))).Methods(http.MethodGet)
	}

	api := r.PathPrefix("/api").Subrouter()
	api.PathPrefix("/").HandlerFunc(optionsHandler).Methods(http.MethodOptions)

	publicLimiter := middleware.NewIPRateLimiter(120, time.Minute, d.Config.TrustedProxies)
	loginLimiter := middleware.NewIPRateLimiter(30, 5*time.Minute, d.Config.TrustedProxies)
	limiters.ip = append(limiters.ip, publicLimiter, loginLimiter)

	api.Handle("/info", publicLimiter.Middleware(controllers.InfoHandler(d.Config))).Methods(http.MethodGet)

	authController := auth.NewController(d.Service, d.Tokens, d.Config, d.Log)
	api.Handle("/auth/telegram", loginLimiter.Middleware(http.HandlerFunc(authController.Login))).Methods(http.MethodPost)
	api.Handle("/auth/logout", middleware.Auth(d.Tokens)(http.HandlerFunc(authController.Logout))).Methods(http.MethodPost)

	limiters.user = append(limiters.user, UsersRoutes(api, d))
	SetAdminRoutes(api, d)

	return r, limiters
}
