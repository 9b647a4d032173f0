package admins

import (
	"github.com/toorbo1/telegram-community1-sub000/services"
	"github.com/toorbo1/telegram-community1-sub000/storage"

	"go.uber.org/zap"
)

// Handler serves /api/admin. The route group already ran AdminOnly; each
// service call checks the role again inside its transaction.
type Handler struct {
	svc   *services.Service
	store storage.Store
	log   *zap.Logger
}

func NewHandler(svc *services.Service, store storage.Store, log *zap.Logger) *Handler {
	return &Handler{svc: svc, store: store, log: log}
}
