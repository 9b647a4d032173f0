package users

import (
	"github.com/toorbo1/telegram-community1-sub000/services"
	"github.com/toorbo1/telegram-community1-sub000/storage"

	"go.uber.org/zap"
)

// Handler serves the Mini App endpoints of a signed-in user.
type Handler struct {
	svc   *services.Service
	store storage.Store
	log   *zap.Logger
}

func NewHandler(svc *services.Service, store storage.Store, log *zap.Logger) *Handler {
	return &Handler{svc: svc, store: store, log: log}
}
