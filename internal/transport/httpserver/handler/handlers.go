package handler

import (
	"net/http"

	"latergram-go/internal/auth"
	albumdomain "latergram-go/internal/domain/album"
	userdomain "latergram-go/internal/domain/user"
	"latergram-go/pkg/logger"
)

type Handlers struct {
	Albums *albumdomain.Service
	Users  *userdomain.Service
	Auth   *auth.Client
	log    logger.Logger
}

func New(albums *albumdomain.Service, users *userdomain.Service, authClient *auth.Client, log logger.Logger) *Handlers {
	return &Handlers{
		Albums: albums,
		Users:  users,
		Auth:   authClient,
		log:    log,
	}
}

func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
