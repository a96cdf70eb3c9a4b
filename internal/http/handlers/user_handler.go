// README: User handlers (contact lookup).
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/DSAW-2025-II/entrega-final-be-byte-me/internal/logger"
	"github.com/DSAW-2025-II/entrega-final-be-byte-me/internal/modules/user"
)

type UserHandler struct {
	users *user.Service
	log   logger.Logger
}

func NewUserHandler(users *user.Service, log logger.Logger) *UserHandler {
	if log == nil {
		log = logger.NewNop()
	}
	return &UserHandler{users: users, log: log}
}

// Phone serves GET /api/users/phone?firebase_uid=...|user_id=...
func (h *UserHandler) Phone(c *gin.Context) {
	phone, err := h.users.Phone(c.Request.Context(), user.PhoneQuery{
		UID:    c.Query("firebase_uid"),
		UserID: c.Query("user_id"),
	})
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"phone": phone})
}
