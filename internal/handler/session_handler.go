package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/class-series-api/internal/service"
	appErrors "github.com/noah-isme/class-series-api/pkg/errors"
	"github.com/noah-isme/class-series-api/pkg/response"
)

// SessionHandler exposes the caller's session-scoped detector state.
type SessionHandler struct {
	expirations expirationService
}

// NewSessionHandler constructs SessionHandler.
func NewSessionHandler(expirations expirationService) *SessionHandler {
	return &SessionHandler{expirations: expirations}
}

// Proposals godoc
// @Summary List extension proposals delivered to this session
// @Tags Sessions
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /sessions/current/proposals [get]
func (h *SessionHandler) Proposals(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	proposals, err := h.expirations.Pending(c.Request.Context(), service.SessionKey(claims))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, proposals)
}

// End godoc
// @Summary Drop the session state on logout
// @Tags Sessions
// @Success 204
// @Router /sessions/current [delete]
func (h *SessionHandler) End(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.expirations.EndSession(c.Request.Context(), service.SessionKey(claims)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
