package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/coursekit/scormlite-backend/internal/http/response"
	"github.com/coursekit/scormlite-backend/internal/platform/ctxutil"
	"github.com/coursekit/scormlite-backend/internal/platform/logger"
	"github.com/coursekit/scormlite-backend/internal/services"
	"github.com/coursekit/scormlite-backend/internal/types"
)

type SessionHandler struct {
	log      *logger.Logger
	sessions services.SessionService
}

func NewSessionHandler(log *logger.Logger, sessions services.SessionService) *SessionHandler {
	return &SessionHandler{log: log.With("handler", "SessionHandler"), sessions: sessions}
}

func (sh *SessionHandler) Launch(c *gin.Context) {
	var req struct {
		ItemIndex int `json:"item_index"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	var learner *types.User
	if rd := ctxutil.GetRequestData(c.Request.Context()); rd != nil {
		learner = &types.User{ID: rd.UserID, Email: rd.Email, Name: rd.Name}
	}

	result, err := sh.sessions.Launch(c.Request.Context(), learner, c.Param("id"), req.ItemIndex)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrPackageNotFound):
			response.RespondError(c, http.StatusNotFound, "not_found", err)
		case errors.Is(err, services.ErrPackageDegraded):
			response.RespondError(c, http.StatusConflict, "degraded", err)
		case errors.Is(err, services.ErrItemNotLaunchable):
			response.RespondError(c, http.StatusBadRequest, "item_not_launchable", err)
		default:
			response.RespondError(c, http.StatusInternalServerError, "launch_failed", err)
		}
		return
	}
	response.RespondOK(c, result)
}

// Invoke runs one protocol call against a live session. The result is the
// protocol's own string return value; protocol-level failures ("false", an
// error code) are successful HTTP responses.
func (sh *SessionHandler) Invoke(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_session_id", err)
		return
	}
	var req struct {
		Method string   `json:"method"`
		Args   []string `json:"args"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	result, err := sh.sessions.Invoke(sessionID, req.Method, req.Args)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrSessionNotFound):
			response.RespondError(c, http.StatusNotFound, "session_not_found", err)
		case errors.Is(err, services.ErrUnknownMethod):
			response.RespondError(c, http.StatusBadRequest, "unknown_method", err)
		default:
			response.RespondError(c, http.StatusInternalServerError, "invoke_failed", err)
		}
		return
	}
	response.RespondOK(c, gin.H{"result": result})
}

func (sh *SessionHandler) End(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_session_id", err)
		return
	}
	if err := sh.sessions.End(sessionID); err != nil {
		response.RespondError(c, http.StatusNotFound, "session_not_found", err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}
