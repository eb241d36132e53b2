package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/yoockh/yoointerview/internal/models"
	"github.com/yoockh/yoointerview/internal/utils"
)

type APIError struct {
	Code    utils.Code `json:"code"`
	Message string     `json:"message"`
}

func writeError(c *gin.Context, err error) {
	status := utils.HTTPStatus(err)
	_ = c.Error(err)

	var ae *utils.AppError
	if errors.As(err, &ae) {
		c.JSON(status, APIError{
			Code:    ae.Code,
			Message: ae.Message,
		})
		return
	}

	c.JSON(status, APIError{
		Code:    utils.CodeInternal,
		Message: http.StatusText(status),
	})
}

// userID is the authenticated subject, or "" when auth is disabled.
func userID(c *gin.Context) string {
	if v, ok := c.Get("user_id"); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func requireUserID(c *gin.Context) (string, bool) {
	if id := userID(c); id != "" {
		return id, true
	}
	writeError(c, utils.E(utils.CodeUnauthorized, "Auth", "unauthorized", nil))
	return "", false
}

// authorizeSession rejects access to a session owned by another user.
// Sessions started anonymously are open to anyone holding the id.
func authorizeSession(c *gin.Context, op string, st *models.SessionState) bool {
	if st.UserID != "" && st.UserID != userID(c) {
		writeError(c, utils.E(utils.CodeForbidden, op, "forbidden", nil))
		return false
	}
	return true
}

func sessionIDParam(c *gin.Context, op string) (string, bool) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "session id must be a UUID", err))
		return "", false
	}
	return id, true
}
