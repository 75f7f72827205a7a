package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/coursecraft-backend/internal/http/response"
	"github.com/yungbote/coursecraft-backend/internal/platform/ctxutil"
)

var (
	errUnauthenticated = errors.New("missing or invalid credentials")
	errForbidden       = errors.New("userId does not match the authenticated user")
)

// callerID returns the authenticated user or writes 401.
func callerID(c *gin.Context) (string, bool) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || strings.TrimSpace(rd.UserID) == "" {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", errUnauthenticated)
		return "", false
	}
	return rd.UserID, true
}

// requireSelf lets the request through only when userID is the caller.
func requireSelf(c *gin.Context, userID string) bool {
	caller, ok := callerID(c)
	if !ok {
		return false
	}
	if strings.TrimSpace(userID) != caller {
		response.RespondError(c, http.StatusForbidden, "forbidden", errForbidden)
		return false
	}
	return true
}
