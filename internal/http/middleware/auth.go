package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/coursecraft-backend/internal/http/response"
	"github.com/yungbote/coursecraft-backend/internal/platform/ctxutil"
	"github.com/yungbote/coursecraft-backend/internal/platform/logger"
	"github.com/yungbote/coursecraft-backend/internal/services"
)

const HeaderUserID = "X-User-Id"

type AuthMiddleware struct {
	log      *logger.Logger
	verifier services.Verifier
}

func NewAuthMiddleware(log *logger.Logger, verifier services.Verifier) *AuthMiddleware {
	return &AuthMiddleware{log: log.With("middleware", "AuthMiddleware"), verifier: verifier}
}

// RequireAuth attaches the verified caller to the request context or aborts with 401.
func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		credential := bearerToken(c)
		if am.verifier.Mode() == services.AuthModeDisabled {
			credential = c.GetHeader(HeaderUserID)
		}
		if credential == "" {
			response.RespondError(c, http.StatusUnauthorized, "unauthorized", services.ErrUnauthenticated)
			return
		}
		id, err := am.verifier.Verify(c.Request.Context(), credential)
		if err != nil {
			am.log.Debug("credential rejected", "path", c.FullPath(), "error", err)
			response.RespondError(c, http.StatusUnauthorized, "unauthorized", services.ErrUnauthenticated)
			return
		}
		ctx := ctxutil.WithRequestData(c.Request.Context(), &ctxutil.RequestData{
			UserID:   id.UserID,
			AuthMode: id.Mode,
		})
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}
