package security

import (
	"net/http"
	"strings"

	"RoomieChat/global"
	"RoomieChat/tools/security"

	"github.com/gin-gonic/gin"
)

// Context key handlers use to read the authenticated user id (int64).
const CtxUserIDKey = "authUserID"

type Options struct {
	HeaderToken               string // default "Authorization"
	EnableAuthorizationBearer bool   // default true
	AllowQueryToken           bool   // default false, the ws upgrade uses its own path
}

func DefaultOptions() *Options {
	return &Options{
		HeaderToken:               "Authorization",
		EnableAuthorizationBearer: true,
	}
}

// Middleware verifies the request token and stores the user id in the
// gin context. Requests without a valid token are rejected with 401.
func Middleware(opts *Options) gin.HandlerFunc {
	if opts == nil {
		opts = DefaultOptions()
	}
	return func(c *gin.Context) {
		token := strings.TrimSpace(c.GetHeader(opts.HeaderToken))
		if opts.EnableAuthorizationBearer {
			if strings.HasPrefix(strings.ToLower(token), "bearer ") {
				token = strings.TrimSpace(token[len("bearer "):])
			}
		}
		if token == "" && opts.AllowQueryToken {
			token = strings.TrimSpace(c.Query("token"))
		}
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"status": "error", "message": "missing token"})
			return
		}

		userID, err := security.Verify(security.DefaultOptions(global.JwtSecret()), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"status": "error", "message": "invalid token"})
			return
		}

		c.Set(CtxUserIDKey, userID)
		c.Next()
	}
}

// UserID reads the authenticated user id set by Middleware.
func UserID(c *gin.Context) (int64, bool) {
	v, ok := c.Get(CtxUserIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}
