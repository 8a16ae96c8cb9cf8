package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"sponti/internal/auth"
)

const (
	// SessionCookie is the client-held session: an issued token the server
	// re-verifies on every request.
	SessionCookie = "token"

	authUserIDKey = "auth_user_id"
)

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// PageGateMiddleware applies the request gate to page navigations. Paths on
// the gate's allow-list pass untouched; everything else needs a verifiable
// session cookie or gets redirected to the login page.
func PageGateMiddleware(gate *auth.Gate) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie(SessionCookie)
		decision := gate.Decide(c.Request.URL.Path, token)
		if !decision.Allow {
			c.Redirect(http.StatusFound, decision.RedirectTo)
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireUser guards JSON endpoints: the session token must be present and
// verify, otherwise the request is rejected with 401. The verified user id
// is stored in the request context.
func RequireUser(tokens *auth.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := sessionToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		claims, err := tokens.Verify(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		userID, err := strconv.ParseInt(claims.UserID(), 10, 64)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		c.Set(authUserIDKey, userID)
		c.Next()
	}
}

// sessionToken extracts the token from the session cookie, falling back to
// an Authorization bearer header for non-browser clients.
func sessionToken(c *gin.Context) string {
	if token, err := c.Cookie(SessionCookie); err == nil && token != "" {
		return token
	}
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return ""
}

// AuthUserID returns the verified user id set by RequireUser, or 0.
func AuthUserID(c *gin.Context) int64 {
	if value, ok := c.Get(authUserIDKey); ok {
		if id, ok := value.(int64); ok {
			return id
		}
	}
	return 0
}
