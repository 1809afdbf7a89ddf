package auth

import (
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
)

// AuthCookieName is the cookie holding the signed JWT
const AuthCookieName = "learnhub_auth"

// cookieSecure reports whether cookies should be HTTPS-only (on in release mode)
func cookieSecure() bool {
	return os.Getenv("GIN_MODE") == "release"
}

// SetAuthCookie issues a token for the user and stores it in an HttpOnly cookie
func SetAuthCookie(c *gin.Context, username string, tokenVersion int) error {
	token, err := GenerateToken(username, tokenVersion)
	if err != nil {
		return err
	}

	expiryStr := os.Getenv("JWT_EXPIRY")
	if expiryStr == "" {
		expiryStr = "24h"
	}
	expiry, err := time.ParseDuration(expiryStr)
	if err != nil {
		expiry = 24 * time.Hour
	}

	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(
		AuthCookieName,
		token,
		int(expiry.Seconds()),
		"/",
		"", // Domain - blank for current domain
		cookieSecure(),
		true, // HttpOnly - not accessible via JavaScript
	)
	return nil
}

// ClearAuthCookie removes the auth cookie
func ClearAuthCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(AuthCookieName, "", -1, "/", "", cookieSecure(), true)
}

// GetUsernameFromContext returns the authenticated username set by the
// middleware, or "" when the request is unauthenticated
func GetUsernameFromContext(c *gin.Context) string {
	return c.GetString("username")
}
