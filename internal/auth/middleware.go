package auth

import (
	"log"
	"net/http"

	"learnhub/internal/database"
	"learnhub/internal/models"

	"github.com/gin-gonic/gin"
)

// AuthMiddleware validates the auth cookie and loads the username into the
// request context. Tokens older than the account's current token version
// (bumped on logout) are rejected.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, err := c.Cookie(AuthCookieName)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
			c.Abort()
			return
		}

		claims, err := ValidateToken(tokenString)
		if err != nil {
			log.Printf("Error: Token validation failed: %v", err)
			ClearAuthCookie(c)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired session"})
			c.Abort()
			return
		}

		db := database.GetDB()
		var account models.Account
		if err := db.Where("username = ?", claims.Username).First(&account).Error; err != nil {
			log.Printf("Error: Account lookup failed for %s: %v", claims.Username, err)
			ClearAuthCookie(c)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Account not found"})
			c.Abort()
			return
		}

		if claims.TokenVersion != account.TokenVersion {
			ClearAuthCookie(c)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Session has been invalidated"})
			c.Abort()
			return
		}

		c.Set("username", account.Username)
		c.Next()
	}
}
