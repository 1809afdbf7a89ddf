package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"
	"unicode"

	"learnhub/internal/auth"
	"learnhub/internal/database"
	"learnhub/internal/models"
	"learnhub/internal/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// validatePassword checks if password meets security requirements
func validatePassword(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters long")
	}

	hasLetter := false
	hasNumber := false

	for _, char := range password {
		if unicode.IsLetter(char) {
			hasLetter = true
		} else if unicode.IsNumber(char) {
			hasNumber = true
		}

		if hasLetter && hasNumber {
			return nil
		}
	}

	return fmt.Errorf("password must contain at least one letter and one number")
}

// CreateAccount handles new learner registration
func CreateAccount(c *gin.Context) {
	var req models.CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleError(c, http.StatusBadRequest, "Invalid input", err)
		return
	}

	// Validate password strength
	if err := validatePassword(req.Password); err != nil {
		handleError(c, http.StatusBadRequest, err.Error(), err)
		return
	}

	// Password hashing is handled in the Account model's BeforeCreate hook
	account := models.Account{
		Username:    req.Username,
		Email:       req.Email,
		HashedPass:  req.Password,
		DisplayName: req.DisplayName,
	}

	db := database.GetDB()
	if err := db.Create(&account).Error; err != nil {
		// Check for common database errors like duplicate usernames
		if strings.Contains(err.Error(), "duplicate key") {
			if strings.Contains(err.Error(), "username") {
				handleError(c, http.StatusConflict, "Username already exists", err)
			} else if strings.Contains(err.Error(), "email") {
				handleError(c, http.StatusConflict, "Email already in use", err)
			} else {
				handleError(c, http.StatusConflict, "Account creation failed: duplicate data", err)
			}
			return
		}

		handleError(c, http.StatusInternalServerError, "Failed to create account", err)
		return
	}

	// Welcome email is best-effort; registration succeeds without it
	if emailService != nil {
		if err := emailService.SendWelcomeEmail(account.Email, account.Username); err != nil {
			log.Printf("Warning: Failed to send welcome email to %s: %v", account.Email, err)
		}
	}

	c.JSON(http.StatusCreated, account)
}

// GetAccount retrieves account information
func GetAccount(c *gin.Context) {
	username := c.Param("username")

	db := database.GetDB()
	var account models.Account
	if err := db.Where("username = ?", username).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			handleError(c, http.StatusNotFound, "Account not found", err)
			return
		}
		handleError(c, http.StatusInternalServerError, "Failed to retrieve account", err)
		return
	}

	c.JSON(http.StatusOK, account)
}

// Login handles user authentication and issues the auth cookie
func Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleError(c, http.StatusBadRequest, "Invalid login request", err)
		return
	}

	// Find the account
	db := database.GetDB()
	var account models.Account
	if err := db.Where("username = ?", req.Username).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			handleError(c, http.StatusUnauthorized, "Invalid credentials", err)
			return
		}
		handleError(c, http.StatusInternalServerError, "Login attempt failed", err)
		return
	}

	// Verify the password
	if !account.VerifyPassword(req.Password) {
		handleError(c, http.StatusUnauthorized, "Invalid credentials",
			fmt.Errorf("password verification failed for user %s from %s", req.Username, utils.GetRealClientIP(c)))
		return
	}

	// Set auth cookie with current token version
	if err := auth.SetAuthCookie(c, account.Username, account.TokenVersion); err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to generate token", err)
		return
	}

	// Update last login time
	if err := db.Model(&account).Update("last_login", time.Now()).Error; err != nil {
		log.Printf("Warning: Failed to update last login for %s: %v", account.Username, err)
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "login successful",
		"user": gin.H{
			"username": account.Username,
			"email":    account.Email,
		},
	})
}

// Logout handles user logout by invalidating the token and clearing cookie
func Logout(c *gin.Context) {
	username := auth.GetUsernameFromContext(c)

	// If there's a valid user in the context, invalidate their tokens
	if username != "" {
		db := database.GetDB()

		// Increment the token version to invalidate all existing tokens
		result := db.Model(&models.Account{}).
			Where("username = ?", username).
			Update("token_version", gorm.Expr("token_version + 1"))

		if result.Error != nil {
			log.Printf("Warning: Failed to bump token version for %s: %v", username, result.Error)
		}
	}

	// Clear the auth cookie
	auth.ClearAuthCookie(c)
	c.JSON(http.StatusOK, gin.H{"message": "logout successful"})
}

// GetCurrentUser returns the currently authenticated user
func GetCurrentUser(c *gin.Context) {
	username := auth.GetUsernameFromContext(c)
	if username == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	db := database.GetDB()
	var account models.Account
	if err := db.Where("username = ?", username).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			handleError(c, http.StatusNotFound, "User not found", err)
			return
		}
		handleError(c, http.StatusInternalServerError, "Failed to retrieve user", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"username":     account.Username,
		"email":        account.Email,
		"display_name": account.DisplayName,
		"avatar_url":   account.AvatarURL,
		"bio":          account.Bio,
		"date_joined":  account.DateJoined,
		"last_login":   account.LastLogin,
	})
}

// UploadAvatar handles avatar image uploads for the authenticated user
func UploadAvatar(c *gin.Context) {
	username := auth.GetUsernameFromContext(c)
	if username == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	if imageService == nil {
		handleError(c, http.StatusServiceUnavailable, "Image uploads are not configured",
			fmt.Errorf("image service not initialized"))
		return
	}

	fileHeader, err := c.FormFile("avatar")
	if err != nil {
		handleError(c, http.StatusBadRequest, "avatar file is required", err)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		handleError(c, http.StatusBadRequest, "Failed to read uploaded file", err)
		return
	}
	defer file.Close()

	// 5 MB cap on avatar uploads
	if err := imageService.ValidateImageFile(file, 5*1024*1024); err != nil {
		handleError(c, http.StatusBadRequest, err.Error(), err)
		return
	}

	url, err := imageService.UploadAvatar(file, fileHeader.Filename, username)
	if err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to upload avatar", err)
		return
	}

	db := database.GetDB()
	if err := db.Model(&models.Account{}).Where("username = ?", username).
		Update("avatar_url", url).Error; err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to save avatar URL", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"avatar_url": url})
}
