package handlers

import (
	"log"
	"net/http"

	"learnhub/internal/notification"
	"learnhub/internal/services"

	"github.com/gin-gonic/gin"
)

var (
	// notificationFeed backs the notification endpoints; set once at startup
	notificationFeed notification.FeedStore
	// imageService handles avatar and cover uploads; nil disables uploads
	imageService *services.ImageService
	// emailService sends transactional mail; nil disables it
	emailService *services.EmailService
)

// Init wires the handler package's service dependencies at startup
func Init(feed notification.FeedStore, images *services.ImageService, email *services.EmailService) {
	notificationFeed = feed
	imageService = images
	emailService = email
}

// handleError provides a consistent way to handle and log errors
func handleError(c *gin.Context, status int, message string, err error) {
	log.Printf("Error: %v", err)
	c.JSON(status, gin.H{"error": message})
}

// HomeHandler handles requests to the root path "/"
func HomeHandler(c *gin.Context) {
	c.String(http.StatusOK, "Welcome to LearnHub!")
}

// HealthHandler is a simple health check endpoint
func HealthHandler(c *gin.Context) {
	c.String(http.StatusOK, "OK")
}
