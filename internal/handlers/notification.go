package handlers

import (
	"net/http"

	"learnhub/internal/auth"

	"github.com/gin-gonic/gin"
)

// ListNotifications returns the authenticated user's feed, newest first.
// Pass unread_only=true to filter to unread notifications.
func ListNotifications(c *gin.Context) {
	username := auth.GetUsernameFromContext(c)
	if username == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	unreadOnly := c.Query("unread_only") == "true"
	notifications := notificationFeed.List(username, unreadOnly)

	c.JSON(http.StatusOK, gin.H{
		"notifications": notifications,
		"count":         len(notifications),
	})
}

// MarkNotificationRead marks a single notification as read
func MarkNotificationRead(c *gin.Context) {
	username := auth.GetUsernameFromContext(c)
	if username == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	notificationID := c.Param("notification_id")
	if !notificationFeed.MarkRead(username, notificationID) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Notification not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Notification marked as read"})
}

// MarkAllNotificationsRead marks every unread notification in the feed as read
func MarkAllNotificationsRead(c *gin.Context) {
	username := auth.GetUsernameFromContext(c)
	if username == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	changed := notificationFeed.MarkAllRead(username)
	c.JSON(http.StatusOK, gin.H{"marked_read": changed})
}
