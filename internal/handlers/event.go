package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"learnhub/internal/auth"
	"learnhub/internal/database"
	"learnhub/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// verifyModuleOwnership ensures a referenced module exists and belongs to the user
func verifyModuleOwnership(c *gin.Context, db *gorm.DB, moduleID uint, username string) bool {
	var module models.CourseModule
	if err := db.Where("id = ?", moduleID).First(&module).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			handleError(c, http.StatusBadRequest, "Referenced module does not exist", err)
			return false
		}
		handleError(c, http.StatusInternalServerError, "Failed to verify module", err)
		return false
	}
	if module.OwnerUsername != username {
		c.JSON(http.StatusForbidden, gin.H{"error": "Cannot schedule events against another user's module"})
		return false
	}
	return true
}

// CreateEvent handles scheduling a new learning event
func CreateEvent(c *gin.Context) {
	var request models.CreateEventRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		handleError(c, http.StatusBadRequest, fmt.Sprintf("Invalid input: %s", err.Error()), err)
		return
	}

	// Validate that StartsAt is in the future
	if request.StartsAt.Before(time.Now()) {
		handleError(c, http.StatusBadRequest, "Event start time must be in the future",
			fmt.Errorf("event start %v is before current time", request.StartsAt))
		return
	}

	username := auth.GetUsernameFromContext(c)
	if username == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	db := database.GetDB()
	if request.ModuleID != nil && !verifyModuleOwnership(c, db, *request.ModuleID, username) {
		return
	}

	duration := request.DurationMinutes
	if duration == 0 {
		duration = 60
	}

	event := models.LearningEvent{
		ID:              uuid.NewString(),
		Username:        username,
		ModuleID:        request.ModuleID,
		Title:           request.Title,
		Description:     request.Description,
		StartsAt:        request.StartsAt.UTC(),
		DurationMinutes: duration,
		ReminderMinutes: request.ReminderMinutes,
		Status:          models.EventPlanned,
		Venue:           request.Venue,
	}

	if err := db.Create(&event).Error; err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to create event", err)
		return
	}

	c.JSON(http.StatusCreated, event)
}

// GetEvents handles listing the authenticated user's learning events with
// filtering, sorting, and pagination
func GetEvents(c *gin.Context) {
	username := auth.GetUsernameFromContext(c)

	db := database.GetDB()
	query := db.Preload("Module").Where("username = ?", username)

	// Filtering
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if moduleID := c.Query("module_id"); moduleID != "" {
		query = query.Where("module_id = ?", moduleID)
	}
	if dateFrom := c.Query("date_from"); dateFrom != "" {
		query = query.Where("starts_at >= ?", dateFrom)
	}
	if dateTo := c.Query("date_to"); dateTo != "" {
		query = query.Where("starts_at <= ?", dateTo)
	}
	if title := c.Query("title"); title != "" {
		query = query.Where("title ILIKE ?", "%"+title+"%")
	}

	// Sorting
	sortOrder := c.DefaultQuery("sort_order", "asc")
	if sortOrder != "asc" && sortOrder != "desc" {
		sortOrder = "asc"
	}
	query = query.Order("starts_at " + sortOrder)

	// Pagination with defaults
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100 // max limit
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}
	query = query.Limit(limit).Offset(offset)

	var events []models.LearningEvent
	if err := query.Find(&events).Error; err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to fetch events", err)
		return
	}

	c.JSON(http.StatusOK, events)
}

// loadOwnedEvent fetches an event and verifies the requester owns it
func loadOwnedEvent(c *gin.Context) (*models.LearningEvent, bool) {
	eventID := c.Param("event_id")
	username := auth.GetUsernameFromContext(c)

	db := database.GetDB()
	var event models.LearningEvent
	if err := db.Preload("Module").Where("id = ?", eventID).First(&event).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			handleError(c, http.StatusNotFound, "Event not found", err)
			return nil, false
		}
		handleError(c, http.StatusInternalServerError, "Failed to fetch event", err)
		return nil, false
	}

	if event.Username != username {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not your event"})
		return nil, false
	}

	return &event, true
}

// GetEventByID handles fetching a single learning event
func GetEventByID(c *gin.Context) {
	event, ok := loadOwnedEvent(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, event)
}

// UpdateEvent handles rescheduling or editing a learning event
func UpdateEvent(c *gin.Context) {
	var request models.UpdateEventRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		handleError(c, http.StatusBadRequest, fmt.Sprintf("Invalid input: %s", err.Error()), err)
		return
	}

	event, ok := loadOwnedEvent(c)
	if !ok {
		return
	}

	db := database.GetDB()
	username := auth.GetUsernameFromContext(c)
	if request.ModuleID != nil && !verifyModuleOwnership(c, db, *request.ModuleID, username) {
		return
	}

	duration := request.DurationMinutes
	if duration == 0 {
		duration = event.DurationMinutes
	}

	event.Title = request.Title
	event.Description = request.Description
	event.ModuleID = request.ModuleID
	event.StartsAt = request.StartsAt.UTC()
	event.DurationMinutes = duration
	event.ReminderMinutes = request.ReminderMinutes
	event.Venue = request.Venue

	if err := db.Save(event).Error; err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to update event", err)
		return
	}

	c.JSON(http.StatusOK, event)
}

// UpdateEventStatus handles status transitions (planned/done/missed/cancelled)
func UpdateEventStatus(c *gin.Context) {
	var request models.UpdateEventStatusRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		handleError(c, http.StatusBadRequest, fmt.Sprintf("Invalid input: %s", err.Error()), err)
		return
	}

	event, ok := loadOwnedEvent(c)
	if !ok {
		return
	}

	db := database.GetDB()
	if err := db.Model(event).Update("status", request.Status).Error; err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to update event status", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": event.ID, "status": request.Status})
}

// DeleteEvent handles soft-deleting a learning event
func DeleteEvent(c *gin.Context) {
	event, ok := loadOwnedEvent(c)
	if !ok {
		return
	}

	db := database.GetDB()
	if err := db.Delete(event).Error; err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to delete event", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Event deleted"})
}
