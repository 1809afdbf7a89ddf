package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"learnhub/internal/auth"
	"learnhub/internal/database"
	"learnhub/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// resourcesJSON marshals module resources for JSONB storage
func resourcesJSON(resources []models.ModuleResource) (datatypes.JSON, error) {
	if resources == nil {
		resources = []models.ModuleResource{}
	}
	data, err := json.Marshal(resources)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(data), nil
}

// parseModuleID parses the :module_id path parameter
func parseModuleID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("module_id"), 10, 32)
	if err != nil {
		handleError(c, http.StatusBadRequest, "Invalid module id", err)
		return 0, false
	}
	return uint(id), true
}

// CreateModule handles the creation of a new course module
func CreateModule(c *gin.Context) {
	var request models.CreateModuleRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		handleError(c, http.StatusBadRequest, fmt.Sprintf("Invalid input: %s", err.Error()), err)
		return
	}

	username := auth.GetUsernameFromContext(c)
	if username == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	resources, err := resourcesJSON(request.Resources)
	if err != nil {
		handleError(c, http.StatusBadRequest, "Invalid resources payload", err)
		return
	}

	module := models.CourseModule{
		Title:         request.Title,
		Description:   request.Description,
		OwnerUsername: username,
		Resources:     resources,
	}

	db := database.GetDB()
	if err := db.Create(&module).Error; err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to create module", err)
		return
	}

	c.JSON(http.StatusCreated, module)
}

// GetModules handles listing the authenticated user's course modules
func GetModules(c *gin.Context) {
	username := auth.GetUsernameFromContext(c)

	db := database.GetDB()
	query := db.Where("owner_username = ?", username)

	if title := c.Query("title"); title != "" {
		query = query.Where("title ILIKE ?", "%"+title+"%")
	}

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

	var modules []models.CourseModule
	if err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&modules).Error; err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to fetch modules", err)
		return
	}

	c.JSON(http.StatusOK, modules)
}

// GetModuleByID handles fetching a single course module
func GetModuleByID(c *gin.Context) {
	moduleID, ok := parseModuleID(c)
	if !ok {
		return
	}

	db := database.GetDB()
	var module models.CourseModule
	if err := db.Where("id = ?", moduleID).First(&module).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			handleError(c, http.StatusNotFound, "Module not found", err)
			return
		}
		handleError(c, http.StatusInternalServerError, "Failed to fetch module", err)
		return
	}

	c.JSON(http.StatusOK, module)
}

// loadOwnedModule fetches a module and verifies the requester owns it
func loadOwnedModule(c *gin.Context, moduleID uint) (*models.CourseModule, bool) {
	username := auth.GetUsernameFromContext(c)

	db := database.GetDB()
	var module models.CourseModule
	if err := db.Where("id = ?", moduleID).First(&module).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			handleError(c, http.StatusNotFound, "Module not found", err)
			return nil, false
		}
		handleError(c, http.StatusInternalServerError, "Failed to fetch module", err)
		return nil, false
	}

	if module.OwnerUsername != username {
		log.Printf("Error: User %s attempted to modify module %d owned by %s", username, moduleID, module.OwnerUsername)
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the module owner can modify it"})
		return nil, false
	}

	return &module, true
}

// UpdateModule handles updating a course module (owner only)
func UpdateModule(c *gin.Context) {
	moduleID, ok := parseModuleID(c)
	if !ok {
		return
	}

	var request models.UpdateModuleRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		handleError(c, http.StatusBadRequest, fmt.Sprintf("Invalid input: %s", err.Error()), err)
		return
	}

	module, ok := loadOwnedModule(c, moduleID)
	if !ok {
		return
	}

	resources, err := resourcesJSON(request.Resources)
	if err != nil {
		handleError(c, http.StatusBadRequest, "Invalid resources payload", err)
		return
	}

	module.Title = request.Title
	module.Description = request.Description
	module.Resources = resources

	db := database.GetDB()
	if err := db.Save(module).Error; err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to update module", err)
		return
	}

	c.JSON(http.StatusOK, module)
}

// DeleteModule handles soft-deleting a course module (owner only)
func DeleteModule(c *gin.Context) {
	moduleID, ok := parseModuleID(c)
	if !ok {
		return
	}

	module, ok := loadOwnedModule(c, moduleID)
	if !ok {
		return
	}

	db := database.GetDB()
	if err := db.Delete(module).Error; err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to delete module", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Module deleted"})
}

// UploadModuleCover handles cover image uploads for a course module (owner only)
func UploadModuleCover(c *gin.Context) {
	moduleID, ok := parseModuleID(c)
	if !ok {
		return
	}

	module, ok := loadOwnedModule(c, moduleID)
	if !ok {
		return
	}

	if imageService == nil {
		handleError(c, http.StatusServiceUnavailable, "Image uploads are not configured",
			fmt.Errorf("image service not initialized"))
		return
	}

	fileHeader, err := c.FormFile("cover")
	if err != nil {
		handleError(c, http.StatusBadRequest, "cover file is required", err)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		handleError(c, http.StatusBadRequest, "Failed to read uploaded file", err)
		return
	}
	defer file.Close()

	// 10 MB cap on cover uploads
	if err := imageService.ValidateImageFile(file, 10*1024*1024); err != nil {
		handleError(c, http.StatusBadRequest, err.Error(), err)
		return
	}

	url, err := imageService.UploadModuleCover(file, fileHeader.Filename, module.ID)
	if err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to upload cover", err)
		return
	}

	db := database.GetDB()
	if err := db.Model(module).Update("cover_url", url).Error; err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to save cover URL", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"cover_url": url})
}
