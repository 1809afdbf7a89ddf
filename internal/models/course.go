package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// CourseModule represents a unit of study that learning events can belong to
type CourseModule struct {
	ID            uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	Title         string         `gorm:"size:200;not null" json:"title"`
	Description   string         `gorm:"type:text" json:"description"`
	CoverURL      string         `gorm:"size:500" json:"cover_url"`
	OwnerUsername string         `gorm:"size:30;not null;index" json:"owner_username"`
	Resources     datatypes.JSON `gorm:"type:jsonb;default:'[]'" json:"resources"` // links, attachments
	CreatedAt     time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate hook is called before creating a new course module
func (m *CourseModule) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	if m.UpdatedAt.IsZero() {
		m.UpdatedAt = now
	}
	return nil
}

// BeforeSave hook is called before saving the course module
func (m *CourseModule) BeforeSave(tx *gorm.DB) error {
	m.UpdatedAt = time.Now()
	return nil
}

// TableName specifies the table name for the CourseModule model
func (CourseModule) TableName() string {
	return "course_module"
}

// ModuleResource is one entry in a module's Resources JSON array
type ModuleResource struct {
	Title string `json:"title" binding:"required"`
	URL   string `json:"url" binding:"required,url"`
}

// CreateModuleRequest represents the data needed to create a course module
type CreateModuleRequest struct {
	Title       string           `json:"title" binding:"required,max=200"`
	Description string           `json:"description" binding:"omitempty,max=5000"`
	Resources   []ModuleResource `json:"resources" binding:"omitempty,dive"`
}

// UpdateModuleRequest represents the data needed to update a course module
type UpdateModuleRequest struct {
	Title       string           `json:"title" binding:"required,max=200"`
	Description string           `json:"description" binding:"omitempty,max=5000"`
	Resources   []ModuleResource `json:"resources" binding:"omitempty,dive"`
}
