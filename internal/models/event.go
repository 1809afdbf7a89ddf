package models

import (
	"time"

	"gorm.io/gorm"
)

// EventStatus represents the lifecycle state of a learning event
type EventStatus string

const (
	EventPlanned   EventStatus = "planned"
	EventDone      EventStatus = "done"
	EventMissed    EventStatus = "missed"
	EventCancelled EventStatus = "cancelled"
)

// LearningEvent represents a scheduled study session on a learner's calendar.
// Only planned, non-deleted events are eligible for reminders.
type LearningEvent struct {
	ID              string         `gorm:"primaryKey;size:50" json:"id"`
	Username        string         `gorm:"size:30;not null;index" json:"username"`
	ModuleID        *uint          `gorm:"index" json:"module_id"`
	Title           string         `gorm:"size:200;not null" json:"title"`
	Description     string         `gorm:"type:text" json:"description"`
	StartsAt        time.Time      `gorm:"not null;index" json:"starts_at"`
	DurationMinutes int            `gorm:"not null;default:60" json:"duration_minutes"`
	ReminderMinutes *int           `json:"reminder_minutes"` // nil disables reminders
	Status          EventStatus    `gorm:"size:20;not null;default:planned" json:"status"`
	Venue           *Venue         `gorm:"type:json" json:"venue"` // set for in-person sessions
	CreatedAt       time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Module *CourseModule `gorm:"foreignKey:ModuleID" json:"module,omitempty"`
}

// BeforeCreate hook is called before creating a new learning event
func (e *LearningEvent) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	if e.UpdatedAt.IsZero() {
		e.UpdatedAt = now
	}
	if e.Status == "" {
		e.Status = EventPlanned
	}
	return nil
}

// BeforeSave hook is called before saving the learning event
func (e *LearningEvent) BeforeSave(tx *gorm.DB) error {
	e.UpdatedAt = time.Now()
	return nil
}

// TableName specifies the table name for the LearningEvent model
func (LearningEvent) TableName() string {
	return "learning_event"
}

// CreateEventRequest represents the data needed to create a learning event
type CreateEventRequest struct {
	Title           string    `json:"title" binding:"required,max=200"`
	Description     string    `json:"description" binding:"omitempty,max=5000"`
	ModuleID        *uint     `json:"module_id"`
	StartsAt        time.Time `json:"starts_at" binding:"required"`
	DurationMinutes int       `json:"duration_minutes" binding:"omitempty,min=5,max=1440"`
	ReminderMinutes *int      `json:"reminder_minutes" binding:"omitempty,min=1,max=10080"`
	Venue           *Venue    `json:"venue"`
}

// UpdateEventRequest represents the data needed to update a learning event
type UpdateEventRequest struct {
	Title           string    `json:"title" binding:"required,max=200"`
	Description     string    `json:"description" binding:"omitempty,max=5000"`
	ModuleID        *uint     `json:"module_id"`
	StartsAt        time.Time `json:"starts_at" binding:"required"`
	DurationMinutes int       `json:"duration_minutes" binding:"omitempty,min=5,max=1440"`
	ReminderMinutes *int      `json:"reminder_minutes" binding:"omitempty,min=1,max=10080"`
	Venue           *Venue    `json:"venue"`
}

// UpdateEventStatusRequest represents a status transition for a learning event
type UpdateEventStatusRequest struct {
	Status EventStatus `json:"status" binding:"required,oneof=planned done missed cancelled"`
}
