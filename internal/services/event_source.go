package services

import (
	"context"
	"time"

	"learnhub/internal/models"
	"learnhub/internal/notification"

	"gorm.io/gorm"
)

// GormEventSource reads upcoming learning events from Postgres for the
// reminder dispatcher.
type GormEventSource struct {
	db *gorm.DB
}

func NewGormEventSource(db *gorm.DB) *GormEventSource {
	return &GormEventSource{db: db}
}

// QueryUpcoming returns reminder-eligible events starting within
// [now, now+lookahead). Soft-deleted rows are excluded by GORM's default
// scope on DeletedAt.
func (s *GormEventSource) QueryUpcoming(ctx context.Context, now time.Time, lookahead time.Duration) ([]notification.UpcomingEvent, error) {
	var events []models.LearningEvent
	err := s.db.WithContext(ctx).
		Preload("Module").
		Where("status = ?", models.EventPlanned).
		Where("starts_at >= ? AND starts_at < ?", now, now.Add(lookahead)).
		Order("starts_at ASC").
		Find(&events).Error
	if err != nil {
		return nil, err
	}

	upcoming := make([]notification.UpcomingEvent, 0, len(events))
	for _, ev := range events {
		u := notification.UpcomingEvent{
			ID:              ev.ID,
			Username:        ev.Username,
			Title:           ev.Title,
			StartsAt:        ev.StartsAt,
			ReminderMinutes: ev.ReminderMinutes,
		}
		if ev.Module != nil {
			u.ModuleTitle = ev.Module.Title
		}
		upcoming = append(upcoming, u)
	}
	return upcoming, nil
}
