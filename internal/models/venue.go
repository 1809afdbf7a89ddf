package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Venue represents where an in-person session takes place, using Google Maps data
type Venue struct {
	PlaceID          string  `json:"place_id" binding:"required"`
	Name             string  `json:"name"`
	FormattedAddress string  `json:"formatted_address" binding:"required"`
	Latitude         float64 `json:"latitude" binding:"required"`
	Longitude        float64 `json:"longitude" binding:"required"`
}

// Implement driver.Valuer for JSONB storage
func (v Venue) Value() (driver.Value, error) {
	return json.Marshal(v)
}

// Implement sql.Scanner for JSONB retrieval
func (v *Venue) Scan(value interface{}) error {
	if value == nil {
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("failed to unmarshal Venue: %v", value)
	}
	return json.Unmarshal(bytes, v)
}
