package handlers

import (
	"log"
	"net/http"

	"learnhub/internal/models"
	"learnhub/internal/services"

	"github.com/gin-gonic/gin"
)

// ValidateVenue validates a Google Place ID and returns standardized venue
// data for in-person study sessions
func ValidateVenue(c *gin.Context) {
	placeID := c.Query("place_id")
	if placeID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "place_id parameter is required"})
		return
	}

	placeDetails, err := services.ValidateVenue(placeID)
	if err != nil {
		log.Printf("Error validating venue: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to validate venue"})
		return
	}

	// Convert Google Maps API response to our Venue model
	venue := models.Venue{
		PlaceID:          placeDetails.PlaceID,
		Name:             placeDetails.Name,
		FormattedAddress: placeDetails.FormattedAddress,
		Latitude:         placeDetails.Geometry.Location.Lat,
		Longitude:        placeDetails.Geometry.Location.Lng,
	}

	c.JSON(http.StatusOK, venue)
}
