package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/velotrack/rides-backend-go/internal/models"
	"github.com/velotrack/rides-backend-go/internal/service"
	"github.com/velotrack/rides-backend-go/pkg/response"
)

// RideHandler handles HTTP requests for recorded rides
type RideHandler struct {
	service *service.RideService
}

// NewRideHandler creates a new ride handler
func NewRideHandler(service *service.RideService) *RideHandler {
	return &RideHandler{service: service}
}

// GetRides handles GET /api/v1/rides
func (h *RideHandler) GetRides(c *gin.Context) {
	var filter models.RideFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid query parameters", err)
		return
	}

	rides, total, err := h.service.GetRides(filter)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to get rides", err)
		return
	}

	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 100
	}
	totalPages := int(total) / filter.PageSize
	if int(total)%filter.PageSize > 0 {
		totalPages++
	}

	response.Success(c, gin.H{
		"data":       rides,
		"total":      total,
		"page":       filter.Page,
		"pageSize":   filter.PageSize,
		"totalPages": totalPages,
	})
}

// GetRideByID handles GET /api/v1/rides/:id
func (h *RideHandler) GetRideByID(c *gin.Context) {
	ride, err := h.service.GetRideByID(c.Param("id"))
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to get ride", err)
		return
	}
	if ride == nil {
		response.Error(c, http.StatusNotFound, "Ride not found", nil)
		return
	}
	response.Success(c, ride)
}

// GetTrack handles GET /api/v1/rides/:id/track
func (h *RideHandler) GetTrack(c *gin.Context) {
	var filter models.TrackFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid query parameters", err)
		return
	}

	rideID := c.Param("id")
	ride, err := h.service.GetRideByID(rideID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to get ride", err)
		return
	}
	if ride == nil {
		response.Error(c, http.StatusNotFound, "Ride not found", nil)
		return
	}

	points, err := h.service.GetTrack(rideID, filter)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to get track", err)
		return
	}
	response.Success(c, gin.H{
		"rideId": rideID,
		"count":  len(points),
		"points": points,
	})
}

// GetBounds handles GET /api/v1/rides/:id/bounds
func (h *RideHandler) GetBounds(c *gin.Context) {
	padding, err := strconv.Atoi(c.DefaultQuery("padding", "48"))
	if err != nil || padding < 0 {
		response.Error(c, http.StatusBadRequest, "Invalid padding", err)
		return
	}

	rideID := c.Param("id")
	bounds, ok, err := h.service.GetBounds(rideID, padding)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to compute bounds", err)
		return
	}
	if !ok {
		// Too few points to fit; the client should use its default zoom.
		response.Success(c, gin.H{"fit": false})
		return
	}
	response.Success(c, gin.H{"fit": true, "bounds": bounds})
}

// DeleteRide handles DELETE /api/v1/rides/:id
func (h *RideHandler) DeleteRide(c *gin.Context) {
	rideID := c.Param("id")
	ride, err := h.service.GetRideByID(rideID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to get ride", err)
		return
	}
	if ride == nil {
		response.Error(c, http.StatusNotFound, "Ride not found", nil)
		return
	}

	if err := h.service.DeleteRide(rideID); err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to delete ride", err)
		return
	}
	response.Success(c, gin.H{"deleted": rideID})
}
