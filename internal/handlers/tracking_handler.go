package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"padayatra/internal/models"
	"padayatra/internal/tracker"
	"padayatra/internal/utils"
)

type TrackingHandler struct {
	tracker *tracker.Tracker
}

func NewTrackingHandler(t *tracker.Tracker) *TrackingHandler {
	return &TrackingHandler{tracker: t}
}

type startTrackingRequest struct {
	Scope string `json:"scope" binding:"required"`
}

// StartTracking subscribes the aggregator to a scope's live feed.
func (h *TrackingHandler) StartTracking(c *gin.Context) {
	var request startTrackingRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	scope := models.TrackingScope(request.Scope)
	if !scope.IsValid() {
		utils.BadRequestResponse(c, "Invalid tracking scope")
		return
	}

	// The subscription outlives this request, so it hangs off the
	// background context rather than the request's.
	if err := h.tracker.Start(context.Background(), scope); err != nil {
		utils.ErrorResponse(c, http.StatusConflict, "TRACKING_START_FAILED", err.Error())
		return
	}

	utils.SuccessResponse(c, "Tracking started", gin.H{"scope": scope})
}

func (h *TrackingHandler) StopTracking(c *gin.Context) {
	h.tracker.Stop()
	utils.SuccessResponse(c, "Tracking stopped", nil)
}

func (h *TrackingHandler) GetStatus(c *gin.Context) {
	state, lastErr := h.tracker.State()

	data := gin.H{
		"state": state,
		"scope": h.tracker.Scope(),
	}
	if lastErr != "" {
		data["error"] = lastErr
	}

	utils.SuccessResponse(c, "Tracking status", data)
}

func (h *TrackingHandler) GetLocations(c *gin.Context) {
	locations := h.tracker.Locations()
	utils.SuccessResponseWithMeta(c, "Live locations", locations, &utils.Meta{Count: len(locations)})
}

func (h *TrackingHandler) GetStats(c *gin.Context) {
	utils.SuccessResponse(c, "Tracking statistics", h.tracker.Stats())
}

type adminLocationRequest struct {
	Latitude  float64 `json:"latitude" binding:"required"`
	Longitude float64 `json:"longitude" binding:"required"`
}

// SetAdminLocation pins the reference point for distance-from-admin.
func (h *TrackingHandler) SetAdminLocation(c *gin.Context) {
	var request adminLocationRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	if !utils.IsValidCoordinates(request.Latitude, request.Longitude) {
		utils.BadRequestResponse(c, "Coordinates out of range")
		return
	}

	h.tracker.SetAdminLocation(request.Latitude, request.Longitude)
	utils.SuccessResponse(c, "Admin location updated", nil)
}
