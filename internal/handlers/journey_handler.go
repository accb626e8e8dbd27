package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"padayatra/internal/models"
	"padayatra/internal/services"
	"padayatra/internal/utils"
)

type JourneyHandler struct {
	journeys *services.JourneyService
}

func NewJourneyHandler(journeys *services.JourneyService) *JourneyHandler {
	return &JourneyHandler{journeys: journeys}
}

type positionRequest struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timestamp int64   `json:"timestamp" binding:"required"`
}

func (r positionRequest) position(userID primitive.ObjectID) models.Position {
	return models.Position{
		UserID:    userID.Hex(),
		Latitude:  r.Latitude,
		Longitude: r.Longitude,
		Timestamp: r.Timestamp,
	}
}

// ReportPosition applies one position report to the user's journey.
func (h *JourneyHandler) ReportPosition(c *gin.Context) {
	userID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid user ID")
		return
	}

	var request positionRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	result, err := h.journeys.ReportPosition(c.Request.Context(), userID, request.position(userID))
	if err != nil {
		respondJourneyError(c, err)
		return
	}

	utils.SuccessResponse(c, "Position processed", result)
}

type batchPositionRequest struct {
	Positions []positionRequest `json:"positions" binding:"required,min=1"`
}

type batchPositionResult struct {
	Result *services.PositionResult `json:"result,omitempty"`
	Error  string                   `json:"error,omitempty"`
}

// ReportBatch applies a buffer of positions a device accumulated offline.
// Each position is applied independently; the response mirrors the request
// order.
func (h *JourneyHandler) ReportBatch(c *gin.Context) {
	userID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid user ID")
		return
	}

	var request batchPositionRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	reports := make([]services.PositionReport, len(request.Positions))
	for i, p := range request.Positions {
		reports[i] = services.PositionReport{UserID: userID, Position: p.position(userID)}
	}

	results := h.journeys.ReportBatch(c.Request.Context(), reports)

	out := make([]batchPositionResult, len(results))
	for i, r := range results {
		out[i].Result = r.Result
		if r.Err != nil {
			out[i].Error = r.Err.Error()
		}
	}

	utils.SuccessResponseWithMeta(c, "Batch processed", out, &utils.Meta{Count: len(out)})
}

func (h *JourneyHandler) StartJourney(c *gin.Context) {
	userID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid user ID")
		return
	}

	user, err := h.journeys.StartJourney(c.Request.Context(), userID)
	if err != nil {
		respondJourneyError(c, err)
		return
	}

	utils.SuccessResponse(c, "Journey started", user)
}

func (h *JourneyHandler) CompleteJourney(c *gin.Context) {
	userID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid user ID")
		return
	}

	user, err := h.journeys.CompleteJourney(c.Request.Context(), userID)
	if err != nil {
		respondJourneyError(c, err)
		return
	}

	utils.SuccessResponse(c, "Journey completed", user)
}

func (h *JourneyHandler) RestartJourney(c *gin.Context) {
	userID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid user ID")
		return
	}

	user, err := h.journeys.RestartJourney(c.Request.Context(), userID)
	if err != nil {
		respondJourneyError(c, err)
		return
	}

	utils.SuccessResponse(c, "Journey restarted", user)
}

type devicePositionRequest struct {
	UserID    string  `json:"user_id" binding:"required"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timestamp int64   `json:"timestamp" binding:"required"`
}

// ReportDevicePosition is the HTTP fallback for devices that cannot hold a
// websocket open; the user comes from the payload instead of the path.
func (h *JourneyHandler) ReportDevicePosition(c *gin.Context) {
	var request devicePositionRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	userID, err := primitive.ObjectIDFromHex(request.UserID)
	if err != nil {
		utils.BadRequestResponse(c, "Invalid user ID")
		return
	}

	result, err := h.journeys.ReportPosition(c.Request.Context(), userID, models.Position{
		UserID:    request.UserID,
		Latitude:  request.Latitude,
		Longitude: request.Longitude,
		Timestamp: request.Timestamp,
	})
	if err != nil {
		respondJourneyError(c, err)
		return
	}

	utils.SuccessResponse(c, "Position processed", result)
}

func (h *JourneyHandler) GetProgress(c *gin.Context) {
	userID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid user ID")
		return
	}

	progress, err := h.journeys.Progress(c.Request.Context(), userID)
	if err != nil {
		respondJourneyError(c, err)
		return
	}

	utils.SuccessResponse(c, "Journey progress", progress)
}

func respondJourneyError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidCoordinate):
		utils.BadRequestResponse(c, "Coordinates out of range")
	case errors.Is(err, services.ErrUserNotFound):
		utils.NotFoundResponse(c, "User")
	case errors.Is(err, services.ErrInvalidTransition):
		utils.ConflictResponse(c, "Journey status transition not allowed")
	default:
		utils.ErrorResponse(c, http.StatusInternalServerError, "JOURNEY_OPERATION_FAILED", err.Error())
	}
}
