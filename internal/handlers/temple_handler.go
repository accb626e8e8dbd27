package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"padayatra/internal/models"
	"padayatra/internal/repositories/interfaces"
	"padayatra/internal/services"
	"padayatra/internal/utils"
)

type TempleHandler struct {
	temples interfaces.TempleRepository
}

func NewTempleHandler(temples interfaces.TempleRepository) *TempleHandler {
	return &TempleHandler{temples: temples}
}

func (h *TempleHandler) ListTemples(c *gin.Context) {
	temples, err := h.temples.List(c.Request.Context())
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "TEMPLE_LIST_FAILED", err.Error())
		return
	}

	utils.SuccessResponseWithMeta(c, "Temples along the route", temples, &utils.Meta{Count: len(temples)})
}

func (h *TempleHandler) GetTemple(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid temple ID")
		return
	}

	temple, err := h.temples.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrTempleNotFound) {
			utils.NotFoundResponse(c, "Temple")
			return
		}
		utils.ErrorResponse(c, http.StatusInternalServerError, "TEMPLE_GET_FAILED", err.Error())
		return
	}

	utils.SuccessResponse(c, "Temple details", temple)
}

type createTempleRequest struct {
	Name         string  `json:"name" binding:"required"`
	Description  string  `json:"description"`
	District     string  `json:"district"`
	State        string  `json:"state"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	VisitRadiusM float64 `json:"visit_radius_m"`
	Order        int     `json:"order" binding:"required"`
}

// CreateTemple registers a route stop. Used when seeding the route before
// the yatra starts.
func (h *TempleHandler) CreateTemple(c *gin.Context) {
	var request createTempleRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	if !utils.IsValidCoordinates(request.Latitude, request.Longitude) {
		utils.BadRequestResponse(c, "Coordinates out of range")
		return
	}

	temple := &models.Temple{
		Name:         request.Name,
		Description:  request.Description,
		District:     request.District,
		State:        request.State,
		Location:     models.NewLocation(request.Latitude, request.Longitude),
		VisitRadiusM: request.VisitRadiusM,
		Order:        request.Order,
	}

	if err := h.temples.Create(c.Request.Context(), temple); err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "TEMPLE_CREATE_FAILED", err.Error())
		return
	}

	utils.CreatedResponse(c, "Temple created", temple)
}

// GetNearby returns temples around a point, nearest first.
func (h *TempleHandler) GetNearby(c *gin.Context) {
	lat, errLat := strconv.ParseFloat(c.Query("latitude"), 64)
	lng, errLng := strconv.ParseFloat(c.Query("longitude"), 64)
	if errLat != nil || errLng != nil {
		utils.BadRequestResponse(c, "latitude and longitude query parameters are required")
		return
	}
	if !utils.IsValidCoordinates(lat, lng) {
		utils.BadRequestResponse(c, "Coordinates out of range")
		return
	}

	radius := utils.DefaultTempleSearchRadiusM
	if raw := c.Query("radius"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil || parsed <= 0 {
			utils.BadRequestResponse(c, "Invalid radius")
			return
		}
		radius = parsed
	}

	temples, err := h.temples.FindNear(c.Request.Context(), lat, lng, radius)
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "TEMPLE_SEARCH_FAILED", err.Error())
		return
	}

	utils.SuccessResponseWithMeta(c, "Nearby temples", temples, &utils.Meta{Count: len(temples)})
}
