package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"padayatra/internal/models"
	"padayatra/internal/repositories/interfaces"
	"padayatra/internal/services"
	"padayatra/internal/utils"
)

type UserHandler struct {
	users interfaces.UserRepository
}

func NewUserHandler(users interfaces.UserRepository) *UserHandler {
	return &UserHandler{users: users}
}

type createUserRequest struct {
	Name        string `json:"name" binding:"required,min=2,max=100"`
	Email       string `json:"email" binding:"required,email"`
	Phone       string `json:"phone"`
	UserType    string `json:"user_type"`
	GroupID     string `json:"group_id"`
	DeviceToken string `json:"device_token"`
}

func (h *UserHandler) CreateUser(c *gin.Context) {
	var request createUserRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	userType := models.UserType(request.UserType)
	if request.UserType != "" && userType != models.UserTypePilgrim && userType != models.UserTypeAdmin {
		utils.BadRequestResponse(c, "Invalid user type")
		return
	}

	user := &models.User{
		Name:        request.Name,
		Email:       request.Email,
		Phone:       request.Phone,
		UserType:    userType,
		GroupID:     request.GroupID,
		DeviceToken: request.DeviceToken,
	}

	if err := h.users.Create(c.Request.Context(), user); err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "USER_CREATE_FAILED", err.Error())
		return
	}

	utils.CreatedResponse(c, "User created", user)
}

func (h *UserHandler) GetUser(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid user ID")
		return
	}

	user, err := h.users.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			utils.NotFoundResponse(c, "User")
			return
		}
		utils.ErrorResponse(c, http.StatusInternalServerError, "USER_GET_FAILED", err.Error())
		return
	}

	utils.SuccessResponse(c, "User details", user)
}

func (h *UserHandler) ListUsers(c *gin.Context) {
	filter := models.UserFilter{
		GroupID:      c.Query("group_id"),
		TrackingOnly: c.Query("tracking") == "true",
	}
	if userType := c.Query("user_type"); userType != "" {
		filter.UserType = models.UserType(userType)
	}

	users, err := h.users.List(c.Request.Context(), filter)
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "USER_LIST_FAILED", err.Error())
		return
	}

	utils.SuccessResponseWithMeta(c, "Users", users, &utils.Meta{Count: len(users)})
}

type setTrackingRequest struct {
	Tracking *bool `json:"tracking" binding:"required"`
}

// SetTracking toggles whether the user's positions feed the live view.
func (h *UserHandler) SetTracking(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid user ID")
		return
	}

	var request setTrackingRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	if err := h.users.SetTracking(c.Request.Context(), id, *request.Tracking); err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			utils.NotFoundResponse(c, "User")
			return
		}
		utils.ErrorResponse(c, http.StatusInternalServerError, "USER_UPDATE_FAILED", err.Error())
		return
	}

	utils.SuccessResponse(c, "Tracking preference updated", nil)
}
