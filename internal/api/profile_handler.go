package api

import (
	"errors"
	"fmt"
	"net/http"

	"fitcoach/workout-app/internal/service"

	"github.com/gin-gonic/gin"
)

// ProfileHandler exposes roster management and the authenticated profile.
type ProfileHandler struct {
	profileService service.ProfileService
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(profileService service.ProfileService) *ProfileHandler {
	return &ProfileHandler{profileService: profileService}
}

type addStudentRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// Me returns the authenticated user's own profile.
func (h *ProfileHandler) Me(c *gin.Context) {
	userID, ok := actingUserID(c)
	if !ok {
		return
	}

	profile, err := h.profileService.GetProfile(c.Request.Context(), userID)
	if err != nil {
		abortWithError(c, http.StatusNotFound, "Profile not found.")
		return
	}
	c.JSON(http.StatusOK, MapProfileToResponse(profile))
}

// AddStudent attaches an existing student account to the instructor's roster.
func (h *ProfileHandler) AddStudent(c *gin.Context) {
	instructorID, ok := actingUserID(c)
	if !ok {
		return
	}

	var req addStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	student, err := h.profileService.AddStudentByEmail(c.Request.Context(), instructorID, req.Email)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrStudentNotFound):
			abortWithError(c, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrStudentNotRole):
			abortWithError(c, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrStudentAlreadyCoached):
			abortWithError(c, http.StatusConflict, err.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to add student.")
		}
		return
	}
	c.JSON(http.StatusOK, MapProfileToResponse(student))
}

// ListStudents returns the instructor's roster.
func (h *ProfileHandler) ListStudents(c *gin.Context) {
	instructorID, ok := actingUserID(c)
	if !ok {
		return
	}

	students, err := h.profileService.GetStudents(c.Request.Context(), instructorID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to list students.")
		return
	}
	c.JSON(http.StatusOK, MapProfilesToResponse(students))
}
