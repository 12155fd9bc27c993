package api

import (
	"errors"
	"net/http"

	"fitcoach/workout-app/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ExerciseHandler exposes the instructor's catalog exercise operations.
type ExerciseHandler struct {
	exerciseService service.ExerciseService
}

// NewExerciseHandler creates a new ExerciseHandler.
func NewExerciseHandler(exerciseService service.ExerciseService) *ExerciseHandler {
	return &ExerciseHandler{exerciseService: exerciseService}
}

// --- DTOs ---

type exerciseRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description,omitempty"`
	MuscleGroup string `json:"muscleGroup,omitempty"`
	MediaURL    string `json:"mediaUrl,omitempty"`
}

type mediaUploadRequest struct {
	FileName    string `json:"fileName" binding:"required"`
	ContentType string `json:"contentType" binding:"required"`
}

func (h *ExerciseHandler) mapServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrExerciseNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrExerciseAccessDenied):
		abortWithError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrValidationFailed):
		abortWithError(c, http.StatusBadRequest, err.Error())
	default:
		abortWithError(c, http.StatusInternalServerError, "Exercise operation failed.")
	}
}

// CreateExercise adds a catalog exercise to the instructor's library.
func (h *ExerciseHandler) CreateExercise(c *gin.Context) {
	instructorID, ok := actingUserID(c)
	if !ok {
		return
	}

	var req exerciseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	exercise, err := h.exerciseService.CreateExercise(c.Request.Context(), instructorID, req.Name, req.Description, req.MuscleGroup, req.MediaURL)
	if err != nil {
		h.mapServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, exercise)
}

// ListExercises returns the instructor's catalog.
func (h *ExerciseHandler) ListExercises(c *gin.Context) {
	instructorID, ok := actingUserID(c)
	if !ok {
		return
	}

	exercises, err := h.exerciseService.GetExercisesByInstructor(c.Request.Context(), instructorID)
	if err != nil {
		h.mapServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, exercises)
}

// UpdateExercise updates a catalog exercise the instructor owns.
func (h *ExerciseHandler) UpdateExercise(c *gin.Context) {
	instructorID, ok := actingUserID(c)
	if !ok {
		return
	}
	exerciseID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid exercise ID.")
		return
	}

	var req exerciseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	exercise, err := h.exerciseService.UpdateExercise(c.Request.Context(), instructorID, exerciseID, req.Name, req.Description, req.MuscleGroup, req.MediaURL)
	if err != nil {
		h.mapServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, exercise)
}

// DeleteExercise removes a catalog exercise the instructor owns.
func (h *ExerciseHandler) DeleteExercise(c *gin.Context) {
	instructorID, ok := actingUserID(c)
	if !ok {
		return
	}
	exerciseID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid exercise ID.")
		return
	}

	if err := h.exerciseService.DeleteExercise(c.Request.Context(), instructorID, exerciseID); err != nil {
		h.mapServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// CreateMediaUploadURL issues a presigned PUT URL for exercise media.
func (h *ExerciseHandler) CreateMediaUploadURL(c *gin.Context) {
	instructorID, ok := actingUserID(c)
	if !ok {
		return
	}

	var req mediaUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	ticket, err := h.exerciseService.GenerateMediaUploadURL(c.Request.Context(), instructorID, req.FileName, req.ContentType)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to generate upload URL.")
		return
	}
	c.JSON(http.StatusOK, ticket)
}
