package api

import (
	"net/http"
	"strconv"

	"fitcoach/workout-app/internal/apperr"
	"fitcoach/workout-app/internal/operation"
	"fitcoach/workout-app/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WorkoutHandler exposes the workout aggregate operations over HTTP. It goes
// through the operation runner so every call gets the reliability envelope
// (retry, timeout, draft persistence).
type WorkoutHandler struct {
	runner *operation.Runner
}

// NewWorkoutHandler creates a new WorkoutHandler.
func NewWorkoutHandler(runner *operation.Runner) *WorkoutHandler {
	return &WorkoutHandler{runner: runner}
}

// --- DTOs ---

type workoutExerciseRequest struct {
	ExerciseID  string `json:"exerciseId"`
	Sets        int    `json:"sets"`
	Reps        string `json:"reps"`
	RestSeconds int    `json:"restSeconds"`
	Notes       string `json:"notes,omitempty"`
}

type createWorkoutRequest struct {
	Name        string                   `json:"name"`
	Description string                   `json:"description,omitempty"`
	StudentID   string                   `json:"studentId"`
	Exercises   []workoutExerciseRequest `json:"exercises"`
}

type updateWorkoutRequest struct {
	Name        *string                   `json:"name,omitempty"`
	Description *string                   `json:"description,omitempty"`
	StudentID   *string                   `json:"studentId,omitempty"`
	Exercises   *[]workoutExerciseRequest `json:"exercises,omitempty"`
}

type duplicateWorkoutRequest struct {
	NewStudentID *string `json:"newStudentId,omitempty"`
	NewName      *string `json:"newName,omitempty"`
}

// hexOrNil converts an ID string to an ObjectID, tolerating malformed input
// by returning the nil ID. Shape validation with proper field paths happens
// in the service layer.
func hexOrNil(s string) primitive.ObjectID {
	id, err := primitive.ObjectIDFromHex(s)
	if err != nil {
		return primitive.NilObjectID
	}
	return id
}

func mapExerciseInputs(in []workoutExerciseRequest) []service.WorkoutExerciseInput {
	out := make([]service.WorkoutExerciseInput, len(in))
	for i, ex := range in {
		out[i] = service.WorkoutExerciseInput{
			ExerciseID:  hexOrNil(ex.ExerciseID),
			Sets:        ex.Sets,
			Reps:        ex.Reps,
			RestSeconds: ex.RestSeconds,
			Notes:       ex.Notes,
		}
	}
	return out
}

// respondTaxonomyError maps an apperr kind to an HTTP status and renders the
// error's display message, field path, and retry hint.
func respondTaxonomyError(c *gin.Context, err error) {
	ae := apperr.From(err)

	status := http.StatusBadGateway
	switch ae.Kind {
	case apperr.KindValidation:
		status = http.StatusBadRequest
	case apperr.KindPermission:
		status = http.StatusForbidden
	case apperr.KindNotFound:
		status = http.StatusNotFound
	case apperr.KindNetwork:
		status = http.StatusBadGateway
	}

	body := gin.H{
		"error":    ae.Message,
		"kind":     ae.Kind.String(),
		"canRetry": ae.Retryable(),
	}
	if ae.Field != "" {
		body["field"] = ae.Field
	}
	c.AbortWithStatusJSON(status, body)
}

// actingUserID pulls the authenticated user ID out of the JWT context.
func actingUserID(c *gin.Context) (primitive.ObjectID, bool) {
	idStr, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return primitive.NilObjectID, false
	}
	id, err := primitive.ObjectIDFromHex(idStr)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid user ID format in token.")
		return primitive.NilObjectID, false
	}
	return id, true
}

func pathWorkoutID(c *gin.Context) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid workout ID.")
		return primitive.NilObjectID, false
	}
	return id, true
}

// --- Instructor Handlers ---

// CreateWorkout creates a workout aggregate for one of the instructor's students.
func (h *WorkoutHandler) CreateWorkout(c *gin.Context) {
	instructorID, ok := actingUserID(c)
	if !ok {
		return
	}

	var req createWorkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	detail, err := h.runner.CreateWorkout(c.Request.Context(), instructorID, service.CreateWorkoutRequest{
		Name:        req.Name,
		Description: req.Description,
		StudentID:   hexOrNil(req.StudentID),
		Exercises:   mapExerciseInputs(req.Exercises),
	})
	if err != nil {
		respondTaxonomyError(c, err)
		return
	}
	c.JSON(http.StatusCreated, detail)
}

// ListWorkouts lists the instructor's workouts.
func (h *WorkoutHandler) ListWorkouts(c *gin.Context) {
	instructorID, ok := actingUserID(c)
	if !ok {
		return
	}

	details, err := h.runner.ListByInstructor(c.Request.Context(), instructorID)
	if err != nil {
		respondTaxonomyError(c, err)
		return
	}
	c.JSON(http.StatusOK, details)
}

// SearchWorkouts filters the instructor's workouts by text and student.
func (h *WorkoutHandler) SearchWorkouts(c *gin.Context) {
	instructorID, ok := actingUserID(c)
	if !ok {
		return
	}

	query := service.SearchWorkoutsQuery{Text: c.Query("q")}
	if s := c.Query("studentId"); s != "" {
		studentID, err := primitive.ObjectIDFromHex(s)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "Invalid studentId filter.")
			return
		}
		query.StudentID = &studentID
	}
	if s := c.Query("limit"); s != "" {
		if n, err := strconv.ParseInt(s, 10, 64); err == nil && n > 0 {
			query.Limit = n
		}
	}
	if s := c.Query("offset"); s != "" {
		if n, err := strconv.ParseInt(s, 10, 64); err == nil && n > 0 {
			query.Offset = n
		}
	}

	details, err := h.runner.SearchWorkouts(c.Request.Context(), instructorID, query)
	if err != nil {
		respondTaxonomyError(c, err)
		return
	}
	c.JSON(http.StatusOK, details)
}

// InstructorStats returns the instructor's dashboard summary. Always 200;
// the stats degrade to zeroes internally.
func (h *WorkoutHandler) InstructorStats(c *gin.Context) {
	instructorID, ok := actingUserID(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.runner.InstructorStats(c.Request.Context(), instructorID))
}

// GetWorkout returns one full aggregate the instructor owns.
func (h *WorkoutHandler) GetWorkout(c *gin.Context) {
	instructorID, ok := actingUserID(c)
	if !ok {
		return
	}
	id, ok := pathWorkoutID(c)
	if !ok {
		return
	}

	detail, err := h.runner.GetWorkoutDetails(c.Request.Context(), id)
	if err != nil {
		respondTaxonomyError(c, err)
		return
	}
	if detail.InstructorID != instructorID {
		// Do not reveal that the workout exists for someone else.
		respondTaxonomyError(c, apperr.NotFound("Workout not found."))
		return
	}
	c.JSON(http.StatusOK, detail)
}

// UpdateWorkout applies a partial patch; a present exercises array replaces
// the whole set.
func (h *WorkoutHandler) UpdateWorkout(c *gin.Context) {
	instructorID, ok := actingUserID(c)
	if !ok {
		return
	}
	id, ok := pathWorkoutID(c)
	if !ok {
		return
	}

	var req updateWorkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	patch := service.UpdateWorkoutRequest{
		Name:        req.Name,
		Description: req.Description,
	}
	if req.StudentID != nil {
		studentID := hexOrNil(*req.StudentID)
		patch.StudentID = &studentID
	}
	if req.Exercises != nil {
		exercises := mapExerciseInputs(*req.Exercises)
		patch.Exercises = &exercises
	}

	detail, err := h.runner.UpdateWorkout(c.Request.Context(), id, instructorID, patch)
	if err != nil {
		respondTaxonomyError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// DeleteWorkout removes an aggregate the instructor owns.
func (h *WorkoutHandler) DeleteWorkout(c *gin.Context) {
	instructorID, ok := actingUserID(c)
	if !ok {
		return
	}
	id, ok := pathWorkoutID(c)
	if !ok {
		return
	}

	if err := h.runner.DeleteWorkout(c.Request.Context(), id, instructorID); err != nil {
		respondTaxonomyError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DuplicateWorkout copies an aggregate, optionally retargeting and renaming it.
func (h *WorkoutHandler) DuplicateWorkout(c *gin.Context) {
	instructorID, ok := actingUserID(c)
	if !ok {
		return
	}
	id, ok := pathWorkoutID(c)
	if !ok {
		return
	}

	var req duplicateWorkoutRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			abortWithError(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
			return
		}
	}

	opts := service.DuplicateWorkoutOptions{NewName: req.NewName}
	if req.NewStudentID != nil {
		studentID := hexOrNil(*req.NewStudentID)
		opts.NewStudentID = &studentID
	}

	detail, err := h.runner.DuplicateWorkout(c.Request.Context(), id, instructorID, opts)
	if err != nil {
		respondTaxonomyError(c, err)
		return
	}
	c.JSON(http.StatusCreated, detail)
}

// GetCreateDraft returns the instructor's persisted creation draft, if any.
// 204 means no fresh draft exists.
func (h *WorkoutHandler) GetCreateDraft(c *gin.Context) {
	instructorID, ok := actingUserID(c)
	if !ok {
		return
	}

	var payload createWorkoutRequest
	if !h.runner.LoadDraft(c.Request.Context(), operation.CreateDraftKey(instructorID), &payload) {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, payload)
}

// DiscardCreateDraft drops the instructor's persisted creation draft.
func (h *WorkoutHandler) DiscardCreateDraft(c *gin.Context) {
	instructorID, ok := actingUserID(c)
	if !ok {
		return
	}
	h.runner.ClearDraft(c.Request.Context(), operation.CreateDraftKey(instructorID))
	c.Status(http.StatusNoContent)
}

// --- Student Handlers ---

// ListStudentWorkouts lists the authenticated student's assigned workouts.
func (h *WorkoutHandler) ListStudentWorkouts(c *gin.Context) {
	studentID, ok := actingUserID(c)
	if !ok {
		return
	}

	details, err := h.runner.ListByStudent(c.Request.Context(), studentID)
	if err != nil {
		respondTaxonomyError(c, err)
		return
	}
	c.JSON(http.StatusOK, details)
}

// GetStudentWorkout returns one of the student's workouts, verifying it is
// actually assigned to them.
func (h *WorkoutHandler) GetStudentWorkout(c *gin.Context) {
	studentID, ok := actingUserID(c)
	if !ok {
		return
	}
	id, ok := pathWorkoutID(c)
	if !ok {
		return
	}

	detail, err := h.runner.GetWorkoutDetails(c.Request.Context(), id)
	if err != nil {
		respondTaxonomyError(c, err)
		return
	}
	if detail.StudentID != studentID {
		// Do not reveal that the workout exists for someone else.
		respondTaxonomyError(c, apperr.NotFound("Workout not found."))
		return
	}
	c.JSON(http.StatusOK, detail)
}
