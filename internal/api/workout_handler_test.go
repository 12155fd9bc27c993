package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"fitcoach/workout-app/internal/apperr"
	"fitcoach/workout-app/internal/domain"
	"fitcoach/workout-app/internal/draft"
	"fitcoach/workout-app/internal/operation"
	"fitcoach/workout-app/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// nopKV satisfies draft.KV without persisting anything.
type nopKV struct{}

func (nopKV) Set(ctx context.Context, key, value string, ttl time.Duration) error { return nil }
func (nopKV) Get(ctx context.Context, key string) (string, bool, error)           { return "", false, nil }
func (nopKV) Del(ctx context.Context, key string) error                           { return nil }

// stubWorkoutGateway serves a single fixed aggregate by its ID.
type stubWorkoutGateway struct {
	detail *domain.WorkoutDetail
}

func (g *stubWorkoutGateway) GetDetails(ctx context.Context, id primitive.ObjectID) (*domain.WorkoutDetail, error) {
	if g.detail == nil || g.detail.ID != id {
		return nil, apperr.NotFound("Workout not found.")
	}
	return g.detail, nil
}

func (g *stubWorkoutGateway) Create(ctx context.Context, instructorID primitive.ObjectID, req service.CreateWorkoutRequest) (*domain.WorkoutDetail, error) {
	return g.detail, nil
}

func (g *stubWorkoutGateway) GetByInstructor(ctx context.Context, instructorID primitive.ObjectID) ([]domain.WorkoutDetail, error) {
	return nil, nil
}

func (g *stubWorkoutGateway) GetByStudent(ctx context.Context, studentID primitive.ObjectID) ([]domain.WorkoutDetail, error) {
	return nil, nil
}

func (g *stubWorkoutGateway) Update(ctx context.Context, id, instructorID primitive.ObjectID, patch service.UpdateWorkoutRequest) (*domain.WorkoutDetail, error) {
	return g.detail, nil
}

func (g *stubWorkoutGateway) Delete(ctx context.Context, id, instructorID primitive.ObjectID) error {
	return nil
}

func (g *stubWorkoutGateway) Duplicate(ctx context.Context, id, instructorID primitive.ObjectID, opts service.DuplicateWorkoutOptions) (*domain.WorkoutDetail, error) {
	return g.detail, nil
}

func (g *stubWorkoutGateway) Search(ctx context.Context, instructorID primitive.ObjectID, query service.SearchWorkoutsQuery) ([]domain.WorkoutDetail, error) {
	return nil, nil
}

func (g *stubWorkoutGateway) GetInstructorStats(ctx context.Context, instructorID primitive.ObjectID) *domain.InstructorStats {
	return &domain.InstructorStats{}
}

func newWorkoutTestHandler(detail *domain.WorkoutDetail) *WorkoutHandler {
	runner := operation.NewRunner(&stubWorkoutGateway{detail: detail}, draft.NewStore(nopKV{}), operation.Config{
		MaxAttempts: 1,
		BaseDelay:   time.Millisecond,
		Timeout:     time.Second,
	})
	return NewWorkoutHandler(runner)
}

// invoke runs a handler with an authenticated user and a workout path param.
func invoke(t *testing.T, handler func(*gin.Context), userID, workoutID primitive.ObjectID) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/workouts/"+workoutID.Hex(), nil)
	c.Params = gin.Params{{Key: "id", Value: workoutID.Hex()}}
	c.Set(ContextUserIDKey, userID.Hex())

	handler(c)
	return w
}

func TestGetWorkoutOwnerSeesAggregate(t *testing.T) {
	ownerID := primitive.NewObjectID()
	workoutID := primitive.NewObjectID()
	h := newWorkoutTestHandler(&domain.WorkoutDetail{
		Workout: domain.Workout{ID: workoutID, InstructorID: ownerID, Name: "Leg Day"},
	})

	w := invoke(t, h.GetWorkout, ownerID, workoutID)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (body: %s)", w.Code, http.StatusOK, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "Leg Day") {
		t.Errorf("body = %s, want the aggregate", w.Body.String())
	}
}

func TestGetWorkoutHidesForeignInstructorsWorkout(t *testing.T) {
	ownerID := primitive.NewObjectID()
	workoutID := primitive.NewObjectID()
	h := newWorkoutTestHandler(&domain.WorkoutDetail{
		Workout: domain.Workout{ID: workoutID, InstructorID: ownerID, Name: "Leg Day"},
	})

	w := invoke(t, h.GetWorkout, primitive.NewObjectID(), workoutID)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d (body: %s)", w.Code, http.StatusNotFound, w.Body.String())
	}
	if strings.Contains(w.Body.String(), "Leg Day") || strings.Contains(w.Body.String(), ownerID.Hex()) {
		t.Errorf("body = %s, must not leak the foreign aggregate", w.Body.String())
	}
}

func TestGetStudentWorkoutHidesForeignStudentsWorkout(t *testing.T) {
	assignedStudent := primitive.NewObjectID()
	workoutID := primitive.NewObjectID()
	h := newWorkoutTestHandler(&domain.WorkoutDetail{
		Workout: domain.Workout{ID: workoutID, InstructorID: primitive.NewObjectID(), StudentID: assignedStudent, Name: "Leg Day"},
	})

	w := invoke(t, h.GetStudentWorkout, primitive.NewObjectID(), workoutID)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d (body: %s)", w.Code, http.StatusNotFound, w.Body.String())
	}

	if w := invoke(t, h.GetStudentWorkout, assignedStudent, workoutID); w.Code != http.StatusOK {
		t.Errorf("assigned student got status %d, want %d", w.Code, http.StatusOK)
	}
}
