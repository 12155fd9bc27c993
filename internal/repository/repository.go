package repository

import (
	"context"
	"time"

	"fitcoach/workout-app/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error constants for repository layer
var (
	ErrNotFound     = RepositoryError("not found")
	ErrUpdateFailed = RepositoryError("update failed")
	ErrDeleteFailed = RepositoryError("delete failed")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// ProfileRepository defines the interface for interacting with profile data.
type ProfileRepository interface {
	Create(ctx context.Context, profile *domain.Profile) (primitive.ObjectID, error)
	GetByEmail(ctx context.Context, email string) (*domain.Profile, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Profile, error)
	GetStudentsByInstructorID(ctx context.Context, instructorID primitive.ObjectID) ([]domain.Profile, error)
	SetInstructorForStudent(ctx context.Context, studentID, instructorID primitive.ObjectID) error
}

// ExerciseRepository defines the interface for interacting with catalog exercise data.
type ExerciseRepository interface {
	Create(ctx context.Context, exercise *domain.Exercise) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Exercise, error)
	GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.Exercise, error)
	GetByInstructorID(ctx context.Context, instructorID primitive.ObjectID) ([]domain.Exercise, error)
	Update(ctx context.Context, exercise *domain.Exercise) error
	Delete(ctx context.Context, id primitive.ObjectID, instructorID primitive.ObjectID) error // Ensure instructor owns the exercise
}

// WorkoutHeaderPatch carries the header fields an update may change.
// Nil fields are left untouched.
type WorkoutHeaderPatch struct {
	Name        *string
	Description *string
	StudentID   *primitive.ObjectID
}

// WorkoutSearchFilter narrows a workout listing.
type WorkoutSearchFilter struct {
	Text      string // matched against name and description
	StudentID *primitive.ObjectID
	Limit     int64
	Offset    int64
}

// WorkoutRepository defines the interface for interacting with workout header rows.
type WorkoutRepository interface {
	Create(ctx context.Context, workout *domain.Workout) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Workout, error)
	GetByInstructorID(ctx context.Context, instructorID primitive.ObjectID) ([]domain.Workout, error)
	GetByStudentID(ctx context.Context, studentID primitive.ObjectID) ([]domain.Workout, error)
	Search(ctx context.Context, instructorID primitive.ObjectID, filter WorkoutSearchFilter) ([]domain.Workout, error)
	UpdateHeader(ctx context.Context, id primitive.ObjectID, patch WorkoutHeaderPatch) error
	Delete(ctx context.Context, id primitive.ObjectID) error

	// Stats queries; all scoped to one instructor.
	CountByInstructorID(ctx context.Context, instructorID primitive.ObjectID) (int64, error)
	CountByInstructorIDSince(ctx context.Context, instructorID primitive.ObjectID, since time.Time) (int64, error)
	StudentWorkoutCounts(ctx context.Context, instructorID primitive.ObjectID) ([]domain.StudentWorkoutCount, error)
}

// WorkoutExerciseRepository defines the interface for interacting with the
// exercise-configuration rows of a workout. Rows are only ever written or
// removed as a whole set per workout.
type WorkoutExerciseRepository interface {
	CreateMany(ctx context.Context, rows []domain.WorkoutExercise) error
	GetByWorkoutID(ctx context.Context, workoutID primitive.ObjectID) ([]domain.WorkoutExercise, error)
	DeleteByWorkoutID(ctx context.Context, workoutID primitive.ObjectID) error
}
