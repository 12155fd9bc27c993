package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Workout is the header row of a workout aggregate: a named plan an instructor
// assigns to one of their students. Its exercise configurations live in the
// workout_exercises collection and are managed only through the owning workout.
type Workout struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	InstructorID primitive.ObjectID `bson:"instructorId" json:"instructorId"` // Acting instructor, never client-chosen for auth
	StudentID    primitive.ObjectID `bson:"studentId" json:"studentId"`
	Name         string             `bson:"name" json:"name"`
	Description  string             `bson:"description,omitempty" json:"description,omitempty"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// WorkoutExercise is one exercise's placement within a workout.
// Rows are created and destroyed only as part of their owning workout's
// create/update; they are never independently addressable.
type WorkoutExercise struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	WorkoutID   primitive.ObjectID `bson:"workoutId" json:"workoutId"`
	ExerciseID  primitive.ObjectID `bson:"exerciseId" json:"exerciseId"` // Link to the catalog Exercise
	Sets        int                `bson:"sets" json:"sets"`
	Reps        string             `bson:"reps" json:"reps"` // Free-form: "10-12", "até falha", ...
	RestSeconds int                `bson:"restSeconds" json:"restSeconds"`
	OrderIndex  int                `bson:"orderIndex" json:"orderIndex"` // 1-based, unique and contiguous per workout
	Notes       string             `bson:"notes,omitempty" json:"notes,omitempty"`
}

// WorkoutExerciseDetail joins a configuration row with its catalog exercise.
// Exercise may be nil when the catalog lookup failed or the entry was removed.
type WorkoutExerciseDetail struct {
	WorkoutExercise `bson:",inline"`
	Exercise        *Exercise `bson:"-" json:"exercise,omitempty"`
}

// WorkoutDetail is the full denormalized aggregate returned to callers:
// the header, the ordered exercise list, and the joined profiles.
// Student/Instructor may be nil when the corresponding join failed.
type WorkoutDetail struct {
	Workout    `bson:",inline"`
	Student    *Profile                `bson:"-" json:"student,omitempty"`
	Instructor *Profile                `bson:"-" json:"instructor,omitempty"`
	Exercises  []WorkoutExerciseDetail `bson:"-" json:"exercises"`
}

// StudentWorkoutCount is one row of the per-student workout grouping used for stats.
type StudentWorkoutCount struct {
	StudentID primitive.ObjectID `bson:"_id" json:"studentId"`
	Count     int64              `bson:"count" json:"count"`
}

// TopStudentStat identifies the student with the most workouts for an instructor.
type TopStudentStat struct {
	StudentID    primitive.ObjectID `json:"studentId"`
	Name         string             `json:"name,omitempty"`
	WorkoutCount int64              `json:"workoutCount"`
}

// InstructorStats is the dashboard summary for an instructor. All fields are
// zero-valued when the underlying queries fail; stats are best-effort.
type InstructorStats struct {
	TotalWorkouts    int64           `json:"totalWorkouts"`
	DistinctStudents int64           `json:"distinctStudents"`
	CreatedLast7Days int64           `json:"createdLast7Days"`
	TopStudent       *TopStudentStat `json:"topStudent,omitempty"`
}
