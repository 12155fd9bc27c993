package api

import (
	"net/http"

	"fitcoach/workout-app/internal/domain"
	"fitcoach/workout-app/internal/operation"
	"fitcoach/workout-app/internal/service"

	"github.com/gin-gonic/gin"
)

// SetupRoutes wires all handlers into the gin engine.
func SetupRoutes(
	router *gin.Engine,
	jwtSecret string,
	authService service.AuthService,
	profileService service.ProfileService,
	exerciseService service.ExerciseService,
	runner *operation.Runner,
) {
	authHandler := NewAuthHandler(authService)
	profileHandler := NewProfileHandler(profileService)
	exerciseHandler := NewExerciseHandler(exerciseService)
	workoutHandler := NewWorkoutHandler(runner)

	authMiddleware := AuthMiddleware(jwtSecret)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := router.Group("/api/v1")
	{
		authGroup := apiV1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
		}
	}

	protected := apiV1.Group("")
	protected.Use(authMiddleware)
	{
		protected.GET("/me", profileHandler.Me)

		// --- Instructor Routes ---
		instructorGroup := protected.Group("/instructor")
		instructorGroup.Use(RoleMiddleware(domain.RoleInstructor))
		{
			// Roster
			instructorGroup.POST("/students", profileHandler.AddStudent)
			instructorGroup.GET("/students", profileHandler.ListStudents)

			// Exercise catalog
			instructorGroup.POST("/exercises", exerciseHandler.CreateExercise)
			instructorGroup.GET("/exercises", exerciseHandler.ListExercises)
			instructorGroup.PUT("/exercises/:id", exerciseHandler.UpdateExercise)
			instructorGroup.DELETE("/exercises/:id", exerciseHandler.DeleteExercise)
			instructorGroup.POST("/exercises/media-upload-url", exerciseHandler.CreateMediaUploadURL)

			// Workout aggregates
			instructorGroup.POST("/workouts", workoutHandler.CreateWorkout)
			instructorGroup.GET("/workouts", workoutHandler.ListWorkouts)
			instructorGroup.GET("/workouts/search", workoutHandler.SearchWorkouts)
			instructorGroup.GET("/workouts/draft", workoutHandler.GetCreateDraft)
			instructorGroup.DELETE("/workouts/draft", workoutHandler.DiscardCreateDraft)
			instructorGroup.GET("/workouts/:id", workoutHandler.GetWorkout)
			instructorGroup.PUT("/workouts/:id", workoutHandler.UpdateWorkout)
			instructorGroup.DELETE("/workouts/:id", workoutHandler.DeleteWorkout)
			instructorGroup.POST("/workouts/:id/duplicate", workoutHandler.DuplicateWorkout)

			// Dashboard
			instructorGroup.GET("/stats", workoutHandler.InstructorStats)
		}

		// --- Student Routes ---
		studentGroup := protected.Group("/student")
		studentGroup.Use(RoleMiddleware(domain.RoleStudent))
		{
			studentGroup.GET("/workouts", workoutHandler.ListStudentWorkouts)
			studentGroup.GET("/workouts/:id", workoutHandler.GetStudentWorkout)
		}
	}
}
