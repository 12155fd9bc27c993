package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fitcoach/workout-app/internal/domain"
	"fitcoach/workout-app/internal/repository"
	"fitcoach/workout-app/internal/storage"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrExerciseNotFound     = errors.New("exercise not found")
	ErrExerciseAccessDenied = errors.New("access denied to modify or delete this exercise")
	ErrValidationFailed     = errors.New("exercise validation failed")
)

// MediaUploadTicket carries a presigned PUT URL plus the object key the
// client must upload to.
type MediaUploadTicket struct {
	UploadURL string `json:"uploadUrl"`
	ObjectKey string `json:"objectKey"`
}

// --- Service Interface ---
type ExerciseService interface {
	CreateExercise(ctx context.Context, instructorID primitive.ObjectID, name, description, muscleGroup, mediaURL string) (*domain.Exercise, error)
	GetExerciseByID(ctx context.Context, exerciseID primitive.ObjectID) (*domain.Exercise, error)
	GetExercisesByInstructor(ctx context.Context, instructorID primitive.ObjectID) ([]domain.Exercise, error)
	UpdateExercise(ctx context.Context, instructorID, exerciseID primitive.ObjectID, name, description, muscleGroup, mediaURL string) (*domain.Exercise, error)
	DeleteExercise(ctx context.Context, instructorID, exerciseID primitive.ObjectID) error
	GenerateMediaUploadURL(ctx context.Context, instructorID primitive.ObjectID, fileName, contentType string) (*MediaUploadTicket, error)
}

// --- Service Implementation ---

type exerciseService struct {
	exerciseRepo repository.ExerciseRepository
	fileStorage  storage.FileStorage
}

// NewExerciseService creates a new instance of exerciseService.
func NewExerciseService(exerciseRepo repository.ExerciseRepository, fileStorage storage.FileStorage) ExerciseService {
	return &exerciseService{
		exerciseRepo: exerciseRepo,
		fileStorage:  fileStorage,
	}
}

// CreateExercise handles the creation of a new catalog exercise by an instructor.
func (s *exerciseService) CreateExercise(ctx context.Context, instructorID primitive.ObjectID, name, description, muscleGroup, mediaURL string) (*domain.Exercise, error) {
	if name == "" {
		return nil, ErrValidationFailed
	}
	if instructorID == primitive.NilObjectID {
		return nil, errors.New("instructor ID is required to create an exercise")
	}

	exercise := &domain.Exercise{
		InstructorID: instructorID,
		Name:         name,
		Description:  description,
		MuscleGroup:  muscleGroup,
		MediaURL:     mediaURL,
	}

	exerciseID, err := s.exerciseRepo.Create(ctx, exercise)
	if err != nil {
		return nil, err
	}
	// Fetch again so timestamps set by the repository come back populated.
	return s.exerciseRepo.GetByID(ctx, exerciseID)
}

// GetExerciseByID retrieves a single catalog exercise.
func (s *exerciseService) GetExerciseByID(ctx context.Context, exerciseID primitive.ObjectID) (*domain.Exercise, error) {
	exercise, err := s.exerciseRepo.GetByID(ctx, exerciseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrExerciseNotFound
		}
		return nil, err
	}
	return exercise, nil
}

// GetExercisesByInstructor retrieves all catalog exercises owned by an instructor.
func (s *exerciseService) GetExercisesByInstructor(ctx context.Context, instructorID primitive.ObjectID) ([]domain.Exercise, error) {
	if instructorID == primitive.NilObjectID {
		return nil, errors.New("instructor ID cannot be nil")
	}
	return s.exerciseRepo.GetByInstructorID(ctx, instructorID)
}

// UpdateExercise updates a catalog exercise after an ownership check.
func (s *exerciseService) UpdateExercise(ctx context.Context, instructorID, exerciseID primitive.ObjectID, name, description, muscleGroup, mediaURL string) (*domain.Exercise, error) {
	if name == "" {
		return nil, ErrValidationFailed
	}

	existing, err := s.exerciseRepo.GetByID(ctx, exerciseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrExerciseNotFound
		}
		return nil, err
	}
	if existing.InstructorID != instructorID {
		return nil, ErrExerciseAccessDenied
	}

	existing.Name = name
	existing.Description = description
	existing.MuscleGroup = muscleGroup
	existing.MediaURL = mediaURL

	if err := s.exerciseRepo.Update(ctx, existing); err != nil {
		return nil, err
	}
	return s.exerciseRepo.GetByID(ctx, exerciseID)
}

// DeleteExercise removes a catalog exercise the instructor owns.
func (s *exerciseService) DeleteExercise(ctx context.Context, instructorID, exerciseID primitive.ObjectID) error {
	err := s.exerciseRepo.Delete(ctx, exerciseID, instructorID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrExerciseNotFound
		}
		return err
	}
	return nil
}

// GenerateMediaUploadURL creates a presigned PUT URL for exercise
// demonstration media. The object key is unique per upload.
func (s *exerciseService) GenerateMediaUploadURL(ctx context.Context, instructorID primitive.ObjectID, fileName, contentType string) (*MediaUploadTicket, error) {
	if instructorID == primitive.NilObjectID || fileName == "" || contentType == "" {
		return nil, errors.New("instructor ID, file name, and content type are required")
	}

	objectKey := fmt.Sprintf("exercise-media/%s/%s-%s", instructorID.Hex(), uuid.NewString(), fileName)
	uploadURL, err := s.fileStorage.GeneratePresignedUploadURL(ctx, objectKey, contentType, 15*time.Minute)
	if err != nil {
		return nil, err
	}
	return &MediaUploadTicket{UploadURL: uploadURL, ObjectKey: objectKey}, nil
}
