package service

import (
	"context"
	"errors"

	"fitcoach/workout-app/internal/domain"
	"fitcoach/workout-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrStudentNotFound       = errors.New("student profile not found")
	ErrStudentNotRole        = errors.New("profile found but is not a student")
	ErrStudentAlreadyCoached = errors.New("student is already coached by another instructor")
)

// --- Service Interface ---

// ProfileService covers roster management: which students an instructor coaches.
type ProfileService interface {
	AddStudentByEmail(ctx context.Context, instructorID primitive.ObjectID, studentEmail string) (*domain.Profile, error)
	GetStudents(ctx context.Context, instructorID primitive.ObjectID) ([]domain.Profile, error)
	GetProfile(ctx context.Context, id primitive.ObjectID) (*domain.Profile, error)
}

// --- Service Implementation ---

type profileService struct {
	profileRepo repository.ProfileRepository
}

// NewProfileService creates a new instance of profileService.
func NewProfileService(profileRepo repository.ProfileRepository) ProfileService {
	return &profileService{profileRepo: profileRepo}
}

// AddStudentByEmail finds a student by email and attaches them to the instructor.
func (s *profileService) AddStudentByEmail(ctx context.Context, instructorID primitive.ObjectID, studentEmail string) (*domain.Profile, error) {
	if instructorID == primitive.NilObjectID || studentEmail == "" {
		return nil, errors.New("instructor ID and student email are required")
	}

	student, err := s.profileRepo.GetByEmail(ctx, studentEmail)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrStudentNotFound
		}
		return nil, err
	}

	if student.Role != domain.RoleStudent {
		return nil, ErrStudentNotRole
	}

	if student.InstructorID != nil && *student.InstructorID != primitive.NilObjectID {
		if *student.InstructorID == instructorID {
			// Already coached by this instructor; nothing to do.
			student.PasswordHash = ""
			return student, nil
		}
		return nil, ErrStudentAlreadyCoached
	}

	if err := s.profileRepo.SetInstructorForStudent(ctx, student.ID, instructorID); err != nil {
		return nil, err
	}

	student.InstructorID = &instructorID
	student.PasswordHash = ""
	return student, nil
}

// GetStudents retrieves the students coached by the instructor.
func (s *profileService) GetStudents(ctx context.Context, instructorID primitive.ObjectID) ([]domain.Profile, error) {
	if instructorID == primitive.NilObjectID {
		return nil, errors.New("instructor ID is required")
	}
	students, err := s.profileRepo.GetStudentsByInstructorID(ctx, instructorID)
	if err != nil {
		return nil, err
	}
	for i := range students {
		students[i].PasswordHash = ""
	}
	return students, nil
}

// GetProfile retrieves a single profile by ID.
func (s *profileService) GetProfile(ctx context.Context, id primitive.ObjectID) (*domain.Profile, error) {
	profile, err := s.profileRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrStudentNotFound
		}
		return nil, err
	}
	profile.PasswordHash = ""
	return profile, nil
}
