package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"fitcoach/workout-app/internal/apperr"
	"fitcoach/workout-app/internal/domain"
	"fitcoach/workout-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const workoutNameMaxLen = 255

// --- Request Types ---

// WorkoutExerciseInput is one exercise configuration in a create/update
// request. Order in the slice is canonical; order indices are reassigned
// from slice position on every write.
type WorkoutExerciseInput struct {
	ExerciseID  primitive.ObjectID `json:"exerciseId"`
	Sets        int                `json:"sets"`
	Reps        string             `json:"reps"`
	RestSeconds int                `json:"restSeconds"`
	Notes       string             `json:"notes,omitempty"`
}

// CreateWorkoutRequest is the payload for creating a workout aggregate.
type CreateWorkoutRequest struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description,omitempty"`
	StudentID   primitive.ObjectID     `json:"studentId"`
	Exercises   []WorkoutExerciseInput `json:"exercises"`
}

// UpdateWorkoutRequest is a partial patch. Nil header fields are untouched;
// a non-nil Exercises slice replaces the whole existing set (even if empty).
type UpdateWorkoutRequest struct {
	Name        *string                 `json:"name,omitempty"`
	Description *string                 `json:"description,omitempty"`
	StudentID   *primitive.ObjectID     `json:"studentId,omitempty"`
	Exercises   *[]WorkoutExerciseInput `json:"exercises,omitempty"`
}

// DuplicateWorkoutOptions override the copy's name and target student.
type DuplicateWorkoutOptions struct {
	NewStudentID *primitive.ObjectID `json:"newStudentId,omitempty"`
	NewName      *string             `json:"newName,omitempty"`
}

// SearchWorkoutsQuery filters and paginates an instructor's workout listing.
type SearchWorkoutsQuery struct {
	Text      string
	StudentID *primitive.ObjectID
	Limit     int64
	Offset    int64
}

// --- Service Interface ---

// WorkoutService manages the workout aggregate: the header row plus its
// ordered exercise configurations, treated as one consistency unit. All
// failures leaving this layer are apperr taxonomy errors.
type WorkoutService interface {
	Create(ctx context.Context, instructorID primitive.ObjectID, req CreateWorkoutRequest) (*domain.WorkoutDetail, error)
	GetDetails(ctx context.Context, id primitive.ObjectID) (*domain.WorkoutDetail, error)
	GetByInstructor(ctx context.Context, instructorID primitive.ObjectID) ([]domain.WorkoutDetail, error)
	GetByStudent(ctx context.Context, studentID primitive.ObjectID) ([]domain.WorkoutDetail, error)
	Update(ctx context.Context, id, instructorID primitive.ObjectID, patch UpdateWorkoutRequest) (*domain.WorkoutDetail, error)
	Delete(ctx context.Context, id, instructorID primitive.ObjectID) error
	Duplicate(ctx context.Context, id, instructorID primitive.ObjectID, opts DuplicateWorkoutOptions) (*domain.WorkoutDetail, error)
	Search(ctx context.Context, instructorID primitive.ObjectID, query SearchWorkoutsQuery) ([]domain.WorkoutDetail, error)
	GetInstructorStats(ctx context.Context, instructorID primitive.ObjectID) *domain.InstructorStats
}

// --- Service Implementation ---

type workoutService struct {
	profileRepo         repository.ProfileRepository
	exerciseRepo        repository.ExerciseRepository
	workoutRepo         repository.WorkoutRepository
	workoutExerciseRepo repository.WorkoutExerciseRepository
	now                 func() time.Time
}

// NewWorkoutService creates a new instance of workoutService.
func NewWorkoutService(
	profileRepo repository.ProfileRepository,
	exerciseRepo repository.ExerciseRepository,
	workoutRepo repository.WorkoutRepository,
	workoutExerciseRepo repository.WorkoutExerciseRepository,
) WorkoutService {
	return &workoutService{
		profileRepo:         profileRepo,
		exerciseRepo:        exerciseRepo,
		workoutRepo:         workoutRepo,
		workoutExerciseRepo: workoutExerciseRepo,
		now:                 time.Now,
	}
}

// === Validation ===

// validateExercise checks one exercise input; prefix is the dotted path to it.
func validateExercise(prefix string, ex WorkoutExerciseInput) *apperr.Error {
	if ex.ExerciseID == primitive.NilObjectID {
		return apperr.Validation(prefix+".exerciseId", "Exercise is required.")
	}
	if ex.Sets < 1 {
		return apperr.Validation(prefix+".sets", "Sets must be at least 1.")
	}
	if ex.Reps == "" {
		return apperr.Validation(prefix+".reps", "Reps are required.")
	}
	if ex.RestSeconds < 0 {
		return apperr.Validation(prefix+".restSeconds", "Rest time cannot be negative.")
	}
	return nil
}

// validateCreate checks the request shape. Fields are checked in a fixed
// order (name, student, exercise list, then each exercise front to back) and
// the first violation wins.
func validateCreate(req CreateWorkoutRequest) *apperr.Error {
	if req.Name == "" {
		return apperr.Validation("name", "Workout name is required.")
	}
	if len(req.Name) > workoutNameMaxLen {
		return apperr.Validation("name", "Workout name is too long.")
	}
	if req.StudentID == primitive.NilObjectID {
		return apperr.Validation("studentId", "Student is required.")
	}
	if len(req.Exercises) == 0 {
		return apperr.Validation("exercises", "A workout needs at least one exercise.")
	}
	for i, ex := range req.Exercises {
		if err := validateExercise(fmt.Sprintf("exercises.%d", i), ex); err != nil {
			return err
		}
	}
	return nil
}

func validateUpdate(patch UpdateWorkoutRequest) *apperr.Error {
	if patch.Name != nil {
		if *patch.Name == "" {
			return apperr.Validation("name", "Workout name is required.")
		}
		if len(*patch.Name) > workoutNameMaxLen {
			return apperr.Validation("name", "Workout name is too long.")
		}
	}
	if patch.Exercises != nil {
		// No minimum on update; an explicit empty set is allowed.
		for i, ex := range *patch.Exercises {
			if err := validateExercise(fmt.Sprintf("exercises.%d", i), ex); err != nil {
				return err
			}
		}
	}
	return nil
}

// === Permission Checks ===

// checkStudentOwnership verifies the student resolves and is coached by the
// acting instructor. This is a client-side fast-fail; the store's own access
// policy remains the authoritative boundary.
func (s *workoutService) checkStudentOwnership(ctx context.Context, instructorID, studentID primitive.ObjectID) error {
	student, err := s.profileRepo.GetByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("Student not found.")
		}
		return apperr.Network("Could not verify the student. Please try again.")
	}
	if !student.CoachedBy(instructorID) {
		return apperr.Permission("You can only create workouts for your own students.")
	}
	return nil
}

func (s *workoutService) getOwnedWorkout(ctx context.Context, id, instructorID primitive.ObjectID) (*domain.Workout, error) {
	workout, err := s.workoutRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("Workout not found.")
		}
		return nil, apperr.Network("Could not load the workout. Please try again.")
	}
	if workout.InstructorID != instructorID {
		return nil, apperr.Permission("You can only manage your own workouts.")
	}
	return workout, nil
}

// === Aggregate Operations ===

// Create validates the request, verifies the student belongs to the acting
// instructor, inserts the header row, then batch-inserts the exercise rows.
// The store offers no client-visible multi-statement transaction, so a
// failed exercise insert is compensated by deleting the just-created header
// before the original error is propagated.
func (s *workoutService) Create(ctx context.Context, instructorID primitive.ObjectID, req CreateWorkoutRequest) (*domain.WorkoutDetail, error) {
	if err := validateCreate(req); err != nil {
		return nil, err
	}
	if err := s.checkStudentOwnership(ctx, instructorID, req.StudentID); err != nil {
		return nil, err
	}

	workout := &domain.Workout{
		InstructorID: instructorID,
		StudentID:    req.StudentID,
		Name:         req.Name,
		Description:  req.Description,
	}
	workoutID, err := s.workoutRepo.Create(ctx, workout)
	if err != nil {
		return nil, apperr.Network("Could not save the workout. Please try again.")
	}

	rows := buildExerciseRows(workoutID, req.Exercises)
	if err := s.workoutExerciseRepo.CreateMany(ctx, rows); err != nil {
		// Compensating rollback: remove the orphaned header. Best-effort; a
		// failed rollback is logged but must not mask the original error.
		if delErr := s.workoutRepo.Delete(ctx, workoutID); delErr != nil {
			log.Printf("ERROR: rollback of workout %s failed after exercise insert error, header may be orphaned: %v", workoutID.Hex(), delErr)
		}
		return nil, apperr.Network("Could not save the workout exercises. Please try again.")
	}

	// Re-read so the returned aggregate reflects exactly what the store
	// holds, including server-computed fields.
	return s.GetDetails(ctx, workoutID)
}

// buildExerciseRows converts inputs into rows, reassigning 1-based contiguous
// order indices from slice position.
func buildExerciseRows(workoutID primitive.ObjectID, inputs []WorkoutExerciseInput) []domain.WorkoutExercise {
	rows := make([]domain.WorkoutExercise, len(inputs))
	for i, in := range inputs {
		rows[i] = domain.WorkoutExercise{
			WorkoutID:   workoutID,
			ExerciseID:  in.ExerciseID,
			Sets:        in.Sets,
			Reps:        in.Reps,
			RestSeconds: in.RestSeconds,
			OrderIndex:  i + 1,
			Notes:       in.Notes,
		}
	}
	return rows
}

// GetDetails returns the full denormalized aggregate. Failure to fetch the
// header or exercise rows is an error; failures on the profile and catalog
// joins are logged and leave the corresponding fields empty.
func (s *workoutService) GetDetails(ctx context.Context, id primitive.ObjectID) (*domain.WorkoutDetail, error) {
	workout, err := s.workoutRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("Workout not found.")
		}
		return nil, apperr.Network("Could not load the workout. Please try again.")
	}

	rows, err := s.workoutExerciseRepo.GetByWorkoutID(ctx, id)
	if err != nil {
		return nil, apperr.Network("Could not load the workout exercises. Please try again.")
	}

	detail := &domain.WorkoutDetail{Workout: *workout}
	detail.Exercises = s.joinExercises(ctx, rows)
	detail.Student = s.lookupProfile(ctx, workout.StudentID)
	detail.Instructor = s.lookupProfile(ctx, workout.InstructorID)
	return detail, nil
}

// lookupProfile is a tolerant join: failures are logged and yield nil.
func (s *workoutService) lookupProfile(ctx context.Context, id primitive.ObjectID) *domain.Profile {
	profile, err := s.profileRepo.GetByID(ctx, id)
	if err != nil {
		log.Printf("WARN: profile join for %s failed: %v", id.Hex(), err)
		return nil
	}
	profile.PasswordHash = ""
	return profile
}

// joinExercises sorts the rows by order index and attaches catalog entries.
// The catalog join is tolerant; the ordering guarantee is not.
func (s *workoutService) joinExercises(ctx context.Context, rows []domain.WorkoutExercise) []domain.WorkoutExerciseDetail {
	sort.Slice(rows, func(i, j int) bool { return rows[i].OrderIndex < rows[j].OrderIndex })

	ids := make([]primitive.ObjectID, len(rows))
	for i, row := range rows {
		ids[i] = row.ExerciseID
	}

	byID := make(map[primitive.ObjectID]*domain.Exercise)
	if len(ids) > 0 {
		catalog, err := s.exerciseRepo.GetByIDs(ctx, ids)
		if err != nil {
			log.Printf("WARN: exercise catalog join failed: %v", err)
		} else {
			for i := range catalog {
				byID[catalog[i].ID] = &catalog[i]
			}
		}
	}

	details := make([]domain.WorkoutExerciseDetail, len(rows))
	for i, row := range rows {
		details[i] = domain.WorkoutExerciseDetail{
			WorkoutExercise: row,
			Exercise:        byID[row.ExerciseID],
		}
	}
	return details
}

// assembleList turns header rows into denormalized aggregates. Exercise-row
// and join failures degrade to empty fields; only the primary listing query
// (done by the caller) can fail the overall call.
func (s *workoutService) assembleList(ctx context.Context, workouts []domain.Workout, withStudent, withInstructor bool) []domain.WorkoutDetail {
	details := make([]domain.WorkoutDetail, len(workouts))
	for i, w := range workouts {
		detail := domain.WorkoutDetail{Workout: w, Exercises: []domain.WorkoutExerciseDetail{}}

		rows, err := s.workoutExerciseRepo.GetByWorkoutID(ctx, w.ID)
		if err != nil {
			log.Printf("WARN: exercise rows join for workout %s failed: %v", w.ID.Hex(), err)
		} else {
			detail.Exercises = s.joinExercises(ctx, rows)
		}

		if withStudent {
			detail.Student = s.lookupProfile(ctx, w.StudentID)
		}
		if withInstructor {
			detail.Instructor = s.lookupProfile(ctx, w.InstructorID)
		}
		details[i] = detail
	}
	return details
}

// GetByInstructor lists an instructor's workouts with the student-side join.
func (s *workoutService) GetByInstructor(ctx context.Context, instructorID primitive.ObjectID) ([]domain.WorkoutDetail, error) {
	workouts, err := s.workoutRepo.GetByInstructorID(ctx, instructorID)
	if err != nil {
		return nil, apperr.Network("Could not load your workouts. Please try again.")
	}
	return s.assembleList(ctx, workouts, true, false), nil
}

// GetByStudent lists a student's workouts with the instructor-side join.
func (s *workoutService) GetByStudent(ctx context.Context, studentID primitive.ObjectID) ([]domain.WorkoutDetail, error) {
	workouts, err := s.workoutRepo.GetByStudentID(ctx, studentID)
	if err != nil {
		return nil, apperr.Network("Could not load your workouts. Please try again.")
	}
	return s.assembleList(ctx, workouts, false, true), nil
}

// Update verifies ownership, then applies the patch. A present exercise set
// replaces the existing rows wholesale (delete-all then insert, not a
// per-row merge); header fields are updated independently of that.
func (s *workoutService) Update(ctx context.Context, id, instructorID primitive.ObjectID, patch UpdateWorkoutRequest) (*domain.WorkoutDetail, error) {
	if err := validateUpdate(patch); err != nil {
		return nil, err
	}
	if _, err := s.getOwnedWorkout(ctx, id, instructorID); err != nil {
		return nil, err
	}
	if patch.StudentID != nil {
		if err := s.checkStudentOwnership(ctx, instructorID, *patch.StudentID); err != nil {
			return nil, err
		}
	}

	if patch.Name != nil || patch.Description != nil || patch.StudentID != nil {
		headerPatch := repository.WorkoutHeaderPatch{
			Name:        patch.Name,
			Description: patch.Description,
			StudentID:   patch.StudentID,
		}
		if err := s.workoutRepo.UpdateHeader(ctx, id, headerPatch); err != nil {
			return nil, apperr.Network("Could not save the workout changes. Please try again.")
		}
	}

	if patch.Exercises != nil {
		if err := s.workoutExerciseRepo.DeleteByWorkoutID(ctx, id); err != nil {
			return nil, apperr.Network("Could not replace the workout exercises. Please try again.")
		}
		rows := buildExerciseRows(id, *patch.Exercises)
		if err := s.workoutExerciseRepo.CreateMany(ctx, rows); err != nil {
			return nil, apperr.Network("Could not replace the workout exercises. Please try again.")
		}
	}

	return s.GetDetails(ctx, id)
}

// Delete verifies ownership and removes the aggregate, exercise rows before
// the header so no orphaned rows survive a partial failure.
func (s *workoutService) Delete(ctx context.Context, id, instructorID primitive.ObjectID) error {
	if _, err := s.getOwnedWorkout(ctx, id, instructorID); err != nil {
		return err
	}
	if err := s.workoutExerciseRepo.DeleteByWorkoutID(ctx, id); err != nil {
		return apperr.Network("Could not delete the workout. Please try again.")
	}
	if err := s.workoutRepo.Delete(ctx, id); err != nil {
		return apperr.Network("Could not delete the workout. Please try again.")
	}
	return nil
}

// Duplicate copies a workout the instructor owns, with fresh rows and fresh
// identities but the source's exercise order. The copy defaults to the
// source's student and to "<name> (Cópia)".
func (s *workoutService) Duplicate(ctx context.Context, id, instructorID primitive.ObjectID, opts DuplicateWorkoutOptions) (*domain.WorkoutDetail, error) {
	source, err := s.GetDetails(ctx, id)
	if err != nil {
		return nil, err
	}
	if source.InstructorID != instructorID {
		return nil, apperr.Permission("You can only duplicate your own workouts.")
	}

	name := source.Name + " (Cópia)"
	if opts.NewName != nil && *opts.NewName != "" {
		name = *opts.NewName
	}
	studentID := source.StudentID
	if opts.NewStudentID != nil && *opts.NewStudentID != primitive.NilObjectID {
		studentID = *opts.NewStudentID
	}

	req := CreateWorkoutRequest{
		Name:        name,
		Description: source.Description,
		StudentID:   studentID,
		Exercises:   make([]WorkoutExerciseInput, len(source.Exercises)),
	}
	for i, ex := range source.Exercises {
		req.Exercises[i] = WorkoutExerciseInput{
			ExerciseID:  ex.ExerciseID,
			Sets:        ex.Sets,
			Reps:        ex.Reps,
			RestSeconds: ex.RestSeconds,
			Notes:       ex.Notes,
		}
	}
	return s.Create(ctx, instructorID, req)
}

// Search lists an instructor's workouts matching the query.
func (s *workoutService) Search(ctx context.Context, instructorID primitive.ObjectID, query SearchWorkoutsQuery) ([]domain.WorkoutDetail, error) {
	filter := repository.WorkoutSearchFilter{
		Text:      query.Text,
		StudentID: query.StudentID,
		Limit:     query.Limit,
		Offset:    query.Offset,
	}
	workouts, err := s.workoutRepo.Search(ctx, instructorID, filter)
	if err != nil {
		return nil, apperr.Network("Could not search your workouts. Please try again.")
	}
	return s.assembleList(ctx, workouts, true, false), nil
}

// GetInstructorStats builds the dashboard summary. This is a secondary
// operation: every internal failure is swallowed and the affected fields
// stay zeroed rather than failing the call.
func (s *workoutService) GetInstructorStats(ctx context.Context, instructorID primitive.ObjectID) *domain.InstructorStats {
	stats := &domain.InstructorStats{}

	total, err := s.workoutRepo.CountByInstructorID(ctx, instructorID)
	if err != nil {
		log.Printf("WARN: instructor stats total count failed for %s: %v", instructorID.Hex(), err)
		return stats
	}
	stats.TotalWorkouts = total

	recent, err := s.workoutRepo.CountByInstructorIDSince(ctx, instructorID, s.now().AddDate(0, 0, -7))
	if err != nil {
		log.Printf("WARN: instructor stats recent count failed for %s: %v", instructorID.Hex(), err)
	} else {
		stats.CreatedLast7Days = recent
	}

	counts, err := s.workoutRepo.StudentWorkoutCounts(ctx, instructorID)
	if err != nil {
		log.Printf("WARN: instructor stats student grouping failed for %s: %v", instructorID.Hex(), err)
		return stats
	}
	stats.DistinctStudents = int64(len(counts))
	if len(counts) > 0 {
		top := &domain.TopStudentStat{
			StudentID:    counts[0].StudentID,
			WorkoutCount: counts[0].Count,
		}
		if profile := s.lookupProfile(ctx, top.StudentID); profile != nil {
			top.Name = profile.Name
		}
		stats.TopStudent = top
	}
	return stats
}
