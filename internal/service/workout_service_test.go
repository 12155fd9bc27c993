package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"fitcoach/workout-app/internal/apperr"
	"fitcoach/workout-app/internal/domain"
	"fitcoach/workout-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- In-memory fakes ---

type fakeProfileRepo struct {
	profiles map[primitive.ObjectID]*domain.Profile
	getErr   error
}

func (f *fakeProfileRepo) Create(ctx context.Context, p *domain.Profile) (primitive.ObjectID, error) {
	id := primitive.NewObjectID()
	p.ID = id
	f.profiles[id] = p
	return id, nil
}

func (f *fakeProfileRepo) GetByEmail(ctx context.Context, email string) (*domain.Profile, error) {
	for _, p := range f.profiles {
		if p.Email == email {
			cp := *p
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeProfileRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Profile, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	p, ok := f.profiles[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProfileRepo) GetStudentsByInstructorID(ctx context.Context, instructorID primitive.ObjectID) ([]domain.Profile, error) {
	var out []domain.Profile
	for _, p := range f.profiles {
		if p.CoachedBy(instructorID) {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeProfileRepo) SetInstructorForStudent(ctx context.Context, studentID, instructorID primitive.ObjectID) error {
	p, ok := f.profiles[studentID]
	if !ok {
		return repository.ErrNotFound
	}
	p.InstructorID = &instructorID
	return nil
}

type fakeExerciseRepo struct {
	exercises map[primitive.ObjectID]*domain.Exercise
	getErr    error
}

func (f *fakeExerciseRepo) Create(ctx context.Context, e *domain.Exercise) (primitive.ObjectID, error) {
	id := primitive.NewObjectID()
	e.ID = id
	f.exercises[id] = e
	return id, nil
}

func (f *fakeExerciseRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Exercise, error) {
	e, ok := f.exercises[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (f *fakeExerciseRepo) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.Exercise, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	var out []domain.Exercise
	for _, id := range ids {
		if e, ok := f.exercises[id]; ok {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (f *fakeExerciseRepo) GetByInstructorID(ctx context.Context, instructorID primitive.ObjectID) ([]domain.Exercise, error) {
	var out []domain.Exercise
	for _, e := range f.exercises {
		if e.InstructorID == instructorID {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (f *fakeExerciseRepo) Update(ctx context.Context, e *domain.Exercise) error { return nil }

func (f *fakeExerciseRepo) Delete(ctx context.Context, id, instructorID primitive.ObjectID) error {
	delete(f.exercises, id)
	return nil
}

// fakeWorkoutRepo records write operations into a shared event log so tests
// can assert on ordering across repositories.
type fakeWorkoutRepo struct {
	workouts      map[primitive.ObjectID]*domain.Workout
	events        *[]string
	lastCreatedID primitive.ObjectID
	createErr     error
	deleteErr     error

	countTotal  int64
	countRecent int64
	countErr    error
	groupCounts []domain.StudentWorkoutCount
	groupErr    error
}

func (f *fakeWorkoutRepo) log(event string) {
	if f.events != nil {
		*f.events = append(*f.events, event)
	}
}

func (f *fakeWorkoutRepo) Create(ctx context.Context, w *domain.Workout) (primitive.ObjectID, error) {
	if f.createErr != nil {
		return primitive.NilObjectID, f.createErr
	}
	id := primitive.NewObjectID()
	cp := *w
	cp.ID = id
	f.workouts[id] = &cp
	f.lastCreatedID = id
	f.log("header:create")
	return id, nil
}

func (f *fakeWorkoutRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Workout, error) {
	w, ok := f.workouts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *w
	return &cp, nil
}

func (f *fakeWorkoutRepo) GetByInstructorID(ctx context.Context, instructorID primitive.ObjectID) ([]domain.Workout, error) {
	var out []domain.Workout
	for _, w := range f.workouts {
		if w.InstructorID == instructorID {
			out = append(out, *w)
		}
	}
	return out, nil
}

func (f *fakeWorkoutRepo) GetByStudentID(ctx context.Context, studentID primitive.ObjectID) ([]domain.Workout, error) {
	var out []domain.Workout
	for _, w := range f.workouts {
		if w.StudentID == studentID {
			out = append(out, *w)
		}
	}
	return out, nil
}

func (f *fakeWorkoutRepo) Search(ctx context.Context, instructorID primitive.ObjectID, filter repository.WorkoutSearchFilter) ([]domain.Workout, error) {
	var out []domain.Workout
	for _, w := range f.workouts {
		if w.InstructorID != instructorID {
			continue
		}
		if filter.Text != "" && !strings.Contains(strings.ToLower(w.Name), strings.ToLower(filter.Text)) {
			continue
		}
		if filter.StudentID != nil && w.StudentID != *filter.StudentID {
			continue
		}
		out = append(out, *w)
	}
	return out, nil
}

func (f *fakeWorkoutRepo) UpdateHeader(ctx context.Context, id primitive.ObjectID, patch repository.WorkoutHeaderPatch) error {
	w, ok := f.workouts[id]
	if !ok {
		return repository.ErrNotFound
	}
	if patch.Name != nil {
		w.Name = *patch.Name
	}
	if patch.Description != nil {
		w.Description = *patch.Description
	}
	if patch.StudentID != nil {
		w.StudentID = *patch.StudentID
	}
	return nil
}

func (f *fakeWorkoutRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.workouts, id)
	f.log("header:delete")
	return nil
}

func (f *fakeWorkoutRepo) CountByInstructorID(ctx context.Context, instructorID primitive.ObjectID) (int64, error) {
	if f.countErr != nil {
		return 0, f.countErr
	}
	return f.countTotal, nil
}

func (f *fakeWorkoutRepo) CountByInstructorIDSince(ctx context.Context, instructorID primitive.ObjectID, since time.Time) (int64, error) {
	return f.countRecent, nil
}

func (f *fakeWorkoutRepo) StudentWorkoutCounts(ctx context.Context, instructorID primitive.ObjectID) ([]domain.StudentWorkoutCount, error) {
	if f.groupErr != nil {
		return nil, f.groupErr
	}
	return f.groupCounts, nil
}

type fakeWorkoutExerciseRepo struct {
	rows      map[primitive.ObjectID][]domain.WorkoutExercise
	events    *[]string
	createErr error
	getErr    error
}

func (f *fakeWorkoutExerciseRepo) log(event string) {
	if f.events != nil {
		*f.events = append(*f.events, event)
	}
}

func (f *fakeWorkoutExerciseRepo) CreateMany(ctx context.Context, rows []domain.WorkoutExercise) error {
	if f.createErr != nil {
		return f.createErr
	}
	for _, row := range rows {
		row.ID = primitive.NewObjectID()
		f.rows[row.WorkoutID] = append(f.rows[row.WorkoutID], row)
	}
	f.log("rows:create")
	return nil
}

func (f *fakeWorkoutExerciseRepo) GetByWorkoutID(ctx context.Context, workoutID primitive.ObjectID) ([]domain.WorkoutExercise, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return append([]domain.WorkoutExercise(nil), f.rows[workoutID]...), nil
}

func (f *fakeWorkoutExerciseRepo) DeleteByWorkoutID(ctx context.Context, workoutID primitive.ObjectID) error {
	delete(f.rows, workoutID)
	f.log("rows:delete")
	return nil
}

// --- Fixture ---

type fixture struct {
	svc          WorkoutService
	profiles     *fakeProfileRepo
	exercises    *fakeExerciseRepo
	workouts     *fakeWorkoutRepo
	workoutRows  *fakeWorkoutExerciseRepo
	events       *[]string
	instructorID primitive.ObjectID
	studentID    primitive.ObjectID
	squatID      primitive.ObjectID
	benchID      primitive.ObjectID
}

func newFixture() *fixture {
	events := &[]string{}
	f := &fixture{
		profiles:    &fakeProfileRepo{profiles: map[primitive.ObjectID]*domain.Profile{}},
		exercises:   &fakeExerciseRepo{exercises: map[primitive.ObjectID]*domain.Exercise{}},
		workouts:    &fakeWorkoutRepo{workouts: map[primitive.ObjectID]*domain.Workout{}, events: events},
		workoutRows: &fakeWorkoutExerciseRepo{rows: map[primitive.ObjectID][]domain.WorkoutExercise{}, events: events},
		events:      events,
	}

	f.instructorID = primitive.NewObjectID()
	f.profiles.profiles[f.instructorID] = &domain.Profile{
		ID: f.instructorID, Name: "Coach", Role: domain.RoleInstructor, IsActive: true,
	}

	f.studentID = primitive.NewObjectID()
	instructorID := f.instructorID
	f.profiles.profiles[f.studentID] = &domain.Profile{
		ID: f.studentID, Name: "Ana", Role: domain.RoleStudent, IsActive: true,
		InstructorID: &instructorID,
	}

	f.squatID = primitive.NewObjectID()
	f.exercises.exercises[f.squatID] = &domain.Exercise{ID: f.squatID, InstructorID: f.instructorID, Name: "Squat"}
	f.benchID = primitive.NewObjectID()
	f.exercises.exercises[f.benchID] = &domain.Exercise{ID: f.benchID, InstructorID: f.instructorID, Name: "Bench Press"}

	f.svc = NewWorkoutService(f.profiles, f.exercises, f.workouts, f.workoutRows)
	return f
}

func (f *fixture) validCreate() CreateWorkoutRequest {
	return CreateWorkoutRequest{
		Name:      "Leg Day",
		StudentID: f.studentID,
		Exercises: []WorkoutExerciseInput{
			{ExerciseID: f.squatID, Sets: 4, Reps: "8-10", RestSeconds: 90},
			{ExerciseID: f.benchID, Sets: 3, Reps: "12", RestSeconds: 60},
		},
	}
}

func mustKind(t *testing.T, err error, kind apperr.Kind) *apperr.Error {
	t.Helper()
	if err == nil {
		t.Fatal("expected an error, got nil")
	}
	ae := apperr.From(err)
	if ae.Kind != kind {
		t.Fatalf("kind = %v, want %v (err: %v)", ae.Kind, kind, err)
	}
	return ae
}

// --- Tests ---

func TestCreateValidationOrder(t *testing.T) {
	f := newFixture()

	tests := []struct {
		name      string
		mutate    func(*CreateWorkoutRequest)
		wantField string
	}{
		{
			name:      "empty name reported before missing student",
			mutate:    func(r *CreateWorkoutRequest) { r.Name = ""; r.StudentID = primitive.NilObjectID },
			wantField: "name",
		},
		{
			name:      "overlong name",
			mutate:    func(r *CreateWorkoutRequest) { r.Name = strings.Repeat("x", 256) },
			wantField: "name",
		},
		{
			name:      "missing student reported before empty exercise list",
			mutate:    func(r *CreateWorkoutRequest) { r.StudentID = primitive.NilObjectID; r.Exercises = nil },
			wantField: "studentId",
		},
		{
			name:      "empty exercise list",
			mutate:    func(r *CreateWorkoutRequest) { r.Exercises = nil },
			wantField: "exercises",
		},
		{
			name:      "bad exercise carries its index in the field path",
			mutate:    func(r *CreateWorkoutRequest) { r.Exercises[1].Sets = 0 },
			wantField: "exercises.1.sets",
		},
		{
			name: "earliest invalid exercise wins when several are bad",
			mutate: func(r *CreateWorkoutRequest) {
				r.Exercises[0].Reps = ""
				r.Exercises[1].Sets = 0
			},
			wantField: "exercises.0.reps",
		},
		{
			name:      "missing exercise reference",
			mutate:    func(r *CreateWorkoutRequest) { r.Exercises[0].ExerciseID = primitive.NilObjectID },
			wantField: "exercises.0.exerciseId",
		},
		{
			name:      "empty reps",
			mutate:    func(r *CreateWorkoutRequest) { r.Exercises[0].Reps = "" },
			wantField: "exercises.0.reps",
		},
		{
			name:      "negative rest",
			mutate:    func(r *CreateWorkoutRequest) { r.Exercises[0].RestSeconds = -1 },
			wantField: "exercises.0.restSeconds",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := f.validCreate()
			tt.mutate(&req)

			_, err := f.svc.Create(context.Background(), f.instructorID, req)
			ae := mustKind(t, err, apperr.KindValidation)
			if ae.Field != tt.wantField {
				t.Errorf("field = %q, want %q", ae.Field, tt.wantField)
			}
		})
	}

	if len(f.workouts.workouts) != 0 {
		t.Errorf("validation failures must not write anything, found %d workouts", len(f.workouts.workouts))
	}
}

func TestCreateRejectsForeignStudent(t *testing.T) {
	f := newFixture()

	otherInstructor := primitive.NewObjectID()
	foreignStudent := primitive.NewObjectID()
	f.profiles.profiles[foreignStudent] = &domain.Profile{
		ID: foreignStudent, Role: domain.RoleStudent, IsActive: true,
		InstructorID: &otherInstructor,
	}

	req := f.validCreate()
	req.StudentID = foreignStudent

	_, err := f.svc.Create(context.Background(), f.instructorID, req)
	ae := mustKind(t, err, apperr.KindPermission)
	if !strings.Contains(ae.Message, "your own students") {
		t.Errorf("message = %q, want mention of 'your own students'", ae.Message)
	}
	if len(f.workouts.workouts) != 0 {
		t.Error("permission failure must not create a workout")
	}
}

func TestCreateUnknownStudentIsNotFound(t *testing.T) {
	f := newFixture()

	req := f.validCreate()
	req.StudentID = primitive.NewObjectID()

	_, err := f.svc.Create(context.Background(), f.instructorID, req)
	mustKind(t, err, apperr.KindNotFound)
}

func TestCreateRollsBackHeaderOnExerciseFailure(t *testing.T) {
	f := newFixture()
	f.workoutRows.createErr = errors.New("bulk insert refused")

	_, err := f.svc.Create(context.Background(), f.instructorID, f.validCreate())
	mustKind(t, err, apperr.KindNetwork)

	if len(f.workouts.workouts) != 0 {
		t.Errorf("header must be compensated away, %d workouts remain", len(f.workouts.workouts))
	}
	if len(f.workoutRows.rows) != 0 {
		t.Errorf("no exercise rows may survive, found %d sets", len(f.workoutRows.rows))
	}
	_, err = f.svc.GetDetails(context.Background(), f.workouts.lastCreatedID)
	mustKind(t, err, apperr.KindNotFound)
}

func TestCreateRollbackFailureStillSurfacesOriginalError(t *testing.T) {
	f := newFixture()
	f.workoutRows.createErr = errors.New("bulk insert refused")
	f.workouts.deleteErr = errors.New("delete also refused")

	_, err := f.svc.Create(context.Background(), f.instructorID, f.validCreate())
	ae := mustKind(t, err, apperr.KindNetwork)
	if !strings.Contains(ae.Message, "exercises") {
		t.Errorf("message = %q, want the exercise-save error, not the rollback error", ae.Message)
	}
}

func TestCreateAssignsContiguousOrder(t *testing.T) {
	f := newFixture()

	req := f.validCreate()
	// Caller-supplied indices are ignored; slice position is canonical.
	detail, err := f.svc.Create(context.Background(), f.instructorID, req)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if len(detail.Exercises) != 2 {
		t.Fatalf("got %d exercises, want 2", len(detail.Exercises))
	}
	for i, ex := range detail.Exercises {
		if ex.OrderIndex != i+1 {
			t.Errorf("exercise %d orderIndex = %d, want %d", i, ex.OrderIndex, i+1)
		}
	}
	if detail.Exercises[0].ExerciseID != f.squatID || detail.Exercises[1].ExerciseID != f.benchID {
		t.Error("exercise order does not follow the request slice")
	}
}

func TestCreateReturnsJoinedAggregate(t *testing.T) {
	f := newFixture()

	detail, err := f.svc.Create(context.Background(), f.instructorID, f.validCreate())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if detail.Name != "Leg Day" {
		t.Errorf("name = %q", detail.Name)
	}
	if detail.Student == nil || detail.Student.Name != "Ana" {
		t.Errorf("student join missing: %+v", detail.Student)
	}
	if detail.Instructor == nil || detail.Instructor.Name != "Coach" {
		t.Errorf("instructor join missing: %+v", detail.Instructor)
	}
	if detail.Exercises[0].Exercise == nil || detail.Exercises[0].Exercise.Name != "Squat" {
		t.Errorf("catalog join missing: %+v", detail.Exercises[0].Exercise)
	}
	if detail.Student.PasswordHash != "" {
		t.Error("password hash leaked through the join")
	}
}

func TestGetDetailsToleratesJoinFailures(t *testing.T) {
	f := newFixture()
	detail, err := f.svc.Create(context.Background(), f.instructorID, f.validCreate())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	f.profiles.getErr = errors.New("profiles offline")
	f.exercises.getErr = errors.New("catalog offline")

	got, err := f.svc.GetDetails(context.Background(), detail.ID)
	if err != nil {
		t.Fatalf("GetDetails must tolerate join failures, got %v", err)
	}
	if got.Student != nil || got.Instructor != nil {
		t.Error("failed profile joins must yield nil, not stale data")
	}
	if len(got.Exercises) != 2 {
		t.Fatalf("exercise rows are not optional, got %d", len(got.Exercises))
	}
	if got.Exercises[0].Exercise != nil {
		t.Error("failed catalog join must yield nil exercise")
	}
	if got.Exercises[0].OrderIndex != 1 || got.Exercises[1].OrderIndex != 2 {
		t.Error("ordering must survive join failures")
	}
}

func TestGetDetailsMissingWorkout(t *testing.T) {
	f := newFixture()
	_, err := f.svc.GetDetails(context.Background(), primitive.NewObjectID())
	mustKind(t, err, apperr.KindNotFound)
}

func TestUpdateReplacesExerciseSet(t *testing.T) {
	f := newFixture()
	detail, err := f.svc.Create(context.Background(), f.instructorID, f.validCreate())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	replacement := []WorkoutExerciseInput{
		{ExerciseID: f.benchID, Sets: 5, Reps: "5", RestSeconds: 120},
	}
	updated, err := f.svc.Update(context.Background(), detail.ID, f.instructorID, UpdateWorkoutRequest{
		Exercises: &replacement,
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	if len(updated.Exercises) != 1 {
		t.Fatalf("got %d exercises after replacement, want 1", len(updated.Exercises))
	}
	ex := updated.Exercises[0]
	if ex.ExerciseID != f.benchID || ex.Sets != 5 || ex.OrderIndex != 1 {
		t.Errorf("replacement row wrong: %+v", ex)
	}
	if updated.Name != "Leg Day" {
		t.Error("header must be untouched when only exercises change")
	}
}

func TestUpdateEmptyExerciseSetAllowed(t *testing.T) {
	f := newFixture()
	detail, err := f.svc.Create(context.Background(), f.instructorID, f.validCreate())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	empty := []WorkoutExerciseInput{}
	updated, err := f.svc.Update(context.Background(), detail.ID, f.instructorID, UpdateWorkoutRequest{
		Exercises: &empty,
	})
	if err != nil {
		t.Fatalf("explicit empty set must be allowed on update: %v", err)
	}
	if len(updated.Exercises) != 0 {
		t.Errorf("got %d exercises, want 0", len(updated.Exercises))
	}
}

func TestUpdateHeaderOnly(t *testing.T) {
	f := newFixture()
	detail, err := f.svc.Create(context.Background(), f.instructorID, f.validCreate())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	name := "Push Day"
	updated, err := f.svc.Update(context.Background(), detail.ID, f.instructorID, UpdateWorkoutRequest{Name: &name})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Name != "Push Day" {
		t.Errorf("name = %q", updated.Name)
	}
	if len(updated.Exercises) != 2 {
		t.Error("header-only patch must not touch exercise rows")
	}
}

func TestUpdateRejectsForeignWorkout(t *testing.T) {
	f := newFixture()
	detail, err := f.svc.Create(context.Background(), f.instructorID, f.validCreate())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	name := "Hijacked"
	_, err = f.svc.Update(context.Background(), detail.ID, primitive.NewObjectID(), UpdateWorkoutRequest{Name: &name})
	ae := mustKind(t, err, apperr.KindPermission)
	if !strings.Contains(ae.Message, "your own workouts") {
		t.Errorf("message = %q", ae.Message)
	}
}

func TestDeleteRemovesRowsBeforeHeader(t *testing.T) {
	f := newFixture()
	detail, err := f.svc.Create(context.Background(), f.instructorID, f.validCreate())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	*f.events = nil

	if err := f.svc.Delete(context.Background(), detail.ID, f.instructorID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	want := []string{"rows:delete", "header:delete"}
	if len(*f.events) != len(want) {
		t.Fatalf("events = %v, want %v", *f.events, want)
	}
	for i, e := range want {
		if (*f.events)[i] != e {
			t.Fatalf("events = %v, want %v", *f.events, want)
		}
	}

	_, err = f.svc.GetDetails(context.Background(), detail.ID)
	mustKind(t, err, apperr.KindNotFound)
}

func TestDuplicateDefaults(t *testing.T) {
	f := newFixture()
	source, err := f.svc.Create(context.Background(), f.instructorID, f.validCreate())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	copy, err := f.svc.Duplicate(context.Background(), source.ID, f.instructorID, DuplicateWorkoutOptions{})
	if err != nil {
		t.Fatalf("Duplicate: %v", err)
	}

	if copy.ID == source.ID {
		t.Error("duplicate must get a fresh identity")
	}
	if copy.Name != "Leg Day (Cópia)" {
		t.Errorf("name = %q, want default copy suffix", copy.Name)
	}
	if copy.StudentID != source.StudentID {
		t.Error("duplicate must default to the source's student")
	}
	if len(copy.Exercises) != len(source.Exercises) {
		t.Fatalf("got %d exercises, want %d", len(copy.Exercises), len(source.Exercises))
	}
	for i := range copy.Exercises {
		if copy.Exercises[i].ExerciseID != source.Exercises[i].ExerciseID {
			t.Errorf("exercise %d order differs from source", i)
		}
		if copy.Exercises[i].ID == source.Exercises[i].ID && copy.Exercises[i].ID != primitive.NilObjectID {
			t.Errorf("exercise %d shares a row identity with the source", i)
		}
	}
}

func TestDuplicateWithOverrides(t *testing.T) {
	f := newFixture()
	source, err := f.svc.Create(context.Background(), f.instructorID, f.validCreate())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	other := primitive.NewObjectID()
	instructorID := f.instructorID
	f.profiles.profiles[other] = &domain.Profile{
		ID: other, Name: "Bruno", Role: domain.RoleStudent, IsActive: true,
		InstructorID: &instructorID,
	}

	name := "Leg Day B"
	copy, err := f.svc.Duplicate(context.Background(), source.ID, f.instructorID, DuplicateWorkoutOptions{
		NewName:      &name,
		NewStudentID: &other,
	})
	if err != nil {
		t.Fatalf("Duplicate: %v", err)
	}
	if copy.Name != "Leg Day B" {
		t.Errorf("name = %q", copy.Name)
	}
	if copy.StudentID != other {
		t.Error("student override not applied")
	}
}

func TestDuplicateRejectsForeignWorkout(t *testing.T) {
	f := newFixture()
	source, err := f.svc.Create(context.Background(), f.instructorID, f.validCreate())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	_, err = f.svc.Duplicate(context.Background(), source.ID, primitive.NewObjectID(), DuplicateWorkoutOptions{})
	mustKind(t, err, apperr.KindPermission)
}

func TestSearchFiltersByTextAndStudent(t *testing.T) {
	f := newFixture()
	if _, err := f.svc.Create(context.Background(), f.instructorID, f.validCreate()); err != nil {
		t.Fatalf("Create: %v", err)
	}
	second := f.validCreate()
	second.Name = "Upper Body"
	if _, err := f.svc.Create(context.Background(), f.instructorID, second); err != nil {
		t.Fatalf("Create: %v", err)
	}

	results, err := f.svc.Search(context.Background(), f.instructorID, SearchWorkoutsQuery{Text: "upper"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].Name != "Upper Body" {
		t.Errorf("results = %+v, want only Upper Body", results)
	}
}

func TestGetInstructorStats(t *testing.T) {
	f := newFixture()
	f.workouts.countTotal = 12
	f.workouts.countRecent = 3
	f.workouts.groupCounts = []domain.StudentWorkoutCount{
		{StudentID: f.studentID, Count: 7},
		{StudentID: primitive.NewObjectID(), Count: 5},
	}

	stats := f.svc.GetInstructorStats(context.Background(), f.instructorID)
	if stats.TotalWorkouts != 12 || stats.CreatedLast7Days != 3 || stats.DistinctStudents != 2 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.TopStudent == nil || stats.TopStudent.StudentID != f.studentID || stats.TopStudent.WorkoutCount != 7 {
		t.Fatalf("top student = %+v", stats.TopStudent)
	}
	if stats.TopStudent.Name != "Ana" {
		t.Errorf("top student name = %q", stats.TopStudent.Name)
	}
}

func TestGetInstructorStatsDegradesToZero(t *testing.T) {
	f := newFixture()
	f.workouts.countErr = errors.New("counts offline")

	stats := f.svc.GetInstructorStats(context.Background(), f.instructorID)
	if stats == nil {
		t.Fatal("stats must never be nil")
	}
	if stats.TotalWorkouts != 0 || stats.DistinctStudents != 0 || stats.TopStudent != nil {
		t.Errorf("stats must zero out on failure, got %+v", stats)
	}
}

func TestListByInstructorJoinsStudent(t *testing.T) {
	f := newFixture()
	if _, err := f.svc.Create(context.Background(), f.instructorID, f.validCreate()); err != nil {
		t.Fatalf("Create: %v", err)
	}

	list, err := f.svc.GetByInstructor(context.Background(), f.instructorID)
	if err != nil {
		t.Fatalf("GetByInstructor: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("got %d workouts, want 1", len(list))
	}
	if list[0].Student == nil || list[0].Student.Name != "Ana" {
		t.Errorf("student join missing: %+v", list[0].Student)
	}
	if len(list[0].Exercises) != 2 {
		t.Errorf("got %d exercises in listing, want 2", len(list[0].Exercises))
	}
}
