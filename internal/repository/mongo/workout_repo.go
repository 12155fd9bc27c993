package mongo

import (
	"context"
	"errors"
	"regexp"
	"time"

	"fitcoach/workout-app/internal/domain"
	"fitcoach/workout-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const workoutCollectionName = "workouts"

// mongoWorkoutRepository implements repository.WorkoutRepository.
type mongoWorkoutRepository struct {
	collection *mongo.Collection
}

// NewMongoWorkoutRepository creates a new Workout repository.
func NewMongoWorkoutRepository(db *mongo.Database) repository.WorkoutRepository {
	return &mongoWorkoutRepository{
		collection: db.Collection(workoutCollectionName),
	}
}

// Create inserts a new workout header row.
func (r *mongoWorkoutRepository) Create(ctx context.Context, workout *domain.Workout) (primitive.ObjectID, error) {
	if workout.InstructorID == primitive.NilObjectID || workout.StudentID == primitive.NilObjectID || workout.Name == "" {
		return primitive.NilObjectID, errors.New("workout requires instructorId, studentId, and name")
	}
	workout.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	workout.CreatedAt = now
	workout.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, workout)
	if err != nil {
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted workout ID")
	}
	return insertedID, nil
}

// GetByID retrieves a single workout header by its ID.
func (r *mongoWorkoutRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Workout, error) {
	var workout domain.Workout
	filter := bson.M{"_id": id}
	err := r.collection.FindOne(ctx, filter).Decode(&workout)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &workout, nil
}

func (r *mongoWorkoutRepository) findAll(ctx context.Context, filter bson.M, findOptions *options.FindOptions) ([]domain.Workout, error) {
	var workouts []domain.Workout
	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &workouts); err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}
	if workouts == nil {
		workouts = []domain.Workout{}
	}
	return workouts, nil
}

// GetByInstructorID retrieves all workouts created by an instructor, newest first.
func (r *mongoWorkoutRepository) GetByInstructorID(ctx context.Context, instructorID primitive.ObjectID) ([]domain.Workout, error) {
	filter := bson.M{"instructorId": instructorID}
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	return r.findAll(ctx, filter, findOptions)
}

// GetByStudentID retrieves all workouts assigned to a student, newest first.
func (r *mongoWorkoutRepository) GetByStudentID(ctx context.Context, studentID primitive.ObjectID) ([]domain.Workout, error) {
	filter := bson.M{"studentId": studentID}
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	return r.findAll(ctx, filter, findOptions)
}

// Search retrieves an instructor's workouts matching a free-text filter on
// name/description, optionally narrowed to one student, with pagination.
func (r *mongoWorkoutRepository) Search(ctx context.Context, instructorID primitive.ObjectID, filter repository.WorkoutSearchFilter) ([]domain.Workout, error) {
	query := bson.M{"instructorId": instructorID}
	if filter.Text != "" {
		// Quote the user's text so it is matched literally, not as a pattern.
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(filter.Text), Options: "i"}
		query["$or"] = bson.A{
			bson.M{"name": pattern},
			bson.M{"description": pattern},
		}
	}
	if filter.StudentID != nil {
		query["studentId"] = *filter.StudentID
	}

	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if filter.Offset > 0 {
		findOptions.SetSkip(filter.Offset)
	}
	if filter.Limit > 0 {
		findOptions.SetLimit(filter.Limit)
	}
	return r.findAll(ctx, query, findOptions)
}

// UpdateHeader applies a partial update to a workout's header fields.
// Exercise rows are managed separately by the workout_exercises repository.
func (r *mongoWorkoutRepository) UpdateHeader(ctx context.Context, id primitive.ObjectID, patch repository.WorkoutHeaderPatch) error {
	set := bson.M{"updatedAt": time.Now().UTC()}
	if patch.Name != nil {
		set["name"] = *patch.Name
	}
	if patch.Description != nil {
		set["description"] = *patch.Description
	}
	if patch.StudentID != nil {
		set["studentId"] = *patch.StudentID
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Delete removes a workout header row.
func (r *mongoWorkoutRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// CountByInstructorID counts all workouts created by an instructor.
func (r *mongoWorkoutRepository) CountByInstructorID(ctx context.Context, instructorID primitive.ObjectID) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"instructorId": instructorID})
}

// CountByInstructorIDSince counts workouts created at or after the given time.
func (r *mongoWorkoutRepository) CountByInstructorIDSince(ctx context.Context, instructorID primitive.ObjectID, since time.Time) (int64, error) {
	filter := bson.M{
		"instructorId": instructorID,
		"createdAt":    bson.M{"$gte": since},
	}
	return r.collection.CountDocuments(ctx, filter)
}

// StudentWorkoutCounts groups an instructor's workouts by student, most
// workouts first. Ties are broken by whatever order the server returns.
func (r *mongoWorkoutRepository) StudentWorkoutCounts(ctx context.Context, instructorID primitive.ObjectID) ([]domain.StudentWorkoutCount, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"instructorId": instructorID}}},
		{{Key: "$group", Value: bson.M{"_id": "$studentId", "count": bson.M{"$sum": 1}}}},
		{{Key: "$sort", Value: bson.M{"count": -1}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var counts []domain.StudentWorkoutCount
	if err = cursor.All(ctx, &counts); err != nil {
		return nil, err
	}
	if counts == nil {
		counts = []domain.StudentWorkoutCount{}
	}
	return counts, nil
}

// EnsureWorkoutIndexes creates necessary indexes. Call during startup.
func EnsureWorkoutIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "instructorId", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "studentId", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index(),
		},
	}
	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
