// Package mongo provides MongoDB-backed persistence for users and exercises.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"example.com/exercisetracker/internal/domain"
)

const (
	usersCollection     = "users"
	exercisesCollection = "exercises"
)

type userDocument struct {
	ID       primitive.ObjectID `bson:"_id,omitempty"`
	Username string             `bson:"username"`
}

type exerciseDocument struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	UserID      string             `bson:"user_id"`
	Description string             `bson:"description"`
	Duration    int                `bson:"duration"`
	Date        time.Time          `bson:"date"`
}

func (d exerciseDocument) toDomain() domain.Exercise {
	return domain.Exercise{
		ID:          d.ID.Hex(),
		UserID:      d.UserID,
		Description: d.Description,
		DurationMin: d.Duration,
		Date:        d.Date.UTC(),
	}
}

// Repository stores users and exercises as documents in two collections.
type Repository struct {
	client    *mongo.Client
	users     *mongo.Collection
	exercises *mongo.Collection
}

// Connect dials MongoDB and verifies the connection with a ping.
func Connect(ctx context.Context, uri, database string) (*Repository, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	if name := databaseFromURI(uri); name != "" {
		database = name
	}
	return NewRepository(client, client.Database(database)), nil
}

// databaseFromURI returns the database named in the URI path, if any.
func databaseFromURI(uri string) string {
	parsed, err := url.Parse(uri)
	if err != nil {
		return ""
	}
	return strings.Trim(parsed.Path, "/")
}

// NewRepository constructs a Repository over an existing client and database.
func NewRepository(client *mongo.Client, db *mongo.Database) *Repository {
	return &Repository{
		client:    client,
		users:     db.Collection(usersCollection),
		exercises: db.Collection(exercisesCollection),
	}
}

// EnsureIndexes creates the index backing per-user log queries.
func (r *Repository) EnsureIndexes(ctx context.Context) error {
	_, err := r.exercises.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "date", Value: 1}},
		Options: options.Index().SetName("user_id_date"),
	})
	return err
}

// CreateUser implements domain.UserRepository.
func (r *Repository) CreateUser(ctx context.Context, username string) (domain.User, error) {
	res, err := r.users.InsertOne(ctx, userDocument{Username: username})
	if err != nil {
		return domain.User{}, err
	}
	id, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return domain.User{}, fmt.Errorf("unexpected inserted id type %T", res.InsertedID)
	}
	return domain.User{ID: id.Hex(), Username: username}, nil
}

// ListUsers returns every user projected to id and username, in natural order.
func (r *Repository) ListUsers(ctx context.Context) ([]domain.User, error) {
	opts := options.Find().
		SetProjection(bson.D{{Key: "_id", Value: 1}, {Key: "username", Value: 1}}).
		SetSort(bson.D{{Key: "_id", Value: 1}})

	cursor, err := r.users.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	users := make([]domain.User, 0)
	for cursor.Next(ctx) {
		var doc userDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		users = append(users, domain.User{ID: doc.ID.Hex(), Username: doc.Username})
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

// GetUser returns nil for unknown or malformed ids.
func (r *Repository) GetUser(ctx context.Context, id string) (*domain.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}

	var doc userDocument
	if err := r.users.FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &domain.User{ID: doc.ID.Hex(), Username: doc.Username}, nil
}

// CreateExercise implements domain.ExerciseRepository.
func (r *Repository) CreateExercise(ctx context.Context, exercise domain.Exercise) (domain.Exercise, error) {
	doc := exerciseDocument{
		UserID:      exercise.UserID,
		Description: exercise.Description,
		Duration:    exercise.DurationMin,
		Date:        exercise.Date.UTC(),
	}
	res, err := r.exercises.InsertOne(ctx, doc)
	if err != nil {
		return domain.Exercise{}, err
	}
	id, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return domain.Exercise{}, fmt.Errorf("unexpected inserted id type %T", res.InsertedID)
	}
	doc.ID = id
	return doc.toDomain(), nil
}

// ListExercises returns matching entries sorted by date, then by ObjectID (insertion order).
func (r *Repository) ListExercises(ctx context.Context, userID string, filter domain.LogFilter) ([]domain.Exercise, error) {
	query := logQuery(userID, filter)

	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}, {Key: "_id", Value: 1}})
	if filter.Limit > 0 {
		opts.SetLimit(int64(filter.Limit))
	}

	cursor, err := r.exercises.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []exerciseDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	out := make([]domain.Exercise, 0, len(docs))
	for _, doc := range docs {
		out = append(out, doc.toDomain())
	}
	return out, nil
}

// logQuery builds the find filter; the date clause is only added when a bound is set.
func logQuery(userID string, filter domain.LogFilter) bson.D {
	query := bson.D{{Key: "user_id", Value: userID}}
	if !filter.HasDateBounds() {
		return query
	}
	dateRange := bson.D{}
	if filter.From != nil {
		dateRange = append(dateRange, bson.E{Key: "$gte", Value: filter.From.UTC()})
	}
	if filter.To != nil {
		dateRange = append(dateRange, bson.E{Key: "$lte", Value: filter.To.UTC()})
	}
	return append(query, bson.E{Key: "date", Value: dateRange})
}

// Ping checks the primary is reachable.
func (r *Repository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx, readpref.Primary())
}

// Close disconnects the client, waiting for in-flight operations until ctx expires.
func (r *Repository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}
