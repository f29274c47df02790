package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/restock/internal/domain/models"
)

// ErrNotFound is returned when no run has been stored yet.
var ErrNotFound = errors.New("mongodb: no stored run")

// Repository defines the interface for run history storage.
type Repository interface {
	SaveRun(ctx context.Context, report models.RunReport) error
	LatestRun(ctx context.Context) (*models.RunReport, error)
}

// MongoDBRepository implements the Repository interface for MongoDB.
type MongoDBRepository struct {
	client   *mongo.Client
	dbName   string
	collName string
}

// NewMongoDBRepository creates a new MongoDB repository.
func NewMongoDBRepository(ctx context.Context, uri string, dbName string) (*MongoDBRepository, error) {
	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &MongoDBRepository{
		client:   client,
		dbName:   dbName,
		collName: "recommendation_runs",
	}, nil
}

func (r *MongoDBRepository) collection() *mongo.Collection {
	return r.client.Database(r.dbName).Collection(r.collName)
}

// SaveRun stores one recommendation run.
func (r *MongoDBRepository) SaveRun(ctx context.Context, report models.RunReport) error {
	if _, err := r.collection().InsertOne(ctx, report); err != nil {
		return fmt.Errorf("failed to insert recommendation run: %w", err)
	}
	return nil
}

// LatestRun returns the most recent run by run_at.
func (r *MongoDBRepository) LatestRun(ctx context.Context) (*models.RunReport, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "run_at", Value: -1}})

	var report models.RunReport
	err := r.collection().FindOne(ctx, bson.D{}, opts).Decode(&report)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load latest run: %w", err)
	}
	return &report, nil
}

// Close closes the MongoDB connection.
func (r *MongoDBRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}
