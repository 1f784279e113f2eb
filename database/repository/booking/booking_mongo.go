package bookingRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"labbook/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrBookingNotFound = errors.New("booking not found")

const defaultListLimit = 50

// MongoBookingRepo implements BookingRepository using MongoDB.
type MongoBookingRepo struct {
	coll *mongo.Collection
}

// NewMongoBookingRepo creates the repository and makes sure its indexes exist.
func NewMongoBookingRepo(db *mongo.Database) (*MongoBookingRepo, error) {
	repo := &MongoBookingRepo{coll: db.Collection("bookings")}
	if err := repo.ensureIndexes(); err != nil {
		return repo, err
	}
	return repo, nil
}

func newContext(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, timeout)
}

// ensureIndexes creates indexes for fields frequently used in queries.
func (r *MongoBookingRepo) ensureIndexes() error {
	ctx, cancel := newContext(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "customer_id", Value: 1}, {Key: "created_at", Value: -1}}},
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

func (r *MongoBookingRepo) Create(ctx context.Context, record *models.BookingRecord) error {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}
	if _, err := r.coll.InsertOne(ctx, record); err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}
	return nil
}

func (r *MongoBookingRepo) GetByID(ctx context.Context, id string) (*models.BookingRecord, error) {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	var record models.BookingRecord
	err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&record)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch booking %s: %w", id, err)
	}
	return &record, nil
}

func (r *MongoBookingRepo) ListByCustomer(ctx context.Context, customerID string, limit int64) ([]models.BookingRecord, error) {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	if limit <= 0 {
		limit = defaultListLimit
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(limit)
	cursor, err := r.coll.Find(ctx, bson.M{"customer_id": customerID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer cursor.Close(ctx)

	records := []models.BookingRecord{}
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("failed to decode bookings: %w", err)
	}
	return records, nil
}

var _ BookingRepository = (*MongoBookingRepo)(nil)
