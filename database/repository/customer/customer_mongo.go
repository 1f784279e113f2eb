package customerRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"labbook/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrCustomerNotFound = errors.New("customer not found")

// MongoCustomerRepo implements CustomerRepository using MongoDB.
type MongoCustomerRepo struct {
	coll *mongo.Collection
}

func NewMongoCustomerRepo(db *mongo.Database) (*MongoCustomerRepo, error) {
	repo := &MongoCustomerRepo{coll: db.Collection("customers")}
	if err := repo.ensureIndexes(); err != nil {
		return repo, err
	}
	return repo, nil
}

func (r *MongoCustomerRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "phone", Value: 1}}, Options: options.Index().SetUnique(true)},
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

func (r *MongoCustomerRepo) UpsertByPhone(ctx context.Context, phone string) (*models.Customer, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	now := time.Now().UTC()
	update := bson.M{
		"$set": bson.M{"last_login_at": now},
		"$setOnInsert": bson.M{
			"id":         uuid.NewString(),
			"phone":      phone,
			"created_at": now,
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var customer models.Customer
	if err := r.coll.FindOneAndUpdate(ctx, bson.M{"phone": phone}, update, opts).Decode(&customer); err != nil {
		return nil, fmt.Errorf("failed to upsert customer: %w", err)
	}
	return &customer, nil
}

func (r *MongoCustomerRepo) GetByID(ctx context.Context, id string) (*models.Customer, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var customer models.Customer
	err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&customer)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrCustomerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch customer %s: %w", id, err)
	}
	return &customer, nil
}

var _ CustomerRepository = (*MongoCustomerRepo)(nil)
