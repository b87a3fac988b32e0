// Package store holds the MongoDB collections backing the application.
package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names
const (
	UsersCollection    = "users"
	FoodsCollection    = "foods"
	OrdersCollection   = "orders"
	PaymentsCollection = "payments"
)

var (
	// ErrNotFound is returned when a lookup by key matches no document
	ErrNotFound = errors.New("document not found")
	// ErrDuplicate is returned when an insert violates a unique index
	ErrDuplicate = errors.New("duplicate key")
)

// Store bundles the per-collection repositories
type Store struct {
	DB       *mongo.Database
	Users    *UserStore
	Foods    *FoodStore
	Orders   *OrderStore
	Payments *PaymentStore
}

// New wires repositories onto db
func New(db *mongo.Database) *Store {
	return &Store{
		DB:       db,
		Users:    &UserStore{Collection: db.Collection(UsersCollection)},
		Foods:    &FoodStore{Collection: db.Collection(FoodsCollection)},
		Orders:   &OrderStore{Collection: db.Collection(OrdersCollection), Foods: FoodsCollection},
		Payments: &PaymentStore{Collection: db.Collection(PaymentsCollection)},
	}
}

// EnsureIndexes creates the unique and lookup indexes the repositories rely on.
// Safe to call on every start.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := map[*mongo.Collection][]mongo.IndexModel{
		s.Users.Collection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		s.Orders.Collection: {
			{Keys: bson.D{{Key: "user_id", Value: 1}}},
			{Keys: bson.D{{Key: "created_at", Value: -1}}},
		},
		s.Payments.Collection: {
			{Keys: bson.D{{Key: "payment_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
	}
	for coll, models := range indexes {
		if _, err := coll.Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", coll.Name(), err)
		}
	}
	return nil
}

// Ping checks the server is reachable
func (s *Store) Ping(ctx context.Context) error {
	return s.DB.Client().Ping(ctx, nil)
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	}
	return err
}
