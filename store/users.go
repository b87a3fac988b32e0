package store

import (
	"context"
	"go-food-ordering/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// UserStore is the credential store, keyed by email
type UserStore struct {
	Collection *mongo.Collection
}

// FindByEmail returns the user with the given email or ErrNotFound
func (us *UserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := us.Collection.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// FindByID returns the user with the given id or ErrNotFound
func (us *UserStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var user models.User
	err := us.Collection.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// Insert stores a new user and sets its ID. A taken email yields ErrDuplicate.
func (us *UserStore) Insert(ctx context.Context, user *models.User) error {
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	_, err := us.Collection.InsertOne(ctx, user)
	return translate(err)
}

// SetRole changes the role of the user with the given email
func (us *UserStore) SetRole(ctx context.Context, email, role string) error {
	result, err := us.Collection.UpdateOne(ctx, bson.M{"email": email}, bson.M{"$set": bson.M{"role": role}})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
