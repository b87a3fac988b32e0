package store

import (
	"context"
	"go-food-ordering/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// FoodStore is the catalog store
type FoodStore struct {
	Collection *mongo.Collection
}

// List returns every food item
func (fs *FoodStore) List(ctx context.Context) ([]models.FoodItem, error) {
	cursor, err := fs.Collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	foods := []models.FoodItem{}
	if err := cursor.All(ctx, &foods); err != nil {
		return nil, err
	}
	return foods, nil
}

// Get returns a single food item or ErrNotFound
func (fs *FoodStore) Get(ctx context.Context, id primitive.ObjectID) (*models.FoodItem, error) {
	var food models.FoodItem
	if err := fs.Collection.FindOne(ctx, bson.M{"_id": id}).Decode(&food); err != nil {
		return nil, translate(err)
	}
	return &food, nil
}

// Insert stores a food item and sets its ID
func (fs *FoodStore) Insert(ctx context.Context, food *models.FoodItem) error {
	if food.ID.IsZero() {
		food.ID = primitive.NewObjectID()
	}
	if food.Reviews == nil {
		food.Reviews = []models.Review{}
	}
	_, err := fs.Collection.InsertOne(ctx, food)
	return translate(err)
}

// InsertMany stores all items in one ordered batch. Whatever the driver
// reports on a partial failure is returned unchanged.
func (fs *FoodStore) InsertMany(ctx context.Context, foods []models.FoodItem) ([]models.FoodItem, error) {
	docs := make([]interface{}, len(foods))
	for i := range foods {
		if foods[i].ID.IsZero() {
			foods[i].ID = primitive.NewObjectID()
		}
		if foods[i].Reviews == nil {
			foods[i].Reviews = []models.Review{}
		}
		docs[i] = foods[i]
	}
	if len(docs) == 0 {
		return foods, nil
	}
	if _, err := fs.Collection.InsertMany(ctx, docs); err != nil {
		return nil, translate(err)
	}
	return foods, nil
}

// Update applies set to the item and returns the updated document
func (fs *FoodStore) Update(ctx context.Context, id primitive.ObjectID, set bson.M) (*models.FoodItem, error) {
	return fs.findOneAndUpdate(ctx, id, bson.M{"$set": set})
}

// Delete removes the item or returns ErrNotFound
func (fs *FoodStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := fs.Collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// PushReview appends a review to the item's embedded list
func (fs *FoodStore) PushReview(ctx context.Context, id primitive.ObjectID, review models.Review) error {
	result, err := fs.Collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$push": bson.M{"reviews": review}})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// SetFavorite marks the item as a favorite and returns it
func (fs *FoodStore) SetFavorite(ctx context.Context, id primitive.ObjectID) (*models.FoodItem, error) {
	return fs.findOneAndUpdate(ctx, id, bson.M{"$set": bson.M{"is_favorite": true}})
}

func (fs *FoodStore) findOneAndUpdate(ctx context.Context, id primitive.ObjectID, update bson.M) (*models.FoodItem, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var food models.FoodItem
	err := fs.Collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&food)
	if err != nil {
		return nil, translate(err)
	}
	return &food, nil
}
