package store

import (
	"context"
	"go-food-ordering/models"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// OrderStore is the order store. Foods names the catalog collection used to
// resolve bestseller names.
type OrderStore struct {
	Collection *mongo.Collection
	Foods      string
}

// Insert stores an order and sets its ID
func (s *OrderStore) Insert(ctx context.Context, order *models.Order) error {
	if order.ID.IsZero() {
		order.ID = primitive.NewObjectID()
	}
	_, err := s.Collection.InsertOne(ctx, order)
	return translate(err)
}

// Get returns one order or ErrNotFound
func (s *OrderStore) Get(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	var order models.Order
	if err := s.Collection.FindOne(ctx, bson.M{"_id": id}).Decode(&order); err != nil {
		return nil, translate(err)
	}
	return &order, nil
}

// ListByUser returns all orders owned by userID, newest first
func (s *OrderStore) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := s.Collection.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	orders := []models.Order{}
	for cursor.Next(ctx) {
		var order models.Order
		if err := cursor.Decode(&order); err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return orders, nil
}

// Delete hard-deletes an order or returns ErrNotFound
func (s *OrderStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := s.Collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// AssignDeliveryPerson records who delivers the order
func (s *OrderStore) AssignDeliveryPerson(ctx context.Context, id, deliveryPersonID primitive.ObjectID, at time.Time) (*models.Order, error) {
	update := bson.M{"$set": bson.M{"delivery_person_id": deliveryPersonID, "updated_at": at}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var order models.Order
	err := s.Collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&order)
	if err != nil {
		return nil, translate(err)
	}
	return &order, nil
}

// CountSince counts orders created at or after since
func (s *OrderStore) CountSince(ctx context.Context, since time.Time) (int64, error) {
	return s.Collection.CountDocuments(ctx, bson.M{"created_at": bson.M{"$gte": since}})
}

// Bestsellers sums ordered quantity per item and joins catalog names.
// Lines without a catalog id are grouped by their name.
func (s *OrderStore) Bestsellers(ctx context.Context, limit int) ([]models.Bestseller, error) {
	if limit <= 0 {
		limit = 10
	}
	pipeline := mongo.Pipeline{
		{{Key: "$unwind", Value: "$items"}},
		{{Key: "$group", Value: bson.M{
			"_id":  bson.M{"$ifNull": bson.A{"$items.food_id", "$items.name"}},
			"name": bson.M{"$first": "$items.name"},
			"sold": bson.M{"$sum": "$items.quantity"},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "sold", Value: -1}, {Key: "_id", Value: 1}}}},
		{{Key: "$limit", Value: limit}},
		{{Key: "$lookup", Value: bson.M{
			"from":         s.Foods,
			"localField":   "_id",
			"foreignField": "_id",
			"as":           "food",
		}}},
		{{Key: "$unwind", Value: bson.M{"path": "$food", "preserveNullAndEmptyArrays": true}}},
		{{Key: "$project", Value: bson.M{
			"sold":      1,
			"food_name": bson.M{"$ifNull": bson.A{"$food.name", "$name"}},
		}}},
	}

	cursor, err := s.Collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	bestsellers := []models.Bestseller{}
	if err := cursor.All(ctx, &bestsellers); err != nil {
		return nil, err
	}
	return bestsellers, nil
}

// TotalRevenue sums total_price over every order
func (s *OrderStore) TotalRevenue(ctx context.Context) (float64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": nil, "total": bson.M{"$sum": "$total_price"}}}},
	}
	cursor, err := s.Collection.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, err
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Total float64 `bson:"total"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].Total, nil
}
