package store

import (
	"context"
	"go-food-ordering/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// PaymentStore is the payment record store. payment_id carries a unique index,
// so a replayed insert fails with ErrDuplicate.
type PaymentStore struct {
	Collection *mongo.Collection
}

// Insert stores a payment record and sets its ID
func (ps *PaymentStore) Insert(ctx context.Context, payment *models.Payment) error {
	if payment.ID.IsZero() {
		payment.ID = primitive.NewObjectID()
	}
	_, err := ps.Collection.InsertOne(ctx, payment)
	return translate(err)
}

// FindByPaymentID looks up a record by provider payment id
func (ps *PaymentStore) FindByPaymentID(ctx context.Context, paymentID string) (*models.Payment, error) {
	var payment models.Payment
	err := ps.Collection.FindOne(ctx, bson.M{"payment_id": paymentID}).Decode(&payment)
	if err != nil {
		return nil, translate(err)
	}
	return &payment, nil
}
