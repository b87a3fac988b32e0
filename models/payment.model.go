package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Payment statuses
const (
	PaymentPending = "pending"
	PaymentSuccess = "success"
	PaymentFailed  = "failed"
)

// DefaultCurrency is used when a callback does not name one
const DefaultCurrency = "INR"

// Payment is a verified provider transaction. Records are inserted once and
// never updated.
type Payment struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	OrderID   string             `bson:"order_id" json:"orderId"`     // provider order id
	PaymentID string             `bson:"payment_id" json:"paymentId"` // provider payment id, unique
	Signature string             `bson:"signature" json:"signature"`
	Amount    float64            `bson:"amount" json:"amount"`
	Currency  string             `bson:"currency" json:"currency"`
	Status    string             `bson:"status" json:"status"` // "pending", "success", "failed"
	CreatedAt time.Time          `bson:"created_at" json:"createdAt"`
}
