package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OrderStatus is drawn from a fixed set; only Pending is ever assigned here
type OrderStatus string

const (
	StatusPending        OrderStatus = "Pending"
	StatusPreparing      OrderStatus = "Preparing"
	StatusOutForDelivery OrderStatus = "Out for Delivery"
	StatusDelivered      OrderStatus = "Delivered"
	StatusCancelled      OrderStatus = "Cancelled"
)

// Valid reports whether s is one of the known statuses
func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusPreparing, StatusOutForDelivery, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// Location is a geographic coordinate
type Location struct {
	Lat float64 `bson:"lat" json:"lat"`
	Lng float64 `bson:"lng" json:"lng"`
}

// OrderItem is a snapshot of a line item at order time
type OrderItem struct {
	FoodID   *primitive.ObjectID `bson:"food_id,omitempty" json:"foodId,omitempty"`
	Name     string              `bson:"name" json:"name"`
	Quantity int                 `bson:"quantity" json:"quantity"`
	Price    float64             `bson:"price" json:"price"`
	Image    string              `bson:"image,omitempty" json:"image,omitempty"`
}

// StatusChange records when an order entered a status
type StatusChange struct {
	Status    OrderStatus `bson:"status" json:"status"`
	Timestamp time.Time   `bson:"timestamp" json:"timestamp"`
}

// Order represents a user's order
type Order struct {
	ID                     primitive.ObjectID  `bson:"_id,omitempty" json:"_id,omitempty"`
	UserID                 primitive.ObjectID  `bson:"user_id" json:"userId"`
	Items                  []OrderItem         `bson:"items" json:"items"`
	TotalPrice             float64             `bson:"total_price" json:"totalPrice"`
	CustomerLocation       *Location           `bson:"customer_location" json:"customerLocation"`
	DeliveryPersonID       *primitive.ObjectID `bson:"delivery_person_id,omitempty" json:"deliveryPersonId,omitempty"`
	DeliveryPersonLocation *Location           `bson:"delivery_person_location,omitempty" json:"deliveryPersonLocation,omitempty"`
	Status                 OrderStatus         `bson:"status" json:"status"`
	StatusHistory          []StatusChange      `bson:"status_history" json:"statusHistory"`
	CreatedAt              time.Time           `bson:"created_at" json:"createdAt"`
	UpdatedAt              time.Time           `bson:"updated_at" json:"updatedAt"`

	// Location is filled in on read; never stored
	Location *Location `bson:"-" json:"location,omitempty"`
}
