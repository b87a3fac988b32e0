package services

import (
	"context"
	"errors"
	"go-food-ordering/models"
	"go-food-ordering/store"
	"math"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OrderStore is the order store as the order service sees it
type OrderStore interface {
	Insert(ctx context.Context, order *models.Order) error
	Get(ctx context.Context, id primitive.ObjectID) (*models.Order, error)
	ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Order, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	AssignDeliveryPerson(ctx context.Context, id, deliveryPersonID primitive.ObjectID, at time.Time) (*models.Order, error)
}

// CatalogReader resolves catalog items for re-pricing
type CatalogReader interface {
	Get(ctx context.Context, id primitive.ObjectID) (*models.FoodItem, error)
}

// UserReader loads users by id
type UserReader interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}

// Notifier sends customer notifications
type Notifier interface {
	SendOrderConfirmation(toEmail string, order models.Order) error
	SendPaymentReceipt(toEmail string, payment models.Payment) error
}

// LocationInput is a coordinate whose fields must both be present
type LocationInput struct {
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`
}

// PlaceOrderInput is the checkout payload. TotalPrice is informational; the
// stored total is computed from the items.
type PlaceOrderInput struct {
	Items            []models.OrderItem `json:"items"`
	TotalPrice       models.FlexNumber  `json:"totalPrice"`
	UserID           string             `json:"userId"`
	CustomerLocation *LocationInput     `json:"customerLocation"`
}

// OrderService places, lists and deletes orders
type OrderService struct {
	Orders   OrderStore
	Catalog  CatalogReader
	Users    UserReader
	Notifier Notifier
	Log      logrus.FieldLogger
	Now      func() time.Time

	// DefaultLocation is reported for orders stored without a coordinate
	DefaultLocation models.Location

	notifications sync.WaitGroup
}

// NewOrderService creates an OrderService
func NewOrderService(orders OrderStore, catalog CatalogReader, users UserReader, notifier Notifier, log logrus.FieldLogger, fallback models.Location) *OrderService {
	return &OrderService{
		Orders:          orders,
		Catalog:         catalog,
		Users:           users,
		Notifier:        notifier,
		Log:             log,
		Now:             time.Now,
		DefaultLocation: fallback,
	}
}

// PlaceOrder validates the cart and persists a Pending order owned by the
// caller. Lines that name a catalog item take its current name and price;
// other lines are stored as submitted.
func (s *OrderService) PlaceOrder(ctx context.Context, caller Caller, in PlaceOrderInput) (*models.Order, error) {
	if len(in.Items) == 0 {
		return nil, validationError("Order items are required.")
	}
	loc := in.CustomerLocation
	if loc == nil || loc.Lat == nil || loc.Lng == nil {
		return nil, validationError("Customer location (lat,lng) is required.")
	}
	if math.Abs(*loc.Lat) > 90 || math.Abs(*loc.Lng) > 180 {
		return nil, validationError("Customer location is out of range.")
	}

	owner := caller.ID
	if in.UserID != "" && in.UserID != caller.ID.Hex() {
		if !caller.IsAdmin() {
			return nil, forbiddenError("Cannot place an order for another user.")
		}
		id, err := parseID(in.UserID, "userId")
		if err != nil {
			return nil, err
		}
		owner = id
	}

	items := make([]models.OrderItem, len(in.Items))
	total := 0.0
	for i, item := range in.Items {
		if item.Quantity <= 0 {
			return nil, validationError("Item quantity must be positive.")
		}
		if item.Price < 0 {
			return nil, validationError("Item price cannot be negative.")
		}
		if item.FoodID != nil {
			food, err := s.Catalog.Get(ctx, *item.FoodID)
			if errors.Is(err, store.ErrNotFound) {
				return nil, validationError("Unknown food item: " + item.FoodID.Hex())
			}
			if err != nil {
				return nil, upstreamError("Error placing order", err)
			}
			item.Name = food.Name
			item.Price = food.Price
			if item.Image == "" {
				item.Image = food.Image
			}
		}
		items[i] = item
		total += item.Price * float64(item.Quantity)
	}
	total = math.Round(total*100) / 100
	if in.TotalPrice != 0 && float64(in.TotalPrice) != total {
		s.Log.WithFields(logrus.Fields{"submitted": float64(in.TotalPrice), "computed": total}).
			Warn("Submitted order total differs from item sum")
	}

	now := s.Now().UTC()
	order := &models.Order{
		UserID:           owner,
		Items:            items,
		TotalPrice:       total,
		CustomerLocation: &models.Location{Lat: *loc.Lat, Lng: *loc.Lng},
		Status:           models.StatusPending,
		StatusHistory:    []models.StatusChange{{Status: models.StatusPending, Timestamp: now}},
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.Orders.Insert(ctx, order); err != nil {
		return nil, upstreamError("Error placing order", err)
	}

	s.notifications.Add(1)
	go func() {
		defer s.notifications.Done()
		s.notifyPlaced(*order)
	}()
	return order, nil
}

// Wait blocks until every confirmation started so far has been sent or has
// failed
func (s *OrderService) Wait() {
	s.notifications.Wait()
}

// ListOrdersForUser returns the user's orders, each with a location. Callers
// may only list their own orders unless they are admins.
func (s *OrderService) ListOrdersForUser(ctx context.Context, caller Caller, userIDHex string) ([]models.Order, error) {
	userID, err := parseID(userIDHex, "userId")
	if err != nil {
		return nil, err
	}
	if userID != caller.ID && !caller.IsAdmin() {
		return nil, forbiddenError("Cannot view another user's orders.")
	}
	orders, err := s.Orders.ListByUser(ctx, userID)
	if err != nil {
		return nil, upstreamError("Failed to fetch orders.", err)
	}
	for i := range orders {
		if orders[i].CustomerLocation != nil {
			loc := *orders[i].CustomerLocation
			orders[i].Location = &loc
		} else {
			loc := s.DefaultLocation
			orders[i].Location = &loc
		}
	}
	return orders, nil
}

// GetOrder loads one order
func (s *OrderService) GetOrder(ctx context.Context, orderIDHex string) (*models.Order, error) {
	id, err := parseID(orderIDHex, "orderId")
	if err != nil {
		return nil, err
	}
	order, err := s.Orders.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, notFoundError("Order not found")
	}
	if err != nil {
		return nil, upstreamError("Error fetching order", err)
	}
	return order, nil
}

// DeleteOrder hard-deletes an order owned by the caller, or any order for
// admins
func (s *OrderService) DeleteOrder(ctx context.Context, caller Caller, orderIDHex string) (primitive.ObjectID, error) {
	order, err := s.GetOrder(ctx, orderIDHex)
	if err != nil {
		return primitive.NilObjectID, err
	}
	if order.UserID != caller.ID && !caller.IsAdmin() {
		return primitive.NilObjectID, forbiddenError("Cannot delete another user's order.")
	}
	err = s.Orders.Delete(ctx, order.ID)
	if errors.Is(err, store.ErrNotFound) {
		return primitive.NilObjectID, notFoundError("Order not found")
	}
	if err != nil {
		return primitive.NilObjectID, upstreamError("Error deleting order", err)
	}
	return order.ID, nil
}

// AssignDeliveryPerson records which user delivers an order. Only that user
// may publish locations for it.
func (s *OrderService) AssignDeliveryPerson(ctx context.Context, orderIDHex, deliveryPersonHex string) (*models.Order, error) {
	orderID, err := parseID(orderIDHex, "orderId")
	if err != nil {
		return nil, err
	}
	dpID, err := parseID(deliveryPersonHex, "deliveryPersonId")
	if err != nil {
		return nil, err
	}
	if _, err := s.Users.FindByID(ctx, dpID); errors.Is(err, store.ErrNotFound) {
		return nil, notFoundError("Delivery person not found")
	} else if err != nil {
		return nil, upstreamError("Database error", err)
	}
	order, err := s.Orders.AssignDeliveryPerson(ctx, orderID, dpID, s.Now().UTC())
	if errors.Is(err, store.ErrNotFound) {
		return nil, notFoundError("Order not found")
	}
	if err != nil {
		return nil, upstreamError("Error assigning delivery person", err)
	}
	return order, nil
}

func (s *OrderService) notifyPlaced(order models.Order) {
	if s.Notifier == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	user, err := s.Users.FindByID(ctx, order.UserID)
	if err != nil {
		s.Log.WithError(err).WithField("order_id", order.ID.Hex()).Warn("Could not load order owner for notification")
		return
	}
	if err := s.Notifier.SendOrderConfirmation(user.Email, order); err != nil {
		s.Log.WithError(err).WithField("to", user.Email).Error("Failed to send order confirmation")
	}
}
