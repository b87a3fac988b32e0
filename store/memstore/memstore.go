// Package memstore provides in-memory repositories with the same contracts
// as the MongoDB ones in package store. Tests use them in place of a server.
package memstore

import (
	"context"
	"fmt"
	"go-food-ordering/models"
	"go-food-ordering/store"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Users is an in-memory credential store with a unique email constraint
type Users struct {
	mu   sync.Mutex
	byID map[primitive.ObjectID]models.User
	Err  error
}

// NewUsers returns an empty user store
func NewUsers() *Users {
	return &Users{byID: make(map[primitive.ObjectID]models.User)}
}

// FindByEmail returns the user with email, or store.ErrNotFound
func (u *Users) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.Err != nil {
		return nil, u.Err
	}
	for _, user := range u.byID {
		if user.Email == email {
			return &user, nil
		}
	}
	return nil, store.ErrNotFound
}

// FindByID returns the user with id, or store.ErrNotFound
func (u *Users) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.Err != nil {
		return nil, u.Err
	}
	user, ok := u.byID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &user, nil
}

// Insert assigns an id and stores user. A taken email is store.ErrDuplicate.
func (u *Users) Insert(ctx context.Context, user *models.User) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.Err != nil {
		return u.Err
	}
	for _, existing := range u.byID {
		if existing.Email == user.Email {
			return fmt.Errorf("%w: email %s", store.ErrDuplicate, user.Email)
		}
	}
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	u.byID[user.ID] = *user
	return nil
}

// SetRole changes the role of the user with email
func (u *Users) SetRole(ctx context.Context, email, role string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	for id, user := range u.byID {
		if user.Email == email {
			user.Role = role
			u.byID[id] = user
			return nil
		}
	}
	return store.ErrNotFound
}

// Count returns the number of stored users
func (u *Users) Count() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.byID)
}

// Foods is an in-memory catalog store
type Foods struct {
	mu    sync.Mutex
	items map[primitive.ObjectID]models.FoodItem
	order []primitive.ObjectID
	Err   error
}

// NewFoods returns an empty catalog
func NewFoods() *Foods {
	return &Foods{items: make(map[primitive.ObjectID]models.FoodItem)}
}

// List returns a copy of every catalog item
func (f *Foods) List(ctx context.Context) ([]models.FoodItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	out := make([]models.FoodItem, 0, len(f.order))
	for _, id := range f.order {
		out = append(out, cloneFood(f.items[id]))
	}
	return out, nil
}

// Get returns the item with id, or store.ErrNotFound
func (f *Foods) Get(ctx context.Context, id primitive.ObjectID) (*models.FoodItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	food, ok := f.items[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	food = cloneFood(food)
	return &food, nil
}

// Insert assigns an id and stores food
func (f *Foods) Insert(ctx context.Context, food *models.FoodItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	f.insertLocked(food)
	return nil
}

// InsertMany stores all foods and returns them with their new ids
func (f *Foods) InsertMany(ctx context.Context, foods []models.FoodItem) ([]models.FoodItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	for i := range foods {
		f.insertLocked(&foods[i])
	}
	return foods, nil
}

func (f *Foods) insertLocked(food *models.FoodItem) {
	if food.ID.IsZero() {
		food.ID = primitive.NewObjectID()
	}
	if food.Reviews == nil {
		food.Reviews = []models.Review{}
	}
	f.items[food.ID] = cloneFood(*food)
	f.order = append(f.order, food.ID)
}

// Update applies the $set fields the catalog service produces and returns
// the updated item
func (f *Foods) Update(ctx context.Context, id primitive.ObjectID, set bson.M) (*models.FoodItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	food, ok := f.items[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	for key, value := range set {
		switch key {
		case "name":
			food.Name = value.(string)
		case "price":
			food.Price = value.(float64)
		case "description":
			food.Description = value.(string)
		case "image":
			food.Image = value.(string)
		case "is_favorite":
			food.IsFavorite = value.(bool)
		default:
			return nil, fmt.Errorf("memstore: unsupported field %q", key)
		}
	}
	f.items[id] = food
	food = cloneFood(food)
	return &food, nil
}

// Delete removes the item with id
func (f *Foods) Delete(ctx context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	if _, ok := f.items[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.items, id)
	for i, existing := range f.order {
		if existing == id {
			f.order = append(f.order[:i], f.order[i+1:]...)
			break
		}
	}
	return nil
}

// PushReview appends review to the item with id
func (f *Foods) PushReview(ctx context.Context, id primitive.ObjectID, review models.Review) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	food, ok := f.items[id]
	if !ok {
		return store.ErrNotFound
	}
	food.Reviews = append(food.Reviews, review)
	f.items[id] = food
	return nil
}

// SetFavorite marks the item with id as a favorite
func (f *Foods) SetFavorite(ctx context.Context, id primitive.ObjectID) (*models.FoodItem, error) {
	return f.Update(ctx, id, bson.M{"is_favorite": true})
}

func cloneFood(food models.FoodItem) models.FoodItem {
	food.Reviews = append([]models.Review{}, food.Reviews...)
	return food
}

// Orders is an in-memory order store
type Orders struct {
	mu     sync.Mutex
	orders map[primitive.ObjectID]models.Order
	foods  *Foods
	Err    error
}

// NewOrders returns an empty order store. foods resolves bestseller names
// and may be nil.
func NewOrders(foods *Foods) *Orders {
	return &Orders{orders: make(map[primitive.ObjectID]models.Order), foods: foods}
}

// Insert assigns an id and stores order
func (o *Orders) Insert(ctx context.Context, order *models.Order) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.Err != nil {
		return o.Err
	}
	if order.ID.IsZero() {
		order.ID = primitive.NewObjectID()
	}
	o.orders[order.ID] = cloneOrder(*order)
	return nil
}

// Get returns the order with id, or store.ErrNotFound
func (o *Orders) Get(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.Err != nil {
		return nil, o.Err
	}
	order, ok := o.orders[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	order = cloneOrder(order)
	return &order, nil
}

// ListByUser returns the orders placed by userID
func (o *Orders) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Order, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.Err != nil {
		return nil, o.Err
	}
	out := []models.Order{}
	for _, order := range o.orders {
		if order.UserID == userID {
			out = append(out, cloneOrder(order))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// Delete removes the order with id
func (o *Orders) Delete(ctx context.Context, id primitive.ObjectID) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.Err != nil {
		return o.Err
	}
	if _, ok := o.orders[id]; !ok {
		return store.ErrNotFound
	}
	delete(o.orders, id)
	return nil
}

// AssignDeliveryPerson records who delivers the order with id
func (o *Orders) AssignDeliveryPerson(ctx context.Context, id, deliveryPersonID primitive.ObjectID, at time.Time) (*models.Order, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.Err != nil {
		return nil, o.Err
	}
	order, ok := o.orders[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	dp := deliveryPersonID
	order.DeliveryPersonID = &dp
	order.UpdatedAt = at
	o.orders[id] = order
	order = cloneOrder(order)
	return &order, nil
}

// CountSince counts orders created at or after since
func (o *Orders) CountSince(ctx context.Context, since time.Time) (int64, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.Err != nil {
		return 0, o.Err
	}
	var n int64
	for _, order := range o.orders {
		if !order.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

// Bestsellers ranks ordered items by total quantity, like the Mongo
// aggregation
func (o *Orders) Bestsellers(ctx context.Context, limit int) ([]models.Bestseller, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.Err != nil {
		return nil, o.Err
	}
	type row struct {
		key  interface{}
		name string
		sold int
	}
	rows := map[string]*row{}
	for _, order := range o.orders {
		for _, item := range order.Items {
			var key interface{} = item.Name
			keyStr := "name:" + item.Name
			if item.FoodID != nil {
				key = *item.FoodID
				keyStr = "id:" + item.FoodID.Hex()
			}
			r, ok := rows[keyStr]
			if !ok {
				r = &row{key: key, name: item.Name}
				rows[keyStr] = r
			}
			r.sold += item.Quantity
		}
	}

	out := make([]models.Bestseller, 0, len(rows))
	for _, r := range rows {
		name := r.name
		if id, ok := r.key.(primitive.ObjectID); ok && o.foods != nil {
			if food, err := o.foods.Get(ctx, id); err == nil {
				name = food.Name
			}
		}
		out = append(out, models.Bestseller{ID: r.key, FoodName: name, Sold: r.sold})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Sold != out[j].Sold {
			return out[i].Sold > out[j].Sold
		}
		return out[i].FoodName < out[j].FoodName
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// TotalRevenue sums the total price of every order
func (o *Orders) TotalRevenue(ctx context.Context) (float64, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.Err != nil {
		return 0, o.Err
	}
	var total float64
	for _, order := range o.orders {
		total += order.TotalPrice
	}
	return total, nil
}

// Count returns the number of stored orders
func (o *Orders) Count() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.orders)
}

func cloneOrder(order models.Order) models.Order {
	order.Items = append([]models.OrderItem{}, order.Items...)
	order.StatusHistory = append([]models.StatusChange{}, order.StatusHistory...)
	return order
}

// Payments is an in-memory payment store with a unique payment id
type Payments struct {
	mu       sync.Mutex
	payments []models.Payment
	Err      error
}

// NewPayments returns an empty payment store
func NewPayments() *Payments {
	return &Payments{}
}

// Insert stores payment. A recorded payment id is store.ErrDuplicate.
func (p *Payments) Insert(ctx context.Context, payment *models.Payment) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	for _, existing := range p.payments {
		if existing.PaymentID == payment.PaymentID {
			return fmt.Errorf("%w: payment_id %s", store.ErrDuplicate, payment.PaymentID)
		}
	}
	if payment.ID.IsZero() {
		payment.ID = primitive.NewObjectID()
	}
	p.payments = append(p.payments, *payment)
	return nil
}

// FindByPaymentID returns the record for a provider payment id, or
// store.ErrNotFound
func (p *Payments) FindByPaymentID(ctx context.Context, paymentID string) (*models.Payment, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return nil, p.Err
	}
	for _, payment := range p.payments {
		if payment.PaymentID == paymentID {
			payment := payment
			return &payment, nil
		}
	}
	return nil, store.ErrNotFound
}

// Count returns the number of stored payment records
func (p *Payments) Count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.payments)
}
