package services

import (
	"context"
	"errors"
	"fmt"
	"go-food-ordering/models"
	"go-food-ordering/store"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FoodStore is the catalog store as the services see it
type FoodStore interface {
	List(ctx context.Context) ([]models.FoodItem, error)
	Get(ctx context.Context, id primitive.ObjectID) (*models.FoodItem, error)
	Insert(ctx context.Context, food *models.FoodItem) error
	InsertMany(ctx context.Context, foods []models.FoodItem) ([]models.FoodItem, error)
	Update(ctx context.Context, id primitive.ObjectID, set bson.M) (*models.FoodItem, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	PushReview(ctx context.Context, id primitive.ObjectID, review models.Review) error
	SetFavorite(ctx context.Context, id primitive.ObjectID) (*models.FoodItem, error)
}

// FoodInput creates a food item. Price accepts numbers and numeric strings.
type FoodInput struct {
	Name        string            `json:"name"`
	Price       models.FlexNumber `json:"price"`
	Description string            `json:"description"`
	Image       string            `json:"image"`
}

// FoodPatch updates the fields that are present
type FoodPatch struct {
	Name        *string            `json:"name"`
	Price       *models.FlexNumber `json:"price"`
	Description *string            `json:"description"`
	Image       *string            `json:"image"`
	IsFavorite  *bool              `json:"isFavorite"`
}

// ReviewInput appends a review
type ReviewInput struct {
	Name    string            `json:"name"`
	Rating  models.FlexNumber `json:"rating"`
	Comment string            `json:"comment"`
}

// CatalogService manages food items, reviews and favorites
type CatalogService struct {
	Foods FoodStore
	Now   func() time.Time
}

// NewCatalogService creates a CatalogService
func NewCatalogService(foods FoodStore) *CatalogService {
	return &CatalogService{Foods: foods, Now: time.Now}
}

// ListFoodItems returns the whole catalog
func (cs *CatalogService) ListFoodItems(ctx context.Context) ([]models.FoodItem, error) {
	foods, err := cs.Foods.List(ctx)
	if err != nil {
		return nil, upstreamError("Error fetching food", err)
	}
	return foods, nil
}

// CreateFoodItem adds one item. A non-numeric or negative price becomes 0.
func (cs *CatalogService) CreateFoodItem(ctx context.Context, in FoodInput) (*models.FoodItem, error) {
	food := in.toFood()
	if food.Name == "" {
		return nil, validationError("Name is required.")
	}
	if err := cs.Foods.Insert(ctx, &food); err != nil {
		return nil, upstreamError("Error adding food item", err)
	}
	return &food, nil
}

// CreateFoodItemsBulk inserts all items as a single batch. One nameless item
// rejects the whole batch.
func (cs *CatalogService) CreateFoodItemsBulk(ctx context.Context, in []FoodInput) ([]models.FoodItem, error) {
	if in == nil {
		return nil, validationError("Data must be an array of food objects.")
	}
	foods := make([]models.FoodItem, len(in))
	for i := range in {
		foods[i] = in[i].toFood()
		if foods[i].Name == "" {
			return nil, validationError(fmt.Sprintf("Name is required for item %d.", i))
		}
	}
	inserted, err := cs.Foods.InsertMany(ctx, foods)
	if err != nil {
		return nil, upstreamError("Error adding bulk food", err)
	}
	return inserted, nil
}

// UpdateFoodItem applies a partial update
func (cs *CatalogService) UpdateFoodItem(ctx context.Context, idHex string, patch FoodPatch) (*models.FoodItem, error) {
	id, err := parseID(idHex, "food ID")
	if err != nil {
		return nil, err
	}

	set := bson.M{}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, validationError("Name cannot be empty.")
		}
		set["name"] = name
	}
	if patch.Price != nil {
		set["price"] = nonNegative(float64(*patch.Price))
	}
	if patch.Description != nil {
		set["description"] = *patch.Description
	}
	if patch.Image != nil {
		set["image"] = *patch.Image
	}
	if patch.IsFavorite != nil {
		set["is_favorite"] = *patch.IsFavorite
	}

	var food *models.FoodItem
	if len(set) == 0 {
		food, err = cs.Foods.Get(ctx, id)
	} else {
		food, err = cs.Foods.Update(ctx, id, set)
	}
	if errors.Is(err, store.ErrNotFound) {
		return nil, notFoundError("Food item not found")
	}
	if err != nil {
		return nil, upstreamError("Error updating food", err)
	}
	return food, nil
}

// DeleteFoodItem removes an item
func (cs *CatalogService) DeleteFoodItem(ctx context.Context, idHex string) error {
	id, err := parseID(idHex, "food ID")
	if err != nil {
		return err
	}
	err = cs.Foods.Delete(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return notFoundError("Food item not found")
	}
	if err != nil {
		return upstreamError("Error deleting food item", err)
	}
	return nil
}

// AddReview appends a review to an item
func (cs *CatalogService) AddReview(ctx context.Context, idHex string, in ReviewInput) error {
	id, err := parseID(idHex, "food ID")
	if err != nil {
		return err
	}
	review := models.Review{
		Name:      strings.TrimSpace(in.Name),
		Rating:    float64(in.Rating),
		Comment:   in.Comment,
		CreatedAt: cs.Now().UTC(),
	}
	if review.Name == "" {
		review.Name = "Anonymous"
	}
	err = cs.Foods.PushReview(ctx, id, review)
	if errors.Is(err, store.ErrNotFound) {
		return notFoundError("Food item not found")
	}
	if err != nil {
		return upstreamError("Error adding review", err)
	}
	return nil
}

// SetFavorite flags an item as a favorite. Repeating it changes nothing.
func (cs *CatalogService) SetFavorite(ctx context.Context, idHex string) (*models.FoodItem, error) {
	id, err := parseID(idHex, "food ID")
	if err != nil {
		return nil, err
	}
	food, err := cs.Foods.SetFavorite(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, notFoundError("Food not found")
	}
	if err != nil {
		return nil, upstreamError("Failed to update favorite", err)
	}
	return food, nil
}

func (in FoodInput) toFood() models.FoodItem {
	return models.FoodItem{
		Name:        strings.TrimSpace(in.Name),
		Price:       nonNegative(float64(in.Price)),
		Description: in.Description,
		Image:       in.Image,
		Reviews:     []models.Review{},
	}
}

func nonNegative(f float64) float64 {
	if f < 0 {
		return 0
	}
	return f
}
