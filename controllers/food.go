package controllers

import (
	"context"
	"encoding/json"
	"go-food-ordering/services"
	"go-food-ordering/utils"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// maxBulkBody caps the size of a bulk import payload
const maxBulkBody = 4 << 20

// FoodController handles catalog requests
type FoodController struct {
	Catalog *services.CatalogService
	Log     logrus.FieldLogger
}

// NewFoodController creates a new FoodController
func NewFoodController(catalog *services.CatalogService, log logrus.FieldLogger) *FoodController {
	return &FoodController{Catalog: catalog, Log: log}
}

// GetFood retrieves all food items
func (fc *FoodController) GetFood(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	foods, err := fc.Catalog.ListFoodItems(ctx)
	if err != nil {
		writeError(w, r, fc.Log, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, foods)
}

// AddFood handles adding a new food item (Admin only)
func (fc *FoodController) AddFood(w http.ResponseWriter, r *http.Request) {
	var in services.FoodInput
	if err := decodeJSON(r, &in); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "Invalid input")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	food, err := fc.Catalog.CreateFoodItem(ctx, in)
	if err != nil {
		writeError(w, r, fc.Log, err)
		return
	}
	utils.RespondJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Food item added successfully",
		"food":    food,
	})
}

// AddBulk inserts an array of food items in one batch (Admin only)
func (fc *FoodController) AddBulk(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBulkBody))
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "Invalid input")
		return
	}
	var in []services.FoodInput
	if err := json.Unmarshal(body, &in); err != nil || in == nil {
		utils.RespondError(w, http.StatusBadRequest, "Data must be an array of food objects.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	foods, err := fc.Catalog.CreateFoodItemsBulk(ctx, in)
	if err != nil {
		writeError(w, r, fc.Log, err)
		return
	}
	utils.RespondJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Bulk food added!",
		"food":    foods,
	})
}

// UpdateFood applies a partial update (Admin only)
func (fc *FoodController) UpdateFood(w http.ResponseWriter, r *http.Request) {
	var patch services.FoodPatch
	if err := decodeJSON(r, &patch); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "Invalid input")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	food, err := fc.Catalog.UpdateFoodItem(ctx, mux.Vars(r)["id"], patch)
	if err != nil {
		writeError(w, r, fc.Log, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Food updated successfully",
		"food":    food,
	})
}

// DeleteFood handles deleting a food item (Admin only)
func (fc *FoodController) DeleteFood(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	if err := fc.Catalog.DeleteFoodItem(ctx, id); err != nil {
		writeError(w, r, fc.Log, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]string{
		"message": "Food item deleted successfully",
		"foodId":  id,
	})
}

// AddReview appends a review to a food item
func (fc *FoodController) AddReview(w http.ResponseWriter, r *http.Request) {
	var in services.ReviewInput
	if err := decodeJSON(r, &in); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "Invalid input")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	if err := fc.Catalog.AddReview(ctx, mux.Vars(r)["id"], in); err != nil {
		writeError(w, r, fc.Log, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]string{"message": "Review added successfully"})
}

// AddFavorite flags a food item as a favorite
func (fc *FoodController) AddFavorite(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	food, err := fc.Catalog.SetFavorite(ctx, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, fc.Log, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"message": food.Name + " added to favorites!",
		"food":    food,
	})
}
