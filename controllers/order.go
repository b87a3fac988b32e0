// controllers/order.go
package controllers

import (
	"context"
	"go-food-ordering/services"
	"go-food-ordering/utils"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// OrderController handles order-related requests
type OrderController struct {
	Orders *services.OrderService
	Log    logrus.FieldLogger
}

// NewOrderController creates a new OrderController
func NewOrderController(orders *services.OrderService, log logrus.FieldLogger) *OrderController {
	return &OrderController{Orders: orders, Log: log}
}

// CreateOrder places an order for the authenticated user
func (oc *OrderController) CreateOrder(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOrUnauthorized(w, r)
	if !ok {
		return
	}
	var in services.PlaceOrderInput
	if err := decodeJSON(r, &in); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	order, err := oc.Orders.PlaceOrder(ctx, caller, in)
	if err != nil {
		writeError(w, r, oc.Log, err)
		return
	}
	utils.RespondJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Order placed successfully!",
		"order":   order,
	})
}

// GetOrders retrieves all orders of a user
func (oc *OrderController) GetOrders(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOrUnauthorized(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	orders, err := oc.Orders.ListOrdersForUser(ctx, caller, mux.Vars(r)["userId"])
	if err != nil {
		writeError(w, r, oc.Log, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, orders)
}

// DeleteOrder removes an order owned by the caller (or any order for admins)
func (oc *OrderController) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOrUnauthorized(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	id, err := oc.Orders.DeleteOrder(ctx, caller, mux.Vars(r)["orderId"])
	if err != nil {
		writeError(w, r, oc.Log, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]string{
		"message": "Order deleted successfully",
		"orderId": id.Hex(),
	})
}

// AssignDeliveryPerson records who delivers an order (Admin only)
func (oc *OrderController) AssignDeliveryPerson(w http.ResponseWriter, r *http.Request) {
	var body struct {
		DeliveryPersonID string `json:"deliveryPersonId"`
	}
	if err := decodeJSON(r, &body); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	order, err := oc.Orders.AssignDeliveryPerson(ctx, mux.Vars(r)["orderId"], body.DeliveryPersonID)
	if err != nil {
		writeError(w, r, oc.Log, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Delivery person assigned",
		"order":   order,
	})
}
