// routes/routes.go
package routes

import (
	"go-food-ordering/controllers"
	"go-food-ordering/middleware"
	"net/http"

	"github.com/gorilla/mux"
)

// Controllers groups everything RegisterRoutes wires
type Controllers struct {
	Users     *controllers.UserController
	Foods     *controllers.FoodController
	Orders    *controllers.OrderController
	Payments  *controllers.PaymentController
	Analytics *controllers.AnalyticsController
	Tracking  *controllers.TrackingController
	Health    *controllers.HealthController
}

// RegisterRoutes sets up all the routes for the application
func RegisterRoutes(router *mux.Router, c Controllers, auth *middleware.Auth) {
	if c.Health != nil {
		router.HandleFunc("/healthz", c.Health.Health).Methods(http.MethodGet)
	}

	api := router.PathPrefix("/api").Subrouter()

	// Public routes
	api.HandleFunc("/signup", c.Users.Signup).Methods(http.MethodPost)
	api.HandleFunc("/login", c.Users.Login).Methods(http.MethodPost)
	api.HandleFunc("/food", c.Foods.GetFood).Methods(http.MethodGet)

	// Admin routes
	admin := api.NewRoute().Subrouter()
	admin.Use(auth.Authenticated)
	admin.Use(auth.AdminOnly)
	admin.HandleFunc("/addFood", c.Foods.AddFood).Methods(http.MethodPost)
	admin.HandleFunc("/addBulk", c.Foods.AddBulk).Methods(http.MethodPost)
	admin.HandleFunc("/updateFood/{id}", c.Foods.UpdateFood).Methods(http.MethodPut)
	admin.HandleFunc("/deleteFood/{id}", c.Foods.DeleteFood).Methods(http.MethodDelete)
	admin.HandleFunc("/orders/{orderId}/assign", c.Orders.AssignDeliveryPerson).Methods(http.MethodPut)
	admin.HandleFunc("/adminAnalytics", c.Analytics.GetAnalytics).Methods(http.MethodGet)
	admin.HandleFunc("/admin/dashboard", c.Users.Dashboard).Methods(http.MethodGet)

	// Protected routes
	protected := api.NewRoute().Subrouter()
	protected.Use(auth.Authenticated)
	protected.HandleFunc("/orders", c.Orders.CreateOrder).Methods(http.MethodPost)
	protected.HandleFunc("/orders/{userId}", c.Orders.GetOrders).Methods(http.MethodGet)
	protected.HandleFunc("/orders/{orderId}", c.Orders.DeleteOrder).Methods(http.MethodDelete)
	protected.HandleFunc("/create-order", c.Payments.CreateOrder).Methods(http.MethodPost)
	protected.HandleFunc("/verify-payment", c.Payments.VerifyPayment).Methods(http.MethodPost)
	protected.HandleFunc("/payment/{paymentId}", c.Payments.GetPayment).Methods(http.MethodGet)
	protected.HandleFunc("/{id}/review", c.Foods.AddReview).Methods(http.MethodPost)
	protected.HandleFunc("/{id}/favorite", c.Foods.AddFavorite).Methods(http.MethodPost)

	// Real-time tracking
	if c.Tracking != nil {
		ws := router.PathPrefix("/ws").Subrouter()
		ws.Use(auth.Authenticated)
		ws.HandleFunc("/orders/{orderId}", c.Tracking.Track).Methods(http.MethodGet)
	}
}
