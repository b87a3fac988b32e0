package controllers

import (
	"context"
	"go-food-ordering/models"
	"go-food-ordering/relay"
	"go-food-ordering/services"
	"go-food-ordering/utils"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// TrackingController upgrades order-tracking connections onto the relay hub
type TrackingController struct {
	Orders   *services.OrderService
	Hub      *relay.Hub
	Log      logrus.FieldLogger
	Upgrader websocket.Upgrader
}

// NewTrackingController creates a TrackingController. allowedOrigins lists
// the browser origins allowed to connect; an empty list allows same-origin
// requests only.
func NewTrackingController(orders *services.OrderService, hub *relay.Hub, log logrus.FieldLogger, allowedOrigins []string) *TrackingController {
	tc := &TrackingController{Orders: orders, Hub: hub, Log: log}
	tc.Upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}
	return tc
}

// Track subscribes the caller to location updates for one order. Order
// owners, the assigned delivery person and admins may connect; only the
// delivery person may publish.
func (tc *TrackingController) Track(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOrUnauthorized(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	order, err := tc.Orders.GetOrder(ctx, mux.Vars(r)["orderId"])
	cancel()
	if err != nil {
		writeError(w, r, tc.Log, err)
		return
	}

	member, allowed := trackingMember(caller, order)
	if !allowed {
		utils.RespondError(w, http.StatusForbidden, "Not allowed to track this order.")
		return
	}

	conn, err := tc.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the failure response
		tc.Log.WithError(err).Warn("WebSocket upgrade failed")
		return
	}
	tc.Hub.Attach(conn, order.ID.Hex(), member)
}

func trackingMember(caller services.Caller, order *models.Order) (relay.Member, bool) {
	member := relay.Member{UserID: caller.ID.Hex()}
	isCourier := order.DeliveryPersonID != nil && *order.DeliveryPersonID == caller.ID
	if isCourier {
		member.Publisher = caller.ID.Hex()
	}
	return member, isCourier || order.UserID == caller.ID || caller.IsAdmin()
}

func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		set[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}
