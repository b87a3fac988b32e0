package controllers

import (
	"context"
	"go-food-ordering/utils"
	"net/http"
)

// HealthController reports whether the database is reachable
type HealthController struct {
	Ping func(ctx context.Context) error
}

// Health responds 200 when the database answers a ping
func (hc *HealthController) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	if err := hc.Ping(ctx); err != nil {
		utils.RespondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
