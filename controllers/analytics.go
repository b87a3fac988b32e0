package controllers

import (
	"context"
	"go-food-ordering/services"
	"go-food-ordering/utils"
	"net/http"

	"github.com/sirupsen/logrus"
)

// AnalyticsController serves the admin dashboard figures
type AnalyticsController struct {
	Analytics *services.AnalyticsService
	Log       logrus.FieldLogger
}

// NewAnalyticsController creates a new AnalyticsController
func NewAnalyticsController(analytics *services.AnalyticsService, log logrus.FieldLogger) *AnalyticsController {
	return &AnalyticsController{Analytics: analytics, Log: log}
}

// GetAnalytics returns dailyOrders, bestsellers and totalRevenue
func (ac *AnalyticsController) GetAnalytics(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	summary, err := ac.Analytics.Summary(ctx)
	if err != nil {
		writeError(w, r, ac.Log, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, summary)
}
