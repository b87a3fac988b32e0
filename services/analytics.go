package services

import (
	"context"
	"go-food-ordering/models"
	"time"
)

// OrderAggregates are the read-only queries behind the dashboard
type OrderAggregates interface {
	CountSince(ctx context.Context, since time.Time) (int64, error)
	Bestsellers(ctx context.Context, limit int) ([]models.Bestseller, error)
	TotalRevenue(ctx context.Context) (float64, error)
}

// AnalyticsService recomputes the admin dashboard on every call
type AnalyticsService struct {
	Orders OrderAggregates
	Limit  int
	Now    func() time.Time
}

// NewAnalyticsService creates an AnalyticsService reporting limit bestsellers
func NewAnalyticsService(orders OrderAggregates, limit int) *AnalyticsService {
	return &AnalyticsService{Orders: orders, Limit: limit, Now: time.Now}
}

// Summary returns today's order count, the bestsellers and total revenue
func (as *AnalyticsService) Summary(ctx context.Context) (*models.Analytics, error) {
	now := as.Now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	daily, err := as.Orders.CountSince(ctx, midnight)
	if err != nil {
		return nil, upstreamError("Error fetching analytics.", err)
	}
	bestsellers, err := as.Orders.Bestsellers(ctx, as.Limit)
	if err != nil {
		return nil, upstreamError("Error fetching analytics.", err)
	}
	revenue, err := as.Orders.TotalRevenue(ctx)
	if err != nil {
		return nil, upstreamError("Error fetching analytics.", err)
	}
	return &models.Analytics{
		DailyOrders:  daily,
		Bestsellers:  bestsellers,
		TotalRevenue: revenue,
	}, nil
}
