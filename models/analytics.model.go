package models

// Bestseller is one row of the top-sellers report. ID is the catalog id when
// the ordered line carried one, otherwise the item name.
type Bestseller struct {
	ID       interface{} `bson:"_id" json:"_id"`
	FoodName string      `bson:"food_name" json:"foodName"`
	Sold     int         `bson:"sold" json:"sold"`
}

// Analytics is the admin dashboard summary
type Analytics struct {
	DailyOrders  int64        `json:"dailyOrders"`
	Bestsellers  []Bestseller `json:"bestsellers"`
	TotalRevenue float64      `json:"totalRevenue"`
}
