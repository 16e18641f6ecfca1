package admin

import "github.com/asookemart/asooke-backend/pkg/enums"

type CreateRiderInput struct {
	Email     string
	FirstName string
	LastName  string
	Phone     string
	Password  string
}

type DailyRevenueDTO struct {
	Date    string `json:"date"`
	Revenue string `json:"revenue"`
	Orders  int64  `json:"orders"`
}

type RevenueWindowDTO struct {
	Total  string            `json:"total"`
	Orders int64             `json:"orders"`
	Daily  []DailyRevenueDTO `json:"daily"`
}

type StatsDTO struct {
	TotalOrders       int64                          `json:"total_orders"`
	TotalRevenue      string                         `json:"total_revenue"`
	TotalCustomers    int64                          `json:"total_customers"`
	TotalRiders       int64                          `json:"total_riders"`
	TotalProducts     int64                          `json:"total_products"`
	DisplayedProducts int64                          `json:"displayed_products"`
	OrdersByStatus    map[enums.TrackingStatus]int64 `json:"orders_by_status"`
	PendingDeliveries int64                          `json:"pending_deliveries"`
	LastSevenDays     RevenueWindowDTO               `json:"last_7_days"`
}
