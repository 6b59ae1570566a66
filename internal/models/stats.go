package models

import "strconv"

// Stats is the admin dashboard summary.
type Stats struct {
	TotalUsers     int64  `json:"total_users"`
	TotalProducts  int64  `json:"total_products"`
	ActiveProducts int64  `json:"active_products"`
	TotalOrders    int64  `json:"total_orders"`
	TotalRevenue   string `json:"total_revenue"`
}

// FormatRevenue renders revenue with two decimals.
func FormatRevenue(total float64) string {
	return strconv.FormatFloat(total, 'f', 2, 64)
}
