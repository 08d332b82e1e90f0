package model

import (
	"time"
)

// StatisticsResponse aggregates request counts, paid totals and ranking data
// for the admin dashboard, bounded by a time range.
type StatisticsResponse struct {
	PendingRequests    int64           `json:"pending_requests"`
	ApprovedRequests   int64           `json:"approved_requests"`
	RejectedRequests   int64           `json:"rejected_requests"`
	TotalPaidAmount    float64         `json:"total_paid_amount"`
	SpendByCategory    []CategorySpend `json:"spend_by_category"`
	TopRequestedItems  []ItemRanking   `json:"top_requested_items"`
	MonthlyPaidTotals  []MonthlyTotal  `json:"monthly_paid_totals"`
	TimeRangeStartDate time.Time       `json:"time_range_start_date"`
	TimeRangeEndDate   time.Time       `json:"time_range_end_date"`
}

// CategorySpend represents the paid total accumulated against one category
type CategorySpend struct {
	CategoryID   string  `json:"category_id"`
	CategoryName string  `json:"category_name"`
	RequestCount int     `json:"request_count"`
	TotalAmount  float64 `json:"total_amount"`
}

// ItemRanking represents a catalog item ranked by requested quantity
type ItemRanking struct {
	ItemID        string `json:"item_id"`
	ItemName      string `json:"item_name"`
	TotalQuantity int    `json:"total_quantity"`
}

// MonthlyTotal is one month's paid amount, month formatted as YYYY-MM
type MonthlyTotal struct {
	Month       string  `json:"month"`
	TotalAmount float64 `json:"total_amount"`
}
