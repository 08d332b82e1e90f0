package service

import (
	"context"
	"time"

	"github.com/chahe-dridi/prelevements-backend/internal/model"

	"gorm.io/gorm"
)

type StatisticsService interface {
	GetStatistics(ctx context.Context, startDate, endDate time.Time) (model.StatisticsResponse, error)
}

type statisticsService struct {
	db *gorm.DB
}

func NewStatisticsService(db *gorm.DB) StatisticsService {
	return &statisticsService{db: db}
}

// GetStatistics aggregates request counts, paid totals and item rankings
// bounded by the given time range for the admin dashboard
func (s *statisticsService) GetStatistics(ctx context.Context, startDate, endDate time.Time) (model.StatisticsResponse, error) {
	var response model.StatisticsResponse
	response.TimeRangeStartDate = startDate
	response.TimeRangeEndDate = endDate

	// Request counts per status
	statuses := []struct {
		status string
		target *int64
	}{
		{model.StatusPending, &response.PendingRequests},
		{model.StatusApproved, &response.ApprovedRequests},
		{model.StatusRejected, &response.RejectedRequests},
	}
	for _, entry := range statuses {
		s.db.WithContext(ctx).Model(&model.Request{}).
			Where("status = ? AND created_at >= ? AND created_at <= ?", entry.status, startDate, endDate).
			Count(entry.target)
	}

	// Total paid out against approved requests
	var paid struct {
		Value float64
	}
	s.db.WithContext(ctx).Table("payments").
		Select("COALESCE(SUM(payments.total_amount), 0) as value").
		Joins("JOIN requests ON requests.id = payments.request_id").
		Where("requests.status = ? AND payments.paid_at >= ? AND payments.paid_at <= ?", model.StatusApproved, startDate, endDate).
		Scan(&paid)
	response.TotalPaidAmount = paid.Value

	// Paid totals grouped by category
	var byCategory []model.CategorySpend
	s.db.WithContext(ctx).Table("payments").
		Select("categories.id as category_id, categories.name as category_name, COUNT(payments.id) as request_count, SUM(payments.total_amount) as total_amount").
		Joins("JOIN requests ON requests.id = payments.request_id").
		Joins("JOIN categories ON categories.id = requests.category_id").
		Where("requests.status = ? AND payments.paid_at >= ? AND payments.paid_at <= ?", model.StatusApproved, startDate, endDate).
		Group("categories.id, categories.name").
		Order("total_amount DESC").
		Scan(&byCategory)
	response.SpendByCategory = byCategory

	// Top requested catalog items by accumulated quantity
	var topItems []model.ItemRanking
	s.db.WithContext(ctx).Table("request_items").
		Select("items.id as item_id, items.name as item_name, SUM(request_items.quantity) as total_quantity").
		Joins("JOIN items ON items.id = request_items.item_id").
		Joins("JOIN requests ON requests.id = request_items.request_id").
		Where("requests.created_at >= ? AND requests.created_at <= ?", startDate, endDate).
		Group("items.id, items.name").
		Order("total_quantity DESC").
		Limit(5).
		Scan(&topItems)
	response.TopRequestedItems = topItems

	// Monthly paid totals (postgres to_char)
	var monthly []model.MonthlyTotal
	s.db.WithContext(ctx).Table("payments").
		Select("to_char(payments.paid_at, 'YYYY-MM') as month, SUM(payments.total_amount) as total_amount").
		Joins("JOIN requests ON requests.id = payments.request_id").
		Where("requests.status = ? AND payments.paid_at >= ? AND payments.paid_at <= ?", model.StatusApproved, startDate, endDate).
		Group("to_char(payments.paid_at, 'YYYY-MM')").
		Order("month").
		Scan(&monthly)
	response.MonthlyPaidTotals = monthly

	return response, nil
}
