package repository

import (
	"context"

	"github.com/chahe-dridi/prelevements-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RequestRepository is the storage gateway for requests and their owned
// rows (line items, payment). Deletion order matters: payment first, then
// items, then the request, to satisfy foreign keys.
type RequestRepository interface {
	Create(ctx context.Context, request *model.Request) error
	CreateItem(ctx context.Context, item *model.RequestItem) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Request, error)
	FindWithDetails(ctx context.Context, id uuid.UUID) (*model.Request, error)
	List(ctx context.Context, status string, page, limit int) ([]model.Request, int64, error)
	ListByRequester(ctx context.Context, requesterID uuid.UUID) ([]model.Request, error)
	Save(ctx context.Context, request *model.Request) error
	SaveItem(ctx context.Context, item *model.RequestItem) error
	FindPayment(ctx context.Context, requestID uuid.UUID) (*model.Payment, error)
	SavePayment(ctx context.Context, payment *model.Payment) error
	DeletePayment(ctx context.Context, requestID uuid.UUID) error
	DeleteItems(ctx context.Context, requestID uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
	CountByRequester(ctx context.Context, requesterID uuid.UUID) (int64, error)
	CountItemRefs(ctx context.Context, itemID uuid.UUID) (int64, error)
}

type requestRepository struct {
	db *gorm.DB
}

func NewRequestRepository(db *gorm.DB) RequestRepository {
	return &requestRepository{db: db}
}

func (r *requestRepository) Create(ctx context.Context, request *model.Request) error {
	return GetDB(ctx, r.db).Create(request).Error
}

func (r *requestRepository) CreateItem(ctx context.Context, item *model.RequestItem) error {
	return GetDB(ctx, r.db).Create(item).Error
}

func (r *requestRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Request, error) {
	var request model.Request
	if err := GetDB(ctx, r.db).First(&request, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *requestRepository) FindWithDetails(ctx context.Context, id uuid.UUID) (*model.Request, error) {
	var request model.Request
	if err := GetDB(ctx, r.db).
		Preload("Requester").
		Preload("Category").
		Preload("Items").
		Preload("Items.Item").
		Preload("Payment").
		First(&request, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *requestRepository) List(ctx context.Context, status string, page, limit int) ([]model.Request, int64, error) {
	db := GetDB(ctx, r.db)

	var total int64
	countQuery := db.Model(&model.Request{})
	if status != "" {
		countQuery = countQuery.Where("status = ?", status)
	}
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	var requests []model.Request
	fetchQuery := db.
		Preload("Requester").
		Preload("Category").
		Preload("Items").
		Preload("Items.Item").
		Preload("Payment")
	if status != "" {
		fetchQuery = fetchQuery.Where("status = ?", status)
	}
	if err := fetchQuery.
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&requests).Error; err != nil {
		return nil, 0, err
	}

	return requests, total, nil
}

func (r *requestRepository) ListByRequester(ctx context.Context, requesterID uuid.UUID) ([]model.Request, error) {
	var requests []model.Request
	if err := GetDB(ctx, r.db).
		Preload("Category").
		Preload("Items").
		Preload("Items.Item").
		Preload("Payment").
		Where("requester_id = ?", requesterID).
		Order("created_at DESC").
		Find(&requests).Error; err != nil {
		return nil, err
	}
	return requests, nil
}

func (r *requestRepository) Save(ctx context.Context, request *model.Request) error {
	// Save only the request row. Owned associations are persisted explicitly
	return GetDB(ctx, r.db).Omit("Items", "Payment", "Requester", "Category").Save(request).Error
}

func (r *requestRepository) SaveItem(ctx context.Context, item *model.RequestItem) error {
	return GetDB(ctx, r.db).Omit("Item").Save(item).Error
}

func (r *requestRepository) FindPayment(ctx context.Context, requestID uuid.UUID) (*model.Payment, error) {
	var payment model.Payment
	if err := GetDB(ctx, r.db).First(&payment, "request_id = ?", requestID).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *requestRepository) SavePayment(ctx context.Context, payment *model.Payment) error {
	return GetDB(ctx, r.db).Save(payment).Error
}

func (r *requestRepository) DeletePayment(ctx context.Context, requestID uuid.UUID) error {
	return GetDB(ctx, r.db).Where("request_id = ?", requestID).Delete(&model.Payment{}).Error
}

func (r *requestRepository) DeleteItems(ctx context.Context, requestID uuid.UUID) error {
	return GetDB(ctx, r.db).Where("request_id = ?", requestID).Delete(&model.RequestItem{}).Error
}

func (r *requestRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Request{}).Error
}

func (r *requestRepository) CountByRequester(ctx context.Context, requesterID uuid.UUID) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.Request{}).Where("requester_id = ?", requesterID).Count(&count).Error
	return count, err
}

func (r *requestRepository) CountItemRefs(ctx context.Context, itemID uuid.UUID) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.RequestItem{}).Where("item_id = ?", itemID).Count(&count).Error
	return count, err
}
