package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chahe-dridi/prelevements-backend/internal/model"
	"github.com/chahe-dridi/prelevements-backend/internal/repository"
	"github.com/chahe-dridi/prelevements-backend/pkg/apperr"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateCategoryDTO struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type UpdateCategoryDTO struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type CreateItemDTO struct {
	Name       string `json:"name" binding:"required"`
	UnitPrice  string `json:"unit_price" binding:"required"` // decimal string
	CategoryID string `json:"category_id" binding:"required"`
}

type UpdateItemDTO struct {
	Name      string `json:"name"`
	UnitPrice string `json:"unit_price"`
}

type ItemResponse struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	UnitPrice  string `json:"unit_price"`
	CategoryID string `json:"category_id"`
	CreatedAt  string `json:"created_at"`
}

type CategoryResponse struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Items       []ItemResponse `json:"items"`
	CreatedAt   string         `json:"created_at"`
}

// --- Interface ---

// CatalogService manages the reference data requests are built from:
// categories and the priced items inside them. The lifecycle service only
// ever reads this data.
type CatalogService interface {
	ListCategories(ctx context.Context) ([]CategoryResponse, error)
	CreateCategory(ctx context.Context, adminID string, req CreateCategoryDTO) (CategoryResponse, error)
	UpdateCategory(ctx context.Context, adminID, id string, req UpdateCategoryDTO) (CategoryResponse, error)
	DeleteCategory(ctx context.Context, adminID, id string) error
	CreateItem(ctx context.Context, adminID string, req CreateItemDTO) (ItemResponse, error)
	UpdateItem(ctx context.Context, adminID, id string, req UpdateItemDTO) (ItemResponse, error)
	DeleteItem(ctx context.Context, adminID, id string) error
}

type catalogService struct {
	categoryRepo repository.CategoryRepository
	itemRepo     repository.ItemRepository
	requestRepo  repository.RequestRepository
	auditRepo    repository.AuditRepository
	txManager    repository.TransactionManager
}

func NewCatalogService(
	categoryRepo repository.CategoryRepository,
	itemRepo repository.ItemRepository,
	requestRepo repository.RequestRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) CatalogService {
	return &catalogService{
		categoryRepo: categoryRepo,
		itemRepo:     itemRepo,
		requestRepo:  requestRepo,
		auditRepo:    auditRepo,
		txManager:    txManager,
	}
}

// --- Implementation ---

func (s *catalogService) ListCategories(ctx context.Context) ([]CategoryResponse, error) {
	categories, err := s.categoryRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch categories: %w", err)
	}

	result := make([]CategoryResponse, 0, len(categories))
	for i := range categories {
		result = append(result, toCategoryResponse(&categories[i]))
	}
	return result, nil
}

func (s *catalogService) CreateCategory(ctx context.Context, adminID string, req CreateCategoryDTO) (CategoryResponse, error) {
	category := model.Category{
		Name:        req.Name,
		Description: req.Description,
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if createErr := s.categoryRepo.Create(txCtx, &category); createErr != nil {
			return fmt.Errorf("failed to create category: %w", createErr)
		}
		return s.catalogAudit(txCtx, adminID, model.ActionCreateCategory, category.ID.String(), category.Name)
	})
	if err != nil {
		return CategoryResponse{}, err
	}

	return toCategoryResponse(&category), nil
}

func (s *catalogService) UpdateCategory(ctx context.Context, adminID, id string, req UpdateCategoryDTO) (CategoryResponse, error) {
	categoryID, err := uuid.Parse(id)
	if err != nil {
		return CategoryResponse{}, apperr.InvalidInput("invalid category id")
	}

	var category *model.Category
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		loaded, findErr := s.categoryRepo.FindByID(txCtx, categoryID)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return apperr.NotFound("category not found")
			}
			return fmt.Errorf("failed to load category: %w", findErr)
		}

		if req.Name != "" {
			loaded.Name = req.Name
		}
		if req.Description != "" {
			loaded.Description = req.Description
		}

		if saveErr := s.categoryRepo.Save(txCtx, loaded); saveErr != nil {
			return fmt.Errorf("failed to save category: %w", saveErr)
		}
		category = loaded
		return s.catalogAudit(txCtx, adminID, model.ActionUpdateCategory, loaded.ID.String(), loaded.Name)
	})
	if err != nil {
		return CategoryResponse{}, err
	}

	return toCategoryResponse(category), nil
}

func (s *catalogService) DeleteCategory(ctx context.Context, adminID, id string) error {
	categoryID, err := uuid.Parse(id)
	if err != nil {
		return apperr.InvalidInput("invalid category id")
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		category, findErr := s.categoryRepo.FindByIDWithItems(txCtx, categoryID)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return apperr.NotFound("category not found")
			}
			return fmt.Errorf("failed to load category: %w", findErr)
		}

		inUse, countErr := s.categoryRepo.CountRequests(txCtx, categoryID)
		if countErr != nil {
			return fmt.Errorf("failed to count category requests: %w", countErr)
		}
		if inUse > 0 {
			return apperr.InvalidState("category is referenced by existing requests")
		}
		if len(category.Items) > 0 {
			return apperr.InvalidState("category still contains items")
		}

		if delErr := s.categoryRepo.Delete(txCtx, categoryID); delErr != nil {
			return fmt.Errorf("failed to delete category: %w", delErr)
		}
		return s.catalogAudit(txCtx, adminID, model.ActionDeleteCategory, categoryID.String(), category.Name)
	})
}

func (s *catalogService) CreateItem(ctx context.Context, adminID string, req CreateItemDTO) (ItemResponse, error) {
	categoryID, err := uuid.Parse(req.CategoryID)
	if err != nil {
		return ItemResponse{}, apperr.InvalidInput("invalid category id")
	}

	price, err := decimal.NewFromString(req.UnitPrice)
	if err != nil {
		return ItemResponse{}, apperr.InvalidInput("invalid unit_price: %s", req.UnitPrice)
	}
	if price.IsNegative() {
		return ItemResponse{}, apperr.InvalidInput("unit_price must not be negative")
	}

	if _, err := s.categoryRepo.FindByID(ctx, categoryID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ItemResponse{}, apperr.NotFound("category not found")
		}
		return ItemResponse{}, fmt.Errorf("failed to load category: %w", err)
	}

	item := model.Item{
		Name:       req.Name,
		UnitPrice:  price,
		CategoryID: categoryID,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if createErr := s.itemRepo.Create(txCtx, &item); createErr != nil {
			return fmt.Errorf("failed to create item: %w", createErr)
		}
		return s.catalogAudit(txCtx, adminID, model.ActionCreateItem, item.ID.String(), item.Name)
	})
	if err != nil {
		return ItemResponse{}, err
	}

	return toItemResponse(&item), nil
}

func (s *catalogService) UpdateItem(ctx context.Context, adminID, id string, req UpdateItemDTO) (ItemResponse, error) {
	itemID, err := uuid.Parse(id)
	if err != nil {
		return ItemResponse{}, apperr.InvalidInput("invalid item id")
	}

	// Parse before mutating anything
	var price *decimal.Decimal
	if req.UnitPrice != "" {
		parsed, parseErr := decimal.NewFromString(req.UnitPrice)
		if parseErr != nil {
			return ItemResponse{}, apperr.InvalidInput("invalid unit_price: %s", req.UnitPrice)
		}
		if parsed.IsNegative() {
			return ItemResponse{}, apperr.InvalidInput("unit_price must not be negative")
		}
		price = &parsed
	}

	var item *model.Item
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		loaded, findErr := s.itemRepo.FindByID(txCtx, itemID)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return apperr.NotFound("item not found")
			}
			return fmt.Errorf("failed to load item: %w", findErr)
		}

		if req.Name != "" {
			loaded.Name = req.Name
		}
		// Catalog price changes never touch already-requested lines; line
		// pricing is owned by the lifecycle service.
		if price != nil {
			loaded.UnitPrice = *price
		}

		if saveErr := s.itemRepo.Save(txCtx, loaded); saveErr != nil {
			return fmt.Errorf("failed to save item: %w", saveErr)
		}
		item = loaded
		return s.catalogAudit(txCtx, adminID, model.ActionUpdateItem, loaded.ID.String(), loaded.Name)
	})
	if err != nil {
		return ItemResponse{}, err
	}

	return toItemResponse(item), nil
}

func (s *catalogService) DeleteItem(ctx context.Context, adminID, id string) error {
	itemID, err := uuid.Parse(id)
	if err != nil {
		return apperr.InvalidInput("invalid item id")
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		item, findErr := s.itemRepo.FindByID(txCtx, itemID)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return apperr.NotFound("item not found")
			}
			return fmt.Errorf("failed to load item: %w", findErr)
		}

		// Restrict delete: an item referenced by any request line stays
		refs, countErr := s.requestRepo.CountItemRefs(txCtx, itemID)
		if countErr != nil {
			return fmt.Errorf("failed to count item references: %w", countErr)
		}
		if refs > 0 {
			return apperr.InvalidState("item is referenced by existing requests")
		}

		if delErr := s.itemRepo.Delete(txCtx, itemID); delErr != nil {
			return fmt.Errorf("failed to delete item: %w", delErr)
		}
		return s.catalogAudit(txCtx, adminID, model.ActionDeleteItem, itemID.String(), item.Name)
	})
}

// --- Helpers ---

func (s *catalogService) catalogAudit(txCtx context.Context, adminID, action, entityID, entityName string) error {
	entry := &model.AuditLog{
		UserID:     parseOptionalUUID(adminID),
		Action:     action,
		EntityID:   entityID,
		EntityName: entityName,
	}
	if err := s.auditRepo.Log(txCtx, entry); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

func toItemResponse(item *model.Item) ItemResponse {
	return ItemResponse{
		ID:         item.ID.String(),
		Name:       item.Name,
		UnitPrice:  item.UnitPrice.StringFixed(2),
		CategoryID: item.CategoryID.String(),
		CreatedAt:  item.CreatedAt.Format(time.RFC3339),
	}
}

func toCategoryResponse(category *model.Category) CategoryResponse {
	resp := CategoryResponse{
		ID:          category.ID.String(),
		Name:        category.Name,
		Description: category.Description,
		Items:       make([]ItemResponse, 0, len(category.Items)),
		CreatedAt:   category.CreatedAt.Format(time.RFC3339),
	}
	for i := range category.Items {
		resp.Items = append(resp.Items, toItemResponse(&category.Items[i]))
	}
	return resp
}
