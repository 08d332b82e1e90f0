package service

import (
	"context"
	"testing"

	"github.com/chahe-dridi/prelevements-backend/internal/model"
	"github.com/chahe-dridi/prelevements-backend/internal/repository"
	"github.com/chahe-dridi/prelevements-backend/pkg/apperr"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type catalogFixture struct {
	db  *gorm.DB
	svc CatalogService
}

func newCatalogFixture(t *testing.T) *catalogFixture {
	t.Helper()
	db := openTestDB(t)
	categoryRepo := repository.NewCategoryRepository(db)
	itemRepo := repository.NewItemRepository(db)
	requestRepo := repository.NewRequestRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	txManager := repository.NewTransactionManager(db)
	return &catalogFixture{
		db:  db,
		svc: NewCatalogService(categoryRepo, itemRepo, requestRepo, auditRepo, txManager),
	}
}

func TestCreateAndListCategories(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()

	cat, err := f.svc.CreateCategory(ctx, "", CreateCategoryDTO{Name: "Office supplies", Description: "Pens and paper"})
	if err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}

	item, err := f.svc.CreateItem(ctx, "", CreateItemDTO{Name: "Pens", UnitPrice: "3.50", CategoryID: cat.ID})
	if err != nil {
		t.Fatalf("CreateItem: %v", err)
	}
	if item.UnitPrice != "3.50" {
		t.Fatalf("unit price = %s, want 3.50", item.UnitPrice)
	}

	categories, err := f.svc.ListCategories(ctx)
	if err != nil {
		t.Fatalf("ListCategories: %v", err)
	}
	if len(categories) != 1 || len(categories[0].Items) != 1 {
		t.Fatalf("catalog shape = %d categories / %d items", len(categories), len(categories[0].Items))
	}
}

func TestCreateItemValidation(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()

	cat, err := f.svc.CreateCategory(ctx, "", CreateCategoryDTO{Name: "Office supplies"})
	if err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}

	if _, err := f.svc.CreateItem(ctx, "", CreateItemDTO{Name: "Pens", UnitPrice: "cheap", CategoryID: cat.ID}); apperr.KindOf(err) != apperr.KindInvalidInput {
		t.Fatalf("bad price err = %v, want invalid input", err)
	}
	if _, err := f.svc.CreateItem(ctx, "", CreateItemDTO{Name: "Pens", UnitPrice: "-1.00", CategoryID: cat.ID}); apperr.KindOf(err) != apperr.KindInvalidInput {
		t.Fatalf("negative price err = %v, want invalid input", err)
	}
	if _, err := f.svc.CreateItem(ctx, "", CreateItemDTO{Name: "Pens", UnitPrice: "1.00", CategoryID: "not-a-uuid"}); apperr.KindOf(err) != apperr.KindInvalidInput {
		t.Fatalf("bad category id err = %v, want invalid input", err)
	}
}

func TestDeleteCategoryBlockedWhileInUse(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()

	cat, err := f.svc.CreateCategory(ctx, "", CreateCategoryDTO{Name: "Office supplies"})
	if err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}
	item, err := f.svc.CreateItem(ctx, "", CreateItemDTO{Name: "Pens", UnitPrice: "3.00", CategoryID: cat.ID})
	if err != nil {
		t.Fatalf("CreateItem: %v", err)
	}

	// Still holds an item
	if err := f.svc.DeleteCategory(ctx, "", cat.ID); apperr.KindOf(err) != apperr.KindInvalidState {
		t.Fatalf("delete with items err = %v, want invalid state", err)
	}

	if err := f.svc.DeleteItem(ctx, "", item.ID); err != nil {
		t.Fatalf("DeleteItem: %v", err)
	}
	if err := f.svc.DeleteCategory(ctx, "", cat.ID); err != nil {
		t.Fatalf("DeleteCategory: %v", err)
	}

	categories, err := f.svc.ListCategories(ctx)
	if err != nil {
		t.Fatalf("ListCategories: %v", err)
	}
	if len(categories) != 0 {
		t.Fatalf("categories = %d after delete, want 0", len(categories))
	}
}

func TestDeleteItemBlockedByRequestReference(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()

	cat, err := f.svc.CreateCategory(ctx, "", CreateCategoryDTO{Name: "Office supplies"})
	if err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}
	item, err := f.svc.CreateItem(ctx, "", CreateItemDTO{Name: "Pens", UnitPrice: "3.00", CategoryID: cat.ID})
	if err != nil {
		t.Fatalf("CreateItem: %v", err)
	}

	// Simulate a request line referencing the item
	user := model.User{FirstName: "Alice", LastName: "Martin", Email: "alice@example.com", Password: "x", Role: model.RoleUser}
	if err := f.db.Create(&user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	var storedCat model.Category
	if err := f.db.First(&storedCat, "name = ?", "Office supplies").Error; err != nil {
		t.Fatalf("load category: %v", err)
	}
	req := model.Request{RequesterID: user.ID, CategoryID: storedCat.ID, Status: model.StatusPending}
	if err := f.db.Create(&req).Error; err != nil {
		t.Fatalf("seed request: %v", err)
	}
	var storedItem model.Item
	if err := f.db.First(&storedItem, "name = ?", "Pens").Error; err != nil {
		t.Fatalf("load item: %v", err)
	}
	line := model.RequestItem{RequestID: req.ID, ItemID: storedItem.ID, Quantity: 1}
	if err := f.db.Create(&line).Error; err != nil {
		t.Fatalf("seed line: %v", err)
	}

	if err := f.svc.DeleteItem(ctx, "", item.ID); apperr.KindOf(err) != apperr.KindInvalidState {
		t.Fatalf("referenced item delete err = %v, want invalid state", err)
	}

	// The category is equally protected while a request references it
	if err := f.svc.DeleteCategory(ctx, "", cat.ID); apperr.KindOf(err) != apperr.KindInvalidState {
		t.Fatalf("referenced category delete err = %v, want invalid state", err)
	}
}

func TestUpdateItemKeepsRequestedLinePricing(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()

	cat, err := f.svc.CreateCategory(ctx, "", CreateCategoryDTO{Name: "Office supplies"})
	if err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}
	item, err := f.svc.CreateItem(ctx, "", CreateItemDTO{Name: "Pens", UnitPrice: "3.00", CategoryID: cat.ID})
	if err != nil {
		t.Fatalf("CreateItem: %v", err)
	}

	// A priced line referencing the item
	user := model.User{FirstName: "Alice", LastName: "Martin", Email: "alice@example.com", Password: "x", Role: model.RoleUser}
	if err := f.db.Create(&user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	var storedItem model.Item
	if err := f.db.First(&storedItem, "name = ?", "Pens").Error; err != nil {
		t.Fatalf("load item: %v", err)
	}
	req := model.Request{RequesterID: user.ID, CategoryID: storedItem.CategoryID, Status: model.StatusApproved}
	if err := f.db.Create(&req).Error; err != nil {
		t.Fatalf("seed request: %v", err)
	}
	linePrice := decimal.RequireFromString("5.00")
	line := model.RequestItem{RequestID: req.ID, ItemID: storedItem.ID, Quantity: 1, UnitPrice: &linePrice}
	if err := f.db.Create(&line).Error; err != nil {
		t.Fatalf("seed line: %v", err)
	}

	updated, err := f.svc.UpdateItem(ctx, "", item.ID, UpdateItemDTO{UnitPrice: "9.99"})
	if err != nil {
		t.Fatalf("UpdateItem: %v", err)
	}
	if updated.UnitPrice != "9.99" {
		t.Fatalf("catalog price = %s, want 9.99", updated.UnitPrice)
	}

	var reloaded model.RequestItem
	if err := f.db.First(&reloaded, "id = ?", line.ID).Error; err != nil {
		t.Fatalf("reload line: %v", err)
	}
	if reloaded.UnitPrice == nil || !reloaded.UnitPrice.Equal(linePrice) {
		t.Fatalf("line price changed with the catalog: %v", reloaded.UnitPrice)
	}
}
