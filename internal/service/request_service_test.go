package service

import (
	"context"
	"testing"

	"github.com/chahe-dridi/prelevements-backend/internal/model"
	"github.com/chahe-dridi/prelevements-backend/internal/repository"
	"github.com/chahe-dridi/prelevements-backend/pkg/apperr"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// openTestDB creates an in-memory sqlite DB with the full schema migrated.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	err = db.AutoMigrate(
		&model.User{},
		&model.RefreshToken{},
		&model.Category{},
		&model.Item{},
		&model.Request{},
		&model.RequestItem{},
		&model.Payment{},
		&model.AuditLog{},
	)
	if err != nil {
		t.Fatalf("auto-migrate: %v", err)
	}
	return db
}

// recordingSink collects published events for assertions
type recordingSink struct {
	events []string
}

func (r *recordingSink) Publish(event string, payload interface{}) {
	r.events = append(r.events, event)
}

type requestFixture struct {
	db        *gorm.DB
	svc       RequestService
	sink      *recordingSink
	user      model.User
	admin     model.User
	cat       model.Category
	pens      model.Item
	paper     model.Item
	otherCat  model.Category
	otherItem model.Item
}

func newRequestFixture(t *testing.T) *requestFixture {
	t.Helper()
	db := openTestDB(t)

	f := &requestFixture{db: db, sink: &recordingSink{}}

	requestRepo := repository.NewRequestRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	txManager := repository.NewTransactionManager(db)
	f.svc = NewRequestService(requestRepo, categoryRepo, auditRepo, txManager, f.sink)

	f.user = model.User{FirstName: "Alice", LastName: "Martin", Email: "alice@example.com", Password: "x", Role: model.RoleUser}
	f.admin = model.User{FirstName: "Bob", LastName: "Durand", Email: "bob@example.com", Password: "x", Role: model.RoleAdmin}
	if err := db.Create(&f.user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	if err := db.Create(&f.admin).Error; err != nil {
		t.Fatalf("seed admin: %v", err)
	}

	f.cat = model.Category{Name: "Office supplies"}
	if err := db.Create(&f.cat).Error; err != nil {
		t.Fatalf("seed category: %v", err)
	}
	f.pens = model.Item{Name: "Pens", UnitPrice: decimal.NewFromInt(3), CategoryID: f.cat.ID}
	f.paper = model.Item{Name: "Paper", UnitPrice: decimal.NewFromInt(7), CategoryID: f.cat.ID}
	if err := db.Create(&f.pens).Error; err != nil {
		t.Fatalf("seed item: %v", err)
	}
	if err := db.Create(&f.paper).Error; err != nil {
		t.Fatalf("seed item: %v", err)
	}

	f.otherCat = model.Category{Name: "Cleaning"}
	if err := db.Create(&f.otherCat).Error; err != nil {
		t.Fatalf("seed category: %v", err)
	}
	f.otherItem = model.Item{Name: "Soap", UnitPrice: decimal.NewFromInt(2), CategoryID: f.otherCat.ID}
	if err := db.Create(&f.otherItem).Error; err != nil {
		t.Fatalf("seed item: %v", err)
	}

	return f
}

func (f *requestFixture) createRequest(t *testing.T, items []CreateRequestItemDTO) RequestResponse {
	t.Helper()
	res, err := f.svc.Create(context.Background(), f.user.ID.String(), CreateRequestDTO{
		CategoryID: f.cat.ID.String(),
		Items:      items,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return res
}

func (f *requestFixture) paymentCount(t *testing.T, requestID string) int64 {
	t.Helper()
	var count int64
	if err := f.db.Model(&model.Payment{}).Where("request_id = ?", requestID).Count(&count).Error; err != nil {
		t.Fatalf("count payments: %v", err)
	}
	return count
}

func strPtr(s string) *string { return &s }

func TestCreateRequestStartsPendingAndUnpriced(t *testing.T) {
	f := newRequestFixture(t)

	res := f.createRequest(t, []CreateRequestItemDTO{
		{ItemID: f.pens.ID.String(), Quantity: 2},
		{ItemID: f.paper.ID.String(), Quantity: 1},
	})

	if res.Status != model.StatusPending {
		t.Fatalf("status = %s, want %s", res.Status, model.StatusPending)
	}
	if len(res.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(res.Items))
	}
	for _, line := range res.Items {
		if line.UnitPrice != nil {
			t.Fatalf("line %s has price %s before approval", line.ID, *line.UnitPrice)
		}
	}
	if res.Payment != nil {
		t.Fatalf("new request has a payment")
	}
	if len(f.sink.events) != 1 || f.sink.events[0] != EventRequestCreated {
		t.Fatalf("events = %v, want [%s]", f.sink.events, EventRequestCreated)
	}
}

func TestCreateRequestRejectsForeignItem(t *testing.T) {
	f := newRequestFixture(t)

	_, err := f.svc.Create(context.Background(), f.user.ID.String(), CreateRequestDTO{
		CategoryID: f.cat.ID.String(),
		Items:      []CreateRequestItemDTO{{ItemID: f.otherItem.ID.String(), Quantity: 1}},
	})
	if apperr.KindOf(err) != apperr.KindInvalidInput {
		t.Fatalf("err = %v, want invalid input", err)
	}

	var count int64
	f.db.Model(&model.Request{}).Count(&count)
	if count != 0 {
		t.Fatalf("request rows = %d after failed create", count)
	}
}

func TestCreateRequestRejectsNonPositiveQuantity(t *testing.T) {
	f := newRequestFixture(t)

	for _, qty := range []int{0, -3} {
		_, err := f.svc.Create(context.Background(), f.user.ID.String(), CreateRequestDTO{
			CategoryID: f.cat.ID.String(),
			Items:      []CreateRequestItemDTO{{ItemID: f.pens.ID.String(), Quantity: qty}},
		})
		if apperr.KindOf(err) != apperr.KindInvalidInput {
			t.Fatalf("quantity %d: err = %v, want invalid input", qty, err)
		}
	}

	var count int64
	f.db.Model(&model.RequestItem{}).Count(&count)
	if count != 0 {
		t.Fatalf("line item rows = %d after failed creates", count)
	}
}

func TestApproveComputesTotalFromLinePrices(t *testing.T) {
	f := newRequestFixture(t)
	req := f.createRequest(t, []CreateRequestItemDTO{
		{ItemID: f.pens.ID.String(), Quantity: 2},
		{ItemID: f.paper.ID.String(), Quantity: 1},
	})

	// Price only the first line: total = 2 x 10.00, the unpriced line counts 0.
	// The catalog prices (3 and 7) must play no part.
	res, err := f.svc.Approve(context.Background(), req.ID, f.admin.ID.String(), ApproveRequestDTO{
		PaymentAccount: "CASH-01",
		AmountInWords:  "twenty",
		PerformedBy:    "Bob Durand",
		Items: []LineOverrideDTO{
			{LineItemID: req.Items[0].ID, UnitPrice: strPtr("10.00")},
		},
	})
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}

	if res.Status != model.StatusApproved {
		t.Fatalf("status = %s, want %s", res.Status, model.StatusApproved)
	}
	if res.Payment == nil {
		t.Fatalf("approved request has no payment")
	}
	if res.Payment.TotalAmount != "20.00" {
		t.Fatalf("total = %s, want 20.00", res.Payment.TotalAmount)
	}
	if res.Payment.PaymentAccount != "CASH-01" || res.Payment.PerformedBy != "Bob Durand" {
		t.Fatalf("payment fields not recorded: %+v", res.Payment)
	}
}

func TestApproveZeroItemRequest(t *testing.T) {
	f := newRequestFixture(t)
	req := f.createRequest(t, nil)

	res, err := f.svc.Approve(context.Background(), req.ID, f.admin.ID.String(), ApproveRequestDTO{
		PaymentAccount: "CASH-01",
		AmountInWords:  "zero",
		PerformedBy:    "Bob Durand",
	})
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if res.Payment == nil || res.Payment.TotalAmount != "0.00" {
		t.Fatalf("payment = %+v, want total 0.00", res.Payment)
	}
}

func TestReApproveOverwritesSinglePayment(t *testing.T) {
	f := newRequestFixture(t)
	req := f.createRequest(t, []CreateRequestItemDTO{{ItemID: f.pens.ID.String(), Quantity: 3}})

	first := ApproveRequestDTO{
		PaymentAccount: "CASH-01",
		AmountInWords:  "fifteen",
		PerformedBy:    "Bob Durand",
		Items:          []LineOverrideDTO{{LineItemID: req.Items[0].ID, UnitPrice: strPtr("5.00")}},
	}
	if _, err := f.svc.Approve(context.Background(), req.ID, f.admin.ID.String(), first); err != nil {
		t.Fatalf("first Approve: %v", err)
	}

	second := ApproveRequestDTO{
		PaymentAccount: "BANK-99",
		AmountInWords:  "six",
		PerformedBy:    "Carol",
		Items:          []LineOverrideDTO{{LineItemID: req.Items[0].ID, UnitPrice: strPtr("2.00")}},
	}
	res, err := f.svc.Approve(context.Background(), req.ID, f.admin.ID.String(), second)
	if err != nil {
		t.Fatalf("second Approve: %v", err)
	}

	if got := f.paymentCount(t, req.ID); got != 1 {
		t.Fatalf("payment rows = %d, want 1", got)
	}
	if res.Payment.TotalAmount != "6.00" {
		t.Fatalf("total = %s, want 6.00", res.Payment.TotalAmount)
	}
	if res.Payment.PaymentAccount != "BANK-99" || res.Payment.AmountInWords != "six" || res.Payment.PerformedBy != "Carol" {
		t.Fatalf("payment not overwritten by second approval: %+v", res.Payment)
	}
}

func TestApproveSkipsUnmatchedOverrides(t *testing.T) {
	f := newRequestFixture(t)
	req := f.createRequest(t, []CreateRequestItemDTO{{ItemID: f.pens.ID.String(), Quantity: 1}})

	res, err := f.svc.Approve(context.Background(), req.ID, f.admin.ID.String(), ApproveRequestDTO{
		PaymentAccount: "CASH-01",
		AmountInWords:  "four",
		PerformedBy:    "Bob Durand",
		Items: []LineOverrideDTO{
			{LineItemID: uuid.NewString(), UnitPrice: strPtr("99.00")},
			{LineItemID: req.Items[0].ID, UnitPrice: strPtr("4.00")},
		},
	})
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if res.Payment.TotalAmount != "4.00" {
		t.Fatalf("total = %s, want 4.00 with the stray override ignored", res.Payment.TotalAmount)
	}
}

func TestApproveRejectsMalformedOverrides(t *testing.T) {
	f := newRequestFixture(t)
	req := f.createRequest(t, []CreateRequestItemDTO{{ItemID: f.pens.ID.String(), Quantity: 1}})

	cases := []LineOverrideDTO{
		{LineItemID: "not-a-uuid", UnitPrice: strPtr("4.00")},
		{LineItemID: req.Items[0].ID, UnitPrice: strPtr("four euros")},
	}
	for _, override := range cases {
		_, err := f.svc.Approve(context.Background(), req.ID, f.admin.ID.String(), ApproveRequestDTO{
			PaymentAccount: "CASH-01",
			AmountInWords:  "four",
			PerformedBy:    "Bob Durand",
			Items:          []LineOverrideDTO{override},
		})
		if apperr.KindOf(err) != apperr.KindInvalidInput {
			t.Fatalf("override %+v: err = %v, want invalid input", override, err)
		}
	}

	// Validation failed before any mutation
	got, gerr := f.svc.Get(context.Background(), req.ID)
	if gerr != nil {
		t.Fatalf("Get: %v", gerr)
	}
	if got.Status != model.StatusPending || got.Payment != nil {
		t.Fatalf("request mutated by rejected overrides: status=%s payment=%+v", got.Status, got.Payment)
	}
}

func TestRejectLeavesPaymentUntouched(t *testing.T) {
	f := newRequestFixture(t)
	req := f.createRequest(t, []CreateRequestItemDTO{{ItemID: f.pens.ID.String(), Quantity: 1}})

	approved, err := f.svc.Approve(context.Background(), req.ID, f.admin.ID.String(), ApproveRequestDTO{
		PaymentAccount: "CASH-01",
		AmountInWords:  "five",
		PerformedBy:    "Bob Durand",
		Items:          []LineOverrideDTO{{LineItemID: req.Items[0].ID, UnitPrice: strPtr("5.00")}},
	})
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}

	res, err := f.svc.Reject(context.Background(), req.ID, f.admin.ID.String())
	if err != nil {
		t.Fatalf("Reject: %v", err)
	}
	if res.Status != model.StatusRejected {
		t.Fatalf("status = %s, want %s", res.Status, model.StatusRejected)
	}
	if res.Payment == nil || res.Payment.TotalAmount != approved.Payment.TotalAmount {
		t.Fatalf("rejection altered the payment: %+v", res.Payment)
	}
}

func TestUpdateRejectsBogusStatusWithoutMutation(t *testing.T) {
	f := newRequestFixture(t)
	req := f.createRequest(t, []CreateRequestItemDTO{{ItemID: f.pens.ID.String(), Quantity: 1}})

	_, err := f.svc.Update(context.Background(), req.ID, f.admin.ID.String(), UpdateRequestDTO{Status: "Bogus"})
	if apperr.KindOf(err) != apperr.KindInvalidInput {
		t.Fatalf("err = %v, want invalid input", err)
	}

	got, gerr := f.svc.Get(context.Background(), req.ID)
	if gerr != nil {
		t.Fatalf("Get: %v", gerr)
	}
	if got.Status != model.StatusPending {
		t.Fatalf("status = %s after rejected update, want %s", got.Status, model.StatusPending)
	}
	if got.Payment != nil {
		t.Fatalf("payment created by rejected update")
	}
}

func TestUpdateAcceptsCaseInsensitiveStatusAndUpsertsPayment(t *testing.T) {
	f := newRequestFixture(t)
	req := f.createRequest(t, []CreateRequestItemDTO{{ItemID: f.pens.ID.String(), Quantity: 2}})

	// Moving to rejected still re-derives the payment record
	status, err := f.svc.Update(context.Background(), req.ID, f.admin.ID.String(), UpdateRequestDTO{
		Status:         "rejected",
		PaymentAccount: "CASH-01",
		AmountInWords:  "six",
		PerformedBy:    "Bob Durand",
		Items:          []LineOverrideDTO{{LineItemID: req.Items[0].ID, UnitPrice: strPtr("3.00")}},
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if status != model.StatusRejected {
		t.Fatalf("status = %s, want %s", status, model.StatusRejected)
	}

	got, gerr := f.svc.Get(context.Background(), req.ID)
	if gerr != nil {
		t.Fatalf("Get: %v", gerr)
	}
	if got.Payment == nil || got.Payment.TotalAmount != "6.00" {
		t.Fatalf("payment = %+v, want total 6.00", got.Payment)
	}
}

func TestCancelOnlyByOwnerWhilePending(t *testing.T) {
	f := newRequestFixture(t)
	req := f.createRequest(t, []CreateRequestItemDTO{{ItemID: f.pens.ID.String(), Quantity: 1}})

	// Someone else cannot cancel, even an admin
	err := f.svc.Cancel(context.Background(), req.ID, f.admin.ID.String())
	if apperr.KindOf(err) != apperr.KindForbidden {
		t.Fatalf("foreign cancel err = %v, want forbidden", err)
	}

	// Once approved the owner cannot cancel either
	if _, err := f.svc.Approve(context.Background(), req.ID, f.admin.ID.String(), ApproveRequestDTO{
		PaymentAccount: "CASH-01",
		AmountInWords:  "zero",
		PerformedBy:    "Bob Durand",
	}); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	err = f.svc.Cancel(context.Background(), req.ID, f.user.ID.String())
	if apperr.KindOf(err) != apperr.KindInvalidState {
		t.Fatalf("approved cancel err = %v, want invalid state", err)
	}

	// A fresh pending request cancels cleanly, removing its rows
	pending := f.createRequest(t, []CreateRequestItemDTO{{ItemID: f.paper.ID.String(), Quantity: 2}})
	if err := f.svc.Cancel(context.Background(), pending.ID, f.user.ID.String()); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if _, err := f.svc.Get(context.Background(), pending.ID); apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("cancelled request still readable: %v", err)
	}
	var lineCount int64
	f.db.Model(&model.RequestItem{}).Where("request_id = ?", pending.ID).Count(&lineCount)
	if lineCount != 0 {
		t.Fatalf("line items survived cancellation: %d", lineCount)
	}
}

func TestDeleteRemovesOwnedRows(t *testing.T) {
	f := newRequestFixture(t)
	req := f.createRequest(t, []CreateRequestItemDTO{{ItemID: f.pens.ID.String(), Quantity: 1}})
	if _, err := f.svc.Approve(context.Background(), req.ID, f.admin.ID.String(), ApproveRequestDTO{
		PaymentAccount: "CASH-01",
		AmountInWords:  "zero",
		PerformedBy:    "Bob Durand",
	}); err != nil {
		t.Fatalf("Approve: %v", err)
	}

	deleted, err := f.svc.Delete(context.Background(), req.ID, f.admin.ID.String())
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("deleted = %d, want 1", deleted)
	}
	if got := f.paymentCount(t, req.ID); got != 0 {
		t.Fatalf("payment survived deletion")
	}

	// Catalog rows are untouched
	var itemCount int64
	f.db.Model(&model.Item{}).Count(&itemCount)
	if itemCount != 3 {
		t.Fatalf("catalog items = %d, want 3", itemCount)
	}
}

func TestBulkDeleteCountsOnlyExisting(t *testing.T) {
	f := newRequestFixture(t)
	first := f.createRequest(t, []CreateRequestItemDTO{{ItemID: f.pens.ID.String(), Quantity: 1}})
	second := f.createRequest(t, []CreateRequestItemDTO{{ItemID: f.paper.ID.String(), Quantity: 1}})

	deleted, err := f.svc.BulkDelete(context.Background(), []string{
		first.ID,
		uuid.NewString(), // missing
		"not-a-uuid",     // unparseable, treated the same
		second.ID,
	}, f.admin.ID.String())
	if err != nil {
		t.Fatalf("BulkDelete: %v", err)
	}
	if deleted != 2 {
		t.Fatalf("deleted = %d, want 2", deleted)
	}

	var count int64
	f.db.Model(&model.Request{}).Count(&count)
	if count != 0 {
		t.Fatalf("request rows = %d, want 0", count)
	}
}

func TestBulkDeleteAllMissingIsNotFound(t *testing.T) {
	f := newRequestFixture(t)

	_, err := f.svc.BulkDelete(context.Background(), []string{uuid.NewString(), uuid.NewString()}, f.admin.ID.String())
	if apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("err = %v, want not found", err)
	}
}

func TestListAllFiltersByStatus(t *testing.T) {
	f := newRequestFixture(t)
	first := f.createRequest(t, []CreateRequestItemDTO{{ItemID: f.pens.ID.String(), Quantity: 1}})
	f.createRequest(t, []CreateRequestItemDTO{{ItemID: f.paper.ID.String(), Quantity: 1}})

	if _, err := f.svc.Approve(context.Background(), first.ID, f.admin.ID.String(), ApproveRequestDTO{
		PaymentAccount: "CASH-01",
		AmountInWords:  "zero",
		PerformedBy:    "Bob Durand",
	}); err != nil {
		t.Fatalf("Approve: %v", err)
	}

	approved, total, err := f.svc.ListAll(context.Background(), RequestFilter{Status: "approved"})
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if total != 1 || len(approved) != 1 || approved[0].ID != first.ID {
		t.Fatalf("approved list = %d/%d", len(approved), total)
	}

	if _, _, err := f.svc.ListAll(context.Background(), RequestFilter{Status: "nonsense"}); apperr.KindOf(err) != apperr.KindInvalidInput {
		t.Fatalf("bad filter err = %v, want invalid input", err)
	}
}

func TestAuditTrailWrittenForLifecycle(t *testing.T) {
	f := newRequestFixture(t)
	req := f.createRequest(t, []CreateRequestItemDTO{{ItemID: f.pens.ID.String(), Quantity: 1}})

	if _, err := f.svc.Approve(context.Background(), req.ID, f.admin.ID.String(), ApproveRequestDTO{
		PaymentAccount: "CASH-01",
		AmountInWords:  "zero",
		PerformedBy:    "Bob Durand",
	}); err != nil {
		t.Fatalf("Approve: %v", err)
	}

	var actions []string
	if err := f.db.Model(&model.AuditLog{}).Order("created_at").Pluck("action", &actions).Error; err != nil {
		t.Fatalf("load audit: %v", err)
	}
	want := map[string]bool{model.ActionCreateRequest: false, model.ActionApproveRequest: false}
	for _, action := range actions {
		if _, ok := want[action]; ok {
			want[action] = true
		}
	}
	for action, seen := range want {
		if !seen {
			t.Fatalf("audit action %s missing, got %v", action, actions)
		}
	}
}
