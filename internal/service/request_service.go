package service

import (
	"context"
	"encoding/json"
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

type CreateRequestItemDTO struct {
	ItemID   string `json:"item_id" binding:"required"`
	Quantity int    `json:"quantity"`
}

type CreateRequestDTO struct {
	CategoryID string                 `json:"category_id" binding:"required"`
	Items      []CreateRequestItemDTO `json:"items" binding:"required,dive"`
}

// LineOverrideDTO carries admin pricing for one line item. Entries whose
// line_item_id matches nothing are silently skipped so partial payloads
// never fail the whole operation.
type LineOverrideDTO struct {
	LineItemID  string  `json:"line_item_id" binding:"required"`
	UnitPrice   *string `json:"unit_price"` // decimal string, e.g. "12.50"
	Description string  `json:"description"`
}

type ApproveRequestDTO struct {
	PaymentAccount string            `json:"payment_account" binding:"required"`
	AmountInWords  string            `json:"amount_in_words" binding:"required"`
	PerformedBy    string            `json:"performed_by" binding:"required"`
	Items          []LineOverrideDTO `json:"items"`
}

type UpdateRequestDTO struct {
	Status         string            `json:"status"`
	PaymentAccount string            `json:"payment_account"`
	AmountInWords  string            `json:"amount_in_words"`
	PerformedBy    string            `json:"performed_by"`
	Items          []LineOverrideDTO `json:"items"`
}

type RequestFilter struct {
	Status string // PENDING, APPROVED, REJECTED or empty for all
	Page   int
	Limit  int
}

type RequestItemResponse struct {
	ID           string  `json:"id"`
	ItemID       string  `json:"item_id"`
	ItemName     string  `json:"item_name"`
	CatalogPrice string  `json:"catalog_price"` // display fallback, never used in totals
	Quantity     int     `json:"quantity"`
	UnitPrice    *string `json:"unit_price"`
	Description  *string `json:"description"`
}

type PaymentResponse struct {
	ID             string `json:"id"`
	TotalAmount    string `json:"total_amount"`
	AmountInWords  string `json:"amount_in_words"`
	PaymentAccount string `json:"payment_account"`
	PerformedBy    string `json:"performed_by"`
	PaidAt         string `json:"paid_at"`
}

type RequestResponse struct {
	ID            string                `json:"id"`
	RequesterID   string                `json:"requester_id"`
	RequesterName string                `json:"requester_name,omitempty"`
	CategoryID    string                `json:"category_id"`
	CategoryName  string                `json:"category_name,omitempty"`
	Status        string                `json:"status"`
	Items         []RequestItemResponse `json:"items"`
	Payment       *PaymentResponse      `json:"payment,omitempty"`
	CreatedAt     string                `json:"created_at"`
}

// EventSink receives lifecycle events for realtime fan-out to admin
// dashboards. A nil sink disables publishing.
type EventSink interface {
	Publish(event string, payload interface{})
}

// Lifecycle event names pushed through the websocket hub
const (
	EventRequestCreated  = "request.created"
	EventRequestApproved = "request.approved"
	EventRequestRejected = "request.rejected"
	EventRequestUpdated  = "request.updated"
)

// --- Interface ---

// RequestService owns the request state machine (PENDING -> APPROVED |
// REJECTED) and keeps the payment record consistent with line-item pricing.
type RequestService interface {
	Create(ctx context.Context, requesterID string, req CreateRequestDTO) (RequestResponse, error)
	Get(ctx context.Context, id string) (RequestResponse, error)
	ListAll(ctx context.Context, filter RequestFilter) ([]RequestResponse, int64, error)
	ListByRequester(ctx context.Context, requesterID string) ([]RequestResponse, error)
	Approve(ctx context.Context, id string, adminID string, req ApproveRequestDTO) (RequestResponse, error)
	Reject(ctx context.Context, id string, adminID string) (RequestResponse, error)
	Update(ctx context.Context, id string, adminID string, req UpdateRequestDTO) (string, error)
	Cancel(ctx context.Context, id string, requesterID string) error
	Delete(ctx context.Context, id string, adminID string) (int64, error)
	BulkDelete(ctx context.Context, ids []string, adminID string) (int64, error)
}

type requestService struct {
	requestRepo  repository.RequestRepository
	categoryRepo repository.CategoryRepository
	auditRepo    repository.AuditRepository
	txManager    repository.TransactionManager
	events       EventSink
	now          func() time.Time
}

func NewRequestService(
	requestRepo repository.RequestRepository,
	categoryRepo repository.CategoryRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	events EventSink,
) RequestService {
	return &requestService{
		requestRepo:  requestRepo,
		categoryRepo: categoryRepo,
		auditRepo:    auditRepo,
		txManager:    txManager,
		events:       events,
		now:          time.Now,
	}
}

// --- Implementation ---

func (s *requestService) Create(ctx context.Context, requesterID string, req CreateRequestDTO) (RequestResponse, error) {
	requester, err := uuid.Parse(requesterID)
	if err != nil {
		return RequestResponse{}, apperr.InvalidInput("invalid requester id")
	}

	categoryID, err := uuid.Parse(req.CategoryID)
	if err != nil {
		return RequestResponse{}, apperr.InvalidInput("invalid category id")
	}

	category, err := s.categoryRepo.FindByIDWithItems(ctx, categoryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return RequestResponse{}, apperr.NotFound("category not found")
		}
		return RequestResponse{}, fmt.Errorf("failed to load category: %w", err)
	}

	catalogIDs := make(map[uuid.UUID]bool, len(category.Items))
	for _, item := range category.Items {
		catalogIDs[item.ID] = true
	}

	// Validate every selection before writing anything
	type selection struct {
		itemID   uuid.UUID
		quantity int
	}
	selections := make([]selection, 0, len(req.Items))
	for _, itemReq := range req.Items {
		itemID, parseErr := uuid.Parse(itemReq.ItemID)
		if parseErr != nil {
			return RequestResponse{}, apperr.InvalidInput("invalid item id: %s", itemReq.ItemID)
		}
		if !catalogIDs[itemID] {
			return RequestResponse{}, apperr.InvalidInput("item %s does not belong to this category", itemReq.ItemID)
		}
		if itemReq.Quantity <= 0 {
			return RequestResponse{}, apperr.InvalidInput("quantity must be a positive integer")
		}
		selections = append(selections, selection{itemID: itemID, quantity: itemReq.Quantity})
	}

	request := model.Request{
		RequesterID: requester,
		CategoryID:  categoryID,
		Status:      model.StatusPending,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if createErr := s.requestRepo.Create(txCtx, &request); createErr != nil {
			return fmt.Errorf("failed to create request: %w", createErr)
		}

		// Line items start unpriced. Admin pricing happens at approval.
		for _, sel := range selections {
			item := model.RequestItem{
				RequestID: request.ID,
				ItemID:    sel.itemID,
				Quantity:  sel.quantity,
			}
			if createErr := s.requestRepo.CreateItem(txCtx, &item); createErr != nil {
				return fmt.Errorf("failed to create line item: %w", createErr)
			}
		}

		return s.audit(txCtx, &requester, model.ActionCreateRequest, request.ID.String(), category.Name, map[string]interface{}{
			"category_id": categoryID.String(),
			"item_count":  len(selections),
		})
	})
	if err != nil {
		return RequestResponse{}, err
	}

	loaded, err := s.requestRepo.FindWithDetails(ctx, request.ID)
	if err != nil {
		return RequestResponse{}, fmt.Errorf("failed to reload request: %w", err)
	}

	resp := toRequestResponse(loaded)
	s.publish(EventRequestCreated, resp)
	return resp, nil
}

func (s *requestService) Get(ctx context.Context, id string) (RequestResponse, error) {
	requestID, err := uuid.Parse(id)
	if err != nil {
		return RequestResponse{}, apperr.InvalidInput("invalid request id")
	}

	request, err := s.requestRepo.FindWithDetails(ctx, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return RequestResponse{}, apperr.NotFound("request not found")
		}
		return RequestResponse{}, fmt.Errorf("failed to load request: %w", err)
	}

	return toRequestResponse(request), nil
}

func (s *requestService) ListAll(ctx context.Context, filter RequestFilter) ([]RequestResponse, int64, error) {
	status := ""
	if filter.Status != "" {
		parsed, ok := model.ParseStatus(filter.Status)
		if !ok {
			return nil, 0, apperr.InvalidInput("invalid status filter: %s", filter.Status)
		}
		status = parsed
	}

	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}

	requests, total, err := s.requestRepo.List(ctx, status, filter.Page, filter.Limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch requests: %w", err)
	}

	result := make([]RequestResponse, 0, len(requests))
	for i := range requests {
		result = append(result, toRequestResponse(&requests[i]))
	}
	return result, total, nil
}

func (s *requestService) ListByRequester(ctx context.Context, requesterID string) ([]RequestResponse, error) {
	requester, err := uuid.Parse(requesterID)
	if err != nil {
		return nil, apperr.InvalidInput("invalid requester id")
	}

	requests, err := s.requestRepo.ListByRequester(ctx, requester)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch requests: %w", err)
	}

	result := make([]RequestResponse, 0, len(requests))
	for i := range requests {
		result = append(result, toRequestResponse(&requests[i]))
	}
	return result, nil
}

// lineOverride is a parsed LineOverrideDTO, validated before any mutation
type lineOverride struct {
	lineItemID  uuid.UUID
	unitPrice   *decimal.Decimal
	description string
}

func parseOverrides(items []LineOverrideDTO) ([]lineOverride, error) {
	overrides := make([]lineOverride, 0, len(items))
	for _, dto := range items {
		lineID, err := uuid.Parse(dto.LineItemID)
		if err != nil {
			return nil, apperr.InvalidInput("invalid line_item_id: %s", dto.LineItemID)
		}
		override := lineOverride{lineItemID: lineID, description: dto.Description}
		if dto.UnitPrice != nil {
			price, parseErr := decimal.NewFromString(*dto.UnitPrice)
			if parseErr != nil {
				return nil, apperr.InvalidInput("invalid unit_price: %s", *dto.UnitPrice)
			}
			override.unitPrice = &price
		}
		overrides = append(overrides, override)
	}
	return overrides, nil
}

// applyOverrides mutates matching line items in place and persists them.
// Overrides referencing unknown line ids are skipped, not rejected.
func (s *requestService) applyOverrides(txCtx context.Context, request *model.Request, overrides []lineOverride) error {
	byID := make(map[uuid.UUID]*model.RequestItem, len(request.Items))
	for i := range request.Items {
		byID[request.Items[i].ID] = &request.Items[i]
	}

	for _, override := range overrides {
		line, ok := byID[override.lineItemID]
		if !ok {
			continue
		}
		changed := false
		if override.unitPrice != nil {
			price := *override.unitPrice
			line.UnitPrice = &price
			changed = true
		}
		if override.description != "" {
			desc := override.description
			line.Description = &desc
			changed = true
		}
		if changed {
			if err := s.requestRepo.SaveItem(txCtx, line); err != nil {
				return fmt.Errorf("failed to save line item: %w", err)
			}
		}
	}
	return nil
}

// computeTotal implements the pricing rule: total = sum of quantity times the
// line's own price, with unpriced lines counting as zero. The catalog price
// is never consulted here.
func computeTotal(items []model.RequestItem) decimal.Decimal {
	total := decimal.Zero
	for _, line := range items {
		price := decimal.Zero
		if line.UnitPrice != nil {
			price = *line.UnitPrice
		}
		total = total.Add(price.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	return total
}

// upsertPayment creates the payment on first approval and overwrites all
// mutable fields on every subsequent one, keeping at most one row per request.
func (s *requestService) upsertPayment(txCtx context.Context, requestID uuid.UUID, total decimal.Decimal, account, inWords, performedBy string) (*model.Payment, error) {
	payment, err := s.requestRepo.FindPayment(txCtx, requestID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to load payment: %w", err)
		}
		payment = &model.Payment{RequestID: requestID}
	}

	payment.TotalAmount = total
	payment.AmountInWords = inWords
	payment.PaymentAccount = account
	payment.PerformedBy = performedBy
	payment.PaidAt = s.now()

	if err := s.requestRepo.SavePayment(txCtx, payment); err != nil {
		return nil, fmt.Errorf("failed to save payment: %w", err)
	}
	return payment, nil
}

func (s *requestService) Approve(ctx context.Context, id string, adminID string, req ApproveRequestDTO) (RequestResponse, error) {
	requestID, err := uuid.Parse(id)
	if err != nil {
		return RequestResponse{}, apperr.InvalidInput("invalid request id")
	}

	overrides, err := parseOverrides(req.Items)
	if err != nil {
		return RequestResponse{}, err
	}

	adminUUID := parseOptionalUUID(adminID)

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		request, findErr := s.requestRepo.FindWithDetails(txCtx, requestID)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return apperr.NotFound("request not found")
			}
			return fmt.Errorf("failed to load request: %w", findErr)
		}

		if applyErr := s.applyOverrides(txCtx, request, overrides); applyErr != nil {
			return applyErr
		}

		// Re-approval is allowed and simply recomputes the payment
		request.Status = model.StatusApproved
		if saveErr := s.requestRepo.Save(txCtx, request); saveErr != nil {
			return fmt.Errorf("failed to save request: %w", saveErr)
		}

		total := computeTotal(request.Items)
		payment, payErr := s.upsertPayment(txCtx, request.ID, total, req.PaymentAccount, req.AmountInWords, req.PerformedBy)
		if payErr != nil {
			return payErr
		}

		return s.audit(txCtx, adminUUID, model.ActionApproveRequest, request.ID.String(), req.PerformedBy, map[string]interface{}{
			"total_amount":    payment.TotalAmount.StringFixed(2),
			"payment_account": req.PaymentAccount,
		})
	})
	if err != nil {
		return RequestResponse{}, err
	}

	loaded, err := s.requestRepo.FindWithDetails(ctx, requestID)
	if err != nil {
		return RequestResponse{}, fmt.Errorf("failed to reload request: %w", err)
	}

	resp := toRequestResponse(loaded)
	s.publish(EventRequestApproved, resp)
	return resp, nil
}

func (s *requestService) Reject(ctx context.Context, id string, adminID string) (RequestResponse, error) {
	requestID, err := uuid.Parse(id)
	if err != nil {
		return RequestResponse{}, apperr.InvalidInput("invalid request id")
	}

	adminUUID := parseOptionalUUID(adminID)

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		request, findErr := s.requestRepo.FindByID(txCtx, requestID)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return apperr.NotFound("request not found")
			}
			return fmt.Errorf("failed to load request: %w", findErr)
		}

		// An existing payment is deliberately left untouched: rejection
		// after a prior approval keeps the payment history.
		request.Status = model.StatusRejected
		if saveErr := s.requestRepo.Save(txCtx, request); saveErr != nil {
			return fmt.Errorf("failed to save request: %w", saveErr)
		}

		return s.audit(txCtx, adminUUID, model.ActionRejectRequest, request.ID.String(), "", nil)
	})
	if err != nil {
		return RequestResponse{}, err
	}

	loaded, err := s.requestRepo.FindWithDetails(ctx, requestID)
	if err != nil {
		return RequestResponse{}, fmt.Errorf("failed to reload request: %w", err)
	}

	resp := toRequestResponse(loaded)
	s.publish(EventRequestRejected, resp)
	return resp, nil
}

func (s *requestService) Update(ctx context.Context, id string, adminID string, req UpdateRequestDTO) (string, error) {
	requestID, err := uuid.Parse(id)
	if err != nil {
		return "", apperr.InvalidInput("invalid request id")
	}

	// Status validation happens before any mutation
	newStatus := ""
	if req.Status != "" {
		parsed, ok := model.ParseStatus(req.Status)
		if !ok {
			return "", apperr.InvalidInput("invalid status: %s", req.Status)
		}
		newStatus = parsed
	}

	overrides, err := parseOverrides(req.Items)
	if err != nil {
		return "", err
	}

	adminUUID := parseOptionalUUID(adminID)

	var finalStatus string
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		request, findErr := s.requestRepo.FindWithDetails(txCtx, requestID)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return apperr.NotFound("request not found")
			}
			return fmt.Errorf("failed to load request: %w", findErr)
		}

		if applyErr := s.applyOverrides(txCtx, request, overrides); applyErr != nil {
			return applyErr
		}

		if newStatus != "" {
			request.Status = newStatus
		}
		if saveErr := s.requestRepo.Save(txCtx, request); saveErr != nil {
			return fmt.Errorf("failed to save request: %w", saveErr)
		}

		// The payment is recomputed unconditionally, even when the new
		// status is REJECTED. This mirrors the admin update screen, which
		// always re-derives pricing alongside the status change.
		total := computeTotal(request.Items)
		if _, payErr := s.upsertPayment(txCtx, request.ID, total, req.PaymentAccount, req.AmountInWords, req.PerformedBy); payErr != nil {
			return payErr
		}

		finalStatus = request.Status
		return s.audit(txCtx, adminUUID, model.ActionUpdateRequest, request.ID.String(), "", map[string]interface{}{
			"status":       request.Status,
			"total_amount": total.StringFixed(2),
		})
	})
	if err != nil {
		return "", err
	}

	s.publish(EventRequestUpdated, map[string]string{"id": id, "status": finalStatus})
	return finalStatus, nil
}

func (s *requestService) Cancel(ctx context.Context, id string, requesterID string) error {
	requestID, err := uuid.Parse(id)
	if err != nil {
		return apperr.InvalidInput("invalid request id")
	}
	requester, err := uuid.Parse(requesterID)
	if err != nil {
		return apperr.InvalidInput("invalid requester id")
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		request, findErr := s.requestRepo.FindByID(txCtx, requestID)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return apperr.NotFound("request not found")
			}
			return fmt.Errorf("failed to load request: %w", findErr)
		}

		if request.RequesterID != requester {
			return apperr.Forbidden("you can only cancel your own requests")
		}
		if request.Status != model.StatusPending {
			return apperr.InvalidState("only pending requests can be cancelled")
		}

		if delErr := s.deleteCascade(txCtx, request.ID); delErr != nil {
			return delErr
		}

		return s.audit(txCtx, &requester, model.ActionCancelRequest, request.ID.String(), "", nil)
	})
}

func (s *requestService) Delete(ctx context.Context, id string, adminID string) (int64, error) {
	requestID, err := uuid.Parse(id)
	if err != nil {
		return 0, apperr.InvalidInput("invalid request id")
	}

	adminUUID := parseOptionalUUID(adminID)

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if _, findErr := s.requestRepo.FindByID(txCtx, requestID); findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return apperr.NotFound("request not found")
			}
			return fmt.Errorf("failed to load request: %w", findErr)
		}

		if delErr := s.deleteCascade(txCtx, requestID); delErr != nil {
			return delErr
		}

		return s.audit(txCtx, adminUUID, model.ActionDeleteRequest, requestID.String(), "", nil)
	})
	if err != nil {
		return 0, err
	}
	return 1, nil
}

func (s *requestService) BulkDelete(ctx context.Context, ids []string, adminID string) (int64, error) {
	if len(ids) == 0 {
		return 0, apperr.InvalidInput("id list must not be empty")
	}

	adminUUID := parseOptionalUUID(adminID)

	var deleted int64
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		for _, raw := range ids {
			requestID, parseErr := uuid.Parse(raw)
			if parseErr != nil {
				continue // unknown ids are skipped, same as missing ones
			}

			if _, findErr := s.requestRepo.FindByID(txCtx, requestID); findErr != nil {
				if errors.Is(findErr, gorm.ErrRecordNotFound) {
					continue
				}
				return fmt.Errorf("failed to load request: %w", findErr)
			}

			if delErr := s.deleteCascade(txCtx, requestID); delErr != nil {
				return delErr
			}
			deleted++
		}

		if deleted == 0 {
			return apperr.NotFound("none of the given requests exist")
		}

		return s.audit(txCtx, adminUUID, model.ActionBulkDeleteRequests, "", "", map[string]interface{}{
			"requested": len(ids),
			"deleted":   deleted,
		})
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}

// deleteCascade removes a request's owned rows in FK-safe order
func (s *requestService) deleteCascade(txCtx context.Context, requestID uuid.UUID) error {
	if err := s.requestRepo.DeletePayment(txCtx, requestID); err != nil {
		return fmt.Errorf("failed to delete payment: %w", err)
	}
	if err := s.requestRepo.DeleteItems(txCtx, requestID); err != nil {
		return fmt.Errorf("failed to delete line items: %w", err)
	}
	if err := s.requestRepo.Delete(txCtx, requestID); err != nil {
		return fmt.Errorf("failed to delete request: %w", err)
	}
	return nil
}

// --- Helpers ---

func (s *requestService) audit(txCtx context.Context, userID *uuid.UUID, action, entityID, entityName string, details map[string]interface{}) error {
	payload := ""
	if details != nil {
		raw, _ := json.Marshal(details)
		payload = string(raw)
	}
	entry := &model.AuditLog{
		UserID:     userID,
		Action:     action,
		EntityID:   entityID,
		EntityName: entityName,
		Details:    payload,
	}
	if err := s.auditRepo.Log(txCtx, entry); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

func (s *requestService) publish(event string, payload interface{}) {
	if s.events != nil {
		s.events.Publish(event, payload)
	}
}

func parseOptionalUUID(raw string) *uuid.UUID {
	if raw == "" {
		return nil
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return nil
	}
	return &parsed
}

func toRequestResponse(r *model.Request) RequestResponse {
	resp := RequestResponse{
		ID:          r.ID.String(),
		RequesterID: r.RequesterID.String(),
		CategoryID:  r.CategoryID.String(),
		Status:      r.Status,
		Items:       make([]RequestItemResponse, 0, len(r.Items)),
		CreatedAt:   r.CreatedAt.Format(time.RFC3339),
	}

	if r.Requester != nil {
		resp.RequesterName = r.Requester.FirstName + " " + r.Requester.LastName
	}
	if r.Category != nil {
		resp.CategoryName = r.Category.Name
	}

	for _, line := range r.Items {
		itemResp := RequestItemResponse{
			ID:       line.ID.String(),
			ItemID:   line.ItemID.String(),
			Quantity: line.Quantity,
		}
		if line.Item != nil {
			itemResp.ItemName = line.Item.Name
			itemResp.CatalogPrice = line.Item.UnitPrice.StringFixed(2)
		}
		if line.UnitPrice != nil {
			price := line.UnitPrice.StringFixed(2)
			itemResp.UnitPrice = &price
		}
		itemResp.Description = line.Description
		resp.Items = append(resp.Items, itemResp)
	}

	if r.Payment != nil {
		resp.Payment = &PaymentResponse{
			ID:             r.Payment.ID.String(),
			TotalAmount:    r.Payment.TotalAmount.StringFixed(2),
			AmountInWords:  r.Payment.AmountInWords,
			PaymentAccount: r.Payment.PaymentAccount,
			PerformedBy:    r.Payment.PerformedBy,
			PaidAt:         r.Payment.PaidAt.Format(time.RFC3339),
		}
	}

	return resp
}
