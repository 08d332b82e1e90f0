package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// RequestStatus enum constants
const (
	StatusPending  = "PENDING"
	StatusApproved = "APPROVED"
	StatusRejected = "REJECTED"
)

// ParseStatus resolves a status name case-insensitively.
// The second return value is false for anything outside the three states.
func ParseStatus(s string) (string, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case StatusPending:
		return StatusPending, true
	case StatusApproved:
		return StatusApproved, true
	case StatusRejected:
		return StatusRejected, true
	default:
		return "", false
	}
}

// Request is a petty-cash withdrawal request submitted by a user against one
// category. It starts PENDING and is moved to APPROVED or REJECTED by an
// admin decision. Line items and the payment are owned exclusively by the
// request and deleted with it.
type Request struct {
	ID          uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	RequesterID uuid.UUID     `gorm:"type:uuid;not null;index" json:"requester_id"`
	Requester   *User         `gorm:"foreignKey:RequesterID" json:"requester,omitempty"`
	CategoryID  uuid.UUID     `gorm:"type:uuid;not null;index" json:"category_id"`
	Category    *Category     `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Status      string        `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	Items       []RequestItem `gorm:"foreignKey:RequestID;constraint:OnDelete:CASCADE" json:"items"`
	Payment     *Payment      `gorm:"foreignKey:RequestID;constraint:OnDelete:CASCADE" json:"payment,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

func (r *Request) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// RequestItem is one catalog item plus quantity inside a request.
// UnitPrice and Description stay NULL until an admin prices the line;
// the catalog price is never copied here.
type RequestItem struct {
	ID          uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	RequestID   uuid.UUID        `gorm:"type:uuid;not null;index" json:"request_id"`
	ItemID      uuid.UUID        `gorm:"type:uuid;not null;index" json:"item_id"`
	Item        *Item            `gorm:"foreignKey:ItemID;constraint:OnDelete:RESTRICT" json:"item,omitempty"`
	Quantity    int              `gorm:"not null" json:"quantity"`
	UnitPrice   *decimal.Decimal `gorm:"type:decimal(18,2)" json:"unit_price"`
	Description *string          `gorm:"type:varchar(500)" json:"description"`
}

func (ri *RequestItem) BeforeCreate(tx *gorm.DB) error {
	if ri.ID == uuid.Nil {
		ri.ID = uuid.New()
	}
	return nil
}

// Payment is the financial record attached to a request once an admin prices
// it. At most one row exists per request (unique request_id); re-approval
// overwrites the existing row in place.
type Payment struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	RequestID      uuid.UUID       `gorm:"type:uuid;uniqueIndex;not null" json:"request_id"`
	TotalAmount    decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"total_amount"`
	AmountInWords  string          `gorm:"type:varchar(500)" json:"amount_in_words"`
	PaymentAccount string          `gorm:"type:varchar(255)" json:"payment_account"`
	PerformedBy    string          `gorm:"type:varchar(255)" json:"performed_by"`
	PaidAt         time.Time       `json:"paid_at"`
}

func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
