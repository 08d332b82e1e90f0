package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	// Request lifecycle actions
	ActionCreateRequest      = "CREATE_REQUEST"
	ActionApproveRequest     = "APPROVE_REQUEST"
	ActionRejectRequest      = "REJECT_REQUEST"
	ActionUpdateRequest      = "UPDATE_REQUEST"
	ActionCancelRequest      = "CANCEL_REQUEST"
	ActionDeleteRequest      = "DELETE_REQUEST"
	ActionBulkDeleteRequests = "BULK_DELETE_REQUESTS"

	// Catalog actions
	ActionCreateCategory = "CREATE_CATEGORY"
	ActionUpdateCategory = "UPDATE_CATEGORY"
	ActionDeleteCategory = "DELETE_CATEGORY"
	ActionCreateItem     = "CREATE_ITEM"
	ActionUpdateItem     = "UPDATE_ITEM"
	ActionDeleteItem     = "DELETE_ITEM"

	// User management actions
	ActionChangeUserRole = "CHANGE_USER_ROLE"
	ActionUpdateUser     = "UPDATE_USER"
	ActionDeleteUser     = "DELETE_USER"
)

// AuditLog tracks Who, What, and When for critical system changes
type AuditLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id"` // Nullable gracefully if automated
	User       *User      `gorm:"foreignKey:UserID" json:"user"`
	Action     string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string     `gorm:"type:varchar(50);index" json:"entity_id"`        // Reference string (uuid/code)
	EntityName string     `gorm:"type:varchar(255)" json:"entity_name,omitempty"` // Human readable name
	Details    string     `gorm:"type:jsonb" json:"details"`                      // Serialized JSON payload of the action
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}

func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
