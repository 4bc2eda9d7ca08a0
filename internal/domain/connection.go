package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ConnectionStatusDraft    = "draft"
	ConnectionStatusPending  = "pending"
	ConnectionStatusAccepted = "accepted"
	ConnectionStatusDeclined = "declined"
)

// Connection is a bilateral relationship between two organizations. At most
// one non-declined connection exists per unordered org pair.
type Connection struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	RequesterOrgID uuid.UUID `gorm:"column:requester_org_id;type:uuid;not null;index" json:"requester_org_id"`
	TargetOrgID    uuid.UUID `gorm:"column:target_org_id;type:uuid;not null;index" json:"target_org_id"`
	Status         string    `gorm:"column:status;not null;default:pending" json:"status"`
	CreatedAt      time.Time `json:"created_at"`
	CreatedByID    *uuid.UUID `gorm:"column:created_by_id;type:uuid" json:"created_by_id"`
}

func (Connection) TableName() string {
	return "connections"
}

func (c *Connection) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// OtherOrgID returns the counterpart of orgID in the connection.
func (c *Connection) OtherOrgID(orgID uuid.UUID) uuid.UUID {
	if c.RequesterOrgID == orgID {
		return c.TargetOrgID
	}
	return c.RequesterOrgID
}

const (
	TenantStatusActive   = "active"
	TenantStatusInactive = "inactive"
)

// Tenant maps an organization to its tenant database URL.
type Tenant struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	OrgID     uuid.UUID `gorm:"column:org_id;type:uuid;not null;uniqueIndex" json:"org_id"`
	URL       string    `gorm:"column:url;not null" json:"url"`
	Status    string    `gorm:"column:status;not null;default:active" json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

func (Tenant) TableName() string {
	return "tenant_registry"
}

func (t *Tenant) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
