package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Agreement is the per-connection PDF agreement, one per connected org,
// blob-backed. Upserted on upload, hard-deleted on remove.
type Agreement struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	ConnectedOrgID uuid.UUID `gorm:"column:connected_org_id;type:uuid;not null;uniqueIndex" json:"connected_org_id"`
	BlobKey        string    `gorm:"column:blob_key;not null" json:"blob_key"`
	FileName       string    `gorm:"column:file_name;not null" json:"file_name"`
	FileSize       int64     `gorm:"column:file_size;not null" json:"file_size"`
	Sha256         string    `gorm:"column:sha256;not null" json:"sha256"`
	CreatedAt      time.Time `json:"created_at"`
	CreatedByID    *uuid.UUID `gorm:"column:created_by_id;type:uuid" json:"created_by_id"`
}

func (Agreement) TableName() string {
	return "agreements"
}

func (a *Agreement) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// OrganizationAlias maps an alternative name to a connected org. Alias is
// case-insensitively unique within organization_id.
type OrganizationAlias struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	OrganizationID uuid.UUID `gorm:"column:organization_id;type:uuid;not null;uniqueIndex:idx_alias_org_connected;uniqueIndex:idx_alias_org_lower" json:"organization_id"`
	ConnectedOrgID uuid.UUID `gorm:"column:connected_org_id;type:uuid;not null;uniqueIndex:idx_alias_org_connected" json:"connected_org_id"`
	Alias          string    `gorm:"column:alias;not null;uniqueIndex:idx_alias_org_lower,expression:LOWER(alias)" json:"alias"`
	CreatedAt      time.Time `json:"created_at"`
}

func (OrganizationAlias) TableName() string {
	return "organization_aliases"
}

func (a *OrganizationAlias) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// PrefixPattern is a named part-number prefix owned by an organization.
type PrefixPattern struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	OrganizationID uuid.UUID `gorm:"column:organization_id;type:uuid;not null;uniqueIndex:idx_prefix_org_name" json:"organization_id"`
	Name           string    `gorm:"column:name;not null;uniqueIndex:idx_prefix_org_name" json:"name"`
	CreatedAt      time.Time `json:"created_at"`
}

func (PrefixPattern) TableName() string {
	return "prefix_patterns"
}

func (p *PrefixPattern) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// OrganizationPreference is one key/value preference scoped to an application
// (e.g. "pos"). Unique per (organization, application, key).
type OrganizationPreference struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	OrganizationID uuid.UUID `gorm:"column:organization_id;type:uuid;not null;uniqueIndex:idx_pref_org_app_key" json:"organization_id"`
	Application    string    `gorm:"column:application;not null;uniqueIndex:idx_pref_org_app_key" json:"application"`
	PreferenceKey  string    `gorm:"column:preference_key;not null;uniqueIndex:idx_pref_org_app_key" json:"preference_key"`
	Value          *string   `gorm:"column:value" json:"value"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (OrganizationPreference) TableName() string {
	return "organization_preferences"
}

func (p *OrganizationPreference) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
