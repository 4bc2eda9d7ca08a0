package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Organization types. A distributor's complementary type is manufacturer and
// vice versa; ComplementaryType drives the default partner search.
const (
	OrgTypeManufacturer = "manufacturer"
	OrgTypeDistributor  = "distributor"
	OrgTypeRepFirm      = "rep_firm"
	OrgTypeAssociation  = "association"
	OrgTypeAdmin        = "admin_org"
)

const (
	OrgStatusActive  = "active"
	OrgStatusPending = "pending"
)

// PosContactRole is the app role identifying POS contacts within a partner org.
const PosContactRole = "flow-pos"

// Organization lives in the shared subscription database.
type Organization struct {
	ID        uuid.UUID      `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Name      string         `gorm:"column:name;not null" json:"name"`
	Domain    *string        `gorm:"column:domain" json:"domain"`
	OrgType   string         `gorm:"column:org_type;not null" json:"org_type"`
	Status    string         `gorm:"column:status;not null;default:active" json:"status"`
	CreatedAt time.Time      `json:"created_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Organization) TableName() string {
	return "organizations"
}

func (o *Organization) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// ComplementaryType returns the org type searched by default for partners of
// orgType. Unknown types map to themselves.
func ComplementaryType(orgType string) string {
	switch orgType {
	case OrgTypeManufacturer:
		return OrgTypeDistributor
	case OrgTypeDistributor:
		return OrgTypeManufacturer
	}
	return orgType
}

// User lives in the shared subscription database. ExternalSubjectID is the
// identity issued by the external auth provider; unique when present.
type User struct {
	ID                uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	ExternalSubjectID *string   `gorm:"column:external_subject_id;uniqueIndex" json:"external_subject_id"`
	Email             string    `gorm:"column:email;not null" json:"email"`
	PrimaryOrgID      *uuid.UUID `gorm:"column:primary_org_id;type:uuid" json:"primary_org_id"`
	FirstName         string    `gorm:"column:first_name" json:"first_name"`
	LastName          string    `gorm:"column:last_name" json:"last_name"`
	CreatedAt         time.Time `json:"created_at"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// OrgMembership links a user to an organization.
type OrgMembership struct {
	ID        uuid.UUID      `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	OrgID     uuid.UUID      `gorm:"column:org_id;type:uuid;not null;index" json:"org_id"`
	UserID    uuid.UUID      `gorm:"column:user_id;type:uuid;not null;index" json:"user_id"`
	Role      string         `gorm:"column:role" json:"role"`
	IsAdmin   bool           `gorm:"column:is_admin;default:false" json:"is_admin"`
	IsPrimary bool           `gorm:"column:is_primary;default:false" json:"is_primary"`
	CreatedAt time.Time      `json:"created_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (OrgMembership) TableName() string {
	return "org_memberships"
}

func (m *OrgMembership) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// AppRole is an application-level role (e.g. flow-pos).
type AppRole struct {
	ID   uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Name string    `gorm:"column:name;not null;uniqueIndex" json:"name"`
}

func (AppRole) TableName() string {
	return "app_roles"
}

func (r *AppRole) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// UserAppRole assigns an app role to a user within an org.
type UserAppRole struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;index" json:"user_id"`
	OrgID     uuid.UUID `gorm:"column:org_id;type:uuid;not null;index" json:"org_id"`
	AppRoleID uuid.UUID `gorm:"column:app_role_id;type:uuid;not null" json:"app_role_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (UserAppRole) TableName() string {
	return "user_app_roles"
}

func (r *UserAppRole) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
