package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	FileTypeCSV  = "csv"
	FileTypeXLS  = "xls"
	FileTypeXLSX = "xlsx"
)

const (
	ExchangeFileStatusPending = "pending"
	ExchangeFileStatusSent    = "sent"
)

const (
	ValidationStatusNotValidated = "not_validated"
	ValidationStatusValidating   = "validating"
	ValidationStatusValid        = "valid"
	ValidationStatusInvalid      = "invalid"
)

// ExchangeFile is an uploaded tabular partner-data file, tenant-local to the
// sender. Owns its target orgs and validation issues.
type ExchangeFile struct {
	ID               uuid.UUID  `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	BlobKey          string     `gorm:"column:blob_key;not null" json:"blob_key"`
	FileName         string     `gorm:"column:file_name;not null" json:"file_name"`
	FileSize         int64      `gorm:"column:file_size;not null" json:"file_size"`
	Sha256           string     `gorm:"column:sha256;not null;index" json:"sha256"`
	FileType         string     `gorm:"column:file_type;not null" json:"file_type"`
	RowCount         int        `gorm:"column:row_count;not null;default:0" json:"row_count"`
	ReportingPeriod  string     `gorm:"column:reporting_period;not null" json:"reporting_period"`
	IsPos            bool       `gorm:"column:is_pos;default:false" json:"is_pos"`
	IsPot            bool       `gorm:"column:is_pot;default:false" json:"is_pot"`
	Status           string     `gorm:"column:status;not null;default:pending;index" json:"status"`
	ValidationStatus string     `gorm:"column:validation_status;not null;default:not_validated" json:"validation_status"`
	CreatedAt        time.Time  `json:"created_at"`
	CreatedByID      *uuid.UUID `gorm:"column:created_by_id;type:uuid" json:"created_by_id"`

	TargetOrgs []ExchangeFileTargetOrg `gorm:"foreignKey:ExchangeFileID;constraint:OnDelete:CASCADE" json:"target_orgs"`
}

func (ExchangeFile) TableName() string {
	return "exchange_files"
}

func (f *ExchangeFile) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}

// ExchangeFileTargetOrg is one intended recipient of an exchange file.
type ExchangeFileTargetOrg struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	ExchangeFileID uuid.UUID `gorm:"column:exchange_file_id;type:uuid;not null;index" json:"exchange_file_id"`
	ConnectedOrgID uuid.UUID `gorm:"column:connected_org_id;type:uuid;not null" json:"connected_org_id"`
	CreatedAt      time.Time `json:"created_at"`
}

func (ExchangeFileTargetOrg) TableName() string {
	return "exchange_file_target_orgs"
}

func (t *ExchangeFileTargetOrg) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

const (
	ReceivedFileStatusNew        = "new"
	ReceivedFileStatusDownloaded = "downloaded"
)

// ReceivedExchangeFile is the recipient-side mirror of an exchange file,
// cross-written into the recipient tenant at send time. BlobKey is unique
// within the tenant: one row per delivery, which makes redelivery idempotent.
type ReceivedExchangeFile struct {
	ID              uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	SenderOrgID     uuid.UUID `gorm:"column:sender_org_id;type:uuid;not null;index" json:"sender_org_id"`
	BlobKey         string    `gorm:"column:blob_key;not null;uniqueIndex" json:"blob_key"`
	FileName        string    `gorm:"column:file_name;not null" json:"file_name"`
	FileSize        int64     `gorm:"column:file_size;not null" json:"file_size"`
	Sha256          string    `gorm:"column:sha256;not null" json:"sha256"`
	FileType        string    `gorm:"column:file_type;not null" json:"file_type"`
	RowCount        int       `gorm:"column:row_count;not null;default:0" json:"row_count"`
	ReportingPeriod string    `gorm:"column:reporting_period;not null" json:"reporting_period"`
	IsPos           bool      `gorm:"column:is_pos;default:false" json:"is_pos"`
	IsPot           bool      `gorm:"column:is_pot;default:false" json:"is_pot"`
	Status          string    `gorm:"column:status;not null;default:new" json:"status"`
	CreatedAt       time.Time `json:"created_at"`
}

func (ReceivedExchangeFile) TableName() string {
	return "received_exchange_files"
}

func (f *ReceivedExchangeFile) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}

// FileValidationIssue is one finding from the async validator. Issues are
// cleared and re-created on each validation run.
type FileValidationIssue struct {
	ID             uuid.UUID      `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	ExchangeFileID uuid.UUID      `gorm:"column:exchange_file_id;type:uuid;not null;index" json:"exchange_file_id"`
	RowNumber      int            `gorm:"column:row_number" json:"row_number"`
	ColumnName     string         `gorm:"column:column_name" json:"column_name"`
	ValidationKey  string         `gorm:"column:validation_key;not null" json:"validation_key"`
	Message        string         `gorm:"column:message" json:"message"`
	RowData        datatypes.JSON `gorm:"column:row_data;type:jsonb" json:"row_data"`
	CreatedAt      time.Time      `json:"created_at"`
}

func (FileValidationIssue) TableName() string {
	return "file_validation_issues"
}

func (i *FileValidationIssue) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
