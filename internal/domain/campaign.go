package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	CampaignStatusDraft     = "draft"
	CampaignStatusScheduled = "scheduled"
	CampaignStatusSending   = "sending"
	CampaignStatusPaused    = "paused"
	CampaignStatusCompleted = "completed"
)

const (
	RecipientListStatic        = "static"
	RecipientListCriteriaBased = "criteria_based"
	RecipientListDynamic       = "dynamic"
)

const (
	SendPaceSlow   = "slow"
	SendPaceMedium = "medium"
	SendPaceFast   = "fast"
)

// Campaign is an email outreach campaign over the tenant's CRM contacts.
// Owns its recipients and its single criteria row.
type Campaign struct {
	ID                       uuid.UUID  `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Name                     string     `gorm:"column:name;not null" json:"name"`
	RecipientListType        string     `gorm:"column:recipient_list_type;not null;default:static" json:"recipient_list_type"`
	Status                   string     `gorm:"column:status;not null;default:draft;index" json:"status"`
	EmailSubject             string     `gorm:"column:email_subject" json:"email_subject"`
	EmailBody                string     `gorm:"column:email_body" json:"email_body"`
	AiPersonalizationEnabled bool       `gorm:"column:ai_personalization_enabled;default:false" json:"ai_personalization_enabled"`
	SendPace                 string     `gorm:"column:send_pace;not null;default:medium" json:"send_pace"`
	MaxEmailsPerDay          *int       `gorm:"column:max_emails_per_day" json:"max_emails_per_day"`
	ScheduledAt              *time.Time `gorm:"column:scheduled_at" json:"scheduled_at"`
	SendImmediately          bool       `gorm:"column:send_immediately;default:false" json:"send_immediately"`
	CreatedAt                time.Time  `json:"created_at"`
	CreatedByID              *uuid.UUID `gorm:"column:created_by_id;type:uuid" json:"created_by_id"`

	Recipients []CampaignRecipient `gorm:"foreignKey:CampaignID;constraint:OnDelete:CASCADE" json:"recipients,omitempty"`
	Criteria   *CampaignCriteria   `gorm:"foreignKey:CampaignID;constraint:OnDelete:CASCADE" json:"criteria,omitempty"`
}

func (Campaign) TableName() string {
	return "campaigns"
}

func (c *Campaign) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

const (
	EmailStatusPending = "pending"
	EmailStatusSent    = "sent"
	EmailStatusFailed  = "failed"
	EmailStatusBounced = "bounced"
)

// CampaignRecipient links a campaign to one contact. (campaign_id, contact_id)
// is unique; refresh of dynamic lists relies on this to stay insert-only.
type CampaignRecipient struct {
	ID                  uuid.UUID  `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	CampaignID          uuid.UUID  `gorm:"column:campaign_id;type:uuid;not null;uniqueIndex:idx_recipient_campaign_contact" json:"campaign_id"`
	ContactID           uuid.UUID  `gorm:"column:contact_id;type:uuid;not null;uniqueIndex:idx_recipient_campaign_contact" json:"contact_id"`
	EmailStatus         string     `gorm:"column:email_status;not null;default:pending;index" json:"email_status"`
	SentAt              *time.Time `gorm:"column:sent_at" json:"sent_at"`
	PersonalizedContent *string    `gorm:"column:personalized_content" json:"personalized_content"`
	CreatedAt           time.Time  `json:"created_at"`
}

func (CampaignRecipient) TableName() string {
	return "campaign_recipients"
}

func (r *CampaignRecipient) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// CampaignCriteria persists the criteria tree as JSON. IsDynamic marks
// campaigns whose recipient list may be re-evaluated later.
type CampaignCriteria struct {
	ID         uuid.UUID      `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	CampaignID uuid.UUID      `gorm:"column:campaign_id;type:uuid;not null;uniqueIndex" json:"campaign_id"`
	Criteria   datatypes.JSON `gorm:"column:criteria;type:jsonb;not null" json:"criteria"`
	IsDynamic  bool           `gorm:"column:is_dynamic;default:false" json:"is_dynamic"`
	CreatedAt  time.Time      `json:"created_at"`
}

func (CampaignCriteria) TableName() string {
	return "campaign_criteria"
}

func (c *CampaignCriteria) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// CampaignSendLog is the per-day aggregate of emails sent for a campaign,
// used for daily cap enforcement. Day is the UTC date string (2006-01-02).
type CampaignSendLog struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	CampaignID uuid.UUID `gorm:"column:campaign_id;type:uuid;not null;uniqueIndex:idx_sendlog_campaign_day" json:"campaign_id"`
	Day        string    `gorm:"column:day;type:varchar(10);not null;uniqueIndex:idx_sendlog_campaign_day" json:"day"`
	SentCount  int       `gorm:"column:sent_count;not null;default:0" json:"sent_count"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (CampaignSendLog) TableName() string {
	return "campaign_send_logs"
}

func (l *CampaignSendLog) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
