package campaigns

import (
	"context"
	"time"

	"flowconnect-backend/internal/application/criteria"
	"flowconnect-backend/internal/domain"
	"flowconnect-backend/internal/identity"
	"flowconnect-backend/internal/mail"
	"flowconnect-backend/internal/pkg/apperr"
	"flowconnect-backend/internal/tenancy"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Service owns campaign lifecycle and the paced sender. Now is injectable so
// tests can control daily-cap boundaries.
type Service struct {
	Router *tenancy.Router
	Mail   mail.Provider
	Now    func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// CreateInput is the campaign creation payload.
type CreateInput struct {
	Name                     string
	RecipientListType        string
	EmailSubject             string
	EmailBody                string
	AiPersonalizationEnabled bool
	SendPace                 string
	MaxEmailsPerDay          *int
	ScheduledAt              *time.Time
	SendImmediately          bool
	StaticContactIDs         []uuid.UUID
	Criteria                 *criteria.Criteria
}

// Create builds a campaign and materializes its recipient list. Requires a
// connected mail provider.
func (s *Service) Create(ctx context.Context, auth *identity.AuthInfo, in CreateInput) (*domain.Campaign, error) {
	if !s.Mail.HasConnectedProvider(ctx) {
		return nil, apperr.Validation("NoEmailProvider", "no email provider connected")
	}

	status := domain.CampaignStatusDraft
	if in.SendImmediately {
		status = domain.CampaignStatusSending
	} else if in.ScheduledAt != nil {
		status = domain.CampaignStatusScheduled
	}

	pace := in.SendPace
	if pace == "" {
		pace = domain.SendPaceMedium
	}

	campaign := domain.Campaign{
		Name:                     in.Name,
		RecipientListType:        in.RecipientListType,
		Status:                   status,
		EmailSubject:             in.EmailSubject,
		EmailBody:                in.EmailBody,
		AiPersonalizationEnabled: in.AiPersonalizationEnabled,
		SendPace:                 pace,
		MaxEmailsPerDay:          in.MaxEmailsPerDay,
		ScheduledAt:              in.ScheduledAt,
		SendImmediately:          in.SendImmediately,
		CreatedByID:              &auth.UserID,
	}

	err := s.Router.WithTenantOrg(ctx, auth.OrgID, func(tx *gorm.DB) error {
		if err := tx.Create(&campaign).Error; err != nil {
			return err
		}
		switch in.RecipientListType {
		case domain.RecipientListStatic:
			return insertRecipients(tx, campaign.ID, in.StaticContactIDs)
		case domain.RecipientListCriteriaBased, domain.RecipientListDynamic:
			if in.Criteria == nil {
				return apperr.Validation("InvalidCriteria", "criteria are required for %s campaigns", in.RecipientListType)
			}
			raw, err := criteria.Serialize(in.Criteria)
			if err != nil {
				return err
			}
			row := domain.CampaignCriteria{
				CampaignID: campaign.ID,
				Criteria:   datatypes.JSON(raw),
				IsDynamic:  in.RecipientListType == domain.RecipientListDynamic,
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
			crit := &criteria.Service{DB: tx}
			contacts, err := crit.Evaluate(ctx, in.Criteria, 0)
			if err != nil {
				return err
			}
			ids := make([]uuid.UUID, 0, len(contacts))
			for _, c := range contacts {
				ids = append(ids, c.ID)
			}
			return insertRecipients(tx, campaign.ID, ids)
		}
		return apperr.Validation("InvalidRecipientListType", "unknown recipient list type %q", in.RecipientListType)
	})
	if err != nil {
		return nil, err
	}
	return &campaign, nil
}

func insertRecipients(tx *gorm.DB, campaignID uuid.UUID, contactIDs []uuid.UUID) error {
	for _, contactID := range contactIDs {
		row := domain.CampaignRecipient{
			CampaignID:  campaignID,
			ContactID:   contactID,
			EmailStatus: domain.EmailStatusPending,
		}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
	}
	return nil
}

// updatableFields are the campaign columns Update may touch. Recipients are
// never rematerialized by an update.
var updatableFields = map[string]bool{
	"name":                       true,
	"email_subject":              true,
	"email_body":                 true,
	"ai_personalization_enabled": true,
	"send_pace":                  true,
	"max_emails_per_day":         true,
	"scheduled_at":               true,
	"send_immediately":           true,
}

// Update rewrites campaign fields. Absent keys are untouched; a nil value
// clears the column.
func (s *Service) Update(ctx context.Context, auth *identity.AuthInfo, campaignID uuid.UUID, fields map[string]interface{}) (*domain.Campaign, error) {
	valid := make(map[string]interface{})
	for k, v := range fields {
		if updatableFields[k] {
			valid[k] = v
		}
	}
	if len(valid) == 0 {
		return nil, apperr.Validation("NoUpdateFields", "no valid fields to update")
	}

	var campaign domain.Campaign
	err := s.Router.WithTenantOrg(ctx, auth.OrgID, func(tx *gorm.DB) error {
		if err := s.findCampaign(tx, campaignID, &campaign); err != nil {
			return err
		}
		if err := tx.Model(&domain.Campaign{}).Where("id = ?", campaignID).Updates(valid).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", campaignID).First(&campaign).Error
	})
	if err != nil {
		return nil, err
	}
	return &campaign, nil
}

func (s *Service) findCampaign(tx *gorm.DB, campaignID uuid.UUID, out *domain.Campaign) error {
	err := tx.Where("id = ?", campaignID).First(out).Error
	if err == gorm.ErrRecordNotFound {
		return apperr.NotFound("CampaignNotFound", "campaign %s not found", campaignID)
	}
	return err
}

// Pause flips a sending campaign to paused.
func (s *Service) Pause(ctx context.Context, auth *identity.AuthInfo, campaignID uuid.UUID) error {
	return s.transition(ctx, auth, campaignID, []string{domain.CampaignStatusSending}, domain.CampaignStatusPaused)
}

// Resume flips a paused campaign back to sending.
func (s *Service) Resume(ctx context.Context, auth *identity.AuthInfo, campaignID uuid.UUID) error {
	return s.transition(ctx, auth, campaignID, []string{domain.CampaignStatusPaused}, domain.CampaignStatusSending)
}

// Start begins sending a draft or paused campaign.
func (s *Service) Start(ctx context.Context, auth *identity.AuthInfo, campaignID uuid.UUID) error {
	return s.transition(ctx, auth, campaignID,
		[]string{domain.CampaignStatusDraft, domain.CampaignStatusPaused},
		domain.CampaignStatusSending)
}

func (s *Service) transition(ctx context.Context, auth *identity.AuthInfo, campaignID uuid.UUID, from []string, to string) error {
	return s.Router.WithTenantOrg(ctx, auth.OrgID, func(tx *gorm.DB) error {
		var campaign domain.Campaign
		if err := s.findCampaign(tx, campaignID, &campaign); err != nil {
			return err
		}
		allowed := false
		for _, status := range from {
			if campaign.Status == status {
				allowed = true
				break
			}
		}
		if !allowed {
			return apperr.Validation("InvalidCampaignStatus", "campaign cannot move from %s to %s", campaign.Status, to)
		}
		return tx.Model(&domain.Campaign{}).Where("id = ?", campaignID).Update("status", to).Error
	})
}

// Delete removes a campaign with its recipients and criteria.
func (s *Service) Delete(ctx context.Context, auth *identity.AuthInfo, campaignID uuid.UUID) error {
	return s.Router.WithTenantOrg(ctx, auth.OrgID, func(tx *gorm.DB) error {
		var campaign domain.Campaign
		if err := s.findCampaign(tx, campaignID, &campaign); err != nil {
			return err
		}
		if err := tx.Where("campaign_id = ?", campaignID).Delete(&domain.CampaignRecipient{}).Error; err != nil {
			return err
		}
		if err := tx.Where("campaign_id = ?", campaignID).Delete(&domain.CampaignCriteria{}).Error; err != nil {
			return err
		}
		if err := tx.Where("campaign_id = ?", campaignID).Delete(&domain.CampaignSendLog{}).Error; err != nil {
			return err
		}
		return tx.Delete(&campaign).Error
	})
}

// Get returns one campaign with its criteria.
func (s *Service) Get(ctx context.Context, auth *identity.AuthInfo, campaignID uuid.UUID) (*domain.Campaign, error) {
	var campaign domain.Campaign
	err := s.Router.WithTenantOrg(ctx, auth.OrgID, func(tx *gorm.DB) error {
		err := tx.Preload("Criteria").Where("id = ?", campaignID).First(&campaign).Error
		if err == gorm.ErrRecordNotFound {
			return apperr.NotFound("CampaignNotFound", "campaign %s not found", campaignID)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return &campaign, nil
}

// List returns the tenant's campaigns, newest first.
func (s *Service) List(ctx context.Context, auth *identity.AuthInfo) ([]domain.Campaign, error) {
	var campaigns []domain.Campaign
	err := s.Router.WithTenantOrg(ctx, auth.OrgID, func(tx *gorm.DB) error {
		return tx.Order("created_at DESC").Find(&campaigns).Error
	})
	if err != nil {
		return nil, err
	}
	return campaigns, nil
}

// CriteriaPreview is the result of evaluating criteria without persisting
// anything.
type CriteriaPreview struct {
	Count  int64            `json:"count"`
	Sample []domain.Contact `json:"sample"`
}

// PreviewCriteria evaluates a criteria tree against the tenant's contacts and
// returns the match count plus a small sample.
func (s *Service) PreviewCriteria(ctx context.Context, auth *identity.AuthInfo, c *criteria.Criteria, sampleSize int) (*CriteriaPreview, error) {
	if sampleSize <= 0 {
		sampleSize = 10
	}
	var preview CriteriaPreview
	err := s.Router.WithTenantOrg(ctx, auth.OrgID, func(tx *gorm.DB) error {
		crit := &criteria.Service{DB: tx}
		count, err := crit.Count(ctx, c)
		if err != nil {
			return err
		}
		sample, err := crit.Sample(ctx, c, sampleSize)
		if err != nil {
			return err
		}
		preview = CriteriaPreview{Count: count, Sample: sample}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &preview, nil
}

// RefreshDynamicRecipients re-evaluates a dynamic campaign's criteria and
// inserts recipients for newly matching contacts. Existing recipients are
// never removed. Returns the number added.
func (s *Service) RefreshDynamicRecipients(ctx context.Context, auth *identity.AuthInfo, campaignID uuid.UUID) (int, error) {
	added := 0
	err := s.Router.WithTenantOrg(ctx, auth.OrgID, func(tx *gorm.DB) error {
		var campaign domain.Campaign
		if err := s.findCampaign(tx, campaignID, &campaign); err != nil {
			return err
		}
		var critRow domain.CampaignCriteria
		err := tx.Where("campaign_id = ?", campaignID).First(&critRow).Error
		if err == gorm.ErrRecordNotFound {
			return apperr.Validation("CampaignNotDynamic", "campaign has no criteria to refresh")
		}
		if err != nil {
			return err
		}
		if !critRow.IsDynamic {
			return apperr.Validation("CampaignNotDynamic", "campaign recipient list is not dynamic")
		}

		parsed, err := criteria.Parse(critRow.Criteria)
		if err != nil {
			return err
		}
		crit := &criteria.Service{DB: tx}
		contacts, err := crit.Evaluate(ctx, parsed, 0)
		if err != nil {
			return err
		}

		var existing []uuid.UUID
		if err := tx.Model(&domain.CampaignRecipient{}).
			Where("campaign_id = ?", campaignID).
			Pluck("contact_id", &existing).Error; err != nil {
			return err
		}
		seen := make(map[uuid.UUID]bool, len(existing))
		for _, id := range existing {
			seen[id] = true
		}

		for _, contact := range contacts {
			if seen[contact.ID] {
				continue
			}
			row := domain.CampaignRecipient{
				CampaignID:  campaignID,
				ContactID:   contact.ID,
				EmailStatus: domain.EmailStatusPending,
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
			added++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return added, nil
}
