package campaigns

import (
	"context"
	"errors"
	"time"

	"flowconnect-backend/internal/domain"
	"flowconnect-backend/internal/identity"
	"flowconnect-backend/internal/mail"
	"flowconnect-backend/internal/pkg/apperr"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Nominal emails-per-hour per pace. The scheduler tick divides these down to
// per-batch sizes, so they are an upper bound, not a guarantee.
var PaceLimits = map[string]int{
	domain.SendPaceSlow:   25,
	domain.SendPaceMedium: 50,
	domain.SendPaceFast:   100,
}

const DefaultDailyCap = 1000

// batchDivisor converts a per-hour pace into a per-tick batch assuming a
// roughly two-minute scheduler cadence.
const batchDivisor = 30

// SendingStatus aggregates a campaign's delivery progress.
type SendingStatus struct {
	CampaignID       uuid.UUID `json:"campaign_id"`
	Total            int64     `json:"total"`
	Pending          int64     `json:"pending"`
	Sent             int64     `json:"sent"`
	Failed           int64     `json:"failed"`
	Bounced          int64     `json:"bounced"`
	TodaySent        int       `json:"today_sent"`
	DailyCap         int       `json:"daily_cap"`
	RemainingToday   int       `json:"remaining_today"`
	ProgressPercent  float64   `json:"progress_percent"`
	IsCompleted      bool      `json:"is_completed"`
	CanSendMoreToday bool      `json:"can_send_more_today"`
}

// BatchResult reports one send_batch invocation.
type BatchResult struct {
	CampaignID        uuid.UUID `json:"campaign_id"`
	EmailsSent        int       `json:"emails_sent"`
	EmailsFailed      int       `json:"emails_failed"`
	EmailsRemaining   int64     `json:"emails_remaining"`
	IsCompleted       bool      `json:"is_completed"`
	DailyLimitReached bool      `json:"daily_limit_reached"`
	Error             string    `json:"error,omitempty"`
}

func (s *Service) today() string {
	return s.now().UTC().Format("2006-01-02")
}

func dailyCap(campaign *domain.Campaign) int {
	if campaign.MaxEmailsPerDay != nil && *campaign.MaxEmailsPerDay > 0 {
		return *campaign.MaxEmailsPerDay
	}
	return DefaultDailyCap
}

func (s *Service) todaySent(tx *gorm.DB, campaignID uuid.UUID) (int, error) {
	var logRow domain.CampaignSendLog
	err := tx.Where("campaign_id = ? AND day = ?", campaignID, s.today()).First(&logRow).Error
	if err == gorm.ErrRecordNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return logRow.SentCount, nil
}

func recipientCounts(tx *gorm.DB, campaignID uuid.UUID) (map[string]int64, int64, error) {
	var rows []struct {
		EmailStatus string `gorm:"column:email_status"`
		N           int64  `gorm:"column:n"`
	}
	err := tx.Model(&domain.CampaignRecipient{}).
		Select("email_status, COUNT(1) AS n").
		Where("campaign_id = ?", campaignID).
		Group("email_status").
		Scan(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	counts := make(map[string]int64, len(rows))
	var total int64
	for _, row := range rows {
		counts[row.EmailStatus] = row.N
		total += row.N
	}
	return counts, total, nil
}

// Status aggregates recipient counts, today's quota usage, and completion.
func (s *Service) Status(ctx context.Context, auth *identity.AuthInfo, campaignID uuid.UUID) (*SendingStatus, error) {
	var status SendingStatus
	err := s.Router.WithTenantOrg(ctx, auth.OrgID, func(tx *gorm.DB) error {
		var campaign domain.Campaign
		if err := s.findCampaign(tx, campaignID, &campaign); err != nil {
			return err
		}
		counts, total, err := recipientCounts(tx, campaignID)
		if err != nil {
			return err
		}
		todaySent, err := s.todaySent(tx, campaignID)
		if err != nil {
			return err
		}

		limit := dailyCap(&campaign)
		remaining := limit - todaySent
		if remaining < 0 {
			remaining = 0
		}
		progress := 0.0
		if total > 0 {
			progress = 100 * float64(counts[domain.EmailStatusSent]) / float64(total)
		}
		status = SendingStatus{
			CampaignID:       campaignID,
			Total:            total,
			Pending:          counts[domain.EmailStatusPending],
			Sent:             counts[domain.EmailStatusSent],
			Failed:           counts[domain.EmailStatusFailed],
			Bounced:          counts[domain.EmailStatusBounced],
			TodaySent:        todaySent,
			DailyCap:         limit,
			RemainingToday:   remaining,
			ProgressPercent:  progress,
			IsCompleted:      counts[domain.EmailStatusPending] == 0 && total > 0,
			CanSendMoreToday: remaining > 0 && counts[domain.EmailStatusPending] > 0,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &status, nil
}

// SendBatch dispatches one paced batch of pending recipients. Invocations for
// one campaign are assumed serialized by the external scheduler.
func (s *Service) SendBatch(ctx context.Context, auth *identity.AuthInfo, campaignID uuid.UUID) (*BatchResult, error) {
	result := &BatchResult{CampaignID: campaignID}
	err := s.Router.WithTenantOrg(ctx, auth.OrgID, func(tx *gorm.DB) error {
		var campaign domain.Campaign
		if err := s.findCampaign(tx, campaignID, &campaign); err != nil {
			return err
		}

		if campaign.Status != domain.CampaignStatusSending && campaign.Status != domain.CampaignStatusScheduled {
			result.Error = "campaign is not in a sendable state"
			return nil
		}
		if campaign.Status == domain.CampaignStatusScheduled {
			if err := tx.Model(&domain.Campaign{}).Where("id = ?", campaignID).
				Update("status", domain.CampaignStatusSending).Error; err != nil {
				return err
			}
			campaign.Status = domain.CampaignStatusSending
		}

		if !s.Mail.HasConnectedProvider(ctx) {
			result.Error = "No email provider connected"
			return nil
		}

		counts, _, err := recipientCounts(tx, campaignID)
		if err != nil {
			return err
		}
		pending := counts[domain.EmailStatusPending]
		todaySent, err := s.todaySent(tx, campaignID)
		if err != nil {
			return err
		}
		remainingToday := dailyCap(&campaign) - todaySent
		if remainingToday < 0 {
			remainingToday = 0
		}

		pace, ok := PaceLimits[campaign.SendPace]
		if !ok {
			pace = PaceLimits[domain.SendPaceMedium]
		}
		batchSize := pace / batchDivisor
		if batchSize < 1 {
			batchSize = 1
		}
		if int64(batchSize) > pending {
			batchSize = int(pending)
		}
		if batchSize > remainingToday {
			batchSize = remainingToday
		}

		if batchSize == 0 {
			if pending == 0 {
				result.IsCompleted = true
				return tx.Model(&domain.Campaign{}).Where("id = ?", campaignID).
					Update("status", domain.CampaignStatusCompleted).Error
			}
			result.DailyLimitReached = true
			result.EmailsRemaining = pending
			return nil
		}

		sent, failed, err := s.dispatch(ctx, tx, &campaign, batchSize)
		if err != nil {
			return err
		}
		result.EmailsSent = sent
		result.EmailsFailed = failed

		if sent > 0 {
			if err := s.bumpSendLog(tx, campaignID, sent); err != nil {
				return err
			}
		}

		var remaining int64
		if err := tx.Model(&domain.CampaignRecipient{}).
			Where("campaign_id = ? AND email_status = ?", campaignID, domain.EmailStatusPending).
			Count(&remaining).Error; err != nil {
			return err
		}
		result.EmailsRemaining = remaining
		if remaining == 0 {
			result.IsCompleted = true
			return tx.Model(&domain.Campaign{}).Where("id = ?", campaignID).
				Update("status", domain.CampaignStatusCompleted).Error
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// dispatch delivers up to batchSize pending recipients. Recipients whose
// contact has no email fail without touching the provider.
func (s *Service) dispatch(ctx context.Context, tx *gorm.DB, campaign *domain.Campaign, batchSize int) (sent, failed int, err error) {
	var batch []struct {
		domain.CampaignRecipient
		ContactEmail *string `gorm:"column:contact_email"`
	}
	err = tx.Model(&domain.CampaignRecipient{}).
		Select("campaign_recipients.*, contacts.email AS contact_email").
		Joins("JOIN contacts ON contacts.id = campaign_recipients.contact_id").
		Where("campaign_recipients.campaign_id = ? AND campaign_recipients.email_status = ?",
			campaign.ID, domain.EmailStatusPending).
		Order("campaign_recipients.created_at ASC").
		Limit(batchSize).
		Scan(&batch).Error
	if err != nil {
		return 0, 0, err
	}

	now := s.now()
	for _, recipient := range batch {
		if recipient.ContactEmail == nil || *recipient.ContactEmail == "" {
			if err := setRecipientStatus(tx, recipient.ID, domain.EmailStatusFailed, nil); err != nil {
				return sent, failed, err
			}
			failed++
			continue
		}

		body := campaign.EmailBody
		if recipient.PersonalizedContent != nil && *recipient.PersonalizedContent != "" {
			body = *recipient.PersonalizedContent
		}
		res, sendErr := s.Mail.Send(ctx, mail.Message{
			To:       []string{*recipient.ContactEmail},
			Subject:  campaign.EmailSubject,
			Body:     body,
			BodyType: mail.BodyHTML,
		})
		if sendErr != nil || res == nil || !res.Success {
			if err := setRecipientStatus(tx, recipient.ID, domain.EmailStatusFailed, nil); err != nil {
				return sent, failed, err
			}
			failed++
			continue
		}
		if err := setRecipientStatus(tx, recipient.ID, domain.EmailStatusSent, &now); err != nil {
			return sent, failed, err
		}
		sent++
	}
	return sent, failed, nil
}

func setRecipientStatus(tx *gorm.DB, recipientID uuid.UUID, status string, sentAt *time.Time) error {
	updates := map[string]interface{}{"email_status": status}
	if sentAt != nil {
		updates["sent_at"] = *sentAt
	}
	return tx.Model(&domain.CampaignRecipient{}).Where("id = ?", recipientID).Updates(updates).Error
}

func (s *Service) bumpSendLog(tx *gorm.DB, campaignID uuid.UUID, n int) error {
	var logRow domain.CampaignSendLog
	err := tx.Where("campaign_id = ? AND day = ?", campaignID, s.today()).First(&logRow).Error
	if err == gorm.ErrRecordNotFound {
		logRow = domain.CampaignSendLog{CampaignID: campaignID, Day: s.today(), SentCount: n}
		return tx.Create(&logRow).Error
	}
	if err != nil {
		return err
	}
	return tx.Model(&logRow).Update("sent_count", logRow.SentCount+n).Error
}

// SendTestEmail delivers a one-off test message, bypassing recipients and
// pacing.
func (s *Service) SendTestEmail(ctx context.Context, auth *identity.AuthInfo, campaignID uuid.UUID, address string) error {
	if !s.Mail.HasConnectedProvider(ctx) {
		return apperr.Validation("NoEmailProvider", "no email provider connected")
	}
	campaign, err := s.Get(ctx, auth, campaignID)
	if err != nil {
		return err
	}
	res, err := s.Mail.Send(ctx, mail.Message{
		To:       []string{address},
		Subject:  "[TEST] " + campaign.EmailSubject,
		Body:     campaign.EmailBody,
		BodyType: mail.BodyHTML,
	})
	if err != nil {
		return err
	}
	if !res.Success {
		return apperr.ResourceFailure("EmailSendFailed", errors.New(res.Error))
	}
	return nil
}
