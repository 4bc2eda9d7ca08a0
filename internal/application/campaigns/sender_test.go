package campaigns

import (
	"context"
	"testing"
	"time"

	"flowconnect-backend/internal/domain"
	"flowconnect-backend/internal/pkg/apperr"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (f *campaignFixture) startSending(t *testing.T, contactCount int) *domain.Campaign {
	ids := make([]uuid.UUID, 0, contactCount)
	for i := 0; i < contactCount; i++ {
		ids = append(ids, f.seedContact(t, uuid.NewString()+"@example.com", "buyer"))
	}
	campaign := f.createStatic(t, ids...)
	require.NoError(t, f.Service.Start(context.Background(), f.Auth, campaign.ID))
	return campaign
}

func TestSendBatch_FastPace(t *testing.T) {
	f := setupCampaignTest(t)
	campaign := f.startSending(t, 10)
	require.NoError(t, f.Tenant.Model(&domain.Campaign{}).Where("id = ?", campaign.ID).
		Update("send_pace", domain.SendPaceFast).Error)

	result, err := f.Service.SendBatch(context.Background(), f.Auth, campaign.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, result.EmailsSent)
	assert.Equal(t, int64(7), result.EmailsRemaining)
	assert.False(t, result.IsCompleted)
	assert.Len(t, f.Provider.sent, 3)
}

func TestSendBatch_SlowPaceSendsOne(t *testing.T) {
	f := setupCampaignTest(t)
	campaign := f.startSending(t, 5)
	require.NoError(t, f.Tenant.Model(&domain.Campaign{}).Where("id = ?", campaign.ID).
		Update("send_pace", domain.SendPaceSlow).Error)

	result, err := f.Service.SendBatch(context.Background(), f.Auth, campaign.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, result.EmailsSent)
}

func TestSendBatch_CompletesCampaign(t *testing.T) {
	f := setupCampaignTest(t)
	campaign := f.startSending(t, 1)

	result, err := f.Service.SendBatch(context.Background(), f.Auth, campaign.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, result.EmailsSent)
	assert.True(t, result.IsCompleted)

	var stored domain.Campaign
	require.NoError(t, f.Tenant.First(&stored, "id = ?", campaign.ID).Error)
	assert.Equal(t, domain.CampaignStatusCompleted, stored.Status)

	var recipient domain.CampaignRecipient
	require.NoError(t, f.Tenant.Where("campaign_id = ?", campaign.ID).First(&recipient).Error)
	assert.Equal(t, domain.EmailStatusSent, recipient.EmailStatus)
	assert.NotNil(t, recipient.SentAt)
}

func TestSendBatch_EmptyListCompletesImmediately(t *testing.T) {
	f := setupCampaignTest(t)
	campaign := f.createStatic(t)
	require.NoError(t, f.Service.Start(context.Background(), f.Auth, campaign.ID))

	result, err := f.Service.SendBatch(context.Background(), f.Auth, campaign.ID)
	require.NoError(t, err)
	assert.True(t, result.IsCompleted)
	assert.Zero(t, result.EmailsSent)
}

func TestSendBatch_DraftNotSendable(t *testing.T) {
	f := setupCampaignTest(t)
	campaign := f.createStatic(t)

	result, err := f.Service.SendBatch(context.Background(), f.Auth, campaign.ID)
	require.NoError(t, err)
	assert.Equal(t, "campaign is not in a sendable state", result.Error)
	assert.Zero(t, result.EmailsSent)
}

func TestSendBatch_ScheduledFlipsToSending(t *testing.T) {
	f := setupCampaignTest(t)
	id := f.seedContact(t, "a@example.com", "buyer")
	at := time.Now().Add(-time.Hour)
	campaign, err := f.Service.Create(context.Background(), f.Auth, CreateInput{
		Name:              "Scheduled",
		RecipientListType: domain.RecipientListStatic,
		ScheduledAt:       &at,
		StaticContactIDs:  []uuid.UUID{id},
	})
	require.NoError(t, err)
	require.Equal(t, domain.CampaignStatusScheduled, campaign.Status)

	result, err := f.Service.SendBatch(context.Background(), f.Auth, campaign.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, result.EmailsSent)
}

func TestSendBatch_ProviderDisconnected(t *testing.T) {
	f := setupCampaignTest(t)
	campaign := f.startSending(t, 2)
	f.Provider.connected = false

	result, err := f.Service.SendBatch(context.Background(), f.Auth, campaign.ID)
	require.NoError(t, err)
	assert.Equal(t, "No email provider connected", result.Error)
}

func TestSendBatch_MissingEmailFailsWithoutProviderCall(t *testing.T) {
	f := setupCampaignTest(t)
	id := f.seedContact(t, "", "buyer")
	campaign := f.createStatic(t, id)
	require.NoError(t, f.Service.Start(context.Background(), f.Auth, campaign.ID))

	result, err := f.Service.SendBatch(context.Background(), f.Auth, campaign.ID)
	require.NoError(t, err)
	assert.Zero(t, result.EmailsSent)
	assert.Equal(t, 1, result.EmailsFailed)
	assert.Empty(t, f.Provider.sent)

	var recipient domain.CampaignRecipient
	require.NoError(t, f.Tenant.Where("campaign_id = ?", campaign.ID).First(&recipient).Error)
	assert.Equal(t, domain.EmailStatusFailed, recipient.EmailStatus)
}

func TestSendBatch_ProviderFailureMarksFailed(t *testing.T) {
	f := setupCampaignTest(t)
	campaign := f.startSending(t, 1)
	f.Provider.failAll = true

	result, err := f.Service.SendBatch(context.Background(), f.Auth, campaign.ID)
	require.NoError(t, err)
	assert.Zero(t, result.EmailsSent)
	assert.Equal(t, 1, result.EmailsFailed)
}

func TestSendBatch_PersonalizedContentOverridesBody(t *testing.T) {
	f := setupCampaignTest(t)
	campaign := f.startSending(t, 1)
	personalized := "<p>Just for you</p>"
	require.NoError(t, f.Tenant.Model(&domain.CampaignRecipient{}).
		Where("campaign_id = ?", campaign.ID).
		Update("personalized_content", personalized).Error)

	_, err := f.Service.SendBatch(context.Background(), f.Auth, campaign.ID)
	require.NoError(t, err)
	require.Len(t, f.Provider.sent, 1)
	assert.Equal(t, personalized, f.Provider.sent[0].Body)
}

func TestSendBatch_DailyCap(t *testing.T) {
	f := setupCampaignTest(t)
	campaign := f.startSending(t, 5)
	capTwo := 2
	require.NoError(t, f.Tenant.Model(&domain.Campaign{}).Where("id = ?", campaign.ID).
		Updates(map[string]interface{}{
			"send_pace":          domain.SendPaceFast,
			"max_emails_per_day": capTwo,
		}).Error)

	result, err := f.Service.SendBatch(context.Background(), f.Auth, campaign.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, result.EmailsSent)

	// Cap exhausted for today.
	result, err = f.Service.SendBatch(context.Background(), f.Auth, campaign.ID)
	require.NoError(t, err)
	assert.Zero(t, result.EmailsSent)
	assert.True(t, result.DailyLimitReached)
	assert.Equal(t, int64(3), result.EmailsRemaining)
}

func TestSendBatch_CapResetsNextDay(t *testing.T) {
	f := setupCampaignTest(t)
	now := time.Date(2026, 8, 28, 23, 0, 0, 0, time.UTC)
	f.Service.Now = func() time.Time { return now }

	campaign := f.startSending(t, 3)
	capOne := 1
	require.NoError(t, f.Tenant.Model(&domain.Campaign{}).Where("id = ?", campaign.ID).
		Update("max_emails_per_day", capOne).Error)

	result, err := f.Service.SendBatch(context.Background(), f.Auth, campaign.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, result.EmailsSent)

	result, err = f.Service.SendBatch(context.Background(), f.Auth, campaign.ID)
	require.NoError(t, err)
	assert.True(t, result.DailyLimitReached)

	now = now.Add(2 * time.Hour) // past UTC midnight
	result, err = f.Service.SendBatch(context.Background(), f.Auth, campaign.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, result.EmailsSent)
	assert.False(t, result.DailyLimitReached)
}

func TestSendBatch_SendLogAccumulates(t *testing.T) {
	f := setupCampaignTest(t)
	campaign := f.startSending(t, 4)
	require.NoError(t, f.Tenant.Model(&domain.Campaign{}).Where("id = ?", campaign.ID).
		Update("send_pace", domain.SendPaceFast).Error)

	_, err := f.Service.SendBatch(context.Background(), f.Auth, campaign.ID)
	require.NoError(t, err)
	_, err = f.Service.SendBatch(context.Background(), f.Auth, campaign.ID)
	require.NoError(t, err)

	var logs []domain.CampaignSendLog
	require.NoError(t, f.Tenant.Where("campaign_id = ?", campaign.ID).Find(&logs).Error)
	require.Len(t, logs, 1)
	assert.Equal(t, 4, logs[0].SentCount)
}

func TestStatus(t *testing.T) {
	f := setupCampaignTest(t)
	campaign := f.startSending(t, 4)

	_, err := f.Service.SendBatch(context.Background(), f.Auth, campaign.ID)
	require.NoError(t, err)

	status, err := f.Service.Status(context.Background(), f.Auth, campaign.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(4), status.Total)
	assert.Equal(t, int64(1), status.Sent)
	assert.Equal(t, int64(3), status.Pending)
	assert.Equal(t, 1, status.TodaySent)
	assert.Equal(t, DefaultDailyCap, status.DailyCap)
	assert.Equal(t, DefaultDailyCap-1, status.RemainingToday)
	assert.InDelta(t, 25.0, status.ProgressPercent, 0.01)
	assert.False(t, status.IsCompleted)
	assert.True(t, status.CanSendMoreToday)
}

func TestStatus_UnknownCampaign(t *testing.T) {
	f := setupCampaignTest(t)

	_, err := f.Service.Status(context.Background(), f.Auth, uuid.New())
	assert.Equal(t, "CampaignNotFound", apperr.CodeOf(err))
}

func TestSendTestEmail(t *testing.T) {
	f := setupCampaignTest(t)
	campaign := f.createStatic(t)

	err := f.Service.SendTestEmail(context.Background(), f.Auth, campaign.ID, "me@example.com")
	require.NoError(t, err)
	require.Len(t, f.Provider.sent, 1)
	assert.Equal(t, []string{"me@example.com"}, f.Provider.sent[0].To)
	assert.Equal(t, "[TEST] New POS portal", f.Provider.sent[0].Subject)
}

func TestSendTestEmail_ProviderFailure(t *testing.T) {
	f := setupCampaignTest(t)
	campaign := f.createStatic(t)
	f.Provider.failAll = true

	err := f.Service.SendTestEmail(context.Background(), f.Auth, campaign.ID, "me@example.com")
	require.Error(t, err)
	assert.Equal(t, "EmailSendFailed", apperr.CodeOf(err))
	assert.Equal(t, apperr.KindResourceFailure, apperr.KindOf(err))
}
