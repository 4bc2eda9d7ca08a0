package agreements

import (
	"context"
	"testing"

	"flowconnect-backend/internal/blob"
	"flowconnect-backend/internal/domain"
	"flowconnect-backend/internal/identity"
	"flowconnect-backend/internal/pkg/apperr"
	"flowconnect-backend/internal/tenancy"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type agreementFixture struct {
	Service *Service
	Aliases *AliasService
	Blob    *blob.MemoryStore
	Sub     *gorm.DB
	Tenant  *gorm.DB

	OrgID        uuid.UUID
	ConnectedOrg uuid.UUID
	Auth         *identity.AuthInfo
}

func setupAgreementTest(t *testing.T) *agreementFixture {
	sub, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, sub.AutoMigrate(
		&domain.Tenant{},
		&domain.Organization{},
		&domain.Connection{},
		&domain.OrganizationAlias{},
	))

	tenant, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, tenant.AutoMigrate(&domain.Agreement{}))

	router := tenancy.NewRouter(sub, func(url string) (*gorm.DB, error) {
		return tenant, nil
	})

	orgID := uuid.New()
	connectedOrg := uuid.New()
	require.NoError(t, sub.Create(&domain.Tenant{
		OrgID:  orgID,
		URL:    "tenant-agreements",
		Status: domain.TenantStatusActive,
	}).Error)
	require.NoError(t, sub.Create(&domain.Organization{
		ID: connectedOrg, Name: "Acme Distribution", OrgType: domain.OrgTypeDistributor,
	}).Error)
	require.NoError(t, sub.Create(&domain.Connection{
		RequesterOrgID: orgID,
		TargetOrgID:    connectedOrg,
		Status:         domain.ConnectionStatusAccepted,
	}).Error)

	store := blob.NewMemoryStore()
	return &agreementFixture{
		Service:      &Service{Router: router, Blob: store},
		Aliases:      &AliasService{Router: router},
		Blob:         store,
		Sub:          sub,
		Tenant:       tenant,
		OrgID:        orgID,
		ConnectedOrg: connectedOrg,
		Auth:         &identity.AuthInfo{UserID: uuid.New(), OrgID: orgID},
	}
}

func TestUploadAgreement(t *testing.T) {
	f := setupAgreementTest(t)

	agreement, err := f.Service.Upload(context.Background(), f.Auth, UploadInput{
		ConnectedOrgID: f.ConnectedOrg,
		FileName:       "terms.pdf",
		Content:        []byte("%PDF-1.7"),
	})
	require.NoError(t, err)
	assert.Equal(t, "agreements/"+f.ConnectedOrg.String()+"/terms.pdf", agreement.BlobKey)
	assert.Contains(t, f.Blob.Objects, agreement.BlobKey)
}

func TestUploadAgreement_NotConnected(t *testing.T) {
	f := setupAgreementTest(t)

	_, err := f.Service.Upload(context.Background(), f.Auth, UploadInput{
		ConnectedOrgID: uuid.New(),
		FileName:       "terms.pdf",
		Content:        []byte("%PDF-1.7"),
	})
	require.Error(t, err)
	assert.Equal(t, "ConnectionNotAccepted", apperr.CodeOf(err))
	assert.Equal(t, apperr.KindAuthorization, apperr.KindOf(err))
}

func TestUploadAgreement_PendingConnectionRejected(t *testing.T) {
	f := setupAgreementTest(t)
	pendingOrg := uuid.New()
	require.NoError(t, f.Sub.Create(&domain.Connection{
		RequesterOrgID: f.OrgID,
		TargetOrgID:    pendingOrg,
		Status:         domain.ConnectionStatusPending,
	}).Error)

	_, err := f.Service.Upload(context.Background(), f.Auth, UploadInput{
		ConnectedOrgID: pendingOrg,
		FileName:       "terms.pdf",
		Content:        []byte("%PDF-1.7"),
	})
	assert.Equal(t, "ConnectionNotAccepted", apperr.CodeOf(err))
}

func TestUploadAgreement_ReplacementDeletesOldBlob(t *testing.T) {
	f := setupAgreementTest(t)

	first, err := f.Service.Upload(context.Background(), f.Auth, UploadInput{
		ConnectedOrgID: f.ConnectedOrg,
		FileName:       "terms-v1.pdf",
		Content:        []byte("%PDF-1.7 v1"),
	})
	require.NoError(t, err)

	second, err := f.Service.Upload(context.Background(), f.Auth, UploadInput{
		ConnectedOrgID: f.ConnectedOrg,
		FileName:       "terms-v2.pdf",
		Content:        []byte("%PDF-1.7 v2"),
	})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Contains(t, f.Blob.Deleted, first.BlobKey)

	var count int64
	require.NoError(t, f.Tenant.Model(&domain.Agreement{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestGetAgreement(t *testing.T) {
	f := setupAgreementTest(t)

	uploaded, err := f.Service.Upload(context.Background(), f.Auth, UploadInput{
		ConnectedOrgID: f.ConnectedOrg,
		FileName:       "terms.pdf",
		Content:        []byte("%PDF-1.7"),
	})
	require.NoError(t, err)

	agreement, url, err := f.Service.Get(context.Background(), f.Auth, f.ConnectedOrg)
	require.NoError(t, err)
	require.NotNil(t, agreement)
	assert.Equal(t, uploaded.ID, agreement.ID)
	assert.Equal(t, "https://blobs.local/"+uploaded.BlobKey+"?signed=1", url)
}

func TestGetAgreement_NoneIsNil(t *testing.T) {
	f := setupAgreementTest(t)

	agreement, url, err := f.Service.Get(context.Background(), f.Auth, f.ConnectedOrg)
	require.NoError(t, err)
	assert.Nil(t, agreement)
	assert.Empty(t, url)
}

func TestDeleteAgreement(t *testing.T) {
	f := setupAgreementTest(t)

	uploaded, err := f.Service.Upload(context.Background(), f.Auth, UploadInput{
		ConnectedOrgID: f.ConnectedOrg,
		FileName:       "terms.pdf",
		Content:        []byte("%PDF-1.7"),
	})
	require.NoError(t, err)

	require.NoError(t, f.Service.Delete(context.Background(), f.Auth, f.ConnectedOrg))
	assert.Contains(t, f.Blob.Deleted, uploaded.BlobKey)

	err = f.Service.Delete(context.Background(), f.Auth, f.ConnectedOrg)
	assert.Equal(t, "AgreementNotFound", apperr.CodeOf(err))
}
