package search

import (
	"context"
	"testing"

	"flowconnect-backend/internal/application/connections"
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

type searchFixture struct {
	Service *Service
	Sub     *gorm.DB
	Tenant  *gorm.DB
	Blob    *blob.MemoryStore
	OrgID   uuid.UUID
	Auth    *identity.AuthInfo
}

func setupSearchTest(t *testing.T) *searchFixture {
	sub, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, sub.AutoMigrate(
		&domain.Organization{},
		&domain.Tenant{},
		&domain.Connection{},
		&domain.User{},
		&domain.AppRole{},
		&domain.UserAppRole{},
	))

	tenant, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, tenant.AutoMigrate(&domain.Agreement{}, &domain.ConnectionTerritory{}))

	router := tenancy.NewRouter(sub, func(url string) (*gorm.DB, error) {
		return tenant, nil
	})

	orgID := uuid.New()
	require.NoError(t, sub.Create(&domain.Organization{
		ID: orgID, Name: "Maker Industries", OrgType: domain.OrgTypeManufacturer, Status: domain.OrgStatusActive,
	}).Error)
	require.NoError(t, sub.Create(&domain.Tenant{
		OrgID: orgID, URL: "tenant-search", Status: domain.TenantStatusActive,
	}).Error)

	store := blob.NewMemoryStore()
	return &searchFixture{
		Service: &Service{
			DB:          sub,
			Router:      router,
			Blob:        store,
			Connections: &connections.Service{DB: sub},
		},
		Sub:    sub,
		Tenant: tenant,
		Blob:   store,
		OrgID:  orgID,
		Auth:   &identity.AuthInfo{UserID: uuid.New(), OrgID: orgID},
	}
}

func (f *searchFixture) seedOrg(t *testing.T, name, orgType, status string) uuid.UUID {
	org := domain.Organization{Name: name, OrgType: orgType, Status: status}
	require.NoError(t, f.Sub.Create(&org).Error)
	return org.ID
}

func TestSearch_ComplementaryType(t *testing.T) {
	f := setupSearchTest(t)
	distID := f.seedOrg(t, "Southern Distribution", domain.OrgTypeDistributor, domain.OrgStatusActive)
	f.seedOrg(t, "Southern Manufacturing", domain.OrgTypeManufacturer, domain.OrgStatusActive)

	results, err := f.Service.SearchForConnections(context.Background(), f.Auth, "southern", Options{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, distID, results[0].Org.ID)
	assert.False(t, results[0].TenantExists)
	assert.False(t, results[0].ConnectionExists)
}

func TestSearch_TermIsCaseInsensitive(t *testing.T) {
	f := setupSearchTest(t)
	f.seedOrg(t, "ACME Distribution", domain.OrgTypeDistributor, domain.OrgStatusActive)

	results, err := f.Service.SearchForConnections(context.Background(), f.Auth, "acme", Options{})
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestSearch_ActiveFilter(t *testing.T) {
	f := setupSearchTest(t)
	f.seedOrg(t, "Sleepy Distribution", domain.OrgTypeDistributor, "inactive")

	results, err := f.Service.SearchForConnections(context.Background(), f.Auth, "sleepy", Options{Active: true})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearch_TenantAndConnectionFlags(t *testing.T) {
	f := setupSearchTest(t)
	distID := f.seedOrg(t, "Flagged Distribution", domain.OrgTypeDistributor, domain.OrgStatusActive)
	require.NoError(t, f.Sub.Create(&domain.Tenant{
		OrgID: distID, URL: "tenant-dist", Status: domain.TenantStatusActive,
	}).Error)
	require.NoError(t, f.Sub.Create(&domain.Connection{
		RequesterOrgID: distID, TargetOrgID: f.OrgID, Status: domain.ConnectionStatusPending,
	}).Error)

	results, err := f.Service.SearchForConnections(context.Background(), f.Auth, "flagged", Options{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, results[0].TenantExists)
	assert.True(t, results[0].ConnectionExists)
	require.NotNil(t, results[0].ConnectionStatus)
	assert.Equal(t, domain.ConnectionStatusPending, *results[0].ConnectionStatus)
}

func TestSearch_DeclinedConnectionIgnored(t *testing.T) {
	f := setupSearchTest(t)
	distID := f.seedOrg(t, "Declined Distribution", domain.OrgTypeDistributor, domain.OrgStatusActive)
	require.NoError(t, f.Sub.Create(&domain.Connection{
		RequesterOrgID: f.OrgID, TargetOrgID: distID, Status: domain.ConnectionStatusDeclined,
	}).Error)

	results, err := f.Service.SearchForConnections(context.Background(), f.Auth, "declined", Options{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.False(t, results[0].ConnectionExists)
	assert.Nil(t, results[0].ConnectionStatus)
}

func TestSearch_IsConnectedFilter(t *testing.T) {
	f := setupSearchTest(t)
	connectedID := f.seedOrg(t, "Paired Distribution", domain.OrgTypeDistributor, domain.OrgStatusActive)
	f.seedOrg(t, "Paired Logistics", domain.OrgTypeDistributor, domain.OrgStatusActive)
	require.NoError(t, f.Sub.Create(&domain.Connection{
		RequesterOrgID: f.OrgID, TargetOrgID: connectedID, Status: domain.ConnectionStatusAccepted,
	}).Error)

	yes := true
	results, err := f.Service.SearchForConnections(context.Background(), f.Auth, "paired", Options{IsConnected: &yes})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, connectedID, results[0].Org.ID)

	no := false
	results, err = f.Service.SearchForConnections(context.Background(), f.Auth, "paired", Options{IsConnected: &no})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.NotEqual(t, connectedID, results[0].Org.ID)
}

func TestSearch_IsMemberFilter(t *testing.T) {
	f := setupSearchTest(t)
	memberID := f.seedOrg(t, "Member Distribution", domain.OrgTypeDistributor, domain.OrgStatusActive)
	f.seedOrg(t, "Member Supply", domain.OrgTypeDistributor, domain.OrgStatusActive)
	require.NoError(t, f.Sub.Create(&domain.Tenant{
		OrgID: memberID, URL: "tenant-member", Status: domain.TenantStatusActive,
	}).Error)

	yes := true
	results, err := f.Service.SearchForConnections(context.Background(), f.Auth, "member", Options{IsMember: &yes})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, memberID, results[0].Org.ID)
}

func TestSearch_RepFirmsRequiresManufacturer(t *testing.T) {
	f := setupSearchTest(t)
	require.NoError(t, f.Sub.Model(&domain.Organization{}).
		Where("id = ?", f.OrgID).
		Update("org_type", domain.OrgTypeDistributor).Error)

	_, err := f.Service.SearchForConnections(context.Background(), f.Auth, "", Options{RepFirms: true})
	assert.Equal(t, "InvalidSearchType", apperr.CodeOf(err))
}

func TestSearch_RepFirms(t *testing.T) {
	f := setupSearchTest(t)
	repID := f.seedOrg(t, "Coastal Reps", domain.OrgTypeRepFirm, domain.OrgStatusActive)
	f.seedOrg(t, "Coastal Distribution", domain.OrgTypeDistributor, domain.OrgStatusActive)

	results, err := f.Service.SearchForConnections(context.Background(), f.Auth, "coastal", Options{RepFirms: true})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, repID, results[0].Org.ID)
}

func TestSearch_AcceptedConnectionGetsAgreementURL(t *testing.T) {
	f := setupSearchTest(t)
	distID := f.seedOrg(t, "Signed Distribution", domain.OrgTypeDistributor, domain.OrgStatusActive)
	require.NoError(t, f.Sub.Create(&domain.Connection{
		RequesterOrgID: f.OrgID, TargetOrgID: distID, Status: domain.ConnectionStatusAccepted,
	}).Error)

	key := "agreements/" + distID.String() + "/terms.pdf"
	require.NoError(t, f.Blob.Upload(context.Background(), key, []byte("%PDF-1.7")))
	require.NoError(t, f.Tenant.Create(&domain.Agreement{
		ConnectedOrgID: distID,
		BlobKey:        key,
		FileName:       "terms.pdf",
		FileSize:       8,
		Sha256:         "abc",
	}).Error)

	results, err := f.Service.SearchForConnections(context.Background(), f.Auth, "signed", Options{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.NotNil(t, results[0].AgreementURL)
	assert.Equal(t, "https://blobs.local/"+key+"?signed=1", *results[0].AgreementURL)
}

func TestSearch_PosContacts(t *testing.T) {
	f := setupSearchTest(t)
	distID := f.seedOrg(t, "Staffed Distribution", domain.OrgTypeDistributor, domain.OrgStatusActive)

	role := domain.AppRole{Name: domain.PosContactRole}
	require.NoError(t, f.Sub.Create(&role).Error)
	for _, email := range []string{"a@staffed.example", "b@staffed.example"} {
		user := domain.User{Email: email, FirstName: "Pat"}
		require.NoError(t, f.Sub.Create(&user).Error)
		require.NoError(t, f.Sub.Create(&domain.UserAppRole{
			UserID: user.ID, OrgID: distID, AppRoleID: role.ID,
		}).Error)
	}

	results, err := f.Service.SearchForConnections(context.Background(), f.Auth, "staffed", Options{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 2, results[0].PosContacts.TotalCount)
	require.Len(t, results[0].PosContacts.Contacts, 2)
	assert.Equal(t, "a@staffed.example", results[0].PosContacts.Contacts[0].Email)
}
