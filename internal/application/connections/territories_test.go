package connections

import (
	"context"
	"testing"

	"flowconnect-backend/internal/domain"
	"flowconnect-backend/internal/pkg/apperr"
	"flowconnect-backend/internal/tenancy"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type territoryFixture struct {
	Service *TerritoryService
	Sub     *gorm.DB
	Tenant  *gorm.DB

	ManufacturerID uuid.UUID
	RepFirmID      uuid.UUID
	ConnectionID   uuid.UUID
}

func setupTerritoryTest(t *testing.T) *territoryFixture {
	sub, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, sub.AutoMigrate(
		&domain.Tenant{},
		&domain.Organization{},
		&domain.Connection{},
	))

	tenant, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, tenant.AutoMigrate(&domain.ConnectionTerritory{}))

	router := tenancy.NewRouter(sub, func(url string) (*gorm.DB, error) {
		return tenant, nil
	})

	mfr := domain.Organization{Name: "Maker Industries", OrgType: domain.OrgTypeManufacturer}
	rep := domain.Organization{Name: "Coastal Reps", OrgType: domain.OrgTypeRepFirm}
	require.NoError(t, sub.Create(&mfr).Error)
	require.NoError(t, sub.Create(&rep).Error)
	require.NoError(t, sub.Create(&domain.Tenant{
		OrgID: mfr.ID, URL: "tenant-mfr", Status: domain.TenantStatusActive,
	}).Error)

	conn := domain.Connection{
		RequesterOrgID: mfr.ID,
		TargetOrgID:    rep.ID,
		Status:         domain.ConnectionStatusAccepted,
	}
	require.NoError(t, sub.Create(&conn).Error)

	svc := &TerritoryService{
		Router:      router,
		Connections: &Service{DB: sub},
		OrgTypeOf: func(ctx context.Context, orgID uuid.UUID) (string, error) {
			var org domain.Organization
			if err := sub.Where("id = ?", orgID).First(&org).Error; err != nil {
				return "", err
			}
			return org.OrgType, nil
		},
	}
	return &territoryFixture{
		Service:        svc,
		Sub:            sub,
		Tenant:         tenant,
		ManufacturerID: mfr.ID,
		RepFirmID:      rep.ID,
		ConnectionID:   conn.ID,
	}
}

func TestSetTerritories(t *testing.T) {
	f := setupTerritoryTest(t)
	subdivisions := []uuid.UUID{uuid.New(), uuid.New()}

	err := f.Service.SetTerritories(context.Background(), f.ManufacturerID, f.ConnectionID, subdivisions)
	require.NoError(t, err)

	ids, err := f.Service.ListTerritories(context.Background(), f.ManufacturerID, f.ConnectionID)
	require.NoError(t, err)
	assert.ElementsMatch(t, subdivisions, ids)
}

func TestSetTerritories_ReplacesExisting(t *testing.T) {
	f := setupTerritoryTest(t)

	first := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	require.NoError(t, f.Service.SetTerritories(context.Background(), f.ManufacturerID, f.ConnectionID, first))

	second := []uuid.UUID{uuid.New()}
	require.NoError(t, f.Service.SetTerritories(context.Background(), f.ManufacturerID, f.ConnectionID, second))

	ids, err := f.Service.ListTerritories(context.Background(), f.ManufacturerID, f.ConnectionID)
	require.NoError(t, err)
	assert.ElementsMatch(t, second, ids)
}

func TestSetTerritories_EmptyClearsAll(t *testing.T) {
	f := setupTerritoryTest(t)

	require.NoError(t, f.Service.SetTerritories(context.Background(), f.ManufacturerID, f.ConnectionID, []uuid.UUID{uuid.New()}))
	require.NoError(t, f.Service.SetTerritories(context.Background(), f.ManufacturerID, f.ConnectionID, nil))

	ids, err := f.Service.ListTerritories(context.Background(), f.ManufacturerID, f.ConnectionID)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestSetTerritories_RepFirmRejected(t *testing.T) {
	f := setupTerritoryTest(t)

	err := f.Service.SetTerritories(context.Background(), f.RepFirmID, f.ConnectionID, []uuid.UUID{uuid.New()})
	require.Error(t, err)
	assert.Equal(t, apperr.KindAuthorization, apperr.KindOf(err))
}

func TestSetTerritories_UnknownConnection(t *testing.T) {
	f := setupTerritoryTest(t)

	err := f.Service.SetTerritories(context.Background(), f.ManufacturerID, uuid.New(), []uuid.UUID{uuid.New()})
	assert.Equal(t, "ConnectionNotFound", apperr.CodeOf(err))
}

func TestSetTerritories_UninvolvedManufacturerRejected(t *testing.T) {
	f := setupTerritoryTest(t)
	outsider := domain.Organization{Name: "Other Makers", OrgType: domain.OrgTypeManufacturer}
	require.NoError(t, f.Sub.Create(&outsider).Error)
	require.NoError(t, f.Sub.Create(&domain.Tenant{
		OrgID: outsider.ID, URL: "tenant-other", Status: domain.TenantStatusActive,
	}).Error)

	err := f.Service.SetTerritories(context.Background(), outsider.ID, f.ConnectionID, []uuid.UUID{uuid.New()})
	require.Error(t, err)
	assert.Equal(t, apperr.KindAuthorization, apperr.KindOf(err))
}
