package connections

import (
	"context"

	"flowconnect-backend/internal/domain"
	"flowconnect-backend/internal/pkg/apperr"
	"flowconnect-backend/internal/tenancy"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TerritoryService manages subdivision assignments on a connection. Rows live
// in the manufacturer's tenant database.
type TerritoryService struct {
	Router      *tenancy.Router
	Connections *Service
	OrgTypeOf   func(ctx context.Context, orgID uuid.UUID) (string, error)
}

// SetTerritories replaces the full subdivision set for a connection: delete
// existing rows, insert the new ones, one transaction. Only the manufacturer
// side of the connection may write.
func (t *TerritoryService) SetTerritories(ctx context.Context, callerOrg uuid.UUID, connectionID uuid.UUID, subdivisionIDs []uuid.UUID) error {
	orgType, err := t.OrgTypeOf(ctx, callerOrg)
	if err != nil {
		return err
	}
	if orgType != domain.OrgTypeManufacturer {
		return apperr.Authorization("Unauthorized", "only the manufacturer may assign territories")
	}

	var conn domain.Connection
	err = t.Router.Subscription().WithContext(ctx).
		Where("id = ?", connectionID).First(&conn).Error
	if err == gorm.ErrRecordNotFound {
		return apperr.NotFound("ConnectionNotFound", "connection %s not found", connectionID)
	}
	if err != nil {
		return err
	}
	if conn.RequesterOrgID != callerOrg && conn.TargetOrgID != callerOrg {
		return apperr.Authorization("Unauthorized", "connection does not involve caller's organization")
	}

	return t.Router.WithTenantOrg(ctx, callerOrg, func(tx *gorm.DB) error {
		if err := tx.Where("connection_id = ?", connectionID).
			Delete(&domain.ConnectionTerritory{}).Error; err != nil {
			return err
		}
		for _, subID := range subdivisionIDs {
			row := domain.ConnectionTerritory{ConnectionID: connectionID, SubdivisionID: subID}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// ListTerritories returns the subdivision ids assigned to a connection.
func (t *TerritoryService) ListTerritories(ctx context.Context, ownerOrg uuid.UUID, connectionID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := t.Router.WithTenantOrg(ctx, ownerOrg, func(tx *gorm.DB) error {
		return tx.Model(&domain.ConnectionTerritory{}).
			Where("connection_id = ?", connectionID).
			Pluck("subdivision_id", &ids).Error
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}
