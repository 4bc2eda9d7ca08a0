package exchange

import (
	"context"
	"strings"

	"flowconnect-backend/internal/application/preferences"
	"flowconnect-backend/internal/domain"
	"flowconnect-backend/internal/partnerapi"
	"flowconnect-backend/internal/pkg/apperr"
	"flowconnect-backend/internal/tenancy"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Deliverer cross-writes sent files into each target tenant's
// received_exchange_files table. Targets are processed sequentially; a
// failure on one target never blocks the rest.
//
// Partner and Preferences are optional: when both are set, targets whose
// "receiving_method" preference is "api" get a partner-API notification after
// the cross-write.
type Deliverer struct {
	Router      *tenancy.Router
	Partner     *partnerapi.Client
	Preferences *preferences.Service
}

// DeliverFiles delivers every file to every target. Missing tenants and
// per-target failures are logged and skipped; duplicate deliveries (unique
// blob_key) count as success.
func (d *Deliverer) DeliverFiles(ctx context.Context, senderOrgID uuid.UUID, files []domain.ExchangeFile) {
	for _, file := range files {
		for _, target := range file.TargetOrgs {
			if err := d.deliverOne(ctx, senderOrgID, &file, target.ConnectedOrgID); err != nil {
				log.Error().Err(err).
					Str("file_id", file.ID.String()).
					Str("target_org_id", target.ConnectedOrgID.String()).
					Msg("cross-tenant delivery failed")
			}
		}
	}
}

func (d *Deliverer) deliverOne(ctx context.Context, senderOrgID uuid.UUID, file *domain.ExchangeFile, targetOrgID uuid.UUID) error {
	url, err := d.Router.TenantURLFor(ctx, targetOrgID)
	if err != nil {
		if apperr.Is(err, "TenantUnknown") {
			log.Warn().
				Str("target_org_id", targetOrgID.String()).
				Str("file_id", file.ID.String()).
				Msg("target org has no tenant, skipping delivery")
			return nil
		}
		return err
	}

	err = d.Router.WithTenant(ctx, url, func(tx *gorm.DB) error {
		received := domain.ReceivedExchangeFile{
			SenderOrgID:     senderOrgID,
			BlobKey:         file.BlobKey,
			FileName:        file.FileName,
			FileSize:        file.FileSize,
			Sha256:          file.Sha256,
			FileType:        file.FileType,
			RowCount:        file.RowCount,
			ReportingPeriod: file.ReportingPeriod,
			IsPos:           file.IsPos,
			IsPot:           file.IsPot,
			Status:          domain.ReceivedFileStatusNew,
		}
		return tx.Create(&received).Error
	})
	if err != nil {
		if isDuplicate(err) {
			// Redelivery of the same blob key: already there, nothing to do.
			return nil
		}
		return err
	}

	d.notifyTarget(ctx, senderOrgID, file, targetOrgID)
	return nil
}

// notifyTarget pushes a delivery notification to the partner API for targets
// that opted into API receiving. Best effort.
func (d *Deliverer) notifyTarget(ctx context.Context, senderOrgID uuid.UUID, file *domain.ExchangeFile, targetOrgID uuid.UUID) {
	if d.Partner == nil || d.Preferences == nil {
		return
	}
	method, err := d.Preferences.Get(ctx, targetOrgID, preferences.ApplicationPOS, "receiving_method")
	if err != nil || method == nil || *method != "api" {
		return
	}
	_, err = d.Partner.Post(ctx, "/v1/file-deliveries", map[string]interface{}{
		"sender_org_id":    senderOrgID.String(),
		"recipient_org_id": targetOrgID.String(),
		"file_name":        file.FileName,
		"file_type":        file.FileType,
		"sha256":           file.Sha256,
		"reporting_period": file.ReportingPeriod,
		"row_count":        file.RowCount,
	})
	if err != nil {
		log.Warn().Err(err).
			Str("target_org_id", targetOrgID.String()).
			Str("file_id", file.ID.String()).
			Msg("partner api notification failed")
	}
}

// isDuplicate detects a unique-constraint violation across drivers
// (Postgres "duplicate key ... unique constraint", SQLite "UNIQUE
// constraint failed").
func isDuplicate(err error) bool {
	if err == nil {
		return false
	}
	if err == gorm.ErrDuplicatedKey {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique")
}
