package exchange

import (
	"context"

	"flowconnect-backend/internal/blob"
	"flowconnect-backend/internal/domain"
	"flowconnect-backend/internal/identity"
	"flowconnect-backend/internal/pkg/apperr"
	"flowconnect-backend/internal/tenancy"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ReceivedService is the recipient side of the exchange: listing and
// downloading files other orgs have delivered into this tenant.
type ReceivedService struct {
	Router *tenancy.Router
	Blob   blob.Store
}

// ReceivedFilter narrows the received-file listing.
type ReceivedFilter struct {
	Period      *string
	SenderOrgID *uuid.UUID
}

// List returns received files, newest first.
func (s *ReceivedService) List(ctx context.Context, auth *identity.AuthInfo, filter ReceivedFilter) ([]domain.ReceivedExchangeFile, error) {
	var files []domain.ReceivedExchangeFile
	err := s.Router.WithTenantOrg(ctx, auth.OrgID, func(tx *gorm.DB) error {
		q := tx.Order("created_at DESC")
		if filter.Period != nil {
			q = q.Where("reporting_period = ?", *filter.Period)
		}
		if filter.SenderOrgID != nil {
			q = q.Where("sender_org_id = ?", *filter.SenderOrgID)
		}
		return q.Find(&files).Error
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// Download issues a presigned URL for a received file and flips its status to
// downloaded. Lookup and status flip share one transactional scope.
func (s *ReceivedService) Download(ctx context.Context, auth *identity.AuthInfo, fileID uuid.UUID) (string, error) {
	var url string
	err := s.Router.WithTenantOrg(ctx, auth.OrgID, func(tx *gorm.DB) error {
		var file domain.ReceivedExchangeFile
		err := tx.Where("id = ?", fileID).First(&file).Error
		if err == gorm.ErrRecordNotFound {
			return apperr.NotFound("ReceivedExchangeFileNotFound", "received file %s not found", fileID)
		}
		if err != nil {
			return err
		}

		url, err = s.Blob.GeneratePresignedURL(ctx, file.BlobKey)
		if err != nil {
			return apperr.ResourceFailure("S3Upload", err)
		}

		if file.Status == domain.ReceivedFileStatusNew {
			return tx.Model(&domain.ReceivedExchangeFile{}).
				Where("id = ?", fileID).
				Update("status", domain.ReceivedFileStatusDownloaded).Error
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return url, nil
}
