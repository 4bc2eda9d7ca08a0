package agreements

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"flowconnect-backend/internal/application/connections"
	"flowconnect-backend/internal/blob"
	"flowconnect-backend/internal/domain"
	"flowconnect-backend/internal/identity"
	"flowconnect-backend/internal/pkg/apperr"
	"flowconnect-backend/internal/tenancy"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Service stores per-connection agreement PDFs. One agreement per connected
// org; uploads upsert, deletes are hard.
type Service struct {
	Router *tenancy.Router
	Blob   blob.Store
}

type UploadInput struct {
	ConnectedOrgID uuid.UUID
	FileName       string
	Content        []byte
}

// Upload stores the agreement blob and upserts the row. Requires an accepted
// connection with the connected org.
func (s *Service) Upload(ctx context.Context, auth *identity.AuthInfo, in UploadInput) (*domain.Agreement, error) {
	var accepted *domain.Connection
	err := s.Router.WithSubscription(ctx, func(tx *gorm.DB) error {
		conns := &connections.Service{DB: tx}
		var err error
		accepted, err = conns.AcceptedConnectionFor(ctx, auth.OrgID, in.ConnectedOrgID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if accepted == nil {
		return nil, apperr.Authorization("ConnectionNotAccepted",
			"no accepted connection with organization %s", in.ConnectedOrgID)
	}

	sum := sha256.Sum256(in.Content)
	key := fmt.Sprintf("agreements/%s/%s", in.ConnectedOrgID, in.FileName)

	var agreement domain.Agreement
	err = s.Router.WithTenantOrg(ctx, auth.OrgID, func(tx *gorm.DB) error {
		var existing domain.Agreement
		err := tx.Where("connected_org_id = ?", in.ConnectedOrgID).First(&existing).Error
		if err != nil && err != gorm.ErrRecordNotFound {
			return err
		}
		if err == nil && existing.BlobKey != key {
			if delErr := s.Blob.Delete(ctx, existing.BlobKey); delErr != nil {
				log.Warn().Err(delErr).Str("blob_key", existing.BlobKey).
					Msg("failed to delete replaced agreement blob")
			}
		}

		if upErr := s.Blob.Upload(ctx, key, in.Content); upErr != nil {
			return apperr.ResourceFailure("S3Upload", upErr)
		}

		agreement = domain.Agreement{
			ConnectedOrgID: in.ConnectedOrgID,
			BlobKey:        key,
			FileName:       in.FileName,
			FileSize:       int64(len(in.Content)),
			Sha256:         hex.EncodeToString(sum[:]),
			CreatedByID:    &auth.UserID,
		}
		if err == nil {
			agreement.ID = existing.ID
			agreement.CreatedAt = existing.CreatedAt
			return tx.Model(&domain.Agreement{}).Where("id = ?", existing.ID).
				Updates(map[string]interface{}{
					"blob_key":      agreement.BlobKey,
					"file_name":     agreement.FileName,
					"file_size":     agreement.FileSize,
					"sha256":        agreement.Sha256,
					"created_by_id": agreement.CreatedByID,
				}).Error
		}
		return tx.Create(&agreement).Error
	})
	if err != nil {
		return nil, err
	}
	return &agreement, nil
}

// Get returns the agreement for a connected org with a presigned download
// URL, or nil when none exists.
func (s *Service) Get(ctx context.Context, auth *identity.AuthInfo, connectedOrgID uuid.UUID) (*domain.Agreement, string, error) {
	var agreement *domain.Agreement
	err := s.Router.WithTenantOrg(ctx, auth.OrgID, func(tx *gorm.DB) error {
		var row domain.Agreement
		err := tx.Where("connected_org_id = ?", connectedOrgID).First(&row).Error
		if err == gorm.ErrRecordNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		agreement = &row
		return nil
	})
	if err != nil {
		return nil, "", err
	}
	if agreement == nil {
		return nil, "", nil
	}
	url, err := s.Blob.GeneratePresignedURL(ctx, agreement.BlobKey)
	if err != nil {
		return nil, "", apperr.ResourceFailure("S3Upload", err)
	}
	return agreement, url, nil
}

// Delete removes the blob and then the row.
func (s *Service) Delete(ctx context.Context, auth *identity.AuthInfo, connectedOrgID uuid.UUID) error {
	return s.Router.WithTenantOrg(ctx, auth.OrgID, func(tx *gorm.DB) error {
		var agreement domain.Agreement
		err := tx.Where("connected_org_id = ?", connectedOrgID).First(&agreement).Error
		if err == gorm.ErrRecordNotFound {
			return apperr.NotFound("AgreementNotFound", "no agreement for organization %s", connectedOrgID)
		}
		if err != nil {
			return err
		}
		if delErr := s.Blob.Delete(ctx, agreement.BlobKey); delErr != nil {
			log.Warn().Err(delErr).Str("blob_key", agreement.BlobKey).
				Msg("failed to delete agreement blob")
		}
		return tx.Delete(&domain.Agreement{}, "id = ?", agreement.ID).Error
	})
}
