package exchange

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"strings"

	"flowconnect-backend/internal/blob"
	"flowconnect-backend/internal/domain"
	"flowconnect-backend/internal/identity"
	"flowconnect-backend/internal/pkg/apperr"
	"flowconnect-backend/internal/tenancy"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Service is the file ingestion and validation pipeline. Uploads land in the
// caller's tenant database; validation runs detached from the uploading
// request.
type Service struct {
	Router    *tenancy.Router
	Blob      blob.Store
	Validator Validator
	Deliverer *Deliverer

	// SyncValidation runs validation inline instead of in a background
	// goroutine. Tests use this to observe the final validation state.
	SyncValidation bool
}

// UploadFile is one file in an upload request.
type UploadFile struct {
	Name string
	Data []byte
}

// UploadInput carries the shared metadata of an upload.
type UploadInput struct {
	Files           []UploadFile
	ReportingPeriod string
	IsPos           bool
	IsPot           bool
	TargetOrgIDs    []uuid.UUID
}

var allowedExtensions = map[string]bool{
	domain.FileTypeCSV:  true,
	domain.FileTypeXLS:  true,
	domain.FileTypeXLSX: true,
}

// Upload validates, stores, and registers each file, then enqueues background
// validation. It returns before validation completes.
func (s *Service) Upload(ctx context.Context, auth *identity.AuthInfo, in UploadInput) ([]domain.ExchangeFile, error) {
	var out []domain.ExchangeFile
	for _, f := range in.Files {
		ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(f.Name)), ".")
		if !allowedExtensions[ext] {
			return nil, apperr.Validation("InvalidFileType", "file type %q is not supported (csv, xls, xlsx)", ext)
		}

		sum := sha256.Sum256(f.Data)
		sha := hex.EncodeToString(sum[:])
		rowCount := countRows(ext, f.Data)
		key := fmt.Sprintf("exchange-files/%s/%s.%s", auth.OrgID, sha, ext)

		file := domain.ExchangeFile{
			BlobKey:          key,
			FileName:         f.Name,
			FileSize:         int64(len(f.Data)),
			Sha256:           sha,
			FileType:         ext,
			RowCount:         rowCount,
			ReportingPeriod:  in.ReportingPeriod,
			IsPos:            in.IsPos,
			IsPot:            in.IsPot,
			Status:           domain.ExchangeFileStatusPending,
			ValidationStatus: domain.ValidationStatusNotValidated,
			CreatedByID:      &auth.UserID,
		}

		err := s.Router.WithTenantOrg(ctx, auth.OrgID, func(tx *gorm.DB) error {
			var dupes int64
			err := tx.Model(&domain.ExchangeFile{}).
				Joins("JOIN exchange_file_target_orgs t ON t.exchange_file_id = exchange_files.id").
				Where("exchange_files.sha256 = ? AND exchange_files.status = ? AND t.connected_org_id IN ?",
					sha, domain.ExchangeFileStatusPending, in.TargetOrgIDs).
				Count(&dupes).Error
			if err != nil {
				return err
			}
			if dupes > 0 {
				return apperr.Conflict("DuplicateFileForTarget", "a pending file with identical content already targets one of these organizations")
			}

			if err := s.Blob.Upload(ctx, key, f.Data); err != nil {
				return apperr.ResourceFailure("S3Upload", err)
			}

			if err := tx.Create(&file).Error; err != nil {
				return err
			}
			for _, target := range in.TargetOrgIDs {
				row := domain.ExchangeFileTargetOrg{ExchangeFileID: file.ID, ConnectedOrgID: target}
				if err := tx.Create(&row).Error; err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return nil, err
		}

		s.enqueueValidation(auth.OrgID, file, f.Data)
		out = append(out, file)
	}
	return out, nil
}

// enqueueValidation kicks off background validation for an uploaded file. The
// task acquires its own tenant session and may finish after the uploading
// request has returned.
func (s *Service) enqueueValidation(orgID uuid.UUID, file domain.ExchangeFile, data []byte) {
	if s.SyncValidation {
		s.RunValidation(context.Background(), orgID, file.ID, data)
		return
	}
	go s.RunValidation(context.Background(), orgID, file.ID, data)
}

// RunValidation validates one file: flip to validating, clear prior issues,
// write fresh ones, settle on valid/invalid. Clearing first makes reruns
// idempotent. Failures are logged, never propagated.
func (s *Service) RunValidation(ctx context.Context, orgID uuid.UUID, fileID uuid.UUID, data []byte) {
	err := s.Router.WithTenantOrg(ctx, orgID, func(tx *gorm.DB) error {
		var file domain.ExchangeFile
		if err := tx.Where("id = ?", fileID).First(&file).Error; err != nil {
			return err
		}
		if err := tx.Model(&domain.ExchangeFile{}).Where("id = ?", fileID).
			Update("validation_status", domain.ValidationStatusValidating).Error; err != nil {
			return err
		}
		if err := tx.Where("exchange_file_id = ?", fileID).
			Delete(&domain.FileValidationIssue{}).Error; err != nil {
			return err
		}

		issues, err := s.Validator.Validate(ctx, &file, data)
		if err != nil {
			return err
		}

		status := domain.ValidationStatusValid
		for i := range issues {
			issues[i].ExchangeFileID = fileID
			if IsBlockingKey(issues[i].ValidationKey) {
				status = domain.ValidationStatusInvalid
			}
			if err := tx.Create(&issues[i]).Error; err != nil {
				return err
			}
		}
		return tx.Model(&domain.ExchangeFile{}).Where("id = ?", fileID).
			Update("validation_status", status).Error
	})
	if err != nil {
		log.Error().Err(err).Str("file_id", fileID.String()).Msg("file validation failed")
	}
}

// Delete removes a pending file belonging to the caller's org.
func (s *Service) Delete(ctx context.Context, auth *identity.AuthInfo, fileID uuid.UUID) error {
	return s.Router.WithTenantOrg(ctx, auth.OrgID, func(tx *gorm.DB) error {
		var file domain.ExchangeFile
		err := tx.Where("id = ?", fileID).First(&file).Error
		if err == gorm.ErrRecordNotFound {
			return apperr.NotFound("ExchangeFileNotFound", "exchange file %s not found", fileID)
		}
		if err != nil {
			return err
		}
		if file.Status == domain.ExchangeFileStatusSent {
			return apperr.Validation("CannotDeleteSentFile", "sent files cannot be deleted")
		}
		if err := tx.Where("exchange_file_id = ?", fileID).Delete(&domain.ExchangeFileTargetOrg{}).Error; err != nil {
			return err
		}
		if err := tx.Where("exchange_file_id = ?", fileID).Delete(&domain.FileValidationIssue{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&file).Error; err != nil {
			return err
		}
		if err := s.Blob.Delete(ctx, file.BlobKey); err != nil {
			log.Warn().Err(err).Str("blob_key", file.BlobKey).Msg("blob cleanup failed on delete")
		}
		return nil
	})
}

// ListPending returns the caller's pending files with their targets.
func (s *Service) ListPending(ctx context.Context, auth *identity.AuthInfo) ([]domain.ExchangeFile, error) {
	var files []domain.ExchangeFile
	err := s.Router.WithTenantOrg(ctx, auth.OrgID, func(tx *gorm.DB) error {
		return tx.Preload("TargetOrgs").
			Where("status = ?", domain.ExchangeFileStatusPending).
			Order("created_at ASC").
			Find(&files).Error
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// PendingStats summarizes the caller's pending files.
type PendingStats struct {
	Count     int64 `json:"count"`
	TotalRows int64 `json:"total_rows"`
}

func (s *Service) PendingStats(ctx context.Context, auth *identity.AuthInfo) (*PendingStats, error) {
	var stats PendingStats
	err := s.Router.WithTenantOrg(ctx, auth.OrgID, func(tx *gorm.DB) error {
		row := tx.Model(&domain.ExchangeFile{}).
			Select("COUNT(1) AS count, COALESCE(SUM(row_count), 0) AS total_rows").
			Where("status = ?", domain.ExchangeFileStatusPending).
			Row()
		return row.Scan(&stats.Count, &stats.TotalRows)
	})
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// ListIssues returns a file's validation issues grouped by severity.
func (s *Service) ListIssues(ctx context.Context, auth *identity.AuthInfo, fileID uuid.UUID) ([]IssueGroup, error) {
	var issues []domain.FileValidationIssue
	err := s.Router.WithTenantOrg(ctx, auth.OrgID, func(tx *gorm.DB) error {
		var file domain.ExchangeFile
		err := tx.Where("id = ?", fileID).First(&file).Error
		if err == gorm.ErrRecordNotFound {
			return apperr.NotFound("ExchangeFileNotFound", "exchange file %s not found", fileID)
		}
		if err != nil {
			return err
		}
		return tx.Where("exchange_file_id = ?", fileID).
			Order("row_number ASC").
			Find(&issues).Error
	})
	if err != nil {
		return nil, err
	}
	return GroupIssues(issues), nil
}

// SentFilter narrows the sent-file listing.
type SentFilter struct {
	Period *string
	Orgs   []uuid.UUID
	IsPos  *bool
	IsPot  *bool
}

// OrgGroup is the files sent to one org within a period.
type OrgGroup struct {
	OrgID   uuid.UUID             `json:"org_id"`
	OrgName string                `json:"org_name"`
	Files   []domain.ExchangeFile `json:"files"`
	Count   int                   `json:"count"`
}

// PeriodGroup is the sent files of one reporting period, grouped by target org.
type PeriodGroup struct {
	Period string     `json:"period"`
	Orgs   []OrgGroup `json:"orgs"`
}

// ListSentGrouped returns sent files grouped by reporting period, then by
// target org. A file with several targets appears under each of them.
func (s *Service) ListSentGrouped(ctx context.Context, auth *identity.AuthInfo, filter SentFilter) ([]PeriodGroup, error) {
	var files []domain.ExchangeFile
	err := s.Router.WithTenantOrg(ctx, auth.OrgID, func(tx *gorm.DB) error {
		q := tx.Preload("TargetOrgs").Where("status = ?", domain.ExchangeFileStatusSent)
		if filter.Period != nil {
			q = q.Where("reporting_period = ?", *filter.Period)
		}
		if filter.IsPos != nil {
			q = q.Where("is_pos = ?", *filter.IsPos)
		}
		if filter.IsPot != nil {
			q = q.Where("is_pot = ?", *filter.IsPot)
		}
		return q.Order("created_at DESC").Find(&files).Error
	})
	if err != nil {
		return nil, err
	}

	orgFilter := make(map[uuid.UUID]bool, len(filter.Orgs))
	for _, id := range filter.Orgs {
		orgFilter[id] = true
	}

	// period -> org -> files
	grouped := make(map[string]map[uuid.UUID][]domain.ExchangeFile)
	var periods []string
	orgIDs := make(map[uuid.UUID]bool)
	for _, file := range files {
		for _, target := range file.TargetOrgs {
			if len(orgFilter) > 0 && !orgFilter[target.ConnectedOrgID] {
				continue
			}
			byOrg, ok := grouped[file.ReportingPeriod]
			if !ok {
				byOrg = make(map[uuid.UUID][]domain.ExchangeFile)
				grouped[file.ReportingPeriod] = byOrg
				periods = append(periods, file.ReportingPeriod)
			}
			byOrg[target.ConnectedOrgID] = append(byOrg[target.ConnectedOrgID], file)
			orgIDs[target.ConnectedOrgID] = true
		}
	}

	names, err := s.orgNames(ctx, orgIDs)
	if err != nil {
		return nil, err
	}

	out := make([]PeriodGroup, 0, len(periods))
	for _, period := range periods {
		pg := PeriodGroup{Period: period}
		for orgID, orgFiles := range grouped[period] {
			pg.Orgs = append(pg.Orgs, OrgGroup{
				OrgID:   orgID,
				OrgName: names[orgID],
				Files:   orgFiles,
				Count:   len(orgFiles),
			})
		}
		out = append(out, pg)
	}
	return out, nil
}

func (s *Service) orgNames(ctx context.Context, ids map[uuid.UUID]bool) (map[uuid.UUID]string, error) {
	out := make(map[uuid.UUID]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	list := make([]uuid.UUID, 0, len(ids))
	for id := range ids {
		list = append(list, id)
	}
	var orgs []domain.Organization
	if err := s.Router.Subscription().WithContext(ctx).Where("id IN ?", list).Find(&orgs).Error; err != nil {
		return nil, err
	}
	for _, org := range orgs {
		out[org.ID] = org.Name
	}
	return out, nil
}

// SendPending flips every pending file to sent and hands the snapshot to the
// cross-tenant deliverer. Rejected outright when any pending file carries a
// blocking validation issue.
func (s *Service) SendPending(ctx context.Context, auth *identity.AuthInfo) (int, error) {
	var snapshot []domain.ExchangeFile
	err := s.Router.WithTenantOrg(ctx, auth.OrgID, func(tx *gorm.DB) error {
		if err := tx.Preload("TargetOrgs").
			Where("status = ?", domain.ExchangeFileStatusPending).
			Find(&snapshot).Error; err != nil {
			return err
		}
		if len(snapshot) == 0 {
			return apperr.Validation("NoPendingFiles", "there are no pending files to send")
		}

		ids := make([]uuid.UUID, 0, len(snapshot))
		for _, f := range snapshot {
			ids = append(ids, f.ID)
		}
		var blocking int64
		err := tx.Model(&domain.FileValidationIssue{}).
			Where("exchange_file_id IN ? AND validation_key IN ?", ids, BlockingKeys()).
			Count(&blocking).Error
		if err != nil {
			return err
		}
		if blocking > 0 {
			return apperr.Validation("HasBlockingValidationIssues", "pending files have blocking validation issues")
		}

		return tx.Model(&domain.ExchangeFile{}).
			Where("id IN ?", ids).
			Updates(map[string]interface{}{"status": domain.ExchangeFileStatusSent}).Error
	})
	if err != nil {
		return 0, err
	}

	s.Deliverer.DeliverFiles(ctx, auth.OrgID, snapshot)
	return len(snapshot), nil
}
