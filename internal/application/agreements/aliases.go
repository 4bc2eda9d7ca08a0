package agreements

import (
	"bytes"
	"context"
	"encoding/csv"
	"strings"

	"flowconnect-backend/internal/application/connections"
	"flowconnect-backend/internal/domain"
	"flowconnect-backend/internal/identity"
	"flowconnect-backend/internal/pkg/apperr"
	"flowconnect-backend/internal/tenancy"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// AliasService manages alternative organization names used to route inbound
// files to connected orgs.
type AliasService struct {
	Router *tenancy.Router
}

// ImportFailure is one rejected CSV row. The import keeps going past it.
type ImportFailure struct {
	RowNumber        int    `json:"row_number"`
	OrganizationName string `json:"organization_name"`
	Alias            string `json:"alias"`
	Reason           string `json:"reason"`
}

type ImportResult struct {
	InsertedCount int             `json:"inserted_count"`
	Failures      []ImportFailure `json:"failures"`
}

var aliasHeader = []string{"Organization Name", "Alias"}

// ImportCSV bulk-creates aliases from a two-column CSV. Rows fail
// individually; the header must match exactly.
func (s *AliasService) ImportCSV(ctx context.Context, auth *identity.AuthInfo, content []byte) (*ImportResult, error) {
	reader := csv.NewReader(bytes.NewReader(content))
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, apperr.Validation("InvalidCsvColumns", "could not parse CSV: %v", err)
	}
	if len(records) == 0 || !headerMatches(records[0]) {
		return nil, apperr.Validation("InvalidCsvColumns",
			"CSV header must be [%s]", strings.Join(aliasHeader, ", "))
	}

	result := &ImportResult{Failures: []ImportFailure{}}
	err = s.Router.WithSubscription(ctx, func(tx *gorm.DB) error {
		conns := &connections.Service{DB: tx}
		for i, record := range records[1:] {
			rowNumber := i + 2
			name := ""
			alias := ""
			if len(record) > 0 {
				name = strings.TrimSpace(record[0])
			}
			if len(record) > 1 {
				alias = strings.TrimSpace(record[1])
			}
			failure := s.importRow(ctx, tx, conns, auth.OrgID, name, alias)
			if failure != "" {
				result.Failures = append(result.Failures, ImportFailure{
					RowNumber:        rowNumber,
					OrganizationName: name,
					Alias:            alias,
					Reason:           failure,
				})
				continue
			}
			result.InsertedCount++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func headerMatches(row []string) bool {
	if len(row) != len(aliasHeader) {
		return false
	}
	for i, want := range aliasHeader {
		if strings.TrimSpace(row[i]) != want {
			return false
		}
	}
	return true
}

func (s *AliasService) importRow(ctx context.Context, tx *gorm.DB, conns *connections.Service, orgID uuid.UUID, name, alias string) string {
	if alias == "" {
		return "alias is missing"
	}

	var org domain.Organization
	err := tx.Where("LOWER(name) = LOWER(?)", name).First(&org).Error
	if err == gorm.ErrRecordNotFound {
		return "organization not found"
	}
	if err != nil {
		log.Error().Err(err).Str("organization_name", name).Msg("alias import organization lookup failed")
		return "could not look up organization"
	}

	accepted, err := conns.AcceptedConnectionFor(ctx, orgID, org.ID)
	if err != nil {
		log.Error().Err(err).Str("organization_name", name).Msg("alias import connection lookup failed")
		return "could not look up organization"
	}
	if accepted == nil {
		return "organization is not connected"
	}

	var existing int64
	err = tx.Model(&domain.OrganizationAlias{}).
		Where("organization_id = ? AND LOWER(alias) = LOWER(?)", orgID, alias).
		Count(&existing).Error
	if err != nil {
		log.Error().Err(err).Str("alias", alias).Msg("alias import duplicate check failed")
		return "could not save alias"
	}
	if existing > 0 {
		return "AliasAlreadyExists"
	}

	// One alias per connected org. Checking here keeps the duplicate as a
	// row-level failure instead of tripping idx_alias_org_connected, which
	// would abort the surrounding transaction on Postgres.
	var pairExists int64
	err = tx.Model(&domain.OrganizationAlias{}).
		Where("organization_id = ? AND connected_org_id = ?", orgID, org.ID).
		Count(&pairExists).Error
	if err != nil {
		log.Error().Err(err).Str("alias", alias).Msg("alias import duplicate check failed")
		return "could not save alias"
	}
	if pairExists > 0 {
		return "an alias already exists for this organization"
	}

	row := domain.OrganizationAlias{
		OrganizationID: orgID,
		ConnectedOrgID: org.ID,
		Alias:          alias,
	}
	if err := tx.Create(&row).Error; err != nil {
		log.Error().Err(err).Str("alias", alias).Msg("alias import insert failed")
		return "could not save alias"
	}
	return ""
}

// List returns the caller's aliases, newest first.
func (s *AliasService) List(ctx context.Context, auth *identity.AuthInfo) ([]domain.OrganizationAlias, error) {
	var aliases []domain.OrganizationAlias
	err := s.Router.WithSubscription(ctx, func(tx *gorm.DB) error {
		return tx.Where("organization_id = ?", auth.OrgID).
			Order("created_at DESC").Find(&aliases).Error
	})
	if err != nil {
		return nil, err
	}
	return aliases, nil
}

// Delete removes one alias owned by the caller.
func (s *AliasService) Delete(ctx context.Context, auth *identity.AuthInfo, aliasID uuid.UUID) error {
	return s.Router.WithSubscription(ctx, func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND organization_id = ?", aliasID, auth.OrgID).
			Delete(&domain.OrganizationAlias{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.NotFound("AliasNotFound", "alias %s not found", aliasID)
		}
		return nil
	})
}
