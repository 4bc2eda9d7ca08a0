package search

import (
	"context"

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

// Options filters a partner search.
type Options struct {
	Active      bool
	IsMember    *bool
	IsConnected *bool
	Limit       int
	RepFirms    bool
}

// Result is one decorated search hit.
type Result struct {
	Org              domain.Organization `json:"org"`
	TenantExists     bool                `json:"tenant_exists"`
	ConnectionExists bool                `json:"connection_exists"`
	ConnectionStatus *string             `json:"connection_status"`
	AgreementURL     *string             `json:"agreement_url,omitempty"`
	Territories      []uuid.UUID         `json:"territories,omitempty"`
	PosContacts      PosContacts         `json:"pos_contacts"`
}

const defaultLimit = 25

// Service searches complementary-type partner organizations, decorated with
// connection status, agreements, territories, and POS contacts.
type Service struct {
	DB          *gorm.DB
	Router      *tenancy.Router
	Blob        blob.Store
	Connections *connections.Service
}

type searchRow struct {
	domain.Organization
	TenantExists     bool    `gorm:"column:tenant_exists"`
	ConnectionExists bool    `gorm:"column:connection_exists"`
	ConnectionStatus *string `gorm:"column:connection_status"`
}

// SearchForConnections runs the partner search for the calling user's org.
func (s *Service) SearchForConnections(ctx context.Context, auth *identity.AuthInfo, term string, opts Options) ([]Result, error) {
	var caller domain.Organization
	err := s.DB.WithContext(ctx).Where("id = ?", auth.OrgID).First(&caller).Error
	if err == gorm.ErrRecordNotFound {
		return nil, apperr.NotFound("OrganizationNotFound", "caller organization not found")
	}
	if err != nil {
		return nil, err
	}

	targetType := domain.ComplementaryType(caller.OrgType)
	if opts.RepFirms {
		if caller.OrgType != domain.OrgTypeManufacturer {
			return nil, apperr.Validation("InvalidSearchType", "rep firm search requires a manufacturer caller")
		}
		targetType = domain.OrgTypeRepFirm
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = defaultLimit
	}

	connPair := "((c.requester_org_id = organizations.id AND c.target_org_id = ?) OR (c.target_org_id = organizations.id AND c.requester_org_id = ?))"
	q := s.DB.WithContext(ctx).Model(&domain.Organization{}).
		Select("organizations.*,"+
			" EXISTS(SELECT 1 FROM tenant_registry t WHERE t.org_id = organizations.id AND t.status = ?) AS tenant_exists,"+
			" EXISTS(SELECT 1 FROM connections c WHERE "+connPair+" AND c.status <> ?) AS connection_exists,"+
			" (SELECT c.status FROM connections c WHERE "+connPair+" AND c.status <> ? LIMIT 1) AS connection_status",
			domain.TenantStatusActive,
			auth.OrgID, auth.OrgID, domain.ConnectionStatusDeclined,
			auth.OrgID, auth.OrgID, domain.ConnectionStatusDeclined).
		Where("organizations.org_type = ?", targetType).
		Where("organizations.id <> ?", auth.OrgID).
		Where("lower(organizations.name) LIKE '%' || lower(?) || '%'", term)

	if opts.Active {
		q = q.Where("organizations.status = ?", domain.OrgStatusActive)
	}
	if opts.IsMember != nil {
		cond := "EXISTS(SELECT 1 FROM tenant_registry t WHERE t.org_id = organizations.id AND t.status = ?)"
		if !*opts.IsMember {
			cond = "NOT " + cond
		}
		q = q.Where(cond, domain.TenantStatusActive)
	}
	if opts.IsConnected != nil {
		cond := "EXISTS(SELECT 1 FROM connections c WHERE " + connPair + " AND c.status <> ?)"
		if !*opts.IsConnected {
			cond = "NOT " + cond
		}
		q = q.Where(cond, auth.OrgID, auth.OrgID, domain.ConnectionStatusDeclined)
	}

	var rows []searchRow
	if err := q.Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(rows))
	orgIDs := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		orgIDs = append(orgIDs, row.Organization.ID)
		results = append(results, Result{
			Org:              row.Organization,
			TenantExists:     row.TenantExists,
			ConnectionExists: row.ConnectionExists,
			ConnectionStatus: row.ConnectionStatus,
		})
	}

	s.decorateAccepted(ctx, auth, opts.RepFirms, results)

	posByOrg, err := s.posContacts(ctx, orgIDs)
	if err != nil {
		return nil, err
	}
	for i := range results {
		results[i].PosContacts = posByOrg[results[i].Org.ID]
	}
	return results, nil
}

// decorateAccepted attaches agreement URLs (and territories for rep-firm
// searches) to accepted connections. Decoration failures are logged, not
// fatal; the search result is still useful without them.
func (s *Service) decorateAccepted(ctx context.Context, auth *identity.AuthInfo, repFirms bool, results []Result) {
	for i := range results {
		r := &results[i]
		if r.ConnectionStatus == nil || *r.ConnectionStatus != domain.ConnectionStatusAccepted {
			continue
		}
		err := s.Router.WithTenantOrg(ctx, auth.OrgID, func(tx *gorm.DB) error {
			var agreement domain.Agreement
			err := tx.Where("connected_org_id = ?", r.Org.ID).First(&agreement).Error
			if err == gorm.ErrRecordNotFound {
				return nil
			}
			if err != nil {
				return err
			}
			url, err := s.Blob.GeneratePresignedURL(ctx, agreement.BlobKey)
			if err != nil {
				return err
			}
			r.AgreementURL = &url
			return nil
		})
		if err != nil {
			log.Warn().Err(err).Str("org_id", r.Org.ID.String()).Msg("agreement decoration failed")
		}

		if repFirms {
			conn, err := s.Connections.GetByPair(ctx, auth.OrgID, r.Org.ID)
			if err != nil || conn == nil {
				continue
			}
			terrErr := s.Router.WithTenantOrg(ctx, auth.OrgID, func(tx *gorm.DB) error {
				return tx.Model(&domain.ConnectionTerritory{}).
					Where("connection_id = ?", conn.ID).
					Pluck("subdivision_id", &r.Territories).Error
			})
			if terrErr != nil {
				log.Warn().Err(terrErr).Str("org_id", r.Org.ID.String()).Msg("territory decoration failed")
			}
		}
	}
}
