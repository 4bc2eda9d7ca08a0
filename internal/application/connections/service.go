package connections

import (
	"context"

	"flowconnect-backend/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Service answers partner-to-partner relationship queries over the
// subscription database.
type Service struct {
	DB *gorm.DB
}

// GetByPair returns the non-declined connection between two orgs, regardless
// of which side requested it. Nil when none exists.
func (s *Service) GetByPair(ctx context.Context, a, b uuid.UUID) (*domain.Connection, error) {
	var conn domain.Connection
	err := s.DB.WithContext(ctx).
		Where("((requester_org_id = ? AND target_org_id = ?) OR (requester_org_id = ? AND target_org_id = ?)) AND status <> ?",
			a, b, b, a, domain.ConnectionStatusDeclined).
		First(&conn).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &conn, nil
}

// ConnectedOrgIDs returns the subset of candidates holding a non-declined
// connection with userOrg.
func (s *Service) ConnectedOrgIDs(ctx context.Context, userOrg uuid.UUID, candidates []uuid.UUID) ([]uuid.UUID, error) {
	if len(candidates) == 0 {
		return nil, nil
	}
	var conns []domain.Connection
	err := s.DB.WithContext(ctx).
		Where("((requester_org_id = ? AND target_org_id IN ?) OR (target_org_id = ? AND requester_org_id IN ?)) AND status <> ?",
			userOrg, candidates, userOrg, candidates, domain.ConnectionStatusDeclined).
		Find(&conns).Error
	if err != nil {
		return nil, err
	}
	seen := make(map[uuid.UUID]bool, len(conns))
	var out []uuid.UUID
	for _, c := range conns {
		other := c.OtherOrgID(userOrg)
		if !seen[other] {
			seen[other] = true
			out = append(out, other)
		}
	}
	return out, nil
}

// CountByStatus counts connections involving org with the given status.
func (s *Service) CountByStatus(ctx context.Context, org uuid.UUID, status string) (int64, error) {
	var n int64
	err := s.DB.WithContext(ctx).Model(&domain.Connection{}).
		Where("(requester_org_id = ? OR target_org_id = ?) AND status = ?", org, org, status).
		Count(&n).Error
	return n, err
}

// AcceptedConnectionFor returns the accepted connection between org and
// connectedOrg, or nil.
func (s *Service) AcceptedConnectionFor(ctx context.Context, org, connectedOrg uuid.UUID) (*domain.Connection, error) {
	conn, err := s.GetByPair(ctx, org, connectedOrg)
	if err != nil {
		return nil, err
	}
	if conn == nil || conn.Status != domain.ConnectionStatusAccepted {
		return nil, nil
	}
	return conn, nil
}
