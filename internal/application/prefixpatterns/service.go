package prefixpatterns

import (
	"context"
	"strings"

	"flowconnect-backend/internal/domain"
	"flowconnect-backend/internal/identity"
	"flowconnect-backend/internal/pkg/apperr"
	"flowconnect-backend/internal/tenancy"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Service manages an organization's part-number prefix patterns.
type Service struct {
	Router *tenancy.Router
}

// Create adds a pattern. Names are unique per organization.
func (s *Service) Create(ctx context.Context, auth *identity.AuthInfo, name string) (*domain.PrefixPattern, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation("InvalidPrefixPattern", "pattern name is required")
	}
	var pattern domain.PrefixPattern
	err := s.Router.WithSubscription(ctx, func(tx *gorm.DB) error {
		var existing int64
		err := tx.Model(&domain.PrefixPattern{}).
			Where("organization_id = ? AND name = ?", auth.OrgID, name).
			Count(&existing).Error
		if err != nil {
			return err
		}
		if existing > 0 {
			return apperr.Conflict("PrefixPatternDuplicate", "pattern %q already exists", name)
		}
		pattern = domain.PrefixPattern{OrganizationID: auth.OrgID, Name: name}
		return tx.Create(&pattern).Error
	})
	if err != nil {
		return nil, err
	}
	return &pattern, nil
}

// List returns the caller's patterns ordered by name.
func (s *Service) List(ctx context.Context, auth *identity.AuthInfo) ([]domain.PrefixPattern, error) {
	var patterns []domain.PrefixPattern
	err := s.Router.WithSubscription(ctx, func(tx *gorm.DB) error {
		return tx.Where("organization_id = ?", auth.OrgID).
			Order("name ASC").Find(&patterns).Error
	})
	if err != nil {
		return nil, err
	}
	return patterns, nil
}

// Update renames one pattern.
func (s *Service) Update(ctx context.Context, auth *identity.AuthInfo, patternID uuid.UUID, name string) (*domain.PrefixPattern, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation("InvalidPrefixPattern", "pattern name is required")
	}
	var pattern domain.PrefixPattern
	err := s.Router.WithSubscription(ctx, func(tx *gorm.DB) error {
		err := tx.Where("id = ? AND organization_id = ?", patternID, auth.OrgID).
			First(&pattern).Error
		if err == gorm.ErrRecordNotFound {
			return apperr.NotFound("PrefixPatternNotFound", "pattern %s not found", patternID)
		}
		if err != nil {
			return err
		}
		var clash int64
		err = tx.Model(&domain.PrefixPattern{}).
			Where("organization_id = ? AND name = ? AND id <> ?", auth.OrgID, name, patternID).
			Count(&clash).Error
		if err != nil {
			return err
		}
		if clash > 0 {
			return apperr.Conflict("PrefixPatternDuplicate", "pattern %q already exists", name)
		}
		pattern.Name = name
		return tx.Model(&pattern).Update("name", name).Error
	})
	if err != nil {
		return nil, err
	}
	return &pattern, nil
}

// Delete removes one pattern owned by the caller.
func (s *Service) Delete(ctx context.Context, auth *identity.AuthInfo, patternID uuid.UUID) error {
	return s.Router.WithSubscription(ctx, func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND organization_id = ?", patternID, auth.OrgID).
			Delete(&domain.PrefixPattern{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.NotFound("PrefixPatternNotFound", "pattern %s not found", patternID)
		}
		return nil
	})
}
