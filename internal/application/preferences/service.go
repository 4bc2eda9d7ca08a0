package preferences

import (
	"context"

	"flowconnect-backend/internal/domain"
	"flowconnect-backend/internal/pkg/apperr"
	"flowconnect-backend/internal/tenancy"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Service reads and writes organization preferences. Rows live in the
// subscription database because they describe the organization itself, not
// tenant data.
type Service struct {
	Router *tenancy.Router
}

func validate(application, key string, value *string) error {
	def, ok := lookup(application, key)
	if !ok {
		if _, known := registry[application]; !known {
			return apperr.Validation("InvalidApplication", "unknown application %q", application)
		}
		return apperr.Validation("InvalidPreferenceValue", "unknown preference %q for application %q", key, application)
	}
	if value == nil || len(def.AllowedValues) == 0 {
		return nil
	}
	for _, allowed := range def.AllowedValues {
		if *value == allowed {
			return nil
		}
	}
	return apperr.Validation("InvalidPreferenceValue", "value %q is not allowed for preference %q", *value, key)
}

// Set upserts one preference. A nil value resets it to unset.
func (s *Service) Set(ctx context.Context, orgID uuid.UUID, application, key string, value *string) (*domain.OrganizationPreference, error) {
	if err := validate(application, key, value); err != nil {
		return nil, err
	}
	var pref domain.OrganizationPreference
	err := s.Router.WithSubscription(ctx, func(tx *gorm.DB) error {
		pref = domain.OrganizationPreference{
			OrganizationID: orgID,
			Application:    application,
			PreferenceKey:  key,
			Value:          value,
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "organization_id"}, {Name: "application"}, {Name: "preference_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).Create(&pref).Error
	})
	if err != nil {
		return nil, err
	}
	return &pref, nil
}

// Get returns one preference value, nil when unset.
func (s *Service) Get(ctx context.Context, orgID uuid.UUID, application, key string) (*string, error) {
	if err := validate(application, key, nil); err != nil {
		return nil, err
	}
	var value *string
	err := s.Router.WithSubscription(ctx, func(tx *gorm.DB) error {
		var pref domain.OrganizationPreference
		err := tx.Where("organization_id = ? AND application = ? AND preference_key = ?",
			orgID, application, key).First(&pref).Error
		if err == gorm.ErrRecordNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		value = pref.Value
		return nil
	})
	if err != nil {
		return nil, err
	}
	return value, nil
}

// ListForApplication returns the stored key/value pairs for one application.
func (s *Service) ListForApplication(ctx context.Context, orgID uuid.UUID, application string) (map[string]*string, error) {
	if _, known := registry[application]; !known {
		return nil, apperr.Validation("InvalidApplication", "unknown application %q", application)
	}
	out := map[string]*string{}
	err := s.Router.WithSubscription(ctx, func(tx *gorm.DB) error {
		var prefs []domain.OrganizationPreference
		if err := tx.Where("organization_id = ? AND application = ?", orgID, application).
			Find(&prefs).Error; err != nil {
			return err
		}
		for _, pref := range prefs {
			out[pref.PreferenceKey] = pref.Value
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListGrouped returns every stored preference keyed by application.
func (s *Service) ListGrouped(ctx context.Context, orgID uuid.UUID) (map[string]map[string]*string, error) {
	out := map[string]map[string]*string{}
	err := s.Router.WithSubscription(ctx, func(tx *gorm.DB) error {
		var prefs []domain.OrganizationPreference
		if err := tx.Where("organization_id = ?", orgID).Find(&prefs).Error; err != nil {
			return err
		}
		for _, pref := range prefs {
			app := out[pref.Application]
			if app == nil {
				app = map[string]*string{}
				out[pref.Application] = app
			}
			app[pref.PreferenceKey] = pref.Value
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
