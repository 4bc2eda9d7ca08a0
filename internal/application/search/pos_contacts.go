package search

import (
	"context"

	"flowconnect-backend/internal/domain"

	"github.com/google/uuid"
)

// PosContact is a suggested point of contact within a partner org.
type PosContact struct {
	UserID    uuid.UUID `json:"user_id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
}

// PosContacts caps the visible contacts at posContactCap while reporting the
// full count.
type PosContacts struct {
	Contacts   []PosContact `json:"contacts"`
	TotalCount int          `json:"total_count"`
}

const posContactCap = 5

// posContacts batch-fetches the users holding the flow-pos app role for every
// result org in one query.
func (s *Service) posContacts(ctx context.Context, orgIDs []uuid.UUID) (map[uuid.UUID]PosContacts, error) {
	out := make(map[uuid.UUID]PosContacts, len(orgIDs))
	if len(orgIDs) == 0 {
		return out, nil
	}

	var rows []struct {
		OrgID     uuid.UUID `gorm:"column:org_id"`
		UserID    uuid.UUID `gorm:"column:user_id"`
		Email     string    `gorm:"column:email"`
		FirstName string    `gorm:"column:first_name"`
		LastName  string    `gorm:"column:last_name"`
	}
	err := s.DB.WithContext(ctx).Model(&domain.UserAppRole{}).
		Select("user_app_roles.org_id, users.id AS user_id, users.email, users.first_name, users.last_name").
		Joins("JOIN app_roles ON app_roles.id = user_app_roles.app_role_id").
		Joins("JOIN users ON users.id = user_app_roles.user_id").
		Where("app_roles.name = ? AND user_app_roles.org_id IN ?", domain.PosContactRole, orgIDs).
		Order("users.email ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		entry := out[row.OrgID]
		entry.TotalCount++
		if len(entry.Contacts) < posContactCap {
			entry.Contacts = append(entry.Contacts, PosContact{
				UserID:    row.UserID,
				Email:     row.Email,
				FirstName: row.FirstName,
				LastName:  row.LastName,
			})
		}
		out[row.OrgID] = entry
	}
	return out, nil
}
