package identity

import (
	"context"

	"flowconnect-backend/internal/domain"
	"flowconnect-backend/internal/pkg/apperr"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuthInfo is the resolved request identity handed to every service call.
type AuthInfo struct {
	UserID            uuid.UUID
	OrgID             uuid.UUID
	ExternalSubjectID string
}

// Resolver maps external auth subjects to platform users. No caching here;
// callers may resolve once per request (the HTTP middleware keeps a Redis
// cache in front).
type Resolver struct {
	DB *gorm.DB
}

// Resolve returns the user and primary org for an external subject id.
func (r *Resolver) Resolve(ctx context.Context, externalSubjectID string) (*AuthInfo, error) {
	var user domain.User
	err := r.DB.WithContext(ctx).
		Where("external_subject_id = ?", externalSubjectID).
		First(&user).Error
	if err == gorm.ErrRecordNotFound {
		return nil, apperr.NotFound("UserNotFound", "no user for subject")
	}
	if err != nil {
		return nil, err
	}
	if user.PrimaryOrgID == nil {
		return nil, apperr.Authorization("UserOrganizationRequired", "user has no primary organization")
	}
	return &AuthInfo{
		UserID:            user.ID,
		OrgID:             *user.PrimaryOrgID,
		ExternalSubjectID: externalSubjectID,
	}, nil
}
