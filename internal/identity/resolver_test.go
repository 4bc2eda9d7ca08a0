package identity

import (
	"context"
	"testing"

	"flowconnect-backend/internal/domain"
	"flowconnect-backend/internal/pkg/apperr"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupResolverTest(t *testing.T) (*Resolver, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.User{}))
	return &Resolver{DB: db}, db
}

func TestResolve(t *testing.T) {
	resolver, db := setupResolverTest(t)
	subject := "auth0|abc123"
	orgID := uuid.New()
	user := domain.User{ExternalSubjectID: &subject, Email: "a@b.test", PrimaryOrgID: &orgID}
	require.NoError(t, db.Create(&user).Error)

	info, err := resolver.Resolve(context.Background(), subject)
	require.NoError(t, err)
	assert.Equal(t, user.ID, info.UserID)
	assert.Equal(t, orgID, info.OrgID)
	assert.Equal(t, subject, info.ExternalSubjectID)
}

func TestResolve_UnknownSubject(t *testing.T) {
	resolver, _ := setupResolverTest(t)

	_, err := resolver.Resolve(context.Background(), "auth0|nobody")
	require.Error(t, err)
	assert.Equal(t, "UserNotFound", apperr.CodeOf(err))
}

func TestResolve_NoPrimaryOrg(t *testing.T) {
	resolver, db := setupResolverTest(t)
	subject := "auth0|orgless"
	user := domain.User{ExternalSubjectID: &subject, Email: "c@d.test"}
	require.NoError(t, db.Create(&user).Error)

	_, err := resolver.Resolve(context.Background(), subject)
	require.Error(t, err)
	assert.Equal(t, "UserOrganizationRequired", apperr.CodeOf(err))
	assert.Equal(t, apperr.KindAuthorization, apperr.KindOf(err))
}
