package tenancy

import (
	"context"
	"sync"

	"flowconnect-backend/internal/domain"
	"flowconnect-backend/internal/infrastructure/database"
	"flowconnect-backend/internal/pkg/apperr"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Opener opens a connection pool for a tenant database URL. Injectable so
// tests can point tenants at in-memory databases.
type Opener func(url string) (*gorm.DB, error)

// Router resolves tenant database handles from the shared subscription DB.
// One pool per tenant URL, created lazily on first use; pools are safe for
// parallel use.
type Router struct {
	subscription *gorm.DB
	open         Opener

	mu    sync.Mutex
	pools map[string]*gorm.DB
}

// NewRouter builds a Router over the subscription DB. A nil opener uses the
// standard Postgres opener.
func NewRouter(subscription *gorm.DB, open Opener) *Router {
	if open == nil {
		open = database.Open
	}
	return &Router{
		subscription: subscription,
		open:         open,
		pools:        make(map[string]*gorm.DB),
	}
}

// Subscription returns the shared subscription DB handle.
func (r *Router) Subscription() *gorm.DB {
	return r.subscription
}

// WithSubscription runs fn inside one transaction on the subscription DB.
// The session is released on every exit path, including panic and ctx cancel.
func (r *Router) WithSubscription(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.subscription.WithContext(ctx).Transaction(fn)
}

// TenantURLFor returns the active tenant database URL for an org.
func (r *Router) TenantURLFor(ctx context.Context, orgID uuid.UUID) (string, error) {
	var tenant domain.Tenant
	err := r.subscription.WithContext(ctx).
		Where("org_id = ? AND status = ?", orgID, domain.TenantStatusActive).
		First(&tenant).Error
	if err == gorm.ErrRecordNotFound {
		return "", apperr.NotFound("TenantUnknown", "no active tenant for org %s", orgID)
	}
	if err != nil {
		return "", err
	}
	return tenant.URL, nil
}

// WithTenant runs fn inside one transaction on the tenant identified by url.
// Fails with TenantUnknown if no active tenant row matches the URL.
func (r *Router) WithTenant(ctx context.Context, url string, fn func(tx *gorm.DB) error) error {
	db, err := r.pool(ctx, url)
	if err != nil {
		return err
	}
	return db.WithContext(ctx).Transaction(fn)
}

// WithTenantOrg resolves the org's tenant URL and runs fn on that tenant.
func (r *Router) WithTenantOrg(ctx context.Context, orgID uuid.UUID, fn func(tx *gorm.DB) error) error {
	url, err := r.TenantURLFor(ctx, orgID)
	if err != nil {
		return err
	}
	return r.WithTenant(ctx, url, fn)
}

func (r *Router) pool(ctx context.Context, url string) (*gorm.DB, error) {
	r.mu.Lock()
	if db, ok := r.pools[url]; ok {
		r.mu.Unlock()
		return db, nil
	}
	r.mu.Unlock()

	// Verify the URL against the registry before opening anything.
	var count int64
	err := r.subscription.WithContext(ctx).Model(&domain.Tenant{}).
		Where("url = ? AND status = ?", url, domain.TenantStatusActive).
		Count(&count).Error
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, apperr.NotFound("TenantUnknown", "no active tenant registered for url")
	}

	db, err := r.open(url)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.pools[url]; ok {
		// Lost the race; keep the first pool.
		if sqlDB, dbErr := db.DB(); dbErr == nil {
			_ = sqlDB.Close()
		}
		return existing, nil
	}
	r.pools[url] = db
	return db, nil
}
