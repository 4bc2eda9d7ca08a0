package criteria

import (
	"context"

	"flowconnect-backend/internal/domain"

	"gorm.io/gorm"
)

// Service evaluates criteria trees against a tenant's CRM data.
type Service struct {
	DB *gorm.DB
}

func (s *Service) query(ctx context.Context, c *Criteria) *gorm.DB {
	q := s.DB.WithContext(ctx).Model(&domain.Contact{})
	if sql, args, ok := Compile(c, s.DB.Dialector.Name()); ok {
		q = q.Where(sql, args...)
	}
	return q
}

// Evaluate returns the distinct contacts matching c. limit <= 0 means no limit.
func (s *Service) Evaluate(ctx context.Context, c *Criteria, limit int) ([]domain.Contact, error) {
	q := s.query(ctx, c).Distinct("contacts.*")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var contacts []domain.Contact
	if err := q.Find(&contacts).Error; err != nil {
		return nil, err
	}
	return contacts, nil
}

// Count returns the number of distinct contacts matching c.
func (s *Service) Count(ctx context.Context, c *Criteria) (int64, error) {
	var n int64
	if err := s.query(ctx, c).Distinct("contacts.id").Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

// Sample returns up to n matching contacts; equivalent to Evaluate(c, n).
func (s *Service) Sample(ctx context.Context, c *Criteria, n int) ([]domain.Contact, error) {
	return s.Evaluate(ctx, c, n)
}
