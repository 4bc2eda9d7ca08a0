package criteria

import (
	"context"
	"testing"

	"flowconnect-backend/internal/domain"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func setupCriteriaTest(t *testing.T) (*Service, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&domain.Contact{}, &domain.Company{}, &domain.Job{}, &domain.Task{}, &domain.LinkRelation{},
	))
	return &Service{DB: db}, db
}

func seedContact(t *testing.T, db *gorm.DB, c domain.Contact) domain.Contact {
	require.NoError(t, db.Create(&c).Error)
	return c
}

func strPtr(s string) *string { return &s }

func single(field, operator string, value interface{}) *Criteria {
	return &Criteria{
		GroupOperator: OpAnd,
		Groups: []Group{{
			LogicalOperator: OpAnd,
			Conditions: []Condition{{
				EntityType: domain.EntityContact,
				Field:      field,
				Operator:   operator,
				Value:      value,
			}},
		}},
	}
}

func TestEvaluate_StringEqualsIsCaseInsensitive(t *testing.T) {
	svc, db := setupCriteriaTest(t)
	match := seedContact(t, db, domain.Contact{FirstName: "Alice", City: "Chicago"})
	seedContact(t, db, domain.Contact{FirstName: "Bob", City: "Denver"})

	contacts, err := svc.Evaluate(context.Background(), single("city", OpEquals, "CHICAGO"), 0)
	require.NoError(t, err)
	require.Len(t, contacts, 1)
	assert.Equal(t, match.ID, contacts[0].ID)
}

func TestEvaluate_ContainsAndNotContains(t *testing.T) {
	svc, db := setupCriteriaTest(t)
	seedContact(t, db, domain.Contact{FirstName: "Alice", Email: strPtr("alice@acme.com")})
	seedContact(t, db, domain.Contact{FirstName: "Bob", Email: strPtr("bob@other.io")})

	contacts, err := svc.Evaluate(context.Background(), single("email", OpContains, "ACME"), 0)
	require.NoError(t, err)
	require.Len(t, contacts, 1)
	assert.Equal(t, "Alice", contacts[0].FirstName)

	contacts, err = svc.Evaluate(context.Background(), single("email", OpNotContains, "acme"), 0)
	require.NoError(t, err)
	require.Len(t, contacts, 1)
	assert.Equal(t, "Bob", contacts[0].FirstName)
}

func TestEvaluate_EnumByName(t *testing.T) {
	svc, db := setupCriteriaTest(t)
	seedContact(t, db, domain.Contact{FirstName: "Lead", LeadStatus: domain.LeadStatusNew})
	customer := seedContact(t, db, domain.Contact{FirstName: "Buyer", LeadStatus: domain.LeadStatusCustomer})

	contacts, err := svc.Evaluate(context.Background(), single("lead_status", OpEquals, "Customer"), 0)
	require.NoError(t, err)
	require.Len(t, contacts, 1)
	assert.Equal(t, customer.ID, contacts[0].ID)
}

func TestEvaluate_UnknownFieldDropsCondition(t *testing.T) {
	svc, db := setupCriteriaTest(t)
	seedContact(t, db, domain.Contact{FirstName: "Alice"})
	seedContact(t, db, domain.Contact{FirstName: "Bob"})

	// A tree whose only condition is unknown compiles to no filter at all.
	count, err := svc.Count(context.Background(), single("favorite_color", OpEquals, "teal"))
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestEvaluate_UncoercibleValueDropsCondition(t *testing.T) {
	svc, db := setupCriteriaTest(t)
	seedContact(t, db, domain.Contact{FirstName: "Alice", DoNotEmail: true})
	seedContact(t, db, domain.Contact{FirstName: "Bob"})

	count, err := svc.Count(context.Background(), single("do_not_email", OpEquals, "maybe"))
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestEvaluate_MixedGroupKeepsCoercibleConditions(t *testing.T) {
	svc, db := setupCriteriaTest(t)
	seedContact(t, db, domain.Contact{FirstName: "Alice", City: "Chicago"})
	seedContact(t, db, domain.Contact{FirstName: "Bob", City: "Denver"})

	c := &Criteria{
		GroupOperator: OpAnd,
		Groups: []Group{{
			LogicalOperator: OpAnd,
			Conditions: []Condition{
				{EntityType: domain.EntityContact, Field: "city", Operator: OpEquals, Value: "chicago"},
				{EntityType: domain.EntityContact, Field: "nonsense", Operator: OpEquals, Value: "x"},
			},
		}},
	}
	contacts, err := svc.Evaluate(context.Background(), c, 0)
	require.NoError(t, err)
	require.Len(t, contacts, 1)
	assert.Equal(t, "Alice", contacts[0].FirstName)
}

func TestEvaluate_OrAcrossGroups(t *testing.T) {
	svc, db := setupCriteriaTest(t)
	seedContact(t, db, domain.Contact{FirstName: "Alice", City: "Chicago"})
	seedContact(t, db, domain.Contact{FirstName: "Bob", City: "Denver"})
	seedContact(t, db, domain.Contact{FirstName: "Cara", City: "Miami"})

	c := &Criteria{
		GroupOperator: OpOr,
		Groups: []Group{
			{LogicalOperator: OpAnd, Conditions: []Condition{
				{EntityType: domain.EntityContact, Field: "city", Operator: OpEquals, Value: "chicago"},
			}},
			{LogicalOperator: OpAnd, Conditions: []Condition{
				{EntityType: domain.EntityContact, Field: "city", Operator: OpEquals, Value: "denver"},
			}},
		},
	}
	count, err := svc.Count(context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestEvaluate_InListCaseInsensitive(t *testing.T) {
	svc, db := setupCriteriaTest(t)
	seedContact(t, db, domain.Contact{FirstName: "Alice", State: "IL"})
	seedContact(t, db, domain.Contact{FirstName: "Bob", State: "CO"})
	seedContact(t, db, domain.Contact{FirstName: "Cara", State: "FL"})

	c := single("state", OpIn, []interface{}{"il", "fl"})
	count, err := svc.Count(context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestEvaluate_TagsArrayMembership(t *testing.T) {
	svc, db := setupCriteriaTest(t)
	seedContact(t, db, domain.Contact{FirstName: "Alice", Tags: datatypes.JSON(`["vip","newsletter"]`)})
	seedContact(t, db, domain.Contact{FirstName: "Bob", Tags: datatypes.JSON(`["newsletter"]`)})

	// EQUALS on an array column behaves as membership.
	contacts, err := svc.Evaluate(context.Background(), single("tags", OpEquals, "VIP"), 0)
	require.NoError(t, err)
	require.Len(t, contacts, 1)
	assert.Equal(t, "Alice", contacts[0].FirstName)

	contacts, err = svc.Evaluate(context.Background(), single("tags", OpContains, "newsletter"), 0)
	require.NoError(t, err)
	assert.Len(t, contacts, 2)
}

func TestEvaluate_NullChecks(t *testing.T) {
	svc, db := setupCriteriaTest(t)
	seedContact(t, db, domain.Contact{FirstName: "Alice", Email: strPtr("alice@acme.com")})
	seedContact(t, db, domain.Contact{FirstName: "Bob"})

	contacts, err := svc.Evaluate(context.Background(), single("email", OpIsNull, nil), 0)
	require.NoError(t, err)
	require.Len(t, contacts, 1)
	assert.Equal(t, "Bob", contacts[0].FirstName)

	contacts, err = svc.Evaluate(context.Background(), single("email", OpIsNotNull, nil), 0)
	require.NoError(t, err)
	require.Len(t, contacts, 1)
	assert.Equal(t, "Alice", contacts[0].FirstName)
}

func linkContactTo(t *testing.T, db *gorm.DB, contactID uuid.UUID, entityType string, entityID uuid.UUID, contactAsSource bool) {
	link := domain.LinkRelation{
		SourceEntityType: domain.EntityContact,
		SourceEntityID:   contactID,
		TargetEntityType: entityType,
		TargetEntityID:   entityID,
	}
	if !contactAsSource {
		link = domain.LinkRelation{
			SourceEntityType: entityType,
			SourceEntityID:   entityID,
			TargetEntityType: domain.EntityContact,
			TargetEntityID:   contactID,
		}
	}
	require.NoError(t, db.Create(&link).Error)
}

func TestEvaluate_CompanyConditionWalksLinkGraph(t *testing.T) {
	svc, db := setupCriteriaTest(t)
	alice := seedContact(t, db, domain.Contact{FirstName: "Alice"})
	bob := seedContact(t, db, domain.Contact{FirstName: "Bob"})
	seedContact(t, db, domain.Contact{FirstName: "Cara"})

	acme := domain.Company{Name: "Acme", Industry: "hvac"}
	other := domain.Company{Name: "Other", Industry: "plumbing"}
	require.NoError(t, db.Create(&acme).Error)
	require.NoError(t, db.Create(&other).Error)

	// Alice linked as source, Bob linked as target: both directions must match.
	linkContactTo(t, db, alice.ID, domain.EntityCompany, acme.ID, true)
	linkContactTo(t, db, bob.ID, domain.EntityCompany, acme.ID, false)

	c := &Criteria{
		GroupOperator: OpAnd,
		Groups: []Group{{
			LogicalOperator: OpAnd,
			Conditions: []Condition{{
				EntityType: domain.EntityCompany,
				Field:      "industry",
				Operator:   OpEquals,
				Value:      "HVAC",
			}},
		}},
	}
	contacts, err := svc.Evaluate(context.Background(), c, 0)
	require.NoError(t, err)
	require.Len(t, contacts, 2)
	names := []string{contacts[0].FirstName, contacts[1].FirstName}
	assert.ElementsMatch(t, []string{"Alice", "Bob"}, names)
}

func TestEvaluate_JobValueComparison(t *testing.T) {
	svc, db := setupCriteriaTest(t)
	alice := seedContact(t, db, domain.Contact{FirstName: "Alice"})
	bob := seedContact(t, db, domain.Contact{FirstName: "Bob"})

	bigJob := domain.Job{Name: "Tower", Value: 50000}
	smallJob := domain.Job{Name: "Shed", Value: 900}
	require.NoError(t, db.Create(&bigJob).Error)
	require.NoError(t, db.Create(&smallJob).Error)
	linkContactTo(t, db, alice.ID, domain.EntityJob, bigJob.ID, true)
	linkContactTo(t, db, bob.ID, domain.EntityJob, smallJob.ID, true)

	c := &Criteria{
		GroupOperator: OpAnd,
		Groups: []Group{{
			LogicalOperator: OpAnd,
			Conditions: []Condition{{
				EntityType: domain.EntityJob,
				Field:      "value",
				Operator:   OpGreaterThan,
				Value:      "10000",
			}},
		}},
	}
	contacts, err := svc.Evaluate(context.Background(), c, 0)
	require.NoError(t, err)
	require.Len(t, contacts, 1)
	assert.Equal(t, "Alice", contacts[0].FirstName)
}

func TestEvaluate_DistinctAcrossMultipleLinks(t *testing.T) {
	svc, db := setupCriteriaTest(t)
	alice := seedContact(t, db, domain.Contact{FirstName: "Alice"})

	j1 := domain.Job{Name: "A", Value: 100}
	j2 := domain.Job{Name: "B", Value: 200}
	require.NoError(t, db.Create(&j1).Error)
	require.NoError(t, db.Create(&j2).Error)
	linkContactTo(t, db, alice.ID, domain.EntityJob, j1.ID, true)
	linkContactTo(t, db, alice.ID, domain.EntityJob, j2.ID, false)

	c := &Criteria{
		GroupOperator: OpAnd,
		Groups: []Group{{
			LogicalOperator: OpAnd,
			Conditions: []Condition{{
				EntityType: domain.EntityJob,
				Field:      "value",
				Operator:   OpGreaterThan,
				Value:      50,
			}},
		}},
	}
	count, err := svc.Count(context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestParseSerializeRoundTrip(t *testing.T) {
	c := single("city", OpEquals, "chicago")
	raw, err := Serialize(c)
	require.NoError(t, err)
	parsed, err := Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, c, parsed)
}

func TestCompile_EmptyTreeReportsNoFilter(t *testing.T) {
	_, _, ok := Compile(&Criteria{}, "sqlite")
	assert.False(t, ok)
	_, _, ok = Compile(nil, "sqlite")
	assert.False(t, ok)
}
