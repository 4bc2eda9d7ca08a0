package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// CRM entity type names, as stored on LinkRelation edges and used by the
// campaign criteria grammar.
const (
	EntityContact = "contact"
	EntityCompany = "company"
	EntityJob     = "job"
	EntityTask    = "task"
)

// Contact lead statuses (stored as ints, criteria accept the names).
const (
	LeadStatusNew      = 1
	LeadStatusEngaged  = 2
	LeadStatusCustomer = 3
)

// Contact is the campaign recipient root.
type Contact struct {
	ID         uuid.UUID      `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	FirstName  string         `gorm:"column:first_name" json:"first_name"`
	LastName   string         `gorm:"column:last_name" json:"last_name"`
	Email      *string        `gorm:"column:email" json:"email"`
	Phone      string         `gorm:"column:phone" json:"phone"`
	Role       string         `gorm:"column:role" json:"role"`
	Title      string         `gorm:"column:title" json:"title"`
	City       string         `gorm:"column:city" json:"city"`
	State      string         `gorm:"column:state" json:"state"`
	ZipCode    string         `gorm:"column:zip_code" json:"zip_code"`
	LeadStatus int            `gorm:"column:lead_status;default:1" json:"lead_status"`
	DoNotEmail bool           `gorm:"column:do_not_email;default:false" json:"do_not_email"`
	Tags       datatypes.JSON `gorm:"column:tags;type:jsonb" json:"tags"`
	CreatedAt  time.Time      `json:"created_at"`
	CreatedByID *uuid.UUID    `gorm:"column:created_by_id;type:uuid" json:"created_by_id"`
}

func (Contact) TableName() string {
	return "contacts"
}

func (c *Contact) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// Company is a CRM account linked to contacts via LinkRelation.
type Company struct {
	ID            uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Name          string    `gorm:"column:name" json:"name"`
	Domain        string    `gorm:"column:domain" json:"domain"`
	Industry      string    `gorm:"column:industry" json:"industry"`
	City          string    `gorm:"column:city" json:"city"`
	State         string    `gorm:"column:state" json:"state"`
	EmployeeCount int       `gorm:"column:employee_count" json:"employee_count"`
	AnnualRevenue float64   `gorm:"column:annual_revenue" json:"annual_revenue"`
	CreatedAt     time.Time `json:"created_at"`
}

func (Company) TableName() string {
	return "companies"
}

func (c *Company) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// Job statuses.
const (
	JobStatusOpen       = 1
	JobStatusInProgress = 2
	JobStatusWon        = 3
	JobStatusLost       = 4
)

// Job is a CRM opportunity.
type Job struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Name      string     `gorm:"column:name" json:"name"`
	Status    int        `gorm:"column:status;default:1" json:"status"`
	Value     float64    `gorm:"column:value" json:"value"`
	CloseDate *time.Time `gorm:"column:close_date;type:date" json:"close_date"`
	CreatedAt time.Time  `json:"created_at"`
}

func (Job) TableName() string {
	return "jobs"
}

func (j *Job) BeforeCreate(tx *gorm.DB) error {
	if j.ID == uuid.Nil {
		j.ID = uuid.New()
	}
	return nil
}

// Task priorities and statuses.
const (
	TaskPriorityLow    = 1
	TaskPriorityMedium = 2
	TaskPriorityHigh   = 3
)

const (
	TaskStatusOpen      = 1
	TaskStatusCompleted = 2
)

// Task is a CRM activity.
type Task struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Subject   string     `gorm:"column:subject" json:"subject"`
	Status    int        `gorm:"column:status;default:1" json:"status"`
	Priority  int        `gorm:"column:priority;default:2" json:"priority"`
	DueDate   *time.Time `gorm:"column:due_date;type:date" json:"due_date"`
	CreatedAt time.Time  `json:"created_at"`
}

func (Task) TableName() string {
	return "tasks"
}

func (t *Task) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// LinkRelation is the polymorphic edge connecting any pair of CRM entities.
// The linked entity may sit on either the source or the target side, so
// queries over the graph must join in both directions.
type LinkRelation struct {
	ID               uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	SourceEntityType string    `gorm:"column:source_entity_type;not null;index:idx_link_source" json:"source_entity_type"`
	SourceEntityID   uuid.UUID `gorm:"column:source_entity_id;type:uuid;not null;index:idx_link_source" json:"source_entity_id"`
	TargetEntityType string    `gorm:"column:target_entity_type;not null;index:idx_link_target" json:"target_entity_type"`
	TargetEntityID   uuid.UUID `gorm:"column:target_entity_id;type:uuid;not null;index:idx_link_target" json:"target_entity_id"`
	CreatedAt        time.Time `json:"created_at"`
}

func (LinkRelation) TableName() string {
	return "link_relations"
}

func (l *LinkRelation) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
