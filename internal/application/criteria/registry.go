package criteria

import "flowconnect-backend/internal/domain"

// ColKind is the SQL builder selected for a column.
type ColKind int

const (
	KindString ColKind = iota
	KindInt
	KindFloat
	KindBool
	KindDate
	KindUUID
	KindEnum
	KindArray
)

// Column describes one filterable column of a CRM entity. Enum columns carry
// the case-insensitive name→int mapping their criteria values may use.
type Column struct {
	Name string
	Kind ColKind
	Enum map[string]int
}

// entityTable maps criteria entity types to their SQL tables.
var entityTable = map[string]string{
	domain.EntityContact: "contacts",
	domain.EntityCompany: "companies",
	domain.EntityJob:     "jobs",
	domain.EntityTask:    "tasks",
}

// fieldRegistry is the static entity × field → column mapping. Fields absent
// here silently drop their condition; the source resolved them by ORM
// attribute reflection, which behaved the same way for unknown names.
var fieldRegistry = map[string]map[string]Column{
	domain.EntityContact: {
		"id":          {Name: "id", Kind: KindUUID},
		"first_name":  {Name: "first_name", Kind: KindString},
		"last_name":   {Name: "last_name", Kind: KindString},
		"email":       {Name: "email", Kind: KindString},
		"phone":       {Name: "phone", Kind: KindString},
		"role":        {Name: "role", Kind: KindString},
		"title":       {Name: "title", Kind: KindString},
		"city":        {Name: "city", Kind: KindString},
		"state":       {Name: "state", Kind: KindString},
		"zip_code":    {Name: "zip_code", Kind: KindString},
		"do_not_email": {Name: "do_not_email", Kind: KindBool},
		"tags":        {Name: "tags", Kind: KindArray},
		"created_at":  {Name: "created_at", Kind: KindDate},
		"lead_status": {Name: "lead_status", Kind: KindEnum, Enum: map[string]int{
			"new":      domain.LeadStatusNew,
			"engaged":  domain.LeadStatusEngaged,
			"customer": domain.LeadStatusCustomer,
		}},
	},
	domain.EntityCompany: {
		"id":             {Name: "id", Kind: KindUUID},
		"name":           {Name: "name", Kind: KindString},
		"domain":         {Name: "domain", Kind: KindString},
		"industry":       {Name: "industry", Kind: KindString},
		"city":           {Name: "city", Kind: KindString},
		"state":          {Name: "state", Kind: KindString},
		"employee_count": {Name: "employee_count", Kind: KindInt},
		"annual_revenue": {Name: "annual_revenue", Kind: KindFloat},
		"created_at":     {Name: "created_at", Kind: KindDate},
	},
	domain.EntityJob: {
		"id":         {Name: "id", Kind: KindUUID},
		"name":       {Name: "name", Kind: KindString},
		"value":      {Name: "value", Kind: KindFloat},
		"close_date": {Name: "close_date", Kind: KindDate},
		"created_at": {Name: "created_at", Kind: KindDate},
		"status": {Name: "status", Kind: KindEnum, Enum: map[string]int{
			"open":        domain.JobStatusOpen,
			"in_progress": domain.JobStatusInProgress,
			"won":         domain.JobStatusWon,
			"lost":        domain.JobStatusLost,
		}},
	},
	domain.EntityTask: {
		"id":         {Name: "id", Kind: KindUUID},
		"subject":    {Name: "subject", Kind: KindString},
		"due_date":   {Name: "due_date", Kind: KindDate},
		"created_at": {Name: "created_at", Kind: KindDate},
		"status": {Name: "status", Kind: KindEnum, Enum: map[string]int{
			"open":      domain.TaskStatusOpen,
			"completed": domain.TaskStatusCompleted,
		}},
		"priority": {Name: "priority", Kind: KindEnum, Enum: map[string]int{
			"low":    domain.TaskPriorityLow,
			"medium": domain.TaskPriorityMedium,
			"high":   domain.TaskPriorityHigh,
		}},
	},
}

// lookupColumn returns the column descriptor for entity.field, if registered.
func lookupColumn(entityType, field string) (Column, bool) {
	fields, ok := fieldRegistry[entityType]
	if !ok {
		return Column{}, false
	}
	col, ok := fields[field]
	return col, ok
}
