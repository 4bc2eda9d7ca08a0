package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Country is ISO geography reference data, read-only to the core.
type Country struct {
	ID   uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Code string    `gorm:"column:code;type:char(2);not null;uniqueIndex" json:"code"`
	Name string    `gorm:"column:name;not null" json:"name"`
}

func (Country) TableName() string {
	return "countries"
}

// Subdivision is an ISO 3166-2 subdivision (state, province).
type Subdivision struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	CountryID uuid.UUID `gorm:"column:country_id;type:uuid;not null;index" json:"country_id"`
	Code      string    `gorm:"column:code;not null" json:"code"`
	Name      string    `gorm:"column:name;not null" json:"name"`
}

func (Subdivision) TableName() string {
	return "subdivisions"
}

// ConnectionTerritory assigns a subdivision to a connection. Only the
// manufacturer side of the connection may write these.
type ConnectionTerritory struct {
	ID            uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	ConnectionID  uuid.UUID `gorm:"column:connection_id;type:uuid;not null;uniqueIndex:idx_territory_conn_sub" json:"connection_id"`
	SubdivisionID uuid.UUID `gorm:"column:subdivision_id;type:uuid;not null;uniqueIndex:idx_territory_conn_sub" json:"subdivision_id"`
	CreatedAt     time.Time `json:"created_at"`
}

func (ConnectionTerritory) TableName() string {
	return "connection_territories"
}

func (t *ConnectionTerritory) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
