package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
)

// Properties is a custom type for JSONB property maps. Values are either
// strings, []string (multiple-lookup answers) or nil.
type Properties map[string]interface{}

// Scan implements the sql.Scanner interface for Properties
func (p *Properties) Scan(value interface{}) error {
	if value == nil {
		*p = Properties{}
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		*p = Properties{}
		return nil
	}

	return json.Unmarshal(bytes, p)
}

// Value implements the driver.Valuer interface for Properties
func (p Properties) Value() (driver.Value, error) {
	if p == nil {
		return json.Marshal(Properties{})
	}
	return json.Marshal(p)
}

// GormDataType defines the data type for GORM
func (Properties) GormDataType() string {
	return "jsonb"
}

// Observation is one collected record: a point geometry, the category it
// was recorded against and the decoded property map. Observations are
// written once by the upload path and read-only afterwards.
type Observation struct {
	ID         uuid.UUID  `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	ProjectID  uint       `gorm:"index;not null" json:"project_id"`
	CategoryID uint       `gorm:"index;not null" json:"category_id"`
	Longitude  float64    `gorm:"not null" json:"longitude"`
	Latitude   float64    `gorm:"not null" json:"latitude"`
	Properties Properties `gorm:"type:jsonb;default:'{}'" json:"properties"`
	CreatedAt  time.Time  `json:"created_at"`
}

// TableName specifies the table name for Observation
func (Observation) TableName() string {
	return "observations"
}

// Location returns the observation geometry as an orb point (lon, lat).
func (o *Observation) Location() orb.Point {
	return orb.Point{o.Longitude, o.Latitude}
}
