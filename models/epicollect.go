package models

import (
	"time"

	"github.com/google/uuid"
)

// EpiCollectProject flags a project as reachable through the EpiCollect
// endpoints. Projects without a row (or with Enabled false) answer 403.
type EpiCollectProject struct {
	ProjectID uint      `gorm:"primaryKey" json:"project_id"`
	Enabled   bool      `gorm:"default:false" json:"enabled"`
	Project   *Project  `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for EpiCollectProject
func (EpiCollectProject) TableName() string {
	return "epicollect_projects"
}

// EpiCollectMedia is a pending attachment link. The data upload stores the
// raw photo/video token here; the later thumbnail/video upload resolves it
// to an observation, stores the binary and deletes the row.
type EpiCollectMedia struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	ObservationID uuid.UUID `gorm:"type:uuid;index;not null" json:"observation_id"`
	FileName      string    `gorm:"size:255;uniqueIndex;not null" json:"file_name"`
	CreatedAt     time.Time `json:"created_at"`
}

// TableName specifies the table name for EpiCollectMedia
func (EpiCollectMedia) TableName() string {
	return "epicollect_media"
}
