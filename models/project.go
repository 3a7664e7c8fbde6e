package models

import (
	"strconv"
	"strings"
	"time"
)

// Status values used by projects, categories, fields and lookup options.
// Only active items are ever handed to the form compiler or the decoder;
// filtering happens in the query layer.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// FieldType identifies the input variant of a Field. The set is closed;
// anything else is rejected by the codec.
type FieldType string

const (
	TextField           FieldType = "TextField"
	NumericField        FieldType = "NumericField"
	DateField           FieldType = "DateField"
	DateTimeField       FieldType = "DateTimeField"
	TimeField           FieldType = "TimeField"
	LookupField         FieldType = "LookupField"
	MultipleLookupField FieldType = "MultipleLookupField"
)

// Project is a data-collection project owning an ordered set of categories.
type Project struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	Name       string     `gorm:"size:255;not null" json:"name"`
	Status     string     `gorm:"size:20;not null;default:'active'" json:"status"`
	Categories []Category `gorm:"foreignKey:ProjectID" json:"categories,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// TableName specifies the table name for Project
func (Project) TableName() string {
	return "projects"
}

// SanitizedName returns the project name with spaces replaced by
// underscores, the form the EpiCollect client expects in form names and
// export tables.
func (p *Project) SanitizedName() string {
	return strings.ReplaceAll(p.Name, " ", "_")
}

// Category is one record type within a project, carrying an ordered list
// of fields.
type Category struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ProjectID uint      `gorm:"index;not null" json:"project_id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Status    string    `gorm:"size:20;not null;default:'active'" json:"status"`
	Order     int       `gorm:"column:display_order;default:0" json:"order"`
	Fields    []Field   `gorm:"foreignKey:CategoryID" json:"fields,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for Category
func (Category) TableName() string {
	return "categories"
}

// Field is a single typed input within a category.
type Field struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	CategoryID uint      `gorm:"index;not null" json:"category_id"`
	Key        string    `gorm:"size:100;not null" json:"key"`
	Name       string    `gorm:"size:255;not null" json:"name"`
	FieldType  FieldType `gorm:"size:50;not null" json:"field_type"`
	Required   bool      `gorm:"default:false" json:"required"`
	Status     string    `gorm:"size:20;not null;default:'active'" json:"status"`
	Order      int       `gorm:"column:display_order;default:0" json:"order"`

	// Numeric fields only
	MinVal *float64 `json:"minval,omitempty"`
	MaxVal *float64 `json:"maxval,omitempty"`

	// Lookup fields only, ordered
	Lookups []LookupOption `gorm:"foreignKey:FieldID" json:"lookups,omitempty"`
}

// TableName specifies the table name for Field
func (Field) TableName() string {
	return "fields"
}

// CompositeKey returns the wire name of the field: the key with dashes
// replaced by underscores, suffixed with the category id. Compiled forms
// and decoded submissions must agree on this exact transform.
func (f *Field) CompositeKey() string {
	key := strings.ReplaceAll(f.Key, "-", "_")
	return key + "_" + strconv.FormatUint(uint64(f.CategoryID), 10)
}

// LookupOption is one selectable value of a lookup field.
type LookupOption struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	FieldID uint   `gorm:"index;not null" json:"field_id"`
	Name    string `gorm:"size:255;not null" json:"name"`
	Status  string `gorm:"size:20;not null;default:'active'" json:"status"`
	Order   int    `gorm:"column:display_order;default:0" json:"order"`
}

// TableName specifies the table name for LookupOption
func (LookupOption) TableName() string {
	return "lookup_options"
}
