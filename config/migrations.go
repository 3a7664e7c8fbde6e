package config

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"

	"github.com/ExCiteS/geokey-epicollect/models"
)

// migrationList returns the ordered, versioned schema migrations.
func migrationList() []*gormigrate.Migration {
	return []*gormigrate.Migration{
		{
			ID: "28082026_create_epicollect_tables",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&models.Project{}, &models.Category{}, &models.Field{}, &models.LookupOption{},
					&models.Observation{}, &models.EpiCollectProject{}, &models.EpiCollectMedia{})
			},
		},
	}
}

func Migrations(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, migrationList())
	return m.Migrate()
}
