package database

import (
	"backoffice/internal/model"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// NewConnection initializes a new connection pool using GORM
func NewConnection(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	// Auto-migrate core models
	err = db.AutoMigrate(
		&model.Business{},
		&model.User{},
		&model.TaxRule{},
		&model.CatalogItem{},
		&model.ItemOption{},
		&model.Order{},
		&model.OrderLine{},
		&model.Payment{},
		&model.GiftCard{},
		&model.StockItem{},
		&model.StockMovement{},
		&model.Discount{},
		&model.DiscountEligibility{},
		&model.Reservation{},
	)
	if err != nil {
		log.Warn().Err(err).Msg("failed to auto-migrate models")
	}

	return db, nil
}
