package database

import (
	"log"

	"github.com/chaiyot/bay-booking/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func NewPostgresDB(dsn string) *gorm.DB {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(&models.Customer{}, &models.Reservation{}, &models.ProcessedMessage{}); err != nil {
		log.Fatalf("failed to auto-migrate: %v", err)
	}

	ApplyConstraints(db)

	return db
}

// ApplyConstraints installs the store-level guarantees that the in-process
// checks only fast-path. The application's check-then-act sequences are
// optimistic; these constraints are the actual race barrier.
func ApplyConstraints(db *gorm.DB) {
	db.Exec(`CREATE EXTENSION IF NOT EXISTS pg_trgm`)
	db.Exec(`CREATE EXTENSION IF NOT EXISTS btree_gist`)

	// Partial unique index: one active customer per normalized phone
	db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_customer_active_phone
		ON customers (normalized_phone)
		WHERE is_active AND normalized_phone IS NOT NULL
	`)

	// Exclusion constraint: no two confirmed reservations on the same bay and
	// date may overlap. start_time is canonical HH:mm, so minute arithmetic on
	// the stored string is safe.
	db.Exec(`
		DO $$ BEGIN
			ALTER TABLE reservations ADD CONSTRAINT excl_bay_overlap
			EXCLUDE USING gist (
				bay WITH =,
				date WITH =,
				numrange(
					split_part(start_time, ':', 1)::numeric * 60 + split_part(start_time, ':', 2)::numeric,
					split_part(start_time, ':', 1)::numeric * 60 + split_part(start_time, ':', 2)::numeric + (duration * 60)::numeric
				) WITH &&
			) WHERE (status = 'confirmed');
		EXCEPTION WHEN duplicate_object THEN NULL;
		END $$
	`)

	// Customer codes come from this sequence, never from scanning rows
	db.Exec(`CREATE SEQUENCE IF NOT EXISTS customer_code_seq START 1`)
}
