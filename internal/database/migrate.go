package database

import (
	"fmt"
	"log"

	"bharosepe/internal/models"
)

func Migrate() error {
	log.Println("Running database migrations...")

	err := DB.AutoMigrate(
		&models.User{},
		&models.PendingUser{},
		&models.Transaction{},
		&models.Contract{},
		&models.Payment{},
		&models.Dispute{},
		&models.DisputeMessage{},
		&models.DisputeProposal{},
		&models.Escalation{},
		&models.Notification{},
	)
	if err != nil {
		log.Printf("Error migrating database: %v", err)
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	// One active dispute per transaction, enforced at the database so a
	// concurrent second raise loses the race even past the engine guard.
	if err := DB.Exec(
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_disputes_one_active
		 ON disputes (transaction_id)
		 WHERE status = 'active' AND deleted_at IS NULL`,
	).Error; err != nil {
		return fmt.Errorf("failed to create active-dispute index: %w", err)
	}

	log.Println("Database migration completed successfully")
	return nil
}
