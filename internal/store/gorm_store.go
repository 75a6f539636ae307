package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"bharosepe/internal/lifecycle"
	"bharosepe/internal/models"
)

// GormStore is the Postgres-backed implementation of the lifecycle store
// port. Every Execute call commits the status compare-and-swap and the
// decision's child rows in one database transaction.
type GormStore struct {
	db *gorm.DB
}

func New(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) GetTransaction(ctx context.Context, id uint) (models.Transaction, error) {
	var txn models.Transaction
	if err := s.db.WithContext(ctx).First(&txn, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Transaction{}, lifecycle.ErrNotFound
		}
		return models.Transaction{}, fmt.Errorf("read transaction %d: %w", id, err)
	}
	return txn, nil
}

func (s *GormStore) ActiveDispute(ctx context.Context, transactionID uint) (*models.Dispute, error) {
	var d models.Dispute
	err := s.db.WithContext(ctx).
		Where("transaction_id = ? AND status = ?", transactionID, models.DisputeActive).
		First(&d).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read active dispute for transaction %d: %w", transactionID, err)
	}
	return &d, nil
}

func (s *GormStore) DisputeContext(ctx context.Context, disputeID uint) ([]models.DisputeMessage, []models.DisputeProposal, error) {
	var msgs []models.DisputeMessage
	if err := s.db.WithContext(ctx).
		Where("dispute_id = ?", disputeID).
		Order("created_at ASC").
		Find(&msgs).Error; err != nil {
		return nil, nil, fmt.Errorf("read dispute %d messages: %w", disputeID, err)
	}

	var props []models.DisputeProposal
	if err := s.db.WithContext(ctx).
		Where("dispute_id = ?", disputeID).
		Order("created_at ASC").
		Find(&props).Error; err != nil {
		return nil, nil, fmt.Errorf("read dispute %d proposals: %w", disputeID, err)
	}
	return msgs, props, nil
}

// Execute applies a lifecycle decision. The status write is conditioned on
// the row still holding the decision's From status; zero rows affected
// aborts the whole transaction with ErrStaleState so nothing is written
// under a lost race.
func (s *GormStore) Execute(ctx context.Context, transactionID uint, dec lifecycle.Decision) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Transaction{}).
			Where("id = ? AND status = ?", transactionID, dec.From).
			Update("status", dec.To)
		if res.Error != nil {
			return fmt.Errorf("update transaction %d status: %w", transactionID, res.Error)
		}
		if res.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&models.Transaction{}).Where("id = ?", transactionID).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return lifecycle.ErrNotFound
			}
			return lifecycle.ErrStaleState
		}

		if cu := dec.ContractUpdate; cu != nil {
			now := time.Now()
			res := tx.Model(&models.Contract{}).
				Where("id = ? AND status = ?", cu.ContractID, models.ContractPending).
				Updates(map[string]interface{}{
					"status":       cu.Status,
					"responded_at": now,
				})
			if res.Error != nil {
				return fmt.Errorf("update contract %d: %w", cu.ContractID, res.Error)
			}
			if res.RowsAffected == 0 {
				return lifecycle.ErrStaleState
			}
		}

		if d := dec.CreateDispute; d != nil {
			if err := tx.Create(d).Error; err != nil {
				// The partial unique index on (transaction_id) WHERE
				// status='active' makes a concurrent second raise fail here.
				return fmt.Errorf("%w: create dispute: %v", lifecycle.ErrStaleState, err)
			}
		}

		if du := dec.DisputeUpdate; du != nil {
			updates := map[string]interface{}{"status": du.Status}
			if du.Status == models.DisputeResolved {
				now := time.Now()
				updates["resolution_notes"] = du.ResolutionNotes
				updates["buyer_refund"] = du.BuyerRefund
				updates["seller_release"] = du.SellerRelease
				updates["resolved_at"] = now
			}
			res := tx.Model(&models.Dispute{}).
				Where("id = ? AND status = ?", du.DisputeID, models.DisputeActive).
				Updates(updates)
			if res.Error != nil {
				return fmt.Errorf("update dispute %d: %w", du.DisputeID, res.Error)
			}
			if res.RowsAffected == 0 {
				return lifecycle.ErrStaleState
			}
		}

		if e := dec.CreateEscalation; e != nil {
			if err := tx.Create(e).Error; err != nil {
				return fmt.Errorf("create escalation: %w", err)
			}
		}

		return nil
	})
}
