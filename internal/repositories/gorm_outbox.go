package repositories

import (
	"fmt"
	"time"

	"catalyst/internal/models"

	"gorm.io/gorm"
)

func (s *gormStore) EnqueueEmail(msg *models.OutboxEmail) error {
	if err := s.db.Create(msg).Error; err != nil {
		return fmt.Errorf("failed to enqueue email: %w", err)
	}
	return nil
}

// ClaimOutboxBatch picks up to batchSize deliverable rows and stamps them with
// workerID. Rows locked by a live worker are skipped; rows whose lock is older
// than lockTTL are considered abandoned and reclaimed.
func (s *gormStore) ClaimOutboxBatch(workerID string, batchSize int, lockTTL time.Duration) ([]models.OutboxEmail, error) {
	var claimed []models.OutboxEmail
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var batch []models.OutboxEmail
		staleBefore := time.Now().Add(-lockTTL)
		err := tx.Raw(`
			SELECT * FROM outbox_emails
			WHERE status = ?
			  AND (locked_at IS NULL OR locked_at < ?)
			ORDER BY id ASC
			LIMIT ?
			FOR UPDATE SKIP LOCKED`,
			models.OutboxPending, staleBefore, batchSize,
		).Scan(&batch).Error
		if err != nil {
			return err
		}
		if len(batch) == 0 {
			return nil
		}

		ids := make([]uint, 0, len(batch))
		for i := range batch {
			ids = append(ids, batch[i].ID)
		}
		now := time.Now()
		err = tx.Model(&models.OutboxEmail{}).
			Where("id IN ?", ids).
			Updates(map[string]interface{}{
				"locked_at": now,
				"locked_by": workerID,
			}).Error
		if err != nil {
			return err
		}
		for i := range batch {
			batch[i].LockedAt = &now
			batch[i].LockedBy = workerID
		}
		claimed = batch
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to claim outbox batch: %w", err)
	}
	return claimed, nil
}

func (s *gormStore) MarkOutboxSent(id uint) error {
	now := time.Now()
	err := s.db.Model(&models.OutboxEmail{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":    models.OutboxSent,
			"sent_at":   now,
			"locked_at": nil,
			"locked_by": "",
		}).Error
	if err != nil {
		return fmt.Errorf("failed to mark outbox row sent: %w", err)
	}
	return nil
}

// MarkOutboxFailed records a delivery failure, releases the lock and parks
// the row as dead once attempts reach maxAttempts.
func (s *gormStore) MarkOutboxFailed(id uint, sendErr string, maxAttempts int) error {
	err := s.db.Exec(`
		UPDATE outbox_emails
		SET attempts = attempts + 1,
		    last_error = ?,
		    locked_at = NULL,
		    locked_by = '',
		    status = CASE WHEN attempts + 1 >= ? THEN ? ELSE status END
		WHERE id = ?`,
		sendErr, maxAttempts, models.OutboxDead, id,
	).Error
	if err != nil {
		return fmt.Errorf("failed to mark outbox row failed: %w", err)
	}
	return nil
}
