package models

import "time"

type OutboxStatus string

const (
	OutboxPending OutboxStatus = "pending"
	OutboxSent    OutboxStatus = "sent"
	OutboxDead    OutboxStatus = "dead"
)

// OutboxEmail is a notification committed in the same transaction as the
// financial mutation that produced it. A background dispatcher delivers
// these at-least-once; delivery failures never touch the ledger.
type OutboxEmail struct {
	ID        uint   `gorm:"primarykey"`
	Kind      string `gorm:"index"`
	Recipient string `gorm:"not null"`
	Subject   string
	Body      string `gorm:"type:text"`

	Status    OutboxStatus `gorm:"type:varchar(10);default:'pending';index"`
	Attempts  int          `gorm:"default:0"`
	LastError string

	LockedAt *time.Time
	LockedBy string

	CreatedAt time.Time
	SentAt    *time.Time
}
