package notification

import (
	"context"
	"time"

	"catalyst/internal/models"
	"catalyst/internal/repositories"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	defaultPollInterval = 5 * time.Second
	defaultBatchSize    = 20
	defaultLockTTL      = 2 * time.Minute
	defaultMaxAttempts  = 5
)

// Dispatcher drains the email outbox. Delivery is at-least-once: a crash
// between send and mark-sent re-delivers after the lock TTL expires. Delivery
// failures are retried up to MaxAttempts, then the row is parked as dead.
type Dispatcher struct {
	store  repositories.OutboxStore
	mailer Mailer
	log    *logrus.Logger

	PollInterval time.Duration
	BatchSize    int
	LockTTL      time.Duration
	MaxAttempts  int

	workerID string
}

func NewDispatcher(store repositories.OutboxStore, mailer Mailer, log *logrus.Logger) *Dispatcher {
	if store == nil {
		panic("store is required")
	}
	if mailer == nil {
		panic("mailer is required")
	}
	if log == nil {
		log = logrus.New()
	}
	return &Dispatcher{
		store:        store,
		mailer:       mailer,
		log:          log,
		PollInterval: defaultPollInterval,
		BatchSize:    defaultBatchSize,
		LockTTL:      defaultLockTTL,
		MaxAttempts:  defaultMaxAttempts,
		workerID:     uuid.NewString(),
	}
}

// Run polls until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(d.PollInterval)
	defer ticker.Stop()

	d.log.WithField("worker", d.workerID).Info("outbox dispatcher started")
	for {
		select {
		case <-ctx.Done():
			d.log.Info("outbox dispatcher stopped")
			return
		case <-ticker.C:
			d.drainOnce()
		}
	}
}

func (d *Dispatcher) drainOnce() {
	for {
		batch, err := d.store.ClaimOutboxBatch(d.workerID, d.BatchSize, d.LockTTL)
		if err != nil {
			d.log.WithError(err).Error("failed to claim outbox batch")
			return
		}
		if len(batch) == 0 {
			return
		}
		for i := range batch {
			d.deliver(&batch[i])
		}
		if len(batch) < d.BatchSize {
			return
		}
	}
}

func (d *Dispatcher) deliver(msg *models.OutboxEmail) {
	err := d.mailer.Send(msg.Recipient, msg.Subject, msg.Body)
	if err != nil {
		d.log.WithError(err).WithFields(logrus.Fields{
			"id":   msg.ID,
			"kind": msg.Kind,
		}).Warn("email delivery failed")
		if markErr := d.store.MarkOutboxFailed(msg.ID, err.Error(), d.MaxAttempts); markErr != nil {
			d.log.WithError(markErr).Error("failed to record delivery failure")
		}
		return
	}
	if err := d.store.MarkOutboxSent(msg.ID); err != nil {
		d.log.WithError(err).Error("failed to mark outbox row sent")
	}
}
