package notification

import (
	"errors"
	"testing"

	"catalyst/internal/models"
	"catalyst/internal/repositories/repotest"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockMailer struct {
	mock.Mock
}

func (m *mockMailer) Send(to, subject, body string) error {
	args := m.Called(to, subject, body)
	return args.Error(0)
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func TestDispatcher_DeliversAndMarksSent(t *testing.T) {
	store := repotest.New()
	require.NoError(t, store.EnqueueEmail(Welcome("a@example.com", "alice")))

	mailer := new(mockMailer)
	mailer.On("Send", "a@example.com", mock.Anything, mock.Anything).Return(nil)

	d := NewDispatcher(store, mailer, quietLogger())
	d.drainOnce()

	msgs := store.OutboxMessages()
	require.Len(t, msgs, 1)
	assert.Equal(t, models.OutboxSent, msgs[0].Status)
	assert.NotNil(t, msgs[0].SentAt)
	mailer.AssertExpectations(t)
}

func TestDispatcher_RetriesThenParksDead(t *testing.T) {
	store := repotest.New()
	require.NoError(t, store.EnqueueEmail(Welcome("a@example.com", "alice")))

	mailer := new(mockMailer)
	mailer.On("Send", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("relay down"))

	d := NewDispatcher(store, mailer, quietLogger())
	d.MaxAttempts = 3
	d.LockTTL = 0 // reclaim immediately so each drain retries

	for i := 0; i < 3; i++ {
		d.drainOnce()
	}

	msgs := store.OutboxMessages()
	require.Len(t, msgs, 1)
	assert.Equal(t, models.OutboxDead, msgs[0].Status)
	assert.Equal(t, 3, msgs[0].Attempts)
	assert.Contains(t, msgs[0].LastError, "relay down")
}

func TestDispatcher_SkipsRowsLockedByLiveWorker(t *testing.T) {
	store := repotest.New()
	require.NoError(t, store.EnqueueEmail(Welcome("a@example.com", "alice")))

	_, err := store.ClaimOutboxBatch("other-worker", 10, defaultLockTTL)
	require.NoError(t, err)

	mailer := new(mockMailer)
	d := NewDispatcher(store, mailer, quietLogger())
	d.drainOnce()

	mailer.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything)
}
