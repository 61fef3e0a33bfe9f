// Package follow manages the follow graph between users. Accepted edges feed
// the notification fan-out that runs when a followed user allocates funds.
package follow

import (
	"errors"

	"catalyst/internal/models"
	"catalyst/internal/repositories"
	"catalyst/internal/services/notification"
)

type Service interface {
	// Request creates a pending follow request from requester to followee.
	// Repeating an existing pair returns the current request unchanged.
	Request(requesterID, followeeID uint) (*models.FollowRequest, error)
	// Accept resolves a pending request. Only the followee may accept.
	Accept(requestID, followeeID uint) (*models.FollowRequest, error)
	// Decline resolves a pending request. Only the followee may decline.
	Decline(requestID, followeeID uint) (*models.FollowRequest, error)
	// ListIncoming returns the pending requests addressed to a user.
	ListIncoming(followeeID uint) ([]models.FollowRequest, error)
}

type service struct {
	store repositories.DataStore
}

func NewService(store repositories.DataStore) Service {
	if store == nil {
		panic("store is required")
	}
	return &service{store: store}
}

func (s *service) Request(requesterID, followeeID uint) (*models.FollowRequest, error) {
	if requesterID == followeeID {
		return nil, ErrSelfFollow
	}

	requester, err := s.store.GetUserByID(requesterID)
	if err != nil {
		return nil, mapUserErr(err)
	}
	followee, err := s.store.GetUserByID(followeeID)
	if err != nil {
		return nil, mapUserErr(err)
	}

	existing, err := s.store.GetFollowRequestByPair(requesterID, followeeID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, repositories.ErrFollowRequestNotFound) {
		return nil, err
	}

	fr := &models.FollowRequest{
		RequesterID: requesterID,
		FolloweeID:  followeeID,
		Status:      models.FollowPending,
	}
	if err := s.store.CreateFollowRequest(fr); err != nil {
		return nil, err
	}

	if followee.Email != "" && !followee.OptOutEmailNotifications {
		name := requester.FullName()
		if name == "" {
			name = requester.Username
		}
		_ = s.store.EnqueueEmail(notification.FollowRequestAlert(followee.Email, name))
	}
	return fr, nil
}

func (s *service) Accept(requestID, followeeID uint) (*models.FollowRequest, error) {
	return s.resolve(requestID, followeeID, models.FollowAccepted)
}

func (s *service) Decline(requestID, followeeID uint) (*models.FollowRequest, error) {
	return s.resolve(requestID, followeeID, models.FollowDeclined)
}

func (s *service) resolve(requestID, followeeID uint, status models.FollowStatus) (*models.FollowRequest, error) {
	var fr *models.FollowRequest
	err := s.store.InTransaction(func(tx repositories.DataStore) error {
		var err error
		fr, err = tx.GetFollowRequestForUpdate(requestID)
		if err != nil {
			if errors.Is(err, repositories.ErrFollowRequestNotFound) {
				return ErrNotFound
			}
			return err
		}
		if fr.FolloweeID != followeeID {
			return ErrNotRecipient
		}
		if fr.Status != models.FollowPending {
			return ErrStateConflict
		}
		fr.Status = status
		return tx.SaveFollowRequest(fr)
	})
	if err != nil {
		return nil, err
	}
	return fr, nil
}

func (s *service) ListIncoming(followeeID uint) ([]models.FollowRequest, error) {
	return s.store.ListIncomingFollowRequests(followeeID, models.FollowPending)
}

func mapUserErr(err error) error {
	if errors.Is(err, repositories.ErrUserNotFound) {
		return ErrUserNotFound
	}
	return err
}
