package repositories

import (
	"fmt"

	"catalyst/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func (s *gormStore) CreateFollowRequest(fr *models.FollowRequest) error {
	if err := s.db.Create(fr).Error; err != nil {
		return fmt.Errorf("failed to create follow request: %w", err)
	}
	return nil
}

func (s *gormStore) GetFollowRequestForUpdate(id uint) (*models.FollowRequest, error) {
	var fr models.FollowRequest
	err := s.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&fr, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrFollowRequestNotFound
		}
		return nil, fmt.Errorf("failed to lock follow request: %w", err)
	}
	return &fr, nil
}

func (s *gormStore) GetFollowRequestByPair(requesterID, followeeID uint) (*models.FollowRequest, error) {
	var fr models.FollowRequest
	err := s.db.
		Where("requester_id = ? AND followee_id = ?", requesterID, followeeID).
		First(&fr).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrFollowRequestNotFound
		}
		return nil, fmt.Errorf("failed to get follow request: %w", err)
	}
	return &fr, nil
}

func (s *gormStore) SaveFollowRequest(fr *models.FollowRequest) error {
	if err := s.db.Save(fr).Error; err != nil {
		return fmt.Errorf("failed to save follow request: %w", err)
	}
	return nil
}

func (s *gormStore) ListIncomingFollowRequests(followeeID uint, status models.FollowStatus) ([]models.FollowRequest, error) {
	var frs []models.FollowRequest
	err := s.db.
		Where("followee_id = ? AND status = ?", followeeID, status).
		Order("id ASC").
		Find(&frs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list follow requests: %w", err)
	}
	return frs, nil
}

func (s *gormStore) AcceptedFollowerEmails(followeeID uint) ([]string, error) {
	var emails []string
	err := s.db.Model(&models.FollowRequest{}).
		Joins("JOIN users ON users.id = follow_requests.requester_id").
		Where("follow_requests.followee_id = ?", followeeID).
		Where("follow_requests.status = ?", models.FollowAccepted).
		Where("users.is_active = ? AND users.opt_out_email_notifications = ?", true, false).
		Where("users.email <> ''").
		Pluck("users.email", &emails).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list follower emails: %w", err)
	}
	return emails, nil
}

func (s *gormStore) AcceptedFolloweeEmails(requesterID uint) ([]string, error) {
	var emails []string
	err := s.db.Model(&models.FollowRequest{}).
		Joins("JOIN users ON users.id = follow_requests.followee_id").
		Where("follow_requests.requester_id = ?", requesterID).
		Where("follow_requests.status = ?", models.FollowAccepted).
		Where("users.is_active = ? AND users.opt_out_email_notifications = ?", true, false).
		Where("users.email <> ''").
		Pluck("users.email", &emails).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list followee emails: %w", err)
	}
	return emails, nil
}
