// Package auth issues and refreshes the JWT pair used by the API.
package auth

import (
	"errors"
	"time"

	"catalyst/internal/models"
	"catalyst/internal/repositories"
	"catalyst/internal/utils"

	"github.com/sirupsen/logrus"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid refresh token")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
)

type Service interface {
	Login(email, password string) (*models.User, string, string, error)
	RefreshTokens(refreshToken string) (string, string, error)
	ChangePassword(userID uint, oldPassword, newPassword string) error
}

type service struct {
	store repositories.DataStore
	log   *logrus.Logger
}

func NewService(store repositories.DataStore, log *logrus.Logger) Service {
	if store == nil {
		panic("store is required")
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &service{store: store, log: log}
}

func (s *service) Login(email, password string) (*models.User, string, string, error) {
	user, err := s.store.GetUserByEmail(email)
	if err != nil {
		// Same failure either way, so a caller cannot probe which emails
		// have accounts.
		s.log.WithField("email", email).Info("login rejected: unknown email")
		return nil, "", "", ErrInvalidCredentials
	}

	if !utils.CheckPassword(user.Password, password) {
		s.log.WithField("user_id", user.ID).Info("login rejected: bad password")
		return nil, "", "", ErrInvalidCredentials
	}

	accessToken, refreshToken, err := s.issueTokens(user)
	if err != nil {
		return nil, "", "", err
	}

	user.LastLoginAt = time.Now()
	if err := s.store.SaveUser(user); err != nil {
		s.log.WithError(err).Warn("failed to record last login")
	}

	return user, accessToken, refreshToken, nil
}

func (s *service) RefreshTokens(refreshToken string) (string, string, error) {
	claims, err := utils.ParseToken(refreshToken)
	if err != nil {
		return "", "", ErrInvalidToken
	}

	// Re-read the user so a changed role or email takes effect on refresh.
	user, err := s.store.GetUserByID(claims.UserID)
	if err != nil {
		return "", "", ErrInvalidToken
	}
	return s.issueTokens(user)
}

func (s *service) ChangePassword(userID uint, oldPassword, newPassword string) error {
	user, err := s.store.GetUserByID(userID)
	if err != nil {
		return err
	}
	if !utils.CheckPassword(user.Password, oldPassword) {
		return ErrInvalidCredentials
	}
	if len(newPassword) < 8 {
		return ErrWeakPassword
	}

	hash, err := utils.HashPassword(newPassword)
	if err != nil {
		return err
	}
	user.Password = hash
	return s.store.SaveUser(user)
}

func (s *service) issueTokens(user *models.User) (string, string, error) {
	return utils.GenerateTokens(&models.UserClaims{
		UserID:   user.ID,
		Email:    user.Email,
		Username: user.Username,
		Role:     user.Role,
	})
}
