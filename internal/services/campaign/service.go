// Package campaign exposes campaigns with their derived funding totals. The
// raised total and investor count are always computed from recommendations at
// read time; nothing is cached or stored denormalized.
package campaign

import (
	"errors"

	"catalyst/internal/models"
	"catalyst/internal/repositories"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound    = errors.New("campaign not found")
	ErrMissingName = errors.New("campaign name is required")
)

// View is a campaign plus its derived aggregates.
type View struct {
	models.Campaign
	RaisedTotal   decimal.Decimal `json:"raised_total"`
	InvestorCount int64           `json:"investor_count"`
}

type CreateInput struct {
	Name                  string
	Property              string
	Description           string
	ContactFullName       string
	ContactEmail          string
	AddedTotalAdminRaised decimal.Decimal
}

type Service interface {
	Create(in CreateInput) (*models.Campaign, error)
	Get(id uint) (*View, error)
	List() ([]View, error)
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

func (s *service) Create(in CreateInput) (*models.Campaign, error) {
	if in.Name == "" {
		return nil, ErrMissingName
	}
	c := &models.Campaign{
		Name:                  in.Name,
		Property:              in.Property,
		Description:           in.Description,
		ContactFullName:       in.ContactFullName,
		ContactEmail:          in.ContactEmail,
		AddedTotalAdminRaised: in.AddedTotalAdminRaised,
		IsActive:              true,
	}
	if err := s.store.CreateCampaign(c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *service) Get(id uint) (*View, error) {
	c, err := s.store.GetCampaignByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrCampaignNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return s.view(c)
}

func (s *service) List() ([]View, error) {
	campaigns, err := s.store.ListCampaigns()
	if err != nil {
		return nil, err
	}
	views := make([]View, 0, len(campaigns))
	for i := range campaigns {
		v, err := s.view(&campaigns[i])
		if err != nil {
			return nil, err
		}
		views = append(views, *v)
	}
	return views, nil
}

func (s *service) view(c *models.Campaign) (*View, error) {
	raised, investors, err := s.store.CampaignTotals(c.ID)
	if err != nil {
		return nil, err
	}
	return &View{
		Campaign:      *c,
		RaisedTotal:   raised.Add(c.AddedTotalAdminRaised),
		InvestorCount: investors,
	}, nil
}
