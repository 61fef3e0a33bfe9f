package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Campaign struct {
	gorm.Model
	Name        string `gorm:"not null"`
	Property    string // URL slug used in links; falls back to the id
	Description string

	// AddedTotalAdminRaised is a manual offset added on top of the derived
	// raised total. The raised total itself is never stored.
	AddedTotalAdminRaised decimal.Decimal `gorm:"type:numeric(18,2);default:0"`

	ContactFullName string
	ContactEmail    string
	IsActive        bool `gorm:"default:true"`
}
