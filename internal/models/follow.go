package models

import "time"

// FollowStatus is the state of a follow request. Only accepted requests feed
// the allocation notification fan-out.
type FollowStatus string

const (
	FollowPending  FollowStatus = "pending"
	FollowAccepted FollowStatus = "accepted"
	FollowDeclined FollowStatus = "declined"
)

// FollowRequest links a requester to the user they want to follow. One row
// per pair; accepting or declining flips the status in place.
type FollowRequest struct {
	ID uint `gorm:"primarykey"`

	RequesterID uint `gorm:"not null;index;uniqueIndex:idx_follow_pair"`
	Requester   *User

	FolloweeID uint `gorm:"not null;index;uniqueIndex:idx_follow_pair"`
	Followee   *User `gorm:"foreignKey:FolloweeID"`

	Status    FollowStatus `gorm:"type:varchar(16);default:'pending';index"`
	CreatedAt time.Time
}
