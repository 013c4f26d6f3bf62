// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UnknownAuthorName is shown when a post's owner record no longer exists.
const UnknownAuthorName = "Unknown"

// User is a member of the portfolio network, keyed by the external identity
// provider's subject.
type User struct {
	ID         string `gorm:"primaryKey;type:varchar(36)" bson:"_id" json:"id"`
	ExternalID string `gorm:"uniqueIndex;not null;type:varchar(191)" bson:"externalId" json:"externalId"`
	Email      string `gorm:"index;type:varchar(255)" bson:"email" json:"-"`
	Username   string `gorm:"uniqueIndex;not null;type:varchar(64)" bson:"username" json:"username"`
	FirstName  string `bson:"firstName" json:"firstName,omitempty"`
	LastName   string `bson:"lastName" json:"lastName,omitempty"`
	Photo      string `bson:"photo" json:"photo"`
	IsDesigner bool   `gorm:"default:false" bson:"isDesigner" json:"isDesigner"`
	IsAdmin    bool   `gorm:"default:false" bson:"isAdmin" json:"-"`

	// Followers and Following hold external keys. The relational store keeps
	// them in the follows table and fills these on read.
	Followers []string `gorm:"-" bson:"followers" json:"followers"`
	Following []string `gorm:"-" bson:"following" json:"following"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// BeforeCreate assigns an ID when the caller did not.
func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.ID == "" {
		u.ID = NewID()
	}
	return nil
}

// DisplayName prefers the full name and falls back to the username.
func (u *User) DisplayName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	default:
		return u.Username
	}
}

// Author returns the public snapshot embedded in feed items.
func (u *User) Author() Author {
	return Author{Username: u.Username, Photo: u.Photo, ExternalID: u.ExternalID}
}

// Author is the denormalized owner snapshot attached to posts.
type Author struct {
	Username   string `json:"username"`
	Photo      string `json:"photo"`
	ExternalID string `json:"externalId"`
}

// UnknownAuthor is the placeholder for posts whose owner is missing.
func UnknownAuthor(externalID string) Author {
	return Author{Username: UnknownAuthorName, Photo: "", ExternalID: externalID}
}

// Profile is the view of a user with graph counts. Email is only set when
// users view themselves.
type Profile struct {
	User           *User  `json:"user"`
	Email          string `json:"email,omitempty"`
	FollowersCount int    `json:"followersCount"`
	FollowingCount int    `json:"followingCount"`
	IsFollowing    bool   `json:"isFollowing"`
}

// Follow is one directed edge of the follow graph in the relational store.
type Follow struct {
	FollowerKey string    `gorm:"primaryKey;type:varchar(191)" json:"followerKey"`
	FolloweeKey string    `gorm:"primaryKey;type:varchar(191);index" json:"followeeKey"`
	CreatedAt   time.Time `json:"createdAt"`
}

// TableName specifies the table name for GORM
func (Follow) TableName() string {
	return "follows"
}

// NewID returns a fresh random identifier.
func NewID() string {
	return uuid.NewString()
}

// IsValidID reports whether id has the shape produced by NewID.
func IsValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
