package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// StringList is a string slice persisted as a JSON text column.
type StringList []string

// Value implements driver.Valuer.
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (l *StringList) Scan(value interface{}) error {
	return scanJSON(value, (*[]string)(l))
}

// Collection is a named, ordered grouping of outfits owned by one user.
type Collection struct {
	ID          string     `gorm:"primaryKey;type:varchar(36)" bson:"_id" json:"id"`
	OwnerKey    string     `gorm:"index;not null;type:varchar(191)" bson:"ownerKey" json:"ownerKey"`
	Name        string     `gorm:"not null;type:varchar(100)" bson:"name" json:"name"`
	Description string     `gorm:"type:varchar(500)" bson:"description,omitempty" json:"description,omitempty"`
	OutfitIDs   StringList `gorm:"type:text" bson:"outfitIds" json:"outfitIds"`
	CreatedAt   time.Time  `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time  `bson:"updatedAt" json:"updatedAt"`
}

// BeforeCreate assigns an ID when the caller did not.
func (c *Collection) BeforeCreate(_ *gorm.DB) error {
	if c.ID == "" {
		c.ID = NewID()
	}
	return nil
}

// CollectionView is a collection with its visible outfits resolved.
type CollectionView struct {
	Collection
	Outfits []Outfit `json:"outfits"`
}
