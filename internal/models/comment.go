package models

import (
	"time"

	"gorm.io/gorm"
)

// MaxCommentLength is the upper bound on comment content, in runes.
const MaxCommentLength = 500

// Comment is an immutable remark on an outfit with its author denormalized.
type Comment struct {
	ID           string    `gorm:"primaryKey;type:varchar(36)" bson:"_id" json:"id"`
	OutfitID     string    `gorm:"index:idx_comments_outfit_created,priority:1;not null;type:varchar(36)" bson:"outfitId" json:"outfitId"`
	Content      string    `gorm:"type:text;not null" bson:"content" json:"content"`
	AuthorKey    string    `gorm:"not null;type:varchar(191)" bson:"authorKey" json:"authorKey"`
	AuthorName   string    `bson:"authorName" json:"authorName"`
	AuthorAvatar string    `bson:"authorAvatar" json:"authorAvatar"`
	CreatedAt    time.Time `gorm:"index:idx_comments_outfit_created,priority:2" bson:"createdAt" json:"createdAt"`

	OutfitOwnerKey string `gorm:"-" bson:"-" json:"-"`
}

// BeforeCreate assigns an ID when the caller did not.
func (c *Comment) BeforeCreate(_ *gorm.DB) error {
	if c.ID == "" {
		c.ID = NewID()
	}
	return nil
}
