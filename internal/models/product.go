package models

import (
	"time"

	"gorm.io/gorm"
)

// DefaultProductCategory is applied to products created without one.
const DefaultProductCategory = "Streetwear"

// Product is a catalog entry in the studio.
type Product struct {
	ID             string     `gorm:"primaryKey;type:varchar(36)" bson:"_id" json:"id"`
	Title          string     `gorm:"not null" bson:"title" json:"title"`
	Designer       string     `bson:"designer" json:"designer"`
	Price          float64    `gorm:"not null" bson:"price" json:"price"`
	Category       string     `gorm:"default:Streetwear" bson:"category" json:"category"`
	Image          string     `bson:"image" json:"image"`
	TrendScore     float64    `gorm:"default:0" bson:"trendScore" json:"trendScore"`
	MarketingBlurb string     `bson:"marketingBlurb,omitempty" json:"marketingBlurb,omitempty"`
	AITags         StringList `gorm:"type:text" bson:"aiTags" json:"aiTags"`
	VisualScore    float64    `bson:"visualScore" json:"visualScore"`
	DominantColor  string     `bson:"dominantColor,omitempty" json:"dominantColor,omitempty"`
	FabricType     string     `bson:"fabricType,omitempty" json:"fabricType,omitempty"`
	CreatedAt      time.Time  `gorm:"index" bson:"createdAt" json:"createdAt"`
}

// BeforeCreate assigns an ID and default category when missing.
func (p *Product) BeforeCreate(_ *gorm.DB) error {
	if p.ID == "" {
		p.ID = NewID()
	}
	if p.Category == "" {
		p.Category = DefaultProductCategory
	}
	return nil
}

// ProductSnapshot is the whitelisted product view sent to AI scripts.
type ProductSnapshot struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Designer string  `json:"designer"`
	Price    float64 `json:"price"`
	Category string  `json:"category"`
}

// Snapshot returns the relay-safe projection of p.
func (p *Product) Snapshot() ProductSnapshot {
	return ProductSnapshot{ID: p.ID, Title: p.Title, Designer: p.Designer, Price: p.Price, Category: p.Category}
}

// VisionTags are the attributes persisted from the Pixel vision agent.
type VisionTags struct {
	AITags        []string `json:"aiTags"`
	VisualScore   float64  `json:"visualScore"`
	DominantColor string   `json:"dominantColor"`
	FabricType    string   `json:"fabricType"`
}

// UserSnapshot is the whitelisted user view sent to the scoring script.
type UserSnapshot struct {
	ExternalID string   `json:"externalId" validate:"required"`
	Username   string   `json:"username"`
	Email      string   `json:"email"`
	Followers  []string `json:"followers"`
}
