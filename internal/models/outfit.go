package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

// Current schema versions for the structured outfit fields.
const (
	OutfitContextVersion = 1
	OutfitItemsVersion   = 1
	MaxOutfitItems       = 30
)

// ItemKind tags a garment in an outfit's item list.
type ItemKind string

const (
	ItemTop       ItemKind = "top"
	ItemBottom    ItemKind = "bottom"
	ItemDress     ItemKind = "dress"
	ItemOuterwear ItemKind = "outerwear"
	ItemShoes     ItemKind = "shoes"
	ItemAccessory ItemKind = "accessory"
	ItemBag       ItemKind = "bag"
	ItemOther     ItemKind = "other"
)

// Valid reports whether k is one of the known item kinds.
func (k ItemKind) Valid() bool {
	switch k {
	case ItemTop, ItemBottom, ItemDress, ItemOuterwear, ItemShoes, ItemAccessory, ItemBag, ItemOther:
		return true
	}
	return false
}

// OutfitItem is a single garment worn in an outfit.
type OutfitItem struct {
	Kind  ItemKind `bson:"kind" json:"kind"`
	Name  string   `bson:"name" json:"name"`
	Brand string   `bson:"brand,omitempty" json:"brand,omitempty"`
	Color string   `bson:"color,omitempty" json:"color,omitempty"`
}

// OutfitItems is the versioned list of garments attached to an outfit.
type OutfitItems struct {
	Version int          `bson:"version" json:"version"`
	Items   []OutfitItem `bson:"items" json:"items"`
}

// Validate checks the version tag, item count and kinds.
func (l OutfitItems) Validate() error {
	if len(l.Items) == 0 && l.Version == 0 {
		return nil
	}
	if l.Version != OutfitItemsVersion {
		return NewValidationError(fmt.Sprintf("unsupported items version %d", l.Version))
	}
	if len(l.Items) > MaxOutfitItems {
		return NewValidationError(fmt.Sprintf("at most %d items allowed", MaxOutfitItems))
	}
	for i, item := range l.Items {
		if !item.Kind.Valid() {
			return NewValidationError(fmt.Sprintf("item %d has unknown kind %q", i, item.Kind))
		}
		if strings.TrimSpace(item.Name) == "" {
			return NewValidationError(fmt.Sprintf("item %d is missing a name", i))
		}
	}
	return nil
}

// Value implements driver.Valuer so the list is stored as a JSON column.
func (l OutfitItems) Value() (driver.Value, error) {
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (l *OutfitItems) Scan(value interface{}) error {
	return scanJSON(value, l)
}

// OutfitContext describes when and where an outfit was worn.
type OutfitContext struct {
	Version      int      `bson:"version" json:"version"`
	Season       string   `bson:"season,omitempty" json:"season,omitempty"`
	Mood         string   `bson:"mood,omitempty" json:"mood,omitempty"`
	Occasion     string   `bson:"occasion,omitempty" json:"occasion,omitempty"`
	Weather      string   `bson:"weather,omitempty" json:"weather,omitempty"`
	TemperatureC *float64 `bson:"temperatureC,omitempty" json:"temperatureC,omitempty"`
	Location     string   `bson:"location,omitempty" json:"location,omitempty"`
}

// IsZero reports whether no context was supplied.
func (c OutfitContext) IsZero() bool {
	return c.Version == 0 && c.Season == "" && c.Mood == "" && c.Occasion == "" &&
		c.Weather == "" && c.TemperatureC == nil && c.Location == ""
}

// Validate rejects unknown versions.
func (c OutfitContext) Validate() error {
	if c.IsZero() {
		return nil
	}
	if c.Version != OutfitContextVersion {
		return NewValidationError(fmt.Sprintf("unsupported context version %d", c.Version))
	}
	return nil
}

// Value implements driver.Valuer.
func (c OutfitContext) Value() (driver.Value, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (c *OutfitContext) Scan(value interface{}) error {
	return scanJSON(value, c)
}

func scanJSON(value interface{}, dest interface{}) error {
	switch v := value.(type) {
	case nil:
		return nil
	case []byte:
		if len(v) == 0 {
			return nil
		}
		return json.Unmarshal(v, dest)
	case string:
		if v == "" {
			return nil
		}
		return json.Unmarshal([]byte(v), dest)
	default:
		return fmt.Errorf("cannot scan %T into %T", value, dest)
	}
}

// Outfit is a photo post in a user's portfolio.
type Outfit struct {
	ID          string        `gorm:"primaryKey;type:varchar(36)" bson:"_id" json:"id"`
	OwnerKey    string        `gorm:"index:idx_outfits_owner_created,priority:1;not null;type:varchar(191)" bson:"ownerKey" json:"ownerKey"`
	ImageURL    string        `bson:"imageUrl" json:"imageUrl"`
	PublicID    string        `bson:"publicId,omitempty" json:"publicId,omitempty"`
	Season      string        `gorm:"index" bson:"season,omitempty" json:"season,omitempty"`
	Mood        string        `bson:"mood,omitempty" json:"mood,omitempty"`
	Description string        `gorm:"type:text" bson:"description,omitempty" json:"description,omitempty"`
	Items       OutfitItems   `gorm:"type:text" bson:"items" json:"items"`
	Context     OutfitContext `gorm:"type:text" bson:"context" json:"context"`
	WearDate    *time.Time    `bson:"wearDate,omitempty" json:"wearDate,omitempty"`
	IsPublic    bool          `gorm:"not null;index" bson:"isPublic" json:"isPublic"`

	// Likes holds external keys. The relational store keeps them in
	// outfit_likes and fills this on read.
	Likes         []string `gorm:"-" bson:"likes" json:"likes"`
	LikesCount    int      `gorm:"-" bson:"-" json:"likesCount"`
	CommentsCount int      `gorm:"not null;default:0" bson:"commentsCount" json:"commentsCount"`

	CreatedAt time.Time `gorm:"index:idx_outfits_owner_created,priority:2" bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// BeforeCreate assigns an ID when the caller did not.
func (o *Outfit) BeforeCreate(_ *gorm.DB) error {
	if o.ID == "" {
		o.ID = NewID()
	}
	return nil
}

// VisibleTo reports whether actor may read the outfit.
func (o *Outfit) VisibleTo(actor string) bool {
	return o.IsPublic || (actor != "" && o.OwnerKey == actor)
}

// LikedBy reports whether key appears in the like set.
func (o *Outfit) LikedBy(key string) bool {
	if key == "" {
		return false
	}
	for _, k := range o.Likes {
		if k == key {
			return true
		}
	}
	return false
}

// EffectiveSeason prefers the context season over the top-level one.
func (o *Outfit) EffectiveSeason() string {
	if o.Context.Season != "" {
		return o.Context.Season
	}
	return o.Season
}

// EffectiveMood prefers the context mood over the top-level one.
func (o *Outfit) EffectiveMood() string {
	if o.Context.Mood != "" {
		return o.Context.Mood
	}
	return o.Mood
}

// OutfitLike is one like edge in the relational store.
type OutfitLike struct {
	OutfitID  string    `gorm:"primaryKey;type:varchar(36)" json:"outfitId"`
	UserKey   string    `gorm:"primaryKey;type:varchar(191)" json:"userKey"`
	CreatedAt time.Time `json:"createdAt"`
}

// TableName specifies the table name for GORM
func (OutfitLike) TableName() string {
	return "outfit_likes"
}

// FeedItem is an outfit enriched with its author snapshot.
type FeedItem struct {
	Outfit
	Author    Author `json:"author"`
	LikedByMe bool   `json:"likedByMe"`
}

// LikeResult is returned by the toggle-like operation.
type LikeResult struct {
	Liked      bool `json:"liked"`
	LikesCount int  `json:"likesCount"`
	// OwnerKey is the liked outfit's owner.
	OwnerKey string `json:"-"`
}

// OutfitFilter narrows outfit listings. Visibility is always applied: with no
// Viewer only public outfits match, otherwise public outfits plus the
// viewer's own.
type OutfitFilter struct {
	Viewer string
	// OwnerKey restricts results to one owner when set.
	OwnerKey string
	// OwnerKeys restricts results to a set of owners when non-nil. An empty
	// non-nil set matches nothing.
	OwnerKeys []string
	Season    string
	Mood      string
	Query     string
	Offset    int
	Limit     int
}

// OutfitPatch carries the mutable fields of an outfit. Nil means unchanged.
type OutfitPatch struct {
	Season      *string `json:"season"`
	Mood        *string `json:"mood"`
	Description *string `json:"description"`
	IsPublic    *bool   `json:"isPublic"`
}

// Apply copies the set fields onto o.
func (p OutfitPatch) Apply(o *Outfit) {
	if p.Season != nil {
		o.Season = *p.Season
	}
	if p.Mood != nil {
		o.Mood = *p.Mood
	}
	if p.Description != nil {
		o.Description = *p.Description
	}
	if p.IsPublic != nil {
		o.IsPublic = *p.IsPublic
	}
}
