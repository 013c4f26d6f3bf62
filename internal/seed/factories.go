// Package seed provides helpers to create demo data for development and
// testing. Everything is written through the repository contracts so the
// same seeder fills the relational and the document store.
package seed

import (
	"fmt"
	"strings"
	"time"

	"fashfolio/internal/models"

	"github.com/brianvoe/gofakeit/v6"
)

var (
	seasons  = []string{"Spring", "Summer", "Fall", "Winter"}
	moods    = []string{"Calm", "Bold", "Playful", "Rainy", "Cozy", "Minimal"}
	brands   = []string{"Atelier Nord", "Studio Vale", "Maison Iko", "Thread & Co", "Kiln"}
	fabrics  = []string{"Wool", "Linen", "Denim", "Silk", "Cotton"}
	products = []string{"Coat", "Trench", "Cardigan", "Cargo Pants", "Slip Dress", "Loafers", "Tote"}
	kinds    = []models.ItemKind{
		models.ItemTop, models.ItemBottom, models.ItemOuterwear,
		models.ItemShoes, models.ItemAccessory, models.ItemBag,
	}
)

// Factory builds domain entities without persisting them.
type Factory struct {
	faker   *gofakeit.Faker
	maxDays int
	now     func() time.Time
}

// NewFactory creates a Factory. A zero seed picks a random one.
func NewFactory(seed int64, maxDays int) *Factory {
	if maxDays <= 0 {
		maxDays = 90
	}
	return &Factory{faker: gofakeit.New(seed), maxDays: maxDays, now: time.Now}
}

// BuildUser returns a user with a unique external key derived from n.
func (f *Factory) BuildUser(n int, overrides ...func(*models.User)) *models.User {
	first, last := f.faker.FirstName(), f.faker.LastName()
	username := strings.ToLower(fmt.Sprintf("%s.%s%d", first, last, n))
	user := &models.User{
		ExternalID: fmt.Sprintf("seed_%04d", n),
		Email:      username + "@example.com",
		Username:   username,
		FirstName:  first,
		LastName:   last,
		Photo:      fmt.Sprintf("https://i.pravatar.cc/150?u=%s", username),
		IsDesigner: f.faker.Number(0, 9) == 0,
		Followers:  []string{},
		Following:  []string{},
	}
	for _, override := range overrides {
		override(user)
	}
	return user
}

// BuildOutfit returns an outfit owned by owner with a realistic created_at
// spread over the last maxDays.
func (f *Factory) BuildOutfit(owner *models.User, overrides ...func(*models.Outfit)) *models.Outfit {
	season := f.faker.RandomString(seasons)
	outfit := &models.Outfit{
		OwnerKey:    owner.ExternalID,
		ImageURL:    fmt.Sprintf("https://picsum.photos/seed/%s/800/1000", f.faker.UUID()),
		Season:      season,
		Mood:        f.faker.RandomString(moods),
		Description: f.faker.Sentence(8),
		Items:       f.buildItems(),
		IsPublic:    f.faker.Number(0, 4) != 0,
		Likes:       []string{},
		CreatedAt:   f.pastTime(),
	}
	for _, override := range overrides {
		override(outfit)
	}
	return outfit
}

func (f *Factory) buildItems() models.OutfitItems {
	n := f.faker.Number(1, 4)
	items := make([]models.OutfitItem, 0, n)
	for i := 0; i < n; i++ {
		items = append(items, models.OutfitItem{
			Kind:  kinds[f.faker.Number(0, len(kinds)-1)],
			Name:  f.faker.RandomString(products),
			Brand: f.faker.RandomString(brands),
			Color: f.faker.HexColor(),
		})
	}
	return models.OutfitItems{Version: 1, Items: items}
}

// BuildComment returns a comment by author on outfit with the author
// denormalized the way the engagement service writes it.
func (f *Factory) BuildComment(author *models.User, outfit *models.Outfit) *models.Comment {
	return &models.Comment{
		OutfitID:     outfit.ID,
		Content:      f.faker.Sentence(f.faker.Number(3, 12)),
		AuthorKey:    author.ExternalID,
		AuthorName:   author.DisplayName(),
		AuthorAvatar: author.Photo,
	}
}

// BuildProduct returns a studio catalog entry designed by designer.
func (f *Factory) BuildProduct(designer *models.User) *models.Product {
	title := fmt.Sprintf("%s %s", f.faker.RandomString(fabrics), f.faker.RandomString(products))
	return &models.Product{
		Title:     title,
		Designer:  designer.DisplayName(),
		Price:     f.faker.Price(20, 600),
		Category:  models.DefaultProductCategory,
		Image:     fmt.Sprintf("https://picsum.photos/seed/product-%s/600/600", f.faker.UUID()),
		AITags:    models.StringList{},
		CreatedAt: f.pastTime(),
	}
}

func (f *Factory) pastTime() time.Time {
	back := time.Duration(f.faker.Number(0, f.maxDays*24*60)) * time.Minute
	return f.now().Add(-back).UTC()
}

// pick returns n distinct indexes in [0,size) other than skip.
func (f *Factory) pick(size, n, skip int) []int {
	perm := f.faker.Rand.Perm(size)
	out := make([]int, 0, n)
	for _, i := range perm {
		if len(out) == n {
			break
		}
		if i != skip {
			out = append(out, i)
		}
	}
	return out
}
