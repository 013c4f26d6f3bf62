package models

import (
	"errors"
	"fmt"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", NewValidationError("bad"), fiber.StatusBadRequest},
		{"unauthorized", NewUnauthorizedError("no"), fiber.StatusUnauthorized},
		{"forbidden", NewForbiddenError("no"), fiber.StatusForbidden},
		{"not found", NewNotFoundError("Outfit", "x"), fiber.StatusNotFound},
		{"external", NewExternalError("AI Processing Failed", "boom", errors.New("exit 1")), fiber.StatusBadGateway},
		{"external timeout", NewExternalError("AI Processing Failed", "", fmt.Errorf("wrap: %w", ErrUpstreamTimeout)), fiber.StatusGatewayTimeout},
		{"wrapped", fmt.Errorf("ctx: %w", NewForbiddenError("no")), fiber.StatusForbidden},
		{"plain", errors.New("plain"), fiber.StatusInternalServerError},
		{"internal", NewInternalError(errors.New("db")), fiber.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusFor(tt.err))
		})
	}
}

func TestAppErrorMessage(t *testing.T) {
	err := NewNotFoundError("Outfit", "abc")
	assert.Equal(t, "Outfit with ID abc not found", err.Error())

	wrapped := NewInternalError(errors.New("db down"))
	assert.Equal(t, "Internal server error: db down", wrapped.Error())
	assert.True(t, IsCode(wrapped, CodeInternal))
	assert.False(t, IsCode(errors.New("x"), CodeInternal))
}

func TestOutfitItemsValidate(t *testing.T) {
	t.Run("empty list is accepted", func(t *testing.T) {
		assert.NoError(t, OutfitItems{}.Validate())
	})

	t.Run("unknown version rejected", func(t *testing.T) {
		err := OutfitItems{Version: 2, Items: []OutfitItem{{Kind: ItemTop, Name: "Tee"}}}.Validate()
		assert.True(t, IsCode(err, CodeValidation))
	})

	t.Run("unknown kind rejected", func(t *testing.T) {
		err := OutfitItems{Version: 1, Items: []OutfitItem{{Kind: "hat", Name: "Cap"}}}.Validate()
		assert.True(t, IsCode(err, CodeValidation))
	})

	t.Run("too many items rejected", func(t *testing.T) {
		items := make([]OutfitItem, MaxOutfitItems+1)
		for i := range items {
			items[i] = OutfitItem{Kind: ItemOther, Name: "x"}
		}
		err := OutfitItems{Version: 1, Items: items}.Validate()
		assert.True(t, IsCode(err, CodeValidation))
	})

	t.Run("valid list", func(t *testing.T) {
		err := OutfitItems{Version: 1, Items: []OutfitItem{{Kind: ItemShoes, Name: "Loafers", Color: "black"}}}.Validate()
		assert.NoError(t, err)
	})
}

func TestOutfitContextRoundTripThroughColumn(t *testing.T) {
	temp := 21.5
	in := OutfitContext{Version: 1, Season: "Fall", Mood: "Cozy", TemperatureC: &temp}

	v, err := in.Value()
	require.NoError(t, err)

	var out OutfitContext
	require.NoError(t, out.Scan(v))
	assert.Equal(t, in.Season, out.Season)
	require.NotNil(t, out.TemperatureC)
	assert.InDelta(t, 21.5, *out.TemperatureC, 0.001)

	assert.Error(t, OutfitContext{Version: 9, Season: "Fall"}.Validate())
	assert.NoError(t, OutfitContext{}.Validate())
}

func TestOutfitVisibility(t *testing.T) {
	private := Outfit{OwnerKey: "alice", IsPublic: false, Likes: []string{"bob"}}
	assert.True(t, private.VisibleTo("alice"))
	assert.False(t, private.VisibleTo("bob"))
	assert.False(t, private.VisibleTo(""))
	assert.True(t, private.LikedBy("bob"))
	assert.False(t, private.LikedBy(""))

	withContext := Outfit{Season: "Summer", Context: OutfitContext{Version: 1, Season: "Winter"}}
	assert.Equal(t, "Winter", withContext.EffectiveSeason())
}

func TestUserDisplayName(t *testing.T) {
	assert.Equal(t, "Ada Lovelace", (&User{FirstName: "Ada", LastName: "Lovelace", Username: "ada"}).DisplayName())
	assert.Equal(t, "ada", (&User{Username: "ada"}).DisplayName())
	assert.Equal(t, UnknownAuthorName, UnknownAuthor("k").Username)
}
