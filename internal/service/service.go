// Package service holds the application operations behind the HTTP handlers.
package service

import (
	"strings"
	"unicode/utf8"

	"fashfolio/internal/models"
)

// PageSize is the number of outfits returned per feed or listing page.
const PageSize = 20

// Identity is the caller as described by the identity token.
type Identity struct {
	Key       string
	Email     string
	Username  string
	FirstName string
	LastName  string
	Picture   string
}

func requireActor(actor string) error {
	if actor == "" {
		return models.NewUnauthorizedError("Unauthorized")
	}
	return nil
}

// boundedText trims s and enforces a rune limit.
func boundedText(field, s string, max int, required bool) (string, error) {
	s = strings.TrimSpace(s)
	if required && s == "" {
		return "", models.NewValidationError(field + " is required")
	}
	if utf8.RuneCountInString(s) > max {
		return "", models.NewValidationError(field + " is too long")
	}
	return s, nil
}

func contains(list []string, want string) bool {
	for _, v := range list {
		if v == want {
			return true
		}
	}
	return false
}
