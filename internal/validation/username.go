// Package validation holds input rules shared across services.
package validation

import (
	"fmt"
	"regexp"
	"strings"
)

var usernameRegex = regexp.MustCompile(`^[A-Za-z0-9._-]{3,30}$`)

var reservedUsernames = map[string]struct{}{
	"admin":     {},
	"api":       {},
	"fashfolio": {},
	"health":    {},
	"me":        {},
	"media":     {},
	"metrics":   {},
	"suggested": {},
	"support":   {},
	"unknown":   {},
}

// ValidateUsername checks username format and reserved names.
func ValidateUsername(username string) error {
	if !usernameRegex.MatchString(username) {
		return fmt.Errorf("username must be 3-30 characters of letters, numbers, dots, underscores or hyphens")
	}

	if strings.IndexAny(username[:1], "._-") == 0 || strings.IndexAny(username[len(username)-1:], "._-") == 0 {
		return fmt.Errorf("username cannot start or end with punctuation")
	}

	if _, exists := reservedUsernames[strings.ToLower(username)]; exists {
		return fmt.Errorf("username is reserved")
	}

	return nil
}
