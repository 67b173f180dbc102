// Package model defines the core domain models used throughout the application.
package model

import (
	"strings"
	"time"
)

// Entity represents a canonical merchant with its known aliases.
type Entity struct {
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
	ID              string    `json:"id"`
	CanonicalName   string    `json:"canonical_name"`
	DefaultCategory string    `json:"default_category"`
	Aliases         []string  `json:"aliases"`
}

// HasAlias reports whether the entity already carries the given
// normalized alias.
func (e *Entity) HasAlias(normalized string) bool {
	for _, a := range e.Aliases {
		if a == normalized {
			return true
		}
	}
	return false
}

// AliasEntry is one row of the flattened alias index.
type AliasEntry struct {
	Alias    string
	EntityID string
}

// Slug derives a stable, human-readable entity id from a canonical name.
func Slug(canonicalName string) string {
	s := strings.ToLower(strings.TrimSpace(canonicalName))
	return strings.Join(strings.Fields(s), "_")
}
