package models

import "strings"

// DefaultTagColor is reported for tags stored without a color.
const DefaultTagColor = "#cccccc"

// Tag represents a free-form label that can be applied to many tasks.
type Tag struct {
	ID    int64
	Name  string
	Color string
}

// NameKey returns the case-insensitive identity of a tag name. Folding
// through upper case first puts runes like 'ſ' (whose upper case is 'S') on
// the same key as their upper-case form.
func NameKey(name string) string {
	return strings.ToLower(strings.ToUpper(name))
}

// Key returns the tag's case-insensitive identity.
func (t Tag) Key() string {
	return NameKey(t.Name)
}

// DisplayColor returns the tag color, falling back to DefaultTagColor.
func (t Tag) DisplayColor() string {
	if t.Color == "" {
		return DefaultTagColor
	}
	return t.Color
}
