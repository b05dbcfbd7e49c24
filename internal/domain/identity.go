package domain

import (
	"fmt"
	"strings"
)

const identitySeparator = "#"

// Identity is a Riot ID. Two identities are the same player only when their
// canonical name#tag strings are byte-identical.
type Identity struct {
	Name string `json:"name"`
	Tag  string `json:"tag"`
}

func NewIdentity(name, tag string) (Identity, error) {
	id := Identity{Name: strings.TrimSpace(name), Tag: strings.TrimSpace(tag)}
	if id.Name == "" || id.Tag == "" {
		return Identity{}, fmt.Errorf("%w: identity needs both name and tag, got %q", ErrInvalidInput, name+identitySeparator+tag)
	}
	if strings.Contains(id.Name, identitySeparator) || strings.Contains(id.Tag, identitySeparator) {
		return Identity{}, fmt.Errorf("%w: identity part contains %q", ErrInvalidInput, identitySeparator)
	}
	return id, nil
}

// ParseIdentity splits "name#tag" on the first separator.
func ParseIdentity(s string) (Identity, error) {
	name, tag, ok := strings.Cut(s, identitySeparator)
	if !ok {
		return Identity{}, fmt.Errorf("%w: %q is not a name#tag identity", ErrInvalidInput, s)
	}
	return NewIdentity(name, tag)
}

func (i Identity) String() string {
	return i.Name + identitySeparator + i.Tag
}

func (i Identity) IsZero() bool {
	return i.Name == "" && i.Tag == ""
}

func (i Identity) Equal(other Identity) bool {
	return i.String() == other.String()
}

// Matches compares against a raw name and tag as reported by the match provider.
func (i Identity) Matches(name, tag string) bool {
	return i.Name == name && i.Tag == tag
}
