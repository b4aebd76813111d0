package domain

import (
	"errors"
	"strings"
	"unicode/utf8"
)

const MaxCategoryNameLength = 100

var (
	ErrEmptyCategoryName   = errors.New("category name is required")
	ErrCategoryNameTooLong = errors.New("category name must be at most 100 characters")
)

// Category groups products. It does not own them; products point back by CategoryID.
type Category struct {
	ID          int64
	Name        string
	Description string
}

// NewCategory validates and constructs a Category.
func NewCategory(id int64, name, description string) (*Category, error) {
	c := &Category{ID: id, Description: strings.TrimSpace(description)}
	if err := c.Rename(name); err != nil {
		return nil, err
	}
	return c, nil
}

// Rename trims and validates the category name.
func (c *Category) Rename(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyCategoryName
	}
	if utf8.RuneCountInString(name) > MaxCategoryNameLength {
		return ErrCategoryNameTooLong
	}
	c.Name = name
	return nil
}

// SameName reports whether two category names collide. Names are unique ignoring case.
func SameName(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
