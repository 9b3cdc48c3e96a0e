package domain

import "errors"

// Category-specific validation errors.
var (
	ErrEmptyCategoryID   = errors.New("category ID cannot be empty")
	ErrEmptyCategoryName = errors.New("category name cannot be empty")
	ErrCategoryNameLong  = errors.New("category name must be at most 100 characters")
	ErrEmptyCategorySlug = errors.New("category slug cannot be empty")
)

// Category groups tasks. A category with a nil OwnerID is a global preset
// visible to everyone; user-owned categories are private. The (owner, slug)
// pair is unique, with the nil owner forming its own namespace.
type Category struct {
	ID      string  `json:"id"`
	OwnerID *string `json:"owner_id,omitempty"`
	Name    string  `json:"name"`
	Slug    string  `json:"slug"`
}

// NewCategory creates a category owned by the given user. ownerID may be
// nil for global presets. The caller supplies the generated ID and the
// slug derived from the name.
func NewCategory(id string, ownerID *string, name, slug string) (*Category, error) {
	cat := &Category{
		ID:      id,
		OwnerID: ownerID,
		Name:    name,
		Slug:    slug,
	}
	if err := cat.Validate(); err != nil {
		return nil, err
	}
	return cat, nil
}

// Validate checks if the Category has valid data.
func (c *Category) Validate() error {
	if c.ID == "" {
		return ErrEmptyCategoryID
	}
	if c.Name == "" {
		return ErrEmptyCategoryName
	}
	if len(c.Name) > 100 {
		return ErrCategoryNameLong
	}
	if c.Slug == "" {
		return ErrEmptyCategorySlug
	}
	return nil
}

// IsGlobal reports whether the category is a shared preset with no owner.
func (c *Category) IsGlobal() bool {
	return c.OwnerID == nil
}
