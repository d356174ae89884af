// Package menu defines a caterer's catalog: categories, items and priced packages.
package menu

import (
	"errors"
	"strings"
	"time"

	"github.com/Strob0t/CaterTrack/internal/domain/money"
)

// Category groups menu items. Names are unique per caterer.
type Category struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"-"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Item is a dish within a category. Names are unique per category.
type Item struct {
	ID          string    `json:"id"`
	TenantID    string    `json:"-"`
	CategoryID  string    `json:"category_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// PackageEntry selects a quantity of one item for a package.
type PackageEntry struct {
	CategoryID string `json:"category_id"`
	ItemID     string `json:"item_id"`
	Quantity   int    `json:"quantity"`
}

// Package is a priced bundle of menu items. Names are unique per caterer.
type Package struct {
	ID          string         `json:"id"`
	TenantID    string         `json:"-"`
	Name        string         `json:"name"`
	Price       money.Amount   `json:"price"`
	Description string         `json:"description,omitempty"`
	Menu        []PackageEntry `json:"menu"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// FullCategory is a category together with all of its items.
type FullCategory struct {
	Category
	Items []Item `json:"items"`
}

// CreateCategoryRequest is the input for adding a category.
type CreateCategoryRequest struct {
	Name string `json:"name"`
}

// Validate checks that the category has a name.
func (r *CreateCategoryRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return errors.New("name is required")
	}
	return nil
}

// CreateItemRequest is the input for adding an item.
type CreateItemRequest struct {
	CategoryID  string `json:"category_id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Validate checks that the item has a category and a name.
func (r *CreateItemRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	if r.CategoryID == "" {
		return errors.New("category_id is required")
	}
	if r.Name == "" {
		return errors.New("name is required")
	}
	return nil
}

// CreatePackageRequest is the input for adding a package.
type CreatePackageRequest struct {
	Name        string         `json:"name"`
	Price       money.Amount   `json:"price"`
	Description string         `json:"description,omitempty"`
	Menu        []PackageEntry `json:"menu,omitempty"`
}

// Validate checks the package payload.
func (r *CreatePackageRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return errors.New("name is required")
	}
	if r.Price.IsNegative() {
		return errors.New("price must be >= 0")
	}
	for _, e := range r.Menu {
		if e.ItemID == "" {
			return errors.New("menu entries require item_id")
		}
		if e.Quantity < 1 {
			return errors.New("menu entry quantity must be >= 1")
		}
	}
	return nil
}

// ImportRow is one parsed line of a menu CSV.
type ImportRow struct {
	Category    string
	Item        string
	Description string
}

// ImportResult summarizes a CSV import.
type ImportResult struct {
	Message         string `json:"message"`
	CategoriesAdded int    `json:"categories_added"`
	ItemsAdded      int    `json:"items_added"`
}
