package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Strob0t/CaterTrack/internal/domain"
	"github.com/Strob0t/CaterTrack/internal/domain/menu"
)

var byName = options.Find().SetSort(bson.D{{Key: "name", Value: 1}})

// --- Categories ---

func (t *tenantDocs) CreateCategory(ctx context.Context, c *menu.Category) error {
	c.TenantID = t.tenantID
	_, err := t.categories.InsertOne(ctx, categoryDoc{
		ID: c.ID, TenantID: c.TenantID, Name: c.Name, CreatedAt: c.CreatedAt, UpdatedAt: c.UpdatedAt,
	})
	if err != nil {
		return docErr(err, "create category %q", c.Name)
	}
	return nil
}

func (t *tenantDocs) GetCategory(ctx context.Context, id string) (*menu.Category, error) {
	var d categoryDoc
	if err := t.categories.FindOne(ctx, t.scope(bson.E{Key: "_id", Value: id})).Decode(&d); err != nil {
		return nil, docErr(err, "get category %s", id)
	}
	c := d.toDomain()
	return &c, nil
}

func (t *tenantDocs) GetCategoryByName(ctx context.Context, name string) (*menu.Category, error) {
	var d categoryDoc
	if err := t.categories.FindOne(ctx, t.scope(bson.E{Key: "name", Value: name})).Decode(&d); err != nil {
		return nil, docErr(err, "get category %q", name)
	}
	c := d.toDomain()
	return &c, nil
}

func (t *tenantDocs) ListCategories(ctx context.Context) ([]menu.Category, error) {
	cur, err := t.categories.Find(ctx, t.scope(), byName)
	if err != nil {
		return nil, docErr(err, "list categories")
	}
	docs, err := decodeAll[categoryDoc](ctx, cur, "list categories")
	if err != nil {
		return nil, err
	}
	out := make([]menu.Category, len(docs))
	for i := range docs {
		out[i] = docs[i].toDomain()
	}
	return out, nil
}

func (t *tenantDocs) DeleteCategory(ctx context.Context, id string) error {
	res, err := t.categories.DeleteOne(ctx, t.scope(bson.E{Key: "_id", Value: id}))
	if err != nil {
		return docErr(err, "delete category %s", id)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("delete category %s: %w", id, domain.ErrNotFound)
	}
	if _, err := t.items.DeleteMany(ctx, t.scope(bson.E{Key: "category_id", Value: id})); err != nil {
		return docErr(err, "delete items of category %s", id)
	}
	return nil
}

// --- Items ---

func (t *tenantDocs) CreateItem(ctx context.Context, it *menu.Item) error {
	it.TenantID = t.tenantID
	_, err := t.items.InsertOne(ctx, itemDoc{
		ID:          it.ID,
		TenantID:    it.TenantID,
		CategoryID:  it.CategoryID,
		Name:        it.Name,
		Description: it.Description,
		CreatedAt:   it.CreatedAt,
		UpdatedAt:   it.UpdatedAt,
	})
	if err != nil {
		return docErr(err, "create item %q", it.Name)
	}
	return nil
}

func (t *tenantDocs) GetItemByName(ctx context.Context, categoryID, name string) (*menu.Item, error) {
	var d itemDoc
	err := t.items.FindOne(ctx, t.scope(
		bson.E{Key: "category_id", Value: categoryID},
		bson.E{Key: "name", Value: name},
	)).Decode(&d)
	if err != nil {
		return nil, docErr(err, "get item %q", name)
	}
	it := d.toDomain()
	return &it, nil
}

func (t *tenantDocs) ListItems(ctx context.Context, categoryID string) ([]menu.Item, error) {
	filter := t.scope()
	if categoryID != "" {
		filter = t.scope(bson.E{Key: "category_id", Value: categoryID})
	}
	cur, err := t.items.Find(ctx, filter, byName)
	if err != nil {
		return nil, docErr(err, "list items")
	}
	docs, err := decodeAll[itemDoc](ctx, cur, "list items")
	if err != nil {
		return nil, err
	}
	out := make([]menu.Item, len(docs))
	for i := range docs {
		out[i] = docs[i].toDomain()
	}
	return out, nil
}

func (t *tenantDocs) DeleteItem(ctx context.Context, id string) error {
	res, err := t.items.DeleteOne(ctx, t.scope(bson.E{Key: "_id", Value: id}))
	if err != nil {
		return docErr(err, "delete item %s", id)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("delete item %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// --- Packages ---

func (t *tenantDocs) CreatePackage(ctx context.Context, p *menu.Package) error {
	p.TenantID = t.tenantID
	if _, err := t.packages.InsertOne(ctx, toPackageDoc(p)); err != nil {
		return docErr(err, "create package %q", p.Name)
	}
	return nil
}

func (t *tenantDocs) ListPackages(ctx context.Context) ([]menu.Package, error) {
	cur, err := t.packages.Find(ctx, t.scope(), byName)
	if err != nil {
		return nil, docErr(err, "list packages")
	}
	docs, err := decodeAll[packageDoc](ctx, cur, "list packages")
	if err != nil {
		return nil, err
	}
	out := make([]menu.Package, len(docs))
	for i := range docs {
		out[i] = docs[i].toDomain()
	}
	return out, nil
}
