package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Strob0t/CaterTrack/internal/adapter/otel"
	"github.com/Strob0t/CaterTrack/internal/domain"
	"github.com/Strob0t/CaterTrack/internal/domain/menu"
)

var importHeader = []string{"Category", "Item", "Description"}

// ParseMenuCSV reads a menu CSV with the header Category,Item,Description
// (extra columns are ignored, order is free). Rows with an empty Category or
// Item are rejected with their line number.
func ParseMenuCSV(r io.Reader) ([]menu.ImportRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, validationErr(errors.New("csv is empty"))
	}
	if err != nil {
		return nil, validationErr(fmt.Errorf("read csv header: %w", err))
	}

	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	for _, h := range importHeader {
		if _, ok := idx[h]; !ok {
			return nil, validationErr(errors.New("csv must have headers: Category,Item,Description"))
		}
	}

	field := func(rec []string, name string) string {
		if i := idx[name]; i < len(rec) {
			return strings.TrimSpace(rec[i])
		}
		return ""
	}

	var rows []menu.ImportRow
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, validationErr(fmt.Errorf("read csv: %w", err))
		}
		line, _ := cr.FieldPos(0)
		row := menu.ImportRow{
			Category:    field(rec, "Category"),
			Item:        field(rec, "Item"),
			Description: field(rec, "Description"),
		}
		if row.Category == "" && row.Item == "" && row.Description == "" {
			continue
		}
		if row.Category == "" || row.Item == "" {
			return nil, validationErr(fmt.Errorf("line %d: Category and Item are required", line))
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ImportMenu creates the categories and items named in rows that the tenant
// does not have yet. Existing ones are left untouched, so importing the same
// file twice adds nothing the second time.
func (s *MenuService) ImportMenu(ctx context.Context, tenantID string, rows []menu.ImportRow) (*menu.ImportResult, error) {
	ctx, span := otel.StartImportSpan(ctx, tenantID, len(rows))
	defer span.End()
	defer s.invalidate(ctx, tenantID)

	docs := s.docs.Tenant(tenantID)
	res := &menu.ImportResult{Message: "Import completed."}
	catIDs := make(map[string]string)

	for _, row := range rows {
		catID, ok := catIDs[row.Category]
		if !ok {
			c, err := docs.GetCategoryByName(ctx, row.Category)
			switch {
			case err == nil:
				catID = c.ID
			case errors.Is(err, domain.ErrNotFound):
				now := s.now()
				c = &menu.Category{ID: s.newID(), TenantID: tenantID, Name: row.Category, CreatedAt: now, UpdatedAt: now}
				if err := docs.CreateCategory(ctx, c); err != nil {
					return res, fmt.Errorf("create category %q: %w", row.Category, err)
				}
				catID = c.ID
				res.CategoriesAdded++
			default:
				return res, fmt.Errorf("find category %q: %w", row.Category, err)
			}
			catIDs[row.Category] = catID
		}

		_, err := docs.GetItemByName(ctx, catID, row.Item)
		if err == nil {
			continue
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return res, fmt.Errorf("find item %q: %w", row.Item, err)
		}
		now := s.now()
		it := &menu.Item{
			ID:          s.newID(),
			TenantID:    tenantID,
			CategoryID:  catID,
			Name:        row.Item,
			Description: row.Description,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := docs.CreateItem(ctx, it); err != nil {
			return res, fmt.Errorf("create item %q: %w", row.Item, err)
		}
		res.ItemsAdded++
	}
	return res, nil
}
