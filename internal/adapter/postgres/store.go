package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Strob0t/CaterTrack/internal/domain/caterer"
	"github.com/Strob0t/CaterTrack/internal/domain/user"
	"github.com/Strob0t/CaterTrack/internal/port/database"
)

// Store implements database.Store using PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

var _ database.Store = (*Store)(nil)

// NewStore creates a new Store backed by the given connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool, now: func() time.Time { return time.Now().UTC() }}
}

// Ping reports whether the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Tenant returns a capability restricted to one caterer's rows.
func (s *Store) Tenant(tenantID string) database.TenantStore {
	return &tenantStore{pool: s.pool, tenantID: tenantID, now: s.now}
}

// --- Caterers ---

const catererColumns = `id, name, email, contact, address, city, state, postal_code, description, profile_image_url, created_at, updated_at`

func scanCaterer(row scannable) (caterer.Caterer, error) {
	var c caterer.Caterer
	err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Contact, &c.Address, &c.City, &c.State,
		&c.PostalCode, &c.Description, &c.ProfileImageURL, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

// CreateCatererWithOwner inserts the caterer and its first OWNER account atomically.
func (s *Store) CreateCatererWithOwner(ctx context.Context, c *caterer.Caterer, owner *user.User) error {
	now := s.now()
	c.CreatedAt, c.UpdatedAt = now, now
	owner.CreatedAt = now
	owner.CatererID = c.ID

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return dbErr(err, "begin register tx")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `
		INSERT INTO caterers (`+catererColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		c.ID, c.Name, c.Email, c.Contact, c.Address, c.City, c.State, c.PostalCode,
		c.Description, c.ProfileImageURL, c.CreatedAt, c.UpdatedAt,
	); err != nil {
		return dbErr(err, "create caterer")
	}
	if err := insertUser(ctx, tx, owner); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return dbErr(err, "commit register")
	}
	return nil
}

func (s *Store) GetCaterer(ctx context.Context, id string) (*caterer.Caterer, error) {
	c, err := scanCaterer(s.pool.QueryRow(ctx,
		`SELECT `+catererColumns+` FROM caterers WHERE id = $1`, id))
	if err != nil {
		return nil, dbErr(err, "get caterer %s", id)
	}
	return &c, nil
}

func (s *Store) UpdateCaterer(ctx context.Context, c *caterer.Caterer) error {
	c.UpdatedAt = s.now()
	tag, err := s.pool.Exec(ctx, `
		UPDATE caterers SET name = $2, contact = $3, address = $4, city = $5, state = $6,
			postal_code = $7, description = $8, profile_image_url = $9, updated_at = $10
		WHERE id = $1`,
		c.ID, c.Name, c.Contact, c.Address, c.City, c.State, c.PostalCode,
		c.Description, c.ProfileImageURL, c.UpdatedAt,
	)
	return execExpectOne(tag, err, "update caterer %s", c.ID)
}

func (s *Store) ListCatererIDs(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT id FROM caterers ORDER BY created_at`)
	if err != nil {
		return nil, dbErr(err, "list caterers")
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, dbErr(err, "scan caterer id")
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, dbErr(err, "list caterers")
	}
	return orEmpty(ids), nil
}
