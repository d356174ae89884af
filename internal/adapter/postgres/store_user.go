package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Strob0t/CaterTrack/internal/domain/user"
)

const userColumns = `id, caterer_id, email, contact, password_hash, role, created_at`

func scanUser(row scannable) (user.User, error) {
	var u user.User
	err := row.Scan(&u.ID, &u.CatererID, &u.Email, &u.Contact, &u.PasswordHash, &u.Role, &u.CreatedAt)
	return u, err
}

func insertUser(ctx context.Context, tx pgx.Tx, u *user.User) error {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	_, err := tx.Exec(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		u.ID, u.CatererID, u.Email, u.Contact, u.PasswordHash, u.Role, u.CreatedAt,
	)
	if err != nil {
		return dbErr(err, "create user")
	}
	return nil
}

func (s *Store) CreateUser(ctx context.Context, u *user.User) error {
	u.CreatedAt = s.now()
	_, err := s.pool.Exec(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		u.ID, u.CatererID, u.Email, u.Contact, u.PasswordHash, u.Role, u.CreatedAt,
	)
	if err != nil {
		return dbErr(err, "create user")
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, id string) (*user.User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return nil, dbErr(err, "get user %s", id)
	}
	return &u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*user.User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email))
	if err != nil {
		return nil, dbErr(err, "get user by email")
	}
	return &u, nil
}

func (s *Store) ListUsers(ctx context.Context, catererID string) ([]user.User, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+userColumns+` FROM users WHERE caterer_id = $1 ORDER BY created_at`, catererID)
	if err != nil {
		return nil, dbErr(err, "list users")
	}
	defer rows.Close()

	var users []user.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, dbErr(err, "scan user")
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, dbErr(err, "list users")
	}
	return orEmpty(users), nil
}

func (s *Store) UpdateUserPassword(ctx context.Context, id, passwordHash string) error {
	tag, err := s.pool.Exec(ctx, `UPDATE users SET password_hash = $2 WHERE id = $1`, id, passwordHash)
	return execExpectOne(tag, err, "update password for user %s", id)
}

// --- Invites ---

func (s *Store) CreateInvite(ctx context.Context, inv *user.Invite) error {
	inv.CreatedAt = s.now()
	_, err := s.pool.Exec(ctx, `
		INSERT INTO invites (token, caterer_id, email, role, used, created_at)
		VALUES ($1, $2, $3, $4, FALSE, $5)`,
		inv.Token, inv.CatererID, inv.Email, inv.Role, inv.CreatedAt,
	)
	if err != nil {
		return dbErr(err, "create invite")
	}
	return nil
}

func (s *Store) AcceptInvite(ctx context.Context, token string, u *user.User) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return dbErr(err, "begin accept tx")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Lock the invite row so two concurrent accepts cannot both redeem it.
	err = tx.QueryRow(ctx, `
		SELECT caterer_id, email, role FROM invites
		WHERE token = $1 AND used = FALSE FOR UPDATE`, token,
	).Scan(&u.CatererID, &u.Email, &u.Role)
	if err != nil {
		return dbErr(err, "invite")
	}

	u.CreatedAt = s.now()
	if err := insertUser(ctx, tx, u); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `UPDATE invites SET used = TRUE WHERE token = $1`, token); err != nil {
		return dbErr(err, "mark invite used")
	}
	if err := tx.Commit(ctx); err != nil {
		return dbErr(err, "commit accept")
	}
	return nil
}

// --- Password resets ---

func (s *Store) CreatePasswordReset(ctx context.Context, pr *user.PasswordReset) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO password_resets (token, user_id, expires_at, used)
		VALUES ($1, $2, $3, FALSE)`,
		pr.Token, pr.UserID, pr.ExpiresAt,
	)
	if err != nil {
		return dbErr(err, "create password reset")
	}
	return nil
}

func (s *Store) ConsumePasswordReset(ctx context.Context, token, passwordHash string, now time.Time) (*user.User, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, dbErr(err, "begin reset tx")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var userID string
	err = tx.QueryRow(ctx, `
		SELECT user_id FROM password_resets
		WHERE token = $1 AND used = FALSE AND expires_at > $2 FOR UPDATE`, token, now,
	).Scan(&userID)
	if err != nil {
		return nil, dbErr(err, "password reset")
	}

	if _, err := tx.Exec(ctx, `UPDATE password_resets SET used = TRUE WHERE token = $1`, token); err != nil {
		return nil, dbErr(err, "mark reset used")
	}
	u, err := scanUser(tx.QueryRow(ctx, `
		UPDATE users SET password_hash = $2 WHERE id = $1
		RETURNING `+userColumns, userID, passwordHash))
	if err != nil {
		return nil, dbErr(err, "update password for user %s", userID)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, dbErr(err, "commit reset")
	}
	return &u, nil
}
