// Package user defines staff accounts, invitations and password resets.
package user

import (
	"errors"
	"net/mail"
	"time"
)

// Role represents the authorization level of a staff member within a caterer.
type Role string

const (
	RoleOwner   Role = "OWNER"
	RoleManager Role = "MANAGER"
	RoleCashier Role = "CASHIER"
)

// ValidRoles is the set of all valid user roles.
var ValidRoles = map[Role]bool{
	RoleOwner:   true,
	RoleManager: true,
	RoleCashier: true,
}

// InvitableRoles are the roles an owner may hand out through an invitation.
var InvitableRoles = map[Role]bool{
	RoleManager: true,
	RoleCashier: true,
}

const minPasswordLen = 8

// User represents a staff account bound to one caterer.
type User struct {
	ID           string    `json:"id"`
	CatererID    string    `json:"caterer_id"`
	Email        string    `json:"email"`
	Contact      string    `json:"contact"`
	PasswordHash string    `json:"-"` // never serialized
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// RegisterRequest creates a new caterer together with its OWNER account.
type RegisterRequest struct {
	Email       string `json:"email"`
	Contact     string `json:"contact"`
	Password    string `json:"password"` //nolint:gosec // request field, not a hardcoded secret
	CatererName string `json:"caterer_name,omitempty"`
}

// Validate checks that the RegisterRequest has all required fields.
func (r *RegisterRequest) Validate() error {
	if err := validateEmail(r.Email); err != nil {
		return err
	}
	if r.Contact == "" {
		return errors.New("contact is required")
	}
	return validatePassword(r.Password)
}

// LoginRequest is the input for user authentication.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"` //nolint:gosec // request field, not a hardcoded secret
}

// Validate checks that the LoginRequest has all required fields.
func (r *LoginRequest) Validate() error {
	if r.Email == "" {
		return errors.New("email is required")
	}
	if r.Password == "" {
		return errors.New("password is required")
	}
	return nil
}

// TokenResponse is returned by login, invite acceptance and password reset.
type TokenResponse struct {
	AccessToken string `json:"access_token"` //nolint:gosec // response field, not a hardcoded secret
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"` // seconds until access token expires
}

// Claims is the authenticated identity carried by an access token.
type Claims struct {
	UserID   string
	TenantID string
	Role     Role
}

// Invite is a single-use staff invitation.
type Invite struct {
	Token     string    `json:"token"`
	CatererID string    `json:"caterer_id"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	Used      bool      `json:"used"`
	CreatedAt time.Time `json:"created_at"`
}

// InviteRequest is the input for inviting a staff member.
type InviteRequest struct {
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// Validate checks the invitation target.
func (r *InviteRequest) Validate() error {
	if err := validateEmail(r.Email); err != nil {
		return err
	}
	if !InvitableRoles[r.Role] {
		return errors.New("invalid role: must be MANAGER or CASHIER")
	}
	return nil
}

// AcceptInviteRequest redeems an invitation.
type AcceptInviteRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"` //nolint:gosec // request field, not a hardcoded secret
	Contact  string `json:"contact,omitempty"`
}

// Validate checks the acceptance payload.
func (r *AcceptInviteRequest) Validate() error {
	if r.Token == "" {
		return errors.New("token is required")
	}
	return validatePassword(r.Password)
}

// PasswordReset is a single-use, expiring reset token.
type PasswordReset struct {
	Token     string    `json:"token"`
	UserID    string    `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
	Used      bool      `json:"used"`
}

// ForgotPasswordRequest starts a password reset.
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// ResetPasswordRequest completes a password reset.
type ResetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"` //nolint:gosec // request field, not a hardcoded secret
}

// Validate checks the reset payload.
func (r *ResetPasswordRequest) Validate() error {
	if r.Token == "" {
		return errors.New("token is required")
	}
	return validatePassword(r.Password)
}

func validateEmail(email string) error {
	if email == "" {
		return errors.New("email is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return errors.New("invalid email format")
	}
	return nil
}

func validatePassword(pw string) error {
	if pw == "" {
		return errors.New("password is required")
	}
	if len(pw) < minPasswordLen {
		return errors.New("password must be at least 8 characters")
	}
	return nil
}
