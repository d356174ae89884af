package service

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/Strob0t/CaterTrack/internal/config"
	"github.com/Strob0t/CaterTrack/internal/domain"
	"github.com/Strob0t/CaterTrack/internal/domain/caterer"
	"github.com/Strob0t/CaterTrack/internal/domain/user"
	"github.com/Strob0t/CaterTrack/internal/port/database"
	"github.com/Strob0t/CaterTrack/internal/port/messagequeue"
)

// Token validation and login failures. The HTTP layer maps both to 401.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
)

const (
	tokenIssuer   = "catertrack"
	tokenAudience = "catertrack-api"
)

// Mailer queues an outbound email without waiting for delivery.
type Mailer interface {
	Enqueue(ctx context.Context, p messagequeue.EmailPayload) error
}

// accessClaims is the JWT payload: sub is the user, tid the caterer.
type accessClaims struct {
	TenantID string    `json:"tid"`
	Role     user.Role `json:"role"`
	jwt.RegisteredClaims
}

// AuthService handles registration, login, invitations, password resets and
// access tokens (HS256).
type AuthService struct {
	store       database.Store
	cfg         config.Auth
	frontendURL string
	secret      []byte
	mailer      Mailer
	now         func() time.Time
	newID       func() string
}

// NewAuthService creates a new authentication service. mailer may be nil,
// in which case invite and reset emails are only logged.
func NewAuthService(store database.Store, cfg config.Auth, frontendURL string, mailer Mailer) *AuthService {
	return &AuthService{
		store:       store,
		cfg:         cfg,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		secret:      []byte(cfg.JWTSecret),
		mailer:      mailer,
		now:         func() time.Time { return time.Now().UTC() },
		newID:       newID,
	}
}

// Register creates a caterer and its OWNER account in one transaction and
// returns a token for the new owner.
func (s *AuthService) Register(ctx context.Context, req *user.RegisterRequest) (*user.TokenResponse, error) {
	u, err := s.RegisterOwner(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.issue(u)
}

// RegisterOwner is Register without issuing a token; the admin CLI uses it.
func (s *AuthService) RegisterOwner(ctx context.Context, req *user.RegisterRequest) (*user.User, error) {
	req.Email = strings.TrimSpace(req.Email)
	if err := req.Validate(); err != nil {
		return nil, validationErr(err)
	}

	hash, err := s.hash(req.Password)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.CatererName)
	if name == "" {
		name, _, _ = strings.Cut(req.Email, "@")
	}
	c := &caterer.Caterer{
		ID:      s.newID(),
		Name:    name,
		Email:   req.Email,
		Contact: req.Contact,
	}
	u := &user.User{
		ID:           s.newID(),
		Email:        req.Email,
		Contact:      req.Contact,
		PasswordHash: hash,
		Role:         user.RoleOwner,
	}
	if err := s.store.CreateCatererWithOwner(ctx, c, u); err != nil {
		return nil, fmt.Errorf("register caterer: %w", err)
	}
	slog.Info("caterer registered", "tenant_id", c.ID, "user_id", u.ID)
	return u, nil
}

// Login authenticates by email and password.
func (s *AuthService) Login(ctx context.Context, req *user.LoginRequest) (*user.TokenResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, validationErr(err)
	}

	u, err := s.store.GetUserByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return s.issue(u)
}

// Me returns the account behind the claims.
func (s *AuthService) Me(ctx context.Context, claims *user.Claims) (*user.User, error) {
	u, err := s.store.GetUser(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	if u.CatererID != claims.TenantID {
		return nil, domain.ErrNotFound
	}
	return u, nil
}

// ListUsers returns the staff of a caterer.
func (s *AuthService) ListUsers(ctx context.Context, tenantID string) ([]user.User, error) {
	return s.store.ListUsers(ctx, tenantID)
}

// Invite creates a single-use invitation into the inviter's caterer and
// emails the link. Only owners may invite.
func (s *AuthService) Invite(ctx context.Context, claims *user.Claims, req *user.InviteRequest) (*user.Invite, error) {
	if claims.Role != user.RoleOwner {
		return nil, domain.ErrForbidden
	}
	req.Email = strings.TrimSpace(req.Email)
	if err := req.Validate(); err != nil {
		return nil, validationErr(err)
	}

	inv := &user.Invite{
		Token:     s.newID(),
		CatererID: claims.TenantID,
		Email:     req.Email,
		Role:      req.Role,
		CreatedAt: s.now(),
	}
	if err := s.store.CreateInvite(ctx, inv); err != nil {
		return nil, fmt.Errorf("create invite: %w", err)
	}

	link := s.link("/accept-invite", inv.Token)
	s.mail(ctx, messagequeue.EmailPayload{
		To:      inv.Email,
		Subject: "You have been invited to CaterTrack",
		HTML: fmt.Sprintf(`<p>You have been invited to join as %s.</p><p><a href="%s">Accept the invitation</a></p>`,
			html.EscapeString(string(inv.Role)), html.EscapeString(link)),
		Kind: "invite",
	})
	return inv, nil
}

// AcceptInvite redeems an invitation, creating the invited account.
func (s *AuthService) AcceptInvite(ctx context.Context, req *user.AcceptInviteRequest) (*user.TokenResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, validationErr(err)
	}
	hash, err := s.hash(req.Password)
	if err != nil {
		return nil, err
	}
	u := &user.User{
		ID:           s.newID(),
		Contact:      req.Contact,
		PasswordHash: hash,
		CreatedAt:    s.now(),
	}
	if err := s.store.AcceptInvite(ctx, req.Token, u); err != nil {
		return nil, fmt.Errorf("accept invite: %w", err)
	}
	return s.issue(u)
}

// ForgotPassword emails a reset link when the address belongs to an account.
// Unknown addresses succeed silently so the endpoint does not reveal accounts.
func (s *AuthService) ForgotPassword(ctx context.Context, req *user.ForgotPasswordRequest) error {
	email := strings.TrimSpace(req.Email)
	if email == "" {
		return validationErr(errors.New("email is required"))
	}
	u, err := s.store.GetUserByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}

	pr := &user.PasswordReset{
		Token:     s.newID(),
		UserID:    u.ID,
		ExpiresAt: s.now().Add(s.cfg.ResetTokenExpiry),
	}
	if err := s.store.CreatePasswordReset(ctx, pr); err != nil {
		return fmt.Errorf("create password reset: %w", err)
	}

	link := s.link("/reset-password", pr.Token)
	s.mail(ctx, messagequeue.EmailPayload{
		To:      u.Email,
		Subject: "Reset your CaterTrack password",
		HTML: fmt.Sprintf(`<p>A password reset was requested for your account.</p><p><a href="%s">Choose a new password</a></p><p>The link expires in %s.</p>`,
			html.EscapeString(link), s.cfg.ResetTokenExpiry),
		Kind: "password_reset",
	})
	return nil
}

// ResetPassword consumes a reset token and sets the new password.
func (s *AuthService) ResetPassword(ctx context.Context, req *user.ResetPasswordRequest) (*user.TokenResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, validationErr(err)
	}
	hash, err := s.hash(req.Password)
	if err != nil {
		return nil, err
	}
	u, err := s.store.ConsumePasswordReset(ctx, req.Token, hash, s.now())
	if err != nil {
		return nil, fmt.Errorf("reset password: %w", err)
	}
	return s.issue(u)
}

// ValidateAccessToken verifies signature, issuer, audience and expiry.
func (s *AuthService) ValidateAccessToken(tokenStr string) (*user.Claims, error) {
	var c accessClaims
	_, err := jwt.ParseWithClaims(tokenStr, &c,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithAudience(tokenAudience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: token expired", ErrInvalidToken)
		}
		return nil, ErrInvalidToken
	}
	if c.Subject == "" || c.TenantID == "" || !user.ValidRoles[c.Role] {
		return nil, ErrInvalidToken
	}
	return &user.Claims{UserID: c.Subject, TenantID: c.TenantID, Role: c.Role}, nil
}

func (s *AuthService) issue(u *user.User) (*user.TokenResponse, error) {
	now := s.now()
	claims := accessClaims{
		TenantID: u.CatererID,
		Role:     u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			Issuer:    tokenIssuer,
			Audience:  jwt.ClaimStrings{tokenAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.AccessTokenExpiry)),
			ID:        s.newID(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &user.TokenResponse{
		AccessToken: signed,
		TokenType:   "bearer",
		ExpiresIn:   int(s.cfg.AccessTokenExpiry.Seconds()),
	}, nil
}

func (s *AuthService) hash(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(h), nil
}

func (s *AuthService) link(path, token string) string {
	return s.frontendURL + path + "?token=" + url.QueryEscape(token)
}

func (s *AuthService) mail(ctx context.Context, p messagequeue.EmailPayload) {
	if s.mailer == nil {
		slog.Warn("no mailer configured, email not sent", "kind", p.Kind)
		return
	}
	if err := s.mailer.Enqueue(ctx, p); err != nil {
		slog.Error("queue email failed", "kind", p.Kind, "error", err)
	}
}
