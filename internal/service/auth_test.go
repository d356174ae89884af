package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Strob0t/CaterTrack/internal/config"
	"github.com/Strob0t/CaterTrack/internal/domain"
	"github.com/Strob0t/CaterTrack/internal/domain/user"
	"github.com/Strob0t/CaterTrack/internal/port/messagequeue"
	"github.com/Strob0t/CaterTrack/internal/service/servicetest"
)

type recordingMailer struct {
	mu   sync.Mutex
	sent []messagequeue.EmailPayload
}

func (m *recordingMailer) Enqueue(_ context.Context, p messagequeue.EmailPayload) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, p)
	return nil
}

func (m *recordingMailer) last() messagequeue.EmailPayload {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sent[len(m.sent)-1]
}

func newTestAuthService(store *servicetest.Store, mailer Mailer) *AuthService {
	cfg := config.Auth{
		Enabled:           true,
		JWTSecret:         "test-secret-key-must-be-long-enough",
		AccessTokenExpiry: 15 * time.Minute,
		ResetTokenExpiry:  time.Hour,
		BcryptCost:        4, // low cost for fast tests
	}
	return NewAuthService(store, cfg, "http://app.test/", mailer)
}

func tokenFromLink(t *testing.T, html string) string {
	t.Helper()
	_, rest, ok := strings.Cut(html, "?token=")
	if !ok {
		t.Fatalf("no token link in %q", html)
	}
	tok, _, _ := strings.Cut(rest, `"`)
	return tok
}

func TestAuthService_RegisterAndLogin(t *testing.T) {
	store := servicetest.NewStore()
	svc := newTestAuthService(store, nil)
	ctx := context.Background()

	resp, err := svc.Register(ctx, &user.RegisterRequest{
		Email:       "owner@example.com",
		Contact:     "555-0100",
		Password:    "Password123",
		CatererName: "Spice Route",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if resp.AccessToken == "" || resp.TokenType != "bearer" || resp.ExpiresIn != 900 {
		t.Fatalf("unexpected token response %+v", resp)
	}

	claims, err := svc.ValidateAccessToken(resp.AccessToken)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.Role != user.RoleOwner {
		t.Errorf("role = %s, want OWNER", claims.Role)
	}
	c, err := store.GetCaterer(ctx, claims.TenantID)
	if err != nil {
		t.Fatalf("caterer not created: %v", err)
	}
	if c.Name != "Spice Route" {
		t.Errorf("caterer name = %q", c.Name)
	}

	login, err := svc.Login(ctx, &user.LoginRequest{Email: "OWNER@example.com", Password: "Password123"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	lc, err := svc.ValidateAccessToken(login.AccessToken)
	if err != nil {
		t.Fatal(err)
	}
	if lc.UserID != claims.UserID || lc.TenantID != claims.TenantID {
		t.Fatalf("login claims %+v differ from register claims %+v", lc, claims)
	}

	me, err := svc.Me(ctx, lc)
	if err != nil || me.Email != "owner@example.com" {
		t.Fatalf("me = %+v, %v", me, err)
	}
}

func TestAuthService_RegisterDuplicateEmail(t *testing.T) {
	svc := newTestAuthService(servicetest.NewStore(), nil)
	ctx := context.Background()
	req := user.RegisterRequest{Email: "dup@example.com", Contact: "1", Password: "Password123"}
	r1 := req
	if _, err := svc.Register(ctx, &r1); err != nil {
		t.Fatal(err)
	}
	r2 := req
	if _, err := svc.Register(ctx, &r2); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestAuthService_InvalidLogin(t *testing.T) {
	svc := newTestAuthService(servicetest.NewStore(), nil)
	ctx := context.Background()
	if _, err := svc.Register(ctx, &user.RegisterRequest{Email: "a@example.com", Contact: "1", Password: "Password123"}); err != nil {
		t.Fatal(err)
	}

	if _, err := svc.Login(ctx, &user.LoginRequest{Email: "a@example.com", Password: "wrong-pass"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password: got %v", err)
	}
	if _, err := svc.Login(ctx, &user.LoginRequest{Email: "nobody@example.com", Password: "Password123"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown email: got %v", err)
	}
	if _, err := svc.Login(ctx, &user.LoginRequest{Email: "a@example.com"}); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("missing password: got %v", err)
	}
}

func TestAuthService_ValidateAccessToken(t *testing.T) {
	store := servicetest.NewStore()
	svc := newTestAuthService(store, nil)
	ctx := context.Background()
	resp, err := svc.Register(ctx, &user.RegisterRequest{Email: "a@example.com", Contact: "1", Password: "Password123"})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := svc.ValidateAccessToken("not.a.token"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("garbage: got %v", err)
	}

	parts := strings.Split(resp.AccessToken, ".")
	tampered := parts[0] + "." + parts[1] + ".AAAA" + parts[2][4:]
	if _, err := svc.ValidateAccessToken(tampered); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("tampered: got %v", err)
	}

	other := newTestAuthService(store, nil)
	other.secret = []byte("another-secret-that-is-long-enough")
	if _, err := other.ValidateAccessToken(resp.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("foreign secret: got %v", err)
	}

	svc.now = func() time.Time { return time.Now().Add(time.Hour) }
	_, err = svc.ValidateAccessToken(resp.AccessToken)
	if !errors.Is(err, ErrInvalidToken) || !strings.Contains(err.Error(), "expired") {
		t.Errorf("expired: got %v", err)
	}
}

func TestAuthService_InviteFlow(t *testing.T) {
	store := servicetest.NewStore()
	mailer := &recordingMailer{}
	svc := newTestAuthService(store, mailer)
	ctx := context.Background()

	resp, err := svc.Register(ctx, &user.RegisterRequest{Email: "owner@example.com", Contact: "1", Password: "Password123"})
	if err != nil {
		t.Fatal(err)
	}
	owner, _ := svc.ValidateAccessToken(resp.AccessToken)

	inv, err := svc.Invite(ctx, owner, &user.InviteRequest{Email: "cashier@example.com", Role: user.RoleCashier})
	if err != nil {
		t.Fatalf("invite: %v", err)
	}
	mail := mailer.last()
	if mail.To != "cashier@example.com" || mail.Kind != "invite" {
		t.Fatalf("unexpected email %+v", mail)
	}
	if !strings.Contains(mail.HTML, "http://app.test/accept-invite?token=") {
		t.Fatalf("invite link missing: %s", mail.HTML)
	}
	if tok := tokenFromLink(t, mail.HTML); tok != inv.Token {
		t.Fatalf("link token %q != invite token %q", tok, inv.Token)
	}

	accepted, err := svc.AcceptInvite(ctx, &user.AcceptInviteRequest{Token: inv.Token, Password: "Cashier123"})
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	cc, _ := svc.ValidateAccessToken(accepted.AccessToken)
	if cc.TenantID != owner.TenantID || cc.Role != user.RoleCashier {
		t.Fatalf("cashier claims %+v", cc)
	}

	if _, err := svc.AcceptInvite(ctx, &user.AcceptInviteRequest{Token: inv.Token, Password: "Cashier123"}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("second acceptance: got %v", err)
	}

	if _, err := svc.Invite(ctx, cc, &user.InviteRequest{Email: "x@example.com", Role: user.RoleManager}); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("cashier invite: got %v", err)
	}
	if _, err := svc.Invite(ctx, owner, &user.InviteRequest{Email: "x@example.com", Role: user.RoleOwner}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("owner role invite: got %v", err)
	}

	users, err := svc.ListUsers(ctx, owner.TenantID)
	if err != nil || len(users) != 2 {
		t.Fatalf("users = %d, %v", len(users), err)
	}
}

func TestAuthService_PasswordReset(t *testing.T) {
	store := servicetest.NewStore()
	mailer := &recordingMailer{}
	svc := newTestAuthService(store, mailer)
	ctx := context.Background()

	if _, err := svc.Register(ctx, &user.RegisterRequest{Email: "a@example.com", Contact: "1", Password: "Password123"}); err != nil {
		t.Fatal(err)
	}

	if err := svc.ForgotPassword(ctx, &user.ForgotPasswordRequest{Email: "unknown@example.com"}); err != nil {
		t.Fatalf("unknown email must succeed silently: %v", err)
	}
	if len(mailer.sent) != 0 {
		t.Fatal("no email expected for unknown address")
	}

	if err := svc.ForgotPassword(ctx, &user.ForgotPasswordRequest{Email: "a@example.com"}); err != nil {
		t.Fatal(err)
	}
	mail := mailer.last()
	if mail.Kind != "password_reset" {
		t.Fatalf("kind = %q", mail.Kind)
	}
	tok := tokenFromLink(t, mail.HTML)

	if _, err := svc.ResetPassword(ctx, &user.ResetPasswordRequest{Token: tok, Password: "Newpass123"}); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if _, err := svc.Login(ctx, &user.LoginRequest{Email: "a@example.com", Password: "Password123"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("old password must stop working: %v", err)
	}
	if _, err := svc.Login(ctx, &user.LoginRequest{Email: "a@example.com", Password: "Newpass123"}); err != nil {
		t.Fatalf("new password: %v", err)
	}
	if _, err := svc.ResetPassword(ctx, &user.ResetPasswordRequest{Token: tok, Password: "Another123"}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("token reuse: got %v", err)
	}
}

func TestAuthService_ResetTokenExpires(t *testing.T) {
	store := servicetest.NewStore()
	mailer := &recordingMailer{}
	svc := newTestAuthService(store, mailer)
	ctx := context.Background()
	if _, err := svc.Register(ctx, &user.RegisterRequest{Email: "a@example.com", Contact: "1", Password: "Password123"}); err != nil {
		t.Fatal(err)
	}
	if err := svc.ForgotPassword(ctx, &user.ForgotPasswordRequest{Email: "a@example.com"}); err != nil {
		t.Fatal(err)
	}
	tok := tokenFromLink(t, mailer.last().HTML)

	svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if _, err := svc.ResetPassword(ctx, &user.ResetPasswordRequest{Token: tok, Password: "Newpass123"}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expired token: got %v", err)
	}
}
