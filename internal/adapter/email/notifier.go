// Package email delivers notifications (staff invites, password resets) over SMTP.
package email

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/Strob0t/CaterTrack/internal/config"
	"github.com/Strob0t/CaterTrack/internal/port/notifier"
)

const dialTimeout = 10 * time.Second

// Notifier sends email notifications via SMTP.
type Notifier struct {
	cfg config.Email
}

var _ notifier.Notifier = (*Notifier)(nil)

// NewNotifier creates a new email notifier.
func NewNotifier(cfg config.Email) *Notifier {
	return &Notifier{cfg: cfg}
}

// Name returns the notifier identifier.
func (n *Notifier) Name() string { return "email" }

// Send delivers one HTML message. It returns notifier.ErrNotConfigured when
// no SMTP host is set, so development setups can run without a relay.
func (n *Notifier) Send(ctx context.Context, msg notifier.Notification) error {
	if n.cfg.Host == "" {
		return notifier.ErrNotConfigured
	}
	body, err := buildMessage(n.cfg.From, msg)
	if err != nil {
		return err
	}

	addr := net.JoinHostPort(n.cfg.Host, strconv.Itoa(n.cfg.Port))
	d := net.Dialer{Timeout: dialTimeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("smtp dial %s: %w", addr, err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	c, err := smtp.NewClient(conn, n.cfg.Host)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer func() { _ = c.Close() }()

	if n.cfg.StartTLS {
		if ok, _ := c.Extension("STARTTLS"); ok {
			if err := c.StartTLS(&tls.Config{ServerName: n.cfg.Host, MinVersion: tls.VersionTLS12}); err != nil {
				return fmt.Errorf("smtp starttls: %w", err)
			}
		}
	}
	if n.cfg.Password != "" {
		user := n.cfg.User
		if user == "" {
			user = n.cfg.From
		}
		if err := c.Auth(smtp.PlainAuth("", user, n.cfg.Password, n.cfg.Host)); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}

	if err := c.Mail(n.cfg.From); err != nil {
		return fmt.Errorf("smtp mail from: %w", err)
	}
	if err := c.Rcpt(msg.To); err != nil {
		return fmt.Errorf("smtp rcpt %s: %w", msg.To, err)
	}
	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	if _, err := w.Write(body); err != nil {
		return fmt.Errorf("smtp write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp data close: %w", err)
	}
	return c.Quit()
}

var errHeaderInjection = errors.New("email: header value contains a line break")

// buildMessage renders the RFC 5322 message. Header values may not contain
// CR or LF; the subject is RFC 2047 encoded.
func buildMessage(from string, msg notifier.Notification) ([]byte, error) {
	for _, v := range []string{from, msg.To, msg.Subject} {
		if strings.ContainsAny(v, "\r\n") {
			return nil, errHeaderInjection
		}
	}
	var b bytes.Buffer
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", msg.Subject))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(msg.Body)
	return b.Bytes(), nil
}
