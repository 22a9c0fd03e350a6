package email

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/tvtracker/tvtracker/internal/notification/types"
)

// EncryptionMode defines the TLS encryption strategy
type EncryptionMode string

const (
	EncryptionPreferred EncryptionMode = "preferred" // Try STARTTLS, fall back to plain
	EncryptionAlways    EncryptionMode = "always"    // Require TLS (port 465 or STARTTLS)
	EncryptionNever     EncryptionMode = "never"     // No encryption
)

const dialTimeout = 30 * time.Second

var ErrNoRecipients = errors.New("no recipients specified")

// Settings contains SMTP configuration
type Settings struct {
	Server     string
	Port       int
	Encryption EncryptionMode
	Username   string
	Password   string
	From       string
	UseHTML    bool
}

// Notifier sends messages via SMTP email
type Notifier struct {
	name     string
	settings Settings
	logger   zerolog.Logger
}

// New creates a new email notifier
func New(name string, settings Settings, logger zerolog.Logger) *Notifier {
	if settings.Port == 0 {
		settings.Port = 587
	}
	if settings.Encryption == "" {
		settings.Encryption = EncryptionPreferred
	}
	return &Notifier{
		name:     name,
		settings: settings,
		logger:   logger.With().Str("notifier", "email").Str("name", name).Logger(),
	}
}

func (n *Notifier) Type() types.NotifierType {
	return types.NotifierEmail
}

func (n *Notifier) Name() string {
	return n.name
}

// Send delivers msg in one SMTP transaction addressed to every recipient.
func (n *Notifier) Send(ctx context.Context, msg types.Message) error {
	recipients := cleanAddresses(msg.To)
	if len(recipients) == 0 {
		return ErrNoRecipients
	}

	if err := n.deliver(ctx, recipients, n.compose(recipients, msg)); err != nil {
		n.logger.Error().Err(err).Str("subject", msg.Subject).Int("recipients", len(recipients)).Msg("Failed to send email")
		return err
	}

	n.logger.Info().Str("subject", msg.Subject).Int("recipients", len(recipients)).Msg("Email sent")
	return nil
}

func (n *Notifier) compose(recipients []string, msg types.Message) string {
	contentType := "text/plain; charset=utf-8"
	body := msg.Body
	if n.settings.UseHTML {
		contentType = "text/html; charset=utf-8"
		body = n.toHTML(body)
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("From: %s\r\n", n.settings.From))
	b.WriteString(fmt.Sprintf("To: %s\r\n", strings.Join(recipients, ", ")))
	b.WriteString(fmt.Sprintf("Subject: %s\r\n", msg.Subject))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString(fmt.Sprintf("Content-Type: %s\r\n", contentType))
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	return b.String()
}

func (n *Notifier) toHTML(plainText string) string {
	escaped := strings.ReplaceAll(plainText, "&", "&amp;")
	escaped = strings.ReplaceAll(escaped, "<", "&lt;")
	escaped = strings.ReplaceAll(escaped, ">", "&gt;")
	escaped = strings.ReplaceAll(escaped, "\n\n", "</p><p>")
	escaped = strings.ReplaceAll(escaped, "\n", "<br>")
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<style>
body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
.content { background: #f9f9f9; padding: 20px; border: 1px solid #ddd; border-radius: 8px; }
.footer { text-align: center; margin-top: 20px; color: #666; font-size: 12px; }
p { margin: 0 0 10px 0; }
</style>
</head>
<body>
<div class="content"><p>%s</p></div>
<div class="footer">Sent by TVTracker</div>
</body>
</html>`, escaped)
}

func (n *Notifier) deliver(ctx context.Context, recipients []string, message string) error {
	addr := net.JoinHostPort(n.settings.Server, fmt.Sprint(n.settings.Port))

	implicitTLS := n.settings.Encryption == EncryptionAlways && n.settings.Port == 465

	var client *smtp.Client
	var err error
	if implicitTLS {
		client, err = n.dialTLS(ctx, addr)
	} else {
		client, err = n.dialPlain(ctx, addr)
	}
	if err != nil {
		return err
	}
	defer client.Close()

	if !implicitTLS {
		if err := n.negotiateTLS(client); err != nil {
			return err
		}
	}

	var auth smtp.Auth
	if n.settings.Username != "" && n.settings.Password != "" {
		auth = smtp.PlainAuth("", n.settings.Username, n.settings.Password, n.settings.Server)
	}

	if err := authenticateAndSetEnvelope(client, auth, n.settings.From, recipients); err != nil {
		return err
	}

	return writeMessageData(client, message)
}

// negotiateTLS upgrades a plain connection according to the encryption mode.
func (n *Notifier) negotiateTLS(client *smtp.Client) error {
	if n.settings.Encryption == EncryptionNever {
		return nil
	}
	if ok, _ := client.Extension("STARTTLS"); !ok {
		if n.settings.Encryption == EncryptionAlways {
			return errors.New("server does not support STARTTLS")
		}
		return nil
	}
	if err := client.StartTLS(n.tlsConfig()); err != nil {
		return fmt.Errorf("failed to start TLS: %w", err)
	}
	return nil
}

func (n *Notifier) tlsConfig() *tls.Config {
	return &tls.Config{
		ServerName: n.settings.Server,
		MinVersion: tls.VersionTLS12,
	}
}

func (n *Notifier) dialPlain(ctx context.Context, addr string) (*smtp.Client, error) {
	dialer := &net.Dialer{Timeout: dialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	client, err := smtp.NewClient(conn, n.settings.Server)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	return client, nil
}

func (n *Notifier) dialTLS(ctx context.Context, addr string) (*smtp.Client, error) {
	dialer := &tls.Dialer{NetDialer: &net.Dialer{Timeout: dialTimeout}, Config: n.tlsConfig()}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	client, err := smtp.NewClient(conn, n.settings.Server)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	return client, nil
}

func authenticateAndSetEnvelope(client *smtp.Client, auth smtp.Auth, from string, recipients []string) error {
	if auth != nil {
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("failed to authenticate: %w", err)
		}
	}
	if err := client.Mail(envelopeAddress(from)); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	for _, rcpt := range recipients {
		if err := client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("failed to set recipient %s: %w", rcpt, err)
		}
	}
	return nil
}

func writeMessageData(client *smtp.Client, message string) error {
	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to get data writer: %w", err)
	}
	if _, err := w.Write([]byte(message)); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}
	return client.Quit()
}

// envelopeAddress strips a display name: "TVTracker <a@b>" becomes "a@b".
func envelopeAddress(from string) string {
	if i := strings.LastIndex(from, "<"); i >= 0 {
		if j := strings.LastIndex(from, ">"); j > i {
			return strings.TrimSpace(from[i+1 : j])
		}
	}
	return strings.TrimSpace(from)
}

func cleanAddresses(in []string) []string {
	addrs := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, a := range in {
		a = strings.TrimSpace(a)
		key := strings.ToLower(a)
		if a == "" || seen[key] {
			continue
		}
		seen[key] = true
		addrs = append(addrs, a)
	}
	return addrs
}
