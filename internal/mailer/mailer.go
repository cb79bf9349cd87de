// Package mailer renders and dispatches the two security mails this service
// sends: the one-time password-setup link for promoted social-login accounts
// and the promotion notice delivered to every existing super admin. Actual
// transport is behind the Sender interface; the default sender writes the
// mail to the log, which is where deployments plug in their provider.
package mailer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Sender delivers one rendered mail.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// LogSender writes mails to the structured log instead of delivering them.
type LogSender struct {
	Log zerolog.Logger
}

func (s LogSender) Send(_ context.Context, to, subject, body string) error {
	s.Log.Info().Str("to", to).Str("subject", subject).Str("body", body).Msg("mail (log sender)")
	return nil
}

// Mailer renders the service's security mails.
type Mailer struct {
	sender    Sender
	baseURL   string
	storeName string
}

// New builds a mailer. baseURL is the public frontend origin the setup link
// points at.
func New(sender Sender, baseURL, storeName string) *Mailer {
	return &Mailer{sender: sender, baseURL: strings.TrimRight(baseURL, "/"), storeName: storeName}
}

// SendPasswordSetup mails the one-time setup link to a freshly promoted
// administrative account that has no local password yet.
func (m *Mailer) SendPasswordSetup(ctx context.Context, to, name, role, token string, ttl time.Duration) error {
	display := name
	if display == "" {
		display = to
	}
	setupURL := fmt.Sprintf("%s/set-admin-password/%s", m.baseURL, token)

	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s,\n\n", display)
	fmt.Fprintf(&b, "You have been granted the %s role on %s.\n\n", role, m.storeName)
	b.WriteString("Your account currently signs in through a social provider only. ")
	b.WriteString("Dashboard access requires a dedicated password, so please set one here:\n\n")
	fmt.Fprintf(&b, "  %s\n\n", setupURL)
	fmt.Fprintf(&b, "The link expires in %d hours and can be used once.\n\n", int(ttl.Hours()))
	fmt.Fprintf(&b, "Password requirements: at least 12 characters with an uppercase letter, a lowercase letter, a digit and a symbol.\n")

	subject := fmt.Sprintf("[Security] Set your admin password - %s", m.storeName)
	return m.sender.Send(ctx, to, subject, b.String())
}

// SuperAdminNotice carries the full actor/target/request context of a
// highest-tier grant, so every existing super admin can verify the change
// was legitimate.
type SuperAdminNotice struct {
	ActorEmail  string
	TargetEmail string
	RoleName    string
	IPAddress   string
	UserAgent   string
	OccurredAt  time.Time
}

// SendSuperAdminNotice mails the transparency notice for a highest-tier
// grant to one existing super admin.
func (m *Mailer) SendSuperAdminNotice(ctx context.Context, to string, n SuperAdminNotice) error {
	var b strings.Builder
	fmt.Fprintf(&b, "A %s role was granted on %s.\n\n", n.RoleName, m.storeName)
	fmt.Fprintf(&b, "  Granted by: %s\n", n.ActorEmail)
	fmt.Fprintf(&b, "  Granted to: %s\n", n.TargetEmail)
	fmt.Fprintf(&b, "  When:       %s\n", n.OccurredAt.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "  From IP:    %s\n", n.IPAddress)
	fmt.Fprintf(&b, "  User agent: %s\n\n", n.UserAgent)
	b.WriteString("If you did not expect this change, revoke the account and rotate credentials immediately.\n")

	subject := fmt.Sprintf("[Security] New %s granted - %s", n.RoleName, m.storeName)
	return m.sender.Send(ctx, to, subject, b.String())
}
