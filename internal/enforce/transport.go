package enforce

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"streamwatch/internal/config"
)

// Message is a rendered notice ready for delivery.
type Message struct {
	DetectionID int64
	Recipients  []string
	Subject     string
	Body        string
}

// Transport delivers a rendered notice and returns a delivery identifier.
type Transport interface {
	Send(ctx context.Context, msg Message) (string, error)
}

// SMTPTransport delivers notices through a plain SMTP relay with STARTTLS.
type SMTPTransport struct {
	host     string
	port     int
	username string
	password string
	from     string
	send     func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTPTransport builds a transport from the enforcement configuration.
func NewSMTPTransport(cfg config.Enforcement) *SMTPTransport {
	return &SMTPTransport{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		username: cfg.SMTPUser,
		password: cfg.SMTPPass,
		from:     cfg.SenderEmail,
		send:     smtp.SendMail,
	}
}

func (t *SMTPTransport) Send(ctx context.Context, msg Message) (string, error) {
	if t.host == "" {
		return "", fmt.Errorf("smtp host not configured")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", t.from)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(msg.Recipients, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	fmt.Fprintf(&b, "MIME-Version: 1.0\r\n")
	fmt.Fprintf(&b, "Content-Type: text/plain; charset=utf-8\r\n")
	fmt.Fprintf(&b, "\r\n%s", msg.Body)

	addr := fmt.Sprintf("%s:%d", t.host, t.port)
	var auth smtp.Auth
	if t.username != "" {
		auth = smtp.PlainAuth("", t.username, t.password, t.host)
	}
	if err := t.send(addr, auth, t.from, msg.Recipients, []byte(b.String())); err != nil {
		return "", fmt.Errorf("send smtp notice: %w", err)
	}
	return fmt.Sprintf("smtp-%d-%d", msg.DetectionID, time.Now().Unix()), nil
}
