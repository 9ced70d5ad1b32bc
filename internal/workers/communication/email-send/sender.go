package emailsend

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/smtp"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"incident-assistant/internal/common/aws"
	"incident-assistant/internal/common/config"
	"incident-assistant/internal/ui"
)

// MockNote is returned with every mock delivery.
const MockNote = "Mock email only – no actual message sent."

// Sender delivers a Message and returns the provider's message id.
type Sender interface {
	Send(ctx context.Context, msg *Message) (string, error)
	Provider() string
}

// NewSender builds the Sender for cfg.Provider. out receives the mock
// provider's console table.
func NewSender(ctx context.Context, cfg *Config, out io.Writer) (Sender, error) {
	switch cfg.Provider {
	case config.EmailProviderMock, "":
		if out == nil {
			out = os.Stderr
		}
		return &MockSender{out: out}, nil
	case config.EmailProviderSMTP:
		return &SMTPSender{config: cfg}, nil
	case config.EmailProviderSES:
		client, err := aws.NewSESClient(ctx, cfg.AWSRegion)
		if err != nil {
			return nil, fmt.Errorf("create ses client: %w", err)
		}
		return &SESSender{client: client}, nil
	}
	return nil, fmt.Errorf("unknown email provider %q", cfg.Provider)
}

// MockSender prints the message instead of sending it.
type MockSender struct {
	out io.Writer
}

func NewMockSender(out io.Writer) *MockSender {
	return &MockSender{out: out}
}

func (m *MockSender) Provider() string { return config.EmailProviderMock }

func (m *MockSender) Send(_ context.Context, msg *Message) (string, error) {
	id := "MOCK-" + uuid.NewString()

	table := ui.RenderTable("Mock Email Sent",
		[]ui.Column{{Title: "Field"}, {Title: "Value"}},
		[][]string{
			{"To", strings.Join(msg.To, ", ")},
			{"Subject", msg.Subject},
			{"Body", msg.Body},
			{"Message ID", id},
			{"Note", MockNote},
		},
	)
	if _, err := fmt.Fprintln(m.out, table); err != nil {
		return "", fmt.Errorf("write mock email: %w", err)
	}
	return id, nil
}

// SMTPSender delivers through an SMTP relay, upgrading with STARTTLS when
// UseTLS is set.
type SMTPSender struct {
	config *Config
}

func (s *SMTPSender) Provider() string { return config.EmailProviderSMTP }

func (s *SMTPSender) Send(ctx context.Context, msg *Message) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("context cancelled before sending email: %w", err)
	}

	messageID := s.generateMessageID(msg)
	body := buildEmailMessage(msg, messageID, time.Now())

	addr := fmt.Sprintf("%s:%d", s.config.SMTPHost, s.config.SMTPPort)

	var auth smtp.Auth
	if s.config.SMTPUsername != "" && s.config.SMTPPassword != "" {
		auth = smtp.PlainAuth("", s.config.SMTPUsername, s.config.SMTPPassword, s.config.SMTPHost)
	}

	var err error
	if s.config.UseTLS {
		err = s.sendWithTLS(addr, auth, msg.From, msg.Recipients(), []byte(body))
	} else {
		err = smtp.SendMail(addr, auth, msg.From, msg.Recipients(), []byte(body))
	}
	if err != nil {
		return "", err
	}
	return messageID, nil
}

func (s *SMTPSender) sendWithTLS(addr string, auth smtp.Auth, from string, to []string, msg []byte) error {
	client, err := smtp.Dial(addr)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer client.Close()

	if err = client.StartTLS(&tls.Config{ServerName: s.config.SMTPHost}); err != nil {
		return fmt.Errorf("failed to start TLS: %w", err)
	}

	if auth != nil {
		if err = client.Auth(auth); err != nil {
			return fmt.Errorf("SMTP authentication failed: %w", err)
		}
	}

	if err = client.Mail(from); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	for _, rcpt := range to {
		if err = client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("failed to set recipient %s: %w", rcpt, err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to open data writer: %w", err)
	}
	if _, err = w.Write(msg); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	if err = w.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	return client.Quit()
}

func (s *SMTPSender) generateMessageID(msg *Message) string {
	local := "user"
	if len(msg.To) > 0 {
		local = sanitizeLocalPart(msg.To[0])
	}
	return fmt.Sprintf("<%d.%s@%s>", time.Now().UnixNano(), local, s.config.SMTPHost)
}

// buildEmailMessage renders RFC 5322 headers and a plain-text body. Bcc
// recipients only appear on the envelope.
func buildEmailMessage(msg *Message, messageID string, date time.Time) string {
	var b strings.Builder

	fmt.Fprintf(&b, "From: %s\r\n", msg.From)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(msg.To, ", "))
	if len(msg.Cc) > 0 {
		fmt.Fprintf(&b, "Cc: %s\r\n", strings.Join(msg.Cc, ", "))
	}
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	fmt.Fprintf(&b, "Message-ID: %s\r\n", messageID)
	fmt.Fprintf(&b, "Date: %s\r\n", date.Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(msg.Body)

	return b.String()
}

func sanitizeLocalPart(email string) string {
	local, _, _ := strings.Cut(email, "@")
	local = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			return r
		}
		return -1
	}, local)

	if len(local) > 10 {
		local = local[:10]
	}
	if local == "" {
		return "user"
	}
	return local
}

type sesAPI interface {
	SendEmail(ctx context.Context, msg aws.Email) (string, error)
}

// SESSender delivers through Amazon SES.
type SESSender struct {
	client sesAPI
}

func (s *SESSender) Provider() string { return config.EmailProviderSES }

func (s *SESSender) Send(ctx context.Context, msg *Message) (string, error) {
	return s.client.SendEmail(ctx, aws.Email{
		From:    msg.From,
		To:      msg.To,
		Cc:      msg.Cc,
		Bcc:     msg.Bcc,
		Subject: msg.Subject,
		Body:    msg.Body,
	})
}
