package emailsend

import (
	"incident-assistant/internal/common/logger"
)

type Input struct {
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	Body    string   `json:"body"`
	Cc      []string `json:"cc,omitempty"`
	Bcc     []string `json:"bcc,omitempty"`
	From    string   `json:"from,omitempty"`
}

// Sent echoes what was handed to the provider. Cc and Bcc are never null.
type Sent struct {
	To      []string `json:"to"`
	Cc      []string `json:"cc"`
	Bcc     []string `json:"bcc"`
	Subject string   `json:"subject"`
	Body    string   `json:"body"`
}

type Output struct {
	Status    string `json:"status"`
	MessageID string `json:"message_id"`
	Sent      Sent   `json:"sent"`
	Note      string `json:"note,omitempty"`
}

// Message is the provider-neutral email handed to a Sender.
type Message struct {
	From    string
	To      []string
	Cc      []string
	Bcc     []string
	Subject string
	Body    string
}

// Recipients returns To, Cc and Bcc in envelope order.
func (m *Message) Recipients() []string {
	out := make([]string, 0, len(m.To)+len(m.Cc)+len(m.Bcc))
	out = append(out, m.To...)
	out = append(out, m.Cc...)
	return append(out, m.Bcc...)
}

type ServiceDependencies struct {
	Sender Sender
	Logger logger.Logger
}
