package mail

import "context"

// BodyType selects the MIME flavor of an outgoing message.
type BodyType string

const (
	BodyHTML BodyType = "HTML"
	BodyText BodyType = "Text"
)

// Attachment is an inline file on an outgoing message.
type Attachment struct {
	Name    string
	Content []byte
}

// Message is one outbound email.
type Message struct {
	To          []string
	Cc          []string
	Bcc         []string
	Subject     string
	Body        string
	BodyType    BodyType
	Attachments []Attachment
}

// SendResult reports the outcome of one delivery attempt.
type SendResult struct {
	Success   bool
	MessageID string
	Error     string
}

// Provider is the mail capability consumed by the campaign sender. Which
// underlying provider (O365, Gmail, Brevo) backs it is opaque to the core.
type Provider interface {
	HasConnectedProvider(ctx context.Context) bool
	Send(ctx context.Context, msg Message) (*SendResult, error)
}
