package mail

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const brevoAPI = "https://api.brevo.com/v3/smtp/email"

// BrevoSendRequest matches Brevo API v3 send transactional email body.
type BrevoSendRequest struct {
	Sender      BrevoAddress      `json:"sender"`
	To          []BrevoAddress    `json:"to"`
	Cc          []BrevoAddress    `json:"cc,omitempty"`
	Bcc         []BrevoAddress    `json:"bcc,omitempty"`
	Subject     string            `json:"subject"`
	HTMLContent string            `json:"htmlContent,omitempty"`
	TextContent string            `json:"textContent,omitempty"`
	Attachment  []BrevoAttachment `json:"attachment,omitempty"`
}

type BrevoAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type BrevoAttachment struct {
	Name    string `json:"name"`
	Content string `json:"content"` // base64
}

type brevoSendResponse struct {
	MessageID string `json:"messageId"`
}

// BrevoProvider sends email via the Brevo transactional API. An empty APIKey
// means no provider is connected.
type BrevoProvider struct {
	APIKey   string
	MailFrom string
	Client   *http.Client
}

func (p *BrevoProvider) HasConnectedProvider(ctx context.Context) bool {
	return p != nil && p.APIKey != ""
}

func (p *BrevoProvider) Send(ctx context.Context, msg Message) (*SendResult, error) {
	if !p.HasConnectedProvider(ctx) {
		return &SendResult{Success: false, Error: "no mail provider connected"}, nil
	}

	body := BrevoSendRequest{
		Sender:  BrevoAddress{Email: p.MailFrom},
		Subject: msg.Subject,
	}
	for _, to := range msg.To {
		body.To = append(body.To, BrevoAddress{Email: to})
	}
	for _, cc := range msg.Cc {
		body.Cc = append(body.Cc, BrevoAddress{Email: cc})
	}
	for _, bcc := range msg.Bcc {
		body.Bcc = append(body.Bcc, BrevoAddress{Email: bcc})
	}
	if msg.BodyType == BodyText {
		body.TextContent = msg.Body
	} else {
		body.HTMLContent = msg.Body
	}
	for _, att := range msg.Attachments {
		body.Attachment = append(body.Attachment, BrevoAttachment{
			Name:    att.Name,
			Content: base64.StdEncoding.EncodeToString(att.Content),
		})
	}

	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, brevoAPI, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, err
	}
	req.Header.Set("api-key", p.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	if p.Client == nil {
		p.Client = &http.Client{Timeout: 15 * time.Second}
	}
	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &SendResult{
			Success: false,
			Error:   fmt.Sprintf("brevo: status %d body: %s", resp.StatusCode, string(respBody)),
		}, nil
	}

	var data brevoSendResponse
	_ = json.Unmarshal(respBody, &data)
	return &SendResult{Success: true, MessageID: data.MessageID}, nil
}
