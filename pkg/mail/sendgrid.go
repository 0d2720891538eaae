// Package mail sends transactional email through the SendGrid v3 API.
package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultSendGridBaseURL = "https://api.sendgrid.com"

// Mailer delivers an HTML email to a single recipient.
type Mailer interface {
	Send(ctx context.Context, recipient, subject, htmlBody string) error
}

// DeliveryError is a transport response other than "accepted". It carries
// the status code and response body for user-facing diagnostics.
type DeliveryError struct {
	StatusCode int
	Body       string
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("sendgrid delivery failed (%d): %s", e.StatusCode, e.Body)
}

// SendGridClient calls the SendGrid mail send API.
type SendGridClient struct {
	apiKey     string
	sender     string
	baseURL    string
	httpClient *http.Client
}

// NewSendGridClient constructs a client with the provided API key and
// verified sender address.
func NewSendGridClient(apiKey, sender string) (*SendGridClient, error) {
	apiKey = strings.TrimSpace(apiKey)
	sender = strings.TrimSpace(sender)
	if apiKey == "" {
		return nil, fmt.Errorf("sendgrid api key required")
	}
	if sender == "" {
		return nil, fmt.Errorf("sendgrid sender address required")
	}
	return &SendGridClient{
		apiKey:     apiKey,
		sender:     sender,
		baseURL:    defaultSendGridBaseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}, nil
}

// Send delivers htmlBody to the recipient. SendGrid answers 202 Accepted on
// success; any other status is returned as a DeliveryError.
func (c *SendGridClient) Send(ctx context.Context, recipient, subject, htmlBody string) error {
	payload := sendRequest{
		Personalizations: []personalization{{To: []address{{Email: recipient}}}},
		From:             address{Email: c.sender},
		Subject:          subject,
		Content:          []contentBlock{{Type: "text/html", Value: htmlBody}},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v3/mail/send", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		diag, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
		return &DeliveryError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(diag))}
	}
	return nil
}

type address struct {
	Email string `json:"email"`
}

type personalization struct {
	To []address `json:"to"`
}

type contentBlock struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type sendRequest struct {
	Personalizations []personalization `json:"personalizations"`
	From             address           `json:"from"`
	Subject          string            `json:"subject"`
	Content          []contentBlock    `json:"content"`
}
