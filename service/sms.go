package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/WedtreeAutomation/PaySlip-Sender/config"
)

// MessageSender delivers one text message. The returned text is the raw
// gateway response, kept for the audit log even when err is set.
type MessageSender interface {
	Send(ctx context.Context, to, message string) (string, error)
}

// SMSRequest is the JSON body accepted by the SMS gateway.
type SMSRequest struct {
	To         string `json:"to"`
	Sender     string `json:"sender"`
	Service    string `json:"service"`
	TemplateID string `json:"template_id"`
	ShortenURL string `json:"shorten_url"`
	Message    string `json:"message"`
}

// SMSClient posts messages to an HTTP SMS gateway.
type SMSClient struct {
	config     *config.SMSConfig
	httpClient *http.Client
}

func NewSMSClient(cfg *config.SMSConfig) *SMSClient {
	return &SMSClient{
		config: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// Send posts one message. Any status other than 200 or 201 is an error.
func (c *SMSClient) Send(ctx context.Context, to, message string) (string, error) {
	reqBody := SMSRequest{
		To:         to,
		Sender:     c.config.Sender,
		Service:    c.config.Service,
		TemplateID: c.config.TemplateID,
		ShortenURL: c.config.ShortenURL,
		Message:    message,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.URL, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", c.config.AuthToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	text := strings.TrimSpace(string(body))

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return text, fmt.Errorf("sms gateway returned status %d", resp.StatusCode)
	}
	return text, nil
}

var _ MessageSender = (*SMSClient)(nil)
