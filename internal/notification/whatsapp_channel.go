package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Domenick1991/partnerbooking/pkg/logger"
	"golang.org/x/oauth2"
)

type WhatsAppConfig struct {
	BaseURL   string
	Token     string
	CompanyID string
	AgentID   string
}

// WhatsAppChannel posts plain text messages to the chat gateway.
type WhatsAppChannel struct {
	client    *http.Client
	baseURL   string
	companyID string
	agentID   string
	log       logger.Logger
}

type whatsAppSendRequest struct {
	CompanyID   string          `json:"companyId"`
	AgentID     string          `json:"agentId"`
	PhoneNumber string          `json:"phoneNumber"`
	Type        string          `json:"type"`
	Message     whatsAppMessage `json:"message"`
}

type whatsAppMessage struct {
	Text string `json:"text"`
}

type whatsAppResponse struct {
	Success bool `json:"success"`
	Data    struct {
		TaskID string `json:"taskId"`
		Status string `json:"status"`
	} `json:"data"`
	Error struct {
		Message string `json:"message"`
		Code    string `json:"code"`
	} `json:"error"`
}

func NewWhatsAppChannel(ctx context.Context, cfg WhatsAppConfig, log logger.Logger) *WhatsAppChannel {
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token, TokenType: "Bearer"}))
	client.Timeout = 30 * time.Second

	return &WhatsAppChannel{
		client:    client,
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		companyID: cfg.CompanyID,
		agentID:   cfg.AgentID,
		log:       log,
	}
}

func (c *WhatsAppChannel) Name() string { return "whatsapp" }

func (c *WhatsAppChannel) Send(ctx context.Context, msg Message) error {
	if msg.Recipient.Phone == "" {
		return errors.New("recipient has no phone number")
	}

	subject, body, err := Render(msg)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(whatsAppSendRequest{
		CompanyID:   c.companyID,
		AgentID:     c.agentID,
		PhoneNumber: msg.Recipient.Phone,
		Type:        "text",
		Message:     whatsAppMessage{Text: "*" + subject + "*\n\n" + body},
	})
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	url := fmt.Sprintf("%s/api/v1/mailcast/send-message", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("whatsapp service returned status %d", resp.StatusCode)
	}

	var out whatsAppResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	if !out.Success {
		return fmt.Errorf("whatsapp service rejected message: %s (code: %s)", out.Error.Message, out.Error.Code)
	}

	c.log.Info("whatsapp message queued", "event", msg.Event, "task_id", out.Data.TaskID)
	return nil
}
