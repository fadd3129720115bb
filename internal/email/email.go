package email

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/mail"
	"strings"

	"github.com/Domenick1991/partnerbooking/internal/notification"
	"github.com/Domenick1991/partnerbooking/pkg/logger"
	"github.com/segmentio/kafka-go"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

type GmailConfig struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
	From         string
}

// GmailSender sends mail through the Gmail API of the configured account.
type GmailSender struct {
	service *gmail.Service
	from    string
}

func NewGmailSender(ctx context.Context, cfg GmailConfig) (*GmailSender, error) {
	oauthConfig := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{gmail.GmailSendScope},
	}
	tokenSource := oauthConfig.TokenSource(ctx, &oauth2.Token{RefreshToken: cfg.RefreshToken})

	service, err := gmail.NewService(ctx, option.WithTokenSource(tokenSource))
	if err != nil {
		return nil, fmt.Errorf("create gmail service: %w", err)
	}
	return &GmailSender{service: service, from: cfg.From}, nil
}

func (s *GmailSender) Send(ctx context.Context, to, subject, body string) error {
	msg, err := buildMIME(s.from, to, subject, body)
	if err != nil {
		return err
	}
	raw := base64.URLEncoding.EncodeToString(msg)
	_, err = s.service.Users.Messages.Send("me", &gmail.Message{Raw: raw}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("gmail send: %w", err)
	}
	return nil
}

// LogSender only logs. Used when no mail account is configured.
type LogSender struct {
	log logger.Logger
}

func NewLogSender(log logger.Logger) *LogSender {
	return &LogSender{log: log}
}

func (s *LogSender) Send(ctx context.Context, to, subject, body string) error {
	s.log.Info("email", "to", to, "subject", subject, "body", body)
	return nil
}

// buildMIME accepts only bare addresses so recipient data cannot add header lines.
func buildMIME(from, to, subject, body string) ([]byte, error) {
	toAddr, err := headerAddress(to)
	if err != nil {
		return nil, fmt.Errorf("invalid recipient: %w", err)
	}

	var b strings.Builder
	if from != "" {
		fromAddr, err := headerAddress(from)
		if err != nil {
			return nil, fmt.Errorf("invalid sender: %w", err)
		}
		b.WriteString("From: " + fromAddr + "\r\n")
	}
	b.WriteString("To: " + toAddr + "\r\n")
	b.WriteString("Subject: " + mime.QEncoding.Encode("utf-8", subject) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return []byte(b.String()), nil
}

func headerAddress(s string) (string, error) {
	if strings.ContainsAny(s, "\r\n") {
		return "", errors.New("address contains a line break")
	}
	addr, err := mail.ParseAddress(s)
	if err != nil {
		return "", err
	}
	return (&mail.Address{Address: addr.Address}).String(), nil
}

// Handler turns notification messages from the primary topic into mail.
type Handler struct {
	sender Sender
	log    logger.Logger
}

func NewHandler(sender Sender, log logger.Logger) *Handler {
	return &Handler{sender: sender, log: log}
}

// Handle drops malformed messages instead of blocking the partition on them.
func (h *Handler) Handle(ctx context.Context, km kafka.Message) error {
	var msg notification.Message
	if err := json.Unmarshal(km.Value, &msg); err != nil {
		h.log.Error("skipping malformed notification", "offset", km.Offset, "error", err)
		return nil
	}
	if msg.Recipient.Email == "" {
		h.log.Warn("skipping notification without email", "id", msg.ID, "event", msg.Event)
		return nil
	}
	if _, err := headerAddress(msg.Recipient.Email); err != nil {
		h.log.Warn("skipping notification with invalid email", "id", msg.ID, "event", msg.Event, "error", err)
		return nil
	}

	subject, body, err := notification.Render(msg)
	if err != nil {
		h.log.Error("skipping notification with unknown template", "id", msg.ID, "template", msg.TemplateID, "error", err)
		return nil
	}

	if err := h.sender.Send(ctx, msg.Recipient.Email, subject, body); err != nil {
		return fmt.Errorf("deliver %s to %s: %w", msg.Event, msg.Recipient.Email, err)
	}
	h.log.Info("notification email sent", "id", msg.ID, "event", msg.Event)
	return nil
}
