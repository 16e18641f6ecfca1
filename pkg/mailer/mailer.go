// Package mailer delivers transactional email.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/asookemart/asooke-backend/pkg/config"
	pkgerrors "github.com/asookemart/asooke-backend/pkg/errors"
	"github.com/asookemart/asooke-backend/pkg/logger"
)

const (
	sendEndpoint       = "/v3/mail/send"
	errorBodyLogLimit  = 1024
	defaultSendTimeout = 10 * time.Second
)

var errAPIKeyRequired = errors.New("sendgrid api key is required")

// Message is one outbound email.
type Message struct {
	To      string
	ToName  string
	Subject string
	HTML    string
	Text    string
}

// Sender is implemented by every transport.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SendGrid sends through the v3 mail/send API.
type SendGrid struct {
	client    *sendgrid.Client
	transport *rest.Client
	from      *mail.Email
}

// Option configures optional client behavior.
type Option func(*SendGrid)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(s *SendGrid) {
		if client != nil {
			s.transport = &rest.Client{HTTPClient: client}
		}
	}
}

// WithBaseURL overrides the API origin.
func WithBaseURL(baseURL string) Option {
	return func(s *SendGrid) {
		if trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/"); trimmed != "" {
			s.client.BaseURL = trimmed + sendEndpoint
		}
	}
}

// NewSendGrid builds a SendGrid transport from config.
func NewSendGrid(cfg config.SendgridConfig, opts ...Option) (*SendGrid, error) {
	key := strings.TrimSpace(cfg.APIKey)
	if key == "" {
		return nil, errAPIKeyRequired
	}
	s := &SendGrid{
		client:    sendgrid.NewSendClient(key),
		transport: &rest.Client{HTTPClient: &http.Client{Timeout: defaultSendTimeout}},
		from:      mail.NewEmail(cfg.FromName, cfg.DefaultFrom),
	}
	WithBaseURL(cfg.BaseURL)(s)
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// Send delivers msg. Any non-2xx answer is a dependency error.
func (s *SendGrid) Send(ctx context.Context, msg Message) error {
	if s == nil || s.client == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "mailer not configured")
	}
	if strings.TrimSpace(msg.To) == "" || strings.TrimSpace(msg.Subject) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "recipient and subject are required")
	}
	if msg.Text == "" && msg.HTML == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "message body is required")
	}

	email := mail.NewSingleEmail(s.from, msg.Subject, mail.NewEmail(msg.ToName, msg.To), msg.Text, msg.HTML)

	// sendgrid.Client.SendWithContext writes the body into its shared request,
	// so each send works on a copy.
	req := s.client.Request
	req.Method = rest.Post
	req.Body = mail.GetRequestBody(email)

	resp, err := s.transport.SendWithContext(ctx, req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute mail request")
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		body := strings.TrimSpace(resp.Body)
		if len(body) > errorBodyLogLimit {
			body = body[:errorBodyLogLimit]
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, body), "mail request failed")
	}
	return nil
}

// LogSender writes messages to the log instead of sending them. Used when no API key is configured.
type LogSender struct {
	logg *logger.Logger
}

func NewLogSender(logg *logger.Logger) *LogSender {
	return &LogSender{logg: logg}
}

func (l *LogSender) Send(ctx context.Context, msg Message) error {
	if l.logg != nil {
		ctx = l.logg.WithFields(ctx, map[string]any{"to": msg.To, "subject": msg.Subject, "body": msg.Text})
		l.logg.Info(ctx, "mail.logged")
	}
	return nil
}

// New picks SendGrid when configured, otherwise the log sender.
func New(cfg config.SendgridConfig, logg *logger.Logger) Sender {
	if sg, err := NewSendGrid(cfg); err == nil {
		return sg
	}
	return NewLogSender(logg)
}
