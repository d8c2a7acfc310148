package email

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/weddingplanner/weddingplanner/internal/config"
)

// GmailSender implements Sender using the Gmail API.
type GmailSender struct {
	service *gmail.Service
	from    string
}

// NewGmailSender creates a GmailSender. With a refresh token it acts as the
// token owner; otherwise CredentialsJSON must be a service account with
// domain-wide delegation, which impersonates SenderAddress.
func NewGmailSender(ctx context.Context, cfg config.GmailMailConfig) (*GmailSender, error) {
	if cfg.SenderAddress == "" {
		return nil, fmt.Errorf("gmail: sender address is required")
	}

	var client *http.Client
	switch {
	case cfg.RefreshToken != "":
		oauthCfg := &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     google.Endpoint,
			Scopes:       []string{gmail.GmailSendScope},
		}
		client = oauthCfg.Client(ctx, &oauth2.Token{RefreshToken: cfg.RefreshToken})
	case cfg.CredentialsJSON != "":
		jwtConfig, err := google.JWTConfigFromJSON([]byte(cfg.CredentialsJSON), gmail.GmailSendScope)
		if err != nil {
			return nil, fmt.Errorf("gmail: failed to parse credentials: %w", err)
		}
		jwtConfig.Subject = cfg.SenderAddress
		client = jwtConfig.Client(ctx)
	default:
		return nil, fmt.Errorf("gmail: either a refresh token or credentials JSON is required")
	}

	svc, err := gmail.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("gmail: failed to create service: %w", err)
	}

	from := cfg.SenderAddress
	if cfg.SenderName != "" {
		from = fmt.Sprintf("%q <%s>", cfg.SenderName, cfg.SenderAddress)
	}
	return &GmailSender{service: svc, from: from}, nil
}

// Send sends an email via the Gmail API. Gmail rewrites the From header to
// the authenticated mailbox, so the configured sender always wins.
func (g *GmailSender) Send(ctx context.Context, msg Message) error {
	msg.From = g.from
	raw, err := rawMIME(msg)
	if err != nil {
		return fmt.Errorf("gmail: %w", err)
	}

	gmailMsg := &gmail.Message{Raw: base64.URLEncoding.EncodeToString(raw)}
	if _, err := g.service.Users.Messages.Send("me", gmailMsg).Context(ctx).Do(); err != nil {
		return fmt.Errorf("gmail: failed to send email: %w", err)
	}
	return nil
}

func rawMIME(msg Message) ([]byte, error) {
	m, err := buildMsg(msg)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if _, err := m.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode message: %w", err)
	}
	return buf.Bytes(), nil
}
