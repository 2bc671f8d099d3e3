package service

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"text/template"

	"github.com/yndnr/authtoken-go/internal/core/domain"
	"github.com/yndnr/authtoken-go/internal/telemetry/logger"
)

// Mailer delivers plain text mail.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// ConfirmationPath is the URL path prefix of confirmation links.
const ConfirmationPath = "/confirm_email/"

// Default confirmation mail content.
const (
	DefaultConfirmationSubject = "Confirm your email address"
	DefaultConfirmationMessage = `Hello {{.Username}},

please confirm your email address by opening the following link:

{{.URL}}
`
)

// ConfirmationConfig holds configuration for ConfirmationService.
type ConfirmationConfig struct {
	// BaseURL is prepended to ConfirmationPath in mailed links.
	BaseURL string

	// Subject is the mail subject.
	Subject string

	// Message is a text/template for the mail body with fields .Username
	// and .URL.
	Message string
}

// confirmationData is the template data of a confirmation mail.
type confirmationData struct {
	Username string
	URL      string
}

// ConfirmationService issues, mails and redeems email confirmation tokens.
type ConfirmationService struct {
	tokens   *Lifecycle[domain.ConfirmationPayload]
	accounts AccountRepository
	mailer   Mailer
	baseURL  string
	subject  string
	message  *template.Template
	logger   *slog.Logger
}

// NewConfirmationService creates a ConfirmationService. It fails if the
// message template does not parse.
func NewConfirmationService(
	tokens *Lifecycle[domain.ConfirmationPayload],
	accounts AccountRepository,
	mailer Mailer,
	cfg ConfirmationConfig,
	log *slog.Logger,
) (*ConfirmationService, error) {
	if mailer == nil {
		return nil, domain.ErrMissingArgument.WithDetails("mailer is required")
	}
	if cfg.Subject == "" {
		cfg.Subject = DefaultConfirmationSubject
	}
	if cfg.Message == "" {
		cfg.Message = DefaultConfirmationMessage
	}
	tmpl, err := template.New("confirmation").Option("missingkey=error").Parse(cfg.Message)
	if err != nil {
		return nil, domain.ErrInvalidArgument.WithDetails("confirmation message template").WithCause(err)
	}
	if log == nil {
		log = logger.Default()
	}

	return &ConfirmationService{
		tokens:   tokens,
		accounts: accounts,
		mailer:   mailer,
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		subject:  cfg.Subject,
		message:  tmpl,
		logger:   log,
	}, nil
}

// ConfirmationURL returns the link that confirms with encoded.
func (s *ConfirmationService) ConfirmationURL(encoded string) string {
	return s.baseURL + ConfirmationPath + encoded + "/"
}

// SendConfirmation issues a confirmation token for the account's current
// email address and mails the link to that address.
//
// If the mail cannot be rendered or delivered, the token is deleted again
// and ErrMailDelivery is returned.
func (s *ConfirmationService) SendConfirmation(ctx context.Context, acct *domain.Account) error {
	if acct.EmailConfirmed {
		return domain.ErrEmailAlreadyConfirmed
	}
	if acct.Email == "" {
		return domain.ErrMissingArgument.WithDetails("account has no email address")
	}

	secret, t, err := s.tokens.Issue(ctx, acct.ID, domain.ConfirmationPayload{Email: acct.Email})
	if err != nil {
		return err
	}

	var body bytes.Buffer
	data := confirmationData{Username: acct.Username, URL: s.ConfirmationURL(secret.Encode())}
	if err := s.message.Execute(&body, data); err != nil {
		s.discard(ctx, t)
		return domain.ErrMailDelivery.WithDetails("render message").WithCause(err)
	}

	if err := s.mailer.Send(ctx, acct.Email, s.subject, body.String()); err != nil {
		s.discard(ctx, t)
		requestLogger(ctx, s.logger).ErrorContext(ctx, "confirmation mail failed",
			"account_id", acct.ID, "error", err)
		return domain.ErrMailDelivery.WithCause(err)
	}

	requestLogger(ctx, s.logger).InfoContext(ctx, "confirmation mail sent", "account_id", acct.ID)
	return nil
}

// Resend sends a new confirmation mail for the account with id.
// Earlier confirmation tokens stay valid until they expire.
func (s *ConfirmationService) Resend(ctx context.Context, id string) error {
	acct, err := s.accounts.Get(ctx, id)
	if err != nil {
		return storageError(err)
	}
	return s.SendConfirmation(ctx, acct)
}

// Confirm redeems a confirmation token and marks the owner's email as
// confirmed.
//
// The token is deleted whatever the outcome. It only confirms the address it
// was issued for: if the owner's email changed since, the token is invalid.
func (s *ConfirmationService) Confirm(ctx context.Context, encoded string) (*domain.Account, error) {
	t, err := s.tokens.ConsumeEncoded(ctx, encoded)
	if err != nil {
		return nil, err
	}

	// The address check and the flag write happen in one store update, so
	// an email change cannot land between them.
	acct, err := s.accounts.UpdateFunc(ctx, t.OwnerID, func(a *domain.Account) error {
		if a.Email != t.Payload.Email {
			return domain.ErrTokenInvalid.WithReason(domain.ReasonOwnerMismatch)
		}
		a.EmailConfirmed = true
		return nil
	})
	switch {
	case errors.Is(err, domain.ErrAccountNotFound):
		return nil, domain.ErrTokenInvalid.WithReason(domain.ReasonInactiveOwner)
	case domain.ReasonOf(err) == domain.ReasonOwnerMismatch:
		requestLogger(ctx, s.logger).InfoContext(ctx, "confirmation for stale address",
			"account_id", t.OwnerID, "digest", t.Digest.Short())
		return nil, err
	case err != nil:
		return nil, storageError(err)
	}

	requestLogger(ctx, s.logger).InfoContext(ctx, "email confirmed", "account_id", acct.ID)
	return acct, nil
}

func (s *ConfirmationService) discard(ctx context.Context, t *domain.Token[domain.ConfirmationPayload]) {
	if err := s.tokens.RevokeDigest(ctx, t.Digest); err != nil && !errors.Is(err, domain.ErrTokenNotFound) {
		s.logger.WarnContext(ctx, "discard undelivered confirmation token", "error", err)
	}
}
