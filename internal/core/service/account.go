package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/yndnr/authtoken-go/internal/core/domain"
	"github.com/yndnr/authtoken-go/internal/telemetry/logger"
)

// AccountRepository is the storage of token owners.
type AccountRepository interface {
	// Create inserts an account. It fails with ErrAccountConflict if the id
	// or the username is taken.
	Create(ctx context.Context, acct *domain.Account) error

	// Get returns an account by id, or ErrAccountNotFound.
	Get(ctx context.Context, id string) (*domain.Account, error)

	// GetByUsername returns an account by username, or ErrAccountNotFound.
	GetByUsername(ctx context.Context, username string) (*domain.Account, error)

	// Update replaces an existing account, or fails with ErrAccountNotFound.
	Update(ctx context.Context, acct *domain.Account) error

	// UpdateFunc loads the account with id, applies fn to it and stores the
	// result atomically: no other write to the account lands in between.
	// If fn returns an error nothing is written and the error is returned.
	// fn may run more than once and must not change the username.
	UpdateFunc(ctx context.Context, id string, fn func(acct *domain.Account) error) (*domain.Account, error)
}

// AccountServiceConfig holds configuration for AccountService.
type AccountServiceConfig struct {
	// RegistrationEnabled allows self registration.
	RegistrationEnabled bool

	// EmailConfirmationRequired sends a confirmation mail on registration
	// and makes an email address mandatory.
	EmailConfirmationRequired bool

	// MinPasswordLength is the shortest accepted password (default: 6).
	MinPasswordLength int
}

// DefaultAccountServiceConfig returns default configuration.
func DefaultAccountServiceConfig() *AccountServiceConfig {
	return &AccountServiceConfig{
		MinPasswordLength: 6,
	}
}

// AccountService handles registration, login, logout and profile changes.
type AccountService struct {
	accounts AccountRepository
	tokens   *Lifecycle[domain.AuthPayload]
	confirm  *ConfirmationService
	cfg      AccountServiceConfig
	logger   *slog.Logger
}

// NewAccountService creates an AccountService. confirm may be nil when
// email confirmation is not used.
func NewAccountService(
	accounts AccountRepository,
	tokens *Lifecycle[domain.AuthPayload],
	confirm *ConfirmationService,
	cfg *AccountServiceConfig,
	log *slog.Logger,
) *AccountService {
	if cfg == nil {
		cfg = DefaultAccountServiceConfig()
	}
	if log == nil {
		log = logger.Default()
	}
	return &AccountService{
		accounts: accounts,
		tokens:   tokens,
		confirm:  confirm,
		cfg:      *cfg,
		logger:   log,
	}
}

// RegisterRequest contains parameters for registration.
type RegisterRequest struct {
	Username string
	Password string
	Email    string
}

// RegisterResponse contains the created account.
type RegisterResponse struct {
	Account *domain.Account
}

// Register creates an account.
//
// When email confirmation is required a confirmation mail is sent after the
// account is stored. A delivery failure is returned, but the account stays
// and the owner can request another mail.
func (s *AccountService) Register(ctx context.Context, req *RegisterRequest) (*RegisterResponse, error) {
	if !s.cfg.RegistrationEnabled {
		return nil, domain.ErrRegistrationDisabled
	}

	username := strings.TrimSpace(req.Username)
	if username == "" {
		return nil, domain.ErrMissingArgument.WithDetails("username is required")
	}
	if len(req.Password) < s.cfg.MinPasswordLength {
		return nil, domain.ErrInvalidArgument.WithDetails(
			fmt.Sprintf("password must be at least %d characters", s.cfg.MinPasswordLength))
	}
	if req.Email == "" && s.cfg.EmailConfirmationRequired {
		return nil, domain.ErrMissingArgument.WithDetails("email is required")
	}
	if req.Email != "" {
		if err := domain.ValidateEmail(req.Email); err != nil {
			return nil, err
		}
	}

	acct, err := domain.NewAccount(username, req.Email, req.Password)
	if err != nil {
		return nil, err
	}
	if err := acct.Validate(); err != nil {
		return nil, err
	}
	if err := s.accounts.Create(ctx, acct); err != nil {
		return nil, storageError(err)
	}
	requestLogger(ctx, s.logger).InfoContext(ctx, "account registered", "account_id", acct.ID)

	if s.cfg.EmailConfirmationRequired && s.confirm != nil {
		if err := s.confirm.SendConfirmation(ctx, acct); err != nil {
			return nil, err
		}
	}

	return &RegisterResponse{Account: acct}, nil
}

// LoginRequest contains login credentials.
type LoginRequest struct {
	Username string
	Password string
}

// LoginResponse contains the issued auth token and its owner.
type LoginResponse struct {
	// Token is the encoded secret. It is returned exactly once.
	Token   string
	Account *domain.Account
}

// dummyPasswordHash keeps the cost of a failed lookup close to a failed
// password check.
var dummyPasswordHash, _ = domain.HashPassword("authtoken-dummy-password")

// Login verifies credentials and issues a new auth token.
//
// Every call issues a fresh token; existing tokens of the account stay valid.
func (s *AccountService) Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error) {
	if req.Username == "" || req.Password == "" {
		return nil, domain.ErrMissingArgument.WithDetails("username and password are required")
	}

	acct, err := s.accounts.GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			domain.VerifyPassword(req.Password, dummyPasswordHash)
			return nil, domain.ErrInvalidCredentials
		}
		return nil, storageError(err)
	}
	if !acct.CheckPassword(req.Password) || !acct.IsActive {
		return nil, domain.ErrInvalidCredentials
	}

	secret, _, err := s.tokens.Issue(ctx, acct.ID, domain.AuthPayload{})
	if err != nil {
		return nil, err
	}

	requestLogger(ctx, s.logger).InfoContext(ctx, "login", "account_id", acct.ID)
	return &LoginResponse{Token: secret.Encode(), Account: acct}, nil
}

// Logout revokes the token that authenticated p.
//
// A token revoked concurrently by another request is reported as invalid.
func (s *AccountService) Logout(ctx context.Context, p *Principal) error {
	err := s.tokens.RevokeDigest(ctx, p.Token.Digest)
	if errors.Is(err, domain.ErrTokenNotFound) {
		return domain.ErrTokenInvalid.WithReason(domain.ReasonNotFound)
	}
	if err != nil {
		return err
	}

	requestLogger(ctx, s.logger).InfoContext(ctx, "logout", "account_id", p.Account.ID)
	return nil
}

// Get returns an account by id.
func (s *AccountService) Get(ctx context.Context, id string) (*domain.Account, error) {
	if id == "" {
		return nil, domain.ErrMissingArgument.WithDetails("account id is required")
	}
	acct, err := s.accounts.Get(ctx, id)
	if err != nil {
		return nil, storageError(err)
	}
	return acct, nil
}

// ChangeEmail sets a new email address on an account.
//
// A changed address is unconfirmed; confirmation tokens issued for the old
// address no longer match and fail on use.
func (s *AccountService) ChangeEmail(ctx context.Context, id, email string) (*domain.Account, error) {
	if email == "" {
		return nil, domain.ErrMissingArgument.WithDetails("email is required")
	}
	if err := domain.ValidateEmail(email); err != nil {
		return nil, err
	}

	if id == "" {
		return nil, domain.ErrMissingArgument.WithDetails("account id is required")
	}

	acct, err := s.accounts.UpdateFunc(ctx, id, func(a *domain.Account) error {
		a.ChangeEmail(email)
		return nil
	})
	if err != nil {
		return nil, storageError(err)
	}

	requestLogger(ctx, s.logger).InfoContext(ctx, "email changed", "account_id", acct.ID)
	return acct, nil
}

// requestLogger adds the request ID carried by ctx, if any.
func requestLogger(ctx context.Context, l *slog.Logger) *slog.Logger {
	if id := logger.RequestIDFromContext(ctx); id != "" {
		return l.With("request_id", id)
	}
	return l
}
