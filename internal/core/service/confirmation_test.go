package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/yndnr/authtoken-go/internal/core/domain"
	"github.com/yndnr/authtoken-go/internal/telemetry/logger"
	"github.com/yndnr/authtoken-go/pkg/token"
)

type confirmFixture struct {
	svc      *ConfirmationService
	tokens   *Lifecycle[domain.ConfirmationPayload]
	repo     *mockTokenRepo[domain.ConfirmationPayload]
	accounts *mockAccountRepo
	mailer   *mockMailer
	clock    *fakeClock
}

func newConfirmFixture(t *testing.T, cfg ConfirmationConfig) *confirmFixture {
	t.Helper()
	f := &confirmFixture{
		repo:     newMockTokenRepo[domain.ConfirmationPayload](),
		accounts: newMockAccountRepo(),
		mailer:   &mockMailer{},
		clock:    newFakeClock(),
	}

	var err error
	f.tokens, err = NewLifecycle[domain.ConfirmationPayload](
		domain.KindSpec{Kind: domain.KindEmailConfirmation, Validity: testValidity},
		f.repo, WithClock(f.clock.Now), WithLogger(logger.Discard()))
	if err != nil {
		t.Fatalf("NewLifecycle() error = %v", err)
	}

	f.svc, err = NewConfirmationService(f.tokens, f.accounts, f.mailer, cfg, logger.Discard())
	if err != nil {
		t.Fatalf("NewConfirmationService() error = %v", err)
	}
	return f
}

// linkToken extracts the encoded secret from a mailed confirmation link.
func linkToken(t *testing.T, body string) string {
	t.Helper()
	i := strings.Index(body, ConfirmationPath)
	if i < 0 {
		t.Fatalf("mail body has no confirmation link: %q", body)
	}
	rest := body[i+len(ConfirmationPath):]
	end := strings.Index(rest, "/")
	if end < 0 {
		t.Fatalf("confirmation link not terminated: %q", body)
	}
	return rest[:end]
}

func TestNewConfirmationService_Errors(t *testing.T) {
	f := newConfirmFixture(t, ConfirmationConfig{})

	if _, err := NewConfirmationService(f.tokens, f.accounts, nil, ConfirmationConfig{}, nil); err == nil {
		t.Error("NewConfirmationService() without mailer should fail")
	}
	if _, err := NewConfirmationService(f.tokens, f.accounts, f.mailer, ConfirmationConfig{Message: "{{.URL"}, nil); err == nil {
		t.Error("NewConfirmationService() with a broken template should fail")
	}
}

func TestConfirmationService_SendConfirmation(t *testing.T) {
	f := newConfirmFixture(t, ConfirmationConfig{
		BaseURL: "https://example.com/",
		Subject: "Please confirm",
		Message: "Hi {{.Username}}: {{.URL}}",
	})
	ctx := context.Background()
	acct := createAccount(t, f.accounts, "alice", "alice@example.com")

	if err := f.svc.SendConfirmation(ctx, acct); err != nil {
		t.Fatalf("SendConfirmation() error = %v", err)
	}

	mail := f.mailer.last()
	if mail.to != "alice@example.com" || mail.subject != "Please confirm" {
		t.Errorf("mail = %+v", mail)
	}
	if !strings.HasPrefix(mail.body, "Hi alice: https://example.com/confirm_email/") {
		t.Errorf("body = %q", mail.body)
	}

	encoded := linkToken(t, mail.body)
	if len(encoded) != token.EncodedLength {
		t.Errorf("link token length = %d, want %d", len(encoded), token.EncodedLength)
	}

	secret, err := token.Decode(encoded)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	stored, err := f.repo.Get(ctx, token.Hash(secret))
	if err != nil {
		t.Fatalf("mailed token is not stored: %v", err)
	}
	if stored.Payload.Email != "alice@example.com" || stored.OwnerID != acct.ID {
		t.Errorf("stored = %+v", stored)
	}
}

func TestConfirmationService_SendConfirmation_Preconditions(t *testing.T) {
	f := newConfirmFixture(t, ConfirmationConfig{})
	ctx := context.Background()

	confirmed := &domain.Account{ID: "acct-1", Email: "a@example.com", EmailConfirmed: true}
	if err := f.svc.SendConfirmation(ctx, confirmed); !errors.Is(err, domain.ErrEmailAlreadyConfirmed) {
		t.Errorf("SendConfirmation() error = %v, want ErrEmailAlreadyConfirmed", err)
	}

	noEmail := &domain.Account{ID: "acct-2"}
	if err := f.svc.SendConfirmation(ctx, noEmail); !errors.Is(err, domain.ErrMissingArgument) {
		t.Errorf("SendConfirmation() error = %v, want ErrMissingArgument", err)
	}
	if f.repo.size() != 0 {
		t.Error("no token should be issued when preconditions fail")
	}
}

func TestConfirmationService_SendConfirmation_MailFailure(t *testing.T) {
	f := newConfirmFixture(t, ConfirmationConfig{})
	f.mailer.err = errors.New("smtp: 554 rejected")
	acct := createAccount(t, f.accounts, "alice", "alice@example.com")

	err := f.svc.SendConfirmation(context.Background(), acct)
	if !errors.Is(err, domain.ErrMailDelivery) {
		t.Fatalf("SendConfirmation() error = %v, want ErrMailDelivery", err)
	}
	if f.repo.size() != 0 {
		t.Error("undelivered confirmation token must be deleted")
	}
}

func TestConfirmationService_Confirm(t *testing.T) {
	f := newConfirmFixture(t, ConfirmationConfig{})
	ctx := context.Background()
	acct := createAccount(t, f.accounts, "alice", "alice@example.com")

	if err := f.svc.SendConfirmation(ctx, acct); err != nil {
		t.Fatalf("SendConfirmation() error = %v", err)
	}
	encoded := linkToken(t, f.mailer.last().body)

	got, err := f.svc.Confirm(ctx, encoded)
	if err != nil {
		t.Fatalf("Confirm() error = %v", err)
	}
	if !got.EmailConfirmed {
		t.Error("returned account is not confirmed")
	}
	stored, _ := f.accounts.Get(ctx, acct.ID)
	if !stored.EmailConfirmed {
		t.Error("stored account is not confirmed")
	}
	if f.repo.size() != 0 {
		t.Error("confirmation token must be single use")
	}

	_, err = f.svc.Confirm(ctx, encoded)
	assertInvalid(t, err, domain.ReasonNotFound)
}

func TestConfirmationService_Confirm_EmailChanged(t *testing.T) {
	f := newConfirmFixture(t, ConfirmationConfig{})
	ctx := context.Background()
	acct := createAccount(t, f.accounts, "alice", "old@example.com")

	if err := f.svc.SendConfirmation(ctx, acct); err != nil {
		t.Fatalf("SendConfirmation() error = %v", err)
	}
	encoded := linkToken(t, f.mailer.last().body)

	acct.ChangeEmail("new@example.com")
	if err := f.accounts.Update(ctx, acct); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	_, err := f.svc.Confirm(ctx, encoded)
	assertInvalid(t, err, domain.ReasonOwnerMismatch)

	if f.repo.size() != 0 {
		t.Error("mismatched token must still be deleted")
	}
	stored, _ := f.accounts.Get(ctx, acct.ID)
	if stored.EmailConfirmed {
		t.Error("owner must stay unconfirmed")
	}
}

// interleavedAccountRepo commits another write to the account right after
// the first read, or right before the first update, that it serves.
type interleavedAccountRepo struct {
	*mockAccountRepo
	once  sync.Once
	write func()
}

func (r *interleavedAccountRepo) Get(ctx context.Context, id string) (*domain.Account, error) {
	acct, err := r.mockAccountRepo.Get(ctx, id)
	r.once.Do(r.write)
	return acct, err
}

func (r *interleavedAccountRepo) UpdateFunc(ctx context.Context, id string, fn func(*domain.Account) error) (*domain.Account, error) {
	r.once.Do(r.write)
	return r.mockAccountRepo.UpdateFunc(ctx, id, fn)
}

func TestConfirmationService_Confirm_ConcurrentEmailChange(t *testing.T) {
	f := newConfirmFixture(t, ConfirmationConfig{})
	ctx := context.Background()
	acct := createAccount(t, f.accounts, "alice", "a@example.com")

	if err := f.svc.SendConfirmation(ctx, acct); err != nil {
		t.Fatalf("SendConfirmation() error = %v", err)
	}
	encoded := linkToken(t, f.mailer.last().body)

	repo := &interleavedAccountRepo{mockAccountRepo: f.accounts}
	repo.write = func() {
		_, err := f.accounts.UpdateFunc(ctx, acct.ID, func(a *domain.Account) error {
			a.ChangeEmail("b@example.com")
			return nil
		})
		if err != nil {
			t.Errorf("concurrent email change error = %v", err)
		}
	}
	svc, err := NewConfirmationService(f.tokens, repo, f.mailer, ConfirmationConfig{}, logger.Discard())
	if err != nil {
		t.Fatalf("NewConfirmationService() error = %v", err)
	}

	_, err = svc.Confirm(ctx, encoded)
	assertInvalid(t, err, domain.ReasonOwnerMismatch)

	stored, _ := f.accounts.Get(ctx, acct.ID)
	if stored.Email != "b@example.com" || stored.EmailConfirmed {
		t.Errorf("stored account = %q confirmed=%v, want b@example.com unconfirmed",
			stored.Email, stored.EmailConfirmed)
	}
}

func TestConfirmationService_Confirm_Expired(t *testing.T) {
	f := newConfirmFixture(t, ConfirmationConfig{})
	ctx := context.Background()
	acct := createAccount(t, f.accounts, "alice", "alice@example.com")

	_ = f.svc.SendConfirmation(ctx, acct)
	encoded := linkToken(t, f.mailer.last().body)
	f.clock.Advance(testValidity + time.Minute)

	_, err := f.svc.Confirm(ctx, encoded)
	assertInvalid(t, err, domain.ReasonExpired)

	stored, _ := f.accounts.Get(ctx, acct.ID)
	if stored.EmailConfirmed {
		t.Error("expired token confirmed the address")
	}
}

func TestConfirmationService_Confirm_Malformed(t *testing.T) {
	f := newConfirmFixture(t, ConfirmationConfig{})

	_, err := f.svc.Confirm(context.Background(), "not-a-token")
	assertInvalid(t, err, domain.ReasonMalformed)
	if f.repo.callCount() != 0 {
		t.Error("malformed token reached the store")
	}
}

func TestConfirmationService_Resend(t *testing.T) {
	f := newConfirmFixture(t, ConfirmationConfig{})
	ctx := context.Background()
	acct := createAccount(t, f.accounts, "alice", "alice@example.com")

	if err := f.svc.Resend(ctx, acct.ID); err != nil {
		t.Fatalf("Resend() error = %v", err)
	}
	if err := f.svc.Resend(ctx, acct.ID); err != nil {
		t.Fatalf("second Resend() error = %v", err)
	}
	if f.repo.size() != 2 {
		t.Errorf("outstanding tokens = %d, want 2", f.repo.size())
	}

	if err := f.svc.Resend(ctx, "acct-missing"); !errors.Is(err, domain.ErrAccountNotFound) {
		t.Errorf("Resend() error = %v, want ErrAccountNotFound", err)
	}
}

func TestConfirmationService_DefaultMessage(t *testing.T) {
	f := newConfirmFixture(t, ConfirmationConfig{BaseURL: "http://localhost:5080"})
	acct := createAccount(t, f.accounts, "bob", "bob@example.com")

	if err := f.svc.SendConfirmation(context.Background(), acct); err != nil {
		t.Fatalf("SendConfirmation() error = %v", err)
	}
	mail := f.mailer.last()
	if mail.subject != DefaultConfirmationSubject {
		t.Errorf("subject = %q", mail.subject)
	}
	if !strings.Contains(mail.body, "Hello bob") || !strings.Contains(mail.body, "http://localhost:5080/confirm_email/") {
		t.Errorf("body = %q", mail.body)
	}
}
