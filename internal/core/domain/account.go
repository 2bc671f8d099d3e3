package domain

import (
	"crypto/rand"
	"net/mail"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// AccountIDPrefix is the prefix of account IDs.
const AccountIDPrefix = "acct-"

// Account constraints.
const (
	MaxUsernameLength = 150
	MaxEmailLength    = 254
)

// Account is the owner of tokens.
type Account struct {
	// ID format: acct-{ulid_lowercase}, 31 characters total.
	ID string `json:"id"`

	Username string `json:"username"`
	Email    string `json:"email"`

	// PasswordHash is an argon2id PHC string (never exposed).
	PasswordHash string `json:"-"`

	EmailConfirmed bool      `json:"email_confirmed"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
}

// NewAccount creates an active account with a generated ID and hashed
// password.
func NewAccount(username, email, password string) (*Account, error) {
	id, err := GenerateAccountID()
	if err != nil {
		return nil, err
	}
	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	return &Account{
		ID:           id,
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		IsActive:     true,
		CreatedAt:    timeNow().UTC(),
	}, nil
}

// GenerateAccountID generates a new account ID using ULID.
func GenerateAccountID() (string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(timeNow()), entropy)
	if err != nil {
		return "", ErrInternalServer.WithCause(err)
	}
	return AccountIDPrefix + strings.ToLower(id.String()), nil
}

// IsValidAccountID checks the acct-{ulid} format, case-insensitively.
func IsValidAccountID(id string) bool {
	id = strings.ToLower(id)
	if !strings.HasPrefix(id, AccountIDPrefix) {
		return false
	}
	// acct- (5) + ULID (26)
	if len(id) != len(AccountIDPrefix)+ulid.EncodedSize {
		return false
	}
	_, err := ulid.Parse(strings.ToUpper(id[len(AccountIDPrefix):]))
	return err == nil
}

// ChangeEmail sets a new address. A changed address is no longer confirmed,
// and any outstanding confirmation token for the old one stops matching.
func (a *Account) ChangeEmail(email string) {
	if a.Email == email {
		return
	}
	a.Email = email
	a.EmailConfirmed = false
}

// CheckPassword reports whether password matches the stored hash.
func (a *Account) CheckPassword(password string) bool {
	return VerifyPassword(password, a.PasswordHash)
}

// Validate validates the account fields.
func (a *Account) Validate() error {
	var violations []string

	if a.ID == "" {
		violations = append(violations, "id is required")
	} else if !IsValidAccountID(a.ID) {
		violations = append(violations, "id format invalid")
	}

	if a.Username == "" {
		violations = append(violations, "username is required")
	} else if len(a.Username) > MaxUsernameLength {
		violations = append(violations, "username exceeds 150 characters")
	}

	if a.Email != "" {
		if err := ValidateEmail(a.Email); err != nil {
			violations = append(violations, "email format invalid")
		}
	}

	if a.PasswordHash == "" {
		violations = append(violations, "password_hash is required")
	}

	if len(violations) > 0 {
		return ErrAccountValidation.WithDetails(strings.Join(violations, "; "))
	}
	return nil
}

// ValidateEmail checks that email is a bare RFC 5322 address.
func ValidateEmail(email string) error {
	if len(email) > MaxEmailLength {
		return ErrInvalidArgument.WithDetails("email too long")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return ErrInvalidArgument.WithDetails("email format invalid")
	}
	return nil
}

// Clone creates a copy of the account.
func (a *Account) Clone() *Account {
	c := *a
	return &c
}

// timeNow is a hook for testing.
var timeNow = time.Now
