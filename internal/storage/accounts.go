package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yndnr/authtoken-go/internal/core/domain"
	"github.com/yndnr/authtoken-go/internal/core/service"
)

var _ service.AccountRepository = (*AccountStore)(nil)

const (
	accountIDPrefix   = "acct/id/"
	accountNamePrefix = "acct/name/"
)

// accountRecord is the stored form of domain.Account. It carries the
// password hash, which domain.Account never serializes.
type accountRecord struct {
	ID             string    `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	PasswordHash   string    `json:"password_hash"`
	EmailConfirmed bool      `json:"email_confirmed"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
}

func toRecord(a *domain.Account) accountRecord {
	return accountRecord{
		ID:             a.ID,
		Username:       a.Username,
		Email:          a.Email,
		PasswordHash:   a.PasswordHash,
		EmailConfirmed: a.EmailConfirmed,
		IsActive:       a.IsActive,
		CreatedAt:      a.CreatedAt,
	}
}

func (r accountRecord) account() *domain.Account {
	return &domain.Account{
		ID:             r.ID,
		Username:       r.Username,
		Email:          r.Email,
		PasswordHash:   r.PasswordHash,
		EmailConfirmed: r.EmailConfirmed,
		IsActive:       r.IsActive,
		CreatedAt:      r.CreatedAt,
	}
}

func accountIDKey(id string) []byte {
	return []byte(accountIDPrefix + id)
}

func accountNameKey(username string) []byte {
	return []byte(accountNamePrefix + strings.ToLower(username))
}

// AccountStore persists accounts in a KVEngine.
type AccountStore struct {
	engine KVEngine
}

// NewAccountStore creates an AccountStore.
func NewAccountStore(engine KVEngine) *AccountStore {
	return &AccountStore{engine: engine}
}

// Create stores a new account and claims its username in one transaction.
func (s *AccountStore) Create(ctx context.Context, acct *domain.Account) error {
	data, err := json.Marshal(toRecord(acct))
	if err != nil {
		return fmt.Errorf("encode account: %w", err)
	}

	idKey, nameKey := accountIDKey(acct.ID), accountNameKey(acct.Username)
	return s.engine.Update(ctx, func(txn KVTxn) error {
		if err := mustBeAbsent(txn, nameKey); err != nil {
			if errors.Is(err, errKeyExists) {
				return domain.ErrAccountConflict.WithDetails("username already taken")
			}
			return err
		}
		if err := mustBeAbsent(txn, idKey); err != nil {
			if errors.Is(err, errKeyExists) {
				return domain.ErrAccountConflict.WithDetails("account id already exists")
			}
			return err
		}
		if err := txn.Set(idKey, data); err != nil {
			return err
		}
		return txn.Set(nameKey, []byte(acct.ID))
	})
}

var errKeyExists = errors.New("key exists")

func mustBeAbsent(txn KVTxn, key []byte) error {
	_, err := txn.Get(key)
	switch {
	case err == nil:
		return errKeyExists
	case errors.Is(err, ErrKeyNotFound):
		return nil
	default:
		return err
	}
}

// Get loads the account with id.
func (s *AccountStore) Get(ctx context.Context, id string) (*domain.Account, error) {
	data, err := s.engine.Get(ctx, accountIDKey(id))
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, err
	}
	return decodeAccount(data)
}

// GetByUsername loads the account with username, case-insensitively.
func (s *AccountStore) GetByUsername(ctx context.Context, username string) (*domain.Account, error) {
	id, err := s.engine.Get(ctx, accountNameKey(username))
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, err
	}
	return s.Get(ctx, string(id))
}

// Update replaces an existing account. Usernames are immutable.
func (s *AccountStore) Update(ctx context.Context, acct *domain.Account) error {
	data, err := json.Marshal(toRecord(acct))
	if err != nil {
		return fmt.Errorf("encode account: %w", err)
	}

	key := accountIDKey(acct.ID)
	return s.engine.Update(ctx, func(txn KVTxn) error {
		raw, err := txn.Get(key)
		if err != nil {
			if errors.Is(err, ErrKeyNotFound) {
				return domain.ErrAccountNotFound
			}
			return err
		}
		current, err := decodeAccount(raw)
		if err != nil {
			return err
		}
		if !strings.EqualFold(current.Username, acct.Username) {
			return domain.ErrInvalidArgument.WithDetails("username cannot be changed")
		}
		return txn.Set(key, data)
	})
}

// UpdateFunc applies fn to the stored account inside one transaction. A
// conflicting write makes the engine retry, running fn on the fresh record.
func (s *AccountStore) UpdateFunc(ctx context.Context, id string, fn func(acct *domain.Account) error) (*domain.Account, error) {
	key := accountIDKey(id)
	var updated *domain.Account
	err := s.engine.Update(ctx, func(txn KVTxn) error {
		raw, err := txn.Get(key)
		if err != nil {
			if errors.Is(err, ErrKeyNotFound) {
				return domain.ErrAccountNotFound
			}
			return err
		}
		acct, err := decodeAccount(raw)
		if err != nil {
			return err
		}
		username := acct.Username
		if err := fn(acct); err != nil {
			return err
		}
		if acct.ID != id || !strings.EqualFold(acct.Username, username) {
			return domain.ErrInvalidArgument.WithDetails("account id and username cannot be changed")
		}
		data, err := json.Marshal(toRecord(acct))
		if err != nil {
			return fmt.Errorf("encode account: %w", err)
		}
		updated = acct
		return txn.Set(key, data)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Count returns the number of stored accounts.
func (s *AccountStore) Count(ctx context.Context) (int, error) {
	return s.engine.Count(ctx, []byte(accountIDPrefix))
}

func decodeAccount(data []byte) (*domain.Account, error) {
	var rec accountRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode account: %w", err)
	}
	return rec.account(), nil
}
