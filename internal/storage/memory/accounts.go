package memory

import (
	"context"
	"strings"

	"github.com/yndnr/authtoken-go/internal/core/domain"
	"github.com/yndnr/authtoken-go/internal/core/service"
	"github.com/yndnr/authtoken-go/pkg/cmap"
)

var _ service.AccountRepository = (*AccountStore)(nil)

// AccountStore holds accounts with a case-insensitive username index.
type AccountStore struct {
	// Primary index: ID -> Account
	accounts *cmap.Map[string, *domain.Account]

	// Secondary index: lowercased username -> ID
	usernames *cmap.Map[string, string]
}

// NewAccountStore creates an empty AccountStore.
func NewAccountStore() *AccountStore {
	return &AccountStore{
		accounts:  cmap.New[string, *domain.Account](),
		usernames: cmap.New[string, string](),
	}
}

func usernameKey(username string) string {
	return strings.ToLower(username)
}

// Create stores a new account. The username is claimed first so that two
// concurrent registrations of the same name cannot both succeed.
func (s *AccountStore) Create(_ context.Context, acct *domain.Account) error {
	key := usernameKey(acct.Username)
	if !s.usernames.SetIfAbsent(key, acct.ID) {
		return domain.ErrAccountConflict.WithDetails("username already taken")
	}
	if !s.accounts.SetIfAbsent(acct.ID, acct.Clone()) {
		s.usernames.Delete(key)
		return domain.ErrAccountConflict.WithDetails("account id already exists")
	}
	return nil
}

// Get returns a copy of the account with id.
func (s *AccountStore) Get(_ context.Context, id string) (*domain.Account, error) {
	acct, ok := s.accounts.Get(id)
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return acct.Clone(), nil
}

// GetByUsername returns a copy of the account with username.
func (s *AccountStore) GetByUsername(ctx context.Context, username string) (*domain.Account, error) {
	id, ok := s.usernames.Get(usernameKey(username))
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return s.Get(ctx, id)
}

// Update replaces an existing account. Usernames are immutable.
func (s *AccountStore) Update(_ context.Context, acct *domain.Account) error {
	current, ok := s.accounts.Get(acct.ID)
	if !ok {
		return domain.ErrAccountNotFound
	}
	if usernameKey(current.Username) != usernameKey(acct.Username) {
		return domain.ErrInvalidArgument.WithDetails("username cannot be changed")
	}
	if !s.accounts.SetIfPresent(acct.ID, acct.Clone()) {
		return domain.ErrAccountNotFound
	}
	return nil
}

// UpdateFunc applies fn to a copy of the account while its shard is locked
// and stores the copy if fn succeeds.
func (s *AccountStore) UpdateFunc(_ context.Context, id string, fn func(acct *domain.Account) error) (*domain.Account, error) {
	updated, ok, err := s.accounts.Update(id, func(current *domain.Account) (*domain.Account, error) {
		acct := current.Clone()
		if err := fn(acct); err != nil {
			return nil, err
		}
		if acct.ID != current.ID || usernameKey(acct.Username) != usernameKey(current.Username) {
			return nil, domain.ErrInvalidArgument.WithDetails("account id and username cannot be changed")
		}
		return acct, nil
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return updated.Clone(), nil
}

// Count returns the number of stored accounts.
func (s *AccountStore) Count(_ context.Context) (int, error) {
	return s.accounts.Count(), nil
}
