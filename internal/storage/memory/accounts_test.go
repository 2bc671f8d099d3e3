package memory

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/yndnr/authtoken-go/internal/core/domain"
)

func newAccount(t *testing.T, username string) *domain.Account {
	t.Helper()
	acct, err := domain.NewAccount(username, username+"@example.com", "secret123")
	if err != nil {
		t.Fatalf("NewAccount() error = %v", err)
	}
	return acct
}

func TestAccountStore_CreateGet(t *testing.T) {
	ctx := context.Background()
	s := NewAccountStore()
	acct := newAccount(t, "alice")

	if err := s.Create(ctx, acct); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := s.Get(ctx, acct.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Username != "alice" || got.PasswordHash != acct.PasswordHash {
		t.Errorf("Get() = %+v", got)
	}

	byName, err := s.GetByUsername(ctx, "ALICE")
	if err != nil {
		t.Fatalf("GetByUsername() error = %v", err)
	}
	if byName.ID != acct.ID {
		t.Errorf("GetByUsername() ID = %s, want %s", byName.ID, acct.ID)
	}
}

func TestAccountStore_NotFound(t *testing.T) {
	ctx := context.Background()
	s := NewAccountStore()

	if _, err := s.Get(ctx, "acct-missing"); !errors.Is(err, domain.ErrAccountNotFound) {
		t.Errorf("Get() error = %v, want ErrAccountNotFound", err)
	}
	if _, err := s.GetByUsername(ctx, "nobody"); !errors.Is(err, domain.ErrAccountNotFound) {
		t.Errorf("GetByUsername() error = %v, want ErrAccountNotFound", err)
	}
	if err := s.Update(ctx, newAccount(t, "ghost")); !errors.Is(err, domain.ErrAccountNotFound) {
		t.Errorf("Update() error = %v, want ErrAccountNotFound", err)
	}
}

func TestAccountStore_UsernameConflict(t *testing.T) {
	ctx := context.Background()
	s := NewAccountStore()

	if err := s.Create(ctx, newAccount(t, "bob")); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := s.Create(ctx, newAccount(t, "Bob")); !errors.Is(err, domain.ErrAccountConflict) {
		t.Errorf("Create() duplicate error = %v, want ErrAccountConflict", err)
	}
	if n, err := s.Count(ctx); err != nil || n != 1 {
		t.Errorf("Count() = %d, %v, want 1", n, err)
	}
}

func TestAccountStore_ConcurrentCreate(t *testing.T) {
	ctx := context.Background()
	s := NewAccountStore()

	var created atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		acct := newAccount(t, "carol")
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.Create(ctx, acct); err == nil {
				created.Add(1)
			}
		}()
	}
	wg.Wait()

	if created.Load() != 1 {
		t.Errorf("concurrent Create() successes = %d, want 1", created.Load())
	}
}

func TestAccountStore_Update(t *testing.T) {
	ctx := context.Background()
	s := NewAccountStore()
	acct := newAccount(t, "dave")
	_ = s.Create(ctx, acct)

	acct.EmailConfirmed = true
	acct.ChangeEmail("dave@new.example.com")
	if err := s.Update(ctx, acct); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	got, _ := s.Get(ctx, acct.ID)
	if got.Email != "dave@new.example.com" {
		t.Errorf("Email = %q after Update()", got.Email)
	}

	renamed := got.Clone()
	renamed.Username = "david"
	if err := s.Update(ctx, renamed); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("Update() rename error = %v, want ErrInvalidArgument", err)
	}
}

func TestAccountStore_UpdateFunc(t *testing.T) {
	ctx := context.Background()
	s := NewAccountStore()
	acct := newAccount(t, "erin")
	_ = s.Create(ctx, acct)

	got, err := s.UpdateFunc(ctx, acct.ID, func(a *domain.Account) error {
		a.EmailConfirmed = true
		return nil
	})
	if err != nil {
		t.Fatalf("UpdateFunc() error = %v", err)
	}
	got.Email = "mutated@example.com"
	stored, _ := s.Get(ctx, acct.ID)
	if !stored.EmailConfirmed || stored.Email != "erin@example.com" {
		t.Errorf("stored account = %+v", stored)
	}

	errStop := errors.New("stop")
	if _, err := s.UpdateFunc(ctx, acct.ID, func(a *domain.Account) error {
		a.EmailConfirmed = false
		return errStop
	}); !errors.Is(err, errStop) {
		t.Errorf("UpdateFunc() error = %v, want %v", err, errStop)
	}
	if stored, _ := s.Get(ctx, acct.ID); !stored.EmailConfirmed {
		t.Error("failed UpdateFunc() modified the account")
	}

	if _, err := s.UpdateFunc(ctx, acct.ID, func(a *domain.Account) error {
		a.Username = "erina"
		return nil
	}); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("UpdateFunc() rename error = %v, want ErrInvalidArgument", err)
	}
	if _, err := s.UpdateFunc(ctx, "acct-missing", func(*domain.Account) error { return nil }); !errors.Is(err, domain.ErrAccountNotFound) {
		t.Errorf("UpdateFunc() missing error = %v, want ErrAccountNotFound", err)
	}
}

func TestAccountStore_UpdateFunc_NoLostWrites(t *testing.T) {
	ctx := context.Background()
	s := NewAccountStore()
	acct := newAccount(t, "gina")
	_ = s.Create(ctx, acct)

	const writers = 32
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.UpdateFunc(ctx, acct.ID, func(a *domain.Account) error {
				a.Email = "x" + a.Email
				return nil
			})
		}()
	}
	wg.Wait()

	stored, _ := s.Get(ctx, acct.ID)
	if want := len("gina@example.com") + writers; len(stored.Email) != want {
		t.Errorf("len(Email) = %d, want %d", len(stored.Email), want)
	}
}
