package service

import (
	"context"
	"sync"
	"time"

	"github.com/yndnr/authtoken-go/internal/core/domain"
	"github.com/yndnr/authtoken-go/pkg/token"
)

// mockTokenRepo is an in-memory TokenRepository that counts calls and can be
// made to fail.
type mockTokenRepo[P any] struct {
	mu     sync.Mutex
	tokens map[token.Digest]*domain.Token[P]
	calls  int
	err    error
}

func newMockTokenRepo[P any]() *mockTokenRepo[P] {
	return &mockTokenRepo[P]{tokens: make(map[token.Digest]*domain.Token[P])}
}

func (m *mockTokenRepo[P]) Put(ctx context.Context, t *domain.Token[P]) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return m.err
	}
	if _, ok := m.tokens[t.Digest]; ok {
		return domain.ErrTokenConflict
	}
	m.tokens[t.Digest] = t.Clone()
	return nil
}

func (m *mockTokenRepo[P]) Get(ctx context.Context, d token.Digest) (*domain.Token[P], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	t, ok := m.tokens[d]
	if !ok {
		return nil, domain.ErrTokenNotFound
	}
	return t.Clone(), nil
}

func (m *mockTokenRepo[P]) Delete(ctx context.Context, d token.Digest) (*domain.Token[P], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	t, ok := m.tokens[d]
	if !ok {
		return nil, domain.ErrTokenNotFound
	}
	delete(m.tokens, d)
	return t, nil
}

func (m *mockTokenRepo[P]) DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return 0, m.err
	}
	n := 0
	for d, t := range m.tokens {
		if t.CreatedBefore(cutoff) {
			delete(m.tokens, d)
			n++
		}
	}
	return n, nil
}

func (m *mockTokenRepo[P]) Count(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	return len(m.tokens), nil
}

func (m *mockTokenRepo[P]) size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tokens)
}

func (m *mockTokenRepo[P]) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// mockAccountRepo is an in-memory AccountRepository.
type mockAccountRepo struct {
	mu       sync.Mutex
	accounts map[string]*domain.Account
	err      error
}

func newMockAccountRepo() *mockAccountRepo {
	return &mockAccountRepo{accounts: make(map[string]*domain.Account)}
}

func (m *mockAccountRepo) Create(ctx context.Context, a *domain.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	for _, existing := range m.accounts {
		if existing.ID == a.ID || existing.Username == a.Username {
			return domain.ErrAccountConflict
		}
	}
	m.accounts[a.ID] = a.Clone()
	return nil
}

func (m *mockAccountRepo) Get(ctx context.Context, id string) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	a, ok := m.accounts[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return a.Clone(), nil
}

func (m *mockAccountRepo) GetByUsername(ctx context.Context, username string) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	for _, a := range m.accounts {
		if a.Username == username {
			return a.Clone(), nil
		}
	}
	return nil, domain.ErrAccountNotFound
}

func (m *mockAccountRepo) Update(ctx context.Context, a *domain.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if _, ok := m.accounts[a.ID]; !ok {
		return domain.ErrAccountNotFound
	}
	m.accounts[a.ID] = a.Clone()
	return nil
}

func (m *mockAccountRepo) UpdateFunc(ctx context.Context, id string, fn func(*domain.Account) error) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	current, ok := m.accounts[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	acct := current.Clone()
	if err := fn(acct); err != nil {
		return nil, err
	}
	m.accounts[id] = acct.Clone()
	return acct, nil
}

// mockMailer records sent mail.
type mockMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

type sentMail struct {
	to, subject, body string
}

func (m *mockMailer) Send(ctx context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{to, subject, body})
	return nil
}

func (m *mockMailer) last() sentMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return sentMail{}
	}
	return m.sent[len(m.sent)-1]
}

// fakeClock is a settable clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
