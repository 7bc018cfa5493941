package services

import (
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/trailpost/trailpost/internal/apperr"
	"github.com/trailpost/trailpost/internal/domain"
	"github.com/trailpost/trailpost/internal/dto"
)

// --- fakes ---

type fakeAccountRepo struct {
	mu       sync.Mutex
	seq      uint
	accounts map[uint]domain.Account
	profiles map[uint]domain.Profile
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{
		accounts: make(map[uint]domain.Account),
		profiles: make(map[uint]domain.Profile),
	}
}

func (f *fakeAccountRepo) Create(acc *domain.Account) (*domain.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, existing := range f.accounts {
		if existing.Email == acc.Email {
			return nil, apperr.Conflict("email already registered")
		}
	}
	f.seq++
	acc.ID = f.seq
	f.accounts[acc.ID] = *acc
	return acc, nil
}

func (f *fakeAccountRepo) Save(acc *domain.Account) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accounts[acc.ID] = *acc
	return nil
}

func (f *fakeAccountRepo) FindByEmail(email string) (*domain.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, acc := range f.accounts {
		if acc.Email == email {
			out := acc
			return &out, nil
		}
	}
	return nil, apperr.ErrAccountNotFound
}

func (f *fakeAccountRepo) FindByID(id uint) (*domain.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	acc, ok := f.accounts[id]
	if !ok {
		return nil, apperr.ErrAccountNotFound
	}
	out := acc
	return &out, nil
}

func (f *fakeAccountRepo) VerifyAccount(acc *domain.Account, profile *domain.Profile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accounts[acc.ID] = *acc
	f.profiles[profile.AccountID] = *profile
	return nil
}

func (f *fakeAccountRepo) SaveRefreshSession(id uint, fingerprint *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	acc, ok := f.accounts[id]
	if !ok {
		return apperr.ErrAccountNotFound
	}
	acc.RefreshTokenHash = fingerprint
	f.accounts[id] = acc
	return nil
}

func (f *fakeAccountRepo) RevokeSessions(id uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	acc, ok := f.accounts[id]
	if !ok {
		return apperr.ErrAccountNotFound
	}
	acc.RefreshTokenHash = nil
	acc.SessionVersion++
	f.accounts[id] = acc
	return nil
}

func (f *fakeAccountRepo) SaveAndRevokeSessions(acc *domain.Account) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	saved := *acc
	saved.RefreshTokenHash = nil
	saved.SessionVersion++
	f.accounts[acc.ID] = saved
	return nil
}

func (f *fakeAccountRepo) FindProfile(accountID uint) (*domain.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	profile, ok := f.profiles[accountID]
	if !ok {
		return nil, apperr.NotFound("profile not found")
	}
	out := profile
	return &out, nil
}

func (f *fakeAccountRepo) SaveProfile(profile *domain.Profile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.profiles[profile.AccountID] = *profile
	return nil
}

func (f *fakeAccountRepo) List(offset, limit int) ([]domain.Account, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	ids := make([]uint, 0, len(f.accounts))
	for id := range f.accounts {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var out []domain.Account
	for i, id := range ids {
		if i < offset {
			continue
		}
		if len(out) == limit {
			break
		}
		out = append(out, f.accounts[id])
	}
	return out, int64(len(f.accounts)), nil
}

func (f *fakeAccountRepo) Delete(id uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.accounts, id)
	delete(f.profiles, id)
	return nil
}

func (f *fakeAccountRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.accounts)
}

type publishedMessage struct {
	Key   string
	Event dto.OTPEmailEvent
}

type fakeProducer struct {
	mu       sync.Mutex
	messages []publishedMessage
	failErr  error
}

func (f *fakeProducer) PublishMessage(key, value []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failErr != nil {
		return f.failErr
	}

	var event dto.OTPEmailEvent
	_ = json.Unmarshal(value, &event)
	f.messages = append(f.messages, publishedMessage{Key: string(key), Event: event})
	return nil
}

// lastCode returns the most recently mailed OTP.
func (f *fakeProducer) lastCode() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.messages) == 0 {
		return ""
	}
	return f.messages[len(f.messages)-1].Event.Code
}

func (f *fakeProducer) sent() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.messages)
}

type fakeAuditRepo struct {
	mu      sync.Mutex
	entries []domain.AuditLog
	failErr error
}

func (f *fakeAuditRepo) Append(entry *domain.AuditLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failErr != nil {
		return f.failErr
	}
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeAuditRepo) actions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.entries))
	for _, e := range f.entries {
		out = append(out, e.Action)
	}
	return out
}

// fakeClock lets tests move time across OTP expiry boundaries.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}
