package auth

import (
	"context"
	"database/sql"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/hr-auth-service/internal/model"
	"github.com/iliyamo/hr-auth-service/internal/queue"
	"github.com/iliyamo/hr-auth-service/internal/repository"
	"github.com/iliyamo/hr-auth-service/internal/utils"
)

// In-memory store fakes. They mirror the repository contracts closely
// enough for service-level tests: sql.ErrNoRows for absent rows,
// repository sentinels for conflicts, and the same single-use guards.

type fakeUserStore struct {
	mu     sync.Mutex
	nextID uint64
	users  map[uint64]model.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{nextID: 1, users: map[uint64]model.User{}}
}

func (f *fakeUserStore) add(u model.User) model.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u.ID == 0 {
		u.ID = f.nextID
	}
	if u.ID >= f.nextID {
		f.nextID = u.ID + 1
	}
	f.users[u.ID] = u
	return u
}

func (f *fakeUserStore) Create(_ context.Context, email, username, password, role, firstName, lastName string, cost int) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email || u.Username == username {
			return 0, repository.ErrEmailExists
		}
	}
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	id := f.nextID
	f.nextID++
	f.users[id] = model.User{
		ID: id, Email: email, Username: username, PasswordHash: hash,
		Role: role, FirstName: firstName, LastName: lastName, IsActive: true,
	}
	return id, nil
}

func (f *fakeUserStore) GetByIdentifier(_ context.Context, identifier string) (model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	lowered := strings.ToLower(identifier)
	for _, u := range f.users {
		if u.Username == identifier || u.Email == lowered {
			return u, nil
		}
	}
	return model.User{}, sql.ErrNoRows
}

func (f *fakeUserStore) GetByEmail(_ context.Context, email string) (model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == strings.ToLower(email) {
			return u, nil
		}
	}
	return model.User{}, sql.ErrNoRows
}

func (f *fakeUserStore) GetByID(_ context.Context, id uint64) (model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return model.User{}, sql.ErrNoRows
	}
	return u, nil
}

type fakeAttemptStore struct {
	mu       sync.Mutex
	attempts map[string]*model.LoginAttempt
}

func newFakeAttemptStore() *fakeAttemptStore {
	return &fakeAttemptStore{attempts: map[string]*model.LoginAttempt{}}
}

func pairKey(email, ip string) string { return email + "|" + ip }

func (f *fakeAttemptStore) Upsert(_ context.Context, email, ip string) (model.LoginAttempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := pairKey(email, ip)
	a, ok := f.attempts[key]
	if !ok {
		a = &model.LoginAttempt{Email: email, IPAddress: ip}
		f.attempts[key] = a
	}
	a.FailedAttempts++
	a.LastAttempt = time.Now().UTC()
	return *a, nil
}

func (f *fakeAttemptStore) Lock(_ context.Context, email, ip string, until time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a, ok := f.attempts[pairKey(email, ip)]; ok {
		a.LockedUntil = &until
	}
	return nil
}

func (f *fakeAttemptStore) Get(_ context.Context, email, ip string) (model.LoginAttempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.attempts[pairKey(email, ip)]
	if !ok {
		return model.LoginAttempt{}, sql.ErrNoRows
	}
	return *a, nil
}

func (f *fakeAttemptStore) Delete(_ context.Context, email, ip string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.attempts, pairKey(email, ip))
	return nil
}

type fakeRefreshStore struct {
	mu     sync.Mutex
	nextID uint64
	rows   map[string]*model.RefreshToken // keyed by token hash
}

func newFakeRefreshStore() *fakeRefreshStore {
	return &fakeRefreshStore{nextID: 1, rows: map[string]*model.RefreshToken{}}
}

func (f *fakeRefreshStore) StoreRefresh(_ context.Context, userID uint64, tokenHash string, exp time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows[tokenHash] = &model.RefreshToken{
		ID: f.nextID, UserID: userID, TokenHash: tokenHash,
		CreatedAt: time.Now().UTC(), ExpiresAt: exp,
	}
	f.nextID++
	return nil
}

func (f *fakeRefreshStore) FindByHash(_ context.Context, tokenHash string) (model.RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rows[tokenHash]
	if !ok {
		return model.RefreshToken{}, sql.ErrNoRows
	}
	return *r, nil
}

func (f *fakeRefreshStore) RevokeByHash(_ context.Context, tokenHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.rows[tokenHash]; ok && !r.Revoked {
		now := time.Now().UTC()
		r.Revoked = true
		r.RevokedAt = &now
	}
	return nil
}

func (f *fakeRefreshStore) ListByUser(_ context.Context, userID uint64) ([]model.RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.RefreshToken
	for _, r := range f.rows {
		if r.UserID == userID {
			out = append(out, *r)
		}
	}
	// Newest first, matching the repository's ORDER BY.
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (f *fakeRefreshStore) RevokeAllForUser(_ context.Context, userID uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now().UTC()
	for _, r := range f.rows {
		if r.UserID == userID && !r.Revoked {
			r.Revoked = true
			r.RevokedAt = &now
		}
	}
	return nil
}

type fakeResetStore struct {
	mu        sync.Mutex
	nextID    uint64
	rows      map[string]*model.PasswordResetToken // keyed by token hash
	passwords map[uint64]string                    // userID -> last written hash
}

func newFakeResetStore() *fakeResetStore {
	return &fakeResetStore{nextID: 1, rows: map[string]*model.PasswordResetToken{}, passwords: map[uint64]string{}}
}

func (f *fakeResetStore) Create(_ context.Context, userID uint64, tokenHash string, exp time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows[tokenHash] = &model.PasswordResetToken{
		ID: f.nextID, UserID: userID, TokenHash: tokenHash,
		CreatedAt: time.Now().UTC(), ExpiresAt: exp,
	}
	f.nextID++
	return nil
}

func (f *fakeResetStore) FindByHash(_ context.Context, tokenHash string) (model.PasswordResetToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rows[tokenHash]
	if !ok {
		return model.PasswordResetToken{}, sql.ErrNoRows
	}
	return *r, nil
}

func (f *fakeResetStore) Consume(_ context.Context, tokenID, userID uint64, newPasswordHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.rows {
		if r.ID == tokenID {
			if r.Used {
				return repository.ErrConflict
			}
			now := time.Now().UTC()
			r.Used = true
			r.UsedAt = &now
			f.passwords[userID] = newPasswordHash
			return nil
		}
	}
	return repository.ErrConflict
}

type fakeTwoFactorStore struct {
	mu   sync.Mutex
	rows map[uint64]*model.TwoFactorAuth
}

func newFakeTwoFactorStore() *fakeTwoFactorStore {
	return &fakeTwoFactorStore{rows: map[uint64]*model.TwoFactorAuth{}}
}

func (f *fakeTwoFactorStore) Get(_ context.Context, userID uint64) (model.TwoFactorAuth, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rows[userID]
	if !ok {
		return model.TwoFactorAuth{}, sql.ErrNoRows
	}
	cp := *r
	cp.BackupCodes = append([]string(nil), r.BackupCodes...)
	return cp, nil
}

func (f *fakeTwoFactorStore) Replace(_ context.Context, userID uint64, method, secret string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows[userID] = &model.TwoFactorAuth{
		UserID: userID, Method: method, SecretKey: secret,
		CreatedAt: time.Now().UTC(),
	}
	return nil
}

func (f *fakeTwoFactorStore) SetPendingCode(_ context.Context, userID uint64, codeHash string, exp time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rows[userID]
	if !ok {
		return sql.ErrNoRows
	}
	r.PendingCodeHash = codeHash
	r.PendingCodeExp = &exp
	return nil
}

func (f *fakeTwoFactorStore) MarkVerified(_ context.Context, userID uint64, backupCodeHashes []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rows[userID]
	if !ok {
		return sql.ErrNoRows
	}
	now := time.Now().UTC()
	r.Verified = true
	r.VerifiedAt = &now
	r.BackupCodes = append([]string(nil), backupCodeHashes...)
	r.PendingCodeHash = ""
	r.PendingCodeExp = nil
	return nil
}

func (f *fakeTwoFactorStore) SetEnabled(_ context.Context, userID uint64, enabled bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rows[userID]
	if !ok {
		return sql.ErrNoRows
	}
	r.IsEnabled = enabled
	return nil
}

func (f *fakeTwoFactorStore) SaveBackupCodes(_ context.Context, userID uint64, backupCodeHashes []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rows[userID]
	if !ok {
		return sql.ErrNoRows
	}
	r.BackupCodes = append([]string(nil), backupCodeHashes...)
	return nil
}

type fakeHistoryStore struct {
	mu   sync.Mutex
	rows []model.LoginHistory
}

func newFakeHistoryStore() *fakeHistoryStore { return &fakeHistoryStore{} }

func (f *fakeHistoryStore) Record(_ context.Context, h model.LoginHistory) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	h.ID = uint64(len(f.rows) + 1)
	if h.LoginTime.IsZero() {
		h.LoginTime = time.Now().UTC()
	}
	f.rows = append(f.rows, h)
	return nil
}

func (f *fakeHistoryStore) CloseLatestOpen(_ context.Context, userID uint64, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.rows) - 1; i >= 0; i-- {
		r := &f.rows[i]
		if r.UserID == userID && r.IsSuccessful && r.LogoutTime == nil {
			r.LogoutTime = &at
			return nil
		}
	}
	return nil
}

func (f *fakeHistoryStore) ListByUser(_ context.Context, userID uint64, limit int) ([]model.LoginHistory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if limit <= 0 {
		limit = 50
	}
	var out []model.LoginHistory
	for i := len(f.rows) - 1; i >= 0 && len(out) < limit; i-- {
		if f.rows[i].UserID == userID {
			out = append(out, f.rows[i])
		}
	}
	return out, nil
}

func (f *fakeHistoryStore) all(userID uint64) []model.LoginHistory {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.LoginHistory
	for _, r := range f.rows {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out
}

// fakePublisher records events on a buffered channel so tests can wait
// for detached publishing goroutines without polling.
type fakePublisher struct {
	events chan queue.NotificationEvent
}

func newFakePublisher() *fakePublisher {
	return &fakePublisher{events: make(chan queue.NotificationEvent, 16)}
}

func (f *fakePublisher) PublishNotification(_ context.Context, ev queue.NotificationEvent) error {
	f.events <- ev
	return nil
}

func (f *fakePublisher) wait(t interface {
	Fatalf(format string, args ...interface{})
}, d time.Duration) queue.NotificationEvent {
	select {
	case ev := <-f.events:
		return ev
	case <-time.After(d):
		t.Fatalf("no notification published within %v", d)
		return queue.NotificationEvent{}
	}
}
