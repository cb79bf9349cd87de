package service

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/velorashop/auth-service/internal/audit"
	"github.com/velorashop/auth-service/internal/model"
	"github.com/velorashop/auth-service/internal/repository"
)

// fakeUserStore is an in-memory UserStore tracking the same state the SQL
// repository would.
type fakeUserStore struct {
	mu     sync.Mutex
	users  map[uint64]*model.User
	roles  map[uint64]string // role id -> name, for the join column
	nextID uint64
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{
		users: map[uint64]*model.User{},
		roles: map[uint64]string{1: model.RoleStaff, 2: model.RoleAdmin, 3: model.RoleSuperAdmin},
	}
}

func (f *fakeUserStore) add(u model.User) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := u
	f.users[u.ID] = &cp
}

func (f *fakeUserStore) get(id uint64) model.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.users[id]
}

func (f *fakeUserStore) Create(_ context.Context, email string, name, passwordHash sql.NullString) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			return 0, repository.ErrEmailExists
		}
	}
	f.nextID++
	id := f.nextID + 100
	f.users[id] = &model.User{
		ID: id, Email: email, Name: name, PasswordHash: passwordHash,
		IsActive: true, CreatedAt: time.Now(),
	}
	return id, nil
}

func (f *fakeUserStore) GetByEmail(_ context.Context, email string) (model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			return *u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (f *fakeUserStore) GetByID(_ context.Context, id uint64) (model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return *u, nil
}

func (f *fakeUserStore) ListByRoleName(_ context.Context, roleName string) ([]model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.User
	for _, u := range f.users {
		if u.RoleName.String == roleName && u.IsActive && !u.DeletedAt.Valid {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (f *fakeUserStore) RecordLoginFailure(_ context.Context, id uint64, attempts int, lockedUntil sql.NullTime) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := f.users[id]
	u.FailedLoginAttempts = attempts
	u.LockedUntil = lockedUntil
	return nil
}

func (f *fakeUserStore) RecordLoginSuccess(_ context.Context, id uint64, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := f.users[id]
	u.FailedLoginAttempts = 0
	u.LockedUntil = sql.NullTime{}
	u.LastLoginAt = sql.NullTime{Time: at, Valid: true}
	return nil
}

func (f *fakeUserStore) Unlock(_ context.Context, id uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := f.users[id]
	u.FailedLoginAttempts = 0
	u.LockedUntil = sql.NullTime{}
	return nil
}

func (f *fakeUserStore) SetRole(_ context.Context, id uint64, roleID uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := f.users[id]
	u.RoleID = sql.NullInt64{Int64: int64(roleID), Valid: true}
	u.RoleName = sql.NullString{String: f.roles[roleID], Valid: true}
	u.TokenVersion++
	return nil
}

func (f *fakeUserStore) SetActive(_ context.Context, id uint64, active bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := f.users[id]
	u.IsActive = active
	if !active {
		u.TokenVersion++
	}
	return nil
}

func (f *fakeUserStore) SetPassword(_ context.Context, id uint64, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := f.users[id]
	u.PasswordHash = sql.NullString{String: hash, Valid: true}
	u.PasswordChangedAt = sql.NullTime{Time: time.Now(), Valid: true}
	u.TokenVersion++
	return nil
}

func (f *fakeUserStore) SoftDelete(_ context.Context, id uint64, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := f.users[id]
	u.DeletedAt = sql.NullTime{Time: at, Valid: true}
	u.IsActive = false
	u.TokenVersion++
	return nil
}

func (f *fakeUserStore) Restore(_ context.Context, id uint64, roleID sql.NullInt64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := f.users[id]
	u.DeletedAt = sql.NullTime{}
	u.IsActive = true
	u.RoleID = roleID
	if roleID.Valid {
		u.RoleName = sql.NullString{String: f.roles[uint64(roleID.Int64)], Valid: true}
	} else {
		u.RoleName = sql.NullString{}
	}
	u.TokenVersion++
	return nil
}

type fakeToken struct {
	userID    uint64
	expiresAt time.Time
	revoked   bool
}

// fakeTokenStore is an in-memory TokenStore keyed by token hash.
type fakeTokenStore struct {
	mu     sync.Mutex
	tokens map[string]*fakeToken
	users  *fakeUserStore
}

func newFakeTokenStore(users *fakeUserStore) *fakeTokenStore {
	return &fakeTokenStore{tokens: map[string]*fakeToken{}, users: users}
}

func (f *fakeTokenStore) active(userID uint64) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, t := range f.tokens {
		if t.userID == userID && !t.revoked {
			n++
		}
	}
	return n
}

func (f *fakeTokenStore) Store(_ context.Context, userID uint64, tokenHash string, expiresAt time.Time, _, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens[tokenHash] = &fakeToken{userID: userID, expiresAt: expiresAt}
	return nil
}

func (f *fakeTokenStore) FindActive(ctx context.Context, tokenHash string) (model.RefreshToken, model.User, error) {
	f.mu.Lock()
	t, ok := f.tokens[tokenHash]
	f.mu.Unlock()
	if !ok || t.revoked || !t.expiresAt.After(time.Now()) {
		return model.RefreshToken{}, model.User{}, repository.ErrNotFound
	}
	user, err := f.users.GetByID(ctx, t.userID)
	if err != nil {
		return model.RefreshToken{}, model.User{}, err
	}
	return model.RefreshToken{UserID: t.userID, TokenHash: tokenHash, ExpiresAt: t.expiresAt}, user, nil
}

func (f *fakeTokenStore) Revoke(_ context.Context, tokenHash string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tokens[tokenHash]
	if !ok || t.revoked {
		return false, nil
	}
	t.revoked = true
	return true, nil
}

func (f *fakeTokenStore) RevokeAllForUser(_ context.Context, userID uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.tokens {
		if t.userID == userID {
			t.revoked = true
		}
	}
	return nil
}

// fakeRoleStore resolves the three seeded roles.
type fakeRoleStore struct{}

func (fakeRoleStore) GetByName(_ context.Context, name string) (model.Role, error) {
	switch name {
	case model.RoleStaff:
		return model.Role{ID: 1, Name: model.RoleStaff}, nil
	case model.RoleAdmin:
		return model.Role{ID: 2, Name: model.RoleAdmin}, nil
	case model.RoleSuperAdmin:
		return model.Role{ID: 3, Name: model.RoleSuperAdmin}, nil
	}
	return model.Role{}, repository.ErrNotFound
}

// fakeSetupStore is an in-memory SetupTokenStore.
type fakeSetupStore struct {
	mu     sync.Mutex
	tokens []model.PasswordSetupToken
	nextID uint64
}

func (f *fakeSetupStore) Create(_ context.Context, userID uint64, tokenHash, purpose string, expiresAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.tokens = append(f.tokens, model.PasswordSetupToken{
		ID: f.nextID, UserID: userID, TokenHash: tokenHash, Purpose: purpose, ExpiresAt: expiresAt,
	})
	return nil
}

func (f *fakeSetupStore) ListLive(_ context.Context, purpose string, now time.Time) ([]model.PasswordSetupToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.PasswordSetupToken
	for _, t := range f.tokens {
		if t.Purpose == purpose && t.Live(now) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeSetupStore) MarkUsed(_ context.Context, id uint64, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.tokens {
		if f.tokens[i].ID == id {
			f.tokens[i].UsedAt = sql.NullTime{Time: at, Valid: true}
		}
	}
	return nil
}

func testNullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: true}
}

// memAuditStore captures audit entries for assertions.
type memAuditStore struct {
	mu      sync.Mutex
	entries []audit.Entry
}

func (m *memAuditStore) Insert(_ context.Context, e audit.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
	return nil
}

func (m *memAuditStore) actions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, e.Action)
	}
	return out
}

func (m *memAuditStore) last() audit.Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entries[len(m.entries)-1]
}

func (m *memAuditStore) find(action string) (audit.Entry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.entries {
		if e.Action == action {
			return e, true
		}
	}
	return audit.Entry{}, false
}
