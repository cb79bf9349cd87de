package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/velorashop/auth-service/internal/audit"
	"github.com/velorashop/auth-service/internal/auth"
	"github.com/velorashop/auth-service/internal/mailer"
	"github.com/velorashop/auth-service/internal/model"
)

type sentMail struct {
	to      string
	subject string
	body    string
}

// captureSender records outgoing mail; fail makes every send error.
type captureSender struct {
	mu   sync.Mutex
	sent []sentMail
	fail bool
}

func (s *captureSender) Send(_ context.Context, to, subject, body string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errors.New("smtp unreachable")
	}
	s.sent = append(s.sent, sentMail{to: to, subject: subject, body: body})
	return nil
}

func (s *captureSender) all() []sentMail {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sentMail(nil), s.sent...)
}

type adminFixture struct {
	svc    *AdminService
	users  *fakeUserStore
	tokens *fakeTokenStore
	setups *fakeSetupStore
	sender *captureSender
	audit  *memAuditStore
}

func newAdminFixture(t *testing.T) *adminFixture {
	t.Helper()
	users := newFakeUserStore()
	tokens := newFakeTokenStore(users)
	setups := &fakeSetupStore{}
	auditStore := &memAuditStore{}
	sender := &captureSender{}
	mail := mailer.New(sender, "https://shop.example.com", "Velora")
	sink := audit.NewSink(auditStore, nil, zerolog.Nop())

	svc := NewAdminService(users, tokens, fakeRoleStore{}, setups, mail, sink, bcrypt.MinCost, zerolog.Nop())
	svc.now = func() time.Time { return testNow }
	return &adminFixture{svc: svc, users: users, tokens: tokens, setups: setups, sender: sender, audit: auditStore}
}

func (f *adminFixture) actor(id uint64) model.Actor {
	return model.ActorFromUser(f.users.get(id))
}

func TestPromoteRoleGrantsAndRevokesSessions(t *testing.T) {
	f := newAdminFixture(t)
	seedUser(t, f.users, 1, "root@example.com", "pw-of-the-root1", model.RoleSuperAdmin)
	seedUser(t, f.users, 2, "clerk@example.com", "pw-of-the-clerk", "")
	require.NoError(t, f.tokens.Store(context.Background(), 2, "hash-live-session", testNow.Add(time.Hour), "", ""))

	before := f.users.get(2).TokenVersion

	result, err := f.svc.PromoteRole(context.Background(), f.actor(1), 2, model.RoleStaff, audit.RequestMeta{})
	require.NoError(t, err)
	require.False(t, result.RequiresPasswordSetup)
	require.NotNil(t, result.User.RoleName)
	require.Equal(t, model.RoleStaff, *result.User.RoleName)

	after := f.users.get(2)
	require.Greater(t, after.TokenVersion, before, "role change fences outstanding access tokens")
	require.Zero(t, f.tokens.active(2), "role change revokes refresh sessions")

	entry, ok := f.audit.find("UPDATE_USER_ROLE")
	require.True(t, ok)
	require.Equal(t, audit.SeverityInfo, entry.Severity)
}

func TestPromoteRoleGuardRejections(t *testing.T) {
	f := newAdminFixture(t)
	seedUser(t, f.users, 1, "root@example.com", "pw-of-the-root1", model.RoleSuperAdmin)
	seedUser(t, f.users, 2, "admin@example.com", "pw-of-the-admin", model.RoleAdmin)
	seedUser(t, f.users, 3, "clerk@example.com", "pw-of-the-clerk", "")
	seedUser(t, f.users, 4, "root2@example.com", "pw-of-the-root2", model.RoleSuperAdmin)

	ctx := context.Background()

	// Self-promotion.
	_, err := f.svc.PromoteRole(ctx, f.actor(2), 2, model.RoleSuperAdmin, audit.RequestMeta{})
	require.ErrorIs(t, err, auth.ErrSelfMutation)

	// Admin granting an admin tier.
	_, err = f.svc.PromoteRole(ctx, f.actor(2), 3, model.RoleAdmin, audit.RequestMeta{})
	require.ErrorIs(t, err, auth.ErrEscalationDenied)

	// Super admin target is immutable, even to a peer.
	_, err = f.svc.PromoteRole(ctx, f.actor(1), 4, model.RoleAdmin, audit.RequestMeta{})
	require.ErrorIs(t, err, auth.ErrSuperImmutable)

	// Duplicate grant.
	_, err = f.svc.PromoteRole(ctx, f.actor(1), 2, model.RoleAdmin, audit.RequestMeta{})
	require.ErrorIs(t, err, auth.ErrSameRole)

	// Unknown role and unknown target.
	_, err = f.svc.PromoteRole(ctx, f.actor(1), 3, "WAREHOUSE_ELF", audit.RequestMeta{})
	require.ErrorIs(t, err, ErrRoleNotFound)
	_, err = f.svc.PromoteRole(ctx, f.actor(1), 99, model.RoleStaff, audit.RequestMeta{})
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestPromotePasswordlessAdminIssuesSetupToken(t *testing.T) {
	f := newAdminFixture(t)
	seedUser(t, f.users, 1, "root@example.com", "pw-of-the-root1", model.RoleSuperAdmin)
	seedUser(t, f.users, 2, "social@example.com", "", "")

	result, err := f.svc.PromoteRole(context.Background(), f.actor(1), 2, model.RoleAdmin, audit.RequestMeta{})
	require.NoError(t, err)
	require.True(t, result.RequiresPasswordSetup)

	// A live bcrypt-hashed token exists for the target.
	live, err := f.setups.ListLive(context.Background(), model.PurposeAdminPasswordSetup, testNow)
	require.NoError(t, err)
	require.Len(t, live, 1)
	require.Equal(t, uint64(2), live[0].UserID)
	require.Equal(t, testNow.Add(SetupTokenTTL), live[0].ExpiresAt)

	// The setup link went to the target, carrying the raw token.
	mails := f.sender.all()
	require.Len(t, mails, 1)
	require.Equal(t, "social@example.com", mails[0].to)
	require.Contains(t, mails[0].body, "/set-admin-password/")

	_, ok := f.audit.find("ADMIN_PASSWORD_SETUP_ISSUED")
	require.True(t, ok)

	// The grant itself is critical: it touches an admin tier.
	entry, ok := f.audit.find("UPDATE_USER_ROLE")
	require.True(t, ok)
	require.Equal(t, audit.SeverityCritical, entry.Severity)
}

func TestPromoteAdminWithPasswordSkipsSetup(t *testing.T) {
	f := newAdminFixture(t)
	seedUser(t, f.users, 1, "root@example.com", "pw-of-the-root1", model.RoleSuperAdmin)
	seedUser(t, f.users, 2, "clerk@example.com", "pw-of-the-clerk", "")

	result, err := f.svc.PromoteRole(context.Background(), f.actor(1), 2, model.RoleAdmin, audit.RequestMeta{})
	require.NoError(t, err)
	require.False(t, result.RequiresPasswordSetup)
	require.Empty(t, f.sender.all())
}

func TestPromoteToSuperAdminNotifiesPeers(t *testing.T) {
	f := newAdminFixture(t)
	seedUser(t, f.users, 1, "root@example.com", "pw-of-the-root1", model.RoleSuperAdmin)
	seedUser(t, f.users, 2, "root2@example.com", "pw-of-the-root2", model.RoleSuperAdmin)
	seedUser(t, f.users, 3, "clerk@example.com", "pw-of-the-clerk", "")

	_, err := f.svc.PromoteRole(context.Background(), f.actor(1), 3, model.RoleSuperAdmin, audit.RequestMeta{IPAddress: "10.0.0.9"})
	require.NoError(t, err)

	mails := f.sender.all()
	require.Len(t, mails, 2, "every existing super admin is notified")
	recipients := []string{mails[0].to, mails[1].to}
	require.ElementsMatch(t, []string{"root@example.com", "root2@example.com"}, recipients)
	require.True(t, strings.Contains(mails[0].body, "clerk@example.com"))
	require.True(t, strings.Contains(mails[0].body, "10.0.0.9"))
}

func TestPromoteToSuperAdminNoticeFailureIsCritical(t *testing.T) {
	f := newAdminFixture(t)
	f.sender.fail = true
	seedUser(t, f.users, 1, "root@example.com", "pw-of-the-root1", model.RoleSuperAdmin)
	seedUser(t, f.users, 2, "clerk@example.com", "pw-of-the-clerk", "")

	// Delivery failure must not abort the grant.
	result, err := f.svc.PromoteRole(context.Background(), f.actor(1), 2, model.RoleSuperAdmin, audit.RequestMeta{})
	require.NoError(t, err)
	require.NotNil(t, result.User.RoleName)
	require.Equal(t, model.RoleSuperAdmin, *result.User.RoleName)

	entry, ok := f.audit.find("SUPER_ADMIN_NOTICE_FAILED")
	require.True(t, ok)
	require.Equal(t, audit.SeverityCritical, entry.Severity)
}

func TestSetStatusDeactivateRevokesSessions(t *testing.T) {
	f := newAdminFixture(t)
	seedUser(t, f.users, 1, "admin@example.com", "pw-of-the-admin", model.RoleAdmin)
	seedUser(t, f.users, 2, "clerk@example.com", "pw-of-the-clerk", model.RoleStaff)
	require.NoError(t, f.tokens.Store(context.Background(), 2, "hash-live-session", testNow.Add(time.Hour), "", ""))

	user, err := f.svc.SetStatus(context.Background(), f.actor(1), 2, false, audit.RequestMeta{})
	require.NoError(t, err)
	require.False(t, user.IsActive)
	require.Zero(t, f.tokens.active(2))

	entry, ok := f.audit.find("DEACTIVATE_USER")
	require.True(t, ok)
	require.Equal(t, audit.SeverityWarning, entry.Severity)

	// Reactivation keeps sessions untouched (there are none to restore).
	user, err = f.svc.SetStatus(context.Background(), f.actor(1), 2, true, audit.RequestMeta{})
	require.NoError(t, err)
	require.True(t, user.IsActive)
	_, ok = f.audit.find("ACTIVATE_USER")
	require.True(t, ok)
}

func TestUnlockClearsLockout(t *testing.T) {
	f := newAdminFixture(t)
	seedUser(t, f.users, 1, "admin@example.com", "pw-of-the-admin", model.RoleAdmin)
	seedUser(t, f.users, 2, "clerk@example.com", "pw-of-the-clerk", "")
	f.users.add(func() model.User {
		u := f.users.get(2)
		u.FailedLoginAttempts = auth.LockoutThreshold
		u.LockedUntil = testNullTime(testNow.Add(10 * time.Minute))
		return u
	}())

	require.NoError(t, f.svc.Unlock(context.Background(), f.actor(1), 2, audit.RequestMeta{}))

	after := f.users.get(2)
	require.Zero(t, after.FailedLoginAttempts)
	require.False(t, after.LockedUntil.Valid)

	_, ok := f.audit.find("UNLOCK_USER_ACCOUNT")
	require.True(t, ok)

	// A second unlock has nothing to clear.
	require.ErrorIs(t, f.svc.Unlock(context.Background(), f.actor(1), 2, audit.RequestMeta{}), ErrNotLocked)
}

func TestSoftDeleteAndRestore(t *testing.T) {
	f := newAdminFixture(t)
	seedUser(t, f.users, 1, "root@example.com", "pw-of-the-root1", model.RoleSuperAdmin)
	seedUser(t, f.users, 2, "clerk@example.com", "pw-of-the-clerk", model.RoleStaff)
	require.NoError(t, f.tokens.Store(context.Background(), 2, "hash-live-session", testNow.Add(time.Hour), "", ""))

	require.NoError(t, f.svc.SoftDelete(context.Background(), f.actor(1), 2, audit.RequestMeta{}))

	deleted := f.users.get(2)
	require.True(t, deleted.Deleted())
	require.False(t, deleted.IsActive)
	require.Zero(t, f.tokens.active(2))

	entry, ok := f.audit.find("DELETE_USER")
	require.True(t, ok)
	require.Equal(t, audit.SeverityCritical, entry.Severity)

	// Deleting again reads as not found.
	require.ErrorIs(t, f.svc.SoftDelete(context.Background(), f.actor(1), 2, audit.RequestMeta{}), ErrUserNotFound)

	// Restore without a role lands at the base tier.
	result, err := f.svc.Restore(context.Background(), f.actor(1), 2, "", audit.RequestMeta{})
	require.NoError(t, err)
	require.Nil(t, result.User.RoleName)
	require.True(t, result.User.IsActive)
	require.False(t, f.users.get(2).Deleted())

	// Restoring a live account is a conflict.
	_, err = f.svc.Restore(context.Background(), f.actor(1), 2, "", audit.RequestMeta{})
	require.ErrorIs(t, err, ErrNotDeleted)
}

func TestRestoreWithAdminRoleRunsPromotionSideEffects(t *testing.T) {
	f := newAdminFixture(t)
	seedUser(t, f.users, 1, "root@example.com", "pw-of-the-root1", model.RoleSuperAdmin)
	seedUser(t, f.users, 2, "social@example.com", "", "")
	require.NoError(t, f.svc.SoftDelete(context.Background(), f.actor(1), 2, audit.RequestMeta{}))

	result, err := f.svc.Restore(context.Background(), f.actor(1), 2, model.RoleAdmin, audit.RequestMeta{})
	require.NoError(t, err)
	require.True(t, result.RequiresPasswordSetup)
	require.NotNil(t, result.User.RoleName)
	require.Equal(t, model.RoleAdmin, *result.User.RoleName)

	live, err := f.setups.ListLive(context.Background(), model.PurposeAdminPasswordSetup, testNow)
	require.NoError(t, err)
	require.Len(t, live, 1)

	_, ok := f.audit.find("RESTORE_USER")
	require.True(t, ok)
}

func TestRestoreWithAdminRoleRequiresSuperActor(t *testing.T) {
	f := newAdminFixture(t)
	seedUser(t, f.users, 1, "root@example.com", "pw-of-the-root1", model.RoleSuperAdmin)
	seedUser(t, f.users, 2, "admin@example.com", "pw-of-the-admin", model.RoleAdmin)
	seedUser(t, f.users, 3, "clerk@example.com", "pw-of-the-clerk", "")
	require.NoError(t, f.svc.SoftDelete(context.Background(), f.actor(1), 3, audit.RequestMeta{}))

	_, err := f.svc.Restore(context.Background(), f.actor(2), 3, model.RoleAdmin, audit.RequestMeta{})
	require.ErrorIs(t, err, auth.ErrEscalationDenied)
}
