package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/purushothaman-web/ThiraiView-sub000/internal/domain/model"
	"github.com/purushothaman-web/ThiraiView-sub000/internal/infra/token"
	"github.com/purushothaman-web/ThiraiView-sub000/internal/repository"
	"github.com/purushothaman-web/ThiraiView-sub000/internal/repository/repofake"
)

const testPassword = "CorrectHorse42"

type testEnv struct {
	svc    *SessionService
	users  *repofake.FakeUserRepo
	ledger *repofake.FakeRefreshTokenRepo
	audit  *repofake.FakeAuditLogRepo
	codec  *token.Codec
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	codec, err := token.NewCodec("test-access-secret", "test-refresh-secret")
	require.NoError(t, err)

	env := &testEnv{
		users:  repofake.NewFakeUserRepo(),
		ledger: repofake.NewFakeRefreshTokenRepo(),
		audit:  repofake.NewFakeAuditLogRepo(),
		codec:  codec,
	}
	env.svc = NewSessionService(SessionDeps{
		Users:      env.users,
		Ledger:     env.ledger,
		AuditLogs:  env.audit,
		Tx:         repofake.NewFakeTxManager(env.ledger, env.audit),
		Verifier:   NewBcryptPasswordVerifier(),
		Codec:      codec,
		Logger:     zerolog.Nop(),
		AccessTTL:  time.Hour,
		RefreshTTL: 24 * time.Hour,
	})
	return env
}

// テスト用ユーザー。bcryptはテスト時間のため最小コスト。
func (e *testEnv) seedUser(t *testing.T, role model.Role, mutate ...func(u *model.User)) *model.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)

	id := uuid.NewString()
	u := &model.User{
		ID:           id,
		Email:        "user-" + id[:8] + "@example.com",
		Username:     "user" + id[:8],
		PasswordHash: string(hash),
		Role:         role,
		IsVerified:   true,
	}
	for _, m := range mutate {
		m(u)
	}
	require.NoError(t, e.users.Create(context.Background(), u))
	return u
}

func (e *testEnv) login(t *testing.T, u *model.User) LoginOutput {
	t.Helper()
	out, err := e.svc.Login(context.Background(), LoginInput{
		Identifier: u.Email,
		Password:   testPassword,
		ClientMeta: ClientMeta{UserAgent: "test-agent", IP: "127.0.0.1"},
	})
	require.NoError(t, err)
	return out
}

func (e *testEnv) recordFor(t *testing.T, refreshToken string) model.RefreshToken {
	t.Helper()
	claims, err := e.codec.VerifyRefreshToken(refreshToken)
	require.NoError(t, err)
	rec, err := e.ledger.FindByJTI(context.Background(), claims.ID)
	require.NoError(t, err)
	return *rec
}

func (e *testEnv) activeCount(userID string) int {
	n := 0
	for _, r := range e.ledger.All() {
		if r.UserID == userID && !r.IsRevoked {
			n++
		}
	}
	return n
}

// =====================
// Login
// =====================

func TestLogin_Success(t *testing.T) {
	env := newTestEnv(t)
	u := env.seedUser(t, model.RoleUser)

	out := env.login(t, u)

	claims, err := env.codec.VerifyAccessToken(out.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UserID)
	assert.Equal(t, u.Email, claims.Email)
	assert.Equal(t, u.Username, claims.Username)
	assert.Equal(t, "USER", claims.Role)
	assert.False(t, claims.IsSuperuser)

	assert.Equal(t, u.ID, out.User.ID)
	assert.NotNil(t, out.User.LastLoginAt)

	//台帳にはハッシュだけが保存される
	rec := env.recordFor(t, out.RefreshToken)
	assert.Equal(t, hashRefreshToken(out.RefreshToken), rec.TokenHash)
	assert.NotEqual(t, out.RefreshToken, rec.TokenHash)
	assert.False(t, rec.IsRevoked)
	assert.Equal(t, "test-agent", rec.UserAgent)
	assert.True(t, rec.ExpiresAt.Equal(out.RefreshExpiresAt))
	assert.Len(t, rec.ID, 26)

	action := model.AuditActionLogin
	logs, err := env.audit.List(context.Background(), repository.AuditLogFilter{Action: &action})
	require.NoError(t, err)
	assert.Len(t, logs, 1)
}

func TestLogin_ByUsername(t *testing.T) {
	env := newTestEnv(t)
	u := env.seedUser(t, model.RoleUser)

	out, err := env.svc.Login(context.Background(), LoginInput{Identifier: u.Username, Password: testPassword})
	require.NoError(t, err)
	assert.Equal(t, u.ID, out.User.ID)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	env := newTestEnv(t)
	u := env.seedUser(t, model.RoleUser)

	_, err := env.svc.Login(context.Background(), LoginInput{Identifier: u.Email, Password: "wrong-password"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = env.svc.Login(context.Background(), LoginInput{Identifier: "nobody@example.com", Password: testPassword})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = env.svc.Login(context.Background(), LoginInput{Identifier: "  ", Password: testPassword})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	// refresh token は作られない
	assert.Empty(t, env.ledger.All())
}

func TestLogin_BlockedAndUnverified(t *testing.T) {
	env := newTestEnv(t)

	blocked := env.seedUser(t, model.RoleUser, func(u *model.User) { u.IsBlocked = true })
	_, err := env.svc.Login(context.Background(), LoginInput{Identifier: blocked.Email, Password: testPassword})
	assert.ErrorIs(t, err, ErrAccountBlocked)

	unverified := env.seedUser(t, model.RoleModerator, func(u *model.User) { u.IsVerified = false })
	_, err = env.svc.Login(context.Background(), LoginInput{Identifier: unverified.Email, Password: testPassword})
	assert.ErrorIs(t, err, ErrAccountUnverified)

	// 未確認でもパスワード違いは InvalidCredentials
	_, err = env.svc.Login(context.Background(), LoginInput{Identifier: unverified.Email, Password: "nope-nope"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	assert.Empty(t, env.ledger.All())
}

func TestLogin_AdminBypassesBlockAndVerification(t *testing.T) {
	env := newTestEnv(t)
	admin := env.seedUser(t, model.RoleAdmin, func(u *model.User) {
		u.IsBlocked = true
		u.IsVerified = false
	})

	out := env.login(t, admin)

	claims, err := env.codec.VerifyAccessToken(out.AccessToken)
	require.NoError(t, err)
	assert.True(t, claims.IsSuperuser)
	assert.Equal(t, "ADMIN", claims.Role)
}

// =====================
// Refresh
// =====================

// ローテーション後に旧トークンを再提示すると全失効
func TestRefresh_RotationThenReuseRevokesAll(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.seedUser(t, model.RoleUser)

	first := env.login(t, u)
	firstRec := env.recordFor(t, first.RefreshToken)

	second, err := env.svc.Refresh(ctx, first.RefreshToken, ClientMeta{})
	require.NoError(t, err)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)
	secondRec := env.recordFor(t, second.RefreshToken)

	old, err := env.ledger.FindByJTI(ctx, firstRec.JTI)
	require.NoError(t, err)
	assert.True(t, old.IsRevoked)
	require.NotNil(t, old.ReplacedByJTI)
	assert.Equal(t, secondRec.JTI, *old.ReplacedByJTI)

	//旧トークンの再利用
	_, err = env.svc.Refresh(ctx, first.RefreshToken, ClientMeta{})
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
	assert.Equal(t, 0, env.activeCount(u.ID))

	//正規の新トークンも使えなくなる
	_, err = env.svc.Refresh(ctx, second.RefreshToken, ClientMeta{})
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)

	action := model.AuditActionRefreshReuse
	logs, err := env.audit.List(ctx, repository.AuditLogFilter{Action: &action})
	require.NoError(t, err)
	assert.NotEmpty(t, logs)
}

// 連続したローテーション
func TestRefresh_ChainOfRotations(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.seedUser(t, model.RoleModerator)

	out := env.login(t, u)
	current := out.RefreshToken
	seenAccess := map[string]bool{out.AccessToken: true}

	for i := 0; i < 3; i++ {
		next, err := env.svc.Refresh(ctx, current, ClientMeta{})
		require.NoError(t, err)
		assert.False(t, seenAccess[next.AccessToken])
		seenAccess[next.AccessToken] = true

		claims, err := env.codec.VerifyAccessToken(next.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, "MODERATOR", claims.Role)

		current = next.RefreshToken
	}

	//有効なのは最後の1件だけ
	assert.Equal(t, 1, env.activeCount(u.ID))
	assert.Len(t, env.ledger.All(), 4)
}

// 同じトークンで同時にリフレッシュすると成功は1つだけ
func TestRefresh_ConcurrentUseHasSingleWinner(t *testing.T) {
	env := newTestEnv(t)
	u := env.seedUser(t, model.RoleUser)
	out := env.login(t, u)

	const n = 6
	results := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = env.svc.Refresh(context.Background(), out.RefreshToken, ClientMeta{})
		}(i)
	}
	wg.Wait()

	success := 0
	for _, err := range results {
		if err == nil {
			success++
			continue
		}
		assert.ErrorIs(t, err, ErrInvalidRefreshToken)
	}
	assert.Equal(t, 1, success)
}

// 台帳のハッシュと一致しない
func TestRefresh_HashMismatchRevokesAll(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.seedUser(t, model.RoleUser)

	out := env.login(t, u)
	other := env.login(t, u)
	rec := env.recordFor(t, out.RefreshToken)

	env.ledger.Mutate(rec.JTI, func(r *model.RefreshToken) { r.TokenHash = hashRefreshToken("something-else") })

	_, err := env.svc.Refresh(ctx, out.RefreshToken, ClientMeta{})
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
	assert.Equal(t, 0, env.activeCount(u.ID))

	_, err = env.svc.Refresh(ctx, other.RefreshToken, ClientMeta{})
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestRefresh_MissingToken(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.Refresh(context.Background(), "", ClientMeta{})
	assert.ErrorIs(t, err, ErrMissingRefreshToken)
}

// 署名が不正なら台帳には触らない
func TestRefresh_BadSignatureDoesNotTouchLedger(t *testing.T) {
	env := newTestEnv(t)
	u := env.seedUser(t, model.RoleUser)
	env.login(t, u)

	forger, err := token.NewCodec("forged-access", "forged-refresh")
	require.NoError(t, err)
	forged, _, err := forger.IssueRefreshToken(u.ID, uuid.NewString(), time.Hour)
	require.NoError(t, err)

	_, err = env.svc.Refresh(context.Background(), forged, ClientMeta{})
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
	assert.Equal(t, 1, env.activeCount(u.ID))

	_, err = env.svc.Refresh(context.Background(), "not-a-jwt", ClientMeta{})
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
	assert.Equal(t, 1, env.activeCount(u.ID))
}

// 正しい署名だが台帳に無いjti
func TestRefresh_UnknownJTIRevokesAll(t *testing.T) {
	env := newTestEnv(t)
	u := env.seedUser(t, model.RoleUser)
	env.login(t, u)

	stray, _, err := env.codec.IssueRefreshToken(u.ID, uuid.NewString(), time.Hour)
	require.NoError(t, err)

	_, err = env.svc.Refresh(context.Background(), stray, ClientMeta{})
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
	assert.Equal(t, 0, env.activeCount(u.ID))
}

func TestRefresh_ExpiredRecord(t *testing.T) {
	env := newTestEnv(t)
	u := env.seedUser(t, model.RoleUser)
	out := env.login(t, u)
	rec := env.recordFor(t, out.RefreshToken)

	env.ledger.Mutate(rec.JTI, func(r *model.RefreshToken) { r.ExpiresAt = time.Now().Add(-time.Minute) })

	_, err := env.svc.Refresh(context.Background(), out.RefreshToken, ClientMeta{})
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
	assert.Equal(t, 0, env.activeCount(u.ID))
}

// 全失効に失敗しても結果は InvalidRefreshToken のまま
func TestRefresh_RevokeAllFailureDoesNotMaskResult(t *testing.T) {
	env := newTestEnv(t)
	u := env.seedUser(t, model.RoleUser)
	out := env.login(t, u)
	_, err := env.svc.Refresh(context.Background(), out.RefreshToken, ClientMeta{})
	require.NoError(t, err)

	env.ledger.RevokeAllErr = assert.AnError
	_, err = env.svc.Refresh(context.Background(), out.RefreshToken, ClientMeta{})
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
	assert.NotErrorIs(t, err, assert.AnError)
}

func TestRefresh_BlockedUserCannotRefresh(t *testing.T) {
	env := newTestEnv(t)
	u := env.seedUser(t, model.RoleUser)
	out := env.login(t, u)

	env.users.Update(func(u *model.User) { u.IsBlocked = true }, u.ID)

	_, err := env.svc.Refresh(context.Background(), out.RefreshToken, ClientMeta{})
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}

// =====================
// Logout
// =====================

func TestLogout_RevokesPresentedToken(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.seedUser(t, model.RoleUser)

	keep := env.login(t, u)
	out := env.login(t, u)

	res := env.svc.Logout(ctx, out.RefreshToken, ClientMeta{})
	assert.Equal(t, LogoutMessage, res.Message)

	rec := env.recordFor(t, out.RefreshToken)
	assert.True(t, rec.IsRevoked)
	require.NotNil(t, rec.RevocationReason)
	assert.Equal(t, model.RevocationLogout, *rec.RevocationReason)

	//他のセッションは残る
	_, err := env.svc.Refresh(ctx, keep.RefreshToken, ClientMeta{})
	assert.NoError(t, err)
}

func TestLogout_NeverFails(t *testing.T) {
	env := newTestEnv(t)

	assert.Equal(t, LogoutMessage, env.svc.Logout(context.Background(), "", ClientMeta{}).Message)
	assert.Equal(t, LogoutMessage, env.svc.Logout(context.Background(), "garbage", ClientMeta{}).Message)
}

func TestLogoutAll(t *testing.T) {
	env := newTestEnv(t)
	u := env.seedUser(t, model.RoleUser)
	env.login(t, u)
	env.login(t, u)

	n, err := env.svc.LogoutAll(context.Background(), u.ID, ClientMeta{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Equal(t, 0, env.activeCount(u.ID))
}

// =====================
// 管理者向け
// =====================

func TestRevokeUserSessions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.seedUser(t, model.RoleAdmin)
	target := env.seedUser(t, model.RoleUser)
	env.login(t, target)

	n, err := env.svc.RevokeUserSessions(ctx, admin.ID, target.ID, ClientMeta{IP: "10.0.0.1"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, 0, env.activeCount(target.ID))

	action := model.AuditActionAdminRevokeSessions
	logs, err := env.audit.List(ctx, repository.AuditLogFilter{Action: &action})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, admin.ID, logs[0].ActorUserID)
	assert.Equal(t, target.ID, logs[0].ResourceID)

	_, err = env.svc.RevokeUserSessions(ctx, admin.ID, uuid.NewString(), ClientMeta{})
	assert.ErrorIs(t, err, repository.ErrUserNotFound)
}

func TestListUserSessions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.seedUser(t, model.RoleUser)
	out := env.login(t, u)
	_, err := env.svc.Refresh(ctx, out.RefreshToken, ClientMeta{UserAgent: "second"})
	require.NoError(t, err)

	views, err := env.svc.ListUserSessions(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, views, 2)

	revoked := 0
	for _, v := range views {
		if v.IsRevoked {
			revoked++
			assert.Equal(t, string(model.RevocationRotation), v.RevocationReason)
			assert.NotNil(t, v.ReplacedByJTI)
		}
	}
	assert.Equal(t, 1, revoked)
}
