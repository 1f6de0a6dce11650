package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/purushothaman-web/ThiraiView-sub000/internal/domain/model"
	"github.com/purushothaman-web/ThiraiView-sub000/internal/infra/token"
	"github.com/purushothaman-web/ThiraiView-sub000/internal/repository"
	"github.com/purushothaman-web/ThiraiView-sub000/internal/repository/repofake"
)

// =====================
// UserRepository モック（DBエラー用）
// =====================

type MockUserRepo struct {
	mock.Mock
}

func (m *MockUserRepo) Create(ctx context.Context, user *model.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *MockUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *MockUserRepo) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	args := m.Called(ctx, username)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *MockUserRepo) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	return m.Called(ctx, id, at).Error(0)
}

var _ repository.UserRepository = (*MockUserRepo)(nil)

// =====================
// helper
// =====================

type okResponse struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	Anon   bool   `json:"anon"`
}

func newCodec(t *testing.T) *token.Codec {
	t.Helper()
	c, err := token.NewCodec("mw-access", "mw-refresh")
	require.NoError(t, err)
	return c
}

func accessToken(t *testing.T, c *token.Codec, userID string, role model.Role) string {
	t.Helper()
	s, _, err := c.IssueAccessToken(token.AccessClaims{UserID: userID, Role: string(role)}, time.Hour)
	require.NoError(t, err)
	return s
}

func okHandler(c echo.Context) error {
	claims, ok := ClaimsFrom(c)
	if !ok {
		return c.JSON(http.StatusOK, okResponse{Anon: true})
	}
	return c.JSON(http.StatusOK, okResponse{UserID: claims.UserID, Role: claims.Role})
}

func serve(e *echo.Echo, bearer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	if bearer != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

// =====================
// AuthJWT
// =====================

func TestAuthJWT_Required(t *testing.T) {
	codec := newCodec(t)
	e := echo.New()
	e.GET("/x", okHandler, AuthJWT(codec, AuthRequired))

	rec := serve(e, accessToken(t, codec, "u1", model.RoleUser))
	assert.Equal(t, http.StatusOK, rec.Code)
	var body okResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "u1", body.UserID)

	rec = serve(e, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, CodeUnauthorized, decodeError(t, rec).Error)

	rec = serve(e, "garbage")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	//リフレッシュ用の鍵で署名されたトークンは通らない
	refresh, _, err := codec.IssueRefreshToken("u1", "jti", time.Hour)
	require.NoError(t, err)
	rec = serve(e, refresh)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthJWT_RequiredRejectsNonBearer(t *testing.T) {
	codec := newCodec(t)
	e := echo.New()
	e.GET("/x", okHandler, AuthJWT(codec, AuthRequired))

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(echo.HeaderAuthorization, "Basic abc")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthJWT_Optional(t *testing.T) {
	codec := newCodec(t)
	e := echo.New()
	e.GET("/x", okHandler, AuthJWT(codec, AuthOptional))

	for _, bearer := range []string{"", "garbage"} {
		rec := serve(e, bearer)
		assert.Equal(t, http.StatusOK, rec.Code)
		var body okResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.True(t, body.Anon)
	}

	rec := serve(e, accessToken(t, codec, "u2", model.RoleModerator))
	var body okResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Anon)
	assert.Equal(t, "MODERATOR", body.Role)
}

// =====================
// RequireRole
// =====================

func TestRequireRole(t *testing.T) {
	codec := newCodec(t)
	e := echo.New()
	e.GET("/admin", okHandler, AuthJWT(codec, AuthRequired), RequireRole(AdminOnly))
	e.GET("/mod", okHandler, AuthJWT(codec, AuthRequired), RequireRole(AdminOrModerator))

	cases := []struct {
		path string
		role model.Role
		want int
	}{
		{"/admin", model.RoleAdmin, http.StatusOK},
		{"/admin", model.RoleModerator, http.StatusForbidden},
		{"/admin", model.RoleUser, http.StatusForbidden},
		{"/mod", model.RoleAdmin, http.StatusOK},
		{"/mod", model.RoleModerator, http.StatusOK},
		{"/mod", model.RoleUser, http.StatusForbidden},
		{"/mod", model.Role("ROOT"), http.StatusForbidden},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, tc.path, nil)
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+accessToken(t, codec, "u1", tc.role))
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		assert.Equal(t, tc.want, rec.Code, "%s as %s", tc.path, tc.role)
	}
}

func TestRequireRole_WithoutIdentity(t *testing.T) {
	e := echo.New()
	e.GET("/x", okHandler, RequireRole(AdminOnly))

	rec := serve(e, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// =====================
// RoleFreshnessGuard
// =====================

func TestRoleFreshnessGuard(t *testing.T) {
	codec := newCodec(t)
	users := repofake.NewFakeUserRepo()
	admin := &model.User{Email: "a@example.com", Username: "a", Role: model.RoleAdmin}
	require.NoError(t, users.Create(context.Background(), admin))

	e := echo.New()
	e.GET("/x", okHandler, AuthJWT(codec, AuthRequired), RoleFreshnessGuard(users))

	rec := serve(e, accessToken(t, codec, admin.ID, model.RoleAdmin))
	assert.Equal(t, http.StatusOK, rec.Code)

	//降格後の古いトークン
	users.Update(func(u *model.User) { u.Role = model.RoleUser }, admin.ID)
	rec = serve(e, accessToken(t, codec, admin.ID, model.RoleAdmin))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	//ブロック済み
	users.Update(func(u *model.User) { u.IsBlocked = true }, admin.ID)
	rec = serve(e, accessToken(t, codec, admin.ID, model.RoleUser))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	//存在しないユーザー
	rec = serve(e, accessToken(t, codec, "missing", model.RoleAdmin))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRoleFreshnessGuard_StorageError(t *testing.T) {
	codec := newCodec(t)
	users := new(MockUserRepo)
	users.On("FindByID", mock.Anything, "u1").Return(nil, assert.AnError)

	e := echo.New()
	e.GET("/x", okHandler, AuthJWT(codec, AuthRequired), RoleFreshnessGuard(users))

	rec := serve(e, accessToken(t, codec, "u1", model.RoleAdmin))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, CodeInternal, decodeError(t, rec).Error)
	users.AssertExpectations(t)
}
