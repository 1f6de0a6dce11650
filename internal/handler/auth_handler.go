package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/purushothaman-web/ThiraiView-sub000/internal/domain/model"
	"github.com/purushothaman-web/ThiraiView-sub000/internal/middleware"
	auth "github.com/purushothaman-web/ThiraiView-sub000/internal/usecase/auth_usecase"
	"github.com/purushothaman-web/ThiraiView-sub000/internal/validator"
)

type AuthHandler struct {
	sessions  *auth.SessionService
	verifier  middleware.AccessTokenVerifier
	validator *validator.AuthValidator
	cookies   CookieConfig
	logger    zerolog.Logger
	verbose   bool // 本番以外は詳細なエラーログ
}

// DIコンストラクタ
func NewAuthHandler(
	sessions *auth.SessionService,
	verifier middleware.AccessTokenVerifier,
	v *validator.AuthValidator,
	cookies CookieConfig,
	logger zerolog.Logger,
	verbose bool,
) *AuthHandler {
	return &AuthHandler{
		sessions:  sessions,
		verifier:  verifier,
		validator: v,
		cookies:   cookies,
		logger:    logger,
		verbose:   verbose,
	}
}

func (h *AuthHandler) RegisterRoutes(e *echo.Echo) {
	required := middleware.AuthJWT(h.verifier, middleware.AuthRequired)
	optional := middleware.AuthJWT(h.verifier, middleware.AuthOptional)

	e.POST("/login", h.Login)

	g := e.Group("/auth")
	g.POST("/login", h.Login)
	g.POST("/refresh", h.Refresh)
	g.POST("/logout", h.Logout)
	g.GET("/validate", h.Validate, required)
	g.GET("/session", h.Session, optional)
	g.POST("/logout-all", h.LogoutAll, required)
}

// /login のリクエストボディ。email/username でも受け付ける。
type loginRequest struct {
	Identifier string `json:"identifier"`
	Email      string `json:"email"`
	Username   string `json:"username"`
	Password   string `json:"password"`
}

func (r loginRequest) identifier() string {
	switch {
	case r.Identifier != "":
		return r.Identifier
	case r.Email != "":
		return r.Email
	}
	return r.Username
}

type loginResponse struct {
	AccessToken string           `json:"accessToken"`
	User        model.PublicUser `json:"user"`
}

type accessTokenResponse struct {
	AccessToken string `json:"accessToken"`
}

type claimsUser struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	Username    string `json:"username"`
	Role        string `json:"role"`
	IsSuperuser bool   `json:"isSuperuser"`
}

type validateResponse struct {
	User claimsUser `json:"user"`
}

type sessionResponse struct {
	Authenticated bool        `json:"authenticated"`
	User          *claimsUser `json:"user,omitempty"`
}

type logoutAllResponse struct {
	Message string `json:"message"`
	Revoked int64  `json:"revoked"`
}

// POST /login, /auth/login
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := decodeJSON(c.Request(), &req); err != nil {
		return h.fail(c, err)
	}
	if err := h.validator.ValidateLogin(req.identifier(), req.Password); err != nil {
		return h.fail(c, err)
	}

	out, err := h.sessions.Login(c.Request().Context(), auth.LoginInput{
		Identifier: req.identifier(),
		Password:   req.Password,
		ClientMeta: clientMeta(c),
	})
	if err != nil {
		return h.fail(c, err)
	}

	// refresh cookie
	h.cookies.setRefreshCookie(c, out.RefreshToken, out.RefreshExpiresAt)

	return c.JSON(http.StatusOK, loginResponse{AccessToken: out.AccessToken, User: out.User})
}

// POST /auth/refresh
func (h *AuthHandler) Refresh(c echo.Context) error {
	out, err := h.sessions.Refresh(c.Request().Context(), readRefreshCookie(c), clientMeta(c))
	if err != nil {
		//使えないCookieは消しておく
		h.cookies.clearRefreshCookie(c)
		return h.fail(c, err)
	}

	h.cookies.setRefreshCookie(c, out.RefreshToken, out.RefreshExpiresAt)
	return c.JSON(http.StatusOK, accessTokenResponse{AccessToken: out.AccessToken})
}

// POST /auth/logout 常に200
func (h *AuthHandler) Logout(c echo.Context) error {
	out := h.sessions.Logout(c.Request().Context(), readRefreshCookie(c), clientMeta(c))
	h.cookies.clearRefreshCookie(c)
	return c.JSON(http.StatusOK, messageResponse{Message: out.Message})
}

// GET /auth/validate
func (h *AuthHandler) Validate(c echo.Context) error {
	claims, ok := middleware.ClaimsFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, middleware.ErrorJSON(middleware.CodeUnauthorized, "Authentication required"))
	}
	return c.JSON(http.StatusOK, validateResponse{User: toClaimsUser(claims.UserID, claims.Email, claims.Username, claims.Role, claims.IsSuperuser)})
}

// GET /auth/session 匿名でも200
func (h *AuthHandler) Session(c echo.Context) error {
	claims, ok := middleware.ClaimsFrom(c)
	if !ok {
		return c.JSON(http.StatusOK, sessionResponse{Authenticated: false})
	}
	u := toClaimsUser(claims.UserID, claims.Email, claims.Username, claims.Role, claims.IsSuperuser)
	return c.JSON(http.StatusOK, sessionResponse{Authenticated: true, User: &u})
}

// POST /auth/logout-all
func (h *AuthHandler) LogoutAll(c echo.Context) error {
	claims, ok := middleware.ClaimsFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, middleware.ErrorJSON(middleware.CodeUnauthorized, "Authentication required"))
	}

	n, err := h.sessions.LogoutAll(c.Request().Context(), claims.UserID, clientMeta(c))
	if err != nil {
		return h.fail(c, err)
	}

	h.cookies.clearRefreshCookie(c)
	return c.JSON(http.StatusOK, logoutAllResponse{Message: "Logged out from all sessions", Revoked: n})
}

func (h *AuthHandler) fail(c echo.Context, err error) error {
	return writeError(c, h.logger, h.verbose, err)
}

func toClaimsUser(id, email, username, role string, superuser bool) claimsUser {
	return claimsUser{ID: id, Email: email, Username: username, Role: role, IsSuperuser: superuser}
}

func clientMeta(c echo.Context) auth.ClientMeta {
	return auth.ClientMeta{UserAgent: c.Request().UserAgent(), IP: c.RealIP()}
}
