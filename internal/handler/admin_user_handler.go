package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/purushothaman-web/ThiraiView-sub000/internal/middleware"
	"github.com/purushothaman-web/ThiraiView-sub000/internal/repository"
	auth "github.com/purushothaman-web/ThiraiView-sub000/internal/usecase/auth_usecase"
	"github.com/purushothaman-web/ThiraiView-sub000/internal/validator"
)

type AdminUserHandler struct {
	sessions  *auth.SessionService
	verifier  middleware.AccessTokenVerifier
	userRepo  repository.UserRepository
	validator *validator.AuthValidator
	logger    zerolog.Logger
	verbose   bool
}

func NewAdminUserHandler(
	sessions *auth.SessionService,
	verifier middleware.AccessTokenVerifier,
	userRepo repository.UserRepository,
	v *validator.AuthValidator,
	logger zerolog.Logger,
	verbose bool,
) *AdminUserHandler {
	return &AdminUserHandler{
		sessions:  sessions,
		verifier:  verifier,
		userRepo:  userRepo,
		validator: v,
		logger:    logger,
		verbose:   verbose,
	}
}

func (h *AdminUserHandler) RegisterRoutes(e *echo.Echo) {
	// /admin 配下は全部「JWT必須 + DBのroleと一致」。ロールはルートごとに絞る。
	admin := e.Group(
		"/admin",
		middleware.AuthJWT(h.verifier, middleware.AuthRequired),
		middleware.RoleFreshnessGuard(h.userRepo),
	)

	admin.POST("/users/:id/revoke-sessions", h.RevokeSessions, middleware.RequireRole(middleware.AdminOnly))
	admin.GET("/users/:id/sessions", h.ListSessions, middleware.RequireRole(middleware.AdminOrModerator))
}

type revokeSessionsResponse struct {
	UserID  string `json:"userId"`
	Revoked int64  `json:"revoked"`
}

type listSessionsResponse struct {
	Sessions []auth.SessionView `json:"sessions"`
}

// POST /admin/users/:id/revoke-sessions
func (h *AdminUserHandler) RevokeSessions(c echo.Context) error {
	userID := c.Param("id")
	if err := h.validator.ValidateUserID(userID); err != nil {
		return writeError(c, h.logger, h.verbose, err)
	}
	actorID, _ := c.Get(middleware.CtxUserIDKey).(string)

	n, err := h.sessions.RevokeUserSessions(c.Request().Context(), actorID, userID, clientMeta(c))
	if err != nil {
		return writeError(c, h.logger, h.verbose, err)
	}

	return c.JSON(http.StatusOK, revokeSessionsResponse{UserID: userID, Revoked: n})
}

// GET /admin/users/:id/sessions
func (h *AdminUserHandler) ListSessions(c echo.Context) error {
	userID := c.Param("id")
	if err := h.validator.ValidateUserID(userID); err != nil {
		return writeError(c, h.logger, h.verbose, err)
	}

	views, err := h.sessions.ListUserSessions(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, h.logger, h.verbose, err)
	}

	return c.JSON(http.StatusOK, listSessionsResponse{Sessions: views})
}
