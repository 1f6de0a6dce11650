package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/purushothaman-web/ThiraiView-sub000/internal/domain/model"
)

// ロールの判定
type RolePredicate func(model.Role) bool

// ADMINのみ
func AdminOnly(r model.Role) bool { return r.IsSuperuser() }

// ADMINまたはMODERATOR
func AdminOrModerator(r model.Role) bool { return r.CanModerate() }

// contextに入っているroleを確認します。AuthJWTの後に置く。
func RequireRole(allow RolePredicate) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			rawRole, ok := c.Get(CtxUserRoleKey).(string)
			if !ok || rawRole == "" {
				return c.JSON(http.StatusUnauthorized, ErrorJSON(CodeUnauthorized, "Authentication required"))
			}

			role := model.Role(rawRole)
			if !role.Valid() || !allow(role) {
				return c.JSON(http.StatusForbidden, ErrorJSON(CodeForbidden, "Insufficient permissions"))
			}

			return next(c)
		}
	}
}
