package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/purushothaman-web/ThiraiView-sub000/internal/repository"
)

// JWTのroleとDBのroleが一致するか確認。
// 降格・ブロックされたユーザーの古いアクセストークンを管理系ルートで弾く。
func RoleFreshnessGuard(userRepo repository.UserRepository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			//AuthJWTが入れたuser_id を取得する
			userID, ok := c.Get(CtxUserIDKey).(string)
			if !ok || userID == "" {
				return c.JSON(http.StatusUnauthorized, ErrorJSON(CodeUnauthorized, "Authentication required"))
			}
			role, _ := c.Get(CtxUserRoleKey).(string)

			//DBから最新のuserを取得する
			user, err := userRepo.FindByID(c.Request().Context(), userID)
			if err != nil {
				if errors.Is(err, repository.ErrUserNotFound) {
					return c.JSON(http.StatusUnauthorized, ErrorJSON(CodeUnauthorized, "Authentication required"))
				}
				log.Error().Err(err).Str("user_id", userID).Msg("role freshness lookup failed")
				return c.JSON(http.StatusInternalServerError, ErrorJSON(CodeInternal, "Internal server error"))
			}

			//roleが変わっていたら再ログインさせる（401）
			if string(user.Role) != role {
				return c.JSON(http.StatusUnauthorized, ErrorJSON(CodeUnauthorized, "Session is stale, please log in again"))
			}
			if user.IsBlocked && !user.Role.IsSuperuser() {
				return c.JSON(http.StatusForbidden, ErrorJSON(CodeAccountBlocked, "Your account has been blocked"))
			}

			return next(c)
		}
	}
}
