package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/purushothaman-web/ThiraiView-sub000/internal/infra/token"
)

const (
	CtxClaimsKey   = "auth_claims" // token.AccessClaims
	CtxUserIDKey   = "user_id"     // string
	CtxUserRoleKey = "user_role"   // string
)

type AuthMode int

const (
	// トークンが無い・不正なら401
	AuthRequired AuthMode = iota
	// トークンが無い・不正なら匿名として続行
	AuthOptional
)

// アクセストークンを検証する約束（token.Codec が実装）
type AccessTokenVerifier interface {
	VerifyAccessToken(s string) (token.AccessClaims, error)
}

// bearerAuth用のJWT検証ミドルウェア。
func AuthJWT(verifier AccessTokenVerifier, mode AuthMode) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			rawToken, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if !ok {
				if mode == AuthOptional {
					return next(c)
				}
				return c.JSON(http.StatusUnauthorized, ErrorJSON(CodeUnauthorized, "Authentication required"))
			}

			//JWTを検証する
			claims, err := verifier.VerifyAccessToken(rawToken)
			if err != nil {
				if mode == AuthOptional {
					return next(c)
				}
				return c.JSON(http.StatusUnauthorized, ErrorJSON(CodeUnauthorized, "Invalid or expired token"))
			}

			//contextへ保存
			c.Set(CtxClaimsKey, claims)
			c.Set(CtxUserIDKey, claims.UserID)
			c.Set(CtxUserRoleKey, claims.Role)

			return next(c)
		}
	}
}

// AuthJWTが入れたクレームを取り出す
func ClaimsFrom(c echo.Context) (token.AccessClaims, bool) {
	claims, ok := c.Get(CtxClaimsKey).(token.AccessClaims)
	return claims, ok
}

// Bearer形式か確認してtokenを抜く
func bearerToken(authz string) (string, bool) {
	parts := strings.SplitN(authz, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	raw := strings.TrimSpace(parts[1])
	return raw, raw != ""
}
