package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

const RefreshCookieName = "refresh_token"

// リフレッシュトークンのCookie設定
type CookieConfig struct {
	// 本番ではtrue
	Secure bool
}

// refreshtoken をCookieにセット。期限はトークンのexpに合わせる。
func (cc CookieConfig) setRefreshCookie(c echo.Context, value string, exp time.Time) {
	c.SetCookie(&http.Cookie{
		Name:     RefreshCookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   cc.Secure,
		SameSite: http.SameSiteLaxMode,
		Expires:  exp,
	})
}

// 同じ属性で即時失効させる
func (cc CookieConfig) clearRefreshCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     RefreshCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   cc.Secure,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
	})
}

func readRefreshCookie(c echo.Context) string {
	ck, err := c.Cookie(RefreshCookieName)
	if err != nil {
		return ""
	}
	return ck.Value
}
