package auth

import "errors"

var (
	// メール/ユーザー名またはパスワードが違う
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ブロックされたユーザー（ADMINは除く）
	ErrAccountBlocked = errors.New("account is blocked")
	// メール未確認（ADMINは除く）
	ErrAccountUnverified = errors.New("account is not verified")

	// 署名不正・期限切れ・台帳と不一致など。クライアントには区別しない。
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	// Cookieにリフレッシュトークンがない
	ErrMissingRefreshToken = errors.New("missing refresh token")
)
