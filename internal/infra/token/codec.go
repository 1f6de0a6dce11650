package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidSignature = errors.New("invalid token")
	ErrExpired          = errors.New("token expired")
	ErrMissingSecret    = errors.New("token secret is required")
	ErrSharedSecret     = errors.New("access and refresh secrets must differ")
)

// テストで時刻を差し替える
var NowTimeFunc = time.Now

// アクセストークンのクレーム
type AccessClaims struct {
	UserID      string `json:"id"`
	Email       string `json:"email"`
	Role        string `json:"role"`
	Username    string `json:"username"`
	IsSuperuser bool   `json:"isSuperuser,omitempty"`
	jwt.RegisteredClaims
}

// リフレッシュトークンのクレーム。jti は RegisteredClaims.ID に入る。
type RefreshClaims struct {
	UserID string `json:"id"`
	jwt.RegisteredClaims
}

// HS256でアクセス/リフレッシュトークンを署名・検証する。
// 2種類のトークンは別々のシークレットを使う。
type Codec struct {
	accessSecret  []byte
	refreshSecret []byte
}

func NewCodec(accessSecret, refreshSecret string) (*Codec, error) {
	if accessSecret == "" || refreshSecret == "" {
		return nil, ErrMissingSecret
	}
	if accessSecret == refreshSecret {
		return nil, ErrSharedSecret
	}
	return &Codec{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
	}, nil
}

func (c *Codec) IssueAccessToken(claims AccessClaims, ttl time.Duration) (string, time.Time, error) {
	now := NowTimeFunc()
	exp := now.Add(ttl).Truncate(time.Second)

	claims.Subject = claims.UserID
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(exp)
	if claims.ID == "" {
		claims.ID = uuid.NewString()
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.accessSecret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign access token: %w", err)
	}
	return signed, exp, nil
}

func (c *Codec) IssueRefreshToken(userID, jti string, ttl time.Duration) (string, time.Time, error) {
	now := NowTimeFunc()
	exp := now.Add(ttl).Truncate(time.Second)

	claims := RefreshClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.refreshSecret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign refresh token: %w", err)
	}
	return signed, exp, nil
}

func (c *Codec) VerifyAccessToken(s string) (AccessClaims, error) {
	var claims AccessClaims
	if err := c.parse(s, &claims, c.accessSecret); err != nil {
		return AccessClaims{}, err
	}
	if claims.UserID == "" {
		return AccessClaims{}, ErrInvalidSignature
	}
	return claims, nil
}

func (c *Codec) VerifyRefreshToken(s string) (RefreshClaims, error) {
	var claims RefreshClaims
	if err := c.parse(s, &claims, c.refreshSecret); err != nil {
		return RefreshClaims{}, err
	}
	if claims.UserID == "" || claims.ID == "" {
		return RefreshClaims{}, ErrInvalidSignature
	}
	return claims, nil
}

func (c *Codec) parse(s string, claims jwt.Claims, secret []byte) error {
	if s == "" {
		return ErrInvalidSignature
	}
	_, err := jwt.ParseWithClaims(s, claims,
		func(t *jwt.Token) (any, error) {
			//HS256以外は拒否
			if t.Method != jwt.SigningMethodHS256 {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(NowTimeFunc),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrExpired
		}
		return ErrInvalidSignature
	}
	return nil
}
