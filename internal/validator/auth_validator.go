package validator

import (
	"errors"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var (
	// 入力が不正
	ErrInvalidInput = errors.New("invalid input")
)

const (
	maxIdentifierLength = 254
	// bcryptは72バイトまでしか見ないが、巨大な入力は先に弾く
	maxPasswordLength = 1024
)

var (
	emailRe    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	usernameRe = regexp.MustCompile(`^[A-Za-z0-9_.\-]{1,64}$`)
)

type AuthValidator struct{}

func NewAuthValidator() *AuthValidator {
	return &AuthValidator{}
}

// ログインの入力を検証（identifierはメールまたはユーザー名）
func (v *AuthValidator) ValidateLogin(identifier string, password string) error {
	identifier = strings.TrimSpace(identifier)

	// 必須チェック
	if identifier == "" || password == "" {
		return ErrInvalidInput
	}
	if len(identifier) > maxIdentifierLength || len(password) > maxPasswordLength {
		return ErrInvalidInput
	}

	if !isEmailLike(identifier) && !usernameRe.MatchString(identifier) {
		return ErrInvalidInput
	}
	return nil
}

// パスのユーザーIDを検証
func (v *AuthValidator) ValidateUserID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrInvalidInput
	}
	return nil
}

// 簡易メール形式をチェック
func isEmailLike(s string) bool {
	return emailRe.MatchString(s)
}
