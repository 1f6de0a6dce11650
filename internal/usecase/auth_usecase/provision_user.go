package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/purushothaman-web/ThiraiView-sub000/internal/domain/model"
	"github.com/purushothaman-web/ThiraiView-sub000/internal/repository"
)

// ユーザー作成の入力（seedコマンド用）
type ProvisionUserInput struct {
	Email      string
	Username   string
	Password   string
	Role       model.Role
	IsVerified bool
	IsBlocked  bool
}

var (
	// 入力が不正
	ErrInvalidEmailFormat = errors.New("invalid email format")
	ErrInvalidUsername    = errors.New("invalid username")
	ErrPasswordTooShort   = errors.New("password too short")
	ErrWeakPassword       = errors.New("weak password")

	// 競合
	ErrUserAlreadyExists = errors.New("user already exists")
)

const minPasswordLength = 8

// ProvisionUserUsecaseはユーザーを作成する。
// 会員登録そのものは別サービスの担当で、ここは運用・動作確認用。
type ProvisionUserUsecase struct {
	userRepo repository.UserRepository
	hasher   PasswordHasher
	idGen    IDGenerator
	clock    Clock
}

// DI
func NewProvisionUserUsecase(
	userRepo repository.UserRepository,
	hasher PasswordHasher,
	idGen IDGenerator,
	clock Clock,
) *ProvisionUserUsecase {
	return &ProvisionUserUsecase{
		userRepo: userRepo,
		hasher:   hasher,
		idGen:    idGen,
		clock:    clock,
	}
}

func (u *ProvisionUserUsecase) Execute(ctx context.Context, in ProvisionUserInput) (model.PublicUser, error) {
	email := strings.TrimSpace(in.Email)
	username := strings.TrimSpace(in.Username)

	// emailの形式チェック
	if !isValidEmailFormat(email) {
		return model.PublicUser{}, ErrInvalidEmailFormat
	}
	if username == "" || len(username) > 64 || strings.ContainsAny(username, " @") {
		return model.PublicUser{}, ErrInvalidUsername
	}
	if len(in.Password) < minPasswordLength {
		return model.PublicUser{}, ErrPasswordTooShort
	}
	// よくある弱いパスワードの拒否
	if isWeakPassword(in.Password) {
		return model.PublicUser{}, ErrWeakPassword
	}

	role := in.Role
	if role == "" {
		role = model.RoleUser
	}
	if !role.Valid() {
		return model.PublicUser{}, model.ErrUnknownRole
	}

	// パスワードをハッシュ化
	hashed, err := u.hasher.Hash(in.Password)
	if err != nil {
		return model.PublicUser{}, fmt.Errorf("hash password: %w", err)
	}

	now := u.clock.Now()
	user := &model.User{
		ID:           u.idGen.NewID(),
		Email:        email,
		Username:     username,
		PasswordHash: hashed, // ハッシュを保存（平文は保存しない）
		Role:         role,
		IsBlocked:    in.IsBlocked,
		IsVerified:   in.IsVerified,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	// DBへ保存（重複は一意制約で弾く）
	if err := u.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrUserDuplicate) {
			return model.PublicUser{}, ErrUserAlreadyExists
		}
		return model.PublicUser{}, err
	}

	return user.Public(), nil
}

// メールチェック
func isValidEmailFormat(email string) bool {
	if email == "" {
		return false
	}
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}

// パスワードのよくある弱いパスワード
func isWeakPassword(password string) bool {
	normalized := strings.ToLower(strings.TrimSpace(password))

	weak := map[string]struct{}{
		"password":     {},
		"password123":  {},
		"123456789012": {},
		"1234567890":   {},
		"12345678":     {},
		"qwerty":       {},
		"qwertyuiop":   {},
		"letmein":      {},
		"admin":        {},
		"admin123":     {},
	}

	_, ok := weak[normalized]
	return ok
}
