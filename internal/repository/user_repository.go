package repository

import (
	"context"
	"errors"
	"time"

	"github.com/purushothaman-web/ThiraiView-sub000/internal/domain/model"
)

// ユーザーが見つかりませんを統一
var (
	ErrUserNotFound  = errors.New("user not found")
	ErrUserDuplicate = errors.New("user already exists")
)

// 保存・取得を約束
type UserRepository interface {
	//新規ユーザー作成（seedコマンド用）
	Create(ctx context.Context, user *model.User) error
	// IDからユーザーを1件取得する。
	FindByID(ctx context.Context, userID string) (*model.User, error)
	//メールからユーザーを一件取得する（大文字小文字は区別しない）。
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	//最後のログイン時刻を更新
	TouchLastLogin(ctx context.Context, userID string, at time.Time) error
}
