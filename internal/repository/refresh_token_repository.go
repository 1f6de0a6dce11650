package repository

import (
	"context"
	"errors"

	"github.com/purushothaman-web/ThiraiView-sub000/internal/domain/model"
)

var (
	ErrRefreshTokenNotFound = errors.New("refresh token not found")
	// ローテーション時、旧トークンが既に失効していた（CAS失敗）
	ErrRefreshTokenRevoked = errors.New("refresh token already revoked")
	// jti の一意制約違反。整合性の異常として扱う。
	ErrDuplicateJTI = errors.New("duplicate refresh token jti")
)

// リフレッシュトークン台帳。
// 行は削除しない。失効は一方向（false -> true）のみ。
type RefreshTokenRepository interface {
	Record(ctx context.Context, token *model.RefreshToken) error
	FindByJTI(ctx context.Context, jti string) (*model.RefreshToken, error)
	// 旧トークンの失効・replaced_by_jti の設定・新トークンの保存を1トランザクションで行う。
	// 旧トークンが有効でなければ ErrRefreshTokenRevoked を返し、何も変更しない。
	Rotate(ctx context.Context, oldJTI string, next *model.RefreshToken) error
	// 1件失効。既に失効済みでもエラーにしない。
	Revoke(ctx context.Context, jti string, reason model.RevocationReason) error
	// ユーザーの有効なトークンを全て失効し、件数を返す。
	RevokeAllForUser(ctx context.Context, userID string, reason model.RevocationReason) (int64, error)
	// 新しい順に最大 limit 件
	ListByUser(ctx context.Context, userID string, limit int) ([]model.RefreshToken, error)
}
