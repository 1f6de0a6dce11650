package repository

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/purushothaman-web/ThiraiView-sub000/internal/domain/model"
	repo "github.com/purushothaman-web/ThiraiView-sub000/internal/repository"
)

type refreshTokenGormRepository struct {
	db *gorm.DB //DB接続（GORM）
}

// GORM実装
func NewRefreshTokenRepository(db *gorm.DB) repo.RefreshTokenRepository {
	return &refreshTokenGormRepository{db: db}
}

// リフレッシュトークンを保存する。
func (r *refreshTokenGormRepository) Record(ctx context.Context, token *model.RefreshToken) error {
	//タイムアウトやキャンセルをDB処理に伝える
	return insertRefreshToken(r.db.WithContext(ctx), token)
}

// jtiで1件検索します。
func (r *refreshTokenGormRepository) FindByJTI(ctx context.Context, jti string) (*model.RefreshToken, error) {
	var token model.RefreshToken

	err := r.db.WithContext(ctx).
		Where("jti = ?", jti).
		First(&token).Error
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repo.ErrRefreshTokenNotFound
		}
		return nil, errors.Wrap(err, "refreshTokenRepo.FindByJTI")
	}

	return &token, nil
}

// 旧トークンを失効させ、新トークンを保存する（1トランザクション）。
func (r *refreshTokenGormRepository) Rotate(ctx context.Context, oldJTI string, next *model.RefreshToken) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()

		// is_revoked = false の行だけを更新する（CAS）。
		// 同時に来た2つ目のリクエストは行ロック解放後に0件更新になる。
		result := tx.Model(&model.RefreshToken{}).
			Where("jti = ? AND user_id = ? AND is_revoked = ?", oldJTI, next.UserID, false).
			Updates(map[string]any{
				"is_revoked":        true,
				"replaced_by_jti":   next.JTI,
				"revoked_at":        now,
				"revocation_reason": model.RevocationRotation,
			})
		if result.Error != nil {
			return errors.Wrap(result.Error, "refreshTokenRepo.Rotate.Revoke")
		}
		if result.RowsAffected == 0 {
			return repo.ErrRefreshTokenRevoked
		}

		//保存に失敗したら失効もロールバックされる
		return insertRefreshToken(tx, next)
	})
}

// revokedにする。既に失効済みなら何もしない。
func (r *refreshTokenGormRepository) Revoke(ctx context.Context, jti string, reason model.RevocationReason) error {
	now := time.Now()

	result := r.db.WithContext(ctx).
		Model(&model.RefreshToken{}).
		Where("jti = ? AND is_revoked = ?", jti, false).
		Updates(map[string]any{
			"is_revoked":        true,
			"revoked_at":        now,
			"revocation_reason": reason,
		})
	if result.Error != nil {
		return errors.Wrap(result.Error, "refreshTokenRepo.Revoke")
	}
	return nil
}

// 指定ユーザーの有効なリフレッシュトークンを全て失効します（削除はしない）。
func (r *refreshTokenGormRepository) RevokeAllForUser(ctx context.Context, userID string, reason model.RevocationReason) (int64, error) {
	now := time.Now()

	result := r.db.WithContext(ctx).
		Model(&model.RefreshToken{}).
		Where("user_id = ? AND is_revoked = ?", userID, false).
		Updates(map[string]any{
			"is_revoked":        true,
			"revoked_at":        now,
			"revocation_reason": reason,
		})
	if result.Error != nil {
		return 0, errors.Wrap(result.Error, "refreshTokenRepo.RevokeAllForUser")
	}
	return result.RowsAffected, nil
}

func (r *refreshTokenGormRepository) ListByUser(ctx context.Context, userID string, limit int) ([]model.RefreshToken, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	var tokens []model.RefreshToken
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&tokens).Error
	if err != nil {
		return nil, errors.Wrap(err, "refreshTokenRepo.ListByUser")
	}
	return tokens, nil
}

func insertRefreshToken(db *gorm.DB, token *model.RefreshToken) error {
	if err := db.Create(token).Error; err != nil {
		if isUniqueViolation(err) {
			return repo.ErrDuplicateJTI
		}
		return errors.Wrap(err, "refreshTokenRepo.insert")
	}
	return nil
}
