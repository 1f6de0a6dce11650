package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/purushothaman-web/ThiraiView-sub000/internal/domain/model"
	"github.com/purushothaman-web/ThiraiView-sub000/internal/metrics"
)

const LogoutMessage = "Logged out successfully"

type LogoutOutput struct {
	Message string
}

// 提示されたリフレッシュトークンを失効させる。
// トークンが無い・壊れている・失効に失敗した場合でも成功を返す。
func (s *SessionService) Logout(ctx context.Context, presented string, meta ClientMeta) LogoutOutput {
	metrics.Logouts.Inc()

	presented = strings.TrimSpace(presented)
	if presented == "" {
		return LogoutOutput{Message: LogoutMessage}
	}

	claims, err := s.codec.VerifyRefreshToken(presented)
	if err != nil {
		s.logger.Debug().Err(err).Msg("logout with undecodable refresh token")
		return LogoutOutput{Message: LogoutMessage}
	}

	if err := s.ledger.Revoke(ctx, claims.ID, model.RevocationLogout); err != nil {
		s.logger.Warn().Err(err).Str("jti", claims.ID).Msg("revoke on logout failed")
		return LogoutOutput{Message: LogoutMessage}
	}
	metrics.RevokedTokens.WithLabelValues(string(model.RevocationLogout)).Inc()

	s.audit(ctx, model.AuditLog{
		ActorUserID:  claims.UserID,
		Action:       model.AuditActionLogout,
		ResourceType: model.AuditResourceRefreshToken,
		ResourceID:   claims.ID,
		IPAddress:    meta.IP,
	}, nil)

	return LogoutOutput{Message: LogoutMessage}
}

// 本人の全セッションを失効させる（どこからでもログアウト）
func (s *SessionService) LogoutAll(ctx context.Context, userID string, meta ClientMeta) (int64, error) {
	n, err := s.ledger.RevokeAllForUser(ctx, userID, model.RevocationLogoutAll)
	if err != nil {
		return 0, fmt.Errorf("logout all: %w", err)
	}
	metrics.RevokedTokens.WithLabelValues(string(model.RevocationLogoutAll)).Add(float64(n))

	s.audit(ctx, model.AuditLog{
		ActorUserID:  userID,
		Action:       model.AuditActionLogoutAll,
		ResourceType: model.AuditResourceUser,
		ResourceID:   userID,
		IPAddress:    meta.IP,
	}, map[string]any{"revoked": n})

	return n, nil
}
