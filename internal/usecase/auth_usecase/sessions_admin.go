package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/purushothaman-web/ThiraiView-sub000/internal/domain/model"
	"github.com/purushothaman-web/ThiraiView-sub000/internal/metrics"
	"github.com/purushothaman-web/ThiraiView-sub000/internal/repository"
)

const sessionListLimit = 50

// 管理画面向けのセッション情報（ハッシュは含めない）
type SessionView struct {
	JTI              string     `json:"jti"`
	CreatedAt        time.Time  `json:"createdAt"`
	ExpiresAt        time.Time  `json:"expiresAt"`
	IsRevoked        bool       `json:"isRevoked"`
	ReplacedByJTI    *string    `json:"replacedByJti,omitempty"`
	RevokedAt        *time.Time `json:"revokedAt,omitempty"`
	RevocationReason string     `json:"revocationReason,omitempty"`
	UserAgent        string     `json:"userAgent"`
	IPAddress        string     `json:"ipAddress"`
}

// 管理者による強制ログアウト。全失効と監査ログを同じトランザクションで書く。
func (s *SessionService) RevokeUserSessions(ctx context.Context, actorID, targetUserID string, meta ClientMeta) (int64, error) {
	if _, err := s.users.FindByID(ctx, targetUserID); err != nil {
		return 0, err
	}

	var revoked int64
	err := s.tx.WithinTx(ctx, func(r repository.TxRepos) error {
		n, err := r.RefreshTokens().RevokeAllForUser(ctx, targetUserID, model.RevocationAdmin)
		if err != nil {
			return err
		}
		revoked = n

		return r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  actorID,
			Action:       model.AuditActionAdminRevokeSessions,
			ResourceType: model.AuditResourceUser,
			ResourceID:   targetUserID,
			DetailJSON:   encodeDetail(map[string]any{"revoked": n}),
			IPAddress:    meta.IP,
			CreatedAt:    s.clock.Now(),
		})
	})
	if err != nil {
		return 0, fmt.Errorf("revoke user sessions: %w", err)
	}
	metrics.RevokedTokens.WithLabelValues(string(model.RevocationAdmin)).Add(float64(revoked))

	s.logger.Info().Str("actor_id", actorID).Str("user_id", targetUserID).Int64("revoked", revoked).
		Msg("sessions revoked by admin")
	return revoked, nil
}

// ユーザーのトークン履歴（新しい順）
func (s *SessionService) ListUserSessions(ctx context.Context, userID string) ([]SessionView, error) {
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		return nil, err
	}

	rows, err := s.ledger.ListByUser(ctx, userID, sessionListLimit)
	if err != nil {
		return nil, fmt.Errorf("list user sessions: %w", err)
	}

	views := make([]SessionView, 0, len(rows))
	for _, t := range rows {
		v := SessionView{
			JTI:           t.JTI,
			CreatedAt:     t.CreatedAt,
			ExpiresAt:     t.ExpiresAt,
			IsRevoked:     t.IsRevoked,
			ReplacedByJTI: t.ReplacedByJTI,
			RevokedAt:     t.RevokedAt,
			UserAgent:     t.UserAgent,
			IPAddress:     t.IPAddress,
		}
		if t.RevocationReason != nil {
			v.RevocationReason = string(*t.RevocationReason)
		}
		views = append(views, v)
	}
	return views, nil
}
