package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/purushothaman-web/ThiraiView-sub000/internal/domain/model"
	"github.com/purushothaman-web/ThiraiView-sub000/internal/metrics"
	"github.com/purushothaman-web/ThiraiView-sub000/internal/repository"
)

type RefreshOutput struct {
	AccessToken      string
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// 台帳で拒否した理由（ログとメトリクス用）
const (
	rejectNotFound     = "not_found"
	rejectRevoked      = "revoked"
	rejectHashMismatch = "hash_mismatch"
	rejectExpired      = "expired"
	rejectUserMismatch = "user_mismatch"
	rejectLostRace     = "lost_race"
)

// リフレッシュトークンを検証し、ローテーションする。
// 台帳と一致しないトークンは再利用とみなし、そのユーザーの全トークンを失効させる。
func (s *SessionService) Refresh(ctx context.Context, presented string, meta ClientMeta) (RefreshOutput, error) {
	out, err := s.refresh(ctx, presented, meta)
	switch {
	case err == nil:
		metrics.RefreshAttempts.WithLabelValues(metrics.ResultSuccess).Inc()
	case errors.Is(err, ErrInvalidRefreshToken), errors.Is(err, ErrMissingRefreshToken):
		metrics.RefreshAttempts.WithLabelValues(metrics.ResultFailure).Inc()
	default:
		metrics.RefreshAttempts.WithLabelValues(metrics.ResultError).Inc()
	}
	return out, err
}

func (s *SessionService) refresh(ctx context.Context, presented string, meta ClientMeta) (RefreshOutput, error) {
	var out RefreshOutput

	presented = strings.TrimSpace(presented)
	if presented == "" {
		return out, ErrMissingRefreshToken
	}

	//署名・期限の検証。ここで失敗したら台帳には触らない。
	claims, err := s.codec.VerifyRefreshToken(presented)
	if err != nil {
		s.logger.Debug().Err(err).Msg("refresh token verification failed")
		return out, ErrInvalidRefreshToken
	}

	record, err := s.ledger.FindByJTI(ctx, claims.ID)
	if err != nil && !errors.Is(err, repository.ErrRefreshTokenNotFound) {
		return out, fmt.Errorf("refresh: find record: %w", err)
	}

	now := s.clock.Now()
	if reason := rejectReason(record, presented, claims.UserID, now); reason != "" {
		s.revokeAllOnReuse(ctx, claims.UserID, claims.ID, reason, meta)
		return out, ErrInvalidRefreshToken
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return out, ErrInvalidRefreshToken
		}
		return out, fmt.Errorf("refresh: find user: %w", err)
	}
	//ブロック済みユーザーは更新させない（ADMINは除く）
	if user.IsBlocked && !user.Role.IsSuperuser() {
		return out, ErrInvalidRefreshToken
	}

	issued, err := s.newRefreshToken(user.ID, meta)
	if err != nil {
		return out, fmt.Errorf("refresh: issue refresh token: %w", err)
	}
	accessToken, err := s.issueAccessToken(user)
	if err != nil {
		return out, fmt.Errorf("refresh: issue access token: %w", err)
	}

	if err := s.ledger.Rotate(ctx, record.JTI, issued.record); err != nil {
		switch {
		case errors.Is(err, repository.ErrRefreshTokenRevoked):
			//同時リクエストに負けた
			s.revokeAllOnReuse(ctx, claims.UserID, claims.ID, rejectLostRace, meta)
			return out, ErrInvalidRefreshToken
		case errors.Is(err, repository.ErrDuplicateJTI):
			s.logger.Error().Str("user_id", user.ID).Str("jti", issued.record.JTI).Msg("duplicate jti on rotation, ledger integrity alarm")
		}
		return out, fmt.Errorf("refresh: rotate: %w", err)
	}

	out.AccessToken = accessToken
	out.RefreshToken = issued.token
	out.RefreshExpiresAt = issued.expiresAt
	return out, nil
}

// 台帳の行がローテーション可能でなければ理由を返す
func rejectReason(record *model.RefreshToken, presented, userID string, now time.Time) string {
	switch {
	case record == nil:
		return rejectNotFound
	case record.IsRevoked:
		return rejectRevoked
	case record.UserID != userID:
		return rejectUserMismatch
	case !refreshTokenMatches(presented, record.TokenHash):
		return rejectHashMismatch
	case record.IsExpired(now):
		return rejectExpired
	}
	return ""
}

// 検証済みクレームのユーザーIDだけを使って全失効する。
// 失敗はログに残すだけで、呼び出し元の結果（InvalidRefreshToken）は変えない。
func (s *SessionService) revokeAllOnReuse(ctx context.Context, userID, jti, reason string, meta ClientMeta) {
	metrics.ReuseDetections.WithLabelValues(reason).Inc()

	n, err := s.ledger.RevokeAllForUser(ctx, userID, model.RevocationReuseDetected)
	if err != nil {
		s.logger.Warn().Err(err).Str("user_id", userID).Str("jti", jti).Str("cause", reason).
			Msg("revoke-all after refresh reuse failed")
	} else {
		metrics.RevokedTokens.WithLabelValues(string(model.RevocationReuseDetected)).Add(float64(n))
	}

	s.logger.Warn().Str("user_id", userID).Str("jti", jti).Str("cause", reason).Int64("revoked", n).
		Msg("refresh token reuse detected")

	s.audit(ctx, model.AuditLog{
		ActorUserID:  userID,
		Action:       model.AuditActionRefreshReuse,
		ResourceType: model.AuditResourceRefreshToken,
		ResourceID:   jti,
		IPAddress:    meta.IP,
	}, map[string]any{"cause": reason, "revoked": n, "user_agent": meta.UserAgent})
}
