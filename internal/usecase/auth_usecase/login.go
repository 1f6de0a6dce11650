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

// handlerからusecaseに渡す入力
type LoginInput struct {
	// メールアドレスまたはユーザー名
	Identifier string
	Password   string
	ClientMeta
}

// handlerがJSONとCookieにする値
type LoginOutput struct {
	AccessToken      string
	User             model.PublicUser
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// ログイン処理を実行する
func (s *SessionService) Login(ctx context.Context, in LoginInput) (LoginOutput, error) {
	out, err := s.login(ctx, in)
	switch {
	case err == nil:
		metrics.LoginAttempts.WithLabelValues(metrics.ResultSuccess).Inc()
	case errors.Is(err, ErrInvalidCredentials), errors.Is(err, ErrAccountBlocked), errors.Is(err, ErrAccountUnverified):
		metrics.LoginAttempts.WithLabelValues(metrics.ResultFailure).Inc()
	default:
		metrics.LoginAttempts.WithLabelValues(metrics.ResultError).Inc()
	}
	return out, err
}

func (s *SessionService) login(ctx context.Context, in LoginInput) (LoginOutput, error) {
	var out LoginOutput

	//emailで探し、なければusernameで探す
	user, err := s.findByIdentifier(ctx, in.Identifier)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return out, ErrInvalidCredentials
		}
		return out, fmt.Errorf("login: find user: %w", err)
	}

	//ブロック済みはログイン不可（ADMINは除く）
	if user.IsBlocked && !user.Role.IsSuperuser() {
		return out, ErrAccountBlocked
	}

	//パスワード照合
	if !s.verifier.Verify(in.Password, user.PasswordHash) {
		return out, ErrInvalidCredentials
	}

	//メール未確認（ADMINは除く）
	if !user.IsVerified && !user.Role.IsSuperuser() {
		return out, ErrAccountUnverified
	}

	accessToken, err := s.issueAccessToken(user)
	if err != nil {
		return out, fmt.Errorf("login: issue access token: %w", err)
	}

	issued, err := s.newRefreshToken(user.ID, in.ClientMeta)
	if err != nil {
		return out, fmt.Errorf("login: issue refresh token: %w", err)
	}
	if err := s.ledger.Record(ctx, issued.record); err != nil {
		if errors.Is(err, repository.ErrDuplicateJTI) {
			s.logger.Error().Str("user_id", user.ID).Str("jti", issued.record.JTI).Msg("duplicate jti on login, ledger integrity alarm")
		}
		return out, fmt.Errorf("login: record refresh token: %w", err)
	}

	//最終ログイン時刻更新（失敗してもログインは成功）
	now := s.clock.Now()
	if err := s.users.TouchLastLogin(ctx, user.ID, now); err != nil {
		s.logger.Warn().Err(err).Str("user_id", user.ID).Msg("update last login failed")
	} else {
		user.LastLoginAt = &now
	}

	s.audit(ctx, model.AuditLog{
		ActorUserID:  user.ID,
		Action:       model.AuditActionLogin,
		ResourceType: model.AuditResourceRefreshToken,
		ResourceID:   issued.record.JTI,
		IPAddress:    in.IP,
	}, map[string]any{"user_agent": in.UserAgent})

	out.AccessToken = accessToken
	out.User = user.Public()
	out.RefreshToken = issued.token
	out.RefreshExpiresAt = issued.expiresAt
	return out, nil
}

func (s *SessionService) findByIdentifier(ctx context.Context, identifier string) (*model.User, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, repository.ErrUserNotFound
	}

	user, err := s.users.FindByEmail(ctx, identifier)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, err
	}
	return s.users.FindByUsername(ctx, identifier)
}
