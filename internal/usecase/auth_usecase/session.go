package auth

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"github.com/purushothaman-web/ThiraiView-sub000/internal/domain/model"
	"github.com/purushothaman-web/ThiraiView-sub000/internal/infra/token"
	"github.com/purushothaman-web/ThiraiView-sub000/internal/repository"
)

// トークンの発行・検証の約束（infra/token.Codec が実装）
type TokenCodec interface {
	IssueAccessToken(claims token.AccessClaims, ttl time.Duration) (string, time.Time, error)
	IssueRefreshToken(userID, jti string, ttl time.Duration) (string, time.Time, error)
	VerifyAccessToken(s string) (token.AccessClaims, error)
	VerifyRefreshToken(s string) (token.RefreshClaims, error)
}

// リクエスト元の情報（台帳と監査ログに残す）
type ClientMeta struct {
	UserAgent string
	IP        string
}

type SessionDeps struct {
	Users     repository.UserRepository
	Ledger    repository.RefreshTokenRepository
	AuditLogs repository.AuditLogRepository
	Tx        repository.TransactionManager
	Verifier  PasswordVerifier
	Codec     TokenCodec
	JTIs      IDGenerator
	RecordIDs IDGenerator
	Clock     Clock
	Logger    zerolog.Logger

	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// ログイン・リフレッシュ・ログアウトを扱う。
// 台帳以外に共有する可変状態は持たない。
type SessionService struct {
	users      repository.UserRepository
	ledger     repository.RefreshTokenRepository
	auditLogs  repository.AuditLogRepository
	tx         repository.TransactionManager
	verifier   PasswordVerifier
	codec      TokenCodec
	jtis       IDGenerator
	recordIDs  IDGenerator
	clock      Clock
	logger     zerolog.Logger
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// DI
func NewSessionService(d SessionDeps) *SessionService {
	if d.JTIs == nil {
		d.JTIs = UUIDGenerator{}
	}
	if d.RecordIDs == nil {
		d.RecordIDs = ULIDGenerator{}
	}
	if d.Clock == nil {
		d.Clock = SystemClock{}
	}
	if d.AccessTTL <= 0 {
		d.AccessTTL = token.DefaultAccessExpiry
	}
	if d.RefreshTTL <= 0 {
		d.RefreshTTL = token.DefaultRefreshExpiry
	}
	return &SessionService{
		users:      d.Users,
		ledger:     d.Ledger,
		auditLogs:  d.AuditLogs,
		tx:         d.Tx,
		verifier:   d.Verifier,
		codec:      d.Codec,
		jtis:       d.JTIs,
		recordIDs:  d.RecordIDs,
		clock:      d.Clock,
		logger:     d.Logger.With().Str("component", "session").Logger(),
		accessTTL:  d.AccessTTL,
		refreshTTL: d.RefreshTTL,
	}
}

// アクセストークンを検証する（middlewareからも使う）
func (s *SessionService) ValidateAccessToken(accessToken string) (token.AccessClaims, error) {
	return s.codec.VerifyAccessToken(accessToken)
}

func (s *SessionService) issueAccessToken(u *model.User) (string, error) {
	signed, _, err := s.codec.IssueAccessToken(token.AccessClaims{
		UserID:      u.ID,
		Email:       u.Email,
		Role:        u.Role.String(),
		Username:    u.Username,
		IsSuperuser: u.Role.IsSuperuser(),
	}, s.accessTTL)
	return signed, err
}

type issuedRefresh struct {
	token     string
	expiresAt time.Time
	record    *model.RefreshToken
}

// 新しいjtiでリフレッシュトークンを作り、台帳に入れる行を用意する（保存はしない）
func (s *SessionService) newRefreshToken(userID string, meta ClientMeta) (issuedRefresh, error) {
	jti := s.jtis.NewID()
	signed, exp, err := s.codec.IssueRefreshToken(userID, jti, s.refreshTTL)
	if err != nil {
		return issuedRefresh{}, err
	}
	return issuedRefresh{
		token:     signed,
		expiresAt: exp,
		record: &model.RefreshToken{
			ID:        s.recordIDs.NewID(),
			JTI:       jti,
			UserID:    userID,
			TokenHash: hashRefreshToken(signed),
			ExpiresAt: exp,
			UserAgent: meta.UserAgent,
			IPAddress: meta.IP,
			CreatedAt: s.clock.Now(),
		},
	}, nil
}

// 監査ログは失敗しても主処理を止めない
func (s *SessionService) audit(ctx context.Context, entry model.AuditLog, detail map[string]any) {
	if s.auditLogs == nil {
		return
	}
	entry.DetailJSON = encodeDetail(detail)
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.clock.Now()
	}
	if err := s.auditLogs.Create(ctx, entry); err != nil {
		s.logger.Warn().Err(err).Str("action", string(entry.Action)).Msg("audit log write failed")
	}
}

func encodeDetail(detail map[string]any) string {
	if len(detail) == 0 {
		return ""
	}
	b, err := json.Marshal(detail)
	if err != nil {
		return ""
	}
	return string(b)
}
