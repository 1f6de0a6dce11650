package model

import "time"

// 失効理由
type RevocationReason string

const (
	RevocationRotation      RevocationReason = "rotation"
	RevocationLogout        RevocationReason = "logout"
	RevocationReuseDetected RevocationReason = "reuse_detected"
	RevocationLogoutAll     RevocationReason = "logout_all"
	RevocationAdmin         RevocationReason = "admin_revoke"
)

// リフレッシュトークン台帳の1行。
// 行は削除しない。失効は is_revoked を true にするだけ（戻さない）。
type RefreshToken struct {
	ID               string            `json:"id" gorm:"type:varchar(26);primaryKey"`
	JTI              string            `json:"jti" gorm:"column:jti;type:varchar(64);uniqueIndex;not null"`
	UserID           string            `json:"userId" gorm:"type:uuid;not null;index"`
	TokenHash        string            `json:"-" gorm:"column:token_hash;type:char(64);not null"`
	ExpiresAt        time.Time         `json:"expiresAt" gorm:"not null;index"`
	IsRevoked        bool              `json:"isRevoked" gorm:"column:is_revoked;not null;default:false"`
	ReplacedByJTI    *string           `json:"replacedByJti,omitempty" gorm:"column:replaced_by_jti;type:varchar(64)"`
	RevokedAt        *time.Time        `json:"revokedAt,omitempty" gorm:"column:revoked_at"`
	RevocationReason *RevocationReason `json:"revocationReason,omitempty" gorm:"column:revocation_reason;type:varchar(32)"`
	UserAgent        string            `json:"userAgent" gorm:"column:user_agent;not null;default:''"`
	IPAddress        string            `json:"ipAddress" gorm:"column:ip_address;not null;default:''"`
	CreatedAt        time.Time         `json:"createdAt" gorm:"not null"`
}

func (RefreshToken) TableName() string { return "refresh_tokens" }

func (t RefreshToken) IsExpired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// ローテーションに使える状態か
func (t RefreshToken) Usable(now time.Time) bool {
	return !t.IsRevoked && !t.IsExpired(now)
}
