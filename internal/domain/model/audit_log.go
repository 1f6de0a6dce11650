package model

import "time"

// セキュリティイベントの種類。
type AuditAction string

const (
	AuditActionLogin     AuditAction = "LOGIN"
	AuditActionLogout    AuditAction = "LOGOUT"
	AuditActionLogoutAll AuditAction = "LOGOUT_ALL"
	//使用済み・不明なリフレッシュトークンが提示された。
	AuditActionRefreshReuse AuditAction = "REFRESH_REUSE_DETECTED"
	//管理者による強制ログアウト。
	AuditActionAdminRevokeSessions AuditAction = "ADMIN_REVOKE_SESSIONS"
)

// 何に対する操作か
type AuditResourceType string

const (
	AuditResourceUser AuditResourceType = "user"

	AuditResourceRefreshToken AuditResourceType = "refresh_token"
)

// 監査ログ。
// 「誰が」「何を」「どの対象に」したかを残す。
type AuditLog struct {
	ID int64 `gorm:"primaryKey;autoIncrement" json:"id"`

	//操作したユーザーのID。匿名なら空。
	ActorUserID string `gorm:"type:varchar(64);not null;default:'';index" json:"actor_user_id"`

	Action AuditAction `gorm:"type:varchar(50);not null;index" json:"action"`

	ResourceType AuditResourceType `gorm:"type:varchar(50);not null;index" json:"resource_type"`

	//対象のID（ユーザーID or jti）。
	ResourceID string `gorm:"type:varchar(64);not null;index" json:"resource_id"`

	//補足情報をJSON文字列で保存する。
	DetailJSON string `gorm:"type:text" json:"detail_json"`

	IPAddress string `gorm:"type:varchar(64);not null;default:''" json:"ip_address"`

	//作成時刻
	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
}

func (AuditLog) TableName() string { return "audit_logs" }
