package model

import (
	"errors"
	"strings"
)

// ロール。値は閉じた集合で、判定は述語メソッド経由で行う。
type Role string

const (
	RoleUser      Role = "USER"
	RoleModerator Role = "MODERATOR"
	RoleAdmin     Role = "ADMIN"
)

var ErrUnknownRole = errors.New("unknown role")

// 定義済みのロールか
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleModerator, RoleAdmin:
		return true
	}
	return false
}

// モデレーション操作ができるか（ADMIN / MODERATOR）
func (r Role) CanModerate() bool {
	return r == RoleAdmin || r == RoleModerator
}

// スーパーユーザー（ADMIN）か
func (r Role) IsSuperuser() bool {
	return r == RoleAdmin
}

func (r Role) String() string { return string(r) }

// 大文字小文字を無視してロール文字列を解釈する。
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", ErrUnknownRole
	}
	return r, nil
}
