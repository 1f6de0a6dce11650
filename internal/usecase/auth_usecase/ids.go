package auth

import (
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// UUID 等のIDを作る約束
type IDGenerator interface {
	NewID() string
}

// 現在の時間
type Clock interface {
	Now() time.Time
}

// jti・ユーザーID用（UUID v4）
type UUIDGenerator struct{}

func (UUIDGenerator) NewID() string { return uuid.NewString() }

// 台帳の行ID用（時刻順に並ぶULID）
type ULIDGenerator struct{}

func (ULIDGenerator) NewID() string { return ulid.Make().String() }

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }
