package token

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	DefaultAccessExpiry  = time.Hour
	DefaultRefreshExpiry = 30 * 24 * time.Hour
)

var ErrInvalidExpiry = errors.New("invalid token expiry")

// 有効期限の文字列を解釈する。
// "1h" / "15m" などのGo形式、"30d" の日数、"3600" の秒数を受け付ける。
func ParseExpiryStrict(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidExpiry
	}

	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		if n <= 0 {
			return 0, ErrInvalidExpiry
		}
		return time.Duration(n) * time.Second, nil
	}

	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil || n <= 0 {
			return 0, ErrInvalidExpiry
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}

	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, ErrInvalidExpiry
	}
	return d, nil
}

// 解釈できなければ fallback を返し、警告ログを出す。
func ParseExpiry(s string, fallback time.Duration) time.Duration {
	d, err := ParseExpiryStrict(s)
	if err != nil {
		log.Warn().Str("value", s).Dur("fallback", fallback).Msg("token: unparseable expiry, using fallback")
		return fallback
	}
	return d
}
