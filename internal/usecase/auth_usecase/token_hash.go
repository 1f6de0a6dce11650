package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// 署名済みリフレッシュトークン全体のSHA-256（hex）。台帳にはこれだけを保存する。
func hashRefreshToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// 提示されたトークンと保存済みハッシュを定数時間で比較する
func refreshTokenMatches(token, storedHash string) bool {
	h := hashRefreshToken(token)
	return subtle.ConstantTimeCompare([]byte(h), []byte(storedHash)) == 1
}
