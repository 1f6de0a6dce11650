package repofake

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/purushothaman-web/ThiraiView-sub000/internal/domain/model"
	"github.com/purushothaman-web/ThiraiView-sub000/internal/repository"
)

var _ repository.RefreshTokenRepository = (*FakeRefreshTokenRepo)(nil)

var NowTimeFunc = time.Now

// インメモリの台帳。ミューテックスでCASの意味を再現する。
type FakeRefreshTokenRepo struct {
	tokens map[string]*model.RefreshToken // jti -> record
	lock   sync.RWMutex

	// 次の RevokeAllForUser を失敗させる
	RevokeAllErr error
}

func NewFakeRefreshTokenRepo() *FakeRefreshTokenRepo {
	return &FakeRefreshTokenRepo{tokens: make(map[string]*model.RefreshToken)}
}

func (r *FakeRefreshTokenRepo) Record(_ context.Context, token *model.RefreshToken) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	return r.insert(token)
}

func (r *FakeRefreshTokenRepo) FindByJTI(_ context.Context, jti string) (*model.RefreshToken, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	t, ok := r.tokens[jti]
	if !ok {
		return nil, repository.ErrRefreshTokenNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *FakeRefreshTokenRepo) Rotate(_ context.Context, oldJTI string, next *model.RefreshToken) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	old, ok := r.tokens[oldJTI]
	if !ok || old.IsRevoked || old.UserID != next.UserID {
		return repository.ErrRefreshTokenRevoked
	}
	if _, dup := r.tokens[next.JTI]; dup {
		return repository.ErrDuplicateJTI
	}

	if err := r.insert(next); err != nil {
		return err
	}
	now := NowTimeFunc()
	reason := model.RevocationRotation
	replacedBy := next.JTI
	old.IsRevoked = true
	old.ReplacedByJTI = &replacedBy
	old.RevokedAt = &now
	old.RevocationReason = &reason
	return nil
}

func (r *FakeRefreshTokenRepo) Revoke(_ context.Context, jti string, reason model.RevocationReason) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if t, ok := r.tokens[jti]; ok && !t.IsRevoked {
		r.revoke(t, reason)
	}
	return nil
}

func (r *FakeRefreshTokenRepo) RevokeAllForUser(_ context.Context, userID string, reason model.RevocationReason) (int64, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	if err := r.RevokeAllErr; err != nil {
		r.RevokeAllErr = nil
		return 0, err
	}

	var n int64
	for _, t := range r.tokens {
		if t.UserID == userID && !t.IsRevoked {
			r.revoke(t, reason)
			n++
		}
	}
	return n, nil
}

func (r *FakeRefreshTokenRepo) ListByUser(_ context.Context, userID string, limit int) ([]model.RefreshToken, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	var out []model.RefreshToken
	for _, t := range r.tokens {
		if t.UserID == userID {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// テスト用：保存済みの行を直接書き換える
func (r *FakeRefreshTokenRepo) Mutate(jti string, fn func(t *model.RefreshToken)) {
	r.lock.Lock()
	defer r.lock.Unlock()

	if t, ok := r.tokens[jti]; ok {
		fn(t)
	}
}

// テスト用：全件のコピー
func (r *FakeRefreshTokenRepo) All() []model.RefreshToken {
	r.lock.RLock()
	defer r.lock.RUnlock()

	out := make([]model.RefreshToken, 0, len(r.tokens))
	for _, t := range r.tokens {
		out = append(out, *t)
	}
	return out
}

func (r *FakeRefreshTokenRepo) insert(token *model.RefreshToken) error {
	if _, dup := r.tokens[token.JTI]; dup {
		return repository.ErrDuplicateJTI
	}
	if token.CreatedAt.IsZero() {
		token.CreatedAt = NowTimeFunc()
	}
	cp := *token
	r.tokens[token.JTI] = &cp
	return nil
}

func (r *FakeRefreshTokenRepo) revoke(t *model.RefreshToken, reason model.RevocationReason) {
	now := NowTimeFunc()
	t.IsRevoked = true
	t.RevokedAt = &now
	t.RevocationReason = &reason
}
