package repofake

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/purushothaman-web/ThiraiView-sub000/internal/domain/model"
	"github.com/purushothaman-web/ThiraiView-sub000/internal/repository"
)

var _ repository.UserRepository = (*FakeUserRepo)(nil)

type FakeUserRepo struct {
	users map[string]*model.User
	lock  sync.RWMutex
}

func NewFakeUserRepo() *FakeUserRepo {
	return &FakeUserRepo{users: make(map[string]*model.User)}
}

func (ur *FakeUserRepo) Create(_ context.Context, user *model.User) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	for _, u := range ur.users {
		if strings.EqualFold(u.Email, user.Email) || u.Username == user.Username {
			return repository.ErrUserDuplicate
		}
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	user.UpdatedAt = user.CreatedAt
	cp := *user
	ur.users[user.ID] = &cp
	return nil
}

func (ur *FakeUserRepo) FindByID(_ context.Context, userID string) (*model.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	u, ok := ur.users[userID]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (ur *FakeUserRepo) FindByEmail(_ context.Context, email string) (*model.User, error) {
	return ur.find(func(u *model.User) bool { return strings.EqualFold(u.Email, email) })
}

func (ur *FakeUserRepo) FindByUsername(_ context.Context, username string) (*model.User, error) {
	return ur.find(func(u *model.User) bool { return u.Username == username })
}

func (ur *FakeUserRepo) TouchLastLogin(_ context.Context, userID string, at time.Time) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	u, ok := ur.users[userID]
	if !ok {
		return repository.ErrUserNotFound
	}
	t := at
	u.LastLoginAt = &t
	return nil
}

// テスト用：ロールやブロック状態を書き換える
func (ur *FakeUserRepo) Update(fn func(u *model.User), userID string) {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	if u, ok := ur.users[userID]; ok {
		fn(u)
	}
}

func (ur *FakeUserRepo) find(match func(u *model.User) bool) (*model.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	for _, u := range ur.users {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrUserNotFound
}
