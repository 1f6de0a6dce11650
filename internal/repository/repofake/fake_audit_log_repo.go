package repofake

import (
	"context"
	"sync"

	"github.com/purushothaman-web/ThiraiView-sub000/internal/domain/model"
	"github.com/purushothaman-web/ThiraiView-sub000/internal/repository"
)

var _ repository.AuditLogRepository = (*FakeAuditLogRepo)(nil)

type FakeAuditLogRepo struct {
	logs []model.AuditLog
	lock sync.RWMutex
}

func NewFakeAuditLogRepo() *FakeAuditLogRepo {
	return &FakeAuditLogRepo{}
}

func (r *FakeAuditLogRepo) Create(_ context.Context, log model.AuditLog) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	log.ID = int64(len(r.logs) + 1)
	if log.CreatedAt.IsZero() {
		log.CreatedAt = NowTimeFunc()
	}
	r.logs = append(r.logs, log)
	return nil
}

func (r *FakeAuditLogRepo) List(_ context.Context, filter repository.AuditLogFilter) ([]model.AuditLog, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	var out []model.AuditLog
	for i := len(r.logs) - 1; i >= 0; i-- {
		l := r.logs[i]
		if filter.ActorUserID != nil && l.ActorUserID != *filter.ActorUserID {
			continue
		}
		if filter.Action != nil && l.Action != *filter.Action {
			continue
		}
		if filter.ResourceType != nil && l.ResourceType != *filter.ResourceType {
			continue
		}
		if filter.ResourceID != nil && l.ResourceID != *filter.ResourceID {
			continue
		}
		out = append(out, l)
	}
	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return nil, nil
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}
