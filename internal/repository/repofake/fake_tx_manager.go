package repofake

import (
	"context"

	"github.com/purushothaman-web/ThiraiView-sub000/internal/repository"
)

var _ repository.TransactionManager = (*FakeTxManager)(nil)

// fn をそのまま実行する（ロールバックはしない）。
type FakeTxManager struct {
	Tokens *FakeRefreshTokenRepo
	Audit  *FakeAuditLogRepo
}

func NewFakeTxManager(tokens *FakeRefreshTokenRepo, audit *FakeAuditLogRepo) *FakeTxManager {
	return &FakeTxManager{Tokens: tokens, Audit: audit}
}

func (m *FakeTxManager) WithinTx(_ context.Context, fn func(r repository.TxRepos) error) error {
	return fn(m)
}

func (m *FakeTxManager) RefreshTokens() repository.RefreshTokenRepository { return m.Tokens }

func (m *FakeTxManager) AuditLogs() repository.AuditLogRepository { return m.Audit }
