package migrate

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/purushothaman-web/ThiraiView-sub000/internal/infra/db"
)

const (
	DirectionUp   = "up"
	DirectionDown = "down"
)

var ErrInvalidDirection = errors.New("direction must be up or down")

// 埋め込みSQLでマイグレーションを実行する。
// dsn は postgres:// 形式。既に最新なら何もしない。
func Run(dsn string, direction string) error {
	if dsn == "" {
		return errors.New("migrate: dsn is empty")
	}
	if direction != DirectionUp && direction != DirectionDown {
		return fmt.Errorf("%w: got %q", ErrInvalidDirection, direction)
	}

	sourceDriver, err := iofs.New(db.MigrationFS, "migrations")
	if err != nil {
		return fmt.Errorf("migrate source: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", sourceDriver, dsn)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	defer func() { _, _ = m.Close() }()

	if direction == DirectionUp {
		err = m.Up()
	} else {
		err = m.Down()
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate %s: %w", direction, err)
	}
	return nil
}
