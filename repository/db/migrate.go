package db

import (
	stderrors "errors"
	"log"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"projectmanager/internal/domain/errors"
)

// Migration применяет миграции из каталога migratePath к базе dbStr.
func Migration(dbStr, migratePath string) error {
	if dbStr == "" || migratePath == "" {
		return errors.ErrInvalidInput
	}

	m, err := migrate.New("file://"+migratePath, dbStr)
	if err != nil {
		log.Println("[ERROR] Не удалось инициализировать миграции:", err)
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil && !stderrors.Is(err, migrate.ErrNoChange) {
		log.Println("[ERROR] Не удалось применить миграции:", err)
		return err
	}
	return nil
}
