package repo

import (
	"ImageHub/internal/apperr"
	"ImageHub/internal/model"
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"
)

// InitDB открывает соединение с БД выбранного драйвера.
func InitDB(driver, dsn string) (*gorm.DB, error) {
	var dial gorm.Dialector
	switch driver {
	case "postgres":
		dial = postgres.Open(dsn)
	case "mysql":
		dial = mysql.Open(dsn)
	case "sqlite", "":
		// modernc.org/sqlite регистрируется как "sqlite" и не требует cgo
		dial = gormsqlite.Dialector{DriverName: "sqlite", DSN: sqliteDSN(dsn)}
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := gorm.Open(dial, &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if driver == "sqlite" || driver == "" {
		// одна запись за раз; иначе SQLITE_BUSY на параллельных транзакциях
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return db, nil
}

// sqliteDSN включает проверку внешних ключей: в SQLite она выключена по умолчанию
// и действует на соединение, поэтому задаётся через DSN.
func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "foreign_keys") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=foreign_keys(1)"
}

// Migrate создаёт/обновляет схему для всех моделей.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&model.User{}, &model.Folder{}, &model.Assignment{}, &model.Image{})
}

// TxManager выполняет функцию в транзакции; репозитории подхватывают её из контекста.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type txKey struct{}

type gormTxManager struct {
	db *gorm.DB
}

func NewTxManager(db *gorm.DB) TxManager {
	return &gormTxManager{db: db}
}

// WithinTx коммитит, если fn вернула nil, иначе откатывает всё.
// Вложенный вызов переиспользует уже открытую транзакцию.
func (m *gormTxManager) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return fn(ctx)
	}
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

// conn возвращает транзакцию из контекста либо обычное соединение.
func conn(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx.WithContext(ctx)
	}
	return db.WithContext(ctx)
}

func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", what, apperr.ErrNotFound)
	}
	return err
}

// foreignKey превращает нарушение внешнего ключа в apperr.ErrNotFound.
// modernc.org/sqlite не даёт gorm перевести код ошибки, поэтому проверяется и текст.
func foreignKey(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return fmt.Errorf("%s: %w", what, apperr.ErrNotFound)
	}
	msg := strings.ToLower(err.Error())
	for _, s := range []string{
		"foreign key constraint failed",   // sqlite
		"violates foreign key constraint", // postgres
		"a foreign key constraint fails",  // mysql
	} {
		if strings.Contains(msg, s) {
			return fmt.Errorf("%s: %w", what, apperr.ErrNotFound)
		}
	}
	return err
}

// lockShared проверяет, что строка есть, и держит её от удаления до конца транзакции.
// SQLite блокировку строк не поддерживает; там запись и так одна за раз.
func lockShared(db *gorm.DB, value any, id, what string) error {
	var ids []string
	err := db.Model(value).
		Clauses(clause.Locking{Strength: clause.LockingStrengthShare}).
		Where("id = ?", id).
		Limit(1).
		Pluck("id", &ids).Error
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return fmt.Errorf("%s %s: %w", what, id, apperr.ErrNotFound)
	}
	return nil
}
