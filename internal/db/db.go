package db

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// DB 是一个全局的数据库连接实例
var DB *gorm.DB

// ErrUnsupportedDriver 表示驱动既不是 sqlite 也不是 postgres
var ErrUnsupportedDriver = errors.New("unsupported database driver")

// Init 初始化数据库连接并执行自动迁移。
// dsn 为空时 sqlite 将回退到默认值 storefront.db。
func Init(driver, dsn string) error {
	conn, err := Open(driver, dsn, &gorm.Config{})
	if err != nil {
		return err
	}
	if err := Migrate(conn); err != nil {
		return err
	}
	DB = conn
	return nil
}

// Open 根据驱动名称建立连接，不执行迁移。
func Open(driver, dsn string, cfg *gorm.Config) (*gorm.DB, error) {
	dsn = strings.TrimSpace(dsn)
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", "sqlite":
		if dsn == "" {
			dsn = "storefront.db"
		}
		if !strings.HasPrefix(dsn, "file:") && !strings.Contains(dsn, ":memory:") {
			if err := ensureParentDir(dsn); err != nil {
				return nil, err
			}
		}
		return gorm.Open(sqlite.Open(dsn), cfg)
	case "postgres":
		if dsn == "" {
			return nil, errors.New("postgres dsn is required")
		}
		return gorm.Open(postgres.Open(dsn), cfg)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDriver, driver)
	}
}

// Migrate 为全部模型建表。
func Migrate(conn *gorm.DB) error {
	if err := conn.SetupJoinTable(&Collection{}, "Products", &CollectionProduct{}); err != nil {
		return err
	}

	// 自动迁移模式，为核心模型创建表
	if err := conn.AutoMigrate(
		&Page{},
		&Category{},
		&Product{},
		&Collection{},
		&CollectionProduct{},
		&SystemSetting{},
	); err != nil {
		return err
	}

	// 早期版本的空状态值统一视为草稿
	return conn.Model(&Page{}).
		Where("status = '' OR status IS NULL").
		Update("status", PageStatusDraft).Error
}

func ensureParentDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}

	info, err := os.Stat(dir)
	if err == nil {
		if !info.IsDir() {
			return errors.New("database path parent is not a directory")
		}
		return nil
	}

	if os.IsNotExist(err) {
		return os.MkdirAll(dir, 0o755)
	}

	return err
}
