package db

import (
	"fmt"

	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/zulandar/gramportal/internal/config"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DSN builds a MySQL DSN for the portal database.
func DSN(user, host string, port int, database string) string {
	c := mysqldriver.NewConfig()
	c.User = user
	c.Net = "tcp"
	c.Addr = fmt.Sprintf("%s:%d", host, port)
	c.DBName = database
	c.ParseTime = true
	return c.FormatDSN()
}

// Dialector returns the gorm dialector selected by the store configuration.
func Dialector(sc config.StoreConfig) (gorm.Dialector, error) {
	switch sc.Driver {
	case "", "sqlite":
		return sqlite.Open(sc.Path), nil
	case "mysql":
		return mysql.Open(DSN(sc.User, sc.Host, sc.Port, sc.Database)), nil
	default:
		return nil, fmt.Errorf("db: unsupported driver %q", sc.Driver)
	}
}

// Connect opens a GORM connection to the configured store.
func Connect(sc config.StoreConfig) (*gorm.DB, error) {
	dialector, err := Dialector(sc)
	if err != nil {
		return nil, err
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("db: connect (%s): %w", describe(sc), err)
	}
	return db, nil
}

// OpenMemory opens a private in-memory SQLite database.
func OpenMemory() (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("db: open memory: %w", err)
	}
	// Every pooled connection would otherwise see its own empty database.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("db: open memory: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}

// ConnectAdmin opens a GORM connection to the MySQL server without selecting
// a database, used for CREATE DATABASE operations.
func ConnectAdmin(sc config.StoreConfig) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(DSN(sc.User, sc.Host, sc.Port, "")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("db: admin connect to %s:%d: %w", sc.Host, sc.Port, err)
	}
	return db, nil
}

// DropDatabase drops the named database if it exists.
func DropDatabase(adminDB *gorm.DB, name string) error {
	sql := fmt.Sprintf("DROP DATABASE IF EXISTS `%s`", name)
	if err := adminDB.Exec(sql).Error; err != nil {
		return fmt.Errorf("db: drop database %s: %w", name, err)
	}
	return nil
}

// CreateDatabase creates the named database if it doesn't already exist.
func CreateDatabase(adminDB *gorm.DB, name string) error {
	sql := fmt.Sprintf("CREATE DATABASE IF NOT EXISTS `%s`", name)
	if err := adminDB.Exec(sql).Error; err != nil {
		return fmt.Errorf("db: create database %s: %w", name, err)
	}
	return nil
}

func describe(sc config.StoreConfig) string {
	if sc.Driver == "mysql" {
		return fmt.Sprintf("mysql %s:%d/%s", sc.Host, sc.Port, sc.Database)
	}
	return "sqlite " + sc.Path
}
