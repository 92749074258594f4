package structured

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"go.uber.org/zap"
	mysqldriver "gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// Options configures the MySQL connection.
type Options struct {
	Host            string
	Port            int
	Username        string
	Password        string
	Database        string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

// BuildDSN renders a go-sql-driver DSN: username:password@tcp(host:port)/database?params.
func BuildDSN(o Options) string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		o.Username,
		url.QueryEscape(o.Password),
		o.Host,
		o.Port,
		o.Database,
	)
}

func (o Options) validate() error {
	if o.Host == "" {
		return errors.New("host is required")
	}
	if o.Port <= 0 || o.Port > 65535 {
		return fmt.Errorf("invalid port %d", o.Port)
	}
	if o.Database == "" {
		return errors.New("database is required")
	}
	return nil
}

// Open connects to MySQL, applies pool settings and verifies the connection.
func Open(ctx context.Context, o Options, log *zap.Logger) (*gorm.DB, error) {
	if err := o.validate(); err != nil {
		return nil, fmt.Errorf("invalid structured store options: %w", err)
	}

	gdb, err := gorm.Open(mysqldriver.Open(BuildDSN(o)), &gorm.Config{
		Logger: NewGormLogger(log, 200*time.Millisecond),
	})
	if err != nil {
		return nil, fmt.Errorf("connect structured store: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}
	if o.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(o.MaxIdleConns)
	}
	if o.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(o.MaxOpenConns)
	}
	if o.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(o.ConnMaxLifetime)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping structured store: %w", err)
	}
	return gdb, nil
}
