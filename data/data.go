// Package data manages the database and redis connections.
package data

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
	"github.com/redis/go-redis/v9"

	"github.com/ncobase/passport/config"
)

// Data holds the shared connections.
type Data struct {
	DB *sql.DB
	RC *redis.Client
}

// New connects to the configured database and redis instance and returns a
// cleanup function that closes both.
func New(c *config.Data) (*Data, func(), error) {
	db, err := newDB(c.Database)
	if err != nil {
		return nil, nil, err
	}

	rc, err := newRedis(c.Redis)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}

	d := &Data{DB: db, RC: rc}
	cleanup := func() {
		_ = d.DB.Close()
		if d.RC != nil {
			_ = d.RC.Close()
		}
	}
	return d, cleanup, nil
}

func newDB(c *config.DBNode) (*sql.DB, error) {
	if c == nil {
		return nil, fmt.Errorf("data: database config is required")
	}
	driver := c.Driver
	if driver == "postgres" {
		driver = "pgx"
	}
	db, err := sql.Open(driver, c.Source)
	if err != nil {
		return nil, fmt.Errorf("data: opening %s database: %w", c.Driver, err)
	}
	db.SetMaxIdleConns(c.MaxIdleConn)
	db.SetMaxOpenConns(c.MaxOpenConn)
	db.SetConnMaxLifetime(c.ConnMaxLifeTime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("data: pinging database: %w", err)
	}
	return db, nil
}

func newRedis(c *config.Redis) (*redis.Client, error) {
	if c == nil || c.Addr == "" {
		return nil, nil
	}
	rc := redis.NewClient(&redis.Options{
		Addr:         c.Addr,
		Username:     c.Username,
		Password:     c.Password,
		DB:           c.Db,
		ReadTimeout:  c.ReadTimeout,
		WriteTimeout: c.WriteTimeout,
		DialTimeout:  c.DialTimeout,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rc.Ping(ctx).Err(); err != nil {
		_ = rc.Close()
		return nil, fmt.Errorf("data: connecting redis: %w", err)
	}
	return rc, nil
}

// Ping verifies both connections, for health reporting.
func (d *Data) Ping(ctx context.Context) error {
	if err := d.DB.PingContext(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if d.RC != nil {
		if err := d.RC.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
	}
	return nil
}
