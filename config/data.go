package config

import (
	"time"

	"github.com/spf13/viper"
)

// Data represents the data configuration
type Data struct {
	Database *DBNode
	Redis    *Redis
}

// DBNode represents a database node
type DBNode struct {
	Driver          string
	Source          string
	MaxIdleConn     int
	MaxOpenConn     int
	ConnMaxLifeTime time.Duration
}

// Redis redis config struct
type Redis struct {
	Addr         string
	Username     string
	Password     string
	Db           int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	DialTimeout  time.Duration
}

// getDataConfig returns data config
func getDataConfig(v *viper.Viper) *Data {
	v.SetDefault("data.database.driver", "sqlite3")
	return &Data{
		Database: &DBNode{
			Driver:          v.GetString("data.database.driver"),
			Source:          v.GetString("data.database.source"),
			MaxIdleConn:     v.GetInt("data.database.max_idle_conn"),
			MaxOpenConn:     v.GetInt("data.database.max_open_conn"),
			ConnMaxLifeTime: v.GetDuration("data.database.conn_max_life_time"),
		},
		Redis: &Redis{
			Addr:         v.GetString("data.redis.addr"),
			Username:     v.GetString("data.redis.username"),
			Password:     v.GetString("data.redis.password"),
			Db:           v.GetInt("data.redis.db"),
			ReadTimeout:  v.GetDuration("data.redis.read_timeout"),
			WriteTimeout: v.GetDuration("data.redis.write_timeout"),
			DialTimeout:  v.GetDuration("data.redis.dial_timeout"),
		},
	}
}
