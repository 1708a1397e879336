package config

import (
	"time"

	"github.com/spf13/viper"
)

// Auth auth config struct
type Auth struct {
	JWT       *JWT
	Whitelist []string
	Bootstrap *Bootstrap
}

// getAuth returns the auth config.
func getAuth(v *viper.Viper) *Auth {
	return &Auth{
		JWT:       getJWT(v),
		Whitelist: v.GetStringSlice("auth.whitelist"),
		Bootstrap: getBootstrap(v),
	}
}

// JWT jwt config struct
type JWT struct {
	Secret        string
	AccessExpire  time.Duration
	RefreshExpire time.Duration
}

// getJWT returns the jwt config.
func getJWT(v *viper.Viper) *JWT {
	v.SetDefault("auth.jwt.access_expire", "24h")
	v.SetDefault("auth.jwt.refresh_expire", "168h")
	return &JWT{
		Secret:        v.GetString("auth.jwt.secret"),
		AccessExpire:  v.GetDuration("auth.jwt.access_expire"),
		RefreshExpire: v.GetDuration("auth.jwt.refresh_expire"),
	}
}

// Bootstrap controls seeding of an initial admin account on an empty store.
type Bootstrap struct {
	Enabled  bool
	Username string
	Email    string
	Password string
}

func getBootstrap(v *viper.Viper) *Bootstrap {
	return &Bootstrap{
		Enabled:  v.GetBool("auth.bootstrap.enabled"),
		Username: v.GetString("auth.bootstrap.username"),
		Email:    v.GetString("auth.bootstrap.email"),
		Password: v.GetString("auth.bootstrap.password"),
	}
}
