package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/microblog/internal/flagx"
	"github.com/dmitrijs2005/microblog/internal/timex"
)

// JsonConfig is the on-disk shape of the config file. Pointer fields let a
// file override only the keys it mentions.
type JsonConfig struct {
	EndpointAddrGRPC             *string         `json:"endpoint_addr_grpc"`
	DatabaseDSN                  *string         `json:"database_dsn"`
	LogLevel                     *string         `json:"log_level"`
	SecretKey                    *string         `json:"secret_key"`
	SessionTokenValidityDuration *timex.Duration `json:"session_token_validity_duration"`
	BcryptCost                   *int            `json:"bcrypt_cost"`
	MinPasswordLength            *int            `json:"min_password_length"`
	MaxNameLength                *int            `json:"max_name_length"`
	MaxMicropostLength           *int            `json:"max_micropost_length"`
	DefaultPageSize              *int            `json:"default_page_size"`
	MaxPageSize                  *int            `json:"max_page_size"`
	AllowSelfFollow              *bool           `json:"allow_self_follow"`
	MetricsAddr                  *string         `json:"metrics_addr"`
	LoginRateLimit               *float64        `json:"login_rate_limit"`
	LoginRateBurst               *int            `json:"login_rate_burst"`
	AdminEmails                  *[]string       `json:"admin_emails"`
}

// parseJson overlays the file given by -c/-config onto config. Without the
// flag nothing happens; an unreadable or invalid file panics.
func parseJson(config *Config, args []string) {
	path := flagx.ConfigFilePath(args)
	if path == "" {
		return
	}

	file, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setIf(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setIf(&config.DatabaseDSN, c.DatabaseDSN)
	setIf(&config.LogLevel, c.LogLevel)
	setIf(&config.SecretKey, c.SecretKey)
	if c.SessionTokenValidityDuration != nil {
		config.SessionTokenValidityDuration = c.SessionTokenValidityDuration.Duration
	}
	setIf(&config.BcryptCost, c.BcryptCost)
	setIf(&config.MinPasswordLength, c.MinPasswordLength)
	setIf(&config.MaxNameLength, c.MaxNameLength)
	setIf(&config.MaxMicropostLength, c.MaxMicropostLength)
	setIf(&config.DefaultPageSize, c.DefaultPageSize)
	setIf(&config.MaxPageSize, c.MaxPageSize)
	setIf(&config.AllowSelfFollow, c.AllowSelfFollow)
	setIf(&config.MetricsAddr, c.MetricsAddr)
	setIf(&config.LoginRateLimit, c.LoginRateLimit)
	setIf(&config.LoginRateBurst, c.LoginRateBurst)
	setIf(&config.AdminEmails, c.AdminEmails)
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}
