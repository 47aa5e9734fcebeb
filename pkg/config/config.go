// Package config builds runtime configuration from a YAML file, FINSCOPE_*
// environment variables and command-line flags, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config is the resolved runtime configuration.
type Config struct {
	// APIBaseURL is the upstream finance API root.
	APIBaseURL string
	// HeadersFile points at a JSON object of the credential headers to replay.
	HeadersFile string
	// DBPath is the sqlite file backing the persistent cache.
	DBPath string
	// CacheTTL is how long a cached dataset stays valid.
	CacheTTL time.Duration
	// CredentialWait bounds how long a fetch waits for credentials.
	CredentialWait time.Duration
	// ExcludeCategoryIDs are globally excluded from every expense
	// aggregation (internal transfers and the like).
	ExcludeCategoryIDs []string
	// BudgetRootIDs name the roots whose flows feed the Budget node.
	BudgetRootIDs []string
	// ListenAddr is the HTTP server bind address.
	ListenAddr string
	// ProfilesFile is an optional report-profiles YAML file.
	ProfilesFile string
}

// Build loads configuration. cfgFile overrides discovery; flags, when given,
// take precedence over file and environment.
func Build(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	v.SetDefault("api-url", "")
	v.SetDefault("headers-file", "")
	v.SetDefault("db-path", "finscope.db")
	v.SetDefault("cache-ttl", 2*time.Minute)
	v.SetDefault("credential-wait", 30*time.Second)
	v.SetDefault("exclude-categories", []string{})
	v.SetDefault("budget-roots", []string{})
	v.SetDefault("listen", "0.0.0.0:3000")
	v.SetDefault("profiles", "")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("finscope")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/finscope")
	}

	v.SetEnvPrefix("FINSCOPE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	return &Config{
		APIBaseURL:         v.GetString("api-url"),
		HeadersFile:        v.GetString("headers-file"),
		DBPath:             v.GetString("db-path"),
		CacheTTL:           v.GetDuration("cache-ttl"),
		CredentialWait:     v.GetDuration("credential-wait"),
		ExcludeCategoryIDs: v.GetStringSlice("exclude-categories"),
		BudgetRootIDs:      v.GetStringSlice("budget-roots"),
		ListenAddr:         v.GetString("listen"),
		ProfilesFile:       v.GetString("profiles"),
	}, nil
}
