package rollup

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

// Configuration keys, also used as flag names.
const (
	KeyServerURL          = "server-url"
	KeyVerifyingKey       = "verifying-key"
	KeyLedgerPath         = "ledger-path"
	KeyAPIAddr            = "api-addr"
	KeyCoordinatorTimeout = "coordinator-timeout"
	KeyLogLevel           = "log-level"
	KeyLogFormat          = "log-format"

	// EnvServerURL is the coordinator base URL variable.
	EnvServerURL = "ROLLUP_HTTP_SERVER_URL"
	envPrefix    = "AGE_ROLLUP"
)

// ErrMissingServerURL is returned when no coordinator URL is configured.
var ErrMissingServerURL = errors.New(EnvServerURL + " is not set")

// Config is the runtime configuration of the rollup process.
type Config struct {
	ServerURL          string
	VerifyingKey       string
	LedgerPath         string
	APIAddr            string
	CoordinatorTimeout time.Duration
	LogLevel           string
	LogFormat          string
}

// NewViper returns a viper instance with defaults and environment bindings
// for every configuration key.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault(KeyVerifyingKey, "eligibility_vk.bin")
	v.SetDefault(KeyLedgerPath, "age_rollup_ledger.db")
	v.SetDefault(KeyAPIAddr, ":8080")
	v.SetDefault(KeyCoordinatorTimeout, "30s")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "console")

	// the coordinator URL keeps the name the rollup node exports
	_ = v.BindEnv(KeyServerURL, EnvServerURL)
	return v
}

// LoadDotEnv loads variables from the given .env files, or ./.env when none
// are given. A missing default file is not an error.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		if _, err := os.Stat(".env"); errors.Is(err, os.ErrNotExist) {
			return nil
		}
	}
	if err := godotenv.Load(files...); err != nil {
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}

// LoadConfig reads the configuration from v. A missing coordinator URL is
// fatal.
func LoadConfig(v *viper.Viper) (Config, error) {
	timeout, err := cast.ToDurationE(v.Get(KeyCoordinatorTimeout))
	if err != nil {
		return Config{}, fmt.Errorf("invalid %s: %w", KeyCoordinatorTimeout, err)
	}
	if timeout < 0 {
		return Config{}, fmt.Errorf("invalid %s: negative duration %s", KeyCoordinatorTimeout, timeout)
	}

	cfg := Config{
		ServerURL:          strings.TrimSpace(v.GetString(KeyServerURL)),
		VerifyingKey:       v.GetString(KeyVerifyingKey),
		LedgerPath:         v.GetString(KeyLedgerPath),
		APIAddr:            v.GetString(KeyAPIAddr),
		CoordinatorTimeout: timeout,
		LogLevel:           v.GetString(KeyLogLevel),
		LogFormat:          v.GetString(KeyLogFormat),
	}
	if cfg.ServerURL == "" {
		return Config{}, ErrMissingServerURL
	}
	return cfg, nil
}
