package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Access   AccessConfig   `mapstructure:"access"`
	Billing  BillingConfig  `mapstructure:"billing"`
	Worker   WorkerConfig   `mapstructure:"worker"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

type DatabaseConfig struct {
	URL            string `mapstructure:"url"`
	MaxConnections int    `mapstructure:"max_connections"`
}

type JWTConfig struct {
	Secret          string        `mapstructure:"secret"`
	AccessTokenTTL  time.Duration `mapstructure:"access_token_ttl"`
	RefreshTokenTTL time.Duration `mapstructure:"refresh_token_ttl"`
}

// FailMode controls what a gate does when its backing reads fail.
// "open" admits the request, "closed" blocks it.
type FailMode string

const (
	FailOpen   FailMode = "open"
	FailClosed FailMode = "closed"
)

type AccessConfig struct {
	ProtectedPrefixes []string `mapstructure:"protected_prefixes"`
	PublicPaths       []string `mapstructure:"public_paths"`
	PublicPrefixes    []string `mapstructure:"public_prefixes"`
	LoginPath         string   `mapstructure:"login_path"`
	OnboardingPath    string   `mapstructure:"onboarding_path"`
	TrialExpiredPath  string   `mapstructure:"trial_expired_path"`
	// Paths reachable while onboarding is pending resp. while the
	// subscription gate denies, so users can actually finish
	// provisioning or fix their billing.
	OnboardingExempt   []string `mapstructure:"onboarding_exempt"`
	TrialExpiredExempt []string `mapstructure:"trial_expired_exempt"`
	GateFailMode       FailMode `mapstructure:"gate_fail_mode"`
}

type BillingConfig struct {
	TrialDays   int            `mapstructure:"trial_days"`
	PlanAmounts map[string]int `mapstructure:"plan_amounts"`
}

type WorkerConfig struct {
	ReconcileInterval time.Duration `mapstructure:"reconcile_interval"`
}

type LoggingConfig struct {
	Level    string `mapstructure:"level"`
	Format   string `mapstructure:"format"`
	Output   string `mapstructure:"output"`
	FilePath string `mapstructure:"file_path"`
}

func Load(path string) (*Config, error) {
	viper.SetConfigFile(path)
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("jwt.access_token_ttl", "15m")
	viper.SetDefault("jwt.refresh_token_ttl", "720h")
	viper.SetDefault("access.protected_prefixes", []string{"/api/v1", "/dashboard"})
	viper.SetDefault("access.public_prefixes", []string{"/api/v1/auth/", "/auth/"})
	viper.SetDefault("access.public_paths", []string{"/", "/login", "/signup", "/api/v1/health"})
	viper.SetDefault("access.login_path", "/login")
	viper.SetDefault("access.onboarding_path", "/onboarding")
	viper.SetDefault("access.trial_expired_path", "/trial-expired")
	viper.SetDefault("access.onboarding_exempt", []string{"/api/v1/onboarding", "/api/v1/me"})
	viper.SetDefault("access.trial_expired_exempt", []string{"/api/v1/billing", "/api/v1/me"})
	viper.SetDefault("access.gate_fail_mode", string(FailOpen))
	viper.SetDefault("billing.trial_days", 30)
	viper.SetDefault("billing.plan_amounts", map[string]int{
		"starter":      29,
		"professional": 79,
		"enterprise":   199,
	})
	viper.SetDefault("worker.reconcile_interval", "15m")
}
