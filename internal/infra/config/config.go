package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// AppConfig is the single configuration object handed to the application at
// startup.
type AppConfig struct {
	App       AppSettings       `mapstructure:"app"`
	Discord   DiscordSettings   `mapstructure:"discord"`
	Postgres  PostgresSettings  `mapstructure:"postgres"`
	Redis     RedisSettings     `mapstructure:"redis"`
	Cooldown  CooldownSettings  `mapstructure:"cooldown"`
	Assets    AssetSettings     `mapstructure:"assets"`
	Argon2    Argon2Settings    `mapstructure:"argon2"`
	Telemetry TelemetrySettings `mapstructure:"telemetry"`
}

type AppSettings struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"`
}

// DiscordSettings configures the bot session and the privilege boundary.
type DiscordSettings struct {
	Token       string `mapstructure:"token"`
	GuildID     string `mapstructure:"guild_id"`
	AdminRoleID string `mapstructure:"admin_role_id"`
}

type PostgresSettings struct {
	Host              string        `mapstructure:"host"`
	Port              int           `mapstructure:"port"`
	User              string        `mapstructure:"user"`
	Password          string        `mapstructure:"password"`
	Database          string        `mapstructure:"database"`
	SSLMode           string        `mapstructure:"ssl_mode"`
	MaxConns          int32         `mapstructure:"max_conns"`
	MinConns          int32         `mapstructure:"min_conns"`
	MaxConnLifetime   time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime   time.Duration `mapstructure:"max_conn_idle_time"`
	HealthCheckPeriod time.Duration `mapstructure:"health_check_period"`
}

// RedisSettings configures the optional cooldown backend. An empty host
// disables Redis and the register cooldown with it.
type RedisSettings struct {
	Host       string `mapstructure:"host"`
	Port       int    `mapstructure:"port"`
	DB         int    `mapstructure:"db"`
	Password   string `mapstructure:"password"`
	TLSEnabled bool   `mapstructure:"tls_enabled"`
	KeyPrefix  string `mapstructure:"key_prefix"`
}

// CooldownSettings throttles repeated self-registration per user.
type CooldownSettings struct {
	Register time.Duration `mapstructure:"register"`
}

// AssetSettings selects and configures the cosmetic asset backend.
type AssetSettings struct {
	Backend   string     `mapstructure:"backend"` // "filesystem" or "s3"
	SkinsDir  string     `mapstructure:"skins_dir"`
	CloaksDir string     `mapstructure:"cloaks_dir"`
	TempDir   string     `mapstructure:"temp_dir"`
	S3        S3Settings `mapstructure:"s3"`
}

// S3Settings configures the S3-compatible asset backend.
type S3Settings struct {
	Endpoint    string `mapstructure:"endpoint"`
	Region      string `mapstructure:"region"`
	Bucket      string `mapstructure:"bucket"`
	AccessKey   string `mapstructure:"access_key"`
	SecretKey   string `mapstructure:"secret_key"`
	SkinPrefix  string `mapstructure:"skin_prefix"`
	CloakPrefix string `mapstructure:"cloak_prefix"`
}

// Argon2Settings configures Argon2id password hashing parameters.
type Argon2Settings struct {
	Memory      uint32 `mapstructure:"memory"`
	Iterations  uint32 `mapstructure:"iterations"`
	Parallelism uint8  `mapstructure:"parallelism"`
	SaltLength  uint32 `mapstructure:"salt_length"`
	KeyLength   uint32 `mapstructure:"key_length"`
}

// TelemetrySettings configures the ops HTTP listener.
type TelemetrySettings struct {
	OpsAddr string `mapstructure:"ops_addr"`
}

// Load reads configuration from the environment with sane defaults.
func Load() (*AppConfig, error) {
	v := viper.New()

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix("BOT")

	setDefaults(v)

	if err := bindEnvs(v, []string{
		"app.name",
		"app.env",
		"discord.token",
		"discord.guild_id",
		"discord.admin_role_id",
		"postgres.host",
		"postgres.port",
		"postgres.user",
		"postgres.password",
		"postgres.database",
		"postgres.ssl_mode",
		"postgres.max_conns",
		"postgres.min_conns",
		"postgres.max_conn_lifetime",
		"postgres.max_conn_idle_time",
		"postgres.health_check_period",
		"redis.host",
		"redis.port",
		"redis.db",
		"redis.password",
		"redis.tls_enabled",
		"redis.key_prefix",
		"cooldown.register",
		"assets.backend",
		"assets.skins_dir",
		"assets.cloaks_dir",
		"assets.temp_dir",
		"assets.s3.endpoint",
		"assets.s3.region",
		"assets.s3.bucket",
		"assets.s3.access_key",
		"assets.s3.secret_key",
		"assets.s3.skin_prefix",
		"assets.s3.cloak_prefix",
		"argon2.memory",
		"argon2.iterations",
		"argon2.parallelism",
		"argon2.salt_length",
		"argon2.key_length",
		"telemetry.ops_addr",
	}); err != nil {
		return nil, err
	}

	v.AutomaticEnv()

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

// Validate fails fast on the values the bot cannot run without.
func (c *AppConfig) Validate() error {
	var problems []string
	if strings.TrimSpace(c.Discord.Token) == "" {
		problems = append(problems, "discord token is not set (BOT_DISCORD_TOKEN)")
	}
	if strings.TrimSpace(c.Discord.AdminRoleID) == "" {
		problems = append(problems, "admin role id is not set (BOT_DISCORD_ADMIN_ROLE_ID)")
	}
	if strings.TrimSpace(c.Postgres.Password) == "" {
		problems = append(problems, "database password is not set (BOT_POSTGRES_PASSWORD)")
	}
	if c.Assets.Backend != "filesystem" && c.Assets.Backend != "s3" {
		problems = append(problems, fmt.Sprintf("unknown assets backend %q", c.Assets.Backend))
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "launcher-bot")
	v.SetDefault("app.env", "development")

	v.SetDefault("discord.guild_id", "")

	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.user", "launcher")
	v.SetDefault("postgres.password", "")
	v.SetDefault("postgres.database", "launcher")
	v.SetDefault("postgres.ssl_mode", "disable")
	v.SetDefault("postgres.max_conns", 10)
	v.SetDefault("postgres.min_conns", 2)
	v.SetDefault("postgres.max_conn_lifetime", "60m")
	v.SetDefault("postgres.max_conn_idle_time", "15m")
	v.SetDefault("postgres.health_check_period", "30s")

	v.SetDefault("redis.host", "")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.tls_enabled", false)
	v.SetDefault("redis.key_prefix", "bot:cooldown")

	v.SetDefault("cooldown.register", "1m")

	v.SetDefault("assets.backend", "filesystem")
	v.SetDefault("assets.skins_dir", "/var/www/site/skins")
	v.SetDefault("assets.cloaks_dir", "/var/www/site/cloaks")
	v.SetDefault("assets.temp_dir", "")
	v.SetDefault("assets.s3.region", "us-east-1")
	v.SetDefault("assets.s3.skin_prefix", "skins")
	v.SetDefault("assets.s3.cloak_prefix", "cloaks")

	v.SetDefault("argon2.memory", 65536)
	v.SetDefault("argon2.iterations", 3)
	v.SetDefault("argon2.parallelism", 4)
	v.SetDefault("argon2.salt_length", 16)
	v.SetDefault("argon2.key_length", 32)

	v.SetDefault("telemetry.ops_addr", ":9090")
}

func bindEnvs(v *viper.Viper, keys []string) error {
	for _, key := range keys {
		envKey := strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, "BOT_"+envKey, envKey); err != nil {
			return fmt.Errorf("bind env for %s: %w", key, err)
		}
	}
	return nil
}
