package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

//go:embed config.yml
var embeddedConfig []byte

type JWTConfig struct {
	SecretKey       string        `mapstructure:"secretKey"`
	Issuer          string        `mapstructure:"issuer"`
	Audience        string        `mapstructure:"audience"`
	AccessTokenTTL  time.Duration `mapstructure:"accessTokenTTL"`
	RefreshTokenTTL time.Duration `mapstructure:"refreshTokenTTL"`
}

type PinnedConfig struct {
	Mode     string            `mapstructure:"mode"`
	Category string            `mapstructure:"category"`
	ID       string            `mapstructure:"id"`
	Name     string            `mapstructure:"name"`
	Lat      float64           `mapstructure:"lat"`
	Lon      float64           `mapstructure:"lon"`
	Address  string            `mapstructure:"address"`
	Details  map[string]string `mapstructure:"details"`
}

type NearbyConfig struct {
	OverpassURL        string        `mapstructure:"overpassURL"`
	NominatimURL       string        `mapstructure:"nominatimURL"`
	ContactEmail       string        `mapstructure:"contactEmail"`
	CountryCodes       string        `mapstructure:"countryCodes"`
	RequestTimeout     time.Duration `mapstructure:"requestTimeout"`
	NominatimRateLimit float64       `mapstructure:"nominatimRateLimit"`
	DefaultRadiusKm    float64       `mapstructure:"defaultRadiusKm"`
	MaxRadiusKm        float64       `mapstructure:"maxRadiusKm"`
	HospitalLimit      int           `mapstructure:"hospitalLimit"`
	PharmacyLimit      int           `mapstructure:"pharmacyLimit"`
	CacheTTL           time.Duration `mapstructure:"cacheTTL"`
	DefaultCenter      struct {
		Lat float64 `mapstructure:"lat"`
		Lon float64 `mapstructure:"lon"`
	} `mapstructure:"defaultCenter"`
	Pinned PinnedConfig `mapstructure:"pinned"`
}

type RuleConfig struct {
	Keyword string `mapstructure:"keyword"`
	Advice  string `mapstructure:"advice"`
}

type Config struct {
	Mode     string `mapstructure:"mode"`
	Dotenv   string `mapstructure:"dotenv"`
	Handlers struct {
		Prometheus struct {
			Port string `mapstructure:"port"`
		} `mapstructure:"prometheus"`
	} `mapstructure:"handlers"`
	Repositories struct {
		Postgres struct {
			Host              string `mapstructure:"host"`
			Password          string `mapstructure:"password"`
			Port              string `mapstructure:"port"`
			Username          string `mapstructure:"username"`
			DB                string `mapstructure:"db"`
			SSLMODE           string `mapstructure:"SSLMODE"`
			MAXCONWAITINGTIME int    `mapstructure:"MAXCONWAITINGTIME"`
		} `mapstructure:"postgres"`
	} `mapstructure:"repositories"`
	Server struct {
		HTTPPort       string        `mapstructure:"HTTPPort"`
		Timeout        time.Duration `mapstructure:"HTTPTimeout"`
		AllowedOrigins []string      `mapstructure:"allowedOrigins"`
	} `mapstructure:"server"`
	RateLimit struct {
		AuthRequestsPerMinute int `mapstructure:"authRequestsPerMinute"`
	} `mapstructure:"rateLimit"`
	JWT      JWTConfig    `mapstructure:"jwt"`
	Nearby   NearbyConfig `mapstructure:"nearby"`
	Symptoms struct {
		Rules []RuleConfig `mapstructure:"rules"`
	} `mapstructure:"symptoms"`
}

// InitConfig loads config.yml from the usual locations, falling back to the embedded copy.
// MEDGUIDE_* environment variables override file values, e.g. MEDGUIDE_JWT_SECRETKEY.
func InitConfig() (Config, error) {
	v := viper.New()

	v.AddConfigPath(".")
	v.AddConfigPath("config")
	v.AddConfigPath("/app/config")
	v.AddConfigPath("/usr/local/bin")

	v.SetConfigName("config")
	v.SetConfigType("yml")

	v.SetEnvPrefix("MEDGUIDE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("Warning: Failed to find file-based config: %s. Falling back to embedded config.\n", err)
		if err = v.ReadConfig(bytes.NewReader(embeddedConfig)); err != nil {
			return Config{}, fmt.Errorf("failed to read embedded config: %w", err)
		}
	}

	return unmarshal(v)
}

// Load reads configuration from raw YAML. Environment overrides still apply.
func Load(raw []byte) (Config, error) {
	v := viper.New()
	v.SetConfigType("yml")
	v.SetEnvPrefix("MEDGUIDE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.ReadConfig(bytes.NewReader(raw)); err != nil {
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}
	return unmarshal(v)
}

func unmarshal(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if cfg.JWT.SecretKey == "" {
		return Config{}, fmt.Errorf("jwt.secretKey must be set")
	}
	if cfg.JWT.AccessTokenTTL <= 0 {
		cfg.JWT.AccessTokenTTL = 15 * time.Minute
	}
	if cfg.JWT.RefreshTokenTTL <= 0 {
		cfg.JWT.RefreshTokenTTL = 7 * 24 * time.Hour
	}
	if cfg.Server.Timeout <= 0 {
		cfg.Server.Timeout = 60 * time.Second
	}
	return cfg, nil
}

// Embedded returns the config.yml compiled into the binary.
func Embedded() []byte {
	return embeddedConfig
}
