// Package config carga la configuración del servicio.
//
// Precedencia (mayor a menor): flags de CLI > variables de entorno > archivo YAML > defaults.
// Un archivo .env en el directorio actual se carga antes de leer el entorno (solo dev).
//
// Variables de entorno: prefijo HEALTHINV_ con "_" como separador de anidamiento
// (HEALTHINV_STORAGE_DRIVER, HEALTHINV_HTTP_PORT, ...). Por compatibilidad se aceptan
// también PORT, DB_DSN, LOG_LEVEL, LOG_FORMAT y APP_NAME.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const EnvPrefix = "HEALTHINV"

type Config struct {
	HTTP      HTTPConfig      `mapstructure:"http"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Log       LogConfig       `mapstructure:"log"`
	AgeGroups AgeGroupsConfig `mapstructure:"age_groups"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

type HTTPConfig struct {
	Port         int           `mapstructure:"port" validate:"min=1,max=65535"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout" validate:"gt=0"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" validate:"gt=0"`
}

// StorageConfig define el backend de persistencia.
// Driver vacío se resuelve en Load. memory no necesita DSN; postgres usa un DSN de pgx;
// sqlite una ruta de archivo o ":memory:".
type StorageConfig struct {
	Driver      string `mapstructure:"driver" validate:"oneof=memory postgres sqlite"`
	DSN         string `mapstructure:"dsn" validate:"required_unless=Driver memory"`
	AutoMigrate bool   `mapstructure:"auto_migrate"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" validate:"omitempty,oneof=debug info warn warning error"`
	Format string `mapstructure:"format" validate:"omitempty,oneof=text json"`
	App    string `mapstructure:"app"`
}

// AgeGroupsConfig: si DirectoryURL está vacío se usa el directorio local (tabla age_groups).
type AgeGroupsConfig struct {
	DirectoryURL string        `mapstructure:"directory_url" validate:"omitempty,url"`
	APIKey       string        `mapstructure:"api_key"`
	Timeout      time.Duration `mapstructure:"timeout"`
	CacheTTL     time.Duration `mapstructure:"cache_ttl"`
}

// AuthConfig: si IAMBaseURL está vacío el servicio corre en modo dev (X-Debug-User-ID).
type AuthConfig struct {
	IAMBaseURL string        `mapstructure:"iam_base_url" validate:"omitempty,url"`
	APIKey     string        `mapstructure:"api_key" validate:"required_with=IAMBaseURL"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// Defaults devuelve los valores base para desarrollo local (el driver lo resuelve Load).
func Defaults() Config {
	return Config{
		HTTP: HTTPConfig{
			Port:         8080,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		Storage: StorageConfig{
			AutoMigrate: true,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
			App:    "health-inventory",
		},
		AgeGroups: AgeGroupsConfig{
			Timeout:  5 * time.Second,
			CacheTTL: 5 * time.Minute,
		},
		Auth: AuthConfig{
			Timeout: 5 * time.Second,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// Load lee .env (si existe), el archivo YAML opcional y el entorno, y valida el resultado.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config: load .env: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	d := Defaults()
	v.SetDefault("http.port", d.HTTP.Port)
	v.SetDefault("http.read_timeout", d.HTTP.ReadTimeout)
	v.SetDefault("http.write_timeout", d.HTTP.WriteTimeout)
	v.SetDefault("storage.driver", d.Storage.Driver)
	v.SetDefault("storage.dsn", d.Storage.DSN)
	v.SetDefault("storage.auto_migrate", d.Storage.AutoMigrate)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("log.app", d.Log.App)
	v.SetDefault("age_groups.directory_url", d.AgeGroups.DirectoryURL)
	v.SetDefault("age_groups.api_key", d.AgeGroups.APIKey)
	v.SetDefault("age_groups.timeout", d.AgeGroups.Timeout)
	v.SetDefault("age_groups.cache_ttl", d.AgeGroups.CacheTTL)
	v.SetDefault("auth.iam_base_url", d.Auth.IAMBaseURL)
	v.SetDefault("auth.api_key", d.Auth.APIKey)
	v.SetDefault("auth.timeout", d.Auth.Timeout)
	v.SetDefault("metrics.enabled", d.Metrics.Enabled)

	// Nombres heredados; el prefijado sigue teniendo prioridad.
	legacy := map[string]string{
		"http.port":   "PORT",
		"storage.dsn": "DB_DSN",
		"log.level":   "LOG_LEVEL",
		"log.format":  "LOG_FORMAT",
		"log.app":     "APP_NAME",
	}
	for key, name := range legacy {
		prefixed := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, name); err != nil {
			return nil, fmt.Errorf("config: bind env %s: %w", name, err)
		}
	}

	if strings.TrimSpace(path) != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	// Sin driver explícito: con DSN asumimos postgres, sin DSN memoria.
	if strings.TrimSpace(cfg.Storage.Driver) == "" {
		cfg.Storage.Driver = "memory"
		if strings.TrimSpace(cfg.Storage.DSN) != "" {
			cfg.Storage.Driver = "postgres"
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate aplica las reglas declaradas en los tags `validate`.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			parts := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				parts = append(parts, fmt.Sprintf("%s: failed %s", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("config: invalid: %s", strings.Join(parts, "; "))
		}
		return fmt.Errorf("config: invalid: %w", err)
	}
	return nil
}

func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.HTTP.Port)
}
