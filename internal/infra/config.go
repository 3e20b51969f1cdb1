package infra

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config — корневая структура конфигурации сервиса.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Zitadel  ZitadelConfig  `mapstructure:"zitadel"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Identity IdentityConfig `mapstructure:"identity"`
	Logger   LoggerConfig   `mapstructure:"logger"`
}

// ServerConfig описывает настройки HTTP-сервера.
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	MetricsPort  int           `mapstructure:"metrics_port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DatabaseConfig описывает подключение к PostgreSQL.
type DatabaseConfig struct {
	URL      string `mapstructure:"url"`
	MaxConns int32  `mapstructure:"max_conns"`
	MinConns int32  `mapstructure:"min_conns"`
}

// RedisConfig описывает подключение к Redis (кэш личностей).
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// ZitadelConfig — доступ к Management API провайдера идентичности.
// Сервис ходит туда под сервисным токеном (PAT), а не под токеном пользователя.
type ZitadelConfig struct {
	Authority      string `mapstructure:"authority"`       // https://<instance>.zitadel.cloud
	OrganizationID string `mapstructure:"organization_id"` // опционально: орг-контекст
	TokenPath      string `mapstructure:"token_path"`      // путь к файлу с PAT
	Token          string
}

// AuthConfig содержит ключ для проверки входящих JWT (RS256).
type AuthConfig struct {
	PublicKeyPath string `mapstructure:"public_key_path"`
	PublicKey     []byte
}

// IdentityConfig настраивает кэш и исходящие вызовы к Zitadel.
type IdentityConfig struct {
	CacheTTL      time.Duration `mapstructure:"cache_ttl"`
	LookupTimeout time.Duration `mapstructure:"lookup_timeout"`
	RateLimit     float64       `mapstructure:"rate_limit"` // запросов в секунду к Management API
	RateBurst     int           `mapstructure:"rate_burst"`
}

// LoggerConfig настраивает поведение zap логгера.
type LoggerConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, console
}

// LoadConfig инициализирует конфигурацию, объединяя значения из файла и ENV.
func LoadConfig() (*Config, error) {
	v := viper.New()

	// 1. Настройка поиска файла
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")

	// 2. ENV перекрывает файл: SERVER_PORT=9000 перекроет server.port
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// 3. Дефолты
	setDefaults(v)

	// 4. Чтение файла
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Файла нет — работаем на ENV и дефолтах
	}

	// 5. Маппинг в структуру
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	// 6. Секреты: сначала смотрим ENV (Docker/K8s), потом файл по пути из конфига
	cfg.Auth.PublicKey = loadSecretResource(cfg.Auth.PublicKeyPath, "AUTH_PUBLIC_KEY_DATA")
	cfg.Zitadel.Token = string(loadSecretResource(cfg.Zitadel.TokenPath, "ZITADEL_TOKEN_DATA"))
	cfg.Zitadel.Token = strings.TrimSpace(cfg.Zitadel.Token)

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.metrics_port", 9090)
	v.SetDefault("server.read_timeout", 5*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("database.max_conns", 15)
	v.SetDefault("database.min_conns", 5)
	v.SetDefault("identity.cache_ttl", 15*time.Minute)
	v.SetDefault("identity.lookup_timeout", 5*time.Second)
	v.SetDefault("identity.rate_limit", 50)
	v.SetDefault("identity.rate_burst", 20)
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")
}

// loadSecretResource — универсальный хелпер: значение из ENV или файла.
func loadSecretResource(path string, envDataKey string) []byte {
	if data := os.Getenv(envDataKey); data != "" {
		return []byte(data)
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			return data
		}
	}
	return nil
}
