package config

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spf13/viper"
)

type HTTP struct {
	Host              string
	Port              int
	ReadTimeoutSec    int
	WriteTimeoutSec   int
	IdleTimeoutSec    int
	RequestTimeoutSec int
	MaxBodyMB         int
	RatePerSec        float64
	RateBurst         int
	MaxInFlight       int64
}
type AdminHTTP struct {
	Host string
	Port int
}

type App struct {
	Name        string
	Env         string
	HTTP        HTTP
	Admin       AdminHTTP
	CORSOrigins []string `mapstructure:"corsOrigins"`
}

type Log struct {
	Level      string
	JSON       bool
	File       string // 为空时只写 stdout
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

type JWT struct {
	Secret            string
	Issuer            string
	AccessTokenTTLMin int
}

type Redis struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type DB struct {
	Driver             string
	DSN                string
	Username           string
	Password           string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeMin int
	AutoMigrate        bool
	LogLevel           string
	// Schema legacy 时只迁移旧表，用来模拟尚未升级的库
	Schema string
}

type RabbitMQ struct {
	Enabled  bool
	URL      string
	Prefetch int
}

type AI struct {
	Provider   string // gemini | openai | 空=禁用
	Model      string
	PDFLicense string `mapstructure:"pdfLicense"`
	OpenAI     struct {
		APIKey  string `mapstructure:"apiKey"`
		BaseURL string `mapstructure:"baseURL"`
	}
	Gemini struct {
		Project  string
		Location string
	}
}

type Google struct {
	CredentialsFile string `mapstructure:"credentialsFile"`
	Sender          string
	CalendarID      string `mapstructure:"calendarID"`
}

type Storage struct {
	Root string
}

type Seed struct {
	AdminEmail    string `mapstructure:"adminEmail"`
	AdminPassword string `mapstructure:"adminPassword"`
}

type Config struct {
	App      App
	Log      Log
	JWT      JWT
	DB       DB
	Redis    Redis    `mapstructure:"redis"`
	RabbitMQ RabbitMQ `mapstructure:"rabbitmq"`
	AI       AI
	Google   Google
	Storage  Storage
	Seed     Seed
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "ats-pipeline")
	v.SetDefault("app.env", "local")
	v.SetDefault("app.http.port", 8080)
	v.SetDefault("app.http.readTimeoutSec", 10)
	v.SetDefault("app.http.writeTimeoutSec", 30)
	v.SetDefault("app.http.idleTimeoutSec", 60)
	v.SetDefault("app.http.requestTimeoutSec", 15)
	v.SetDefault("app.http.maxBodyMB", 12)
	v.SetDefault("app.http.ratePerSec", 20)
	v.SetDefault("app.http.rateBurst", 40)
	v.SetDefault("app.http.maxInFlight", 256)
	v.SetDefault("app.admin.port", 8081)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.maxSizeMB", 100)
	v.SetDefault("log.maxBackups", 7)
	v.SetDefault("log.maxAgeDays", 30)
	v.SetDefault("jwt.issuer", "ats-pipeline")
	v.SetDefault("jwt.accessTokenTTLMin", 120)
	v.SetDefault("db.maxOpenConns", 20)
	v.SetDefault("db.maxIdleConns", 5)
	v.SetDefault("db.connMaxLifetimeMin", 30)
	v.SetDefault("db.logLevel", "warn")
	v.SetDefault("db.schema", "current")
	v.SetDefault("rabbitmq.prefetch", 4)
	v.SetDefault("storage.root", "./data/files")
	v.SetDefault("google.calendarID", "primary")
}

// LoadE 读取 YAML + APP_ 前缀环境变量
func LoadE(path string) (*Config, error) {
	v := viper.New()
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
		if path == "" {
			path = "./configs/config.local.yaml"
		}
	}
	setDefaults(v)
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("APP")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func Load(path string) *Config {
	c, err := LoadE(path)
	if err != nil {
		log.Fatalf("%v", err)
	}
	return c
}

func (c *Config) validate() error {
	if c.JWT.Secret == "" {
		return fmt.Errorf("config: jwt.secret is required")
	}
	switch c.DB.Driver {
	case "mysql", "postgres":
	default:
		return fmt.Errorf("config: unsupported db.driver %q", c.DB.Driver)
	}
	switch c.DB.Schema {
	case "current", "legacy":
	default:
		return fmt.Errorf("config: db.schema must be current or legacy")
	}
	switch c.AI.Provider {
	case "", "gemini", "openai":
	default:
		return fmt.Errorf("config: unknown ai.provider %q", c.AI.Provider)
	}
	if c.RabbitMQ.Enabled && c.RabbitMQ.URL == "" {
		return fmt.Errorf("config: rabbitmq.url is required when enabled")
	}
	return nil
}
