package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	JWT      JWTConfig      `mapstructure:"jwt" validate:"required"`
	OSS      OSSConfig      `mapstructure:"oss"`
	Email    EmailConfig    `mapstructure:"email"`
	Queue    QueueConfig    `mapstructure:"queue"`
	CORS     CORSConfig     `mapstructure:"cors"`
	Billing  BillingConfig  `mapstructure:"billing"`
	Premium  PremiumConfig  `mapstructure:"premium"`
	Security SecurityConfig `mapstructure:"security"`
	Sentry   SentryConfig   `mapstructure:"sentry"`
	Log      LogConfig      `mapstructure:"log"`
	Models   []ModelConfig  `mapstructure:"models" validate:"dive"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode" validate:"omitempty,oneof=debug release test"`
}

type DatabaseConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Username     string `mapstructure:"username"`
	Password     string `mapstructure:"password"`
	Database     string `mapstructure:"database"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

type JWTConfig struct {
	Secret      string `mapstructure:"secret" validate:"required"`
	ExpireHours int    `mapstructure:"expire_hours"`
}

type OSSConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	AccessKeySecret string `mapstructure:"access_key_secret"`
	BucketName      string `mapstructure:"bucket_name"`
	ArchivePrefix   string `mapstructure:"archive_prefix"` // webhook 归档目录
}

type EmailConfig struct {
	SMTPHost string `mapstructure:"smtp_host"`
	SMTPPort int    `mapstructure:"smtp_port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

type QueueConfig struct {
	NotificationQueue string `mapstructure:"notification_queue"`
	PremiumChannel    string `mapstructure:"premium_channel"`
	MaxWorkers        int    `mapstructure:"max_workers"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AllowedMethods []string `mapstructure:"allowed_methods"`
	AllowedHeaders []string `mapstructure:"allowed_headers"`
}

// BillingConfig Lemon Squeezy 相关配置
type BillingConfig struct {
	StoreID       string `mapstructure:"store_id"`
	APIKey        string `mapstructure:"api_key"`
	APIURL        string `mapstructure:"api_url" validate:"omitempty,url"`
	WebhookSecret string `mapstructure:"webhook_secret"`
	CallLink      string `mapstructure:"call_link"`
	// key 为小写套餐名，例如 business_monthly
	Tiers map[string]TierBilling `mapstructure:"tiers" validate:"dive"`
}

type TierBilling struct {
	VariantID   int64  `mapstructure:"variant_id" validate:"gte=0"`
	PaymentLink string `mapstructure:"payment_link" validate:"omitempty,url"`
}

type PremiumConfig struct {
	PricingVariant         string `mapstructure:"pricing_variant" validate:"omitempty,oneof=control business-only basic-business"`
	FreeUnsubscribeCredits int    `mapstructure:"free_unsubscribe_credits" validate:"gte=0"`
	WebhookRetentionDays   int    `mapstructure:"webhook_retention_days"`
}

type SecurityConfig struct {
	// 32 字节 hex 编码，用于加密用户 API Key
	EncryptionKey string `mapstructure:"encryption_key" validate:"omitempty,hexadecimal,len=64"`
}

type SentryConfig struct {
	DSN         string `mapstructure:"dsn"`
	Environment string `mapstructure:"environment"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type ModelConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	DisplayName string `mapstructure:"display_name"`
	Provider    string `mapstructure:"provider" validate:"required"`
	APIKey      string `mapstructure:"api_key"`
	Description string `mapstructure:"description"`
}

func Load(configPath string) (*Config, error) {
	// .env 不存在时忽略
	_ = godotenv.Load()

	// 优先尝试读取 config.local.yaml（包含真实密钥，不提交到git）
	dir := filepath.Dir(configPath)
	localConfigPath := filepath.Join(dir, "config.local.yaml")

	if _, err := os.Stat(localConfigPath); err == nil {
		configPath = localConfigPath
	}

	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")

	// 环境变量覆盖
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate 校验配置
func (c *Config) Validate() error {
	return validator.New().Struct(c)
}

func (c *Config) applyDefaults() {
	if c.Queue.NotificationQueue == "" {
		c.Queue.NotificationQueue = "queue:notifications"
	}
	if c.Queue.PremiumChannel == "" {
		c.Queue.PremiumChannel = "premium:updates"
	}
	if c.Queue.MaxWorkers <= 0 {
		c.Queue.MaxWorkers = 2
	}
	if c.Billing.APIURL == "" {
		c.Billing.APIURL = "https://api.lemonsqueezy.com/v1"
	}
	if c.Premium.PricingVariant == "" {
		c.Premium.PricingVariant = "control"
	}
	if c.Premium.WebhookRetentionDays <= 0 {
		c.Premium.WebhookRetentionDays = 90
	}
	if c.OSS.ArchivePrefix == "" {
		c.OSS.ArchivePrefix = "webhooks"
	}
}

// TierBilling 按套餐名查找计费配置
func (b BillingConfig) TierBilling(tier string) (TierBilling, bool) {
	t, ok := b.Tiers[strings.ToLower(tier)]
	return t, ok
}
