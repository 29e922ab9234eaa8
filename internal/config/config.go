package config

import (
	"github.com/johnkennedyb/apparcus/internal/logger"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Paystack  PaystackConfig  `mapstructure:"paystack"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Audit     AuditConfig     `mapstructure:"audit"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// PaystackConfig 支付网关配置
type PaystackConfig struct {
	SecretKey   string `mapstructure:"secret_key"`   // Paystack secret key，同时用于 webhook 签名校验
	BaseURL     string `mapstructure:"base_url"`     // API 地址
	CallbackURL string `mapstructure:"callback_url"` // 支付完成后的前端回调地址
	Currency    string `mapstructure:"currency"`     // 固定结算币种
	Timeout     int    `mapstructure:"timeout"`      // 请求超时（秒）
}

// SchedulerConfig 定时任务配置
type SchedulerConfig struct {
	PaymentSyncInterval int `mapstructure:"payment_sync_interval"` // 待确认支付同步间隔（秒）
	PaymentSyncMinAge   int `mapstructure:"payment_sync_min_age"`  // 支付创建后至少经过多少秒才参与同步
	PaymentSyncBatch    int `mapstructure:"payment_sync_batch"`    // 每轮同步的最大支付数
	AuditInterval       int `mapstructure:"audit_interval"`        // 漂移审计间隔（秒）
}

// AuditConfig 漂移审计配置
type AuditConfig struct {
	AutoRepair  bool `mapstructure:"auto_repair"` // 审计后是否自动修复
	Concurrency int  `mapstructure:"concurrency"` // 审计重算协程池大小
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // 日志级别: debug, info, warn, error, fatal
	Output string `mapstructure:"output"` // 输出目标: stdout, stderr, file
	File   string `mapstructure:"file"`   // 日志文件路径（当output为file时使用）
}

func Load() *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/apparcus")

	// 设置默认值
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.mode", "debug")
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "")
	viper.SetDefault("database.dbname", "apparcus")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("paystack.base_url", "https://api.paystack.co")
	viper.SetDefault("paystack.callback_url", "http://localhost:5173/payment/verify")
	viper.SetDefault("paystack.currency", "NGN")
	viper.SetDefault("paystack.timeout", 15)
	viper.SetDefault("scheduler.payment_sync_interval", 300)
	viper.SetDefault("scheduler.payment_sync_min_age", 1800)
	viper.SetDefault("scheduler.payment_sync_batch", 100)
	viper.SetDefault("scheduler.audit_interval", 3600)
	viper.SetDefault("audit.auto_repair", false)
	viper.SetDefault("audit.concurrency", 8)
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.output", "stdout")
	viper.SetDefault("log.file", "logs/app.log")

	// 自动读取环境变量
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		logger.Warn("Warning: Could not read config file: %v", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		logger.Fatal("Unable to decode config into struct: %v", err)
	}

	return &config
}
