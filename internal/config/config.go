package config

import (
	"os"
	"strconv"
	"strings"
)

// Config 全部来自环境变量，未设置时取开发默认值
type Config struct {
	HTTPAddr string

	// Storage 选择仓储后端：mysql 或 memory（联调/测试用）
	Storage  string
	MySQLDSN string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// KafkaBrokers 为空时事件仅打日志，不投递
	KafkaBrokers []string
	KafkaTopic   string

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string

	// Blob 选择附件存储后端：disk 或 minio
	Blob           string
	MediaDir       string
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool

	AccessSecret  string
	RefreshSecret string
}

func Load() *Config {
	cfg := &Config{
		HTTPAddr:       getEnv("FORUM_HTTP_ADDR", ":8080"),
		Storage:        getEnv("FORUM_STORAGE", "mysql"),
		MySQLDSN:       getEnv("FORUM_MYSQL_DSN", "user:password@tcp(127.0.0.1:3306)/forum?charset=utf8mb4&parseTime=True"),
		RedisAddr:      getEnv("FORUM_REDIS_ADDR", "127.0.0.1:6379"),
		RedisPassword:  os.Getenv("FORUM_REDIS_PASSWORD"),
		RedisDB:        getEnvInt("FORUM_REDIS_DB", 0),
		KafkaTopic:     getEnv("FORUM_KAFKA_TOPIC", "forum-activity"),
		SMTPHost:       os.Getenv("FORUM_SMTP_HOST"),
		SMTPPort:       getEnvInt("FORUM_SMTP_PORT", 587),
		SMTPUsername:   os.Getenv("FORUM_SMTP_USERNAME"),
		SMTPPassword:   os.Getenv("FORUM_SMTP_PASSWORD"),
		SMTPFrom:       getEnv("FORUM_SMTP_FROM", "NoReply <no-reply@example.com>"),
		Blob:           getEnv("FORUM_BLOB", "disk"),
		MediaDir:       getEnv("FORUM_MEDIA_DIR", "./media"),
		MinioEndpoint:  os.Getenv("FORUM_MINIO_ENDPOINT"),
		MinioAccessKey: os.Getenv("FORUM_MINIO_ACCESS_KEY"),
		MinioSecretKey: os.Getenv("FORUM_MINIO_SECRET_KEY"),
		MinioBucket:    getEnv("FORUM_MINIO_BUCKET", "forum-media"),
		MinioUseSSL:    getEnv("FORUM_MINIO_USE_SSL", "false") == "true",
		AccessSecret:   os.Getenv("FORUM_ACCESS_SECRET"),
		RefreshSecret:  os.Getenv("FORUM_REFRESH_SECRET"),
	}

	if brokers := os.Getenv("FORUM_KAFKA_BROKERS"); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}

	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
