package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env            string
	Port           string
	OpsPort        string
	AllowedOrigins []string
	TrustedProxies []string
	RequestTimeout time.Duration
	MaxBodyBytes   int64

	DBDriver          string
	DBHost            string
	DBPort            string
	DBUser            string
	DBPass            string
	DBName            string
	DBParams          string
	DBDSN             string
	SQLitePath        string
	DBConnectRetries  int
	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration
	DBPingOnConnect   bool
	DBTLS             string
	DBTLSVerify       bool
	DBTLSCAPath       string
	DBTLSClientCert   string
	DBTLSClientKey    string

	JWTSecret string
	JWTAud    string
	JWTIss    string
	JWTTTL    time.Duration

	RedisAddr     string
	RedisPass     string
	RedisDB       int
	EventsChannel string

	BotToken    string
	BotUsername string
	ChannelID   int64
	MiniAppURL  string
	MainAdminID int64
	InitDataTTL time.Duration
	DevMode     bool

	WelcomeBonus          int64
	ReferralBonusReferrer int64
	ReferralBonusReferred int64
	MinWithdrawal         int64
	TaskExperience        int64

	R2AccountID string
	R2AccessKey string
	R2SecretKey string
	R2Bucket    string
	R2PublicURL string
	UploadDir   string
}

// Load merges .env into the process environment without overriding variables
// that are already set, then reads the configuration.
func Load() *Config {
	if envMap, err := godotenv.Read(); err == nil {
		for k, v := range envMap {
			if os.Getenv(k) == "" {
				os.Setenv(k, v)
			}
		}
	}

	return &Config{
		Env:            strings.ToLower(getEnv("ENV", "development")),
		Port:           getEnv("PORT", "8080"),
		OpsPort:        getEnv("OPS_PORT", "9090"),
		AllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
		TrustedProxies: getEnvAsSlice("TRUSTED_PROXIES", nil),
		RequestTimeout: time.Duration(getEnvAsInt("REQ_TIMEOUT_SEC", 10)) * time.Second,
		MaxBodyBytes:   getEnvAsInt64("MAX_BODY_BYTES", 12<<20),

		DBDriver:          strings.ToLower(getEnv("DB_DRIVER", "mysql")),
		DBHost:            getEnv("DB_HOST", "127.0.0.1"),
		DBPort:            getEnv("DB_PORT", "3306"),
		DBUser:            getEnv("DB_USER", "root"),
		DBPass:            getEnv("DB_PASS", ""),
		DBName:            getEnv("DB_NAME", "linkgold"),
		DBParams:          getEnv("DB_PARAMS", "charset=utf8mb4&parseTime=True&loc=Local"),
		DBDSN:             getEnv("DB_DSN", ""),
		SQLitePath:        getEnv("SQLITE_PATH", "linkgold.db"),
		DBConnectRetries:  getEnvAsInt("DB_CONNECT_RETRIES", 5),
		DBMaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
		DBMaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 25),
		DBConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", time.Hour),
		DBPingOnConnect:   getEnvAsBool("DB_PING_ON_CONNECT", true),
		DBTLS:             getEnv("DB_TLS", "true"),
		DBTLSVerify:       getEnvAsBool("DB_TLS_VERIFY", false),
		DBTLSCAPath:       getEnv("DB_TLS_CA_PATH", ""),
		DBTLSClientCert:   getEnv("DB_TLS_CLIENT_CERT", ""),
		DBTLSClientKey:    getEnv("DB_TLS_CLIENT_KEY", ""),

		JWTSecret: getEnv("JWT_SECRET", ""),
		JWTAud:    getEnv("JWT_AUD", ""),
		JWTIss:    getEnv("JWT_ISS", ""),
		JWTTTL:    getEnvAsDuration("JWT_TTL", 24*time.Hour),

		RedisAddr:     strings.ReplaceAll(getEnv("REDIS_ADDR", ""), " ", ""),
		RedisPass:     getEnv("REDIS_PASS", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),
		EventsChannel: getEnv("EVENTS_CHANNEL", "linkgold:events"),

		BotToken:    getEnv("TELEGRAM_BOT_TOKEN", ""),
		BotUsername: getEnv("BOT_USERNAME", "LinkGoldMoney_bot"),
		ChannelID:   getEnvAsInt64("TELEGRAM_CHANNEL_ID", 0),
		MiniAppURL:  getEnv("MINI_APP_URL", ""),
		MainAdminID: getEnvAsInt64("MAIN_ADMIN_ID", 8036875641),
		InitDataTTL: getEnvAsDuration("INIT_DATA_TTL", 24*time.Hour),
		DevMode:     getEnvAsBool("DEV_MODE", false),

		WelcomeBonus:          getEnvAsInt64("WELCOME_BONUS", 10),
		ReferralBonusReferrer: getEnvAsInt64("REFERRAL_BONUS_REFERRER", 20),
		ReferralBonusReferred: getEnvAsInt64("REFERRAL_BONUS_REFERRED", 10),
		MinWithdrawal:         getEnvAsInt64("MIN_WITHDRAWAL", 200),
		TaskExperience:        getEnvAsInt64("TASK_EXPERIENCE", 10),

		R2AccountID: getEnv("R2_ACCOUNT_ID", ""),
		R2AccessKey: getEnv("R2_ACCESS_KEY_ID", ""),
		R2SecretKey: getEnv("R2_SECRET_ACCESS_KEY", ""),
		R2Bucket:    getEnv("R2_BUCKET_NAME", ""),
		R2PublicURL: getEnv("R2_PUBLIC_URL", ""),
		UploadDir:   getEnv("UPLOAD_DIR", "uploads"),
	}
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate reports the first missing setting the server cannot start without.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return &MissingError{Key: "JWT_SECRET"}
	}
	if c.IsProduction() && c.BotToken == "" {
		return &MissingError{Key: "TELEGRAM_BOT_TOKEN"}
	}
	if c.DBDriver == "mysql" && c.DBDSN == "" {
		for key, val := range map[string]string{"DB_HOST": c.DBHost, "DB_USER": c.DBUser, "DB_NAME": c.DBName} {
			if val == "" {
				return &MissingError{Key: key}
			}
		}
	}
	return nil
}

type MissingError struct {
	Key string
}

func (e *MissingError) Error() string {
	return "required environment variable " + e.Key + " is not set"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return strings.TrimSpace(value)
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if val, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return val
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if val, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return val
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if val, err := strconv.ParseInt(getEnv(key, ""), 10, 64); err == nil {
		return val
	}
	return defaultValue
}

// getEnvAsDuration accepts Go durations ("90s") or plain seconds ("90").
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	strVal := getEnv(key, "")
	if val, err := time.ParseDuration(strVal); err == nil {
		return val
	}
	if secs, err := strconv.Atoi(strVal); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	val := getEnv(key, "")
	if val == "" {
		return defaultValue
	}
	parts := strings.Split(val, ",")
	out := parts[:0]
	for _, part := range parts {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
