package app

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// Config stores runtime configuration loaded from .env, config/config.yaml and
// environment variables, in increasing order of precedence.
type Config struct {
	AppEnv              string `mapstructure:"app_env"`
	HTTPAddr            string `mapstructure:"http_addr"`
	ShutdownTimeoutSecs int    `mapstructure:"shutdown_timeout_seconds"`
	SessionTTLMins      int    `mapstructure:"session_ttl_minutes"`

	UploadMaxBytes        int64    `mapstructure:"upload_max_bytes"`
	UploadRateLimitPerMin int      `mapstructure:"upload_rate_limit_per_minute"`
	CORSAllowedOrigins    []string `mapstructure:"-"`
	BankQuestionsFile     string   `mapstructure:"bank_questions_file"`
	BankAnswersFile       string   `mapstructure:"bank_answers_file"`
	BankDBDSN             string   `mapstructure:"bank_db_dsn"`
	BankDBQuestionTable   string   `mapstructure:"bank_db_question_table"`
	BankDBAnswerTable     string   `mapstructure:"bank_db_answer_table"`
	DBMaxOpenConns        int      `mapstructure:"db_max_open_conns"`
	DBMaxIdleConns        int      `mapstructure:"db_max_idle_conns"`
	DBConnMaxLifeMins     int      `mapstructure:"db_conn_max_lifetime_minutes"`
}

var configKeys = []string{
	"app_env",
	"http_addr",
	"shutdown_timeout_seconds",
	"session_ttl_minutes",
	"upload_max_bytes",
	"upload_rate_limit_per_minute",
	"cors_allowed_origins",
	"bank_questions_file",
	"bank_answers_file",
	"bank_db_dsn",
	"bank_db_question_table",
	"bank_db_answer_table",
	"db_max_open_conns",
	"db_max_idle_conns",
	"db_conn_max_lifetime_minutes",
}

func LoadConfig() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")

	v.SetDefault("app_env", "development")
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("shutdown_timeout_seconds", 10)
	v.SetDefault("session_ttl_minutes", 120)
	v.SetDefault("upload_max_bytes", 16<<20)
	v.SetDefault("upload_rate_limit_per_minute", 30)
	v.SetDefault("cors_allowed_origins", "*")
	v.SetDefault("db_max_open_conns", 25)
	v.SetDefault("db_max_idle_conns", 25)
	v.SetDefault("db_conn_max_lifetime_minutes", 30)

	for _, k := range configKeys {
		_ = v.BindEnv(k, strings.ToUpper(k))
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.CORSAllowedOrigins = splitList(v.GetString("cors_allowed_origins"))

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects combinations that cannot start a server.
func (c Config) Validate() error {
	if strings.TrimSpace(c.HTTPAddr) == "" {
		return fmt.Errorf("%w: HTTP_ADDR is empty", ErrInvalidConfig)
	}
	if c.UploadMaxBytes <= 0 {
		return fmt.Errorf("%w: UPLOAD_MAX_BYTES must be positive", ErrInvalidConfig)
	}
	if strings.TrimSpace(c.BankDBDSN) != "" && strings.TrimSpace(c.BankDBQuestionTable) == "" {
		return fmt.Errorf("%w: BANK_DB_QUESTION_TABLE is required with BANK_DB_DSN", ErrInvalidConfig)
	}
	if strings.TrimSpace(c.BankAnswersFile) != "" && strings.TrimSpace(c.BankQuestionsFile) == "" {
		return fmt.Errorf("%w: BANK_ANSWERS_FILE needs BANK_QUESTIONS_FILE", ErrInvalidConfig)
	}
	return nil
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
