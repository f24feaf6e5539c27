package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

var ErrConfigFileDoesNotExist = errors.New("config file does not exist")

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	MailerSMTP     = "smtp"
	MailerSendGrid = "sendgrid"
	MailerNone     = "none"
)

const secretMask = "******"

type Config struct {
	App        `yaml:"app"`
	Logger     `yaml:"log"`
	Database   `yaml:"database"`
	Redis      `yaml:"redis"`
	HTTPServer `yaml:"http_server"`
	Mailer     `yaml:"mailer"`
	Scheduler  `yaml:"scheduler"`
	Kafka      `yaml:"kafka"`
}

type App struct {
	ServiceName string `yaml:"service_name" env:"APP_SERVICE_NAME" env-default:"email-reminder"`
	Version     string `yaml:"version"      env:"APP_VERSION"      env-default:"0.1.0"`
}

type Logger struct {
	Level      string   `yaml:"level"       env:"LOG_LEVEL"       env-default:"info"`
	FormatJSON bool     `yaml:"format_json" env:"LOG_FORMAT_JSON" env-default:"false"`
	Rotation   Rotation `yaml:"rotation"`
}

type Rotation struct {
	File       string `yaml:"file"        env:"LOG_FILE"`
	MaxSize    int    `yaml:"max_size"    env:"LOG_MAX_SIZE"    env-default:"10"`
	MaxBackups int    `yaml:"max_backups" env:"LOG_MAX_BACKUPS" env-default:"3"`
	MaxAge     int    `yaml:"max_age"     env:"LOG_MAX_AGE"     env-default:"7"`
}

type Database struct {
	Driver     string    `yaml:"driver"      env:"DB_DRIVER"   env-default:"postgres"`
	URL        string    `yaml:"url"         env:"CONNECTION_URL"`
	Host       string    `yaml:"host"        env:"DB_HOST"     env-default:"localhost"`
	Port       uint16    `yaml:"port"        env:"DB_PORT"     env-default:"5432"`
	User       string    `yaml:"user"        env:"DB_USER"`
	Password   string    `yaml:"password"    env:"DB_PASSWORD"`
	Name       string    `yaml:"name"        env:"DB_NAME"     env-default:"reminders"`
	SSLMode    string    `yaml:"ssl_mode"    env:"DB_SSL_MODE" env-default:"disable"`
	MaxConns   int32     `yaml:"max_conns"   env:"DB_MAX_CONNS" env-default:"10"`
	MinConns   int32     `yaml:"min_conns"   env:"DB_MIN_CONNS" env-default:"1"`
	SQLitePath string    `yaml:"sqlite_path" env:"DB_SQLITE_PATH" env-default:"./data/reminders.db"`
	Migration  Migration `yaml:"migration"`
}

type Migration struct {
	Path      string `yaml:"path"       env:"DB_MIGRATION_PATH" env-default:"./migrations"`
	AutoApply bool   `yaml:"auto_apply" env:"DB_MIGRATION_AUTO_APPLY" env-default:"true"`
}

type Redis struct {
	Enable   bool   `yaml:"enable"   env:"REDIS_ENABLE" env-default:"false"`
	Host     string `yaml:"host"     env:"REDIS_HOST"   env-default:"localhost"`
	Port     uint16 `yaml:"port"     env:"REDIS_PORT"   env-default:"6379"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db"       env:"REDIS_DB"     env-default:"0"`
}

type HTTPServer struct {
	Host    string  `yaml:"host" env:"HOST"`
	Port    uint16  `yaml:"port" env:"PORT" env-default:"3333"`
	Timeout Timeout `yaml:"timeout"`
	CORS    CORS    `yaml:"cors"`
}

type Timeout struct {
	Request time.Duration `yaml:"request" env:"HTTP_TIMEOUT_REQUEST" env-default:"10s"`
	Read    time.Duration `yaml:"read"    env:"HTTP_TIMEOUT_READ"    env-default:"10s"`
	Write   time.Duration `yaml:"write"   env:"HTTP_TIMEOUT_WRITE"   env-default:"15s"`
	Idle    time.Duration `yaml:"idle"    env:"HTTP_TIMEOUT_IDLE"    env-default:"60s"`
}

type CORS struct {
	Enabled          bool          `yaml:"enabled"           env:"CORS_ENABLED" env-default:"false"`
	AllowAllOrigins  bool          `yaml:"allow_all_origins"`
	AllowOrigins     []string      `yaml:"allow_origins"     env:"CORS_ALLOW_ORIGINS" env-separator:","`
	AllowMethods     []string      `yaml:"allow_methods"     env-default:"GET,POST"`
	AllowHeaders     []string      `yaml:"allow_headers"`
	ExposeHeaders    []string      `yaml:"expose_headers"`
	AllowCredentials bool          `yaml:"allow_credentials"`
	MaxAge           time.Duration `yaml:"max_age" env-default:"12h"`
}

type Mailer struct {
	Driver             string `yaml:"driver"               env:"MAIL_DRIVER"   env-default:"smtp"`
	Host               string `yaml:"host"                 env:"MAIL_HOST"     env-default:"smtp.gmail.com"`
	Port               int    `yaml:"port"                 env:"MAIL_PORT"     env-default:"465"`
	Username           string `yaml:"username"             env:"EMAIL_USER"`
	Password           string `yaml:"password"             env:"EMAIL_PASS"`
	From               string `yaml:"from"                 env:"MAIL_FROM"`
	UseTLS             bool   `yaml:"use_tls"              env:"MAIL_USE_TLS"  env-default:"true"`
	InsecureSkipVerify bool   `yaml:"insecure_skip_verify" env:"MAIL_INSECURE_SKIP_VERIFY" env-default:"false"`
	SendGridAPIKey     string `yaml:"sendgrid_api_key"     env:"SENDGRID_API_KEY"`
}

type Scheduler struct {
	Interval     time.Duration `yaml:"interval"      env:"SCHEDULER_INTERVAL"      env-default:"1m"`
	Subject      string        `yaml:"subject"       env:"SCHEDULER_SUBJECT"       env-default:"Reminder App"`
	QueryTimeout time.Duration `yaml:"query_timeout" env:"SCHEDULER_QUERY_TIMEOUT" env-default:"15s"`
	SendTimeout  time.Duration `yaml:"send_timeout"  env:"SCHEDULER_SEND_TIMEOUT"  env-default:"30s"`
	MaxAttempts  int           `yaml:"max_attempts"  env:"SCHEDULER_MAX_ATTEMPTS"  env-default:"0"`
	LockTTL      time.Duration `yaml:"lock_ttl"      env:"SCHEDULER_LOCK_TTL"      env-default:"90s"`
}

type Kafka struct {
	Enable  bool     `yaml:"enable"  env:"KAFKA_ENABLE"  env-default:"false"`
	Brokers []string `yaml:"brokers" env:"KAFKA_BROKERS" env-separator:","`
	Topic   string   `yaml:"topic"   env:"KAFKA_TOPIC"   env-default:"reminder.delivered"`
}

func MustLoadConfig() *Config {
	cfg, err := LoadConfig()
	if err != nil {
		panic(err)
	}

	return cfg
}

// LoadConfig reads .env (if present) into the environment, then the YAML file given by
// -config or CONFIG_PATH, falling back to the environment alone.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	return Load(fetchConfigPath())
}

func Load(path string) (*Config, error) {
	var cfg Config

	if path == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to read config from env: %w", err)
		}

		return &cfg, nil
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrConfigFileDoesNotExist, path)
	}

	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	return &cfg, nil
}

func MustPrintConfig(cfg *Config) {
	if err := PrintConfig(os.Stdout, cfg); err != nil {
		panic(err)
	}
}

// PrintConfig writes the effective config as YAML with credentials masked.
func PrintConfig(w io.Writer, cfg *Config) error {
	masked := *cfg
	masked.Database.Password = mask(masked.Database.Password)
	masked.Database.URL = mask(masked.Database.URL)
	masked.Redis.Password = mask(masked.Redis.Password)
	masked.Mailer.Password = mask(masked.Mailer.Password)
	masked.Mailer.SendGridAPIKey = mask(masked.Mailer.SendGridAPIKey)

	data, err := yaml.Marshal(&masked)
	if err != nil {
		return err
	}

	_, err = w.Write(data)

	return err
}

func mask(s string) string {
	if s == "" {
		return ""
	}

	return secretMask
}

func fetchConfigPath() string {
	var result string

	fs := flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&result, "config", "", "Path to config file")
	_ = fs.Parse(os.Args[1:])

	if result == "" {
		result = os.Getenv("CONFIG_PATH")
	}

	return result
}
