package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	AuditBackendPostgres = "postgres"
	AuditBackendMongo    = "mongo"
)

type Config struct {
	HTTP          HTTPConfig          `yaml:"http"`
	Log           LogConfig           `yaml:"log"`
	Database      DatabaseConfig      `yaml:"database"`
	Mongo         MongoConfig         `yaml:"mongo"`
	Redis         RedisConfig         `yaml:"redis"`
	Kafka         KafkaConfig         `yaml:"kafka"`
	WhatsApp      WhatsAppConfig      `yaml:"whatsapp"`
	Gmail         GmailConfig         `yaml:"gmail"`
	Booking       BookingConfig       `yaml:"booking"`
	Notifications NotificationsConfig `yaml:"notifications"`
	Storage       StorageConfig       `yaml:"storage"`
	Audit         AuditConfig         `yaml:"audit"`
	Catalog       CatalogConfig       `yaml:"catalog"`
}

type HTTPConfig struct {
	Address            string   `yaml:"address"`
	AllowedOrigins     []string `yaml:"allowed_origins"`
	ShutdownTimeoutSec int      `yaml:"shutdown_timeout_seconds"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s", d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type MongoConfig struct {
	URI      string `yaml:"uri"`
	Database string `yaml:"database"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type KafkaConfig struct {
	Brokers            []string `yaml:"brokers"`
	NotificationsTopic string   `yaml:"notifications_topic"`
	GroupID            string   `yaml:"group_id"`
}

type WhatsAppConfig struct {
	BaseURL   string `yaml:"base_url"`
	Token     string `yaml:"token"`
	CompanyID string `yaml:"company_id"`
	AgentID   string `yaml:"agent_id"`
}

// Enabled reports whether the secondary channel can be used at all.
func (w WhatsAppConfig) Enabled() bool {
	return w.BaseURL != "" && w.Token != ""
}

type GmailConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	RefreshToken string `yaml:"refresh_token"`
	From         string `yaml:"from"`
}

func (g GmailConfig) Enabled() bool {
	return g.ClientID != "" && g.ClientSecret != "" && g.RefreshToken != ""
}

type BookingConfig struct {
	ReferencePrefix       string   `yaml:"reference_prefix"`
	MaxIdentifierAttempts int      `yaml:"max_identifier_attempts"`
	MaxProofSizeBytes     int64    `yaml:"max_proof_size_bytes"`
	AllowedProofTypes     []string `yaml:"allowed_proof_types"`
}

type NotificationsConfig struct {
	ChannelTimeoutSec int    `yaml:"channel_timeout_seconds"`
	AdminName         string `yaml:"admin_name"`
	AdminEmail        string `yaml:"admin_email"`
	AdminPhone        string `yaml:"admin_phone"`
}

func (n NotificationsConfig) ChannelTimeout() time.Duration {
	return time.Duration(n.ChannelTimeoutSec) * time.Second
}

type StorageConfig struct {
	Root       string `yaml:"root"`
	BaseURL    string `yaml:"base_url"`
	MaxFileMiB int64  `yaml:"max_file_mib"`
}

type AuditConfig struct {
	Backend string `yaml:"backend"`
}

type CatalogConfig struct {
	CacheTTLSec int `yaml:"cache_ttl_seconds"`
}

func (c CatalogConfig) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSec) * time.Second
}

// LoadConfig reads the YAML file at path. A .env file in the working directory, when present, is loaded first
// so secrets can be supplied through the environment.
func LoadConfig(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnv()
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	overrides := map[string]*string{
		"DATABASE_PASSWORD":   &c.Database.Password,
		"WHATSAPP_TOKEN":      &c.WhatsApp.Token,
		"GMAIL_CLIENT_SECRET": &c.Gmail.ClientSecret,
		"GMAIL_REFRESH_TOKEN": &c.Gmail.RefreshToken,
		"MONGO_URI":           &c.Mongo.URI,
	}
	for key, dst := range overrides {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}
}

func (c *Config) ApplyDefaults() {
	if c.HTTP.Address == "" {
		c.HTTP.Address = ":8080"
	}
	if c.HTTP.ShutdownTimeoutSec <= 0 {
		c.HTTP.ShutdownTimeoutSec = 5
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Kafka.NotificationsTopic == "" {
		c.Kafka.NotificationsTopic = "partner-notifications"
	}
	if c.Kafka.GroupID == "" {
		c.Kafka.GroupID = "partnerbooking-mailer"
	}
	if c.Booking.ReferencePrefix == "" {
		c.Booking.ReferencePrefix = "TRV"
	}
	if c.Booking.MaxIdentifierAttempts <= 0 {
		c.Booking.MaxIdentifierAttempts = 10
	}
	if c.Booking.MaxProofSizeBytes <= 0 {
		c.Booking.MaxProofSizeBytes = 5 << 20
	}
	if len(c.Booking.AllowedProofTypes) == 0 {
		c.Booking.AllowedProofTypes = []string{"image/jpeg", "image/png", "application/pdf"}
	}
	if c.Notifications.ChannelTimeoutSec <= 0 {
		c.Notifications.ChannelTimeoutSec = 10
	}
	if c.Storage.Root == "" {
		c.Storage.Root = "./uploads"
	}
	if c.Storage.MaxFileMiB <= 0 {
		c.Storage.MaxFileMiB = 5
	}
	if c.Audit.Backend == "" {
		c.Audit.Backend = AuditBackendPostgres
	}
	if c.Catalog.CacheTTLSec <= 0 {
		c.Catalog.CacheTTLSec = 300
	}
}

func (c *Config) Validate() error {
	switch c.Audit.Backend {
	case AuditBackendPostgres:
	case AuditBackendMongo:
		if c.Mongo.URI == "" || c.Mongo.Database == "" {
			return errors.New("invalid config: audit backend mongo requires mongo.uri and mongo.database")
		}
	default:
		return fmt.Errorf("invalid config: unknown audit backend %q", c.Audit.Backend)
	}
	if c.Database.Host == "" || c.Database.Name == "" {
		return errors.New("invalid config: database.host and database.name are required")
	}
	return nil
}
