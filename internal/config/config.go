package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	DatabaseURL    string
	HTTPListenAddr string
	LogLevel       string
	// LogDir enables a rotated panel.log file next to stdout logging.
	LogDir string

	// MySQLDSN is the administrative DSN used to provision site databases.
	MySQLDSN      string
	MySQLUserHost string
	WPDBHost      string

	WordPressDir         string
	BackupDir            string
	WordPressDownloadURL string
	BackupRetentionDays  int
	AutoBackup           bool

	SSLEmail      string
	CertbotPlugin string

	JWTSecret         string
	JWTIssuer         string
	TokenTTL          time.Duration
	AdminUsername     string
	AdminPassword     string
	AdminPasswordHash string

	CommandTimeout  time.Duration
	DownloadTimeout time.Duration
	JobTimeout      time.Duration

	SchedulerEnabled      bool
	BackupSchedule        string
	BackupCleanupSchedule string
	SSLRenewSchedule      string

	S3Endpoint  string
	S3Region    string
	S3Bucket    string
	S3AccessKey string
	S3SecretKey string
}

// Load reads configuration from the environment. When path is non-empty the
// YAML file at path supplies values for keys the environment leaves unset.
// File keys use the environment variable names.
func Load(path string) (*Config, error) {
	src := source{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		var raw map[string]any
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
		for k, v := range raw {
			if v != nil {
				src[k] = fmt.Sprint(v)
			}
		}
	}

	var errs []string
	cfg := &Config{
		DatabaseURL:           src.get("DATABASE_URL", ""),
		HTTPListenAddr:        src.get("HTTP_LISTEN_ADDR", "127.0.0.1:8000"),
		LogLevel:              src.get("LOG_LEVEL", "info"),
		LogDir:                src.get("LOG_DIR", "/var/litewp/panel/logs"),
		MySQLDSN:              src.get("MYSQL_DSN", "root@unix(/var/run/mysqld/mysqld.sock)/"),
		MySQLUserHost:         src.get("MYSQL_USER_HOST", "localhost"),
		WPDBHost:              src.get("WP_DB_HOST", "localhost"),
		WordPressDir:          src.get("WORDPRESS_DIR", "/var/litewp/wordpress"),
		BackupDir:             src.get("BACKUP_DIR", "/var/litewp/backups"),
		WordPressDownloadURL:  src.get("WORDPRESS_DOWNLOAD_URL", "https://wordpress.org/latest.zip"),
		BackupRetentionDays:   src.getInt("BACKUP_RETENTION_DAYS", 7, &errs),
		AutoBackup:            src.getBool("AUTO_BACKUP", true, &errs),
		SSLEmail:              src.get("SSL_EMAIL", "admin@example.com"),
		CertbotPlugin:         src.get("CERTBOT_PLUGIN", "nginx"),
		JWTSecret:             src.get("JWT_SECRET", ""),
		JWTIssuer:             src.get("JWT_ISSUER", "wppanel"),
		TokenTTL:              src.getDuration("TOKEN_TTL", 30*time.Minute, &errs),
		AdminUsername:         src.get("ADMIN_USERNAME", "admin"),
		AdminPassword:         src.get("ADMIN_PASSWORD", ""),
		AdminPasswordHash:     src.get("ADMIN_PASSWORD_HASH", ""),
		CommandTimeout:        src.getDuration("COMMAND_TIMEOUT", 5*time.Minute, &errs),
		DownloadTimeout:       src.getDuration("DOWNLOAD_TIMEOUT", 10*time.Minute, &errs),
		JobTimeout:            src.getDuration("JOB_TIMEOUT", time.Hour, &errs),
		SchedulerEnabled:      src.getBool("SCHEDULER_ENABLED", true, &errs),
		BackupSchedule:        src.get("BACKUP_SCHEDULE", "0 3 * * *"),
		BackupCleanupSchedule: src.get("BACKUP_CLEANUP_SCHEDULE", "30 2 * * *"),
		SSLRenewSchedule:      src.get("SSL_RENEW_SCHEDULE", "0 4 * * *"),
		S3Endpoint:            src.get("S3_ENDPOINT", ""),
		S3Region:              src.get("S3_REGION", "us-east-1"),
		S3Bucket:              src.get("S3_BUCKET", ""),
		S3AccessKey:           src.get("S3_ACCESS_KEY", ""),
		S3SecretKey:           src.get("S3_SECRET_KEY", ""),
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid config: %s", strings.Join(errs, "; "))
	}

	return cfg, nil
}

// Validate checks that required settings are present and consistent.
func (c *Config) Validate() error {
	var missing []string
	if c.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if c.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if c.AdminPassword == "" && c.AdminPasswordHash == "" {
		missing = append(missing, "ADMIN_PASSWORD or ADMIN_PASSWORD_HASH")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required config: %s", strings.Join(missing, ", "))
	}
	if len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 bytes")
	}
	if c.BackupRetentionDays < 1 {
		return fmt.Errorf("BACKUP_RETENTION_DAYS must be at least 1")
	}
	if c.WordPressDir == "" || c.BackupDir == "" {
		return fmt.Errorf("WORDPRESS_DIR and BACKUP_DIR must not be empty")
	}
	return nil
}

// OffsiteEnabled reports whether backups are copied to object storage.
func (c *Config) OffsiteEnabled() bool {
	return c.S3Bucket != ""
}

type source map[string]string

func (s source) get(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	if v, ok := s[key]; ok && v != "" {
		return v
	}
	return fallback
}

func (s source) getInt(key string, fallback int, errs *[]string) int {
	v := s.get(key, "")
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*errs = append(*errs, fmt.Sprintf("%s: %q is not an integer", key, v))
		return fallback
	}
	return n
}

func (s source) getBool(key string, fallback bool, errs *[]string) bool {
	v := s.get(key, "")
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		*errs = append(*errs, fmt.Sprintf("%s: %q is not a boolean", key, v))
		return fallback
	}
	return b
}

func (s source) getDuration(key string, fallback time.Duration, errs *[]string) time.Duration {
	v := s.get(key, "")
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		*errs = append(*errs, fmt.Sprintf("%s: %q is not a duration", key, v))
		return fallback
	}
	return d
}
