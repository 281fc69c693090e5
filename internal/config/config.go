// Package config collects run settings from .env, SEVIPER_* variables,
// command-line flags and ftp:// or sftp:// URLs, in that order of precedence.
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/yarkm13/seviper/internal/crawl"
	"github.com/yarkm13/seviper/internal/storage"
)

const (
	DefaultDepth   = 3
	DefaultTimeout = 5 * time.Second
	DefaultTarget  = "files"
	DefaultLogFile = "seviper.log"
)

// Config is everything one run needs.
type Config struct {
	Scheme   string
	Host     string
	Port     int
	User     string
	Password string

	Target      string
	Manifest    string
	MetricsFile string

	LogLevel string
	LogFile  string

	Timeout   time.Duration
	AssumeYes bool

	// ExtensionSet is true once the download filter has been decided by a
	// flag or variable, so the operator is not asked again.
	ExtensionSet bool
	// DepthSet is the same for MaxDepth.
	DepthSet bool

	S3 storage.S3Config

	Crawl crawl.Config
}

// Load reads .env (if any) and the SEVIPER_* environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug(".env file not found, using environment variables only")
	}

	cfg := &Config{
		Scheme:      getEnv("SEVIPER_SCHEME", "ftp"),
		Host:        getEnv("SEVIPER_HOST", ""),
		User:        getEnv("SEVIPER_USER", ""),
		Password:    getEnv("SEVIPER_PASSWORD", ""),
		Target:      getEnv("SEVIPER_TARGET", DefaultTarget),
		Manifest:    getEnv("SEVIPER_MANIFEST", ""),
		MetricsFile: getEnv("SEVIPER_METRICS_FILE", ""),
		LogLevel:    getEnv("SEVIPER_LOG_LEVEL", "info"),
		LogFile:     getEnv("SEVIPER_LOG_FILE", DefaultLogFile),
		AssumeYes:   getEnvBool("SEVIPER_YES", false),
		S3: storage.S3Config{
			Endpoint:  getEnv("SEVIPER_S3_ENDPOINT", ""),
			Region:    getEnv("SEVIPER_S3_REGION", ""),
			AccessKey: getEnv("SEVIPER_S3_ACCESS_KEY", ""),
			SecretKey: getEnv("SEVIPER_S3_SECRET_KEY", ""),
		},
		Crawl: crawl.Config{
			RootPath:    strings.Trim(getEnv("SEVIPER_ROOT", ""), "/"),
			MaxDepth:    DefaultDepth,
			DownloadAll: true,
		},
	}

	var err error
	if cfg.Port, err = getEnvInt("SEVIPER_PORT", 0); err != nil {
		return nil, err
	}
	timeoutStr := getEnv("SEVIPER_TIMEOUT", DefaultTimeout.String())
	if cfg.Timeout, err = time.ParseDuration(timeoutStr); err != nil {
		return nil, fmt.Errorf("invalid SEVIPER_TIMEOUT %q: %w", timeoutStr, err)
	}
	if ext := getEnv("SEVIPER_EXTENSION", ""); ext != "" {
		cfg.Crawl.DownloadAll = false
		cfg.Crawl.ExtensionFilter = ext
		cfg.ExtensionSet = true
	}
	if getEnv("SEVIPER_DEPTH", "") != "" {
		if cfg.Crawl.MaxDepth, err = getEnvInt("SEVIPER_DEPTH", DefaultDepth); err != nil {
			return nil, err
		}
		cfg.DepthSet = true
	}

	return cfg, nil
}

// BindFlags registers command-line flags that override cfg. Call Resolve
// after parsing to apply the flags that need post-processing.
func BindFlags(fs *pflag.FlagSet, cfg *Config) {
	fs.StringVar(&cfg.Scheme, "scheme", cfg.Scheme, "protocol to use when no URL is given (ftp or sftp)")
	fs.StringVar(&cfg.Host, "host", cfg.Host, "server host name")
	fs.IntVarP(&cfg.Port, "port", "p", cfg.Port, "server port (default 21 for ftp, 22 for sftp)")
	fs.StringVarP(&cfg.User, "user", "u", cfg.User, "user name, anonymous login when empty")
	fs.StringVar(&cfg.Password, "password", cfg.Password, "password (prompted for when a user is set and this is empty)")
	fs.StringVar(&cfg.Crawl.RootPath, "root", cfg.Crawl.RootPath, "remote directory to start from (default: login directory)")
	fs.StringVarP(&cfg.Crawl.ExtensionFilter, "ext", "e", cfg.Crawl.ExtensionFilter, "download only files ending with this suffix, e.g. .pdf")
	fs.Bool("all", false, "download every regular file")
	fs.IntVarP(&cfg.Crawl.MaxDepth, "depth", "d", cfg.Crawl.MaxDepth, "number of directories to visit")
	fs.StringVarP(&cfg.Target, "target", "t", cfg.Target, "local directory or s3://bucket/prefix to save files to")
	fs.StringVar(&cfg.Manifest, "manifest", cfg.Manifest, "write a status:path record of every file to this path")
	fs.StringVar(&cfg.MetricsFile, "metrics-file", cfg.MetricsFile, "write Prometheus metrics to this textfile when done")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn or error")
	fs.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "append logs to this file as well (empty disables)")
	fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "network timeout")
	fs.BoolVarP(&cfg.AssumeYes, "yes", "y", cfg.AssumeYes, "do not ask for confirmation")
}

// Resolve folds flags that were explicitly set into the filter and depth
// decisions.
func Resolve(fs *pflag.FlagSet, cfg *Config) error {
	all, err := fs.GetBool("all")
	if err != nil {
		return err
	}
	switch {
	case all:
		cfg.Crawl.DownloadAll = true
		cfg.Crawl.ExtensionFilter = ""
		cfg.ExtensionSet = true
	case fs.Changed("ext"):
		cfg.Crawl.DownloadAll = false
		cfg.ExtensionSet = true
	}
	if fs.Changed("depth") {
		cfg.DepthSet = true
	}
	cfg.Crawl.RootPath = strings.Trim(cfg.Crawl.RootPath, "/")
	cfg.Scheme = strings.ToLower(cfg.Scheme)
	return nil
}

// ApplyURL fills connection fields from an ftp:// or sftp:// URL. Fields the
// URL does not carry are left untouched.
func (c *Config) ApplyURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme == "" || u.Hostname() == "" {
		return fmt.Errorf("invalid URL %q: expected scheme://host", raw)
	}
	c.Scheme = strings.ToLower(u.Scheme)
	c.Host = u.Hostname()
	if p := u.Port(); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return fmt.Errorf("invalid port %q: %w", p, err)
		}
		c.Port = port
	}
	if u.User != nil {
		c.User = u.User.Username()
		if pass, ok := u.User.Password(); ok {
			c.Password = pass
		}
	}
	if root := strings.Trim(u.Path, "/"); root != "" {
		c.Crawl.RootPath = root
	}
	return nil
}

// Address is host:port, using the scheme's default port when none is set.
func (c *Config) Address() string {
	port := c.Port
	if port == 0 {
		port = DefaultPort(c.Scheme)
	}
	return fmt.Sprintf("%s:%d", c.Host, port)
}

// SourceURL renders the connection for logs and the manifest, without the password.
func (c *Config) SourceURL() *url.URL {
	u := &url.URL{
		Scheme: c.Scheme,
		Host:   c.Address(),
		Path:   "/" + c.Crawl.RootPath,
	}
	if c.User != "" {
		u.User = url.User(c.User)
	}
	return u
}

// Validate checks the values the traversal relies on.
func (c *Config) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("host address is mandatory")
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.Crawl.MaxDepth < 0 {
		return fmt.Errorf("depth must not be negative, got %d", c.Crawl.MaxDepth)
	}
	if !c.Crawl.DownloadAll && c.Crawl.ExtensionFilter == "" {
		return fmt.Errorf("extension must not be empty, use --all to download every file")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	return nil
}

// DefaultPort is the well-known port of scheme.
func DefaultPort(scheme string) int {
	switch scheme {
	case "sftp":
		return 22
	default:
		return 21
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return n, nil
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return b
}
