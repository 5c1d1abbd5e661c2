// Package config has the configuration file for the app
package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"regexp"
	"strconv"
	"strings"
)

// Environment is the deployment environment the server runs in
type Environment string

const (
	EnvDevelopment Environment = "dev"
	EnvStaging     Environment = "staging"
	EnvProduction  Environment = "prod"
	EnvTest        Environment = "test"
)

// String returns the short environment name
func (e Environment) String() string {
	return string(e)
}

// ParseEnvironment accepts the short names plus "development" and "production"
func ParseEnvironment(s string) (Environment, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "dev", "development":
		return EnvDevelopment, nil
	case "staging":
		return EnvStaging, nil
	case "prod", "production":
		return EnvProduction, nil
	case "test":
		return EnvTest, nil
	}
	return EnvDevelopment, fmt.Errorf("ENV must be one of: [dev staging prod test], got: %s", s)
}

// Config holds all application configuration
type Config struct {
	Port              string
	Address           string
	Env               Environment
	LogLevel          string
	LogRetentionWeeks int   // Number of weeks to keep log files
	MaxLogFileSize    int64 // Maximum log file size in bytes
	MaxRequestBody    int64 // Maximum request body size in bytes
	MaxHeaderSize     int64 // Maximum header size in bytes

	DatasetPath        string  // Medicine CSV, local path or http(s) URL
	DirectoryPath      string  // Pharmacy/location YAML; empty uses the built-in directory
	DBPath             string  // SQLite database file
	ReloadAt           string  // gocron At() expression, e.g. "06:00;18:00"
	SimilarTopK        int     // Alternatives returned per lookup
	SearchRadiusKm     float64 // Radius for named-location searches
	CoordinateRadiusKm float64 // Default radius for coordinate searches
	AlertThreshold     int     // Reports needed to raise an alert
	AlertWindowDays    int     // Days of reports counted towards an alert
	CacheSize          int     // In-process alternatives cache entries
	RedisURL           string  // Shared alternatives cache; empty disables redis
	RequireProxy       bool    // Only accept requests forwarded by a local proxy
}

var reloadTimePattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// Load loads and validates configuration from environment variables
func Load() (*Config, error) {
	env, err := ParseEnvironment(getEnvWithDefault("ENV", "dev"))
	if err != nil {
		return nil, fmt.Errorf("configuration validation failed: invalid ENV: %w", err)
	}

	cfg := &Config{
		Port:              getEnvWithDefault("PORT", "8000"),
		Address:           getEnvWithDefault("ADDRESS", "127.0.0.1"),
		Env:               env,
		LogLevel:          strings.ToLower(getEnvWithDefault("LOG_LEVEL", "info")),
		LogRetentionWeeks: getIntEnvWithDefault("LOG_RETENTION_WEEKS", 4),         // 4 weeks default
		MaxLogFileSize:    getInt64EnvWithDefault("MAX_LOG_FILE_SIZE", 104857600), // 100MB default
		MaxRequestBody:    getInt64EnvWithDefault("MAX_REQUEST_BODY", 1048576),    // 1MB default
		MaxHeaderSize:     getInt64EnvWithDefault("MAX_HEADER_SIZE", 1048576),     // 1MB default

		DatasetPath:        getEnvWithDefault("DATASET_PATH", "data/medicine_details.csv"),
		DirectoryPath:      os.Getenv("DIRECTORY_PATH"),
		DBPath:             getEnvWithDefault("DB_PATH", "medishortage.db"),
		ReloadAt:           getEnvWithDefault("RELOAD_AT", "06:00;18:00"),
		SimilarTopK:        getIntEnvWithDefault("SIMILAR_TOP_K", 5),
		SearchRadiusKm:     getFloatEnvWithDefault("SEARCH_RADIUS_KM", 15),
		CoordinateRadiusKm: getFloatEnvWithDefault("COORDINATE_RADIUS_KM", 20),
		AlertThreshold:     getIntEnvWithDefault("ALERT_THRESHOLD", 3),
		AlertWindowDays:    getIntEnvWithDefault("ALERT_WINDOW_DAYS", 7),
		CacheSize:          getIntEnvWithDefault("CACHE_SIZE", 1024),
		RedisURL:           os.Getenv("REDIS_URL"),
		RequireProxy:       getBoolEnvWithDefault("REQUIRE_PROXY", false),
	}

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// validateConfig validates all configuration values
func validateConfig(cfg *Config) error {
	// Validate PORT
	if err := validatePort(cfg.Port); err != nil {
		return fmt.Errorf("invalid PORT: %w", err)
	}

	// Validate ADDRESS
	if err := validateAddress(cfg.Address); err != nil {
		return fmt.Errorf("invalid ADDRESS: %w", err)
	}

	// Validate LOG_LEVEL
	if err := validateLogLevel(cfg.LogLevel); err != nil {
		return fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	// Validate MAX_REQUEST_BODY
	if err := validateSizeLimit(cfg.MaxRequestBody, "MAX_REQUEST_BODY"); err != nil {
		return fmt.Errorf("invalid MAX_REQUEST_BODY: %w", err)
	}

	// Validate MAX_HEADER_SIZE
	if err := validateSizeLimit(cfg.MaxHeaderSize, "MAX_HEADER_SIZE"); err != nil {
		return fmt.Errorf("invalid MAX_HEADER_SIZE: %w", err)
	}

	// Validate LOG_RETENTION_WEEKS
	if err := validateLogRetentionWeeks(cfg.LogRetentionWeeks); err != nil {
		return fmt.Errorf("invalid LOG_RETENTION_WEEKS: %w", err)
	}

	// Validate MAX_LOG_FILE_SIZE
	if err := validateMaxLogFileSize(cfg.MaxLogFileSize); err != nil {
		return fmt.Errorf("invalid MAX_LOG_FILE_SIZE: %w", err)
	}

	if err := validateDatasetPath(cfg.DatasetPath); err != nil {
		return fmt.Errorf("invalid DATASET_PATH: %w", err)
	}

	if cfg.DBPath == "" {
		return fmt.Errorf("invalid DB_PATH: DB_PATH cannot be empty")
	}

	if err := validateReloadAt(cfg.ReloadAt); err != nil {
		return fmt.Errorf("invalid RELOAD_AT: %w", err)
	}

	if err := validateRange(cfg.SimilarTopK, 1, 50, "SIMILAR_TOP_K"); err != nil {
		return err
	}

	if err := validateRadius(cfg.SearchRadiusKm, "SEARCH_RADIUS_KM"); err != nil {
		return err
	}

	if err := validateRadius(cfg.CoordinateRadiusKm, "COORDINATE_RADIUS_KM"); err != nil {
		return err
	}

	if err := validateRange(cfg.AlertThreshold, 1, 1000, "ALERT_THRESHOLD"); err != nil {
		return err
	}

	if err := validateRange(cfg.AlertWindowDays, 1, 365, "ALERT_WINDOW_DAYS"); err != nil {
		return err
	}

	if err := validateRange(cfg.CacheSize, 1, 1000000, "CACHE_SIZE"); err != nil {
		return err
	}

	if err := validateRedisURL(cfg.RedisURL); err != nil {
		return fmt.Errorf("invalid REDIS_URL: %w", err)
	}

	return nil
}

// validatePort validates the PORT environment variable
func validatePort(port string) error {
	if port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}

	portNum, err := strconv.Atoi(port)
	if err != nil {
		return fmt.Errorf("PORT must be a valid number: %w", err)
	}

	if portNum < 1 || portNum > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535")
	}

	// Check for privileged ports
	if portNum < 1024 {
		return fmt.Errorf("PORT %d is privileged (less than 1024), use ports 1024-65535", portNum)
	}

	return nil
}

// validateAddress validates the ADDRESS environment variable
func validateAddress(address string) error {
	if address == "" {
		return fmt.Errorf("ADDRESS cannot be empty")
	}

	// Check for localhost/loopback addresses first
	if address == "127.0.0.1" || address == "::1" || address == "localhost" {
		return nil
	}

	ip := net.ParseIP(address)
	if ip == nil {
		return fmt.Errorf("ADDRESS must be a valid IP address or 'localhost', got: %s", address)
	}

	// Containers bind to all interfaces
	if ip.IsUnspecified() {
		return nil
	}

	if !ip.IsLoopback() && !ip.IsPrivate() {
		return fmt.Errorf("ADDRESS %s is a public IP, consider using private network ranges for security", address)
	}

	return nil
}

// validateLogLevel validates the LOG_LEVEL environment variable
func validateLogLevel(logLevel string) error {
	if logLevel == "" {
		return fmt.Errorf("LOG_LEVEL cannot be empty")
	}

	validLevels := []string{"debug", "info", "warn", "error"}
	logLevel = strings.ToLower(logLevel)

	for _, level := range validLevels {
		if logLevel == level {
			return nil
		}
	}

	return fmt.Errorf("LOG_LEVEL must be one of: %v, got: %s", validLevels, logLevel)
}

// validateSizeLimit validates size limit configuration values
func validateSizeLimit(size int64, configName string) error {
	if size <= 0 {
		return fmt.Errorf("%s must be positive, got: %d", configName, size)
	}

	if size > 100*1024*1024 { // 100MB
		return fmt.Errorf("%s is too large (max 100MB), got: %d bytes", configName, size)
	}

	return nil
}

// validateLogRetentionWeeks validates the LOG_RETENTION_WEEKS environment variable
func validateLogRetentionWeeks(weeks int) error {
	if weeks <= 0 {
		return fmt.Errorf("LOG_RETENTION_WEEKS must be positive, got: %d", weeks)
	}

	if weeks > 52 { // 1 year maximum
		return fmt.Errorf("LOG_RETENTION_WEEKS is too large (max 52 weeks), got: %d", weeks)
	}

	return nil
}

// validateMaxLogFileSize validates the MAX_LOG_FILE_SIZE environment variable
func validateMaxLogFileSize(size int64) error {
	if size <= 0 {
		return fmt.Errorf("MAX_LOG_FILE_SIZE must be positive, got: %d", size)
	}

	// Minimum 1MB, maximum 1GB
	if size < 1024*1024 {
		return fmt.Errorf("MAX_LOG_FILE_SIZE is too small (min 1MB), got: %d bytes", size)
	}

	if size > 1024*1024*1024 {
		return fmt.Errorf("MAX_LOG_FILE_SIZE is too large (max 1GB), got: %d bytes", size)
	}

	return nil
}

// validateDatasetPath accepts a local path or an http(s) URL
func validateDatasetPath(path string) error {
	if path == "" {
		return fmt.Errorf("DATASET_PATH cannot be empty")
	}

	if strings.Contains(path, "://") {
		u, err := url.Parse(path)
		if err != nil {
			return fmt.Errorf("DATASET_PATH is not a valid URL: %w", err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("DATASET_PATH scheme must be http or https, got: %s", u.Scheme)
		}
		if u.Host == "" {
			return fmt.Errorf("DATASET_PATH URL has no host")
		}
	}

	return nil
}

// validateReloadAt validates a semicolon separated list of HH:MM times
func validateReloadAt(reloadAt string) error {
	if reloadAt == "" {
		return fmt.Errorf("RELOAD_AT cannot be empty")
	}

	for _, t := range strings.Split(reloadAt, ";") {
		if !reloadTimePattern.MatchString(t) {
			return fmt.Errorf("RELOAD_AT must be HH:MM times separated by ';', got: %s", reloadAt)
		}
	}

	return nil
}

// validateRadius validates a search radius in kilometers
func validateRadius(radius float64, configName string) error {
	if !(radius > 0) || radius > 20000 {
		return fmt.Errorf("invalid %s: must be between 0 and 20000 km, got: %v", configName, radius)
	}
	return nil
}

// validateRange validates an integer setting against inclusive bounds
func validateRange(value, min, max int, configName string) error {
	if value < min || value > max {
		return fmt.Errorf("invalid %s: must be between %d and %d, got: %d", configName, min, max, value)
	}
	return nil
}

// validateRedisURL validates REDIS_URL when set
func validateRedisURL(redisURL string) error {
	if redisURL == "" {
		return nil
	}

	if strings.HasPrefix(redisURL, "redis://") || strings.HasPrefix(redisURL, "rediss://") {
		u, err := url.Parse(redisURL)
		if err != nil {
			return fmt.Errorf("REDIS_URL is not a valid URL: %w", err)
		}
		if u.Host == "" {
			return fmt.Errorf("REDIS_URL has no host")
		}
		return nil
	}

	if _, _, err := net.SplitHostPort(redisURL); err != nil {
		return fmt.Errorf("REDIS_URL must be a redis:// URL or host:port: %w", err)
	}
	return nil
}

// getEnvWithDefault gets an environment variable with a default value
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getIntEnvWithDefault gets an environment variable as int with a default value
func getIntEnvWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getInt64EnvWithDefault gets an environment variable as int64 with a default value
func getInt64EnvWithDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getFloatEnvWithDefault gets an environment variable as float64 with a default value
func getFloatEnvWithDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getBoolEnvWithDefault gets an environment variable as bool with a default value
func getBoolEnvWithDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// GetEnvVars returns a list of all expected environment variables
func GetEnvVars() []string {
	return []string{
		"PORT",
		"ADDRESS",
		"ENV",
		"LOG_LEVEL",
		"LOG_RETENTION_WEEKS",
		"MAX_LOG_FILE_SIZE",
		"MAX_REQUEST_BODY",
		"MAX_HEADER_SIZE",
		"DATASET_PATH",
		"DIRECTORY_PATH",
		"DB_PATH",
		"RELOAD_AT",
		"SIMILAR_TOP_K",
		"SEARCH_RADIUS_KM",
		"COORDINATE_RADIUS_KM",
		"ALERT_THRESHOLD",
		"ALERT_WINDOW_DAYS",
		"CACHE_SIZE",
		"REDIS_URL",
		"REQUIRE_PROXY",
	}
}
