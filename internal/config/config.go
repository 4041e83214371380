package config

import (
	"fmt"
	"strconv"
	"time"
)

// Config holds server configuration values.
type Config struct {
	Addr            string        `mapstructure:"addr" yaml:"addr"`
	AdminAddr       string        `mapstructure:"admin_addr" yaml:"admin_addr"`
	Namespace       string        `mapstructure:"namespace" yaml:"namespace"`
	Capacity        int           `mapstructure:"capacity" yaml:"capacity"`
	MaxLineLength   int           `mapstructure:"max_line_length" yaml:"max_line_length"`
	SnapshotTimeout time.Duration `mapstructure:"snapshot_timeout" yaml:"snapshot_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	// ReadHeaderTimeout and WSRateLimit only apply when AdminAddr is set.
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	WSRateLimit       int           `mapstructure:"ws_rate_limit" yaml:"ws_rate_limit"`
	LogLevel          string        `mapstructure:"log_level" yaml:"log_level"`
}

// Default returns the configuration used when nothing else is set.
func Default() Config {
	return Config{
		Addr:              ":1234",
		Namespace:         "chatrelay",
		Capacity:          100,
		MaxLineLength:     500,
		SnapshotTimeout:   5 * time.Second,
		WriteTimeout:      10 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WSRateLimit:       60,
		LogLevel:          "info",
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Config) UpdateFrom(other Config) {
	if other.Addr != "" {
		c.Addr = other.Addr
	}
	if other.AdminAddr != "" {
		c.AdminAddr = other.AdminAddr
	}
	if other.Namespace != "" {
		c.Namespace = other.Namespace
	}
	if other.Capacity != 0 {
		c.Capacity = other.Capacity
	}
	if other.MaxLineLength != 0 {
		c.MaxLineLength = other.MaxLineLength
	}
	if other.SnapshotTimeout != 0 {
		c.SnapshotTimeout = other.SnapshotTimeout
	}
	if other.WriteTimeout != 0 {
		c.WriteTimeout = other.WriteTimeout
	}
	if other.ShutdownTimeout != 0 {
		c.ShutdownTimeout = other.ShutdownTimeout
	}
	if other.ReadHeaderTimeout != 0 {
		c.ReadHeaderTimeout = other.ReadHeaderTimeout
	}
	if other.WSRateLimit != 0 {
		c.WSRateLimit = other.WSRateLimit
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
}

// Validate rejects values the server cannot run with.
func (c Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("addr is required")
	}
	if c.Namespace == "" {
		return fmt.Errorf("namespace is required")
	}
	if c.Capacity <= 0 {
		return fmt.Errorf("capacity must be positive, got %d", c.Capacity)
	}
	if c.MaxLineLength <= 0 {
		return fmt.Errorf("max_line_length must be positive, got %d", c.MaxLineLength)
	}
	if c.WSRateLimit < 0 {
		return fmt.Errorf("ws_rate_limit must not be negative, got %d", c.WSRateLimit)
	}
	if c.SnapshotTimeout < 0 || c.WriteTimeout < 0 || c.ShutdownTimeout < 0 || c.ReadHeaderTimeout < 0 {
		return fmt.Errorf("timeouts must not be negative")
	}
	return nil
}

// PortAddr turns the optional CLI port argument into a listen address.
func PortAddr(arg string) (string, error) {
	port, err := strconv.Atoi(arg)
	if err != nil || port < 1 || port > 65535 {
		return "", fmt.Errorf("invalid port %q", arg)
	}
	return ":" + strconv.Itoa(port), nil
}
