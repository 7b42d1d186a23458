package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// Config mirrors the TOML configuration file: the Gerrit server to
// query, a global reporting window, and the users to report on.
type Config struct {
	Server string         `toml:"server"`
	Port   string         `toml:"port"`
	From   toml.LocalDate `toml:"from"`
	To     toml.LocalDate `toml:"to"`
	Users  []User         `toml:"user"`
}

// User is one configured statistics subject. From and To override the
// global reporting window when set.
type User struct {
	Username string          `toml:"username"`
	Fullname string          `toml:"fullname"`
	From     *toml.LocalDate `toml:"from"`
	To       *toml.LocalDate `toml:"to"`
}

// DateRange is a user's reporting window in epoch seconds, spanning
// from 00:00:00 of the from-date to 23:59:59 of the to-date.
type DateRange struct {
	FromTs int64
	ToTs   int64
}

// Load reads the TOML config file and normalizes per-user date ranges.
// A .env file is loaded first for runtime overrides (LOG_LEVEL, SSH_BINARY).
func Load(path string) (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cfg.fillMissingDates()
	return &cfg, nil
}

// Validate checks that every field the run depends on is present.
func (c *Config) Validate() error {
	if c.Server == "" {
		return errors.New("server is required")
	}
	if c.Port == "" {
		return errors.New("port is required")
	}
	if c.From.Year == 0 {
		return errors.New("global from date is required")
	}
	if c.To.Year == 0 {
		return errors.New("global to date is required")
	}
	if len(c.Users) == 0 {
		return errors.New("at least one user is required")
	}
	for i, user := range c.Users {
		if user.Username == "" {
			return fmt.Errorf("user %d: username is required", i)
		}
		if user.Fullname == "" {
			return fmt.Errorf("user %q: fullname is required", user.Username)
		}
	}
	return nil
}

// fillMissingDates defaults each user's window to the global range.
func (c *Config) fillMissingDates() {
	for i := range c.Users {
		if c.Users[i].From == nil {
			from := c.From
			c.Users[i].From = &from
		}
		if c.Users[i].To == nil {
			to := c.To
			c.Users[i].To = &to
		}
	}
}

// UserDateRanges returns the normalized username -> window table
// consumed read-only by the aggregator.
func (c *Config) UserDateRanges() map[string]DateRange {
	ranges := make(map[string]DateRange, len(c.Users))
	for _, user := range c.Users {
		ranges[user.Username] = DateRange{
			FromTs: dayStart(*user.From),
			ToTs:   dayEnd(*user.To),
		}
	}
	return ranges
}

// UserNames returns the username -> display name table.
func (c *Config) UserNames() map[string]string {
	names := make(map[string]string, len(c.Users))
	for _, user := range c.Users {
		names[user.Username] = user.Fullname
	}
	return names
}

// SSHBinary returns the ssh executable to spawn, overridable via env.
func (c *Config) SSHBinary() string {
	if binary := os.Getenv("SSH_BINARY"); binary != "" {
		return binary
	}
	return "ssh"
}

// dayStart converts a calendar date to the epoch seconds of its
// 00:00:00 local time.
func dayStart(d toml.LocalDate) int64 {
	return d.AsTime(time.Local).Unix()
}

// dayEnd converts a calendar date to the epoch seconds of its
// 23:59:59 local time.
func dayEnd(d toml.LocalDate) int64 {
	return d.AsTime(time.Local).Add(23*time.Hour + 59*time.Minute + 59*time.Second).Unix()
}
