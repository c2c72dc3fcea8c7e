package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const DefaultAnnouncement = "Hello! Please tell me your name, preferred date, and time for appointment after the beep. This call will be recorded."

// Config is read once at startup and passed down; nothing below cmd/ reads
// the environment.
type Config struct {
	Server     ServerConfig     `toml:"server"`
	Log        LogConfig        `toml:"log"`
	Twilio     TwilioConfig     `toml:"twilio"`
	AssemblyAI AssemblyAIConfig `toml:"assemblyai"`
	Polling    PollingConfig    `toml:"polling"`
	Call       CallConfig       `toml:"call"`
}

type ServerConfig struct {
	Port         string   `toml:"port"`
	ReadTimeout  Duration `toml:"read_timeout"`
	WriteTimeout Duration `toml:"write_timeout"`
}

type LogConfig struct {
	Level       string `toml:"level"`
	Environment string `toml:"environment"`
}

type TwilioConfig struct {
	AccountSID  string   `toml:"account_sid"`
	AuthToken   string   `toml:"auth_token"`
	From        string   `toml:"from"`
	To          string   `toml:"to"`
	BaseURL     string   `toml:"base_url"`
	HTTPTimeout Duration `toml:"http_timeout"`
}

type AssemblyAIConfig struct {
	APIKey      string   `toml:"api_key"`
	BaseURL     string   `toml:"base_url"`
	HTTPTimeout Duration `toml:"http_timeout"`
}

type PollingConfig struct {
	RecordingInterval  Duration `toml:"recording_interval"`
	RecordingTimeout   Duration `toml:"recording_timeout"`
	TranscriptInterval Duration `toml:"transcript_interval"`
	TranscriptTimeout  Duration `toml:"transcript_timeout"`
}

type CallConfig struct {
	Announcement     string `toml:"announcement"`
	Voice            string `toml:"voice"`
	MaxRecordSeconds int    `toml:"max_record_seconds"`
}

// Duration lets TOML carry values like "5s" or "3m".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         "8080",
			ReadTimeout:  Duration{15 * time.Second},
			WriteTimeout: Duration{10 * time.Minute},
		},
		Log: LogConfig{Level: "info", Environment: "local"},
		Twilio: TwilioConfig{
			BaseURL:     "https://api.twilio.com",
			HTTPTimeout: Duration{15 * time.Second},
		},
		AssemblyAI: AssemblyAIConfig{
			BaseURL:     "https://api.assemblyai.com",
			HTTPTimeout: Duration{30 * time.Second},
		},
		Polling: PollingConfig{
			RecordingInterval:  Duration{5 * time.Second},
			RecordingTimeout:   Duration{3 * time.Minute},
			TranscriptInterval: Duration{5 * time.Second},
			TranscriptTimeout:  Duration{5 * time.Minute},
		},
		Call: CallConfig{
			Announcement:     DefaultAnnouncement,
			Voice:            "alice",
			MaxRecordSeconds: 20,
		},
	}
}

// Load starts from defaults, applies the TOML file at path when given, then
// environment overrides from getenv.
func Load(path string, getenv func(string) string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	if getenv == nil {
		getenv = os.Getenv
	}
	if err := cfg.applyEnv(getenv); err != nil {
		return nil, err
	}
	return cfg, nil
}

// first returns the first non-empty variable among keys.
func first(getenv func(string) string, keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(getenv(k)); v != "" {
			return v
		}
	}
	return ""
}

func (c *Config) applyEnv(getenv func(string) string) error {
	setString := func(dst *string, keys ...string) {
		if v := first(getenv, keys...); v != "" {
			*dst = v
		}
	}
	var errs []error
	setDuration := func(dst *Duration, key string) {
		if v := first(getenv, key); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			dst.Duration = d
		}
	}

	setString(&c.Server.Port, "PORT")
	setString(&c.Log.Level, "LOG_LEVEL")
	setString(&c.Log.Environment, "ENVIRONMENT")

	setString(&c.Twilio.AccountSID, "TWILIO_ACCOUNT_SID", "SID")
	setString(&c.Twilio.AuthToken, "TWILIO_AUTH_TOKEN", "AUTH")
	setString(&c.Twilio.From, "TWILIO_FROM", "FROM")
	setString(&c.Twilio.To, "TWILIO_TO", "TO")
	setString(&c.Twilio.BaseURL, "TWILIO_BASE_URL")
	setString(&c.AssemblyAI.APIKey, "ASSEMBLYAI_API_KEY", "API")
	setString(&c.AssemblyAI.BaseURL, "ASSEMBLYAI_BASE_URL")
	setString(&c.Call.Announcement, "CALL_ANNOUNCEMENT")

	setDuration(&c.Twilio.HTTPTimeout, "HTTP_TIMEOUT")
	setDuration(&c.AssemblyAI.HTTPTimeout, "HTTP_TIMEOUT")
	setDuration(&c.Polling.RecordingInterval, "RECORDING_POLL_INTERVAL")
	setDuration(&c.Polling.RecordingTimeout, "RECORDING_TIMEOUT")
	setDuration(&c.Polling.TranscriptInterval, "TRANSCRIPT_POLL_INTERVAL")
	setDuration(&c.Polling.TranscriptTimeout, "TRANSCRIPT_TIMEOUT")

	if v := first(getenv, "RECORD_MAX_SECONDS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("RECORD_MAX_SECONDS: %w", err))
		} else {
			c.Call.MaxRecordSeconds = n
		}
	}
	return errors.Join(errs...)
}

// Validate reports every missing or out-of-range setting at once.
func (c *Config) Validate() error {
	var errs []error
	required := []struct {
		name  string
		value string
	}{
		{"twilio account sid", c.Twilio.AccountSID},
		{"twilio auth token", c.Twilio.AuthToken},
		{"twilio from number", c.Twilio.From},
		{"twilio to number", c.Twilio.To},
		{"assemblyai api key", c.AssemblyAI.APIKey},
	}
	for _, r := range required {
		if r.value == "" {
			errs = append(errs, fmt.Errorf("%s is required", r.name))
		}
	}

	polls := []struct {
		name     string
		interval time.Duration
		timeout  time.Duration
	}{
		{"recording", c.Polling.RecordingInterval.Duration, c.Polling.RecordingTimeout.Duration},
		{"transcript", c.Polling.TranscriptInterval.Duration, c.Polling.TranscriptTimeout.Duration},
	}
	for _, p := range polls {
		if p.interval < time.Second {
			errs = append(errs, fmt.Errorf("%s poll interval must be at least 1s, got %s", p.name, p.interval))
		}
		if p.timeout <= 0 {
			errs = append(errs, fmt.Errorf("%s timeout must be positive", p.name))
		} else if p.timeout < p.interval {
			errs = append(errs, fmt.Errorf("%s timeout %s is shorter than its poll interval %s", p.name, p.timeout, p.interval))
		}
	}
	// /make_call answers only after both waits, so the response must be
	// allowed to take at least that long
	worst := c.Polling.RecordingTimeout.Duration + c.Polling.TranscriptTimeout.Duration +
		c.Twilio.HTTPTimeout.Duration + c.AssemblyAI.HTTPTimeout.Duration
	if c.Server.WriteTimeout.Duration <= worst {
		errs = append(errs, fmt.Errorf("server write timeout %s must exceed the longest call run %s", c.Server.WriteTimeout.Duration, worst))
	}
	if c.Call.MaxRecordSeconds <= 0 {
		errs = append(errs, errors.New("max record seconds must be positive"))
	}
	return errors.Join(errs...)
}
