package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func env(vars map[string]string) func(string) string {
	return func(k string) string { return vars[k] }
}

var complete = map[string]string{
	"TWILIO_ACCOUNT_SID": "AC123",
	"TWILIO_AUTH_TOKEN":  "secret",
	"TWILIO_FROM":        "+15550001111",
	"TWILIO_TO":          "+15550002222",
	"ASSEMBLYAI_API_KEY": "key",
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", env(complete))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.Polling.RecordingInterval.Duration != 5*time.Second {
		t.Errorf("recording interval = %v", cfg.Polling.RecordingInterval)
	}
	if cfg.Call.Announcement != DefaultAnnouncement || cfg.Call.Voice != "alice" {
		t.Errorf("call = %+v", cfg.Call)
	}
	if cfg.Server.Port != "8080" {
		t.Errorf("port = %q", cfg.Server.Port)
	}
}

func TestLoadShortAliases(t *testing.T) {
	cfg, err := Load("", env(map[string]string{
		"SID":  "AC9",
		"AUTH": "tok",
		"FROM": "+1",
		"TO":   "+2",
		"API":  "k",
	}))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Twilio.AccountSID != "AC9" || cfg.Twilio.AuthToken != "tok" || cfg.AssemblyAI.APIKey != "k" {
		t.Errorf("aliases not applied: %+v %+v", cfg.Twilio, cfg.AssemblyAI)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	body := `
[twilio]
account_sid = "ACfile"
auth_token = "file-secret"
from = "+1000"
to = "+2000"

[assemblyai]
api_key = "file-key"

[polling]
recording_interval = "2s"
recording_timeout = "1m"
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path, env(map[string]string{"TWILIO_TO": "+3000", "RECORDING_TIMEOUT": "90s"}))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Twilio.AccountSID != "ACfile" {
		t.Errorf("account sid = %q", cfg.Twilio.AccountSID)
	}
	if cfg.Twilio.To != "+3000" {
		t.Errorf("env did not override file: to = %q", cfg.Twilio.To)
	}
	if cfg.Polling.RecordingInterval.Duration != 2*time.Second {
		t.Errorf("interval = %v", cfg.Polling.RecordingInterval)
	}
	if cfg.Polling.RecordingTimeout.Duration != 90*time.Second {
		t.Errorf("timeout = %v", cfg.Polling.RecordingTimeout)
	}
	if cfg.Polling.TranscriptInterval.Duration != 5*time.Second {
		t.Errorf("unset value lost its default: %v", cfg.Polling.TranscriptInterval)
	}
}

func TestLoadBadDuration(t *testing.T) {
	if _, err := Load("", env(map[string]string{"TRANSCRIPT_TIMEOUT": "soon"})); err == nil {
		t.Fatal("expected error for unparsable duration")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.toml"), env(nil)); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestValidateReportsEverything(t *testing.T) {
	cfg := Default()
	cfg.Polling.RecordingInterval.Duration = 500 * time.Millisecond
	cfg.Polling.TranscriptTimeout.Duration = 0

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{
		"twilio account sid is required",
		"assemblyai api key is required",
		"recording poll interval must be at least 1s",
		"transcript timeout must be positive",
	} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("missing %q in %v", want, err)
		}
	}
}

func TestValidateWriteTimeoutCoversRun(t *testing.T) {
	cfg, err := Load("", env(complete))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	cfg.Polling.RecordingTimeout.Duration = 6 * time.Minute

	err = cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "write timeout") {
		t.Fatalf("err = %v, want write timeout error", err)
	}

	cfg.Server.WriteTimeout.Duration = 15 * time.Minute
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate with a longer write timeout: %v", err)
	}
}
