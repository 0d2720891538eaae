package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(cfgPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return cfgPath
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "env-gemini-key")
	t.Setenv("SENDGRID_API_KEY", "env-sendgrid-key")
	t.Setenv("SENDER_EMAIL", "tutor@flashmind.dev")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("SESSION_TTL_HOURS", "48")

	cfgPath := writeConfig(t, `
port: "8080"
logLevel: "info"
geminiAPIKey: "file-gemini-key"
generationModel: "gemini-2.0-flash"
sendgridAPIKey: "file-sendgrid-key"
senderEmail: "file@flashmind.dev"
sessionTTLHours: 24
`)

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.GeminiAPIKey != "env-gemini-key" {
		t.Fatalf("geminiAPIKey = %q, want env override", cfg.GeminiAPIKey)
	}
	if cfg.SendGridAPIKey != "env-sendgrid-key" {
		t.Fatalf("sendgridAPIKey = %q, want env override", cfg.SendGridAPIKey)
	}
	if cfg.SenderEmail != "tutor@flashmind.dev" {
		t.Fatalf("senderEmail = %q, want env override", cfg.SenderEmail)
	}
	if cfg.RedisAddr != "redis:6379" {
		t.Fatalf("redisAddr = %q, want env override", cfg.RedisAddr)
	}
	if cfg.SessionTTLHours != 48 {
		t.Fatalf("sessionTTLHours = %d, want 48", cfg.SessionTTLHours)
	}
}

func TestLoadDefaults(t *testing.T) {
	cfgPath := writeConfig(t, `
port: "8080"
geminiAPIKey: "key"
generationModel: "gemini-2.0-flash"
`)

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.SessionTTLHours != 24 {
		t.Fatalf("sessionTTLHours = %d, want default 24", cfg.SessionTTLHours)
	}
	if cfg.MaxUploadBytes != 20<<20 {
		t.Fatalf("maxUploadBytes = %d, want default %d", cfg.MaxUploadBytes, 20<<20)
	}
	if cfg.SendGridAPIKey != "" {
		t.Fatalf("sendgridAPIKey = %q, want empty", cfg.SendGridAPIKey)
	}
}

func TestValidateConfigRequiresGeminiKey(t *testing.T) {
	cfgPath := writeConfig(t, `
port: "8080"
generationModel: "gemini-2.0-flash"
`)
	if _, err := Load(cfgPath); err == nil {
		t.Fatalf("expected error for missing geminiAPIKey")
	}
}

func TestValidateConfigSenderRequiredWithSendGrid(t *testing.T) {
	cfg := FileConfig{
		Port:            "8080",
		GeminiAPIKey:    "key",
		GenerationModel: "gemini-2.0-flash",
		SendGridAPIKey:  "sg-key",
	}
	if err := validateConfig(cfg); err == nil {
		t.Fatalf("expected error for sendgridAPIKey without senderEmail")
	}
}
