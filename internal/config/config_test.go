package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}

	if expected, actual := "mistral-large-latest", cfg.OpenAI.Model; expected != actual {
		t.Errorf("Expected model %q, got %q", expected, actual)
	}
	if expected, actual := "audio_outputs", cfg.Audio.Dir; expected != actual {
		t.Errorf("Expected audio dir %q, got %q", expected, actual)
	}
	if expected, actual := "Salesforce/blip-image-captioning-base", cfg.Caption.Model; expected != actual {
		t.Errorf("Expected caption model %q, got %q", expected, actual)
	}
	if cfg.Audio.TTL != 0 {
		t.Errorf("Expected eviction to be disabled by default, got ttl %v", cfg.Audio.TTL)
	}
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	data := "OPENAI_API_KEY=from-file\nAUDIO_TTL=1h\nSERVER_PORT=9999\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("ENV_FILE", path)
	// Set through t.Setenv so the value is restored after the test.
	t.Setenv("SERVER_PORT", "7000")
	t.Setenv("OPENAI_API_KEY", "")
	os.Unsetenv("OPENAI_API_KEY")
	t.Setenv("AUDIO_TTL", "")
	os.Unsetenv("AUDIO_TTL")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}

	if expected, actual := "from-file", cfg.OpenAI.APIKey; expected != actual {
		t.Errorf("Expected api key %q, got %q", expected, actual)
	}
	if expected, actual := time.Hour, cfg.Audio.TTL; expected != actual {
		t.Errorf("Expected ttl %v, got %v", expected, actual)
	}
	if expected, actual := "7000", cfg.Server.Port; expected != actual {
		t.Errorf("Expected process env to win with port %q, got %q", expected, actual)
	}
}
