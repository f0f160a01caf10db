package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const sampleConfig = `
environment: development
server:
  port: 8080
  read_timeout: 10s
  write_timeout: 10s
  shutdown_timeout: 5s
metrics:
  enabled: true
  path: /metrics
backend:
  type: memory
  entities:
    - id: e1
      name: Hero Man
      kind: character
      universe: earth-1
pipeline:
  tick_period: 60s
  chunk_size: 25
  chunk_pause: 50ms
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Environment != "development" {
		t.Fatalf("environment = %q", cfg.Environment)
	}
	if cfg.Server.Port != 8080 || cfg.Server.ReadTimeout != 10*time.Second {
		t.Fatalf("server = %+v", cfg.Server)
	}
	if cfg.Backend.Type != "memory" {
		t.Fatalf("backend = %q", cfg.Backend.Type)
	}
	if len(cfg.Backend.Entities) != 1 || cfg.Backend.Entities[0].Name != "Hero Man" {
		t.Fatalf("entities = %+v", cfg.Backend.Entities)
	}
	if cfg.Pipeline.TickPeriod != time.Minute || cfg.Pipeline.ChunkSize != 25 || cfg.Pipeline.ChunkPause != 50*time.Millisecond {
		t.Fatalf("pipeline = %+v", cfg.Pipeline)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestValidateBackendType(t *testing.T) {
	bad := `
environment: development
backend:
  type: postgres
`
	if _, err := Load(writeConfig(t, bad)); err == nil {
		t.Fatalf("expected error for unsupported backend type")
	}
}

func TestValidateFeedRequirements(t *testing.T) {
	bad := `
environment: development
backend:
  type: memory
feed:
  enabled: true
`
	if _, err := Load(writeConfig(t, bad)); err == nil {
		t.Fatalf("expected error for enabled feed without api key")
	}
}

func TestValidateKafkaBrokers(t *testing.T) {
	bad := `
environment: development
backend:
  type: memory
kafka:
  enabled: true
`
	if _, err := Load(writeConfig(t, bad)); err == nil {
		t.Fatalf("expected error for enabled kafka without brokers")
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	t.Setenv("BACKEND", "memory")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("KAFKA_EVENTS_TOPIC", "narrative.events")

	cfg, err := LoadWithEnv(writeConfig(t, sampleConfig))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Backend.Type != "memory" {
		t.Fatalf("backend = %q", cfg.Backend.Type)
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[1] != "k2:9092" {
		t.Fatalf("brokers = %v", cfg.Kafka.Brokers)
	}
	if cfg.Kafka.EventsTopic != "narrative.events" {
		t.Fatalf("events topic = %q", cfg.Kafka.EventsTopic)
	}
}
