package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const validYAML = `
environment: test
server:
  port: 9090
  read_timeout: 5s
  write_timeout: 5s
  shutdown_timeout: 5s
broker:
  app_id: "1089"
  websocket_url: wss://example.test/ws
  markets: [R_10, R_25]
  reconnect_delay: 2s
  ping_interval: 15s
inference:
  base_url: http://localhost:8500
risk:
  base_stake: 1
  max_drawdown: 50
kafka:
  enabled: true
  brokers: [localhost:9092]
  ticks_topic: market.ticks
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadValid(t *testing.T) {
	cfg, err := Load(writeConfig(t, validYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Broker.ReconnectDelay != 2*time.Second {
		t.Errorf("reconnect delay = %v", cfg.Broker.ReconnectDelay)
	}
	if len(cfg.Broker.Markets) != 2 {
		t.Errorf("markets = %v", cfg.Broker.Markets)
	}
	if cfg.Kafka.TicksTopic != "market.ticks" {
		t.Errorf("ticks topic = %q", cfg.Kafka.TicksTopic)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"missing environment", func(c *Config) { c.Environment = "" }, true},
		{"no markets", func(c *Config) { c.Broker.Markets = nil }, true},
		{"no websocket url", func(c *Config) { c.Broker.WebSocketURL = "" }, true},
		{"no inference url", func(c *Config) { c.Inference.BaseURL = "" }, true},
		{"kafka enabled without brokers", func(c *Config) { c.Kafka.Brokers = nil }, true},
		{"kafka disabled without brokers", func(c *Config) { c.Kafka.Enabled = false; c.Kafka.Brokers = nil }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(writeConfig(t, validYAML))
			if err != nil {
				t.Fatal(err)
			}
			tt.mutate(cfg)
			err = cfg.Validate()
			if tt.wantErr && err == nil {
				t.Error("expected validation error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	t.Setenv("MARKETS", "R_50,R_75")
	t.Setenv("INFERENCE_URL", "http://inference:9000")
	t.Setenv("KAFKA_BROKERS", "kafka1:9092,kafka2:9092")

	cfg, err := LoadWithEnv(writeConfig(t, validYAML))
	if err != nil {
		t.Fatalf("load with env: %v", err)
	}
	if len(cfg.Broker.Markets) != 2 || cfg.Broker.Markets[0] != "R_50" {
		t.Errorf("markets = %v", cfg.Broker.Markets)
	}
	if cfg.Inference.BaseURL != "http://inference:9000" {
		t.Errorf("inference url = %q", cfg.Inference.BaseURL)
	}
	if len(cfg.Kafka.Brokers) != 2 {
		t.Errorf("brokers = %v", cfg.Kafka.Brokers)
	}
}
