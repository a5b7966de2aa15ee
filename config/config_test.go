package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
)

func TestConfig(t *testing.T) {

	config, err := Load("config.example.yaml")
	if err != nil {
		t.Fatal(err)
	}

	if got, want := config.DatabasePath, "./florist.db"; got != want {
		t.Errorf("got %s want %s", got, want)
	}
	if got, want := config.Web.ListenAddress, "127.0.0.1:8080"; got != want {
		t.Errorf("got %s want %s", got, want)
	}
	if got, want := config.LogLevel, log.InfoLevel; got != want {
		t.Errorf("got %v want %v", got, want)
	}
}

func TestConfigValidation(t *testing.T) {

	tests := []struct {
		name  string
		yaml  string
		isErr bool
	}{
		{
			name: "minimal",
			yaml: "database_path: ./x.db\nweb:\n  listen_address: 127.0.0.1:8080\n",
		},
		{
			name:  "missing database path",
			yaml:  "web:\n  listen_address: 127.0.0.1:8080\n",
			isErr: true,
		},
		{
			name:  "missing listen address",
			yaml:  "database_path: ./x.db\n",
			isErr: true,
		},
		{
			name:  "bad log level",
			yaml:  "database_path: ./x.db\nlog_level: noisy\nweb:\n  listen_address: 127.0.0.1:8080\n",
			isErr: true,
		},
		{
			name:  "templates path without static path",
			yaml:  "database_path: ./x.db\nweb:\n  listen_address: 127.0.0.1:8080\n  templates_path: ./tpl\n",
			isErr: true,
		},
		{
			name:  "development mode without overrides",
			yaml:  "database_path: ./x.db\nweb:\n  listen_address: 127.0.0.1:8080\n  development_mode: true\n",
			isErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tt.yaml), 0644); err != nil {
				t.Fatal(err)
			}
			_, err := Load(path)
			if (err != nil) != tt.isErr {
				t.Fatalf("error %v, expected error %t", err, tt.isErr)
			}
		})
	}
}

func TestConfigFileMissing(t *testing.T) {
	if _, err := Load("no-such-file.yaml"); err == nil {
		t.Fatal("expected error for missing config file")
	}
}
